package iris

import "time"

// HourIter walks hourly (date, hour) slices starting at a point in
// time, rolling over midnight into the next date. An iterator built
// with count n yields n+1 slices, so the window always covers the
// partially elapsed first hour plus n full hours ahead.
type HourIter struct {
	current   time.Time
	remaining int
}

// NewHourIter returns an iterator over the hour slices of the window
// [start, start+count hours].
func NewHourIter(start time.Time, count int) *HourIter {
	return &HourIter{current: start, remaining: count + 1}
}

// Next returns the date and hour of the next slice. The third return
// value is false once the window is exhausted.
func (it *HourIter) Next() (time.Time, int, bool) {
	if it.remaining <= 0 {
		return time.Time{}, 0, false
	}
	it.remaining--

	date := it.current
	hour := date.Hour()
	it.current = it.current.Add(time.Hour)

	return date, hour, true
}
