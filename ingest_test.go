package iris

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/damattl/db-iris-wrapper/feed"
	"github.com/damattl/db-iris-wrapper/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func packed(t time.Time) *feed.PackedTime {
	return &feed.PackedTime{Time: t}
}

func TestIngestTimetable(t *testing.T) {
	date := time.Date(2024, 3, 12, 9, 0, 0, 0, time.Local)
	planned := time.Date(2024, 3, 12, 9, 23, 0, 0, time.Local)

	tt := &feed.Timetable{
		Station: "Hamburg Hbf",
		Stops: []feed.Stop{
			{
				ID:   "101-1",
				Line: &feed.TrainLine{Category: "ICE", Number: "101", Operator: "80"},
				Departure: &feed.Movement{
					Planned:  packed(planned),
					Platform: "14",
				},
			},
			{
				ID:   "202-4",
				Line: &feed.TrainLine{Category: "IC", Number: "202"},
				Arrival: &feed.Movement{
					Planned: packed(planned.Add(10 * time.Minute)),
				},
			},
		},
	}

	trains, stops := IngestTimetable(tt, 8002549, date, testLogger())

	require.Len(t, trains, 2)
	require.Len(t, stops, 2)

	assert.Equal(t, "101-240312", trains[0].ID)
	assert.Equal(t, "202-240312", trains[1].ID)

	assert.Equal(t, "101-1", stops[0].ID)
	assert.Equal(t, "101-240312", stops[0].TrainID)
	assert.Equal(t, 8002549, stops[0].StationID)
	require.NotNil(t, stops[0].Departure)
	assert.Equal(t, "14", stops[0].Departure.Platform)
	assert.Nil(t, stops[0].Arrival)
}

func TestIngestTimetableSkipsUnmappableStops(t *testing.T) {
	date := time.Date(2024, 3, 12, 0, 0, 0, 0, time.Local)

	tt := &feed.Timetable{
		Stops: []feed.Stop{
			{ID: "bad-1"}, // no <tl>
			{ID: "bad-2", Line: &feed.TrainLine{Category: "ICE"}}, // no number
			{ID: "ok-1", Line: &feed.TrainLine{Category: "ICE", Number: "77"}},
		},
	}

	trains, stops := IngestTimetable(tt, 1, date, testLogger())

	require.Len(t, trains, 1)
	require.Len(t, stops, 1)
	assert.Equal(t, "77-240312", trains[0].ID)
}

func TestIngestTimetableSameTrainTwice(t *testing.T) {
	// Two raw stops of the same physical train map to two stops
	// sharing one train id. Deduplication happens at persistence.
	date := time.Date(2024, 3, 12, 0, 0, 0, 0, time.Local)

	tt := &feed.Timetable{
		Stops: []feed.Stop{
			{ID: "s-1", Line: &feed.TrainLine{Category: "ICE", Number: "101"}},
			{ID: "s-2", Line: &feed.TrainLine{Category: "ICE", Number: "101"}},
		},
	}

	trains, stops := IngestTimetable(tt, 1, date, testLogger())

	require.Len(t, trains, 2)
	assert.Equal(t, trains[0].ID, trains[1].ID)
	require.Len(t, stops, 2)
	assert.NotEqual(t, stops[0].ID, stops[1].ID)
}

func TestIngestTimetableChanges(t *testing.T) {
	ts := time.Date(2024, 3, 12, 10, 5, 0, 0, time.Local)
	current := time.Date(2024, 3, 12, 10, 42, 0, 0, time.Local)

	known := map[string]model.Stop{
		"s-1": {ID: "s-1", TrainID: "101-240312", StationID: 1},
	}

	tt := &feed.Timetable{
		Stops: []feed.Stop{
			{
				ID: "s-1",
				Messages: []feed.Message{
					{ID: "m1", Type: "d", Timestamp: packed(ts)},
				},
				Departure: &feed.Movement{
					Current:  packed(current),
					Platform: "7",
				},
			},
			{
				// Never imported; the change feed alone cannot
				// produce a stop.
				ID: "s-unknown",
				Departure: &feed.Movement{
					Current: packed(current),
				},
			},
		},
	}

	msgs, updates := IngestTimetableChanges(tt, 1, known, testLogger())

	require.Len(t, msgs, 1)
	assert.Equal(t, "m1-240312", msgs[0].ID)
	assert.Equal(t, "m1", msgs[0].SourceID)
	assert.Equal(t, "101-240312", msgs[0].TrainID)
	assert.Equal(t, []int{1}, msgs[0].Stations)

	require.Len(t, updates, 1)
	assert.Equal(t, "s-1", updates[0].ID)
	require.NotNil(t, updates[0].Departure)
	assert.Equal(t, "7", updates[0].Departure.Platform)
	assert.Nil(t, updates[0].Arrival)
}

func TestIngestTimetableChangesDeduplicatesMessages(t *testing.T) {
	ts := time.Date(2024, 3, 12, 10, 5, 0, 0, time.Local)
	later := ts.Add(30 * time.Minute)

	known := map[string]model.Stop{
		"s-1": {ID: "s-1", TrainID: "101-240312", StationID: 1},
	}

	pr1, pr2 := 2, 1
	tt := &feed.Timetable{
		Stops: []feed.Stop{
			{
				ID: "s-1",
				Messages: []feed.Message{
					{ID: "m1", Timestamp: packed(ts), Priority: &pr1},
				},
				Arrival: &feed.Movement{
					Messages: []feed.Message{
						// Same id repeated on the arrival;
						// the later occurrence wins.
						{ID: "m1", Timestamp: packed(ts), Priority: &pr2},
						{ID: "m2", Timestamp: packed(later)},
					},
				},
			},
		},
	}

	msgs, _ := IngestTimetableChanges(tt, 1, known, testLogger())

	require.Len(t, msgs, 2)
	assert.Equal(t, "m1-240312", msgs[0].ID)
	require.NotNil(t, msgs[0].Priority)
	assert.Equal(t, 1, *msgs[0].Priority)
	assert.Equal(t, "m2-240312", msgs[1].ID)
}

func TestIngestTimetableChangesSkipsEmptyUpdates(t *testing.T) {
	known := map[string]model.Stop{
		"s-1": {ID: "s-1", TrainID: "101-240312", StationID: 1},
	}

	tt := &feed.Timetable{
		Stops: []feed.Stop{
			{ID: "s-1"}, // message-less, movement-less
		},
	}

	msgs, updates := IngestTimetableChanges(tt, 1, known, testLogger())

	assert.Empty(t, msgs)
	assert.Empty(t, updates)
}
