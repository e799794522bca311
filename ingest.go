package iris

import (
	"log/slog"
	"time"

	"github.com/damattl/db-iris-wrapper/feed"
	"github.com/damattl/db-iris-wrapper/model"
)

// IngestTimetable maps a planned hourly timetable slice to domain
// trains and stops. Raw stops that cannot be mapped are logged and
// skipped; one bad record never poisons the slice. Two stops of the
// same train yield two entries with the same train id, which the
// insert-ignore persistence collapses.
func IngestTimetable(tt *feed.Timetable, stationID int, date time.Time, logger *slog.Logger) ([]model.Train, []model.Stop) {
	trains := []model.Train{}
	stops := []model.Stop{}

	for i := range tt.Stops {
		raw := &tt.Stops[i]

		train, err := model.TrainFromStop(raw, date)
		if err != nil {
			logger.Warn("skipping unmappable stop", "stop", raw.ID, "err", err)
			continue
		}

		trains = append(trains, train)
		stops = append(stops, model.StopFromFeed(raw, train.ID, stationID))
	}

	return trains, stops
}

// messageSet collects messages in first-seen order while keeping the
// newest revision per id. The change feed repeats the same message at
// stop level and inside the arrival and departure elements; later
// occurrences overwrite earlier ones in place.
type messageSet struct {
	ordered []model.Message
	index   map[string]int
}

func newMessageSet() *messageSet {
	return &messageSet{index: map[string]int{}}
}

func (s *messageSet) add(msg model.Message) {
	if i, ok := s.index[msg.ID]; ok {
		s.ordered[i] = msg
		return
	}
	s.index[msg.ID] = len(s.ordered)
	s.ordered = append(s.ordered, msg)
}

// IngestTimetableChanges maps a change feed to messages and stop
// patches. Only stops already known from a planned import are
// considered; the change feed alone does not carry enough context to
// create a stop. known maps raw stop ids to their persisted stops.
func IngestTimetableChanges(tt *feed.Timetable, stationID int, known map[string]model.Stop, logger *slog.Logger) ([]model.Message, []model.StopUpdate) {
	msgs := newMessageSet()
	updates := []model.StopUpdate{}

	for i := range tt.Stops {
		raw := &tt.Stops[i]

		stop, ok := known[raw.ID]
		if !ok {
			logger.Debug("change for unknown stop", "stop", raw.ID)
			continue
		}

		collectMessages(msgs, raw, stop.TrainID, stationID, logger)

		update := model.StopUpdate{
			ID:        stop.ID,
			Arrival:   model.MovementFromFeed(raw.Arrival),
			Departure: model.MovementFromFeed(raw.Departure),
		}
		if update.Arrival == nil && update.Departure == nil {
			continue
		}
		updates = append(updates, update)
	}

	return msgs.ordered, updates
}

// collectMessages walks a raw stop's message carriers in a fixed
// order: stop level first, then arrival, then departure. The order
// matters because the last occurrence of a repeated id wins.
func collectMessages(set *messageSet, raw *feed.Stop, trainID string, stationID int, logger *slog.Logger) {
	carriers := [][]feed.Message{raw.Messages}
	if raw.Arrival != nil {
		carriers = append(carriers, raw.Arrival.Messages)
	}
	if raw.Departure != nil {
		carriers = append(carriers, raw.Departure.Messages)
	}

	for _, carrier := range carriers {
		for j := range carrier {
			msg, err := model.MessageFromFeed(&carrier[j], trainID, stationID)
			if err != nil {
				logger.Debug("skipping unmappable message", "stop", raw.ID, "err", err)
				continue
			}
			set.add(msg)
		}
	}
}
