package model

import (
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/damattl/db-iris-wrapper/feed"
)

// Mapping failures are per-record and recoverable: callers skip the
// offending record and keep going.
var (
	ErrMissingTrainLine = errors.New("missing train line descriptor")
	ErrMissingNumber    = errors.New("missing train number")
	ErrMissingCategory  = errors.New("missing train category")
	ErrMissingID        = errors.New("missing message id")
	ErrMissingTimestamp = errors.New("missing message timestamp")
	ErrMissingDS100     = errors.New("missing ds100 code")
)

// TrainFromStop builds a Train from a raw planned stop. Requires the
// <tl> descriptor with number and category. The line code is taken from
// the arrival movement when present, else the departure; the
// arrival-side code is the authoritative one for a station-local
// import.
func TrainFromStop(raw *feed.Stop, date time.Time) (Train, error) {
	if raw.Line == nil {
		return Train{}, errors.Wrapf(ErrMissingTrainLine, "stop %s", raw.ID)
	}
	if raw.Line.Number == "" {
		return Train{}, errors.Wrapf(ErrMissingNumber, "stop %s", raw.ID)
	}
	if raw.Line.Category == "" {
		return Train{}, errors.Wrapf(ErrMissingCategory, "stop %s", raw.ID)
	}

	line := ""
	if raw.Arrival != nil && raw.Arrival.Line != "" {
		line = raw.Arrival.Line
	} else if raw.Departure != nil {
		line = raw.Departure.Line
	}

	day := Date(date)

	return Train{
		ID:       TrainID(raw.Line.Number, day),
		Operator: raw.Line.Operator,
		Category: raw.Line.Category,
		Number:   raw.Line.Number,
		Line:     line,
		Date:     day,
	}, nil
}

// StopFromFeed builds a Stop. Movements are optional and mapped
// independently.
func StopFromFeed(raw *feed.Stop, trainID string, stationID int) Stop {
	return Stop{
		ID:        raw.ID,
		TrainID:   trainID,
		StationID: stationID,
		Arrival:   MovementFromFeed(raw.Arrival),
		Departure: MovementFromFeed(raw.Departure),
	}
}

// MovementFromFeed maps a raw movement; nil stays nil.
func MovementFromFeed(raw *feed.Movement) *Movement {
	if raw == nil {
		return nil
	}
	return &Movement{
		Platform:    raw.Platform,
		Planned:     packedTime(raw.Planned),
		Current:     packedTime(raw.Current),
		PlannedPath: raw.PlannedPath,
		ChangedPath: raw.ChangedPath,
	}
}

// MessageFromFeed builds a Message attached to a train at a station.
// Id and timestamp are hard requirements: without them a message can
// neither be deduplicated nor ordered, so it is dropped by the caller.
func MessageFromFeed(raw *feed.Message, trainID string, stationID int) (Message, error) {
	if raw.ID == "" {
		return Message{}, ErrMissingID
	}
	if raw.Timestamp == nil {
		return Message{}, errors.Wrapf(ErrMissingTimestamp, "message %s", raw.ID)
	}

	ts := raw.Timestamp.Time
	now := time.Now()

	return Message{
		ID:          MessageID(raw.ID, ts),
		SourceID:    raw.ID,
		TrainID:     trainID,
		ValidFrom:   packedTime(raw.From),
		ValidTo:     packedTime(raw.To),
		Priority:    raw.Priority,
		Category:    raw.Category,
		Code:        raw.Code,
		Timestamp:   ts,
		Type:        raw.Type,
		LastUpdated: &now,
		Stations:    []int{stationID},
	}, nil
}

// StationFromFeed builds a Station from the IRIS station lookup
// response. Coordinates are not part of that endpoint.
func StationFromFeed(raw *feed.Station) (Station, error) {
	id, err := strconv.Atoi(raw.EVA)
	if err != nil {
		return Station{}, errors.Wrapf(err, "parsing eva %q", raw.EVA)
	}
	if raw.DS100 == "" {
		return Station{}, errors.Wrapf(ErrMissingDS100, "station %s", raw.EVA)
	}

	return Station{
		ID:    id,
		Name:  raw.Name,
		DS100: raw.DS100,
	}, nil
}

// StationFromInfo builds a Station from a catalog entry.
func StationFromInfo(info feed.StationInfo) (Station, error) {
	if info.DS100 == "" {
		return Station{}, errors.Wrapf(ErrMissingDS100, "station %d", info.EVA)
	}

	lat := info.Lat
	lon := info.Lon

	return Station{
		ID:    info.EVA,
		Lat:   &lat,
		Lon:   &lon,
		Name:  info.Name,
		DS100: info.DS100,
	}, nil
}

func packedTime(t *feed.PackedTime) *time.Time {
	if t == nil {
		return nil
	}
	v := t.Time
	return &v
}
