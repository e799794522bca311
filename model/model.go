package model

import (
	"fmt"
	"time"
)

// Holds the normalized domain entities the ingestion pipeline produces.

// Station is a railway station known to the IRIS feed. Identified by
// its numeric EVA code; immutable once persisted.
type Station struct {
	ID    int
	Lat   *float64
	Lon   *float64
	Name  string
	DS100 string
}

// Train is one physical train on one calendar date. Its ID is derived
// from business fields, not assigned upstream: "<number>-<yymmdd>".
// Multiple stops of the same train collapse to the same ID.
type Train struct {
	ID       string
	Operator string
	Category string
	Number   string
	Line     string
	Date     time.Time
}

// TrainID derives the identifier for a train number on a departure date.
func TrainID(number string, date time.Time) string {
	return fmt.Sprintf("%s-%s", number, date.Format("060102"))
}

// Movement is one arrival or departure event of a stop.
type Movement struct {
	Platform    string
	Planned     *time.Time
	Current     *time.Time
	PlannedPath []string
	ChangedPath []string
}

// Stop is one train calling at one station. The ID is opaque upstream
// data, unique within the station/day scope it was fetched for.
type Stop struct {
	ID        string
	TrainID   string
	StationID int

	Arrival   *Movement
	Departure *Movement
}

// StopUpdate is a partial view of a stop carrying only the fields the
// change feed may mutate. Applied as a field-level patch, never a full
// overwrite.
type StopUpdate struct {
	ID        string
	Arrival   *Movement
	Departure *Movement
}

// Update extracts the patchable fields of a stop.
func (s Stop) Update() StopUpdate {
	return StopUpdate{
		ID:        s.ID,
		Arrival:   s.Arrival,
		Departure: s.Departure,
	}
}

// Message is a delay/disruption message attached to a train. The ID is
// the upstream message id qualified by the message date, so ids reused
// across days do not collide. A message can touch several stations over
// repeated fetches.
type Message struct {
	ID          string
	SourceID    string
	TrainID     string
	ValidFrom   *time.Time
	ValidTo     *time.Time
	Priority    *int
	Category    string
	Code        *int
	Timestamp   time.Time
	Type        string
	LastUpdated *time.Time
	Stations    []int
}

// MessageID derives the identifier for an upstream message id and its
// timestamp.
func MessageID(sourceID string, ts time.Time) string {
	return fmt.Sprintf("%s-%s", sourceID, ts.Format("060102"))
}

// StatusCodeType classifies a status code.
type StatusCodeType string

const (
	StatusCodeTravelInfo StatusCodeType = "R"
	StatusCodeQuality    StatusCodeType = "Q"
	StatusCodeUnknown    StatusCodeType = "U"
)

// ParseStatusCodeType maps a type letter to its StatusCodeType.
// Unrecognized letters fall back to StatusCodeUnknown; the second
// return value reports whether the letter was recognized.
func ParseStatusCodeType(letter string) (StatusCodeType, bool) {
	switch letter {
	case "R":
		return StatusCodeTravelInfo, true
	case "Q":
		return StatusCodeQuality, true
	case "U":
		return StatusCodeUnknown, true
	default:
		return StatusCodeUnknown, false
	}
}

// StatusCode is one entry of the IRIS status code reference table.
type StatusCode struct {
	Code     int
	Type     StatusCodeType
	LongText string
}

// Date truncates a time to its calendar date, keeping the location.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
