package feed

import (
	"context"
	"encoding/xml"
	"errors"
	"strings"
	"time"
)

// Errors the fetcher contract distinguishes. ErrEmptyTimetable is an
// expected "nothing scheduled this hour" condition, not a failure.
var (
	ErrEmptyTimetable  = errors.New("empty timetable")
	ErrStationNotFound = errors.New("station not found")
)

// Fetcher retrieves raw timetable data from the IRIS service.
type Fetcher interface {
	// Timetable fetches the planned timetable for one station and
	// one hourly slice of the given date.
	Timetable(ctx context.Context, stationID int, date time.Time, hour int) (*Timetable, error)

	// Changes fetches the full change feed (delays, cancellations,
	// platform changes, disruption messages) for a station.
	Changes(ctx context.Context, stationID int) (*Timetable, error)

	// Station resolves a DS100 station code.
	Station(ctx context.Context, code string) (*Station, error)

	// Catalog fetches the station catalog from a remote source.
	Catalog(ctx context.Context, url string) ([]StationInfo, error)
}

// Timetable is one <timetable> document, either a planned hourly slice
// or a change feed.
type Timetable struct {
	XMLName xml.Name `xml:"timetable"`
	Station string   `xml:"station,attr"`
	EVA     string   `xml:"eva,attr"`
	Stops   []Stop   `xml:"s"`
}

// Stop is one <s> element. In change feeds most fields are sparse and
// the id is the only reliable handle.
type Stop struct {
	ID        string     `xml:"id,attr"`
	EVA       string     `xml:"eva,attr"`
	Line      *TrainLine `xml:"tl"`
	Messages  []Message  `xml:"m"`
	Arrival   *Movement  `xml:"ar"`
	Departure *Movement  `xml:"dp"`
}

// TrainLine is the <tl> train descriptor.
type TrainLine struct {
	Flags    string `xml:"f,attr"`
	Type     string `xml:"t,attr"`
	Operator string `xml:"o,attr"`
	Category string `xml:"c,attr"`
	Number   string `xml:"n,attr"`
}

// Movement is an <ar> or <dp> element: one arrival or departure event.
type Movement struct {
	Planned     *PackedTime `xml:"pt,attr"`
	Current     *PackedTime `xml:"ct,attr"`
	Platform    string      `xml:"pp,attr"`
	Line        string      `xml:"l,attr"`
	PlannedPath Path        `xml:"ppth,attr"`
	ChangedPath Path        `xml:"cpth,attr"`
	Status      string      `xml:"cs,attr"`
	Messages    []Message   `xml:"m"`
}

// Message is an <m> element. The same message commonly appears at stop
// level and again nested in <ar>/<dp>.
type Message struct {
	ID        string      `xml:"id,attr"`
	Type      string      `xml:"t,attr"`
	From      *PackedTime `xml:"from,attr"`
	To        *PackedTime `xml:"to,attr"`
	Category  string      `xml:"cat,attr"`
	Priority  *int        `xml:"pr,attr"`
	Code      *int        `xml:"c,attr"`
	Timestamp *PackedTime `xml:"ts,attr"`
}

// Station is one <station> element of the station lookup endpoint.
type Station struct {
	Name      string `xml:"name,attr"`
	EVA       string `xml:"eva,attr"`
	DS100     string `xml:"ds100,attr"`
	Platforms Path   `xml:"p,attr"`
	Meta      Path   `xml:"meta,attr"`
}

type stations struct {
	XMLName  xml.Name  `xml:"stations"`
	Stations []Station `xml:"station"`
}

// StationInfo is one entry of the bahnvorhersage station catalog.
type StationInfo struct {
	EVA                 int      `json:"eva"`
	DS100               string   `json:"ds100"`
	Lat                 float64  `json:"lat"`
	Lon                 float64  `json:"lon"`
	Name                string   `json:"name"`
	IsActiveRIS         bool     `json:"is_active_ris"`
	IsActiveIRIS        bool     `json:"is_active_iris"`
	MetaEVAs            []int64  `json:"meta_evas"`
	AvailableTransports []string `json:"available_transports"`
	NumberOfEvents      *int64   `json:"number_of_events"`
}

// packedTimeLayout is the "yymmddHHMM" format IRIS packs timestamps in.
const packedTimeLayout = "0601021504"

// PackedTime decodes an IRIS packed timestamp attribute.
type PackedTime struct {
	time.Time
}

func (t *PackedTime) UnmarshalXMLAttr(attr xml.Attr) error {
	parsed, err := time.ParseInLocation(packedTimeLayout, attr.Value, time.Local)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func (t PackedTime) MarshalXMLAttr(name xml.Name) (xml.Attr, error) {
	return xml.Attr{Name: name, Value: t.Format(packedTimeLayout)}, nil
}

// Path decodes a pipe-separated station list attribute.
type Path []string

func (p *Path) UnmarshalXMLAttr(attr xml.Attr) error {
	parts := []string{}
	for _, part := range strings.Split(attr.Value, "|") {
		if part != "" {
			parts = append(parts, part)
		}
	}
	*p = parts
	return nil
}

func (p Path) MarshalXMLAttr(name xml.Name) (xml.Attr, error) {
	return xml.Attr{Name: name, Value: strings.Join(p, "|")}, nil
}
