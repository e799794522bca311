package feed

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spkg/bom"
)

const (
	DefaultBaseURL = "https://iris.noncd.db.de/iris-tts"
	DefaultTimeout = 30 * time.Second
)

// Client fetches timetables from the IRIS HTTP endpoints.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient() *Client {
	return &Client{
		BaseURL:    DefaultBaseURL,
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
	}
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: status %d", url, resp.StatusCode)
	}

	return body, nil
}

func (c *Client) Timetable(ctx context.Context, stationID int, date time.Time, hour int) (*Timetable, error) {
	url := fmt.Sprintf("%s/timetable/plan/%d/%s/%02d", c.BaseURL, stationID, date.Format("060102"), hour)

	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	return decodeTimetable(body)
}

func (c *Client) Changes(ctx context.Context, stationID int) (*Timetable, error) {
	url := fmt.Sprintf("%s/timetable/fchg/%d", c.BaseURL, stationID)

	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	return decodeTimetable(body)
}

func (c *Client) Station(ctx context.Context, code string) (*Station, error) {
	url := fmt.Sprintf("%s/timetable/station/%s", c.BaseURL, code)

	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var result stations
	if err := xml.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decoding station response: %w", err)
	}
	if len(result.Stations) == 0 {
		return nil, fmt.Errorf("resolving %q: %w", code, ErrStationNotFound)
	}

	return &result.Stations[0], nil
}

func (c *Client) Catalog(ctx context.Context, url string) ([]StationInfo, error) {
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	return decodeCatalog(body)
}

// LoadCatalogFile reads a station catalog from a local JSON file.
func LoadCatalogFile(path string) ([]StationInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	defer f.Close()

	body, err := io.ReadAll(bom.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}

	return decodeCatalog(body)
}

func decodeTimetable(body []byte) (*Timetable, error) {
	// IRIS answers a bare self-closing element when the requested
	// hour has no scheduled stops.
	if strings.HasPrefix(strings.TrimSpace(string(body)), "<timetable/>") {
		return nil, ErrEmptyTimetable
	}

	var tt Timetable
	if err := xml.Unmarshal(body, &tt); err != nil {
		return nil, fmt.Errorf("decoding timetable: %w", err)
	}
	if len(tt.Stops) == 0 {
		return nil, ErrEmptyTimetable
	}

	return &tt, nil
}

func decodeCatalog(body []byte) ([]StationInfo, error) {
	var payload struct {
		Stations []StationInfo `json:"stations"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}

	return payload.Stations, nil
}
