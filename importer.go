package iris

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/damattl/db-iris-wrapper/codes"
	"github.com/damattl/db-iris-wrapper/feed"
	"github.com/damattl/db-iris-wrapper/model"
	"github.com/damattl/db-iris-wrapper/storage"
)

// Importer runs the import use cases against a fetcher and a storage
// backend. Metrics is optional; a nil Metrics disables instrumentation.
type Importer struct {
	Fetcher feed.Fetcher
	Store   storage.Storage
	Logger  *slog.Logger
	Metrics *Metrics
}

// ImportResult reports what one timetable import fetched and changed.
type ImportResult struct {
	Trains   []model.Train
	Stops    []model.Stop
	Messages []model.Message
	Updated  []model.Stop
}

func (im *Importer) count(c func(m *Metrics), n int) {
	if im.Metrics == nil {
		return
	}
	for i := 0; i < n; i++ {
		c(im.Metrics)
	}
}

// ImportStations loads the station catalog named by src and persists
// the stations worth importing. The source selector prefixes are:
//
//	API:<url>   fetch the bahnvorhersage JSON catalog over HTTP
//	JSON:<path> read the same catalog from a local file
//	SQL:<path>  execute a SQL seed script against the storage backend
//
// Catalog entries are filtered to active long-distance IRIS stations
// with a usable DS100 code. Returns the stations that were newly
// inserted, so repeated runs report zero.
func (im *Importer) ImportStations(ctx context.Context, src string) ([]model.Station, error) {
	var (
		infos []feed.StationInfo
		err   error
	)
	switch {
	case strings.HasPrefix(src, "API:"):
		infos, err = im.Fetcher.Catalog(ctx, strings.TrimPrefix(src, "API:"))
	case strings.HasPrefix(src, "JSON:"):
		infos, err = feed.LoadCatalogFile(strings.TrimPrefix(src, "JSON:"))
	case strings.HasPrefix(src, "SQL:"):
		return im.Store.Stations().ImportSQL(strings.TrimPrefix(src, "SQL:"))
	default:
		return nil, fmt.Errorf("unknown stations source %q", src)
	}
	if err != nil {
		return nil, errors.Wrap(err, "loading station catalog")
	}

	stations := []model.Station{}
	for _, info := range infos {
		if !keepStation(info) {
			continue
		}
		station, err := model.StationFromInfo(info)
		if err != nil {
			im.Logger.Warn("skipping catalog entry", "eva", info.EVA, "err", err)
			continue
		}
		stations = append(stations, station)
	}

	inserted, err := im.Store.Stations().PersistAll(stations)
	if err != nil {
		return nil, errors.Wrap(err, "persisting stations")
	}

	im.Logger.Info("imported stations", "fetched", len(stations), "new", len(inserted))
	return inserted, nil
}

// keepStation decides whether a catalog entry belongs in the working
// set: long-distance traffic only, reachable through IRIS, and a real
// DS100 code (the X-prefixed ones are foreign border points).
func keepStation(info feed.StationInfo) bool {
	if info.DS100 == "" || strings.HasPrefix(info.DS100, "X") {
		return false
	}
	if !info.IsActiveIRIS {
		return false
	}
	for _, transport := range info.AvailableTransports {
		if transport == "INTERCITY_TRAIN" {
			return true
		}
	}
	return false
}

// ImportTimetable imports the planned timetable of one station for the
// hour window starting at start, then applies the station's current
// change feed on top. Hours with nothing scheduled are skipped; any
// other fetch error aborts the import.
func (im *Importer) ImportTimetable(ctx context.Context, stationID int, start time.Time, hoursAhead int) (ImportResult, error) {
	result := ImportResult{}

	iter := NewHourIter(start, hoursAhead-1)
	for {
		date, hour, ok := iter.Next()
		if !ok {
			break
		}

		tt, err := im.Fetcher.Timetable(ctx, stationID, date, hour)
		if errors.Is(err, feed.ErrEmptyTimetable) {
			im.Logger.Debug("empty timetable slice", "station", stationID, "hour", hour)
			continue
		}
		if err != nil {
			return ImportResult{}, errors.Wrapf(err, "fetching timetable for station %d", stationID)
		}

		trains, stops := IngestTimetable(tt, stationID, date, im.Logger)
		result.Trains = append(result.Trains, trains...)
		result.Stops = append(result.Stops, stops...)
	}

	newTrains, err := im.Store.Trains().PersistAll(result.Trains)
	if err != nil {
		return ImportResult{}, errors.Wrap(err, "persisting trains")
	}
	newStops, err := im.Store.Stops().PersistAll(result.Stops)
	if err != nil {
		return ImportResult{}, errors.Wrap(err, "persisting stops")
	}
	im.count(func(m *Metrics) { m.TrainsPersisted.Inc() }, len(newTrains))
	im.count(func(m *Metrics) { m.StopsPersisted.Inc() }, len(newStops))

	// The change feed is applied against the stops just fetched so a
	// fresh import does not miss changes published in between.
	known := map[string]model.Stop{}
	for _, stop := range result.Stops {
		known[stop.ID] = stop
	}
	msgs, updated, err := im.applyChanges(ctx, stationID, known)
	if err != nil {
		return ImportResult{}, err
	}
	result.Messages = msgs
	result.Updated = updated

	im.Logger.Info("imported timetable",
		"station", stationID,
		"trains", len(result.Trains),
		"stops", len(result.Stops),
		"messages", len(result.Messages))
	return result, nil
}

// ImportChanges applies a station's change feed against the stops
// already stored for the given date.
func (im *Importer) ImportChanges(ctx context.Context, stationID int, date time.Time) (ImportResult, error) {
	stored, err := im.Store.Stops().GetForDate(date)
	if err != nil {
		return ImportResult{}, errors.Wrap(err, "loading stops")
	}

	known := map[string]model.Stop{}
	for _, stop := range stored {
		if stop.StationID == stationID {
			known[stop.ID] = stop
		}
	}

	msgs, updated, err := im.applyChanges(ctx, stationID, known)
	if err != nil {
		return ImportResult{}, err
	}
	return ImportResult{Messages: msgs, Updated: updated}, nil
}

func (im *Importer) applyChanges(ctx context.Context, stationID int, known map[string]model.Stop) ([]model.Message, []model.Stop, error) {
	tt, err := im.Fetcher.Changes(ctx, stationID)
	if errors.Is(err, feed.ErrEmptyTimetable) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, errors.Wrapf(err, "fetching changes for station %d", stationID)
	}

	msgs, updates := IngestTimetableChanges(tt, stationID, known, im.Logger)

	newMsgs, err := im.Store.Messages().PersistAll(msgs)
	if err != nil {
		return nil, nil, errors.Wrap(err, "persisting messages")
	}
	updated, err := im.Store.Stops().UpdateMany(updates)
	if err != nil {
		return nil, nil, errors.Wrap(err, "updating stops")
	}

	im.count(func(m *Metrics) { m.MessagesPersisted.Inc() }, len(newMsgs))
	im.count(func(m *Metrics) { m.StopsUpdated.Inc() }, len(updated))
	return msgs, updated, nil
}

// ImportTimetableByCode resolves a DS100 code against the live station
// endpoint, falling back to the local store when the endpoint cannot,
// and imports that station's timetable.
func (im *Importer) ImportTimetableByCode(ctx context.Context, code string, start time.Time, hoursAhead int) (ImportResult, error) {
	station, err := im.resolveStation(ctx, code)
	if err != nil {
		return ImportResult{}, err
	}
	return im.ImportTimetable(ctx, station.ID, start, hoursAhead)
}

func (im *Importer) resolveStation(ctx context.Context, code string) (model.Station, error) {
	raw, err := im.Fetcher.Station(ctx, code)
	if err == nil {
		station, mapErr := model.StationFromFeed(raw)
		if mapErr != nil {
			return model.Station{}, errors.Wrapf(mapErr, "resolving station %q", code)
		}
		if _, err := im.Store.Stations().Persist(station); err != nil {
			return model.Station{}, errors.Wrap(err, "persisting station")
		}
		return station, nil
	}

	im.Logger.Warn("station lookup failed, trying store", "code", code, "err", err)
	station, storeErr := im.Store.Stations().GetByDS100(code)
	if storeErr != nil {
		return model.Station{}, errors.Wrapf(err, "resolving station %q", code)
	}
	return station, nil
}

// ImportTimetableAll runs a full timetable import for every known
// station, or for the single station named by only (a DS100 code). A
// failing station is logged and skipped; the fleet pass keeps going.
func (im *Importer) ImportTimetableAll(ctx context.Context, start time.Time, hoursAhead int, only string) error {
	stations, err := im.stationSet(only)
	if err != nil {
		return err
	}

	for _, station := range stations {
		if _, err := im.ImportTimetable(ctx, station.ID, start, hoursAhead); err != nil {
			im.Logger.Error("timetable import failed", "station", station.ID, "err", err)
			im.count(func(m *Metrics) { m.ImportErrors.Inc() }, 1)
		}
	}
	return nil
}

// ImportChangesAll applies the change feed for every known station.
func (im *Importer) ImportChangesAll(ctx context.Context, date time.Time, only string) error {
	stations, err := im.stationSet(only)
	if err != nil {
		return err
	}

	for _, station := range stations {
		if _, err := im.ImportChanges(ctx, station.ID, date); err != nil {
			im.Logger.Error("change import failed", "station", station.ID, "err", err)
			im.count(func(m *Metrics) { m.ImportErrors.Inc() }, 1)
		}
	}
	return nil
}

func (im *Importer) stationSet(only string) ([]model.Station, error) {
	if only != "" {
		station, err := im.Store.Stations().GetByDS100(only)
		if err != nil {
			return nil, errors.Wrapf(err, "looking up station %q", only)
		}
		return []model.Station{station}, nil
	}

	stations, err := im.Store.Stations().GetAll()
	if err != nil {
		return nil, errors.Wrap(err, "listing stations")
	}
	return stations, nil
}

// ImportStatusCodes loads the status code reference table named by src
// and persists it.
func (im *Importer) ImportStatusCodes(src string) ([]model.StatusCode, error) {
	loaded, err := codes.Load(src, im.Logger)
	if err != nil {
		return nil, errors.Wrap(err, "loading status codes")
	}

	if _, err := im.Store.StatusCodes().PersistAll(loaded); err != nil {
		return nil, errors.Wrap(err, "persisting status codes")
	}

	im.Logger.Info("imported status codes", "count", len(loaded))
	return loaded, nil
}
