package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/damattl/db-iris-wrapper/model"
)

// The memory and SQLite backends share one behavioral contract; every
// test below runs against both.
func forEachStorage(t *testing.T, test func(t *testing.T, s Storage)) {
	t.Run("memory", func(t *testing.T) {
		test(t, NewMemoryStorage())
	})

	t.Run("sqlite", func(t *testing.T) {
		s, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "iris.db"))
		require.NoError(t, err)
		defer s.Close()
		test(t, s)
	})
}

func ptrTime(t time.Time) *time.Time { return &t }

func TestStationPersistence(t *testing.T) {
	forEachStorage(t, func(t *testing.T, s Storage) {
		lat, lon := 53.55, 10.0
		hamburg := model.Station{ID: 8002549, Lat: &lat, Lon: &lon, Name: "Hamburg Hbf", DS100: "AH"}
		berlin := model.Station{ID: 8011160, Name: "Berlin Hbf", DS100: "BLS"}

		inserted, err := s.Stations().PersistAll([]model.Station{hamburg, berlin})
		require.NoError(t, err)
		assert.Len(t, inserted, 2)

		// Re-persisting an overlap only reports the new station.
		munich := model.Station{ID: 8000261, Name: "München Hbf", DS100: "MH"}
		inserted, err = s.Stations().PersistAll([]model.Station{hamburg, munich})
		require.NoError(t, err)
		require.Len(t, inserted, 1)
		assert.Equal(t, 8000261, inserted[0].ID)

		all, err := s.Stations().GetAll()
		require.NoError(t, err)
		assert.Len(t, all, 3)

		got, err := s.Stations().GetByID(8002549)
		require.NoError(t, err)
		assert.Equal(t, "Hamburg Hbf", got.Name)
		require.NotNil(t, got.Lat)
		assert.InDelta(t, 53.55, *got.Lat, 0.0001)

		got, err = s.Stations().GetByDS100("MH")
		require.NoError(t, err)
		assert.Equal(t, 8000261, got.ID)

		_, err = s.Stations().GetByID(1)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.Stations().GetByDS100("NOPE")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestTrainQueries(t *testing.T) {
	forEachStorage(t, func(t *testing.T, s Storage) {
		day := time.Date(2024, 3, 12, 0, 0, 0, 0, time.Local)
		nextDay := day.AddDate(0, 0, 1)

		trains := []model.Train{
			{ID: "101-240312", Category: "ICE", Number: "101", Date: day},
			{ID: "202-240312", Category: "IC", Number: "202", Operator: "80", Line: "22", Date: day},
			{ID: "101-240313", Category: "ICE", Number: "101", Date: nextDay},
		}
		inserted, err := s.Trains().PersistAll(trains)
		require.NoError(t, err)
		assert.Len(t, inserted, 3)

		inserted, err = s.Trains().PersistAll(trains[:1])
		require.NoError(t, err)
		assert.Empty(t, inserted)

		got, err := s.Trains().GetByID("202-240312")
		require.NoError(t, err)
		assert.Equal(t, "80", got.Operator)
		assert.Equal(t, "22", got.Line)

		byDate, err := s.Trains().GetByDate(day.Add(13 * time.Hour))
		require.NoError(t, err)
		require.Len(t, byDate, 2)

		_, err = s.Stops().Persist(model.Stop{ID: "s-1", TrainID: "101-240312", StationID: 7})
		require.NoError(t, err)

		byStation, err := s.Trains().GetByStationAndDate(7, day)
		require.NoError(t, err)
		require.Len(t, byStation, 1)
		assert.Equal(t, "101-240312", byStation[0].ID)

		byStation, err = s.Trains().GetByStationAndDate(8, day)
		require.NoError(t, err)
		assert.Empty(t, byStation)
	})
}

func TestStopPersistAndPatch(t *testing.T) {
	forEachStorage(t, func(t *testing.T, s Storage) {
		day := time.Date(2024, 3, 12, 0, 0, 0, 0, time.Local)
		planned := day.Add(9*time.Hour + 23*time.Minute)

		_, err := s.Trains().Persist(model.Train{ID: "101-240312", Category: "ICE", Number: "101", Date: day})
		require.NoError(t, err)

		stop := model.Stop{
			ID:        "s-1",
			TrainID:   "101-240312",
			StationID: 8002549,
			Arrival: &model.Movement{
				Platform:    "14",
				Planned:     ptrTime(planned),
				PlannedPath: []string{"Kiel Hbf", "Neumünster"},
			},
		}
		_, err = s.Stops().Persist(stop)
		require.NoError(t, err)

		// A patch only touches the fields it carries.
		current := planned.Add(18 * time.Minute)
		updated, err := s.Stops().Update(model.StopUpdate{
			ID: "s-1",
			Arrival: &model.Movement{
				Current:  ptrTime(current),
				Platform: "12",
			},
		})
		require.NoError(t, err)

		require.NotNil(t, updated.Arrival)
		assert.Equal(t, "12", updated.Arrival.Platform)
		require.NotNil(t, updated.Arrival.Current)
		assert.True(t, updated.Arrival.Current.Equal(current))
		require.NotNil(t, updated.Arrival.Planned)
		assert.True(t, updated.Arrival.Planned.Equal(planned))
		assert.Equal(t, []string{"Kiel Hbf", "Neumünster"}, updated.Arrival.PlannedPath)

		// A patch can add a side the planned import never had.
		departure := planned.Add(2 * time.Minute)
		updated, err = s.Stops().Update(model.StopUpdate{
			ID:        "s-1",
			Departure: &model.Movement{Current: ptrTime(departure)},
		})
		require.NoError(t, err)
		require.NotNil(t, updated.Departure)
		require.NotNil(t, updated.Arrival)

		_, err = s.Stops().Update(model.StopUpdate{
			ID:      "missing",
			Arrival: &model.Movement{Platform: "1"},
		})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStopUpdateMany(t *testing.T) {
	forEachStorage(t, func(t *testing.T, s Storage) {
		day := time.Date(2024, 3, 12, 0, 0, 0, 0, time.Local)

		_, err := s.Trains().Persist(model.Train{ID: "101-240312", Category: "ICE", Number: "101", Date: day})
		require.NoError(t, err)
		_, err = s.Stops().PersistAll([]model.Stop{
			{ID: "s-1", TrainID: "101-240312", StationID: 1},
			{ID: "s-2", TrainID: "101-240312", StationID: 2},
		})
		require.NoError(t, err)

		updated, err := s.Stops().UpdateMany([]model.StopUpdate{
			{ID: "s-1", Arrival: &model.Movement{Platform: "3"}},
			{ID: "missing", Arrival: &model.Movement{Platform: "9"}},
			{ID: "s-2"}, // empty patch, a no-op
		})
		require.NoError(t, err)

		// The unknown stop and the no-op are skipped, not errors.
		require.Len(t, updated, 1)
		assert.Equal(t, "s-1", updated[0].ID)
	})
}

func TestStopQueries(t *testing.T) {
	forEachStorage(t, func(t *testing.T, s Storage) {
		day := time.Date(2024, 3, 12, 0, 0, 0, 0, time.Local)
		nextDay := day.AddDate(0, 0, 1)

		_, err := s.Trains().PersistAll([]model.Train{
			{ID: "101-240312", Category: "ICE", Number: "101", Date: day},
			{ID: "101-240313", Category: "ICE", Number: "101", Date: nextDay},
		})
		require.NoError(t, err)

		_, err = s.Stops().PersistAll([]model.Stop{
			{
				ID: "s-1", TrainID: "101-240312", StationID: 1,
				Arrival: &model.Movement{Planned: ptrTime(day.Add(9 * time.Hour))},
			},
			{
				// Departure-only stops count for the date too.
				ID: "s-2", TrainID: "101-240312", StationID: 2,
				Departure: &model.Movement{Planned: ptrTime(day.Add(10 * time.Hour))},
			},
			{
				ID: "s-3", TrainID: "101-240313", StationID: 1,
				Arrival: &model.Movement{Planned: ptrTime(nextDay.Add(9 * time.Hour))},
			},
		})
		require.NoError(t, err)

		forDate, err := s.Stops().GetForDate(day)
		require.NoError(t, err)
		assert.Len(t, forDate, 2)

		forTrain, err := s.Stops().GetForTrain("101-240312")
		require.NoError(t, err)
		assert.Len(t, forTrain, 2)

		byStation, err := s.Stops().GetByStationAndDate(1, day)
		require.NoError(t, err)
		require.Len(t, byStation, 1)
		assert.Equal(t, "s-1", byStation[0].ID)
	})
}

func TestMessagePersistence(t *testing.T) {
	forEachStorage(t, func(t *testing.T, s Storage) {
		ts := time.Date(2024, 3, 12, 10, 5, 0, 0, time.Local)
		firstSeen := ts.Add(time.Minute)
		code := 36

		msg := model.Message{
			ID:          "m1-240312",
			SourceID:    "m1",
			TrainID:     "101-240312",
			Code:        &code,
			Timestamp:   ts,
			Type:        "h",
			LastUpdated: ptrTime(firstSeen),
			Stations:    []int{1},
		}

		inserted, err := s.Messages().PersistAll([]model.Message{msg})
		require.NoError(t, err)
		assert.Len(t, inserted, 1)

		// Seeing the message again at another station is not a new
		// insert, but freshness and associations move forward.
		again := msg
		again.LastUpdated = ptrTime(firstSeen.Add(20 * time.Minute))
		again.Stations = []int{2}

		inserted, err = s.Messages().PersistAll([]model.Message{again})
		require.NoError(t, err)
		assert.Empty(t, inserted)

		got, err := s.Messages().GetByID("m1-240312")
		require.NoError(t, err)
		assert.ElementsMatch(t, []int{1, 2}, got.Stations)
		require.NotNil(t, got.LastUpdated)
		assert.True(t, got.LastUpdated.Equal(firstSeen.Add(20*time.Minute)))

		byTrain, err := s.Messages().GetByTrain("101-240312")
		require.NoError(t, err)
		assert.Len(t, byTrain, 1)

		byCode, err := s.Messages().GetByDateAndCode(ts, 36)
		require.NoError(t, err)
		assert.Len(t, byCode, 1)

		byCode, err = s.Messages().GetByDateAndCode(ts.AddDate(0, 0, 1), 36)
		require.NoError(t, err)
		assert.Empty(t, byCode)

		byCode, err = s.Messages().GetByDateAndCode(ts, 99)
		require.NoError(t, err)
		assert.Empty(t, byCode)
	})
}

func TestStatusCodePersistence(t *testing.T) {
	forEachStorage(t, func(t *testing.T, s Storage) {
		inserted, err := s.StatusCodes().PersistAll([]model.StatusCode{
			{Code: 1, Type: model.StatusCodeTravelInfo, LongText: "Störung"},
			{Code: 2, Type: model.StatusCodeQuality, LongText: "Qualitätsmangel"},
		})
		require.NoError(t, err)
		assert.Len(t, inserted, 2)

		got, err := s.StatusCodes().GetByCode(2)
		require.NoError(t, err)
		assert.Equal(t, model.StatusCodeQuality, got.Type)

		_, err = s.StatusCodes().GetByCode(99)
		assert.ErrorIs(t, err, ErrNotFound)

		all, err := s.StatusCodes().GetAll()
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})
}

func TestImportSQL(t *testing.T) {
	script := `INSERT INTO stations (id, lat, lon, name, ds100)
VALUES (8002549, 53.55, 10.0, 'Hamburg Hbf', 'AH');`
	path := filepath.Join(t.TempDir(), "seed.sql")
	require.NoError(t, os.WriteFile(path, []byte(script), 0644))

	s, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "iris.db"))
	require.NoError(t, err)
	defer s.Close()

	stations, err := s.Stations().ImportSQL(path)
	require.NoError(t, err)
	require.Len(t, stations, 1)
	assert.Equal(t, "AH", stations[0].DS100)

	// The memory backend has no SQL surface to run a script against.
	_, err = NewMemoryStorage().Stations().ImportSQL(path)
	assert.Error(t, err)
}
