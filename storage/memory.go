package storage

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/damattl/db-iris-wrapper/model"
)

// In memory implementation of Storage below. Backs tests and ephemeral
// runs; a single mutex guards all maps.

type MemoryStorage struct {
	mu sync.Mutex

	stations    map[int]model.Station
	trains      map[string]model.Train
	stops       map[string]model.Stop
	messages    map[string]model.Message
	statusCodes map[int]model.StatusCode
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		stations:    map[int]model.Station{},
		trains:      map[string]model.Train{},
		stops:       map[string]model.Stop{},
		messages:    map[string]model.Message{},
		statusCodes: map[int]model.StatusCode{},
	}
}

func (s *MemoryStorage) Stations() StationStore       { return &memoryStations{s} }
func (s *MemoryStorage) Trains() TrainStore           { return &memoryTrains{s} }
func (s *MemoryStorage) Stops() StopStore             { return &memoryStops{s} }
func (s *MemoryStorage) Messages() MessageStore       { return &memoryMessages{s} }
func (s *MemoryStorage) StatusCodes() StatusCodeStore { return &memoryStatusCodes{s} }
func (s *MemoryStorage) Close() error                 { return nil }

type memoryStations struct{ s *MemoryStorage }

func (m *memoryStations) Persist(station model.Station) (model.Station, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, found := m.s.stations[station.ID]; !found {
		m.s.stations[station.ID] = station
	}
	return station, nil
}

func (m *memoryStations) PersistAll(stations []model.Station) ([]model.Station, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	inserted := []model.Station{}
	for _, station := range stations {
		if _, found := m.s.stations[station.ID]; found {
			continue
		}
		m.s.stations[station.ID] = station
		inserted = append(inserted, station)
	}
	return inserted, nil
}

func (m *memoryStations) GetByID(id int) (model.Station, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	station, found := m.s.stations[id]
	if !found {
		return model.Station{}, ErrNotFound
	}
	return station, nil
}

func (m *memoryStations) GetAll() ([]model.Station, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	stations := []model.Station{}
	for _, station := range m.s.stations {
		stations = append(stations, station)
	}
	sort.Slice(stations, func(i, j int) bool { return stations[i].ID < stations[j].ID })
	return stations, nil
}

func (m *memoryStations) GetByDS100(ds100 string) (model.Station, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, station := range m.s.stations {
		if station.DS100 == ds100 {
			return station, nil
		}
	}
	return model.Station{}, ErrNotFound
}

func (m *memoryStations) ImportSQL(path string) ([]model.Station, error) {
	return nil, fmt.Errorf("sql import not supported by memory storage")
}

type memoryTrains struct{ s *MemoryStorage }

func (m *memoryTrains) Persist(train model.Train) (model.Train, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, found := m.s.trains[train.ID]; !found {
		m.s.trains[train.ID] = train
	}
	return train, nil
}

func (m *memoryTrains) PersistAll(trains []model.Train) ([]model.Train, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	inserted := []model.Train{}
	for _, train := range trains {
		if _, found := m.s.trains[train.ID]; found {
			continue
		}
		m.s.trains[train.ID] = train
		inserted = append(inserted, train)
	}
	return inserted, nil
}

func (m *memoryTrains) GetByID(id string) (model.Train, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	train, found := m.s.trains[id]
	if !found {
		return model.Train{}, ErrNotFound
	}
	return train, nil
}

func (m *memoryTrains) GetAll() ([]model.Train, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	trains := []model.Train{}
	for _, train := range m.s.trains {
		trains = append(trains, train)
	}
	sort.Slice(trains, func(i, j int) bool { return trains[i].ID < trains[j].ID })
	return trains, nil
}

func (m *memoryTrains) GetByDate(date time.Time) ([]model.Train, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	day := model.Date(date)
	trains := []model.Train{}
	for _, train := range m.s.trains {
		if train.Date.Equal(day) {
			trains = append(trains, train)
		}
	}
	sort.Slice(trains, func(i, j int) bool { return trains[i].ID < trains[j].ID })
	return trains, nil
}

func (m *memoryTrains) GetByStationAndDate(stationID int, date time.Time) ([]model.Train, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	day := model.Date(date)
	trains := []model.Train{}
	for _, train := range m.s.trains {
		if !train.Date.Equal(day) {
			continue
		}
		for _, stop := range m.s.stops {
			if stop.TrainID == train.ID && stop.StationID == stationID {
				trains = append(trains, train)
				break
			}
		}
	}
	sort.Slice(trains, func(i, j int) bool { return trains[i].ID < trains[j].ID })
	return trains, nil
}

type memoryStops struct{ s *MemoryStorage }

func (m *memoryStops) Persist(stop model.Stop) (model.Stop, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, found := m.s.stops[stop.ID]; !found {
		m.s.stops[stop.ID] = stop
	}
	return stop, nil
}

func (m *memoryStops) PersistAll(stops []model.Stop) ([]model.Stop, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	inserted := []model.Stop{}
	for _, stop := range stops {
		if _, found := m.s.stops[stop.ID]; found {
			continue
		}
		m.s.stops[stop.ID] = stop
		inserted = append(inserted, stop)
	}
	return inserted, nil
}

func (m *memoryStops) GetByID(id string) (model.Stop, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	stop, found := m.s.stops[id]
	if !found {
		return model.Stop{}, ErrNotFound
	}
	return stop, nil
}

func (m *memoryStops) GetAll() ([]model.Stop, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	stops := []model.Stop{}
	for _, stop := range m.s.stops {
		stops = append(stops, stop)
	}
	sort.Slice(stops, func(i, j int) bool { return stops[i].ID < stops[j].ID })
	return stops, nil
}

func (m *memoryStops) GetForDate(date time.Time) ([]model.Stop, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	stops := []model.Stop{}
	for _, stop := range m.s.stops {
		if movementOnDate(stop.Arrival, date) || movementOnDate(stop.Departure, date) {
			stops = append(stops, stop)
		}
	}
	sort.Slice(stops, func(i, j int) bool { return stops[i].ID < stops[j].ID })
	return stops, nil
}

func (m *memoryStops) GetForTrain(trainID string) ([]model.Stop, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	stops := []model.Stop{}
	for _, stop := range m.s.stops {
		if stop.TrainID == trainID {
			stops = append(stops, stop)
		}
	}
	sort.Slice(stops, func(i, j int) bool { return stops[i].ID < stops[j].ID })
	return stops, nil
}

func (m *memoryStops) GetByStationAndDate(stationID int, date time.Time) ([]model.Stop, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	day := model.Date(date)
	stops := []model.Stop{}
	for _, stop := range m.s.stops {
		if stop.StationID != stationID {
			continue
		}
		train, found := m.s.trains[stop.TrainID]
		if !found || !train.Date.Equal(day) {
			continue
		}
		stops = append(stops, stop)
	}
	sort.Slice(stops, func(i, j int) bool { return stops[i].ID < stops[j].ID })
	return stops, nil
}

func (m *memoryStops) Update(update model.StopUpdate) (model.Stop, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return m.update(update)
}

func (m *memoryStops) UpdateMany(updates []model.StopUpdate) ([]model.Stop, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	stops := []model.Stop{}
	for _, update := range updates {
		stop, err := m.update(update)
		if err != nil {
			continue
		}
		stops = append(stops, stop)
	}
	return stops, nil
}

func (m *memoryStops) update(update model.StopUpdate) (model.Stop, error) {
	stop, found := m.s.stops[update.ID]
	if !found {
		return model.Stop{}, ErrNotFound
	}

	arrival, arrChanged := patchMovement(stop.Arrival, update.Arrival)
	departure, depChanged := patchMovement(stop.Departure, update.Departure)
	if !arrChanged && !depChanged {
		return model.Stop{}, ErrNotFound
	}

	stop.Arrival = arrival
	stop.Departure = departure
	m.s.stops[update.ID] = stop
	return stop, nil
}

// patchMovement overlays the fields a change carries onto the stored
// movement. Absent fields keep their stored value.
func patchMovement(stored, patch *model.Movement) (*model.Movement, bool) {
	if patch == nil {
		return stored, false
	}
	if stored == nil {
		merged := *patch
		return &merged, true
	}

	merged := *stored
	changed := false
	if patch.Platform != "" && patch.Platform != merged.Platform {
		merged.Platform = patch.Platform
		changed = true
	}
	if patch.Planned != nil && !timesEqual(merged.Planned, patch.Planned) {
		merged.Planned = patch.Planned
		changed = true
	}
	if patch.Current != nil && !timesEqual(merged.Current, patch.Current) {
		merged.Current = patch.Current
		changed = true
	}
	if len(patch.PlannedPath) > 0 {
		merged.PlannedPath = patch.PlannedPath
		changed = true
	}
	if len(patch.ChangedPath) > 0 {
		merged.ChangedPath = patch.ChangedPath
		changed = true
	}
	return &merged, changed
}

func timesEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func movementOnDate(mv *model.Movement, date time.Time) bool {
	if mv == nil || mv.Planned == nil {
		return false
	}
	day := model.Date(date)
	return !mv.Planned.Before(day) && mv.Planned.Before(day.AddDate(0, 0, 1))
}

type memoryMessages struct{ s *MemoryStorage }

func (m *memoryMessages) Persist(msg model.Message) (model.Message, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.persist(msg)
	return msg, nil
}

func (m *memoryMessages) PersistAll(msgs []model.Message) ([]model.Message, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	inserted := []model.Message{}
	for _, msg := range msgs {
		if m.persist(msg) {
			inserted = append(inserted, msg)
		}
	}
	return inserted, nil
}

func (m *memoryMessages) persist(msg model.Message) bool {
	known, found := m.s.messages[msg.ID]
	if found {
		// Re-ingesting a known message only revises its
		// freshness and station associations.
		known.LastUpdated = msg.LastUpdated
		known.Stations = unionStations(known.Stations, msg.Stations)
		m.s.messages[msg.ID] = known
		return false
	}
	m.s.messages[msg.ID] = msg
	return true
}

func (m *memoryMessages) GetByID(id string) (model.Message, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	msg, found := m.s.messages[id]
	if !found {
		return model.Message{}, ErrNotFound
	}
	return msg, nil
}

func (m *memoryMessages) GetAll() ([]model.Message, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	msgs := []model.Message{}
	for _, msg := range m.s.messages {
		msgs = append(msgs, msg)
	}
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].ID < msgs[j].ID })
	return msgs, nil
}

func (m *memoryMessages) GetByTrain(trainID string) ([]model.Message, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	msgs := []model.Message{}
	for _, msg := range m.s.messages {
		if msg.TrainID == trainID {
			msgs = append(msgs, msg)
		}
	}
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].ID < msgs[j].ID })
	return msgs, nil
}

func (m *memoryMessages) GetByDateAndCode(date time.Time, code int) ([]model.Message, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	day := model.Date(date)
	end := day.AddDate(0, 0, 1)
	msgs := []model.Message{}
	for _, msg := range m.s.messages {
		if msg.Code == nil || *msg.Code != code {
			continue
		}
		if msg.Timestamp.Before(day) || !msg.Timestamp.Before(end) {
			continue
		}
		msgs = append(msgs, msg)
	}
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].ID < msgs[j].ID })
	return msgs, nil
}

func unionStations(known, incoming []int) []int {
	seen := map[int]bool{}
	for _, id := range known {
		seen[id] = true
	}
	for _, id := range incoming {
		if !seen[id] {
			known = append(known, id)
			seen[id] = true
		}
	}
	return known
}

type memoryStatusCodes struct{ s *MemoryStorage }

func (m *memoryStatusCodes) Persist(code model.StatusCode) (model.StatusCode, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, found := m.s.statusCodes[code.Code]; !found {
		m.s.statusCodes[code.Code] = code
	}
	return code, nil
}

func (m *memoryStatusCodes) PersistAll(codes []model.StatusCode) ([]model.StatusCode, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	inserted := []model.StatusCode{}
	for _, code := range codes {
		if _, found := m.s.statusCodes[code.Code]; found {
			continue
		}
		m.s.statusCodes[code.Code] = code
		inserted = append(inserted, code)
	}
	return inserted, nil
}

func (m *memoryStatusCodes) GetByCode(code int) (model.StatusCode, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	sc, found := m.s.statusCodes[code]
	if !found {
		return model.StatusCode{}, ErrNotFound
	}
	return sc, nil
}

func (m *memoryStatusCodes) GetAll() ([]model.StatusCode, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	codes := []model.StatusCode{}
	for _, code := range m.s.statusCodes {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i].Code < codes[j].Code })
	return codes, nil
}
