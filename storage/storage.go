package storage

import (
	"errors"
	"time"

	"github.com/damattl/db-iris-wrapper/model"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("not found")

// Storage bundles the per-entity stores of one backend. Implementations
// must be safe for concurrent use.
//
// Persist and PersistAll have insert-ignore-on-conflict semantics:
// Persist is idempotent and returns its input; PersistAll returns
// exactly the subset that was newly inserted, which
// may be empty or a strict subset of the input, in no particular order.
// Updates are explicit, separate operations applying field-level
// patches; a batched update runs in a single transaction and continues
// past individual no-op updates.
type Storage interface {
	Stations() StationStore
	Trains() TrainStore
	Stops() StopStore
	Messages() MessageStore
	StatusCodes() StatusCodeStore
	Close() error
}

type StationStore interface {
	Persist(station model.Station) (model.Station, error)
	PersistAll(stations []model.Station) ([]model.Station, error)
	GetByID(id int) (model.Station, error)
	GetAll() ([]model.Station, error)
	GetByDS100(ds100 string) (model.Station, error)

	// ImportSQL seeds stations from a SQL script and returns the
	// stations present afterwards.
	ImportSQL(path string) ([]model.Station, error)
}

type TrainStore interface {
	Persist(train model.Train) (model.Train, error)
	PersistAll(trains []model.Train) ([]model.Train, error)
	GetByID(id string) (model.Train, error)
	GetAll() ([]model.Train, error)
	GetByDate(date time.Time) ([]model.Train, error)
	GetByStationAndDate(stationID int, date time.Time) ([]model.Train, error)
}

type StopStore interface {
	Persist(stop model.Stop) (model.Stop, error)
	PersistAll(stops []model.Stop) ([]model.Stop, error)
	GetByID(id string) (model.Stop, error)
	GetAll() ([]model.Stop, error)

	// GetForDate returns stops with a planned arrival or departure
	// on the given calendar date.
	GetForDate(date time.Time) ([]model.Stop, error)
	GetForTrain(trainID string) ([]model.Stop, error)
	GetByStationAndDate(stationID int, date time.Time) ([]model.Stop, error)

	// Update patches a stop with the fields the change feed
	// carries. Fields absent from the update keep their stored
	// value.
	Update(update model.StopUpdate) (model.Stop, error)

	// UpdateMany applies patches in one transaction. Updates
	// matching no row or changing nothing are skipped, not errors;
	// the changed stops are returned.
	UpdateMany(updates []model.StopUpdate) ([]model.Stop, error)
}

type MessageStore interface {
	// Persist inserts a message unless its id is already known. A
	// conflicting insert only revises the stored last_updated
	// timestamp. Station associations are appended, never removed.
	Persist(msg model.Message) (model.Message, error)
	PersistAll(msgs []model.Message) ([]model.Message, error)
	GetByID(id string) (model.Message, error)
	GetAll() ([]model.Message, error)
	GetByTrain(trainID string) ([]model.Message, error)
	GetByDateAndCode(date time.Time, code int) ([]model.Message, error)
}

type StatusCodeStore interface {
	Persist(code model.StatusCode) (model.StatusCode, error)
	PersistAll(codes []model.StatusCode) ([]model.StatusCode, error)
	GetByCode(code int) (model.StatusCode, error)
	GetAll() ([]model.StatusCode, error)
}
