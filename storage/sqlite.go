package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS stations (
    id INTEGER PRIMARY KEY,
    lat REAL,
    lon REAL,
    name TEXT NOT NULL,
    ds100 TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_stations_ds100 ON stations (ds100);

CREATE TABLE IF NOT EXISTS trains (
    id TEXT PRIMARY KEY,
    operator TEXT,
    category TEXT NOT NULL,
    number TEXT NOT NULL,
    line TEXT,
    date TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trains_date ON trains (date);

CREATE TABLE IF NOT EXISTS stops (
    id TEXT PRIMARY KEY,
    train_id TEXT NOT NULL REFERENCES trains (id),
    station_id INTEGER NOT NULL,
    arrival_platform TEXT,
    arrival_planned TIMESTAMP,
    arrival_current TIMESTAMP,
    arrival_planned_path TEXT,
    arrival_changed_path TEXT,
    departure_platform TEXT,
    departure_planned TIMESTAMP,
    departure_current TIMESTAMP,
    departure_planned_path TEXT,
    departure_changed_path TEXT
);
CREATE INDEX IF NOT EXISTS idx_stops_train ON stops (train_id);
CREATE INDEX IF NOT EXISTS idx_stops_station ON stops (station_id);

CREATE TABLE IF NOT EXISTS messages (
    id TEXT PRIMARY KEY,
    source_id TEXT NOT NULL,
    train_id TEXT NOT NULL,
    valid_from TIMESTAMP,
    valid_to TIMESTAMP,
    priority INTEGER,
    category TEXT,
    code INTEGER,
    timestamp TIMESTAMP NOT NULL,
    m_type TEXT,
    last_updated TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_messages_train ON messages (train_id);
CREATE INDEX IF NOT EXISTS idx_messages_code ON messages (code);

CREATE TABLE IF NOT EXISTS message_stations (
    message_id TEXT NOT NULL REFERENCES messages (id),
    station_id INTEGER NOT NULL,
    PRIMARY KEY (message_id, station_id)
);

CREATE TABLE IF NOT EXISTS status_codes (
    code INTEGER PRIMARY KEY,
    c_type TEXT NOT NULL,
    long_text TEXT NOT NULL
);
`

// SQLiteStorage persists the timetable in a SQLite database file.
type SQLiteStorage struct {
	db *sql.DB

	stations    *sqlStations
	trains      *sqlTrains
	stops       *sqlStops
	messages    *sqlMessages
	statusCodes *sqlStatusCodes
}

// NewSQLiteStorage opens (and if needed creates) a SQLite database at
// the given path and ensures the schema exists.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// The sqlite3 driver is not safe with concurrent writers on one
	// connection pool unless serialized.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating sqlite schema: %w", err)
	}

	core := &sqlStores{db: db, rebind: questionRebind}
	return &SQLiteStorage{
		db:          db,
		stations:    &sqlStations{core},
		trains:      &sqlTrains{core},
		stops:       &sqlStops{core},
		messages:    &sqlMessages{core},
		statusCodes: &sqlStatusCodes{core},
	}, nil
}

func (s *SQLiteStorage) Stations() StationStore       { return s.stations }
func (s *SQLiteStorage) Trains() TrainStore           { return s.trains }
func (s *SQLiteStorage) Stops() StopStore             { return s.stops }
func (s *SQLiteStorage) Messages() MessageStore       { return s.messages }
func (s *SQLiteStorage) StatusCodes() StatusCodeStore { return s.statusCodes }

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
