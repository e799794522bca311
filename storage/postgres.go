package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS stations (
    id INTEGER PRIMARY KEY,
    lat DOUBLE PRECISION,
    lon DOUBLE PRECISION,
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
    date TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trains_date ON trains (date);

CREATE TABLE IF NOT EXISTS stops (
    id TEXT PRIMARY KEY,
    train_id TEXT NOT NULL REFERENCES trains (id),
    station_id INTEGER NOT NULL,
    arrival_platform TEXT,
    arrival_planned TIMESTAMPTZ,
    arrival_current TIMESTAMPTZ,
    arrival_planned_path TEXT,
    arrival_changed_path TEXT,
    departure_platform TEXT,
    departure_planned TIMESTAMPTZ,
    departure_current TIMESTAMPTZ,
    departure_planned_path TEXT,
    departure_changed_path TEXT
);
CREATE INDEX IF NOT EXISTS idx_stops_train ON stops (train_id);
CREATE INDEX IF NOT EXISTS idx_stops_station ON stops (station_id);

CREATE TABLE IF NOT EXISTS messages (
    id TEXT PRIMARY KEY,
    source_id TEXT NOT NULL,
    train_id TEXT NOT NULL,
    valid_from TIMESTAMPTZ,
    valid_to TIMESTAMPTZ,
    priority INTEGER,
    category TEXT,
    code INTEGER,
    timestamp TIMESTAMPTZ NOT NULL,
    m_type TEXT,
    last_updated TIMESTAMPTZ
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

// PostgresStorage persists the timetable in a PostgreSQL database.
type PostgresStorage struct {
	db *sql.DB

	stations    *sqlStations
	trains      *sqlTrains
	stops       *sqlStops
	messages    *sqlMessages
	statusCodes *sqlStatusCodes
}

// NewPostgresStorage connects with a lib/pq connection string (either
// key=value or a postgres:// URL) and ensures the schema exists.
func NewPostgresStorage(connStr string) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening postgres db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	if _, err := db.Exec(postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating postgres schema: %w", err)
	}

	core := &sqlStores{db: db, rebind: dollarRebind}
	return &PostgresStorage{
		db:          db,
		stations:    &sqlStations{core},
		trains:      &sqlTrains{core},
		stops:       &sqlStops{core},
		messages:    &sqlMessages{core},
		statusCodes: &sqlStatusCodes{core},
	}, nil
}

func (s *PostgresStorage) Stations() StationStore       { return s.stations }
func (s *PostgresStorage) Trains() TrainStore           { return s.trains }
func (s *PostgresStorage) Stops() StopStore             { return s.stops }
func (s *PostgresStorage) Messages() MessageStore       { return s.messages }
func (s *PostgresStorage) StatusCodes() StatusCodeStore { return s.statusCodes }

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}
