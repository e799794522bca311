package storage

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/damattl/db-iris-wrapper/model"
)

// Shared database/sql implementation backing the SQLite and Postgres
// stores. Queries are written with ? placeholders and rebound for
// drivers that use numbered ones.

type sqlStores struct {
	db     *sql.DB
	rebind func(string) string
}

func (s *sqlStores) query(query string, args ...interface{}) (*sql.Rows, error) {
	return s.db.Query(s.rebind(query), args...)
}

// questionRebind leaves ? placeholders untouched (SQLite).
func questionRebind(query string) string { return query }

// dollarRebind rewrites ? placeholders to $1, $2, ... (Postgres).
func dollarRebind(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func joinPath(path []string) interface{} {
	if len(path) == 0 {
		return nil
	}
	return strings.Join(path, "|")
}

func splitPath(joined sql.NullString) []string {
	if !joined.Valid || joined.String == "" {
		return nil
	}
	return strings.Split(joined.String, "|")
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(i *int) interface{} {
	if i == nil {
		return nil
	}
	return *i
}

func dayRange(date time.Time) (time.Time, time.Time) {
	day := model.Date(date)
	return day, day.AddDate(0, 0, 1)
}

/*
 * Stations
 */

type sqlStations struct{ *sqlStores }

func (s *sqlStations) persist(tx *sql.Tx, station model.Station) (bool, error) {
	res, err := tx.Exec(s.rebind(`
INSERT INTO stations (id, lat, lon, name, ds100)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (id) DO NOTHING`),
		station.ID, station.Lat, station.Lon, station.Name, station.DS100)
	if err != nil {
		return false, fmt.Errorf("inserting station %d: %w", station.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("inserting station %d: %w", station.ID, err)
	}
	return n > 0, nil
}

func (s *sqlStations) Persist(station model.Station) (model.Station, error) {
	_, err := s.PersistAll([]model.Station{station})
	return station, err
}

func (s *sqlStations) PersistAll(stations []model.Station) ([]model.Station, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	inserted := []model.Station{}
	for _, station := range stations {
		isNew, err := s.persist(tx, station)
		if err != nil {
			return nil, err
		}
		if isNew {
			inserted = append(inserted, station)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing stations: %w", err)
	}
	return inserted, nil
}

func (s *sqlStations) scan(rows *sql.Rows) (model.Station, error) {
	var station model.Station
	var lat, lon sql.NullFloat64
	err := rows.Scan(&station.ID, &lat, &lon, &station.Name, &station.DS100)
	if err != nil {
		return model.Station{}, fmt.Errorf("scanning station: %w", err)
	}
	if lat.Valid {
		station.Lat = &lat.Float64
	}
	if lon.Valid {
		station.Lon = &lon.Float64
	}
	return station, nil
}

func (s *sqlStations) getWhere(cond string, args ...interface{}) ([]model.Station, error) {
	query := `SELECT id, lat, lon, name, ds100 FROM stations`
	if cond != "" {
		query += " WHERE " + cond
	}
	query += " ORDER BY id"

	rows, err := s.query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing stations: %w", err)
	}
	defer rows.Close()

	stations := []model.Station{}
	for rows.Next() {
		station, err := s.scan(rows)
		if err != nil {
			return nil, err
		}
		stations = append(stations, station)
	}
	return stations, rows.Err()
}

func (s *sqlStations) GetByID(id int) (model.Station, error) {
	stations, err := s.getWhere("id = ?", id)
	if err != nil {
		return model.Station{}, err
	}
	if len(stations) == 0 {
		return model.Station{}, ErrNotFound
	}
	return stations[0], nil
}

func (s *sqlStations) GetAll() ([]model.Station, error) {
	return s.getWhere("")
}

func (s *sqlStations) GetByDS100(ds100 string) (model.Station, error) {
	stations, err := s.getWhere("ds100 = ?", ds100)
	if err != nil {
		return model.Station{}, err
	}
	if len(stations) == 0 {
		return model.Station{}, ErrNotFound
	}
	return stations[0], nil
}

func (s *sqlStations) ImportSQL(path string) ([]model.Station, error) {
	script, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sql seed: %w", err)
	}
	if _, err := s.db.Exec(string(script)); err != nil {
		return nil, fmt.Errorf("executing sql seed: %w", err)
	}
	return s.GetAll()
}

/*
 * Trains
 */

type sqlTrains struct{ *sqlStores }

func (s *sqlTrains) Persist(train model.Train) (model.Train, error) {
	_, err := s.PersistAll([]model.Train{train})
	return train, err
}

func (s *sqlTrains) PersistAll(trains []model.Train) ([]model.Train, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	inserted := []model.Train{}
	for _, train := range trains {
		res, err := tx.Exec(s.rebind(`
INSERT INTO trains (id, operator, category, number, line, date)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO NOTHING`),
			train.ID, nullString(train.Operator), train.Category,
			train.Number, nullString(train.Line), train.Date)
		if err != nil {
			return nil, fmt.Errorf("inserting train %s: %w", train.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted = append(inserted, train)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing trains: %w", err)
	}
	return inserted, nil
}

func (s *sqlTrains) scan(rows *sql.Rows) (model.Train, error) {
	var train model.Train
	var operator, line sql.NullString
	err := rows.Scan(&train.ID, &operator, &train.Category, &train.Number, &line, &train.Date)
	if err != nil {
		return model.Train{}, fmt.Errorf("scanning train: %w", err)
	}
	train.Operator = operator.String
	train.Line = line.String
	return train, nil
}

func (s *sqlTrains) getWhere(cond string, args ...interface{}) ([]model.Train, error) {
	query := `SELECT t.id, t.operator, t.category, t.number, t.line, t.date FROM trains t`
	if cond != "" {
		query += " WHERE " + cond
	}
	query += " ORDER BY t.id"

	rows, err := s.query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing trains: %w", err)
	}
	defer rows.Close()

	trains := []model.Train{}
	for rows.Next() {
		train, err := s.scan(rows)
		if err != nil {
			return nil, err
		}
		trains = append(trains, train)
	}
	return trains, rows.Err()
}

func (s *sqlTrains) GetByID(id string) (model.Train, error) {
	trains, err := s.getWhere("t.id = ?", id)
	if err != nil {
		return model.Train{}, err
	}
	if len(trains) == 0 {
		return model.Train{}, ErrNotFound
	}
	return trains[0], nil
}

func (s *sqlTrains) GetAll() ([]model.Train, error) {
	return s.getWhere("")
}

func (s *sqlTrains) GetByDate(date time.Time) ([]model.Train, error) {
	start, end := dayRange(date)
	return s.getWhere("t.date >= ? AND t.date < ?", start, end)
}

func (s *sqlTrains) GetByStationAndDate(stationID int, date time.Time) ([]model.Train, error) {
	start, end := dayRange(date)
	return s.getWhere(`t.date >= ? AND t.date < ?
AND EXISTS (SELECT 1 FROM stops st WHERE st.train_id = t.id AND st.station_id = ?)`,
		start, end, stationID)
}

/*
 * Stops
 */

type sqlStops struct{ *sqlStores }

const stopColumns = `
    id, train_id, station_id,
    arrival_platform, arrival_planned, arrival_current, arrival_planned_path, arrival_changed_path,
    departure_platform, departure_planned, departure_current, departure_planned_path, departure_changed_path`

func movementArgs(mv *model.Movement) []interface{} {
	if mv == nil {
		return []interface{}{nil, nil, nil, nil, nil}
	}
	return []interface{}{
		nullString(mv.Platform),
		nullTime(mv.Planned),
		nullTime(mv.Current),
		joinPath(mv.PlannedPath),
		joinPath(mv.ChangedPath),
	}
}

func (s *sqlStops) Persist(stop model.Stop) (model.Stop, error) {
	_, err := s.PersistAll([]model.Stop{stop})
	return stop, err
}

func (s *sqlStops) PersistAll(stops []model.Stop) ([]model.Stop, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	inserted := []model.Stop{}
	for _, stop := range stops {
		args := []interface{}{stop.ID, stop.TrainID, stop.StationID}
		args = append(args, movementArgs(stop.Arrival)...)
		args = append(args, movementArgs(stop.Departure)...)

		res, err := tx.Exec(s.rebind(`
INSERT INTO stops (`+stopColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO NOTHING`), args...)
		if err != nil {
			return nil, fmt.Errorf("inserting stop %s: %w", stop.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted = append(inserted, stop)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing stops: %w", err)
	}
	return inserted, nil
}

func scanStop(rows *sql.Rows) (model.Stop, error) {
	var stop model.Stop
	var arrPlatform, arrPPath, arrCPath sql.NullString
	var arrPlanned, arrCurrent sql.NullTime
	var depPlatform, depPPath, depCPath sql.NullString
	var depPlanned, depCurrent sql.NullTime

	err := rows.Scan(
		&stop.ID, &stop.TrainID, &stop.StationID,
		&arrPlatform, &arrPlanned, &arrCurrent, &arrPPath, &arrCPath,
		&depPlatform, &depPlanned, &depCurrent, &depPPath, &depCPath,
	)
	if err != nil {
		return model.Stop{}, fmt.Errorf("scanning stop: %w", err)
	}

	stop.Arrival = movementFromColumns(arrPlatform, arrPlanned, arrCurrent, arrPPath, arrCPath)
	stop.Departure = movementFromColumns(depPlatform, depPlanned, depCurrent, depPPath, depCPath)
	return stop, nil
}

func movementFromColumns(platform sql.NullString, planned, current sql.NullTime, ppath, cpath sql.NullString) *model.Movement {
	if !platform.Valid && !planned.Valid && !current.Valid && !ppath.Valid && !cpath.Valid {
		return nil
	}
	return &model.Movement{
		Platform:    platform.String,
		Planned:     timePtr(planned),
		Current:     timePtr(current),
		PlannedPath: splitPath(ppath),
		ChangedPath: splitPath(cpath),
	}
}

func (s *sqlStops) getWhere(cond string, args ...interface{}) ([]model.Stop, error) {
	query := `SELECT ` + stopColumns + ` FROM stops`
	if cond != "" {
		query += " WHERE " + cond
	}
	query += " ORDER BY id"

	rows, err := s.query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing stops: %w", err)
	}
	defer rows.Close()

	stops := []model.Stop{}
	for rows.Next() {
		stop, err := scanStop(rows)
		if err != nil {
			return nil, err
		}
		stops = append(stops, stop)
	}
	return stops, rows.Err()
}

func (s *sqlStops) GetByID(id string) (model.Stop, error) {
	stops, err := s.getWhere("id = ?", id)
	if err != nil {
		return model.Stop{}, err
	}
	if len(stops) == 0 {
		return model.Stop{}, ErrNotFound
	}
	return stops[0], nil
}

func (s *sqlStops) GetAll() ([]model.Stop, error) {
	return s.getWhere("")
}

func (s *sqlStops) GetForDate(date time.Time) ([]model.Stop, error) {
	start, end := dayRange(date)
	return s.getWhere(`(arrival_planned >= ? AND arrival_planned < ?)
OR (departure_planned >= ? AND departure_planned < ?)`,
		start, end, start, end)
}

func (s *sqlStops) GetForTrain(trainID string) ([]model.Stop, error) {
	return s.getWhere("train_id = ?", trainID)
}

func (s *sqlStops) GetByStationAndDate(stationID int, date time.Time) ([]model.Stop, error) {
	start, end := dayRange(date)
	return s.getWhere(`station_id = ?
AND id IN (SELECT st.id FROM stops st
           JOIN trains t ON st.train_id = t.id
           WHERE t.date >= ? AND t.date < ?)`,
		stationID, start, end)
}

// patchColumns builds the SET clauses for the fields a movement patch
// carries. Absent fields are left out so stored values survive.
func patchColumns(prefix string, mv *model.Movement) ([]string, []interface{}) {
	if mv == nil {
		return nil, nil
	}
	cols := []string{}
	args := []interface{}{}
	if mv.Platform != "" {
		cols = append(cols, prefix+"_platform = ?")
		args = append(args, mv.Platform)
	}
	if mv.Planned != nil {
		cols = append(cols, prefix+"_planned = ?")
		args = append(args, *mv.Planned)
	}
	if mv.Current != nil {
		cols = append(cols, prefix+"_current = ?")
		args = append(args, *mv.Current)
	}
	if len(mv.PlannedPath) > 0 {
		cols = append(cols, prefix+"_planned_path = ?")
		args = append(args, strings.Join(mv.PlannedPath, "|"))
	}
	if len(mv.ChangedPath) > 0 {
		cols = append(cols, prefix+"_changed_path = ?")
		args = append(args, strings.Join(mv.ChangedPath, "|"))
	}
	return cols, args
}

func (s *sqlStops) update(tx *sql.Tx, update model.StopUpdate) (model.Stop, bool, error) {
	arrCols, arrArgs := patchColumns("arrival", update.Arrival)
	depCols, depArgs := patchColumns("departure", update.Departure)

	cols := append(arrCols, depCols...)
	if len(cols) == 0 {
		// Nothing to apply; an empty changeset is a no-op, not
		// an error.
		return model.Stop{}, false, nil
	}

	args := append(arrArgs, depArgs...)
	args = append(args, update.ID)

	res, err := tx.Exec(s.rebind(`UPDATE stops SET `+strings.Join(cols, ", ")+` WHERE id = ?`), args...)
	if err != nil {
		return model.Stop{}, false, fmt.Errorf("updating stop %s: %w", update.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Stop{}, false, nil
	}

	row := tx.QueryRow(s.rebind(`SELECT `+stopColumns+` FROM stops WHERE id = ?`), update.ID)
	stop, err := scanStopRow(row)
	if err != nil {
		return model.Stop{}, false, err
	}
	return stop, true, nil
}

func scanStopRow(row *sql.Row) (model.Stop, error) {
	var stop model.Stop
	var arrPlatform, arrPPath, arrCPath sql.NullString
	var arrPlanned, arrCurrent sql.NullTime
	var depPlatform, depPPath, depCPath sql.NullString
	var depPlanned, depCurrent sql.NullTime

	err := row.Scan(
		&stop.ID, &stop.TrainID, &stop.StationID,
		&arrPlatform, &arrPlanned, &arrCurrent, &arrPPath, &arrCPath,
		&depPlatform, &depPlanned, &depCurrent, &depPPath, &depCPath,
	)
	if err == sql.ErrNoRows {
		return model.Stop{}, ErrNotFound
	}
	if err != nil {
		return model.Stop{}, fmt.Errorf("scanning stop: %w", err)
	}

	stop.Arrival = movementFromColumns(arrPlatform, arrPlanned, arrCurrent, arrPPath, arrCPath)
	stop.Departure = movementFromColumns(depPlatform, depPlanned, depCurrent, depPPath, depCPath)
	return stop, nil
}

func (s *sqlStops) Update(update model.StopUpdate) (model.Stop, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return model.Stop{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stop, changed, err := s.update(tx, update)
	if err != nil {
		return model.Stop{}, err
	}
	if !changed {
		return model.Stop{}, ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return model.Stop{}, fmt.Errorf("committing stop update: %w", err)
	}
	return stop, nil
}

func (s *sqlStops) UpdateMany(updates []model.StopUpdate) ([]model.Stop, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stops := []model.Stop{}
	for _, update := range updates {
		stop, changed, err := s.update(tx, update)
		if err != nil {
			return nil, err
		}
		if changed {
			stops = append(stops, stop)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing stop updates: %w", err)
	}
	return stops, nil
}

/*
 * Messages
 */

type sqlMessages struct{ *sqlStores }

func (s *sqlMessages) persist(tx *sql.Tx, msg model.Message) (bool, error) {
	res, err := tx.Exec(s.rebind(`
INSERT INTO messages (
    id, source_id, train_id, valid_from, valid_to,
    priority, category, code, timestamp, m_type, last_updated
)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO NOTHING`),
		msg.ID, msg.SourceID, msg.TrainID,
		nullTime(msg.ValidFrom), nullTime(msg.ValidTo),
		nullInt(msg.Priority), nullString(msg.Category), nullInt(msg.Code),
		msg.Timestamp, nullString(msg.Type), nullTime(msg.LastUpdated))
	if err != nil {
		return false, fmt.Errorf("inserting message %s: %w", msg.ID, err)
	}

	isNew := false
	if n, _ := res.RowsAffected(); n > 0 {
		isNew = true
	} else {
		// Known message: only revise its freshness timestamp.
		_, err = tx.Exec(s.rebind(`UPDATE messages SET last_updated = ? WHERE id = ?`),
			nullTime(msg.LastUpdated), msg.ID)
		if err != nil {
			return false, fmt.Errorf("refreshing message %s: %w", msg.ID, err)
		}
	}

	// Station associations accumulate over repeated fetches.
	for _, stationID := range msg.Stations {
		_, err = tx.Exec(s.rebind(`
INSERT INTO message_stations (message_id, station_id)
VALUES (?, ?)
ON CONFLICT (message_id, station_id) DO NOTHING`), msg.ID, stationID)
		if err != nil {
			return false, fmt.Errorf("linking message %s to station %d: %w", msg.ID, stationID, err)
		}
	}

	return isNew, nil
}

func (s *sqlMessages) Persist(msg model.Message) (model.Message, error) {
	_, err := s.PersistAll([]model.Message{msg})
	return msg, err
}

func (s *sqlMessages) PersistAll(msgs []model.Message) ([]model.Message, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	inserted := []model.Message{}
	for _, msg := range msgs {
		isNew, err := s.persist(tx, msg)
		if err != nil {
			return nil, err
		}
		if isNew {
			inserted = append(inserted, msg)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing messages: %w", err)
	}
	return inserted, nil
}

func (s *sqlMessages) getWhere(cond string, args ...interface{}) ([]model.Message, error) {
	query := `
SELECT
    id, source_id, train_id, valid_from, valid_to,
    priority, category, code, timestamp, m_type, last_updated
FROM messages`
	if cond != "" {
		query += " WHERE " + cond
	}
	query += " ORDER BY id"

	rows, err := s.query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer rows.Close()

	msgs := []model.Message{}
	for rows.Next() {
		var msg model.Message
		var validFrom, validTo, lastUpdated sql.NullTime
		var priority, code sql.NullInt64
		var category, mType sql.NullString
		err := rows.Scan(
			&msg.ID, &msg.SourceID, &msg.TrainID, &validFrom, &validTo,
			&priority, &category, &code, &msg.Timestamp, &mType, &lastUpdated,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		msg.ValidFrom = timePtr(validFrom)
		msg.ValidTo = timePtr(validTo)
		msg.LastUpdated = timePtr(lastUpdated)
		if priority.Valid {
			p := int(priority.Int64)
			msg.Priority = &p
		}
		if code.Valid {
			c := int(code.Int64)
			msg.Code = &c
		}
		msg.Category = category.String
		msg.Type = mType.String
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range msgs {
		stations, err := s.stationsFor(msgs[i].ID)
		if err != nil {
			return nil, err
		}
		msgs[i].Stations = stations
	}
	return msgs, nil
}

func (s *sqlMessages) stationsFor(messageID string) ([]int, error) {
	rows, err := s.query(`SELECT station_id FROM message_stations WHERE message_id = ? ORDER BY station_id`, messageID)
	if err != nil {
		return nil, fmt.Errorf("listing message stations: %w", err)
	}
	defer rows.Close()

	stations := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning message station: %w", err)
		}
		stations = append(stations, id)
	}
	return stations, rows.Err()
}

func (s *sqlMessages) GetByID(id string) (model.Message, error) {
	msgs, err := s.getWhere("id = ?", id)
	if err != nil {
		return model.Message{}, err
	}
	if len(msgs) == 0 {
		return model.Message{}, ErrNotFound
	}
	return msgs[0], nil
}

func (s *sqlMessages) GetAll() ([]model.Message, error) {
	return s.getWhere("")
}

func (s *sqlMessages) GetByTrain(trainID string) ([]model.Message, error) {
	return s.getWhere("train_id = ?", trainID)
}

func (s *sqlMessages) GetByDateAndCode(date time.Time, code int) ([]model.Message, error) {
	start, end := dayRange(date)
	return s.getWhere("timestamp >= ? AND timestamp < ? AND code = ?", start, end, code)
}

/*
 * Status codes
 */

type sqlStatusCodes struct{ *sqlStores }

func (s *sqlStatusCodes) Persist(code model.StatusCode) (model.StatusCode, error) {
	_, err := s.PersistAll([]model.StatusCode{code})
	return code, err
}

func (s *sqlStatusCodes) PersistAll(codes []model.StatusCode) ([]model.StatusCode, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	inserted := []model.StatusCode{}
	for _, code := range codes {
		res, err := tx.Exec(s.rebind(`
INSERT INTO status_codes (code, c_type, long_text)
VALUES (?, ?, ?)
ON CONFLICT (code) DO NOTHING`),
			code.Code, string(code.Type), code.LongText)
		if err != nil {
			return nil, fmt.Errorf("inserting status code %d: %w", code.Code, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted = append(inserted, code)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing status codes: %w", err)
	}
	return inserted, nil
}

func (s *sqlStatusCodes) getWhere(cond string, args ...interface{}) ([]model.StatusCode, error) {
	query := `SELECT code, c_type, long_text FROM status_codes`
	if cond != "" {
		query += " WHERE " + cond
	}
	query += " ORDER BY code"

	rows, err := s.query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing status codes: %w", err)
	}
	defer rows.Close()

	codes := []model.StatusCode{}
	for rows.Next() {
		var code model.StatusCode
		var cType string
		if err := rows.Scan(&code.Code, &cType, &code.LongText); err != nil {
			return nil, fmt.Errorf("scanning status code: %w", err)
		}
		code.Type = model.StatusCodeType(cType)
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

func (s *sqlStatusCodes) GetByCode(code int) (model.StatusCode, error) {
	codes, err := s.getWhere("code = ?", code)
	if err != nil {
		return model.StatusCode{}, err
	}
	if len(codes) == 0 {
		return model.StatusCode{}, ErrNotFound
	}
	return codes[0], nil
}

func (s *sqlStatusCodes) GetAll() ([]model.StatusCode, error) {
	return s.getWhere("")
}
