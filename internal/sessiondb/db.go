// Package sessiondb persists analysis results in SQLite, keyed by
// session id. The schema is managed with embedded migrations so a CLI
// invocation against a fresh file is self-initialising.
package sessiondb

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/regatta-data/tackline/internal/analysis"
	"github.com/regatta-data/tackline/internal/maneuver"
	"github.com/regatta-data/tackline/internal/strategy"
	"github.com/regatta-data/tackline/internal/wind"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB wraps the SQLite handle.
type DB struct {
	*sql.DB
}

// Open opens (creating if needed) the database at path and applies any
// pending migrations.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	db := &DB{sqlDB}
	if err := db.migrateUp(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) migrateUp() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db.DB, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("migration setup: %w", err)
	}
	// Not closing m: that would close the underlying DB connection.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// Session is one stored analysis run.
type Session struct {
	ID             string
	Name           string
	StartedAt      time.Time
	Points         int
	DistanceMeters float64
	DurationSecs   float64
	AvgSpeed       float64
	MaxSpeed       float64
	Wind           wind.Estimate
}

// SaveResult stores one analysis result under a fresh session id and
// returns the id.
func (db *DB) SaveResult(name string, startedAt time.Time, res analysis.Result) (string, error) {
	id := uuid.NewString()

	tx, err := db.Begin()
	if err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO sessions (
			session_id, name, started_at, points, distance_m, duration_secs,
			avg_speed_mps, max_speed_mps,
			wind_direction_deg, wind_speed_mps, wind_confidence, wind_method, wind_timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, name, startedAt.UTC(), res.Summary.Points, res.Summary.DistanceMeters,
		res.Summary.Duration.Seconds(), res.Summary.AvgSpeed, res.Summary.MaxSpeed,
		res.Wind.Direction, res.Wind.Speed, res.Wind.Confidence, res.Wind.Method,
		res.Wind.Timestamp.UTC())
	if err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}

	for _, m := range res.Maneuvers {
		_, err = tx.Exec(`
			INSERT INTO maneuvers (
				session_id, ts, lat, lon, type, confidence,
				bearing_change_deg, speed_before_mps, speed_after_mps, speed_ratio, duration_secs,
				before_state, after_state
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, m.Timestamp.UTC(), m.Lat, m.Lon, string(m.Type), m.Confidence,
			m.BearingChange, m.SpeedBefore, m.SpeedAfter, m.SpeedRatio,
			m.Duration.Seconds(), m.BeforeState.String(), m.AfterState.String())
		if err != nil {
			return "", fmt.Errorf("insert maneuver: %w", err)
		}
	}

	for _, p := range res.StrategicPoints {
		_, err = tx.Exec(`
			INSERT INTO strategic_points (session_id, ts, lat, lon, type, score)
			VALUES (?, ?, ?, ?, ?, ?)`,
			id, p.Timestamp.UTC(), p.Lat, p.Lon, string(p.Type), p.Score)
		if err != nil {
			return "", fmt.Errorf("insert strategic point: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	return id, nil
}

// GetSession loads one session row.
func (db *DB) GetSession(id string) (Session, error) {
	var s Session
	err := db.QueryRow(`
		SELECT session_id, name, started_at, points, distance_m, duration_secs,
			avg_speed_mps, max_speed_mps,
			wind_direction_deg, wind_speed_mps, wind_confidence, wind_method, wind_timestamp
		FROM sessions WHERE session_id = ?`, id).Scan(
		&s.ID, &s.Name, &s.StartedAt, &s.Points, &s.DistanceMeters, &s.DurationSecs,
		&s.AvgSpeed, &s.MaxSpeed,
		&s.Wind.Direction, &s.Wind.Speed, &s.Wind.Confidence, &s.Wind.Method, &s.Wind.Timestamp)
	if err != nil {
		return Session{}, fmt.Errorf("get session %s: %w", id, err)
	}
	return s, nil
}

// ListSessions returns stored sessions newest first.
func (db *DB) ListSessions() ([]Session, error) {
	rows, err := db.Query(`
		SELECT session_id, name, started_at, points, distance_m, duration_secs,
			avg_speed_mps, max_speed_mps,
			wind_direction_deg, wind_speed_mps, wind_confidence, wind_method, wind_timestamp
		FROM sessions ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(
			&s.ID, &s.Name, &s.StartedAt, &s.Points, &s.DistanceMeters, &s.DurationSecs,
			&s.AvgSpeed, &s.MaxSpeed,
			&s.Wind.Direction, &s.Wind.Speed, &s.Wind.Confidence, &s.Wind.Method, &s.Wind.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// GetManeuvers loads the stored maneuvers for a session in time order.
// The schema keeps the signed bearing change but not the raw entry and
// exit bearings, so BeforeBearing and AfterBearing come back zero.
func (db *DB) GetManeuvers(sessionID string) ([]maneuver.Maneuver, error) {
	rows, err := db.Query(`
		SELECT ts, lat, lon, type, confidence,
			bearing_change_deg, speed_before_mps, speed_after_mps, speed_ratio, duration_secs,
			before_state, after_state
		FROM maneuvers WHERE session_id = ? ORDER BY ts`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get maneuvers: %w", err)
	}
	defer rows.Close()

	var out []maneuver.Maneuver
	for rows.Next() {
		var m maneuver.Maneuver
		var typ, beforeState, afterState string
		var durSecs float64
		if err := rows.Scan(&m.Timestamp, &m.Lat, &m.Lon, &typ, &m.Confidence,
			&m.BearingChange, &m.SpeedBefore, &m.SpeedAfter, &m.SpeedRatio, &durSecs,
			&beforeState, &afterState); err != nil {
			return nil, fmt.Errorf("scan maneuver: %w", err)
		}
		m.Type = maneuver.Type(typ)
		m.Duration = time.Duration(durSecs * float64(time.Second))
		if m.BeforeState, err = maneuver.ParseSailingState(beforeState); err != nil {
			return nil, fmt.Errorf("scan maneuver: %w", err)
		}
		if m.AfterState, err = maneuver.ParseSailingState(afterState); err != nil {
			return nil, fmt.Errorf("scan maneuver: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetStrategicPoints loads the stored strategic points for a session in
// time order.
func (db *DB) GetStrategicPoints(sessionID string) ([]strategy.Point, error) {
	rows, err := db.Query(`
		SELECT ts, lat, lon, type, score
		FROM strategic_points WHERE session_id = ? ORDER BY ts`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get strategic points: %w", err)
	}
	defer rows.Close()

	var out []strategy.Point
	for rows.Next() {
		var p strategy.Point
		var typ string
		if err := rows.Scan(&p.Timestamp, &p.Lat, &p.Lon, &typ, &p.Score); err != nil {
			return nil, fmt.Errorf("scan strategic point: %w", err)
		}
		p.Type = strategy.PointType(typ)
		out = append(out, p)
	}
	return out, rows.Err()
}
