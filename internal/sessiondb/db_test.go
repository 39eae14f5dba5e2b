package sessiondb

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/regatta-data/tackline/internal/analysis"
	"github.com/regatta-data/tackline/internal/maneuver"
	"github.com/regatta-data/tackline/internal/strategy"
	"github.com/regatta-data/tackline/internal/wind"
)

var testStart = time.Date(2026, 6, 14, 10, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func fixtureResult() analysis.Result {
	return analysis.Result{
		Maneuvers: []maneuver.Maneuver{
			{
				Timestamp:     testStart.Add(40 * time.Second),
				Lat:           54.45,
				Lon:           18.65,
				Type:          maneuver.Tack,
				Confidence:    0.8,
				BearingChange: 90,
				SpeedBefore:   2,
				SpeedAfter:    1.5,
				SpeedRatio:    0.75,
				Duration:      4 * time.Second,
				BeforeState:   maneuver.SailingState{PointOfSail: maneuver.Upwind, Side: maneuver.Starboard},
				AfterState:    maneuver.SailingState{PointOfSail: maneuver.Upwind, Side: maneuver.Port},
			},
		},
		Wind: wind.Estimate{
			Direction:  10,
			Speed:      6,
			Confidence: 0.7,
			Method:     wind.MethodTackGeometry,
			Timestamp:  testStart.Add(80 * time.Second),
		},
		StrategicPoints: []strategy.Point{
			{Type: strategy.TackPoint, Lat: 54.45, Lon: 18.65, Timestamp: testStart.Add(40 * time.Second), Score: 7.2},
			{Type: strategy.MissedOpportunity, Lat: 54.451, Lon: 18.651, Timestamp: testStart.Add(70 * time.Second), Score: 5.5},
		},
		Summary: analysis.Summary{
			Points:         120,
			Duration:       2 * time.Minute,
			DistanceMeters: 240,
			AvgSpeed:       2,
			MaxSpeed:       2.5,
			ManeuverCounts: map[maneuver.Type]int{maneuver.Tack: 1},
		},
	}
}

func TestSaveAndLoadSession(t *testing.T) {
	db := openTestDB(t)

	id, err := db.SaveResult("morning beat", testStart, fixtureResult())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	s, err := db.GetSession(id)
	require.NoError(t, err)
	assert.Equal(t, id, s.ID)
	assert.Equal(t, "morning beat", s.Name)
	assert.Equal(t, 120, s.Points)
	assert.InDelta(t, 240, s.DistanceMeters, 1e-9)
	assert.InDelta(t, 120, s.DurationSecs, 1e-9)
	assert.InDelta(t, 10, s.Wind.Direction, 1e-9)
	assert.Equal(t, wind.MethodTackGeometry, s.Wind.Method)
	assert.True(t, s.StartedAt.Equal(testStart), "started_at %s != %s", s.StartedAt, testStart)
}

func TestSavedManeuversRoundTrip(t *testing.T) {
	db := openTestDB(t)

	id, err := db.SaveResult("beat", testStart, fixtureResult())
	require.NoError(t, err)

	ms, err := db.GetManeuvers(id)
	require.NoError(t, err)
	require.Len(t, ms, 1)
	m := ms[0]
	assert.Equal(t, maneuver.Tack, m.Type)
	assert.InDelta(t, 90, m.BearingChange, 1e-9)
	assert.InDelta(t, 0.75, m.SpeedRatio, 1e-9)
	assert.Equal(t, 4*time.Second, m.Duration)
	assert.True(t, m.Timestamp.Equal(testStart.Add(40*time.Second)))
	assert.Equal(t, maneuver.SailingState{PointOfSail: maneuver.Upwind, Side: maneuver.Starboard}, m.BeforeState)
	assert.Equal(t, maneuver.SailingState{PointOfSail: maneuver.Upwind, Side: maneuver.Port}, m.AfterState)
}

func TestSavedStrategicPointsRoundTrip(t *testing.T) {
	db := openTestDB(t)

	id, err := db.SaveResult("beat", testStart, fixtureResult())
	require.NoError(t, err)

	pts, err := db.GetStrategicPoints(id)
	require.NoError(t, err)
	require.Len(t, pts, 2)
	assert.Equal(t, strategy.TackPoint, pts[0].Type)
	assert.Equal(t, strategy.MissedOpportunity, pts[1].Type)
	assert.InDelta(t, 7.2, pts[0].Score, 1e-9)
	assert.True(t, pts[0].Timestamp.Before(pts[1].Timestamp))
}

func TestListSessionsNewestFirst(t *testing.T) {
	db := openTestDB(t)

	_, err := db.SaveResult("first", testStart, fixtureResult())
	require.NoError(t, err)
	_, err = db.SaveResult("second", testStart.Add(time.Hour), fixtureResult())
	require.NoError(t, err)

	sessions, err := db.ListSessions()
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "second", sessions[0].Name)
	assert.Equal(t, "first", sessions[1].Name)
}

func TestGetSessionUnknownID(t *testing.T) {
	db := openTestDB(t)
	_, err := db.GetSession("no-such-session")
	assert.Error(t, err)
}

func TestOpenIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sessions.db")

	db, err := Open(path)
	require.NoError(t, err)
	id, err := db.SaveResult("kept", testStart, fixtureResult())
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// Reopening applies no new migrations and keeps existing data.
	db2, err := Open(path)
	require.NoError(t, err)
	defer db2.Close()
	s, err := db2.GetSession(id)
	require.NoError(t, err)
	assert.Equal(t, "kept", s.Name)
}
