package analysis_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/regatta-data/tackline/internal/analysis"
	"github.com/regatta-data/tackline/internal/geo"
	"github.com/regatta-data/tackline/internal/maneuver"
	"github.com/regatta-data/tackline/internal/memo"
	"github.com/regatta-data/tackline/internal/strategy"
	"github.com/regatta-data/tackline/internal/testutil"
	"github.com/regatta-data/tackline/internal/track"
	"github.com/regatta-data/tackline/internal/wind"
)

var testStart = time.Date(2026, 6, 14, 10, 0, 0, 0, time.UTC)

func newAnalyzer(t *testing.T, opts ...analysis.Option) *analysis.Analyzer {
	t.Helper()
	a, err := analysis.New(analysis.DefaultConfig(), opts...)
	require.NoError(t, err)
	return a
}

func TestAnalyzeBeat(t *testing.T) {
	t.Parallel()
	a := newAnalyzer(t)

	// Six-leg beat at ±45° around a true wind from north.
	points := testutil.Ladder(testStart, 6, 40, 315, 45, 2)
	res, err := a.Analyze(points)
	require.NoError(t, err)

	assert.Len(t, res.Maneuvers, 5)
	for _, m := range res.Maneuvers {
		assert.Equal(t, maneuver.Tack, m.Type)
	}

	assert.NotEqual(t, wind.MethodFallback, res.Wind.Method)
	off := math.Abs(geo.AngleDifference(res.Wind.Direction, 0))
	assert.LessOrEqual(t, off, 15.0, "wind %g too far from 0", res.Wind.Direction)

	// Every maneuver surfaces as a scored point.
	var tacks int
	for _, p := range res.StrategicPoints {
		if p.Type == strategy.TackPoint {
			tacks++
		}
		assert.GreaterOrEqual(t, p.Score, 0.0)
		assert.LessOrEqual(t, p.Score, 10.0)
	}
	assert.Equal(t, 5, tacks)

	s := res.Summary
	assert.Equal(t, len(points), s.Points)
	assert.Equal(t, 5, s.ManeuverCounts[maneuver.Tack])
	assert.InDelta(t, 90, s.MeanTackingAngle, 5)
	assert.InDelta(t, 2, s.MaxSpeed, 0.01)
}

func TestAnalyzeStraightTrackFallsBack(t *testing.T) {
	t.Parallel()
	a := newAnalyzer(t)

	points := testutil.ConstantTrack(testStart, 120, 80, 2)
	res, err := a.Analyze(points)
	require.NoError(t, err)

	assert.Empty(t, res.Maneuvers)
	assert.Equal(t, wind.MethodFallback, res.Wind.Method)
	assert.Equal(t, points[len(points)-1].Timestamp, res.Wind.Timestamp)
}

func TestAnalyzeTooFewPoints(t *testing.T) {
	t.Parallel()
	a := newAnalyzer(t)

	_, err := a.Analyze(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, track.ErrInsufficientData))
}

func TestAnalyzeCaching(t *testing.T) {
	t.Parallel()
	a := newAnalyzer(t)

	points := testutil.Ladder(testStart, 4, 40, 315, 45, 2)
	first, err := a.Analyze(points)
	require.NoError(t, err)

	stats := a.CacheStats()
	assert.Equal(t, uint64(0), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)

	second, err := a.Analyze(points)
	require.NoError(t, err)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("cached result differs (-first +second):\n%s", diff)
	}

	stats = a.CacheStats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)

	// A different track is a fresh computation, not a collision.
	other := testutil.Ladder(testStart.Add(time.Hour), 4, 40, 315, 45, 2)
	_, err = a.Analyze(other)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), a.CacheStats().Misses)
}

func TestAnalyzeSharedCache(t *testing.T) {
	t.Parallel()
	shared := memo.New("shared", 8, 0)
	a := newAnalyzer(t, analysis.WithCache(shared))
	b := newAnalyzer(t, analysis.WithCache(shared))

	points := testutil.Ladder(testStart, 4, 40, 315, 45, 2)
	_, err := a.Analyze(points)
	require.NoError(t, err)
	_, err = b.Analyze(points)
	require.NoError(t, err)

	stats := shared.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestAnalyzeFixedWind(t *testing.T) {
	t.Parallel()

	// Fixed versus derived state labelling changes the cache identity,
	// so the two configurations never serve each other's results.
	shared := memo.New("shared", 8, 0)
	auto := newAnalyzer(t, analysis.WithCache(shared))
	fixed := newAnalyzer(t, analysis.WithCache(shared), analysis.WithFixedWind(0))

	points := testutil.Ladder(testStart, 6, 40, 315, 45, 2)
	_, err := auto.Analyze(points)
	require.NoError(t, err)
	res, err := fixed.Analyze(points)
	require.NoError(t, err)

	assert.Equal(t, uint64(2), shared.Stats().Misses)
	for _, m := range res.Maneuvers {
		assert.Equal(t, maneuver.Tack, m.Type)
	}
}

func TestAnalyzeSamples(t *testing.T) {
	t.Parallel()
	a := newAnalyzer(t)

	// Two raw fixes one second apart; the pipeline preprocesses first.
	samples := []track.RawSample{
		{Timestamp: testStart, Lat: 54.45, Lon: 18.65},
		{Timestamp: testStart.Add(time.Second), Lat: 54.4501, Lon: 18.65},
	}
	res, err := a.AnalyzeSamples(samples)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Summary.Points)
	assert.Equal(t, wind.MethodFallback, res.Wind.Method)

	_, err = a.AnalyzeSamples(samples[:1])
	assert.True(t, errors.Is(err, track.ErrInsufficientData))
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	points := testutil.ConstantTrack(testStart, 61, 90, 2)
	ms := []maneuver.Maneuver{
		{Type: maneuver.Tack, BearingChange: 92},
		{Type: maneuver.Tack, BearingChange: -88},
		{Type: maneuver.Jibe, BearingChange: 120},
	}
	s := analysis.Summarize(points, ms)

	assert.Equal(t, 61, s.Points)
	assert.Equal(t, time.Minute, s.Duration)
	// 60 one-second segments at 2 m/s; the first point carries none.
	assert.InDelta(t, 120, s.DistanceMeters, 0.01)
	assert.InDelta(t, 2, s.AvgSpeed, 0.01)
	assert.Equal(t, 2, s.ManeuverCounts[maneuver.Tack])
	assert.Equal(t, 1, s.ManeuverCounts[maneuver.Jibe])
	assert.InDelta(t, 90, s.MeanTackingAngle, 1e-9)
}
