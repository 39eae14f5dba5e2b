package track

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(ts time.Time, lat, lon float64) RawSample {
	return RawSample{Timestamp: ts, Lat: lat, Lon: lon}
}

func TestPreprocessDerivesBearingAndSpeed(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 6, 14, 10, 0, 0, 0, time.UTC)

	// Three samples heading due north, roughly 111 m apart at 1 s.
	samples := []RawSample{
		sample(start, 54.0, 18.0),
		sample(start.Add(time.Second), 54.001, 18.0),
		sample(start.Add(2*time.Second), 54.002, 18.0),
	}
	points, err := Preprocess(samples)
	require.NoError(t, err)
	require.Len(t, points, 3)

	for i, p := range points {
		assert.GreaterOrEqual(t, p.Bearing, 0.0, "point %d bearing", i)
		assert.Less(t, p.Bearing, 360.0, "point %d bearing", i)
		assert.GreaterOrEqual(t, p.Speed, 0.0, "point %d speed", i)
	}

	// First point inherits the second point's bearing and moves nowhere.
	assert.InDelta(t, points[1].Bearing, points[0].Bearing, 1e-9)
	assert.Zero(t, points[0].Speed)
	assert.Zero(t, points[0].Distance)

	// ~111 m in 1 s heading north.
	assert.InDelta(t, 0, points[1].Bearing, 0.5)
	assert.InDelta(t, 111.2, points[1].Speed, 2.0)
}

func TestPreprocessZeroElapsedTime(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 6, 14, 10, 0, 0, 0, time.UTC)

	// Same timestamp, different position: distance without elapsed
	// time must yield speed 0, not NaN or Inf.
	samples := []RawSample{
		sample(start, 54.0, 18.0),
		sample(start, 54.001, 18.0),
		sample(start.Add(time.Second), 54.002, 18.0),
	}
	points, err := Preprocess(samples)
	require.NoError(t, err)
	assert.Zero(t, points[1].Speed)
	assert.NotZero(t, points[1].Distance)
}

func TestPreprocessDropsExactDuplicates(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 6, 14, 10, 0, 0, 0, time.UTC)
	samples := []RawSample{
		sample(start, 54.0, 18.0),
		sample(start, 54.0, 18.0),
		sample(start.Add(time.Second), 54.001, 18.0),
	}
	points, err := Preprocess(samples)
	require.NoError(t, err)
	assert.Len(t, points, 2)
}

func TestPreprocessRejectsNonMonotonicTimestamps(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 6, 14, 10, 0, 0, 0, time.UTC)
	samples := []RawSample{
		sample(start, 54.0, 18.0),
		sample(start.Add(2*time.Second), 54.001, 18.0),
		sample(start.Add(time.Second), 54.002, 18.0),
	}
	_, err := Preprocess(samples)
	require.Error(t, err)
	assert.True(t, IsValidation(err), "want a validation error, got %v", err)
}

func TestPreprocessTooFewSamples(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 6, 14, 10, 0, 0, 0, time.UTC)

	_, err := Preprocess([]RawSample{sample(start, 54, 18)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientData))
}

func TestPreprocessHonorsDeviceColumns(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 6, 14, 10, 0, 0, 0, time.UTC)
	speed := 3.5
	course := 123.0

	samples := []RawSample{
		sample(start, 54.0, 18.0),
		{Timestamp: start.Add(time.Second), Lat: 54.001, Lon: 18.0, Speed: &speed, Course: &course},
	}
	points, err := Preprocess(samples)
	require.NoError(t, err)
	assert.Equal(t, speed, points[1].Speed)
	assert.Equal(t, course, points[1].Bearing)
}
