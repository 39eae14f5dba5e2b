package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/regatta-data/tackline/internal/analysis"
	"github.com/regatta-data/tackline/internal/strategy"
	"github.com/regatta-data/tackline/internal/testutil"
	"github.com/regatta-data/tackline/internal/wind"
)

var testStart = time.Date(2026, 6, 14, 10, 0, 0, 0, time.UTC)

func TestWriteHTML(t *testing.T) {
	t.Parallel()

	points := testutil.Ladder(testStart, 4, 40, 315, 45, 2)
	res := analysis.Result{
		Wind: wind.Estimate{Direction: 0, Speed: 5, Confidence: 0.7, Method: wind.MethodTackGeometry},
		StrategicPoints: []strategy.Point{
			{Type: strategy.TackPoint, Lat: testutil.StartLat, Lon: testutil.StartLon, Timestamp: testStart, Score: 7},
		},
		Summary: analysis.Summarize(points, nil),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, "morning beat", points, res))

	html := buf.String()
	assert.Contains(t, html, "morning beat")
	assert.Contains(t, html, "Boat speed")
	assert.Greater(t, buf.Len(), 1000)
}

func TestSavePolarDiagram(t *testing.T) {
	t.Parallel()

	// Cover a spread of wind angles so several buckets populate.
	points := testutil.Track(testStart,
		testutil.Leg{Bearing: 315, Speed: 2, Points: 30},
		testutil.Leg{Bearing: 45, Speed: 2, Points: 30},
		testutil.Leg{Bearing: 90, Speed: 3, Points: 30},
		testutil.Leg{Bearing: 180, Speed: 4, Points: 30},
	)
	est := wind.Estimate{Direction: 0, Speed: 5, Confidence: 0.7, Method: wind.MethodVMGSymmetry}

	path := filepath.Join(t.TempDir(), "polar.png")
	require.NoError(t, SavePolarDiagram(path, "beat", points, est))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestSavePolarDiagramRejectsFallback(t *testing.T) {
	t.Parallel()

	points := testutil.ConstantTrack(testStart, 30, 0, 2)
	est := wind.Estimate{Method: wind.MethodFallback}
	err := SavePolarDiagram(filepath.Join(t.TempDir(), "polar.png"), "x", points, est)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "fallback"))
}

func TestSavePolarDiagramNeedsCoverage(t *testing.T) {
	t.Parallel()

	// A single bearing populates one bucket, not enough for a curve.
	points := testutil.ConstantTrack(testStart, 30, 0, 2)
	est := wind.Estimate{Direction: 0, Method: wind.MethodVMGSymmetry}
	err := SavePolarDiagram(filepath.Join(t.TempDir(), "polar.png"), "x", points, est)
	assert.Error(t, err)
}
