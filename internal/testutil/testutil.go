// Package testutil provides shared synthetic-track fixtures.
//
// The generators dead-reckon plausible positions from bearing and
// speed so that tests exercising position-carrying outputs (strategic
// points, reports, persistence) see coherent coordinates rather than
// zeros.
package testutil

import (
	"math"
	"time"

	"github.com/regatta-data/tackline/internal/track"
)

// Fixture tracks start in the Bay of Gdańsk; any open water works.
const (
	StartLat = 54.45
	StartLon = 18.65
)

const metersPerDegreeLat = 111320.0

// Leg describes one constant-bearing stretch of a synthetic track.
type Leg struct {
	Bearing float64 // degrees
	Speed   float64 // m/s
	Points  int     // samples at 1 Hz
}

// Track dead-reckons a 1 Hz track through the given legs. Bearings and
// speeds are exact (no jitter); Distance matches Speed over the 1 s
// interval.
func Track(start time.Time, legs ...Leg) []track.TrackPoint {
	var points []track.TrackPoint
	lat, lon := StartLat, StartLon
	ts := start
	for _, leg := range legs {
		rad := leg.Bearing * math.Pi / 180
		for i := 0; i < leg.Points; i++ {
			points = append(points, track.TrackPoint{
				Timestamp: ts,
				Lat:       lat,
				Lon:       lon,
				Bearing:   leg.Bearing,
				Distance:  leg.Speed,
				Speed:     leg.Speed,
			})
			lat += leg.Speed * math.Cos(rad) / metersPerDegreeLat
			lon += leg.Speed * math.Sin(rad) / (metersPerDegreeLat * math.Cos(lat*math.Pi/180))
			ts = ts.Add(time.Second)
		}
	}
	// The preprocessor gives a track's first point zero distance and
	// speed; mirror that so fixtures match its output shape.
	if len(points) > 0 {
		points[0].Distance = 0
		points[0].Speed = 0
	}
	return points
}

// ConstantTrack returns n points at 1 Hz with fixed bearing and speed.
func ConstantTrack(start time.Time, n int, bearing, speed float64) []track.TrackPoint {
	return Track(start, Leg{Bearing: bearing, Speed: speed, Points: n})
}

// Ladder returns an alternating two-bearing beat: legs legs of legLen
// points each at 1 Hz, starting on bearingA.
func Ladder(start time.Time, legs, legLen int, bearingA, bearingB, speed float64) []track.TrackPoint {
	plan := make([]Leg, legs)
	for i := range plan {
		b := bearingA
		if i%2 == 1 {
			b = bearingB
		}
		plan[i] = Leg{Bearing: b, Speed: speed, Points: legLen}
	}
	return Track(start, plan...)
}
