// Package track defines the GPS track data model and the preprocessor
// that derives bearing, distance and speed from raw position samples.
//
// Everything downstream (maneuver detection, wind estimation, strategic
// scoring) consumes the []TrackPoint produced here and never mutates it.
package track

import (
	"time"
)

// RawSample is one record as delivered by a loader: a timestamped
// position, optionally with speed (m/s) and course (degrees) columns
// when the source file carried them.
type RawSample struct {
	Timestamp time.Time
	Lat       float64
	Lon       float64

	// Speed in m/s as reported by the recording device, nil when the
	// source had no speed column. Loaders normalise units before
	// filling this in.
	Speed *float64

	// Course over ground in degrees, nil when absent.
	Course *float64
}

// TrackPoint is one preprocessed sample. Bearing is the initial
// great-circle bearing to this point from the previous one, degrees
// [0,360). Distance is meters travelled since the previous point.
// Speed is m/s. The first point of a track has Distance and Speed 0
// and inherits the bearing of the second point.
type TrackPoint struct {
	Timestamp time.Time
	Lat       float64
	Lon       float64
	Bearing   float64
	Distance  float64
	Speed     float64
}

// Duration returns the elapsed time between the first and last point.
func Duration(points []TrackPoint) time.Duration {
	if len(points) < 2 {
		return 0
	}
	return points[len(points)-1].Timestamp.Sub(points[0].Timestamp)
}

// TotalDistance returns the sum of inter-point distances in meters.
func TotalDistance(points []TrackPoint) float64 {
	var total float64
	for _, p := range points {
		total += p.Distance
	}
	return total
}
