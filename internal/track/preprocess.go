package track

import (
	"fmt"

	"github.com/regatta-data/tackline/internal/geo"
)

// Preprocess turns raw loader samples into a parallel sequence of
// TrackPoints with derived bearing, distance and speed.
//
// Rules:
//   - at least 2 samples are required;
//   - timestamps must be non-decreasing (a decrease is a validation
//     error, not a silently reordered track);
//   - consecutive samples with identical timestamp and position are
//     dropped as duplicates;
//   - zero elapsed time between surviving samples yields speed 0, never
//     NaN;
//   - a device-reported speed takes precedence over the derived one,
//     likewise a reported course over the derived bearing;
//   - the first point inherits the bearing of the second and has
//     distance and speed 0.
//
// The transform is pure: it never mutates its input and has no side
// effects.
func Preprocess(samples []RawSample) ([]TrackPoint, error) {
	if len(samples) < 2 {
		return nil, fmt.Errorf("preprocess: need at least 2 samples, got %d: %w",
			len(samples), ErrInsufficientData)
	}

	// Validate ordering and drop exact duplicates in one pass.
	clean := make([]RawSample, 0, len(samples))
	for i, s := range samples {
		if i > 0 {
			prev := clean[len(clean)-1]
			if s.Timestamp.Before(prev.Timestamp) {
				return nil, &ValidationError{
					Field:  "timestamp",
					Index:  i,
					Reason: "timestamps must be non-decreasing",
				}
			}
			if s.Timestamp.Equal(prev.Timestamp) && s.Lat == prev.Lat && s.Lon == prev.Lon {
				continue
			}
		}
		clean = append(clean, s)
	}
	if len(clean) < 2 {
		return nil, fmt.Errorf("preprocess: only %d distinct samples after deduplication: %w",
			len(clean), ErrInsufficientData)
	}

	points := make([]TrackPoint, len(clean))
	for i, s := range clean {
		points[i] = TrackPoint{
			Timestamp: s.Timestamp,
			Lat:       s.Lat,
			Lon:       s.Lon,
		}
		if i == 0 {
			continue
		}
		prev := clean[i-1]
		dist := geo.HaversineDistance(prev.Lat, prev.Lon, s.Lat, s.Lon)
		points[i].Distance = dist
		points[i].Bearing = geo.InitialBearing(prev.Lat, prev.Lon, s.Lat, s.Lon)

		elapsed := s.Timestamp.Sub(prev.Timestamp).Seconds()
		if elapsed > 0 {
			points[i].Speed = dist / elapsed
		}
		if s.Speed != nil && *s.Speed >= 0 {
			points[i].Speed = *s.Speed
		}
		if s.Course != nil {
			points[i].Bearing = geo.NormalizeDegrees(*s.Course)
		}
	}

	// No prior segment exists for the first point.
	points[0].Bearing = points[1].Bearing
	if clean[0].Course != nil {
		points[0].Bearing = geo.NormalizeDegrees(*clean[0].Course)
	}

	return points, nil
}
