package analysis

import (
	"math"
	"time"

	"github.com/regatta-data/tackline/internal/maneuver"
	"github.com/regatta-data/tackline/internal/track"
)

// Summary holds per-track aggregate statistics for reports and
// persistence.
type Summary struct {
	Points         int
	Duration       time.Duration
	DistanceMeters float64
	AvgSpeed       float64 // m/s over the whole track
	MaxSpeed       float64 // m/s

	// ManeuverCounts is keyed by maneuver type; absent types are zero.
	ManeuverCounts map[maneuver.Type]int

	// MeanTackingAngle is the mean absolute bearing change across
	// detected tacks, 0 when the track has none.
	MeanTackingAngle float64
}

// Summarize computes aggregate statistics for one analyzed track.
func Summarize(points []track.TrackPoint, maneuvers []maneuver.Maneuver) Summary {
	s := Summary{
		Points:         len(points),
		Duration:       track.Duration(points),
		DistanceMeters: track.TotalDistance(points),
		ManeuverCounts: make(map[maneuver.Type]int),
	}
	for _, p := range points {
		if p.Speed > s.MaxSpeed {
			s.MaxSpeed = p.Speed
		}
	}
	if secs := s.Duration.Seconds(); secs > 0 {
		s.AvgSpeed = s.DistanceMeters / secs
	}

	var tackAngleSum float64
	tacks := 0
	for _, m := range maneuvers {
		s.ManeuverCounts[m.Type]++
		if m.Type == maneuver.Tack {
			tackAngleSum += math.Abs(m.BearingChange)
			tacks++
		}
	}
	if tacks > 0 {
		s.MeanTackingAngle = tackAngleSum / float64(tacks)
	}
	return s
}
