package strategy

import (
	"math"

	"github.com/regatta-data/tackline/internal/geo"
	"github.com/regatta-data/tackline/internal/track"
	"github.com/regatta-data/tackline/internal/wind"
)

// windowStat summarises one fixed-duration slice of the track.
type windowStat struct {
	midIdx    int // index of the point nearest the window center
	meanSpeed float64
	meanVMG   float64 // m/s toward the wind; negative when sailing away
}

// slidingWindows cuts the track into consecutive WindowSeconds slices.
// Slices with fewer than 2 points are skipped.
func (s *Scorer) slidingWindows(points []track.TrackPoint, windDeg float64) []windowStat {
	if len(points) == 0 {
		return nil
	}
	var stats []windowStat
	width := s.cfg.WindowSeconds
	start := 0
	for start < len(points) {
		end := start
		for end < len(points) &&
			points[end].Timestamp.Sub(points[start].Timestamp).Seconds() < width {
			end++
		}
		if end-start >= 2 {
			var speedSum, vmgSum float64
			for i := start; i < end; i++ {
				rel := geo.AngleDifference(windDeg, points[i].Bearing) * math.Pi / 180
				speedSum += points[i].Speed
				vmgSum += points[i].Speed * math.Cos(rel)
			}
			n := float64(end - start)
			stats = append(stats, windowStat{
				midIdx:    start + (end-start)/2,
				meanSpeed: speedSum / n,
				meanVMG:   vmgSum / n,
			})
		}
		if end == start {
			end++
		}
		start = end
	}
	return stats
}

// detectPerformanceChanges compares adjacent windows and emits a point
// wherever mean speed or mean VMG shifts by more than the configured
// threshold. The magnitude of the shift scales the score.
func (s *Scorer) detectPerformanceChanges(points []track.TrackPoint, est wind.Estimate) []Point {
	if est.Method == wind.MethodFallback {
		// Without a credible wind direction the VMG series is noise;
		// speed changes are still meaningful.
		return s.detectSpeedChanges(points, est)
	}
	out := s.detectSpeedChanges(points, est)

	windows := s.slidingWindows(points, est.Direction)
	maxSpeed := 0.0
	for _, p := range points {
		if p.Speed > maxSpeed {
			maxSpeed = p.Speed
		}
	}
	if maxSpeed == 0 {
		return out
	}
	for i := 1; i < len(windows); i++ {
		delta := (windows[i].meanVMG - windows[i-1].meanVMG) / maxSpeed
		if math.Abs(delta) < s.cfg.ChangeThreshold {
			continue
		}
		t := VMGImprovement
		if delta < 0 {
			t = VMGDeterioration
		}
		p := points[windows[i].midIdx]
		score := baseScore(t) * (1 + math.Min(1, math.Abs(delta))) * s.windFactor(est)
		out = append(out, Point{
			Type:      t,
			Lat:       p.Lat,
			Lon:       p.Lon,
			Timestamp: p.Timestamp,
			Score:     clampScore(score),
		})
	}
	return out
}

func (s *Scorer) detectSpeedChanges(points []track.TrackPoint, est wind.Estimate) []Point {
	windows := s.slidingWindows(points, est.Direction)
	var out []Point
	for i := 1; i < len(windows); i++ {
		if windows[i-1].meanSpeed <= 0 {
			continue
		}
		rel := (windows[i].meanSpeed - windows[i-1].meanSpeed) / windows[i-1].meanSpeed
		if math.Abs(rel) < s.cfg.ChangeThreshold {
			continue
		}
		t := SpeedImprovement
		if rel < 0 {
			t = SpeedDeterioration
		}
		p := points[windows[i].midIdx]
		score := baseScore(t) * (1 + math.Min(1, math.Abs(rel))) * s.windFactor(est)
		out = append(out, Point{
			Type:      t,
			Lat:       p.Lat,
			Lon:       p.Lon,
			Timestamp: p.Timestamp,
			Score:     clampScore(score),
		})
	}
	return out
}

// detectMissedOpportunities flags sustained upwind sailing well below
// the session's best upwind VMG: time spent pinching or footing that a
// tack or trim change could have recovered. One point per contiguous
// run, placed at its center.
func (s *Scorer) detectMissedOpportunities(points []track.TrackPoint, est wind.Estimate) []Point {
	if est.Method == wind.MethodFallback {
		return nil
	}
	windows := s.slidingWindows(points, est.Direction)

	best := 0.0
	for _, w := range windows {
		if w.meanVMG > best {
			best = w.meanVMG
		}
	}
	if best <= 0 {
		return nil
	}

	var out []Point
	runStart := -1
	flush := func(endExclusive int) {
		if runStart < 0 {
			return
		}
		if endExclusive-runStart >= 2 {
			w := windows[runStart+(endExclusive-runStart)/2]
			p := points[w.midIdx]
			shortfall := 1 - w.meanVMG/best
			score := baseScore(MissedOpportunity) * (0.5 + shortfall) * s.windFactor(est)
			out = append(out, Point{
				Type:      MissedOpportunity,
				Lat:       p.Lat,
				Lon:       p.Lon,
				Timestamp: p.Timestamp,
				Score:     clampScore(score),
			})
		}
		runStart = -1
	}
	for i, w := range windows {
		below := w.meanVMG > 0 && w.meanVMG < s.cfg.MissedVMGFraction*best
		if below && runStart < 0 {
			runStart = i
		} else if !below {
			flush(i)
		}
	}
	flush(len(windows))
	return out
}
