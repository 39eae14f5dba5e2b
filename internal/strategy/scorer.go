// Package strategy scores detected events for tactical significance and
// removes near-duplicate detections. Scores live on a 0–10 scale; 10 is
// the most teachable moment of the session.
package strategy

import (
	"fmt"
	"math"
	"time"

	"github.com/regatta-data/tackline/internal/geo"
	"github.com/regatta-data/tackline/internal/maneuver"
	"github.com/regatta-data/tackline/internal/track"
	"github.com/regatta-data/tackline/internal/wind"
)

// PointType labels a strategic point.
type PointType string

const (
	TackPoint          PointType = "tack"
	JibePoint          PointType = "jibe"
	BearAwayPoint      PointType = "bear_away"
	HeadUpPoint        PointType = "head_up"
	CourseChangePoint  PointType = "course_change"
	SpeedImprovement   PointType = "speed_improvement"
	SpeedDeterioration PointType = "speed_deterioration"
	VMGImprovement     PointType = "vmg_improvement"
	VMGDeterioration   PointType = "vmg_deterioration"
	MissedOpportunity  PointType = "missed_opportunity"
)

// Point is one scored strategic event.
type Point struct {
	Type      PointType
	Lat       float64
	Lon       float64
	Timestamp time.Time
	Score     float64 // [0,10]
}

// Importance maps the score onto [0,1] for consumers that prefer a
// normalised weight.
func (p Point) Importance() float64 {
	return geo.Clamp01(p.Score / 10)
}

// Config holds the scorer's tunables.
type Config struct {
	// DedupWindowSeconds is the time distance under which two events of
	// the same type class count as one detection.
	DedupWindowSeconds float64

	// WindowSeconds is the width of the sliding windows compared when
	// looking for sustained speed or VMG changes.
	WindowSeconds float64

	// ChangeThreshold is the relative speed/VMG change between adjacent
	// windows that registers as a performance-change event.
	ChangeThreshold float64

	// MissedVMGFraction flags sustained upwind sailing below this
	// fraction of the session's best upwind VMG as a missed
	// opportunity.
	MissedVMGFraction float64

	// ExpectedTackSpeedRatio is the speed ratio of a cleanly executed
	// tack; bigger departures make the tack more teachable.
	ExpectedTackSpeedRatio float64

	// ReferenceWindSpeed (m/s) is the wind at which the wind factor is
	// 1; stronger wind scales scores up to WindFactorCap.
	ReferenceWindSpeed float64
	WindFactorCap      float64
}

// DefaultConfig returns the scorer defaults.
func DefaultConfig() Config {
	return Config{
		DedupWindowSeconds:     10,
		WindowSeconds:          10,
		ChangeThreshold:        0.25,
		MissedVMGFraction:      0.5,
		ExpectedTackSpeedRatio: 0.7,
		ReferenceWindSpeed:     5,
		WindFactorCap:          1.3,
	}
}

// Validate checks the configuration ranges.
func (c Config) Validate() error {
	if c.DedupWindowSeconds <= 0 {
		return fmt.Errorf("dedup_window_seconds must be positive, got %g", c.DedupWindowSeconds)
	}
	if c.WindowSeconds <= 0 {
		return fmt.Errorf("window_seconds must be positive, got %g", c.WindowSeconds)
	}
	if c.ChangeThreshold <= 0 || c.ChangeThreshold >= 1 {
		return fmt.Errorf("change_threshold must be in (0,1), got %g", c.ChangeThreshold)
	}
	if c.MissedVMGFraction <= 0 || c.MissedVMGFraction >= 1 {
		return fmt.Errorf("missed_vmg_fraction must be in (0,1), got %g", c.MissedVMGFraction)
	}
	if c.ReferenceWindSpeed <= 0 {
		return fmt.Errorf("reference_wind_speed must be positive, got %g", c.ReferenceWindSpeed)
	}
	if c.WindFactorCap < 1 {
		return fmt.Errorf("wind_factor_cap must be >= 1, got %g", c.WindFactorCap)
	}
	return nil
}

// Scorer turns maneuvers and performance changes into scored,
// deduplicated strategic points.
type Scorer struct {
	cfg Config
}

// NewScorer validates cfg and returns a scorer.
func NewScorer(cfg Config) (*Scorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("strategy scorer config: %w", err)
	}
	return &Scorer{cfg: cfg}, nil
}

// Score produces the deduplicated strategic point list for one track:
// every maneuver plus independently detected performance-change and
// missed-opportunity events, each scored and clamped to [0,10].
func (s *Scorer) Score(points []track.TrackPoint, maneuvers []maneuver.Maneuver, est wind.Estimate) []Point {
	var out []Point
	for _, m := range maneuvers {
		out = append(out, s.scoreManeuver(m, est))
	}
	out = append(out, s.detectPerformanceChanges(points, est)...)
	out = append(out, s.detectMissedOpportunities(points, est)...)
	return s.Deduplicate(out)
}

// baseScore is the per-type starting score before adjustments.
func baseScore(t PointType) float64 {
	switch t {
	case TackPoint, JibePoint:
		return 7
	case BearAwayPoint, HeadUpPoint, CourseChangePoint:
		return 5
	case VMGImprovement, VMGDeterioration:
		return 6
	case SpeedImprovement, SpeedDeterioration:
		return 4
	case MissedOpportunity:
		return 6
	default:
		return 4
	}
}

// scoreManeuver converts one maneuver into a scored point. Tacks and
// jibes are adjusted by execution quality: the further the speed ratio
// sits from a clean execution, the more the moment is worth reviewing.
func (s *Scorer) scoreManeuver(m maneuver.Maneuver, est wind.Estimate) Point {
	t := pointType(m.Type)
	score := baseScore(t)

	if t == TackPoint || t == JibePoint {
		departure := math.Abs(m.SpeedRatio - s.cfg.ExpectedTackSpeedRatio)
		if departure > 0.5 {
			departure = 0.5
		}
		score *= 1 + departure
	}
	score *= s.windFactor(est)

	return Point{
		Type:      t,
		Lat:       m.Lat,
		Lon:       m.Lon,
		Timestamp: m.Timestamp,
		Score:     clampScore(score),
	}
}

func pointType(t maneuver.Type) PointType {
	switch t {
	case maneuver.Tack:
		return TackPoint
	case maneuver.Jibe:
		return JibePoint
	case maneuver.BearAway:
		return BearAwayPoint
	case maneuver.HeadUp:
		return HeadUpPoint
	default:
		return CourseChangePoint
	}
}

// windFactor scales importance with the ambient wind strength, capped.
// A fallback estimate carries no usable speed and scales by 1.
func (s *Scorer) windFactor(est wind.Estimate) float64 {
	if est.Method == wind.MethodFallback || est.Speed <= 0 {
		return 1
	}
	f := est.Speed / s.cfg.ReferenceWindSpeed
	if f < 0.8 {
		f = 0.8
	}
	if f > s.cfg.WindFactorCap {
		f = s.cfg.WindFactorCap
	}
	return f
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}
