// Package wind infers ambient wind direction and speed from a vessel's
// sailed angles and speed changes. No instrument data is involved: the
// estimates are heuristic, derived from tack geometry and from the
// symmetry of velocity made good across candidate wind directions.
package wind

import (
	"fmt"
	"time"
)

// Estimation methods recorded on an Estimate.
const (
	MethodTackGeometry = "tack_geometry"
	MethodVMGSymmetry  = "vmg_symmetry"
	MethodFused        = "fused"
	MethodFallback     = "fallback"
)

// Estimate is one wind solution. Direction is the compass direction the
// wind blows from, degrees [0,360). Speed is m/s. Confidence is [0,1].
type Estimate struct {
	Direction  float64
	Speed      float64
	Confidence float64
	Method     string
	Timestamp  time.Time
}

// Config holds every tunable constant of the estimator. Angles are
// degrees, speeds m/s.
type Config struct {
	// CloseHauledAngleDeg is the typical angle a boat holds off the
	// true wind when beating. Each tack leg is opened by this much
	// toward the wind in the geometric strategy.
	CloseHauledAngleDeg float64

	// InvertedMeanWeight blends the two per-maneuver direction
	// candidates: the inverted mean bearing carries this weight, the
	// close-hauled leg opening carries the remainder.
	InvertedMeanWeight float64

	// ExpectedTackSpeedRatio is the after/before speed ratio of a
	// cleanly executed tack; proximity to it raises a maneuver's vote.
	ExpectedTackSpeedRatio float64

	// CanonicalTackAngleDeg is the textbook tacking angle; proximity to
	// it raises a maneuver's vote.
	CanonicalTackAngleDeg float64

	// UpwindSpeedCoef and DownwindSpeedCoef convert peak boat speed
	// around a maneuver into a wind-speed guess, by point of sail.
	UpwindSpeedCoef   float64
	DownwindSpeedCoef float64

	// MinManeuvers is the minimum number of usable maneuvers for the
	// geometric strategy.
	MinManeuvers int

	// BucketSizeDeg is the bearing bucket width for the VMG strategy.
	BucketSizeDeg float64

	// MinBucketPoints discards thinner bearing buckets.
	MinBucketPoints int

	// SweepStepDeg is the candidate wind direction sweep step.
	SweepStepDeg float64

	// MinPopulatedBuckets is the minimum bucket coverage for the VMG
	// strategy to produce an estimate.
	MinPopulatedBuckets int

	// SpeedSpreadFactor scales the max/min bucket speed spread into a
	// wind-speed guess.
	SpeedSpreadFactor float64

	// FallbackConfidence is reported on the documented fallback
	// estimate substituted when every strategy fails.
	FallbackConfidence float64
}

// DefaultConfig returns the estimator defaults.
func DefaultConfig() Config {
	return Config{
		CloseHauledAngleDeg:    42,
		InvertedMeanWeight:     0.4,
		ExpectedTackSpeedRatio: 0.7,
		CanonicalTackAngleDeg:  90,
		UpwindSpeedCoef:        1.4,
		DownwindSpeedCoef:      1.2,
		MinManeuvers:           2,
		BucketSizeDeg:          10,
		MinBucketPoints:        5,
		SweepStepDeg:           5,
		MinPopulatedBuckets:    12,
		SpeedSpreadFactor:      1.5,
		FallbackConfidence:     0.2,
	}
}

// Validate checks the configuration ranges.
func (c Config) Validate() error {
	if c.CloseHauledAngleDeg <= 0 || c.CloseHauledAngleDeg >= 90 {
		return fmt.Errorf("close_hauled_angle_deg must be in (0,90), got %g", c.CloseHauledAngleDeg)
	}
	if c.InvertedMeanWeight < 0 || c.InvertedMeanWeight > 1 {
		return fmt.Errorf("inverted_mean_weight must be in [0,1], got %g", c.InvertedMeanWeight)
	}
	if c.ExpectedTackSpeedRatio <= 0 || c.ExpectedTackSpeedRatio >= 1 {
		return fmt.Errorf("expected_tack_speed_ratio must be in (0,1), got %g", c.ExpectedTackSpeedRatio)
	}
	if c.MinManeuvers < 1 {
		return fmt.Errorf("min_maneuvers must be >= 1, got %d", c.MinManeuvers)
	}
	if c.BucketSizeDeg <= 0 || c.BucketSizeDeg > 90 {
		return fmt.Errorf("bucket_size_deg must be in (0,90], got %g", c.BucketSizeDeg)
	}
	if c.SweepStepDeg <= 0 || c.SweepStepDeg > 45 {
		return fmt.Errorf("sweep_step_deg must be in (0,45], got %g", c.SweepStepDeg)
	}
	if c.MinBucketPoints < 1 {
		return fmt.Errorf("min_bucket_points must be >= 1, got %d", c.MinBucketPoints)
	}
	if c.MinPopulatedBuckets < 2 {
		return fmt.Errorf("min_populated_buckets must be >= 2, got %d", c.MinPopulatedBuckets)
	}
	if c.FallbackConfidence < 0 || c.FallbackConfidence > 1 {
		return fmt.Errorf("fallback_confidence must be in [0,1], got %g", c.FallbackConfidence)
	}
	return nil
}

// Estimator runs the wind estimation strategies.
type Estimator struct {
	cfg Config
}

// NewEstimator validates cfg and returns an estimator.
func NewEstimator(cfg Config) (*Estimator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("wind estimator config: %w", err)
	}
	return &Estimator{cfg: cfg}, nil
}

// Config returns the estimator's configuration.
func (e *Estimator) Config() Config { return e.cfg }

// Fallback returns the documented conservative estimate substituted
// when no strategy can produce a solution. Callers branch on Method.
func (e *Estimator) Fallback(ts time.Time) Estimate {
	return Estimate{
		Direction:  0,
		Speed:      0,
		Confidence: e.cfg.FallbackConfidence,
		Method:     MethodFallback,
		Timestamp:  ts,
	}
}
