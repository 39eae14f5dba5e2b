package analysis

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Overrides is the JSON shape of a config file. Every field is a
// pointer so partial files are safe: omitted fields keep their
// defaults.
type Overrides struct {
	// Maneuver detector
	SmoothingWindow      *int     `json:"smoothing_window,omitempty"`
	TurnThresholdDeg     *float64 `json:"turn_threshold_deg,omitempty"`
	WindowSeconds        *float64 `json:"window_seconds,omitempty"`
	MinWindowPoints      *int     `json:"min_window_points,omitempty"`
	MinTrackPoints       *int     `json:"min_track_points,omitempty"`
	UpwindThresholdDeg   *float64 `json:"upwind_threshold_deg,omitempty"`
	DownwindThresholdDeg *float64 `json:"downwind_threshold_deg,omitempty"`
	MinTurnDeg           *float64 `json:"min_turn_deg,omitempty"`
	MaxTurnDeg           *float64 `json:"max_turn_deg,omitempty"`

	// Wind estimator
	CloseHauledAngleDeg *float64 `json:"close_hauled_angle_deg,omitempty"`
	MinManeuvers        *int     `json:"min_maneuvers,omitempty"`
	BucketSizeDeg       *float64 `json:"bucket_size_deg,omitempty"`
	MinBucketPoints     *int     `json:"min_bucket_points,omitempty"`
	SweepStepDeg        *float64 `json:"sweep_step_deg,omitempty"`
	MinPopulatedBuckets *int     `json:"min_populated_buckets,omitempty"`

	// Strategic scorer
	DedupWindowSeconds *float64 `json:"dedup_window_seconds,omitempty"`
	ChangeThreshold    *float64 `json:"change_threshold,omitempty"`

	// Cache
	CacheSize *int    `json:"cache_size,omitempty"`
	CacheTTL  *string `json:"cache_ttl,omitempty"` // duration string like "10m"
}

// LoadConfig reads a JSON overrides file and applies it on top of
// DefaultConfig. The file must have a .json extension; range validation
// happens when the Analyzer is constructed.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return cfg, fmt.Errorf("config file must have .json extension, got %q", ext)
	}
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	var o Overrides
	if err := json.Unmarshal(data, &o); err != nil {
		return cfg, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := o.apply(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (o *Overrides) apply(cfg *Config) error {
	setInt := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	setFloat := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}

	setInt(&cfg.Detector.SmoothingWindow, o.SmoothingWindow)
	setFloat(&cfg.Detector.TurnThresholdDeg, o.TurnThresholdDeg)
	setFloat(&cfg.Detector.WindowSeconds, o.WindowSeconds)
	setInt(&cfg.Detector.MinWindowPoints, o.MinWindowPoints)
	setInt(&cfg.Detector.MinTrackPoints, o.MinTrackPoints)
	setFloat(&cfg.Detector.UpwindThresholdDeg, o.UpwindThresholdDeg)
	setFloat(&cfg.Detector.DownwindThresholdDeg, o.DownwindThresholdDeg)
	setFloat(&cfg.Detector.MinTurnDeg, o.MinTurnDeg)
	setFloat(&cfg.Detector.MaxTurnDeg, o.MaxTurnDeg)

	setFloat(&cfg.Wind.CloseHauledAngleDeg, o.CloseHauledAngleDeg)
	setInt(&cfg.Wind.MinManeuvers, o.MinManeuvers)
	setFloat(&cfg.Wind.BucketSizeDeg, o.BucketSizeDeg)
	setInt(&cfg.Wind.MinBucketPoints, o.MinBucketPoints)
	setFloat(&cfg.Wind.SweepStepDeg, o.SweepStepDeg)
	setInt(&cfg.Wind.MinPopulatedBuckets, o.MinPopulatedBuckets)

	setFloat(&cfg.Scorer.DedupWindowSeconds, o.DedupWindowSeconds)
	setFloat(&cfg.Scorer.ChangeThreshold, o.ChangeThreshold)

	setInt(&cfg.CacheSize, o.CacheSize)
	if o.CacheTTL != nil {
		ttl, err := time.ParseDuration(*o.CacheTTL)
		if err != nil {
			return fmt.Errorf("invalid cache_ttl %q: %w", *o.CacheTTL, err)
		}
		cfg.CacheTTL = ttl
	}
	return nil
}
