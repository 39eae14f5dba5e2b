package maneuver

import "fmt"

// Config holds every tunable threshold of the maneuver detector. All
// angles are degrees. The zero value is not usable; start from
// DefaultConfig and override.
type Config struct {
	// SmoothingWindow is the width in points of the centered window over
	// which signed bearing changes are summed before thresholding.
	// Must be odd and >= 1.
	SmoothingWindow int

	// TurnThresholdDeg flags a point as part of a maneuver when the
	// smoothed bearing change exceeds it. 60 suits keelboats; twitchier
	// boats can run down to ~30.
	TurnThresholdDeg float64

	// WindowSeconds is how far the detector looks backward and forward
	// from a maneuver's representative point when computing the stable
	// entry/exit bearings and speeds.
	WindowSeconds float64

	// MinWindowPoints is the minimum number of points required on each
	// side of a candidate; candidates with thinner context are dropped.
	MinWindowPoints int

	// MinTrackPoints is the minimum track length worth analysing.
	// Shorter tracks yield an empty maneuver list.
	MinTrackPoints int

	// UpwindThresholdDeg bounds the upwind point of sail: |relative
	// wind angle| below it is upwind.
	UpwindThresholdDeg float64

	// DownwindThresholdDeg bounds the downwind point of sail: |relative
	// wind angle| above it is downwind.
	DownwindThresholdDeg float64

	// MinTurnDeg and MaxTurnDeg bound the bearing-change magnitude a
	// tack or jibe may have. Turns outside the band classify as course
	// changes or transitions.
	MinTurnDeg float64
	MaxTurnDeg float64
}

// DefaultConfig returns the detector defaults documented in Config.
func DefaultConfig() Config {
	return Config{
		SmoothingWindow:      5,
		TurnThresholdDeg:     60,
		WindowSeconds:        8,
		MinWindowPoints:      3,
		MinTrackPoints:       10,
		UpwindThresholdDeg:   45,
		DownwindThresholdDeg: 120,
		MinTurnDeg:           60,
		MaxTurnDeg:           150,
	}
}

// Validate checks that every threshold is inside its supported range.
func (c Config) Validate() error {
	if c.SmoothingWindow < 1 || c.SmoothingWindow%2 == 0 {
		return fmt.Errorf("smoothing_window must be odd and >= 1, got %d", c.SmoothingWindow)
	}
	if c.TurnThresholdDeg <= 0 || c.TurnThresholdDeg > 180 {
		return fmt.Errorf("turn_threshold_deg must be in (0,180], got %g", c.TurnThresholdDeg)
	}
	if c.WindowSeconds <= 0 {
		return fmt.Errorf("window_seconds must be positive, got %g", c.WindowSeconds)
	}
	if c.MinWindowPoints < 1 {
		return fmt.Errorf("min_window_points must be >= 1, got %d", c.MinWindowPoints)
	}
	if c.MinTrackPoints < 2 {
		return fmt.Errorf("min_track_points must be >= 2, got %d", c.MinTrackPoints)
	}
	if c.UpwindThresholdDeg <= 0 || c.UpwindThresholdDeg >= c.DownwindThresholdDeg {
		return fmt.Errorf("upwind_threshold_deg (%g) must be positive and below downwind_threshold_deg (%g)",
			c.UpwindThresholdDeg, c.DownwindThresholdDeg)
	}
	if c.DownwindThresholdDeg >= 180 {
		return fmt.Errorf("downwind_threshold_deg must be below 180, got %g", c.DownwindThresholdDeg)
	}
	if c.MinTurnDeg <= 0 || c.MinTurnDeg >= c.MaxTurnDeg {
		return fmt.Errorf("min_turn_deg (%g) must be positive and below max_turn_deg (%g)",
			c.MinTurnDeg, c.MaxTurnDeg)
	}
	if c.MaxTurnDeg > 180 {
		return fmt.Errorf("max_turn_deg must be at most 180, got %g", c.MaxTurnDeg)
	}
	return nil
}
