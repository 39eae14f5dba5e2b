// Package maneuver segments a preprocessed GPS track into discrete
// sailing maneuvers (tacks, jibes, bear-aways, head-ups, generic course
// changes) and classifies each with a confidence score.
package maneuver

import (
	"fmt"
	"strings"

	"github.com/regatta-data/tackline/internal/geo"
)

// PointOfSail classifies a heading relative to the wind.
type PointOfSail string

const (
	Upwind   PointOfSail = "upwind"
	Reaching PointOfSail = "reaching"
	Downwind PointOfSail = "downwind"
)

// TackSide is the side of the vessel the wind is blowing onto.
type TackSide string

const (
	Port      TackSide = "port"
	Starboard TackSide = "starboard"
)

// SailingState combines point of sail and tack side, e.g. "upwind_starboard".
type SailingState struct {
	PointOfSail PointOfSail
	Side        TackSide
}

func (s SailingState) String() string {
	return fmt.Sprintf("%s_%s", s.PointOfSail, s.Side)
}

// RelativeWindAngle returns the signed angle from the vessel's heading
// to the wind direction (the direction the wind blows from), wrapped to
// (-180,180]. Positive means the wind is on the starboard side.
func RelativeWindAngle(headingDeg, windDeg float64) float64 {
	return geo.AngleDifference(windDeg, headingDeg)
}

// ClassifyState derives the sailing state for a heading under a given
// wind direction.
//
// The tack side follows the physical definition: the side of the hull
// the apparent wind crosses. A positive relative angle puts the wind to
// starboard; head-to-wind and dead downwind resolve to starboard by
// convention. Point of sail compares |relative angle| against the
// upwind and downwind thresholds: at or below the first is upwind,
// above the second is downwind, between is reaching. The upwind bound
// is inclusive so that a boat sitting exactly on it classifies the same
// on either tack; an exclusive bound would let float rounding of two
// symmetric headings land them in different states.
func ClassifyState(headingDeg, windDeg float64, cfg Config) SailingState {
	rel := RelativeWindAngle(headingDeg, windDeg)

	side := Port
	if rel >= 0 {
		side = Starboard
	}

	pos := Reaching
	abs := rel
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs <= cfg.UpwindThresholdDeg:
		pos = Upwind
	case abs > cfg.DownwindThresholdDeg:
		pos = Downwind
	}

	return SailingState{PointOfSail: pos, Side: side}
}

// ParseSailingState parses the String form ("upwind_starboard") back
// into a SailingState.
func ParseSailingState(s string) (SailingState, error) {
	pos, side, ok := strings.Cut(s, "_")
	if !ok {
		return SailingState{}, fmt.Errorf("malformed sailing state %q", s)
	}
	st := SailingState{PointOfSail: PointOfSail(pos), Side: TackSide(side)}
	switch st.PointOfSail {
	case Upwind, Reaching, Downwind:
	default:
		return SailingState{}, fmt.Errorf("unknown point of sail %q", pos)
	}
	switch st.Side {
	case Port, Starboard:
	default:
		return SailingState{}, fmt.Errorf("unknown tack side %q", side)
	}
	return st, nil
}
