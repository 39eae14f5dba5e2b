package maneuver

import (
	"fmt"
	"math"
	"time"

	"github.com/regatta-data/tackline/internal/geo"
	"github.com/regatta-data/tackline/internal/monitoring"
	"github.com/regatta-data/tackline/internal/track"
)

// Type labels a detected maneuver.
type Type string

const (
	Tack         Type = "tack"
	Jibe         Type = "jibe"
	BearAway     Type = "bear_away"
	HeadUp       Type = "head_up"
	CourseChange Type = "course_change"
	Unknown      Type = "unknown"
)

// Maneuver is one detected event. It is never mutated after creation.
type Maneuver struct {
	Timestamp time.Time
	Lat       float64
	Lon       float64

	// Entry/exit geometry, averaged over the surrounding windows.
	BeforeBearing float64
	AfterBearing  float64
	BearingChange float64 // shortest-arc, signed, degrees

	// Speeds in m/s. SpeedRatio is after/before (1 when before is 0).
	SpeedBefore float64
	SpeedAfter  float64
	SpeedRatio  float64

	Duration time.Duration

	Type       Type
	Confidence float64 // [0,1]

	BeforeState SailingState
	AfterState  SailingState
}

// Detector runs the bearing-change state machine over a track.
type Detector struct {
	cfg Config
}

// NewDetector validates cfg and returns a detector.
func NewDetector(cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("maneuver detector config: %w", err)
	}
	return &Detector{cfg: cfg}, nil
}

// Config returns the detector's configuration.
func (d *Detector) Config() Config { return d.cfg }

// Detect segments points into maneuvers, classifying each against the
// supplied wind direction (degrees, the direction the wind blows from).
//
// Detection is deterministic: the same points and wind always yield the
// same maneuvers. Tracks shorter than MinTrackPoints yield an empty
// list; candidates without MinWindowPoints of context on both sides are
// dropped silently.
func (d *Detector) Detect(points []track.TrackPoint, windDeg float64) []Maneuver {
	if len(points) < d.cfg.MinTrackPoints {
		return nil
	}

	signed := signedBearingChanges(points)
	raw := make([]float64, len(signed))
	for i, v := range signed {
		raw[i] = math.Abs(v)
	}
	smoothed := windowedChange(signed, d.cfg.SmoothingWindow)

	flagged := make([]bool, len(points))
	for i, v := range smoothed {
		flagged[i] = v > d.cfg.TurnThresholdDeg
	}

	var maneuvers []Maneuver
	for _, g := range groupFlagged(flagged) {
		rep := g.start
		for i := g.start; i <= g.end; i++ {
			if raw[i] > raw[rep] {
				rep = i
			}
		}
		m, ok := d.buildManeuver(points, rep, g, windDeg)
		if !ok {
			monitoring.Debugf("maneuver: dropped candidate at %s (thin window context)",
				points[rep].Timestamp.Format(time.RFC3339))
			continue
		}
		maneuvers = append(maneuvers, m)
	}
	return maneuvers
}

// group is a contiguous run of flagged indices, inclusive.
type group struct {
	start, end int
}

func groupFlagged(flagged []bool) []group {
	var groups []group
	inGroup := false
	var start int
	for i, f := range flagged {
		switch {
		case f && !inGroup:
			inGroup = true
			start = i
		case !f && inGroup:
			inGroup = false
			groups = append(groups, group{start: start, end: i - 1})
		}
	}
	if inGroup {
		groups = append(groups, group{start: start, end: len(flagged) - 1})
	}
	return groups
}

// signedBearingChanges returns the shortest-arc signed bearing change
// at each point; index 0 has no prior segment and reports 0. Wrapping
// happens before the sign is taken, so a 10° turn never reads as 350°.
func signedBearingChanges(points []track.TrackPoint) []float64 {
	changes := make([]float64, len(points))
	for i := 1; i < len(points); i++ {
		changes[i] = geo.AngleDifference(points[i].Bearing, points[i-1].Bearing)
	}
	return changes
}

// windowedChange smooths the signed turn-rate series with a centered
// moving sum of the given odd width, shrinking the window near the ends
// of the series, and returns its magnitude. Summing signed deltas
// telescopes to the arc actually swept across the window: alternating
// GPS jitter cancels while a genuine turn keeps its full magnitude.
func windowedChange(signed []float64, window int) []float64 {
	half := window / 2
	out := make([]float64, len(signed))
	for i := range signed {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half
		if hi > len(signed)-1 {
			hi = len(signed) - 1
		}
		var sum float64
		for j := lo; j <= hi; j++ {
			sum += signed[j]
		}
		out[i] = math.Abs(sum)
	}
	return out
}

// buildManeuver computes the stable before/after geometry for the
// representative point rep using fixed time windows on either side of
// the flagged group, then classifies the result.
func (d *Detector) buildManeuver(points []track.TrackPoint, rep int, g group, windDeg float64) (Maneuver, bool) {
	window := time.Duration(d.cfg.WindowSeconds * float64(time.Second))
	repTime := points[rep].Timestamp

	// Before window: points ahead of the flagged group, within
	// WindowSeconds of the representative. Using the group edge rather
	// than the representative index keeps turn-interior points out of
	// the entry average.
	var beforeBearings, beforeSpeeds []float64
	for i := g.start - 1; i >= 0; i-- {
		if repTime.Sub(points[i].Timestamp) > window {
			break
		}
		beforeBearings = append(beforeBearings, points[i].Bearing)
		beforeSpeeds = append(beforeSpeeds, points[i].Speed)
	}
	var afterBearings, afterSpeeds []float64
	for i := g.end + 1; i < len(points); i++ {
		if points[i].Timestamp.Sub(repTime) > window {
			break
		}
		afterBearings = append(afterBearings, points[i].Bearing)
		afterSpeeds = append(afterSpeeds, points[i].Speed)
	}

	if len(beforeBearings) < d.cfg.MinWindowPoints || len(afterBearings) < d.cfg.MinWindowPoints {
		return Maneuver{}, false
	}

	beforeBearing, ok := geo.CircularMean(beforeBearings, nil)
	if !ok {
		return Maneuver{}, false
	}
	afterBearing, ok := geo.CircularMean(afterBearings, nil)
	if !ok {
		return Maneuver{}, false
	}

	speedBefore := mean(beforeSpeeds)
	speedAfter := mean(afterSpeeds)
	speedRatio := 1.0
	if speedBefore > 0 {
		speedRatio = speedAfter / speedBefore
	}

	m := Maneuver{
		Timestamp:     repTime,
		Lat:           points[rep].Lat,
		Lon:           points[rep].Lon,
		BeforeBearing: beforeBearing,
		AfterBearing:  afterBearing,
		BearingChange: geo.AngleDifference(afterBearing, beforeBearing),
		SpeedBefore:   speedBefore,
		SpeedAfter:    speedAfter,
		SpeedRatio:    speedRatio,
		Duration:      points[g.end].Timestamp.Sub(points[g.start].Timestamp),
		BeforeState:   ClassifyState(beforeBearing, windDeg, d.cfg),
		AfterState:    ClassifyState(afterBearing, windDeg, d.cfg),
	}
	m.Type, m.Confidence = d.classify(m)
	return m, true
}

func mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

// classify assigns a maneuver type and confidence.
//
// A tack needs the tack side to flip, both states upwind-or-reaching, a
// turn magnitude inside the tack band, and a speed drop (tacks cost
// speed). A jibe needs the flip, both states downwind-or-reaching and
// the magnitude band, with no speed requirement. Confidence for either
// is the satisfied fraction of those sub-conditions scaled by 1.2 and
// capped at 1. When the side flips but neither set scores above 0.5 the
// point-of-sail transition decides bear_away or head_up at 0.8, else
// unknown at 0.5. Without a side flip the event is a plain course
// change.
func (d *Detector) classify(m Maneuver) (Type, float64) {
	sideFlipped := m.BeforeState.Side != m.AfterState.Side
	if !sideFlipped {
		return CourseChange, 0.7
	}

	magnitude := math.Abs(m.BearingChange)
	inBand := magnitude >= d.cfg.MinTurnDeg && magnitude <= d.cfg.MaxTurnDeg

	notDownwind := m.BeforeState.PointOfSail != Downwind && m.AfterState.PointOfSail != Downwind
	notUpwind := m.BeforeState.PointOfSail != Upwind && m.AfterState.PointOfSail != Upwind
	speedDropped := m.SpeedAfter < m.SpeedBefore

	tackScore := fraction(notDownwind, inBand, speedDropped)
	jibeScore := fraction(notUpwind, inBand)

	switch {
	case tackScore > 0.5 && tackScore >= jibeScore:
		return Tack, geo.Clamp01(tackScore * 1.2)
	case jibeScore > 0.5:
		return Jibe, geo.Clamp01(jibeScore * 1.2)
	}

	beforeUpwind := m.BeforeState.PointOfSail == Upwind
	afterUpwind := m.AfterState.PointOfSail == Upwind
	switch {
	case beforeUpwind && !afterUpwind:
		return BearAway, 0.8
	case !beforeUpwind && afterUpwind:
		return HeadUp, 0.8
	}
	return Unknown, 0.5
}

func fraction(conds ...bool) float64 {
	if len(conds) == 0 {
		return 0
	}
	n := 0
	for _, c := range conds {
		if c {
			n++
		}
	}
	return float64(n) / float64(len(conds))
}
