package wind

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/regatta-data/tackline/internal/geo"
	"github.com/regatta-data/tackline/internal/maneuver"
	"github.com/regatta-data/tackline/internal/track"
)

// EstimateFromManeuvers runs the tack-geometry strategy.
//
// Detected tacks are preferred; when fewer than MinManeuvers tacks
// exist the full maneuver list is used instead. Each maneuver votes for
// a wind direction with a confidence built from its classification
// confidence, its speed-loss proximity to a clean tack, and its turn
// angle's proximity to the canonical tacking angle; votes are combined
// by a confidence- and recency-weighted circular mean. Wind speed is
// the median over maneuvers of the peak surrounding boat speed scaled
// by an empirical point-of-sail coefficient.
//
// Fewer than MinManeuvers usable maneuvers yields an error wrapping
// track.ErrInsufficientData.
func (e *Estimator) EstimateFromManeuvers(maneuvers []maneuver.Maneuver) (Estimate, error) {
	usable := make([]maneuver.Maneuver, 0, len(maneuvers))
	for _, m := range maneuvers {
		if m.Type == maneuver.Tack {
			usable = append(usable, m)
		}
	}
	if len(usable) < e.cfg.MinManeuvers {
		usable = maneuvers
	}
	if len(usable) < e.cfg.MinManeuvers {
		return Estimate{}, fmt.Errorf("tack geometry: %d maneuvers, need %d: %w",
			len(usable), e.cfg.MinManeuvers, track.ErrInsufficientData)
	}

	first := usable[0].Timestamp
	last := usable[len(usable)-1].Timestamp
	span := last.Sub(first).Seconds()

	directions := make([]float64, 0, len(usable))
	weights := make([]float64, 0, len(usable))
	confidences := make([]float64, 0, len(usable))
	speeds := make([]float64, 0, len(usable))

	for _, m := range usable {
		dir, ok := e.maneuverWindDirection(m)
		if !ok {
			continue
		}
		conf := e.maneuverVoteConfidence(m)

		// Later maneuvers reflect the current wind better; weight
		// ramps linearly from 0.5 (oldest) to 1.0 (newest).
		recency := 1.0
		if span > 0 {
			recency = 0.5 + 0.5*m.Timestamp.Sub(first).Seconds()/span
		}

		directions = append(directions, dir)
		weights = append(weights, conf*recency)
		confidences = append(confidences, conf)
		speeds = append(speeds, e.maneuverWindSpeed(m))
	}
	if len(directions) < e.cfg.MinManeuvers {
		return Estimate{}, fmt.Errorf("tack geometry: %d usable votes, need %d: %w",
			len(directions), e.cfg.MinManeuvers, track.ErrInsufficientData)
	}

	direction, ok := geo.CircularMean(directions, weights)
	if !ok {
		return Estimate{}, fmt.Errorf("tack geometry: degenerate vote set: %w", track.ErrInsufficientData)
	}

	sort.Float64s(speeds)
	speed := stat.Quantile(0.5, stat.Empirical, speeds, nil)

	var confSum, weightSum float64
	for i, c := range confidences {
		confSum += c * weights[i]
		weightSum += weights[i]
	}

	return Estimate{
		Direction:  direction,
		Speed:      speed,
		Confidence: geo.Clamp01(confSum / weightSum),
		Method:     MethodTackGeometry,
		Timestamp:  last,
	}, nil
}

// maneuverWindDirection blends two geometric readings of one maneuver:
// the inverted mean of the entry/exit bearings, and the circular mean
// of both legs opened by the close-hauled angle toward the inside of
// the turn.
func (e *Estimator) maneuverWindDirection(m maneuver.Maneuver) (float64, bool) {
	inverted := geo.NormalizeDegrees(geo.MeanBearing(m.BeforeBearing, m.AfterBearing) + 180)

	turnSign := 1.0
	if m.BearingChange < 0 {
		turnSign = -1
	}
	fromBefore := geo.NormalizeDegrees(m.BeforeBearing + turnSign*e.cfg.CloseHauledAngleDeg)
	fromAfter := geo.NormalizeDegrees(m.AfterBearing - turnSign*e.cfg.CloseHauledAngleDeg)
	opened, ok := geo.CircularMean([]float64{fromBefore, fromAfter}, nil)
	if !ok {
		// Opposite legs cancel exactly; the inverted reading still holds.
		opened = inverted
	}

	blended, ok := geo.CircularMean(
		[]float64{inverted, opened},
		[]float64{e.cfg.InvertedMeanWeight, 1 - e.cfg.InvertedMeanWeight},
	)
	return blended, ok
}

// maneuverVoteConfidence scores how much one maneuver's geometry should
// count: 0.5 from its classification confidence, 0.2 from the speed
// ratio's proximity to a clean tack, 0.3 from the turn angle's
// proximity to the canonical tacking angle.
func (e *Estimator) maneuverVoteConfidence(m maneuver.Maneuver) float64 {
	ratioProx := proximity(m.SpeedRatio, e.cfg.ExpectedTackSpeedRatio, 0.3)
	angleProx := proximity(math.Abs(m.BearingChange), e.cfg.CanonicalTackAngleDeg, 45)
	return geo.Clamp01(0.5*m.Confidence + 0.2*ratioProx + 0.3*angleProx)
}

// maneuverWindSpeed guesses the wind speed behind one maneuver from the
// peak boat speed around it, scaled by point of sail.
func (e *Estimator) maneuverWindSpeed(m maneuver.Maneuver) float64 {
	peak := m.SpeedBefore
	if m.SpeedAfter > peak {
		peak = m.SpeedAfter
	}
	coef := e.cfg.DownwindSpeedCoef
	if m.BeforeState.PointOfSail == maneuver.Upwind || m.AfterState.PointOfSail == maneuver.Upwind {
		coef = e.cfg.UpwindSpeedCoef
	}
	return peak * coef
}

// proximity is 1 when v equals target and falls linearly to 0 at
// |v-target| >= scale.
func proximity(v, target, scale float64) float64 {
	return geo.Clamp01(1 - math.Abs(v-target)/scale)
}
