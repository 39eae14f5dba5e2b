package wind

import (
	"errors"
	"fmt"

	"github.com/regatta-data/tackline/internal/geo"
	"github.com/regatta-data/tackline/internal/maneuver"
	"github.com/regatta-data/tackline/internal/track"
)

// Fuse combines independent estimates into one: direction by
// confidence-weighted circular mean, speed and confidence by
// confidence-weighted arithmetic means. The fused timestamp is the
// latest input timestamp.
//
// An empty input, or one whose confidences sum to zero, yields an error
// wrapping track.ErrInsufficientData.
func Fuse(estimates []Estimate) (Estimate, error) {
	if len(estimates) == 0 {
		return Estimate{}, fmt.Errorf("fuse: no estimates: %w", track.ErrInsufficientData)
	}
	if len(estimates) == 1 {
		return estimates[0], nil
	}

	directions := make([]float64, len(estimates))
	weights := make([]float64, len(estimates))
	for i, est := range estimates {
		directions[i] = est.Direction
		weights[i] = est.Confidence
	}
	direction, ok := geo.CircularMean(directions, weights)
	if !ok {
		return Estimate{}, fmt.Errorf("fuse: zero total confidence: %w", track.ErrInsufficientData)
	}

	var speedSum, confSum, weightSum float64
	fused := Estimate{Method: MethodFused, Direction: direction}
	for i, est := range estimates {
		speedSum += est.Speed * weights[i]
		confSum += est.Confidence * weights[i]
		weightSum += weights[i]
		if est.Timestamp.After(fused.Timestamp) {
			fused.Timestamp = est.Timestamp
		}
	}
	fused.Speed = speedSum / weightSum
	fused.Confidence = geo.Clamp01(confSum / weightSum)
	return fused, nil
}

// EstimateTrack runs both strategies over a track and its maneuvers
// and fuses whatever succeeds. When neither strategy has enough data
// the error wraps track.ErrInsufficientData and the caller substitutes
// Fallback; a fabricated number is never returned.
func (e *Estimator) EstimateTrack(points []track.TrackPoint, maneuvers []maneuver.Maneuver) (Estimate, error) {
	var produced []Estimate

	fromTacks, tackErr := e.EstimateFromManeuvers(maneuvers)
	if tackErr == nil {
		produced = append(produced, fromTacks)
	} else if !errors.Is(tackErr, track.ErrInsufficientData) {
		return Estimate{}, tackErr
	}

	fromVMG, vmgErr := e.EstimateFromVMG(points)
	if vmgErr == nil {
		produced = append(produced, fromVMG)
	} else if !errors.Is(vmgErr, track.ErrInsufficientData) {
		return Estimate{}, vmgErr
	}

	if len(produced) == 0 {
		return Estimate{}, fmt.Errorf("wind estimate: no strategy had enough data (tacks: %v; vmg: %v): %w",
			tackErr, vmgErr, track.ErrInsufficientData)
	}
	return Fuse(produced)
}
