package wind

import (
	"fmt"
	"math"

	"github.com/regatta-data/tackline/internal/geo"
	"github.com/regatta-data/tackline/internal/track"
)

// bucket aggregates track points whose bearing falls in one fixed slice
// of the compass.
type bucket struct {
	centerDeg float64
	meanSpeed float64
	count     int
}

// EstimateFromVMG runs the velocity-made-good symmetry strategy.
//
// Track points are binned into fixed bearing buckets and candidate wind
// directions are swept over the compass. A boat's polar performance is
// mirror-symmetric about the wind axis, so under the correct candidate
// the VMG of a bucket and of its mirror image across that axis agree;
// the candidate with the smallest mirrored-VMG mismatch wins. Because a
// reflection axis cannot tell wind from anti-wind on its own, the
// winner is flipped 180° when the buckets it calls upwind are faster
// than the ones it calls downwind.
//
// Wind speed is scaled from the spread between the fastest and slowest
// bucket. Coverage below MinPopulatedBuckets yields an error wrapping
// track.ErrInsufficientData.
func (e *Estimator) EstimateFromVMG(points []track.TrackPoint) (Estimate, error) {
	buckets, populated := e.binByBearing(points)
	total := len(buckets)
	if populated < e.cfg.MinPopulatedBuckets {
		return Estimate{}, fmt.Errorf("vmg symmetry: %d/%d bearing buckets populated, need %d: %w",
			populated, total, e.cfg.MinPopulatedBuckets, track.ErrInsufficientData)
	}

	bestScore := -1.0
	bestDir := 0.0
	for cand := 0.0; cand < 360; cand += e.cfg.SweepStepDeg {
		score, ok := e.symmetryScore(buckets, cand)
		if !ok {
			continue
		}
		if score > bestScore {
			bestScore = score
			bestDir = cand
		}
	}
	if bestScore < 0 {
		return Estimate{}, fmt.Errorf("vmg symmetry: no candidate had mirrored coverage: %w",
			track.ErrInsufficientData)
	}

	if e.upwindFaster(buckets, bestDir) {
		bestDir = geo.NormalizeDegrees(bestDir + 180)
	}

	minSpeed := math.Inf(1)
	maxSpeed := math.Inf(-1)
	for _, b := range buckets {
		if b.count == 0 {
			continue
		}
		if b.meanSpeed < minSpeed {
			minSpeed = b.meanSpeed
		}
		if b.meanSpeed > maxSpeed {
			maxSpeed = b.meanSpeed
		}
	}

	coverage := float64(populated) / float64(total)
	est := Estimate{
		Direction:  bestDir,
		Speed:      (maxSpeed - minSpeed) * e.cfg.SpeedSpreadFactor,
		Confidence: geo.Clamp01(bestScore * (0.4 + 0.6*coverage)),
		Method:     MethodVMGSymmetry,
		Timestamp:  points[len(points)-1].Timestamp,
	}
	return est, nil
}

// binByBearing averages point speeds into fixed bearing buckets,
// zeroing buckets thinner than MinBucketPoints. Returns the bucket
// slice and the populated count.
func (e *Estimator) binByBearing(points []track.TrackPoint) ([]bucket, int) {
	n := int(math.Round(360 / e.cfg.BucketSizeDeg))
	buckets := make([]bucket, n)
	counts := make([]int, n)
	sums := make([]float64, n)
	for _, p := range points {
		idx := int(geo.NormalizeDegrees(p.Bearing)/e.cfg.BucketSizeDeg) % n
		counts[idx]++
		sums[idx] += p.Speed
	}
	populated := 0
	for i := range buckets {
		buckets[i].centerDeg = (float64(i) + 0.5) * e.cfg.BucketSizeDeg
		if counts[i] < e.cfg.MinBucketPoints {
			continue
		}
		buckets[i].count = counts[i]
		buckets[i].meanSpeed = sums[i] / float64(counts[i])
		populated++
	}
	return buckets, populated
}

// symmetryScore rates candidate wind direction cand by how well each
// populated bucket's VMG matches that of its mirror bucket across the
// wind axis. Higher is better; ok is false when fewer than two mirror
// pairs exist.
func (e *Estimator) symmetryScore(buckets []bucket, cand float64) (float64, bool) {
	n := len(buckets)
	var mismatch float64
	pairs := 0
	for i, b := range buckets {
		if b.count == 0 {
			continue
		}
		mirrorDeg := geo.NormalizeDegrees(2*cand - b.centerDeg)
		j := int(mirrorDeg/e.cfg.BucketSizeDeg) % n
		if j <= i || buckets[j].count == 0 {
			continue
		}
		rel := geo.AngleDifference(b.centerDeg, cand) * math.Pi / 180
		mirrorRel := geo.AngleDifference(buckets[j].centerDeg, cand) * math.Pi / 180
		vmg := b.meanSpeed * math.Cos(rel)
		mirrorVMG := buckets[j].meanSpeed * math.Cos(mirrorRel)
		mismatch += math.Abs(vmg - mirrorVMG)
		pairs++
	}
	if pairs < 2 {
		return 0, false
	}
	return 1 / (1 + mismatch/float64(pairs)), true
}

// upwindFaster reports whether the buckets within 90° of cand are on
// average faster than the ones beyond. Real boats make more speed off
// the wind, so a true wind direction should answer false.
func (e *Estimator) upwindFaster(buckets []bucket, cand float64) bool {
	var upSum, downSum float64
	var upN, downN int
	for _, b := range buckets {
		if b.count == 0 {
			continue
		}
		rel := math.Abs(geo.AngleDifference(b.centerDeg, cand))
		if rel < 90 {
			upSum += b.meanSpeed
			upN++
		} else {
			downSum += b.meanSpeed
			downN++
		}
	}
	if upN == 0 || downN == 0 {
		return false
	}
	return upSum/float64(upN) > downSum/float64(downN)
}
