package report

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/regatta-data/tackline/internal/geo"
	"github.com/regatta-data/tackline/internal/track"
	"github.com/regatta-data/tackline/internal/units"
	"github.com/regatta-data/tackline/internal/wind"
)

// polarBucketDeg is the angular resolution of the polar diagram.
const polarBucketDeg = 5.0

// SavePolarDiagram writes a PNG polar performance curve: mean boat
// speed (knots) by absolute true wind angle, projected so the wind
// blows down the page. Port and starboard observations fold onto one
// curve. Tracks whose wind estimate is the fallback have no meaningful
// wind axis and are rejected.
func SavePolarDiagram(path, title string, points []track.TrackPoint, est wind.Estimate) error {
	if est.Method == wind.MethodFallback {
		return fmt.Errorf("polar diagram: wind estimate is the fallback, no wind axis to plot against")
	}

	n := int(180/polarBucketDeg) + 1
	sums := make([]float64, n)
	counts := make([]int, n)
	for _, p := range points {
		rel := math.Abs(geo.AngleDifference(est.Direction, p.Bearing))
		idx := int(rel / polarBucketDeg)
		if idx >= n {
			idx = n - 1
		}
		sums[idx] += p.Speed
		counts[idx]++
	}

	var curve plotter.XYs
	for i := 0; i < n; i++ {
		if counts[i] == 0 {
			continue
		}
		angle := (float64(i) + 0.5) * polarBucketDeg * math.Pi / 180
		speed := units.ConvertSpeed(sums[i]/float64(counts[i]), units.Knots)
		// Wind from the top of the page: 0° TWA points up.
		curve = append(curve, plotter.XY{
			X: speed * math.Sin(angle),
			Y: speed * math.Cos(angle),
		})
	}
	if len(curve) < 2 {
		return fmt.Errorf("polar diagram: only %d populated angle buckets", len(curve))
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "boat speed (kn)"
	p.Y.Label.Text = "boat speed (kn)"

	line, err := plotter.NewLine(curve)
	if err != nil {
		return fmt.Errorf("polar diagram: %w", err)
	}
	pts, err := plotter.NewScatter(curve)
	if err != nil {
		return fmt.Errorf("polar diagram: %w", err)
	}
	p.Add(plotter.NewGrid(), line, pts)

	if err := p.Save(6*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("polar diagram: saving %s: %w", path, err)
	}
	return nil
}
