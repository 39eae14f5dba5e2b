// Package report renders analysis results for human review: an HTML
// page of interactive charts and a polar performance diagram. It is a
// thin consumer of the analysis output and owns no inference logic.
package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/regatta-data/tackline/internal/analysis"
	"github.com/regatta-data/tackline/internal/track"
	"github.com/regatta-data/tackline/internal/units"
)

// WriteHTML renders the session report: the track as a position scatter
// coloured by boat speed, strategic points overlaid and sized by score,
// and the speed trace over time.
func WriteHTML(w io.Writer, title string, points []track.TrackPoint, res analysis.Result) error {
	page := components.NewPage()
	page.AddCharts(trackChart(title, points, res), speedChart(points))
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

func trackChart(title string, points []track.TrackPoint, res analysis.Result) *charts.Scatter {
	trackData := make([]opts.ScatterData, 0, len(points))
	maxSpeed := 0.0
	for _, p := range points {
		kts := units.ConvertSpeed(p.Speed, units.Knots)
		if kts > maxSpeed {
			maxSpeed = kts
		}
		trackData = append(trackData, opts.ScatterData{
			Value:      []interface{}{p.Lon, p.Lat, kts},
			SymbolSize: 4,
		})
	}
	if maxSpeed == 0 {
		maxSpeed = 1
	}

	eventData := make([]opts.ScatterData, 0, len(res.StrategicPoints))
	for _, sp := range res.StrategicPoints {
		eventData = append(eventData, opts.ScatterData{
			Value:      []interface{}{sp.Lon, sp.Lat, maxSpeed},
			Symbol:     "triangle",
			SymbolSize: 6 + int(sp.Score),
			Name:       string(sp.Type),
		})
	}

	subtitle := fmt.Sprintf("wind %s %.0f° %.1f kn (confidence %.2f)",
		res.Wind.Method, res.Wind.Direction,
		units.ConvertSpeed(res.Wind.Speed, units.Knots), res.Wind.Confidence)

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: title, Width: "900px", Height: "900px",
		}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "longitude", Scale: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "latitude", Scale: opts.Bool(true)}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxSpeed),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: []string{"#31688e", "#35b779", "#fde725"}},
		}),
	)
	scatter.AddSeries("track", trackData)
	scatter.AddSeries("events", eventData)
	return scatter
}

func speedChart(points []track.TrackPoint) *charts.Line {
	xs := make([]string, 0, len(points))
	ys := make([]opts.LineData, 0, len(points))
	for _, p := range points {
		xs = append(xs, p.Timestamp.Format("15:04:05"))
		ys = append(ys, opts.LineData{Value: units.ConvertSpeed(p.Speed, units.Knots)})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Boat speed"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "kn"}),
	)
	line.SetXAxis(xs).AddSeries("speed", ys)
	return line
}
