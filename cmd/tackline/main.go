// Command tackline analyzes sailing GPS tracks: it detects maneuvers,
// infers the ambient wind from the sailed angles, and scores the
// tactically significant moments of each session.
//
// Usage:
//
//	tackline [flags] track.gpx [track2.csv ...]
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/regatta-data/tackline/internal/analysis"
	"github.com/regatta-data/tackline/internal/loader"
	"github.com/regatta-data/tackline/internal/maneuver"
	"github.com/regatta-data/tackline/internal/monitoring"
	"github.com/regatta-data/tackline/internal/report"
	"github.com/regatta-data/tackline/internal/sessiondb"
	"github.com/regatta-data/tackline/internal/track"
	"github.com/regatta-data/tackline/internal/units"
	"github.com/regatta-data/tackline/internal/version"
)

var (
	configPath  = flag.String("config", "", "JSON config overrides (see analysis.Overrides)")
	dbPath      = flag.String("db", "", "SQLite file to store results in (created if missing)")
	htmlDir     = flag.String("html", "", "directory to write per-track HTML reports into")
	polarDir    = flag.String("polar", "", "directory to write per-track polar diagrams (PNG) into")
	outUnits    = flag.String("units", units.Knots, "output speed units: "+units.GetValidUnitsString())
	csvSpeed    = flag.String("csv-speed-units", units.MPS, "units of the CSV speed column, if present")
	fixedWind   = flag.Float64("wind", math.NaN(), "known wind direction in degrees; skips provisional estimation for state labelling")
	concurrency = flag.Int("jobs", 4, "number of tracks analyzed concurrently")
	verbose     = flag.Bool("v", false, "verbose diagnostics")
	showVersion = flag.Bool("version", false, "print version and exit")
)

type trackResult struct {
	file   string
	points []track.TrackPoint
	res    analysis.Result
}

func main() {
	flag.Parse()
	if *showVersion {
		fmt.Println(version.String())
		return
	}
	monitoring.SetDebug(*verbose)

	files := flag.Args()
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "usage: tackline [flags] track.gpx [track2.csv ...]")
		flag.PrintDefaults()
		os.Exit(2)
	}
	if !units.IsValid(*outUnits) {
		log.Fatalf("unknown -units %q (valid: %s)", *outUnits, units.GetValidUnitsString())
	}

	cfg := analysis.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = analysis.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("loading config: %v", err)
		}
	}

	var opts []analysis.Option
	if !math.IsNaN(*fixedWind) {
		opts = append(opts, analysis.WithFixedWind(*fixedWind))
	}
	analyzer, err := analysis.New(cfg, opts...)
	if err != nil {
		log.Fatalf("building analyzer: %v", err)
	}

	var db *sessiondb.DB
	if *dbPath != "" {
		db, err = sessiondb.Open(*dbPath)
		if err != nil {
			log.Fatalf("opening database: %v", err)
		}
		defer db.Close()
	}

	var mu sync.Mutex
	var results []trackResult

	var g errgroup.Group
	g.SetLimit(*concurrency)
	for _, file := range files {
		g.Go(func() error {
			tr, err := analyzeFile(analyzer, file)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			mu.Lock()
			results = append(results, tr)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].file < results[j].file })

	for _, tr := range results {
		printResult(tr)
		if db != nil {
			id, err := db.SaveResult(filepath.Base(tr.file), tr.points[0].Timestamp, tr.res)
			if err != nil {
				log.Fatalf("%s: storing session: %v", tr.file, err)
			}
			fmt.Printf("  stored as session %s\n", id)
		}
		if *htmlDir != "" {
			if err := writeHTMLReport(tr); err != nil {
				log.Fatalf("%s: %v", tr.file, err)
			}
		}
		if *polarDir != "" {
			out := filepath.Join(*polarDir, baseName(tr.file)+"_polar.png")
			err := report.SavePolarDiagram(out, baseName(tr.file), tr.points, tr.res.Wind)
			if err != nil {
				log.Printf("%s: %v", tr.file, err)
			}
		}
	}
	if *verbose {
		stats := analyzer.CacheStats()
		monitoring.Logf("cache %s: %d hits, %d misses, %d entries",
			stats.Name, stats.Hits, stats.Misses, stats.Size)
	}
}

func analyzeFile(analyzer *analysis.Analyzer, file string) (trackResult, error) {
	f, err := os.Open(file)
	if err != nil {
		return trackResult{}, err
	}
	defer f.Close()

	var samples []track.RawSample
	switch strings.ToLower(filepath.Ext(file)) {
	case ".gpx":
		samples, err = loader.ReadGPX(f)
	case ".csv":
		samples, err = loader.ReadCSV(f, loader.CSVOptions{SpeedUnits: *csvSpeed})
	default:
		return trackResult{}, fmt.Errorf("unsupported file type %q (want .gpx or .csv)", filepath.Ext(file))
	}
	if err != nil {
		return trackResult{}, err
	}

	points, err := track.Preprocess(samples)
	if err != nil {
		return trackResult{}, err
	}
	res, err := analyzer.Analyze(points)
	if err != nil {
		return trackResult{}, err
	}
	return trackResult{file: file, points: points, res: res}, nil
}

func printResult(tr trackResult) {
	s := tr.res.Summary
	speed := func(mps float64) string {
		return fmt.Sprintf("%.1f %s", units.ConvertSpeed(mps, *outUnits), *outUnits)
	}

	fmt.Printf("%s: %d points, %.1f km in %s (avg %s, max %s)\n",
		tr.file, s.Points, s.DistanceMeters/1000, s.Duration.Round(time.Second),
		speed(s.AvgSpeed), speed(s.MaxSpeed))

	w := tr.res.Wind
	fmt.Printf("  wind: %.0f° at %s (method %s, confidence %.2f)\n",
		w.Direction, speed(w.Speed), w.Method, w.Confidence)

	if len(tr.res.Maneuvers) > 0 {
		fmt.Printf("  maneuvers:%s\n", formatManeuverCounts(s.ManeuverCounts))
		if s.MeanTackingAngle > 0 {
			fmt.Printf("  mean tacking angle: %.0f°\n", s.MeanTackingAngle)
		}
	}

	for _, sp := range tr.res.StrategicPoints {
		fmt.Printf("  %s  %-20s score %.1f\n",
			sp.Timestamp.Format("15:04:05"), sp.Type, sp.Score)
	}
}

// formatManeuverCounts renders counts in type order so repeated runs
// print identically.
func formatManeuverCounts(counts map[maneuver.Type]int) string {
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, string(t))
	}
	sort.Strings(types)

	var b strings.Builder
	for _, t := range types {
		fmt.Fprintf(&b, " %d %s", counts[maneuver.Type(t)], t)
	}
	return b.String()
}

func writeHTMLReport(tr trackResult) error {
	out := filepath.Join(*htmlDir, baseName(tr.file)+".html")
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := report.WriteHTML(f, baseName(tr.file), tr.points, tr.res); err != nil {
		return err
	}
	fmt.Printf("  report written to %s\n", out)
	return nil
}

func baseName(file string) string {
	return strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
}
