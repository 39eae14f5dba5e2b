// Package analysis wires the preprocessor, maneuver detector, wind
// estimator and strategic scorer into a single pass over one track,
// memoizing results per track fingerprint.
package analysis

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	"time"

	"github.com/regatta-data/tackline/internal/geo"
	"github.com/regatta-data/tackline/internal/maneuver"
	"github.com/regatta-data/tackline/internal/memo"
	"github.com/regatta-data/tackline/internal/monitoring"
	"github.com/regatta-data/tackline/internal/strategy"
	"github.com/regatta-data/tackline/internal/track"
	"github.com/regatta-data/tackline/internal/wind"
)

// Config bundles the tunables of every stage plus the cache bounds.
type Config struct {
	Detector maneuver.Config
	Wind     wind.Config
	Scorer   strategy.Config

	// CacheSize bounds the per-analyzer result cache; CacheTTL expires
	// entries. Zero TTL keeps results for the analyzer's lifetime.
	CacheSize int
	CacheTTL  time.Duration
}

// DefaultConfig returns defaults for the full pipeline.
func DefaultConfig() Config {
	return Config{
		Detector:  maneuver.DefaultConfig(),
		Wind:      wind.DefaultConfig(),
		Scorer:    strategy.DefaultConfig(),
		CacheSize: 64,
		CacheTTL:  0,
	}
}

// Result is everything one analysis pass produces for a track.
type Result struct {
	Maneuvers       []maneuver.Maneuver
	Wind            wind.Estimate
	StrategicPoints []strategy.Point
	Summary         Summary
}

// Analyzer is a reusable, deterministic pipeline over preprocessed
// tracks. Construct one per configuration; it is safe for sequential
// reuse across tracks, and the injected cache serialises its own
// access.
type Analyzer struct {
	detector  *maneuver.Detector
	estimator *wind.Estimator
	scorer    *strategy.Scorer
	cache     *memo.Cache
	fixedWind *float64
}

// Option configures an Analyzer at construction time.
type Option func(*Analyzer)

// WithCache injects a shared result cache. Without it the analyzer
// builds a private cache from the config bounds.
func WithCache(c *memo.Cache) Option {
	return func(a *Analyzer) { a.cache = c }
}

// WithFixedWind labels sailing states against an externally supplied
// wind direction (degrees) instead of deriving a provisional one. The
// wind estimate itself is still computed from the track.
func WithFixedWind(deg float64) Option {
	return func(a *Analyzer) {
		d := geo.NormalizeDegrees(deg)
		a.fixedWind = &d
	}
}

// New validates cfg and builds the pipeline.
func New(cfg Config, opts ...Option) (*Analyzer, error) {
	det, err := maneuver.NewDetector(cfg.Detector)
	if err != nil {
		return nil, err
	}
	est, err := wind.NewEstimator(cfg.Wind)
	if err != nil {
		return nil, err
	}
	sc, err := strategy.NewScorer(cfg.Scorer)
	if err != nil {
		return nil, err
	}
	a := &Analyzer{detector: det, estimator: est, scorer: sc}
	for _, opt := range opts {
		opt(a)
	}
	if a.cache == nil {
		a.cache = memo.New("analysis", cfg.CacheSize, cfg.CacheTTL)
	}
	return a, nil
}

// CacheStats exposes the analyzer cache counters.
func (a *Analyzer) CacheStats() memo.Stats { return a.cache.Stats() }

// AnalyzeSamples preprocesses raw samples and analyzes the result.
func (a *Analyzer) AnalyzeSamples(samples []track.RawSample) (Result, error) {
	points, err := track.Preprocess(samples)
	if err != nil {
		return Result{}, err
	}
	return a.Analyze(points)
}

// Analyze runs the strictly forward pipeline: maneuvers from the
// bearing-change series, wind from maneuver geometry and VMG symmetry,
// scored strategic points last. Maneuver sailing states are labelled
// against an independently derived provisional wind, so the wind
// estimate consumes maneuvers without feeding back into them.
//
// Identical inputs hit the result cache. An unexpected internal panic
// is logged with context and converted into a fallback-wind result; an
// explicit error is returned only for inputs the preprocessor already
// rejected.
func (a *Analyzer) Analyze(points []track.TrackPoint) (Result, error) {
	if len(points) < 2 {
		return Result{}, fmt.Errorf("analyze: need at least 2 points, got %d: %w",
			len(points), track.ErrInsufficientData)
	}

	windMode := "auto"
	if a.fixedWind != nil {
		windMode = fmt.Sprintf("%.1f", *a.fixedWind)
	}
	key := memo.Key("analyze", fingerprint(points), windMode)
	if cached, ok := a.cache.Get(key); ok {
		return cached.(Result), nil
	}

	res := a.analyze(points)
	a.cache.Put(key, res)
	return res, nil
}

func (a *Analyzer) analyze(points []track.TrackPoint) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			monitoring.Logf("analysis: internal failure on %d-point track starting %s: %v; substituting fallback estimate",
				len(points), points[0].Timestamp.Format(time.RFC3339), r)
			res = Result{
				Wind:    a.estimator.Fallback(points[len(points)-1].Timestamp),
				Summary: Summarize(points, nil),
			}
		}
	}()

	provisional := a.provisionalWind(points)
	maneuvers := a.detector.Detect(points, provisional)

	est, err := a.estimator.EstimateTrack(points, maneuvers)
	if err != nil {
		monitoring.Debugf("analysis: wind estimate unavailable (%v); using fallback", err)
		est = a.estimator.Fallback(points[len(points)-1].Timestamp)
	}

	return Result{
		Maneuvers:       maneuvers,
		Wind:            est,
		StrategicPoints: a.scorer.Score(points, maneuvers, est),
		Summary:         Summarize(points, maneuvers),
	}
}

// provisionalWind derives the wind direction used for sailing-state
// labelling without consulting the maneuver list: the VMG strategy when
// it has coverage, otherwise the circular mean of all bearings (a
// beating session points on average at the wind). The later full
// estimate does not flow back into detection.
func (a *Analyzer) provisionalWind(points []track.TrackPoint) float64 {
	if a.fixedWind != nil {
		return *a.fixedWind
	}
	if est, err := a.estimator.EstimateFromVMG(points); err == nil {
		return est.Direction
	}
	bearings := make([]float64, len(points))
	for i, p := range points {
		bearings[i] = p.Bearing
	}
	if mean, ok := geo.CircularMean(bearings, nil); ok {
		return mean
	}
	return 0
}

// fingerprint hashes the full point sequence so that cache keys only
// collide for byte-identical tracks.
func fingerprint(points []track.TrackPoint) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	write := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
	write(uint64(len(points)))
	for _, p := range points {
		write(uint64(p.Timestamp.UnixNano()))
		write(math.Float64bits(p.Lat))
		write(math.Float64bits(p.Lon))
		write(math.Float64bits(p.Bearing))
		write(math.Float64bits(p.Speed))
	}
	return h.Sum64()
}
