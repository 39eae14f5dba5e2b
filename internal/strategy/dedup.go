package strategy

import (
	"sort"
	"strings"
	"time"
)

// typeClass collapses improvement and deterioration variants so that a
// speed and a VMG improvement in the same moment count as one insight.
func typeClass(t PointType) string {
	s := string(t)
	switch {
	case strings.HasSuffix(s, "_improvement"):
		return "improvement"
	case strings.HasSuffix(s, "_deterioration"):
		return "deterioration"
	default:
		return s
	}
}

// duplicate reports whether two points are near-identical detections:
// within the dedup window and of the same type class.
func (s *Scorer) duplicate(a, b Point) bool {
	dt := a.Timestamp.Sub(b.Timestamp)
	if dt < 0 {
		dt = -dt
	}
	if dt > time.Duration(s.cfg.DedupWindowSeconds*float64(time.Second)) {
		return false
	}
	return typeClass(a.Type) == typeClass(b.Type)
}

// Deduplicate removes near-identical detections, keeping the
// higher-scored of any duplicate pair. Candidates are considered in
// score order and compared only against already-accepted points, so
// the result is independent of input order and never contains a
// duplicate pair. The output is returned in time order.
func (s *Scorer) Deduplicate(points []Point) []Point {
	if len(points) == 0 {
		return nil
	}
	sorted := make([]Point, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	accepted := make([]Point, 0, len(sorted))
	for _, cand := range sorted {
		dup := false
		for _, a := range accepted {
			if s.duplicate(cand, a) {
				dup = true
				break
			}
		}
		if !dup {
			accepted = append(accepted, cand)
		}
	}

	sort.Slice(accepted, func(i, j int) bool {
		return accepted[i].Timestamp.Before(accepted[j].Timestamp)
	})
	return accepted
}
