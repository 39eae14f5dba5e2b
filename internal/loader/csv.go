package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/regatta-data/tackline/internal/track"
	"github.com/regatta-data/tackline/internal/units"
)

// CSVOptions controls CSV parsing. The zero value expects speeds in m/s.
type CSVOptions struct {
	// SpeedUnits is the unit of an optional speed column (see package
	// units); values are normalised to m/s. Empty means m/s.
	SpeedUnits string
}

// Required and optional CSV column names, matched case-insensitively.
const (
	colTimestamp = "timestamp"
	colLat       = "lat"
	colLon       = "lon"
	colSpeed     = "speed"
	colCourse    = "course"
)

// ReadCSV parses a headered CSV of track samples. The header must name
// timestamp, lat and lon; speed and course columns are optional.
// Timestamps parse as RFC 3339 or as integer Unix seconds. A missing
// required column or an unparsable cell is a validation error with the
// offending row.
func ReadCSV(r io.Reader, opts CSVOptions) ([]track.RawSample, error) {
	if opts.SpeedUnits != "" && !units.IsValid(opts.SpeedUnits) {
		return nil, fmt.Errorf("csv: unknown speed units %q (valid: %s)",
			opts.SpeedUnits, units.GetValidUnitsString())
	}

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("csv: reading header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{colTimestamp, colLat, colLon} {
		if _, ok := cols[required]; !ok {
			return nil, &track.ValidationError{
				Field:  required,
				Index:  -1,
				Reason: "required column missing from header",
			}
		}
	}
	speedIdx, hasSpeed := cols[colSpeed]
	courseIdx, hasCourse := cols[colCourse]

	var samples []track.RawSample
	row := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: row %d: %w", row+1, err)
		}
		row++

		ts, err := parseTimestamp(record[cols[colTimestamp]])
		if err != nil {
			return nil, &track.ValidationError{Field: colTimestamp, Index: row, Reason: err.Error()}
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(record[cols[colLat]]), 64)
		if err != nil {
			return nil, &track.ValidationError{Field: colLat, Index: row, Reason: err.Error()}
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(record[cols[colLon]]), 64)
		if err != nil {
			return nil, &track.ValidationError{Field: colLon, Index: row, Reason: err.Error()}
		}

		s := track.RawSample{Timestamp: ts, Lat: lat, Lon: lon}
		if hasSpeed {
			if cell := strings.TrimSpace(record[speedIdx]); cell != "" {
				v, err := strconv.ParseFloat(cell, 64)
				if err != nil {
					return nil, &track.ValidationError{Field: colSpeed, Index: row, Reason: err.Error()}
				}
				mps := v
				if opts.SpeedUnits != "" {
					mps = units.ToMPS(v, opts.SpeedUnits)
				}
				s.Speed = &mps
			}
		}
		if hasCourse {
			if cell := strings.TrimSpace(record[courseIdx]); cell != "" {
				v, err := strconv.ParseFloat(cell, 64)
				if err != nil {
					return nil, &track.ValidationError{Field: colCourse, Index: row, Reason: err.Error()}
				}
				s.Course = &v
			}
		}
		samples = append(samples, s)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("csv: file contains no data rows: %w", track.ErrInsufficientData)
	}
	return samples, nil
}

func parseTimestamp(cell string) (time.Time, error) {
	cell = strings.TrimSpace(cell)
	if ts, err := time.Parse(time.RFC3339, cell); err == nil {
		return ts, nil
	}
	if secs, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("timestamp %q is neither RFC 3339 nor unix seconds", cell)
}
