// Package loader turns GPX and CSV files into the raw sample sequence
// consumed by the track preprocessor. It owns timestamp parsing,
// missing-column detection and speed unit normalisation; the analysis
// core downstream assumes m/s throughout.
package loader

import (
	"encoding/xml"
	"fmt"
	"io"
	"time"

	"github.com/regatta-data/tackline/internal/track"
)

// gpx mirrors the subset of the GPX 1.1 schema we consume.
type gpx struct {
	XMLName xml.Name `xml:"gpx"`
	Creator string   `xml:"creator,attr"`
	Trks    []trk    `xml:"trk"`
}

type trk struct {
	Name    string   `xml:"name"`
	Trksegs []trkseg `xml:"trkseg"`
}

type trkseg struct {
	Trkpts []trkpt `xml:"trkpt"`
}

type trkpt struct {
	Lat        float64     `xml:"lat,attr"`
	Lon        float64     `xml:"lon,attr"`
	Time       time.Time   `xml:"time"`
	Extensions *extensions `xml:"extensions"`
}

// extensions carries the Garmin trackpoint extension used by Garmin and
// Amazfit devices; speed arrives in m/s, course in degrees.
type extensions struct {
	TrackPointExtension *trackPointExtension `xml:"TrackPointExtension"`
}

type trackPointExtension struct {
	Speed  *float64 `xml:"speed"`
	Course *float64 `xml:"course"`
}

// ReadGPX parses every track segment in the reader into one flat sample
// sequence. Points without a timestamp are a validation error: the
// preprocessor cannot derive speed without time.
func ReadGPX(r io.Reader) ([]track.RawSample, error) {
	var doc gpx
	dec := xml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("gpx: %w", err)
	}

	var samples []track.RawSample
	for _, t := range doc.Trks {
		for _, seg := range t.Trksegs {
			for i, p := range seg.Trkpts {
				if p.Time.IsZero() {
					return nil, &track.ValidationError{
						Field:  "time",
						Index:  i,
						Reason: "trackpoint has no timestamp",
					}
				}
				s := track.RawSample{
					Timestamp: p.Time,
					Lat:       p.Lat,
					Lon:       p.Lon,
				}
				if p.Extensions != nil && p.Extensions.TrackPointExtension != nil {
					ext := p.Extensions.TrackPointExtension
					s.Speed = ext.Speed
					s.Course = ext.Course
				}
				samples = append(samples, s)
			}
		}
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("gpx: file contains no trackpoints: %w", track.ErrInsufficientData)
	}
	return samples, nil
}
