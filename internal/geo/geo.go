// Package geo provides the great-circle and angular math primitives used
// by the track preprocessor and the wind estimator. All bearings and wind
// directions are compass degrees: 0 = north, increasing clockwise,
// normalised to [0,360).
package geo

import "math"

const (
	// EarthRadiusMeters is the mean Earth radius used for haversine distances.
	EarthRadiusMeters = 6371000.0

	degToRad = math.Pi / 180.0
	radToDeg = 180.0 / math.Pi
)

// NormalizeDegrees maps an arbitrary angle onto [0,360).
func NormalizeDegrees(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	return d
}

// AngleDifference returns the shortest signed arc from b to a in degrees.
// The result is in (-180,180]: a 10° turn never reports as 350°.
func AngleDifference(a, b float64) float64 {
	d := math.Mod(a-b, 360)
	if d > 180 {
		d -= 360
	} else if d <= -180 {
		d += 360
	}
	return d
}

// HaversineDistance returns the great-circle distance in meters between
// two latitude/longitude pairs given in degrees.
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * degToRad
	dLon := (lon2 - lon1) * degToRad
	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	a := sinLat*sinLat + math.Cos(lat1*degToRad)*math.Cos(lat2*degToRad)*sinLon*sinLon
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMeters * c
}

// InitialBearing returns the initial great-circle bearing in degrees
// [0,360) from point 1 to point 2.
func InitialBearing(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * degToRad
	lat2Rad := lat2 * degToRad
	dLon := (lon2 - lon1) * degToRad

	y := math.Sin(dLon) * math.Cos(lat2Rad)
	x := math.Cos(lat1Rad)*math.Sin(lat2Rad) - math.Sin(lat1Rad)*math.Cos(lat2Rad)*math.Cos(dLon)
	return NormalizeDegrees(math.Atan2(y, x) * radToDeg)
}

// CircularMean returns the direction of the weighted vector sum of the
// given angles (degrees), normalised to [0,360). Weights may be nil for
// an unweighted mean. The boolean is false when the inputs are empty or
// the weights sum to zero, in which case no mean direction exists.
func CircularMean(degrees, weights []float64) (float64, bool) {
	if len(degrees) == 0 {
		return 0, false
	}
	var sumSin, sumCos, sumW float64
	for i, d := range degrees {
		w := 1.0
		if weights != nil {
			w = weights[i]
		}
		if w <= 0 {
			continue
		}
		rad := d * degToRad
		sumSin += w * math.Sin(rad)
		sumCos += w * math.Cos(rad)
		sumW += w
	}
	if sumW == 0 || (sumSin == 0 && sumCos == 0) {
		return 0, false
	}
	return NormalizeDegrees(math.Atan2(sumSin, sumCos) * radToDeg), true
}

// MeanBearing averages two compass bearings along the shortest arc.
// MeanBearing(350, 10) is 0, not 180.
func MeanBearing(a, b float64) float64 {
	return NormalizeDegrees(a + AngleDifference(b, a)/2)
}

// Clamp01 clamps v to the closed interval [0,1]. Confidence values pass
// through this before leaving any estimator.
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
