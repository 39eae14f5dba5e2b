// Package units provides shared constants and conversion helpers for
// speed units. The analysis core stores speeds in m/s (meters per
// second); display layers convert on the way out and loaders normalise
// on the way in.
package units

// Unit constants
const (
	MPS   = "mps"
	Knots = "kn"
	KMPH  = "kmph"
	KPH   = "kph"
)

// MPSToKnots is the number of knots in 1 m/s.
const MPSToKnots = 1.94384

// ValidUnits contains all valid unit values.
var ValidUnits = []string{MPS, Knots, KMPH, KPH}

// IsValid checks if the given unit is in the list of valid units.
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units
// for error messages.
func GetValidUnitsString() string {
	return "mps, kn, kmph, kph"
}

// ConvertSpeed converts a speed from meters per second to the target units.
func ConvertSpeed(speedMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case MPS:
		return speedMPS
	case Knots:
		return speedMPS * MPSToKnots
	case KMPH, KPH:
		return speedMPS * 3.6
	default:
		return speedMPS
	}
}

// ToMPS converts a speed in the given units to meters per second.
// Loaders use this to normalise GPX/CSV speed columns before the
// preprocessor sees them.
func ToMPS(speed float64, sourceUnits string) float64 {
	switch sourceUnits {
	case MPS:
		return speed
	case Knots:
		return speed / MPSToKnots
	case KMPH, KPH:
		return speed / 3.6
	default:
		return speed
	}
}
