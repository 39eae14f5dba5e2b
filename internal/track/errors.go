package track

import (
	"errors"
	"fmt"
)

// ErrInsufficientData marks expected "not enough input" conditions: too
// few points, too few maneuvers, too few populated bearing bins. These
// are frequent with short or non-tacking tracks, so callers branch on
// errors.Is rather than treating them as failures.
var ErrInsufficientData = errors.New("insufficient data")

// ValidationError reports malformed input at the preprocessor or loader
// boundary: missing required columns, unparsable or non-monotonic
// timestamps. No partial result accompanies it.
type ValidationError struct {
	Field  string // offending column or field
	Index  int    // sample index, -1 when not positional
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("invalid input: %s at sample %d: %s", e.Field, e.Index, e.Reason)
	}
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
