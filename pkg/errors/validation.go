package errors

import "math"

// ValidatePositive checks that a named geometry value is finite and strictly
// positive. Used for eager construction-time validation of engine options
// (column width, gaps, sector cap); these indicate programmer error, not
// runtime data issues, so the resulting error should be treated as fatal.
func ValidatePositive(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return New(ErrCodeInvalidConfig, "%s must be finite, got %v", name, v)
	}
	if v <= 0 {
		return New(ErrCodeInvalidConfig, "%s must be positive, got %v", name, v)
	}
	return nil
}

// ValidateNonNegative checks that a named value is finite and not negative.
// Overscan margins may legitimately be zero.
func ValidateNonNegative(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return New(ErrCodeInvalidConfig, "%s must be finite, got %v", name, v)
	}
	if v < 0 {
		return New(ErrCodeInvalidConfig, "%s must not be negative, got %v", name, v)
	}
	return nil
}

// ValidDimensions reports whether a natural width/height pair can be used
// for height scaling. Non-finite or non-positive dimensions are expected to
// occasionally occur with malformed upstream data; callers log and skip
// rather than abort.
func ValidDimensions(width, height float64) bool {
	if math.IsNaN(width) || math.IsInf(width, 0) || width <= 0 {
		return false
	}
	if math.IsNaN(height) || math.IsInf(height, 0) || height <= 0 {
		return false
	}
	return true
}
