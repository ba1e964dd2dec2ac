package sonify

import (
	"errors"
	"fmt"
)

// Error kinds reported by the mapping engine. Callers match them with errors.Is;
// operations wrap them with context via fmt.Errorf("...: %w", ErrX).
var (
	ErrEmptyInput        = errors.New("sonify: empty input")
	ErrMissingColumn     = errors.New("sonify: missing column")
	ErrTypeMismatch      = errors.New("sonify: column has the wrong type")
	ErrUnsupportedOption = errors.New("sonify: unsupported option")
	ErrInvalidPercentile = errors.New("sonify: percentile must be given and within [0, 1]")
	ErrDegenerateFit     = errors.New("sonify: degenerate polynomial fit")
	ErrSizeLimitExceeded = errors.New("sonify: series too long")
	ErrLengthMismatch    = errors.New("sonify: parallel inputs differ in length")
	ErrZeroWeightSum     = errors.New("sonify: weights sum to zero")
	ErrInvalidParameter  = errors.New("sonify: invalid parameter")
)

var kinds = []struct {
	err  error
	kind string
}{
	{ErrEmptyInput, "empty_input"},
	{ErrMissingColumn, "missing_column"},
	{ErrTypeMismatch, "type_mismatch"},
	{ErrUnsupportedOption, "unsupported_option"},
	{ErrInvalidPercentile, "invalid_percentile"},
	{ErrDegenerateFit, "degenerate_fit"},
	{ErrSizeLimitExceeded, "size_limit_exceeded"},
	{ErrLengthMismatch, "length_mismatch"},
	{ErrZeroWeightSum, "zero_weight_sum"},
	{ErrInvalidParameter, "invalid_parameter"},
}

// KindOf returns the snake_case kind of a mapping engine error, or "" when err
// does not wrap one of the package sentinels.
func KindOf(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return ""
}

// IsInputError reports whether err is one of the deterministic validation or
// numerical failures of the mapping engine.
func IsInputError(err error) bool {
	return KindOf(err) != ""
}

// Unsupported wraps ErrUnsupportedOption for an option outside its closed enumeration.
func Unsupported(what string, value any) error {
	return fmt.Errorf("%w: %s %q", ErrUnsupportedOption, what, fmt.Sprint(value))
}
