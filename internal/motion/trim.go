package motion

import (
	"fmt"
	"strings"
)

const (
	// TrimLiteral strips every trailing '0' character, so "10" becomes "1".
	// This is byte-for-byte what existing gcsv files from R3D clips contain.
	TrimLiteral TrimMode = "literal"

	// TrimDecimal only strips zeros after a decimal point, then a dangling point
	TrimDecimal TrimMode = "decimal"
)

// TrimMode selects how redundant trailing zeros are removed from channel values
type TrimMode string

func (m TrimMode) String() string {
	return string(m)
}

func (m TrimMode) Validate() error {
	switch m {
	case TrimLiteral, TrimDecimal:
		return nil
	default:
		return fmt.Errorf("motion.TrimMode: invalid mode %q, expected %q or %q", string(m), TrimLiteral, TrimDecimal)
	}
}

// Trim applies the mode to a raw channel value. Applying it twice gives the
// same result as applying it once.
func (m TrimMode) Trim(s string) string {
	if m == TrimDecimal {
		return trimDecimal(s)
	}
	return strings.TrimRight(s, "0")
}

func trimDecimal(s string) string {
	if !strings.Contains(s, ".") || strings.ContainsAny(s, "eE") {
		return s
	}

	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")

	switch s {
	case "", "-", "+":
		return "0"
	}
	return s
}
