package metadata

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize prepares free-text metadata for comparison: NFC composition,
// uppercasing, and whitespace collapsing.
func Normalize(value string) string {
	composed := norm.NFC.String(value)
	return strings.Join(strings.Fields(strings.ToUpper(composed)), " ")
}
