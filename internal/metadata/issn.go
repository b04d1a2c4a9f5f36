package metadata

import (
	"fmt"
	"strings"
)

// ValidateISSN checks length, format, and check digit of an ISSN such as
// "0102-6720". It returns the ISSN unchanged when valid.
func ValidateISSN(issn string) (string, error) {
	if len(issn) != 9 {
		return "", fmt.Errorf("issn %q: invalid length", issn)
	}
	if issn[4] != '-' {
		return "", fmt.Errorf("issn %q: invalid format", issn)
	}
	digits := strings.ReplaceAll(issn, "-", "")
	for _, r := range digits[:7] {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("issn %q: invalid character", issn)
		}
	}
	if check, err := issnCheckDigit(issn); err != nil {
		return "", err
	} else if check != issn[len(issn)-1:] {
		return "", fmt.Errorf("issn %q: check digit mismatch", issn)
	}
	return issn, nil
}

// IsValidISSN reports whether the ISSN passes format and check-digit rules.
func IsValidISSN(issn string) bool {
	_, err := ValidateISSN(issn)
	return err == nil
}

// issnCheckDigit computes the expected final character per ISO 3297.
func issnCheckDigit(issn string) (string, error) {
	digits := strings.ReplaceAll(issn, "-", "")
	total := 0
	for i, r := range digits[:len(digits)-1] {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("issn %q: invalid character", issn)
		}
		total += (8 - i) * int(r-'0')
	}
	remainder := total % 11
	if remainder == 0 {
		return "0", nil
	}
	check := 11 - remainder
	if check == 10 {
		return "X", nil
	}
	return fmt.Sprintf("%d", check), nil
}
