// Package phone normalizes phone numbers to E.164.
package phone

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used for numbers written without a country code.
const DefaultRegion = "US"

var ErrInvalidNumber = errors.New("invalid phone number")

// Normalize converts user or carrier supplied input into E.164. Numbers
// without a country code are read as DefaultRegion numbers and must be valid
// for that region.
func Normalize(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidNumber
	}
	num, err := phonenumbers.Parse(trimmed, DefaultRegion)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidNumber, err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", ErrInvalidNumber
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// Equal reports whether two inputs normalize to the same number.
func Equal(a, b string) bool {
	na, errA := Normalize(a)
	nb, errB := Normalize(b)
	if errA != nil || errB != nil {
		return strings.TrimSpace(a) == strings.TrimSpace(b)
	}
	return na == nb
}

// LookupCandidates returns the normalized form first, then the raw string when
// it differs, for stores holding legacy unnormalized numbers.
func LookupCandidates(raw string) []string {
	trimmed := strings.TrimSpace(raw)
	normalized, err := Normalize(trimmed)
	if err != nil {
		if trimmed == "" {
			return nil
		}
		return []string{trimmed}
	}
	if normalized == trimmed {
		return []string{normalized}
	}
	return []string{normalized, trimmed}
}
