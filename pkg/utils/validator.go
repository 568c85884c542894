package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MinAddressLength is the shortest incident address accepted for a dispatch
// order.
const MinAddressLength = 10

// ParseShiftNumber validates and parses a duty shift number (1..4).
func ParseShiftNumber(text string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, fmt.Errorf("shift number must be a digit: %q", text)
	}
	if n < 1 || n > 4 {
		return 0, fmt.Errorf("shift number must be between 1 and 4: %d", n)
	}
	return n, nil
}

// ParseReading validates and parses a non-negative numeric reading
// (odometer, fuel level). Accepts a decimal comma.
func ParseReading(text string) (float64, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	v, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0, fmt.Errorf("reading must be a number: %q", text)
	}
	if v < 0 {
		return 0, fmt.Errorf("reading must not be negative: %.2f", v)
	}
	return v, nil
}

// ParseCount validates and parses a non-negative integer count (victims,
// fatalities).
func ParseCount(text string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, fmt.Errorf("count must be a whole number: %q", text)
	}
	if n < 0 {
		return 0, fmt.Errorf("count must not be negative: %d", n)
	}
	return n, nil
}

// ValidateAddress checks an incident address for a dispatch order.
func ValidateAddress(address string) error {
	if len(strings.TrimSpace(address)) < MinAddressLength {
		return fmt.Errorf("address too short, need at least %d characters", MinAddressLength)
	}
	return nil
}

// ValidateFullName requires at least a last and a first name.
func ValidateFullName(name string) error {
	if len(strings.Fields(name)) < 2 {
		return fmt.Errorf("full name must contain at least two words: %q", name)
	}
	return nil
}

// ValidateNotEmpty rejects blank free-text input.
func ValidateNotEmpty(field, text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%s must not be empty", field)
	}
	return nil
}

var controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)

// SanitizeString removes control characters from free-text input.
func SanitizeString(s string) string {
	return controlChars.ReplaceAllString(s, "")
}
