// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import (
	"errors"
	"strconv"
	"strings"
)

// ErrNotInteger is returned by ParseOptionalInt for non-numeric input.
var ErrNotInteger = errors.New("not an integer")

// ParseOptionalInt parses a query-style integer. Empty (after trimming)
// yields (def, nil); anything that is not a base-10 int yields ErrNotInteger.
//
//	n, _ := utils.ParseOptionalInt("42", 0) // 42
//	n, _ = utils.ParseOptionalInt("", 10)   // 10
//	_, err := utils.ParseOptionalInt("x", 5) // ErrNotInteger
func ParseOptionalInt(s string, def int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, ErrNotInteger
	}
	return n, nil
}

// ClampLimit caps n at max. Non-positive max disables the cap.
func ClampLimit(n, max int) int {
	if max > 0 && n > max {
		return max
	}
	return n
}
