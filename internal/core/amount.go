package core

import (
	"errors"
	"strconv"
	"strings"
)

var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount parses a price typed by a user.
//
// Spaces, a leading currency marker ("R") and thousands separators are
// ignored. Either a dot or a single comma may be used as the decimal
// separator:
//
//	ParseAmount("1200.50")    -> 1200.5
//	ParseAmount("R 1 200,50") -> 1200.5
//	ParseAmount("1,200.50")   -> 1200.5
//
// Negative values are rejected.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return 0, ErrInvalidAmount
	}

	switch {
	case strings.Contains(s, ".") && strings.Contains(s, ","):
		// 1,200.50
		s = strings.ReplaceAll(s, ",", "")
	case strings.Count(s, ",") == 1:
		s = strings.Replace(s, ",", ".", 1)
	case strings.Count(s, ",") > 1:
		return 0, ErrInvalidAmount
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, ErrInvalidAmount
	}
	return v, nil
}
