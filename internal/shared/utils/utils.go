package utils

import (
	"strconv"
	"strings"
)

// ParseIntDefault parses a query value, falling back to def on blank or bad input.
func ParseIntDefault(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
