// Package model provides the data types tasksync reconciles.
package model

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrInvalidPlatform is returned when a platform id cannot be used.
var ErrInvalidPlatform = errors.New("invalid platform")

// Platform identifies the client that produced a task version
// (for example "web", "ios" or a device id).
type Platform string

// IsValid returns true if the platform id is non-empty and has no whitespace.
func (p Platform) IsValid() bool {
	if p == "" {
		return false
	}
	return !strings.ContainsFunc(string(p), unicode.IsSpace)
}

// String returns the platform id.
func (p Platform) String() string {
	return string(p)
}

// ParsePlatform trims s and validates it as a platform id.
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.TrimSpace(s))
	if !p.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPlatform, s)
	}
	return p, nil
}
