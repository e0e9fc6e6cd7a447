// Package id generates and validates catalog document identifiers.
package id

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// New returns a fresh document id.
func New() string {
	return uuid.NewString()
}

// IsValid checks if a string is a well-formed document id.
func IsValid(s string) bool {
	return uuidPattern.MatchString(strings.ToLower(s))
}
