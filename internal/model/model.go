// Package model defines the records stored by the site backend and the
// validated inputs that create or change them.
//
// Inputs are explicit structs, one per operation. Decoding ignores JSON keys
// that are not listed on the struct; Validate then enforces the field rules
// and returns validation.Errors keyed by JSON field name.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewID returns a fresh opaque record identifier.
func NewID() string {
	return uuid.NewString()
}

// Now returns the current time in UTC at microsecond precision, which is what
// every backing store can hold without rounding.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// NormalizeEmail trims and lower-cases an address so lookups are stable.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}
