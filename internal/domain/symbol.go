package domain

import (
	"fmt"
	"regexp"
)

// Symbol identifies a tracked commodity, e.g. "gold".
type Symbol string

// reserved keys of the /spot payload that a symbol must not shadow.
var reservedKeys = map[string]bool{
	"base":        true,
	"unit":        true,
	"updatedAt":   true,
	"source":      true,
	"cacheStatus": true,
}

var symbolRe = regexp.MustCompile(`^[a-z][a-z0-9_]{0,31}$`)

func ValidateSymbol(s string) error {
	if !symbolRe.MatchString(s) || reservedKeys[s] {
		return fmt.Errorf("%w: %q", ErrInvalidSymbol, s)
	}
	return nil
}
