package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// DatabaseRefreshEnv names the variable that selects the write refresh policy.
const DatabaseRefreshEnv = "DATABASE_REFRESH"

// ErrInvalidRefreshMode is returned by ParseRefreshMode for unknown input.
var ErrInvalidRefreshMode = errors.New("refresh mode must be one of true, false, wait_for")

// RefreshMode controls when a write becomes visible to subsequent searches.
type RefreshMode int

const (
	// RefreshFalse returns as soon as the write is acknowledged.
	RefreshFalse RefreshMode = iota
	// RefreshTrue forces a refresh so the write is searchable on return.
	RefreshTrue
	// RefreshWaitFor blocks until the next scheduled refresh exposes the write.
	RefreshWaitFor
)

// String returns the value Elasticsearch expects for the refresh parameter.
func (m RefreshMode) String() string {
	switch m {
	case RefreshTrue:
		return "true"
	case RefreshWaitFor:
		return "wait_for"
	default:
		return "false"
	}
}

// MarshalJSON encodes true and false as JSON booleans and wait_for as a string.
func (m RefreshMode) MarshalJSON() ([]byte, error) {
	if m == RefreshWaitFor {
		return []byte(`"wait_for"`), nil
	}
	return []byte(m.String()), nil
}

// UnmarshalText accepts the same spellings as ParseRefreshMode.
func (m *RefreshMode) UnmarshalText(text []byte) error {
	parsed, err := ParseRefreshMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseRefreshMode strictly parses raw. Boolean aliases accepted by ParseBool
// map to RefreshTrue and RefreshFalse.
func ParseRefreshMode(raw string) (RefreshMode, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "wait_for" {
		return RefreshWaitFor, nil
	}
	if value, ok := ParseBool(normalized); ok {
		if value {
			return RefreshTrue, nil
		}
		return RefreshFalse, nil
	}
	return RefreshFalse, fmt.Errorf("%w: got %q", ErrInvalidRefreshMode, raw)
}

// ResolveRefreshMode is the lenient form of ParseRefreshMode: unknown input
// degrades to RefreshFalse.
func ResolveRefreshMode(raw string) RefreshMode {
	mode, err := ParseRefreshMode(raw)
	if err != nil {
		return RefreshFalse
	}
	return mode
}

// RefreshModeFromEnv resolves DATABASE_REFRESH with ResolveRefreshMode,
// defaulting to "false" when unset. raw is the value read and recognized is
// false when it was not a known spelling, so callers can report it.
func RefreshModeFromEnv() (mode RefreshMode, raw string, recognized bool) {
	raw, ok := os.LookupEnv(DatabaseRefreshEnv)
	if !ok {
		return RefreshFalse, "", true
	}
	_, err := ParseRefreshMode(raw)
	return ResolveRefreshMode(raw), raw, err == nil
}
