package config

import (
	"os"
	"strings"
)

var (
	trueValues  = []string{"true", "1", "yes", "y", "on"}
	falseValues = []string{"false", "0", "no", "n", "off"}
)

// ParseBool interprets raw as a boolean flag. Matching is case-insensitive and
// ignores surrounding whitespace. ok is false when raw is not a known spelling.
func ParseBool(raw string) (value bool, ok bool) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	for _, v := range trueValues {
		if normalized == v {
			return true, true
		}
	}
	for _, v := range falseValues {
		if normalized == v {
			return false, true
		}
	}
	return false, false
}

// LookupBoolEnv resolves the named environment variable as a boolean.
// An unset variable yields def with recognized=true. A set but unknown value
// yields def with recognized=false so callers can report it.
func LookupBoolEnv(name string, def bool) (value bool, recognized bool) {
	raw, present := os.LookupEnv(name)
	if !present {
		return def, true
	}
	parsed, ok := ParseBool(raw)
	if !ok {
		return def, false
	}
	return parsed, true
}

// BoolEnv returns the boolean value of the named environment variable, or def
// when it is unset or unrecognized.
func BoolEnv(name string, def bool) bool {
	value, _ := LookupBoolEnv(name, def)
	return value
}
