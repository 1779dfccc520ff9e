package config

import (
	"os"
	"testing"
)

func TestParseBool(t *testing.T) {
	cases := map[string]bool{
		"true": true, "TRUE": true, " True ": true, "1": true, "yes": true, "Y": true, "on": true,
		"false": false, "FALSE": false, "0": false, "no": false, "n": false, "Off": false,
	}
	for raw, want := range cases {
		got, ok := ParseBool(raw)
		if !ok {
			t.Fatalf("ParseBool(%q) not recognized", raw)
		}
		if got != want {
			t.Fatalf("ParseBool(%q) = %v, want %v", raw, got, want)
		}
	}

	for _, raw := range []string{"", "maybe", "truee", "2"} {
		if _, ok := ParseBool(raw); ok {
			t.Fatalf("ParseBool(%q) unexpectedly recognized", raw)
		}
	}
}

func TestBoolEnv(t *testing.T) {
	const name = "TEST_BOOL_FLAG"

	t.Run("unset returns default", func(t *testing.T) {
		t.Setenv(name, "")
		os.Unsetenv(name)
		if !BoolEnv(name, true) {
			t.Fatalf("expected default true")
		}
		if BoolEnv(name, false) {
			t.Fatalf("expected default false")
		}
	})

	t.Run("recognized values", func(t *testing.T) {
		t.Setenv(name, "TRUE")
		if !BoolEnv(name, false) {
			t.Fatalf("expected true")
		}
		t.Setenv(name, "false")
		if BoolEnv(name, true) {
			t.Fatalf("expected false")
		}
	})

	t.Run("unrecognized falls back", func(t *testing.T) {
		t.Setenv(name, "definitely")
		if BoolEnv(name, false) {
			t.Fatalf("expected default false for unrecognized value")
		}
		value, recognized := LookupBoolEnv(name, true)
		if recognized {
			t.Fatalf("expected unrecognized value to be reported")
		}
		if !value {
			t.Fatalf("expected default true for unrecognized value")
		}
	})
}
