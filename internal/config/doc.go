// Package config loads runtime configuration from multiple sources (YAML files,
// environment variables, CLI flags) with precedence: CLI flags > YAML config >
// Environment variables > Defaults. It also owns the lenient parsers used for
// behavioural flags: boolean environment switches and the DATABASE_REFRESH
// write-visibility mode. None of them fail on malformed input.
package config
