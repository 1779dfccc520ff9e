// Package settings composes the API behaviour flags, the searchable field
// sets and a search client factory into one immutable value per client kind.
// Flags are resolved from the environment when the value is built, except the
// refresh mode which is read on every access.
package settings
