package settings

import (
	"maps"
	"slices"
)

// FieldSet is a set of document field names.
type FieldSet map[string]struct{}

// NewFieldSet builds a set from fields, ignoring empty names.
func NewFieldSet(fields ...string) FieldSet {
	set := make(FieldSet, len(fields))
	for _, f := range fields {
		if f == "" {
			continue
		}
		set[f] = struct{}{}
	}
	return set
}

// Has reports whether field is in the set.
func (s FieldSet) Has(field string) bool {
	_, ok := s[field]
	return ok
}

// Sorted returns the members in lexical order.
func (s FieldSet) Sorted() []string {
	return slices.Sorted(maps.Keys(s))
}

// Clone returns an independent copy.
func (s FieldSet) Clone() FieldSet {
	return maps.Clone(s)
}
