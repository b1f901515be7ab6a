// Package changeset decides field by field whether a candidate value replaces
// the stored one and records every applied change in order.
package changeset

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// Change is a single applied field.
type Change struct {
	Field string
	Value any
}

// ChangeSet is the ordered record of applied fields. The zero value is empty
// and ready to use.
type ChangeSet struct {
	changes []Change
}

// Len returns the number of applied fields.
func (s *ChangeSet) Len() int {
	return len(s.changes)
}

// Empty is true when nothing was applied.
func (s *ChangeSet) Empty() bool {
	return len(s.changes) == 0
}

// Changes returns a copy of the applied fields in application order.
func (s *ChangeSet) Changes() []Change {
	return append([]Change(nil), s.changes...)
}

// Value returns the value recorded for field.
func (s *ChangeSet) Value(field string) (any, bool) {
	for _, c := range s.changes {
		if c.Field == field {
			return c.Value, true
		}
	}
	return nil, false
}

// Map returns the change-set as a plain map.
func (s *ChangeSet) Map() map[string]any {
	m := make(map[string]any, len(s.changes))
	for _, c := range s.changes {
		m[c.Field] = c.Value
	}
	return m
}

// record sets field to value, replacing an earlier entry for the same field
// in place so the original position is kept.
func (s *ChangeSet) record(field string, value any) {
	for i := range s.changes {
		if s.changes[i].Field == field {
			s.changes[i].Value = value
			return
		}
	}
	s.changes = append(s.changes, Change{Field: field, Value: value})
}

// MarshalJSON renders the change-set as an object whose keys follow
// application order.
func (s *ChangeSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range s.changes {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Field)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		value, err := json.Marshal(c.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "marshal change %q", c.Field)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Blank reports whether a string candidate counts as unset.
func Blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Zero reports whether v is the zero value of its type.
func Zero[T comparable](v T) bool {
	var zero T
	return v == zero
}

// Diff decides whether candidate replaces current. Unset candidates never
// do, whatever is stored; set candidates do when they differ from current.
// The returned value is the one the field should hold afterwards.
func Diff[T comparable](current, candidate T, unset func(T) bool) (bool, T) {
	if unset(candidate) || candidate == current {
		return false, current
	}
	return true, candidate
}

// Apply runs Diff against *target, writes the result and records it in s
// under field when it changed.
func Apply[T comparable](s *ChangeSet, field string, target *T, candidate T, unset func(T) bool) bool {
	changed, value := Diff(*target, candidate, unset)
	if !changed {
		return false
	}
	*target = value
	s.record(field, value)
	return true
}
