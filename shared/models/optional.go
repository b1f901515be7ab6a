package models

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// FieldState describes how a field appeared in the request body.
type FieldState int

const (
	// Absent means the key was not sent at all.
	Absent FieldState = iota
	// Empty means the key was sent as null, "" or whitespace.
	Empty
	// Set means the key carries a usable value.
	Set
)

func (s FieldState) String() string {
	switch s {
	case Absent:
		return "absent"
	case Empty:
		return "empty"
	case Set:
		return "set"
	default:
		return "unknown"
	}
}

// OptionalString is a request field that distinguishes a missing key from an
// empty one. Empty and absent fields both mean "leave the stored value alone".
type OptionalString struct {
	present bool
	value   string
}

// NewOptionalString returns a present field holding value.
func NewOptionalString(value string) OptionalString {
	return OptionalString{present: true, value: value}
}

// State reports whether the field was absent, empty or set.
func (o OptionalString) State() FieldState {
	switch {
	case !o.present:
		return Absent
	case strings.TrimSpace(o.value) == "":
		return Empty
	default:
		return Set
	}
}

// IsSet is true when the field carries a non-blank value.
func (o OptionalString) IsSet() bool {
	return o.State() == Set
}

// Value returns the raw value, "" when absent or null.
func (o OptionalString) Value() string {
	return o.value
}

// UnmarshalJSON accepts strings, null, numbers and booleans. Numbers and
// booleans keep their literal text.
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.present = true
	o.value = ""

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return errors.New("empty JSON value")
	}
	switch trimmed[0] {
	case 'n':
		return nil
	case '"':
		return errors.WithStack(json.Unmarshal(trimmed, &o.value))
	case '{', '[':
		return errors.Errorf("expected a string value, got %s", trimmed[:1])
	default:
		o.value = string(trimmed)
		return nil
	}
}

// MarshalJSON renders absent and null fields as null.
func (o OptionalString) MarshalJSON() ([]byte, error) {
	if !o.present {
		return []byte("null"), nil
	}
	b, err := json.Marshal(o.value)
	return b, errors.WithStack(err)
}
