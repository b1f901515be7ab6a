package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

type body struct {
	FirstName OptionalString `json:"firstName"`
}

func TestOptionalStringStates(t *testing.T) {
	tests := []struct {
		name  string
		json  string
		state FieldState
		value string
	}{
		{name: "absent", json: `{}`, state: Absent, value: ""},
		{name: "null", json: `{"firstName":null}`, state: Empty, value: ""},
		{name: "empty", json: `{"firstName":""}`, state: Empty, value: ""},
		{name: "blank", json: `{"firstName":"  \t"}`, state: Empty, value: "  \t"},
		{name: "value", json: `{"firstName":"John"}`, state: Set, value: "John"},
		{name: "number", json: `{"firstName":42}`, state: Set, value: "42"},
		{name: "bool", json: `{"firstName":false}`, state: Set, value: "false"},
		{name: "case insensitive key", json: `{"FIRSTNAME":"John"}`, state: Set, value: "John"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b body
			require.NoError(t, json.Unmarshal([]byte(tt.json), &b))
			require.Equal(t, tt.state, b.FirstName.State())
			require.Equal(t, tt.value, b.FirstName.Value())
			require.Equal(t, tt.state == Set, b.FirstName.IsSet())
		})
	}
}

func TestOptionalStringRejectsStructuredValues(t *testing.T) {
	var b body
	require.Error(t, json.Unmarshal([]byte(`{"firstName":{"a":1}}`), &b))
	require.Error(t, json.Unmarshal([]byte(`{"firstName":["John"]}`), &b))
}

func TestOptionalStringMarshal(t *testing.T) {
	out, err := json.Marshal(body{})
	require.NoError(t, err)
	require.JSONEq(t, `{"firstName":null}`, string(out))

	out, err = json.Marshal(body{FirstName: NewOptionalString("John")})
	require.NoError(t, err)
	require.JSONEq(t, `{"firstName":"John"}`, string(out))
}

func TestAccountToView(t *testing.T) {
	account := &Account{ID: 101, FirstName: "John", LastName: "Doe", EmailAddress: "john@example.com"}
	view := account.ToView()
	require.Equal(t, int64(101), view.ID)
	require.Equal(t, "john@example.com", view.EmailAddress)
}
