package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eaglebank/account-registry/shared/models"
)

func validAccount() *models.Account {
	return &models.Account{FirstName: "John", LastName: "Doe", EmailAddress: "john@example.com"}
}

func TestValidateAcceptsValidAccount(t *testing.T) {
	require.Empty(t, Validate(validAccount()))
}

func TestValidateNames(t *testing.T) {
	tests := []struct {
		name  string
		value string
		tag   string
	}{
		{name: "empty", value: "", tag: "required"},
		{name: "whitespace", value: "   ", tag: "notblank"},
		{name: "too short", value: "J", tag: "min"},
		{name: "too long", value: strings.Repeat("a", 101), tag: "max"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account := validAccount()
			account.FirstName = tt.value
			violations := Validate(account)
			require.Len(t, violations, 1)
			require.Equal(t, "firstName", violations[0].Field)
			require.Equal(t, tt.tag, violations[0].Type)
		})
	}

	account := validAccount()
	account.LastName = strings.Repeat("é", 100)
	require.Empty(t, Validate(account), "bounds count characters, not bytes")

	account.FirstName = "Jo"
	require.Empty(t, Validate(account))
}

func TestValidateReportsEveryField(t *testing.T) {
	violations := Validate(&models.Account{})
	require.Len(t, violations, 3)

	fields := []string{violations[0].Field, violations[1].Field, violations[2].Field}
	require.Equal(t, []string{"firstName", "lastName", "emailAddress"}, fields)
	for _, v := range violations {
		require.Equal(t, "required", v.Type)
		require.NotEmpty(t, v.Message)
	}
}

func TestValidateEmailLength(t *testing.T) {
	account := validAccount()
	account.EmailAddress = strings.Repeat("a", 90) + "@example.com"
	violations := Validate(account)
	require.Len(t, violations, 1)
	require.Equal(t, "max", violations[0].Type)
}

func TestIsEmail(t *testing.T) {
	valid := []string{
		"john@example.com",
		"John.Doe@Example.COM",
		"first.middle.last@sub.domain.org",
		"o'brien+tag@mail-server.co.uk",
		"a@b.io",
	}
	for _, email := range valid {
		require.True(t, IsEmail(email), email)
	}

	invalid := []string{
		"",
		"john",
		"john@",
		"@example.com",
		".john@example.com",
		"john.@example.com",
		"john..doe@example.com",
		"john@localhost",
		"john@example.c",
		"john@example.c0m",
		"john@-example.com",
		"john@example-.com",
		"john doe@example.com",
		"john@@example.com",
	}
	for _, email := range invalid {
		require.False(t, IsEmail(email), email)
	}
}
