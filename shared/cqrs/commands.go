package cqrs

import "github.com/eaglebank/account-registry/shared/models"

// CreateAccountCommand carries a full candidate record. Missing fields arrive
// as empty strings and are rejected by validation.
type CreateAccountCommand struct {
	FirstName    string
	LastName     string
	EmailAddress string
}

// UpdateAccountCommand carries a partial candidate. ID is the raw path value
// and is parsed by the command service.
type UpdateAccountCommand struct {
	ID           string
	FirstName    models.OptionalString
	LastName     models.OptionalString
	EmailAddress models.OptionalString
}

type DeleteAccountCommand struct {
	ID string
}
