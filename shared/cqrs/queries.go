package cqrs

// SearchAllQuery returns every live account.
type SearchAllQuery struct{}

// GetAccountQuery fetches a single account by its raw id.
type GetAccountQuery struct {
	ID string
}

// SearchByEmailQuery returns accounts whose email contains Fragment.
type SearchByEmailQuery struct {
	Fragment string
}
