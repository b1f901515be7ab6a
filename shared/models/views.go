package models

import "time"

// AccountView is the read projection returned by searches and cached in Redis.
type AccountView struct {
	ID           int64     `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	EmailAddress string    `json:"emailAddress"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ToView converts the write model to its read projection.
func (a *Account) ToView() *AccountView {
	return &AccountView{
		ID:           a.ID,
		FirstName:    a.FirstName,
		LastName:     a.LastName,
		EmailAddress: a.EmailAddress,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}
