package events

import "time"

// Event types
const (
	AccountCreated = "account.created"
	AccountUpdated = "account.updated"
	AccountDeleted = "account.deleted"
)

// AccountEventsStream is the Redis stream every account mutation is appended to.
const AccountEventsStream = "account.events"

// Event is the envelope stored in the stream.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

type AccountCreatedEvent struct {
	ID           int64  `json:"id"`
	EmailAddress string `json:"emailAddress"`
}

// AccountUpdatedEvent carries the applied change-set. Changes is empty for
// requests that only refreshed updatedAt.
type AccountUpdatedEvent struct {
	ID      int64          `json:"id"`
	Changes map[string]any `json:"changes"`
}

type AccountDeletedEvent struct {
	ID int64 `json:"id"`
}
