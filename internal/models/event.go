package models

import "time"

type EventType string

const (
	EventAccountSignedUp EventType = "account.signed_up"
	EventProfileSaved    EventType = "profile.saved"
	EventProfileSkipped  EventType = "profile.skipped"
)

// Event is published to Kafka whenever a waitlist milestone is reached.
type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Result struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}
