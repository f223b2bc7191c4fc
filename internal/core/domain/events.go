package domain

import "time"

// UserRegisteredEvent is emitted after a new account is persisted.
type UserRegisteredEvent struct {
	UserID       string
	Username     string
	Email        string
	RegisteredAt time.Time
}

// LoginEvent is emitted for every completed login attempt, successful or not.
type LoginEvent struct {
	Username   string
	Succeeded  bool
	Reason     string
	ClientIP   string
	OccurredAt time.Time
}
