package domain

import "time"

// CaptchaChallenge is a short-lived one-time text challenge keyed by session ID.
// A session maps to at most one live challenge; issuing a new challenge for the
// same session replaces the previous one.
type CaptchaChallenge struct {
	Text      string
	ExpiresAt time.Time
}

// Expired reports whether the challenge is past its expiry at the given instant.
func (c CaptchaChallenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
