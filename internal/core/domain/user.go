package domain

import "time"

// User mirrors the persisted representation in the users table. PasswordHash is
// always the iterated hash of the real password under Salt, never plaintext;
// the authentication core treats the record as immutable input.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Salt         string
	CreatedAt    time.Time
}

// PublicUser is the projection of a user safe for API responses.
type PublicUser struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Public strips credential material from the record.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}
