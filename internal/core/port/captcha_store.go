package port

import (
	"context"

	"github.com/arklim/shopfront/internal/core/domain"
)

// CaptchaStore holds live captcha challenges keyed by session ID. A session
// maps to at most one live challenge and a challenge is consumable exactly
// once. Implementations must make Put, Consume, and Sweep atomic with respect
// to each other: two concurrent Consume calls for the same session must not
// both succeed.
type CaptchaStore interface {
	// Put stores the challenge for the session, replacing any live one.
	Put(ctx context.Context, sessionID string, challenge domain.CaptchaChallenge) error
	// Consume compares the answer to the stored challenge case-insensitively.
	// A correct answer deletes the entry and returns true. A wrong answer
	// leaves the entry live. Absent or expired entries return false; expired
	// entries are purged on access.
	Consume(ctx context.Context, sessionID, answer string) (bool, error)
	// Sweep removes expired entries and returns how many were evicted.
	Sweep(ctx context.Context) (int, error)
	// Close releases background resources owned by the store.
	Close() error
}
