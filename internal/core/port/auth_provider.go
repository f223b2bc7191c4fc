package port

import (
	"context"

	"github.com/arklim/shopfront/internal/core/domain"
)

// AuthProvider resolves one kind of credential to a principal. Providers are
// consulted in a fixed declared order; exactly one provider handles any given
// authentication attempt.
type AuthProvider interface {
	// Supports reports whether this provider accepts the credential kind.
	Supports(credential domain.Credential) bool
	// Authenticate resolves the credential to a principal or an
	// authentication error.
	Authenticate(ctx context.Context, credential domain.Credential) (domain.Principal, error)
}
