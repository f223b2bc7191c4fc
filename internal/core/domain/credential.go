package domain

// RoleUser is the single role carried by every authenticated principal.
const RoleUser = "user"

// Credential is the polymorphic input to the authentication provider chain.
// The variant set is closed: bearer tokens and username/password pairs.
type Credential interface {
	credential()
}

// BearerCredential carries a raw bearer token extracted from an
// Authorization header.
type BearerCredential struct {
	RawToken string
}

func (BearerCredential) credential() {}

// PasswordCredential carries a username/password pair submitted at login.
type PasswordCredential struct {
	Username string
	Password string
}

func (PasswordCredential) credential() {}

// Principal is the authenticated identity attached to a request after a
// provider resolves a credential.
type Principal struct {
	Subject string
	Role    string
}
