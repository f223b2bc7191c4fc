package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/arklim/shopfront/internal/core/domain"
	"github.com/arklim/shopfront/internal/core/port"
	"github.com/arklim/shopfront/internal/infra/logger"
	"github.com/arklim/shopfront/internal/infra/security"
	"github.com/arklim/shopfront/internal/repository"
)

var (
	// ErrUnknownAccount indicates no account exists for the submitted username.
	ErrUnknownAccount = errors.New("unknown account")
	// ErrIncorrectCredentials indicates the account exists but the password
	// does not match.
	ErrIncorrectCredentials = errors.New("incorrect credentials")
	// ErrUnsupportedCredential indicates no provider in the chain recognizes
	// the credential type.
	ErrUnsupportedCredential = errors.New("unsupported credential type")
	// ErrInvalidBearerToken indicates the bearer token is malformed or its
	// signature does not verify.
	ErrInvalidBearerToken = errors.New("invalid bearer token")
	// ErrExpiredBearerToken indicates the bearer token has expired.
	ErrExpiredBearerToken = errors.New("bearer token expired")
	// ErrCaptchaMismatch indicates the captcha answer was absent, wrong, or
	// the challenge already expired.
	ErrCaptchaMismatch = errors.New("captcha verification failed")
)

// TokenProvider authenticates bearer credentials by verifying the token
// signature and expiry.
type TokenProvider struct {
	codec *security.TokenCodec
}

// NewTokenProvider constructs a bearer token provider.
func NewTokenProvider(codec *security.TokenCodec) *TokenProvider {
	return &TokenProvider{codec: codec}
}

// Supports reports whether the credential is a bearer token.
func (p *TokenProvider) Supports(cred domain.Credential) bool {
	_, ok := cred.(domain.BearerCredential)
	return ok
}

// Authenticate verifies the token and resolves the embedded subject.
func (p *TokenProvider) Authenticate(_ context.Context, cred domain.Credential) (domain.Principal, error) {
	bearer, ok := cred.(domain.BearerCredential)
	if !ok {
		return domain.Principal{}, ErrUnsupportedCredential
	}

	claims, err := p.codec.Parse(bearer.RawToken)
	if err != nil {
		if errors.Is(err, security.ErrExpiredToken) {
			return domain.Principal{}, ErrExpiredBearerToken
		}
		return domain.Principal{}, ErrInvalidBearerToken
	}

	return domain.Principal{
		Subject: claims.Subject,
		Role:    domain.RoleUser,
	}, nil
}

// PasswordProvider authenticates username/password credentials against the
// user repository.
type PasswordProvider struct {
	users  port.UserRepository
	hasher *security.Hasher
}

// NewPasswordProvider constructs a password provider.
func NewPasswordProvider(users port.UserRepository, hasher *security.Hasher) *PasswordProvider {
	return &PasswordProvider{users: users, hasher: hasher}
}

// Supports reports whether the credential is a username/password pair.
func (p *PasswordProvider) Supports(cred domain.Credential) bool {
	_, ok := cred.(domain.PasswordCredential)
	return ok
}

// Authenticate looks up the account and verifies the password against the
// stored salted digest. Unknown accounts and wrong passwords are reported as
// distinct errors; collapsing them into one message is the transport layer's
// call.
func (p *PasswordProvider) Authenticate(ctx context.Context, cred domain.Credential) (domain.Principal, error) {
	pw, ok := cred.(domain.PasswordCredential)
	if !ok {
		return domain.Principal{}, ErrUnsupportedCredential
	}

	user, err := p.users.FindByUsername(ctx, pw.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Principal{}, ErrUnknownAccount
		}
		return domain.Principal{}, fmt.Errorf("lookup user: %w", err)
	}

	if !p.hasher.Verify(pw.Password, user.Salt, user.PasswordHash) {
		return domain.Principal{}, ErrIncorrectCredentials
	}

	return domain.Principal{
		Subject: user.Username,
		Role:    domain.RoleUser,
	}, nil
}

// AuthService dispatches credentials through an ordered provider chain and
// orchestrates the login flow.
type AuthService struct {
	providers []port.AuthProvider
	users     port.UserRepository
	captchas  port.CaptchaStore
	codec     *security.TokenCodec
	events    port.EventPublisher
	now       func() time.Time
}

// NewAuthService constructs an AuthService. Provider order is authoritative:
// the token provider is consulted before the password provider so a request
// carrying both credential shapes authenticates by token.
func NewAuthService(
	providers []port.AuthProvider,
	users port.UserRepository,
	captchas port.CaptchaStore,
	codec *security.TokenCodec,
	events port.EventPublisher,
) *AuthService {
	return &AuthService{
		providers: providers,
		users:     users,
		captchas:  captchas,
		codec:     codec,
		events:    events,
		now:       time.Now,
	}
}

// WithClock overrides the internal clock, used in tests.
func (s *AuthService) WithClock(clock func() time.Time) *AuthService {
	if clock != nil {
		s.now = clock
	}
	return s
}

// Authenticate hands the credential to the first provider that supports it.
// Exactly one provider sees any given attempt.
func (s *AuthService) Authenticate(ctx context.Context, cred domain.Credential) (domain.Principal, error) {
	for _, provider := range s.providers {
		if provider.Supports(cred) {
			return provider.Authenticate(ctx, cred)
		}
	}
	return domain.Principal{}, ErrUnsupportedCredential
}

// LoginInput carries a login form submission.
type LoginInput struct {
	Username      string
	Password      string
	SessionID     string
	CaptchaAnswer string
	ClientIP      string
}

// LoginResult is the successful outcome of a login attempt.
type LoginResult struct {
	Token string
	User  domain.PublicUser
}

// Login validates the captcha, authenticates the password credential through
// the provider chain, and issues a bearer token. Every completed attempt is
// published as a login event.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return nil, s.failLogin(ctx, username, in.ClientIP, ErrIncorrectCredentials)
	}

	ok, err := s.captchas.Consume(ctx, in.SessionID, in.CaptchaAnswer)
	if err != nil {
		return nil, fmt.Errorf("consume captcha: %w", err)
	}
	if !ok {
		return nil, s.failLogin(ctx, username, in.ClientIP, ErrCaptchaMismatch)
	}

	principal, err := s.Authenticate(ctx, domain.PasswordCredential{
		Username: username,
		Password: in.Password,
	})
	if err != nil {
		if errors.Is(err, ErrUnknownAccount) || errors.Is(err, ErrIncorrectCredentials) {
			return nil, s.failLogin(ctx, username, in.ClientIP, err)
		}
		return nil, err
	}

	token, err := s.codec.Issue(principal.Subject)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	user, err := s.users.FindByUsername(ctx, principal.Subject)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	s.publishLogin(ctx, domain.LoginEvent{
		Username:   username,
		Succeeded:  true,
		ClientIP:   in.ClientIP,
		OccurredAt: s.now().UTC(),
	})

	return &LoginResult{
		Token: token,
		User:  user.Public(),
	}, nil
}

// failLogin publishes a failed attempt and passes the cause through.
func (s *AuthService) failLogin(ctx context.Context, username, clientIP string, cause error) error {
	s.publishLogin(ctx, domain.LoginEvent{
		Username:   username,
		Succeeded:  false,
		Reason:     cause.Error(),
		ClientIP:   clientIP,
		OccurredAt: s.now().UTC(),
	})
	return cause
}

func (s *AuthService) publishLogin(ctx context.Context, event domain.LoginEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishLogin(ctx, event); err != nil {
		logger.WithContext(ctx).Warn("publish login event",
			zap.String("username", event.Username),
			zap.Error(err),
		)
	}
}
