package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nbutton23/zxcvbn-go"
	"go.uber.org/zap"

	"github.com/arklim/shopfront/internal/core/domain"
	"github.com/arklim/shopfront/internal/core/port"
	"github.com/arklim/shopfront/internal/infra/logger"
	"github.com/arklim/shopfront/internal/infra/security"
	"github.com/arklim/shopfront/internal/repository"
)

const (
	minUsernameLength = 3
	minPasswordLength = 6
)

var (
	// ErrUsernameTooShort indicates the username is below the minimum length.
	ErrUsernameTooShort = errors.New("username must be at least 3 characters")
	// ErrInvalidEmail indicates the email fails the structural check.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrPasswordTooShort indicates the password is below the minimum length.
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	// ErrUsernameTaken indicates the username is already registered.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrUserNotFound indicates no account exists for the requested ID.
	ErrUserNotFound = errors.New("user not found")
)

// UserService handles account registration and management.
type UserService struct {
	users  port.UserRepository
	hasher *security.Hasher
	events port.EventPublisher
	now    func() time.Time
}

// NewUserService constructs a UserService.
func NewUserService(users port.UserRepository, hasher *security.Hasher, events port.EventPublisher) *UserService {
	return &UserService{
		users:  users,
		hasher: hasher,
		events: events,
		now:    time.Now,
	}
}

// WithClock overrides the internal clock, used in tests.
func (s *UserService) WithClock(clock func() time.Time) *UserService {
	if clock != nil {
		s.now = clock
	}
	return s
}

// RegisterInput carries a registration form submission.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Register validates the submission, hashes the password under a fresh salt,
// and persists the account. Validation order is username, email, password;
// the first failure wins.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*domain.PublicUser, error) {
	username := strings.TrimSpace(in.Username)
	if len(username) < minUsernameLength {
		return nil, ErrUsernameTooShort
	}

	email := strings.TrimSpace(in.Email)
	if !validEmail(email) {
		return nil, ErrInvalidEmail
	}

	if len(in.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	// Strength scoring is advisory: weak passwords above the length floor are
	// logged, not rejected.
	strength := zxcvbn.PasswordStrength(in.Password, []string{username, email})
	if strength.Score < 2 {
		logger.WithContext(ctx).Info("weak password accepted at registration",
			zap.String("username", username),
			zap.Int("score", strength.Score),
		)
	}

	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		return nil, err
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: s.hasher.Hash(in.Password, salt),
		Salt:         salt,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.publishRegistered(ctx, domain.UserRegisteredEvent{
		UserID:       user.ID,
		Username:     user.Username,
		Email:        user.Email,
		RegisteredAt: user.CreatedAt,
	})

	public := user.Public()
	return &public, nil
}

// Get returns the public projection of a single account.
func (s *UserService) Get(ctx context.Context, id string) (*domain.PublicUser, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	public := user.Public()
	return &public, nil
}

// List returns the public projections of all accounts.
func (s *UserService) List(ctx context.Context) ([]domain.PublicUser, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	public := make([]domain.PublicUser, 0, len(users))
	for _, user := range users {
		public = append(public, user.Public())
	}
	return public, nil
}

// UpdateInput carries a profile update. Zero-valued fields are left unchanged.
type UpdateInput struct {
	Email    string
	Password string
}

// Update modifies an existing account. A new password is re-hashed under a
// fresh salt; the old digest is unrecoverable afterwards.
func (s *UserService) Update(ctx context.Context, id string, in UpdateInput) (*domain.PublicUser, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if email := strings.TrimSpace(in.Email); email != "" {
		if !validEmail(email) {
			return nil, ErrInvalidEmail
		}
		user.Email = email
	}

	if in.Password != "" {
		if len(in.Password) < minPasswordLength {
			return nil, ErrPasswordTooShort
		}

		salt, err := s.hasher.GenerateSalt()
		if err != nil {
			return nil, err
		}
		user.Salt = salt
		user.PasswordHash = s.hasher.Hash(in.Password, salt)
	}

	if err := s.users.Update(ctx, *user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	public := user.Public()
	return &public, nil
}

// Delete removes an account.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func (s *UserService) publishRegistered(ctx context.Context, event domain.UserRegisteredEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishUserRegistered(ctx, event); err != nil {
		logger.WithContext(ctx).Warn("publish user registered event",
			zap.String("user_id", event.UserID),
			zap.Error(err),
		)
	}
}

// validEmail applies the storefront's minimal rule: the address must contain
// an @ and a dot. Anything stricter rejects addresses the API accepts today.
func validEmail(email string) bool {
	return strings.Contains(email, "@") && strings.Contains(email, ".")
}
