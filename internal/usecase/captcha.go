package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arklim/shopfront/internal/captcha"
	"github.com/arklim/shopfront/internal/core/domain"
	"github.com/arklim/shopfront/internal/core/port"
)

const defaultCaptchaTTL = 5 * time.Minute

// CaptchaService issues and validates one-time image challenges.
type CaptchaService struct {
	store port.CaptchaStore
	ttl   time.Duration
	now   func() time.Time
}

// NewCaptchaService constructs a CaptchaService. A non-positive ttl falls back
// to the default challenge lifetime.
func NewCaptchaService(store port.CaptchaStore, ttl time.Duration) *CaptchaService {
	if ttl <= 0 {
		ttl = defaultCaptchaTTL
	}
	return &CaptchaService{
		store: store,
		ttl:   ttl,
		now:   time.Now,
	}
}

// WithClock overrides the internal clock, used in tests.
func (s *CaptchaService) WithClock(clock func() time.Time) *CaptchaService {
	if clock != nil {
		s.now = clock
	}
	return s
}

// Challenge is a freshly issued captcha bound to a session.
type Challenge struct {
	SessionID string
	ImageURI  string
}

// Issue generates a new challenge and returns the rendered image as a data
// URI. An empty sessionID mints a fresh session; a non-empty one refreshes
// that session, replacing its live challenge.
func (s *CaptchaService) Issue(ctx context.Context, sessionID string) (*Challenge, error) {
	text, err := captcha.NewChallengeText()
	if err != nil {
		return nil, err
	}

	png, err := captcha.Render(text)
	if err != nil {
		return nil, err
	}

	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	err = s.store.Put(ctx, sessionID, domain.CaptchaChallenge{
		Text:      text,
		ExpiresAt: s.now().Add(s.ttl),
	})
	if err != nil {
		return nil, fmt.Errorf("store captcha: %w", err)
	}

	return &Challenge{
		SessionID: sessionID,
		ImageURI:  captcha.DataURI(png),
	}, nil
}

// Validate consumes the challenge for the session. It reports true exactly
// once per issued challenge, and only for a case-insensitive match before
// expiry.
func (s *CaptchaService) Validate(ctx context.Context, sessionID, answer string) (bool, error) {
	if sessionID == "" || answer == "" {
		return false, nil
	}
	return s.store.Consume(ctx, sessionID, answer)
}
