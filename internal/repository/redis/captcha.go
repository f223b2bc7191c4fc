package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/arklim/shopfront/internal/core/domain"
	"github.com/arklim/shopfront/internal/core/port"
)

const defaultCaptchaPrefix = "shop:captcha"

// consumeScript compares the submitted answer to the stored challenge and
// deletes the key on a match. Running inside Redis keeps compare-and-delete
// atomic, so concurrent submissions for the same session cannot both succeed.
var consumeScript = red.NewScript(`
local stored = redis.call('GET', KEYS[1])
if not stored then
	return 0
end
if string.lower(stored) == string.lower(ARGV[1]) then
	redis.call('DEL', KEYS[1])
	return 1
end
return 0
`)

// CaptchaStore persists challenges in Redis under per-session keys. Expiry
// rides on key TTLs, so a shared Redis gives every API replica the same view
// of live challenges.
type CaptchaStore struct {
	client *red.Client
	prefix string
	now    func() time.Time
}

// NewCaptchaStore constructs a Redis-backed captcha store with the provided
// client and key prefix.
func NewCaptchaStore(client *red.Client, keyPrefix string) *CaptchaStore {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultCaptchaPrefix
	}

	return &CaptchaStore{
		client: client,
		prefix: prefix,
		now:    time.Now,
	}
}

// WithClock overrides the internal clock, used in tests.
func (s *CaptchaStore) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Put stores the challenge under the session key. SET replaces any live
// challenge for the session; a challenge already past its expiry is dropped.
func (s *CaptchaStore) Put(ctx context.Context, sessionID string, challenge domain.CaptchaChallenge) error {
	ttl := challenge.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}

	if err := s.client.Set(ctx, s.key(sessionID), challenge.Text, ttl).Err(); err != nil {
		return fmt.Errorf("redis store captcha: %w", err)
	}

	return nil
}

// Consume runs the compare-and-delete script for the session. It reports true
// only when a live challenge matched the answer case-insensitively; wrong
// answers leave the challenge in place.
func (s *CaptchaStore) Consume(ctx context.Context, sessionID, answer string) (bool, error) {
	res, err := consumeScript.Run(ctx, s.client, []string{s.key(sessionID)}, answer).Int()
	if err != nil {
		return false, fmt.Errorf("redis consume captcha: %w", err)
	}

	return res == 1, nil
}

// Sweep is a no-op: key TTLs expire challenges inside Redis.
func (s *CaptchaStore) Sweep(context.Context) (int, error) {
	return 0, nil
}

// Close is a no-op; the Redis client lifecycle belongs to the caller.
func (s *CaptchaStore) Close() error {
	return nil
}

func (s *CaptchaStore) key(sessionID string) string {
	return fmt.Sprintf("%s:%s", s.prefix, sessionID)
}

var _ port.CaptchaStore = (*CaptchaStore)(nil)
