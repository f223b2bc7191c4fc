// Package memory provides in-process repository implementations backed by
// mutex-guarded maps.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/arklim/shopfront/internal/core/domain"
	"github.com/arklim/shopfront/internal/core/port"
)

// CaptchaStore keeps live challenges in a map guarded by a mutex. A background
// sweeper evicts expired entries; expired entries hit before the sweeper runs
// are purged on access.
type CaptchaStore struct {
	mu      sync.Mutex
	entries map[string]domain.CaptchaChallenge
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewCaptchaStore constructs the store and starts the sweeper. A non-positive
// sweepInterval disables background sweeping; expiry is then enforced on
// access only.
func NewCaptchaStore(sweepInterval time.Duration) *CaptchaStore {
	s := &CaptchaStore{
		entries: make(map[string]domain.CaptchaChallenge),
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	if sweepInterval > 0 {
		go s.sweepLoop(sweepInterval)
	} else {
		close(s.done)
	}

	return s
}

// WithClock overrides the internal clock, used in tests.
func (s *CaptchaStore) WithClock(clock func() time.Time) {
	if clock != nil {
		s.mu.Lock()
		s.now = clock
		s.mu.Unlock()
	}
}

// Put stores the challenge for the session, replacing any live one.
func (s *CaptchaStore) Put(_ context.Context, sessionID string, challenge domain.CaptchaChallenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[sessionID] = challenge
	return nil
}

// Consume validates the answer against the live challenge for the session.
// A correct answer removes the entry so it cannot be replayed. A wrong answer
// leaves the entry in place until it expires or is replaced.
func (s *CaptchaStore) Consume(_ context.Context, sessionID, answer string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	challenge, ok := s.entries[sessionID]
	if !ok {
		return false, nil
	}

	if challenge.Expired(s.now()) {
		delete(s.entries, sessionID)
		return false, nil
	}

	if !strings.EqualFold(challenge.Text, answer) {
		return false, nil
	}

	delete(s.entries, sessionID)
	return true, nil
}

// Sweep removes expired entries and returns how many were evicted.
func (s *CaptchaStore) Sweep(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	evicted := 0
	for sessionID, challenge := range s.entries {
		if challenge.Expired(now) {
			delete(s.entries, sessionID)
			evicted++
		}
	}

	return evicted, nil
}

// Len reports the number of live entries, used in tests.
func (s *CaptchaStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close stops the sweeper and waits for it to exit.
func (s *CaptchaStore) Close() error {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	<-s.done
	return nil
}

func (s *CaptchaStore) sweepLoop(interval time.Duration) {
	defer close(s.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep(context.Background())
		case <-s.stop:
			return
		}
	}
}

var _ port.CaptchaStore = (*CaptchaStore)(nil)
