package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	red "github.com/redis/go-redis/v9"

	"github.com/arklim/shopfront/internal/core/domain"
)

func newTestStore(t *testing.T) (*CaptchaStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := red.NewClient(&red.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		if err := client.Close(); err != nil {
			t.Fatalf("close redis client: %v", err)
		}
	})

	return NewCaptchaStore(client, ""), mr
}

func putChallenge(t *testing.T, store *CaptchaStore, sessionID, text string, ttl time.Duration) {
	t.Helper()

	err := store.Put(context.Background(), sessionID, domain.CaptchaChallenge{
		Text:      text,
		ExpiresAt: time.Now().Add(ttl),
	})
	if err != nil {
		t.Fatalf("put challenge: %v", err)
	}
}

func TestConsumeCorrectAnswerIsOneTime(t *testing.T) {
	store, _ := newTestStore(t)
	putChallenge(t, store, "session-1", "Ab3k", 5*time.Minute)

	ok, err := store.Consume(context.Background(), "session-1", "ab3K")
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if !ok {
		t.Fatal("expected case-insensitive answer to be accepted")
	}

	ok, err = store.Consume(context.Background(), "session-1", "Ab3k")
	if err != nil {
		t.Fatalf("consume replay: %v", err)
	}
	if ok {
		t.Fatal("expected replayed answer to be rejected")
	}
}

func TestConsumeWrongAnswerRetainsChallenge(t *testing.T) {
	store, _ := newTestStore(t)
	putChallenge(t, store, "session-1", "Ab3k", 5*time.Minute)

	ok, err := store.Consume(context.Background(), "session-1", "nope")
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if ok {
		t.Fatal("expected wrong answer to be rejected")
	}

	ok, err = store.Consume(context.Background(), "session-1", "Ab3k")
	if err != nil {
		t.Fatalf("consume retry: %v", err)
	}
	if !ok {
		t.Fatal("expected challenge to remain live after a wrong answer")
	}
}

func TestConsumeExpiredChallenge(t *testing.T) {
	store, mr := newTestStore(t)
	putChallenge(t, store, "session-1", "Ab3k", 5*time.Minute)

	mr.FastForward(5*time.Minute + time.Second)

	ok, err := store.Consume(context.Background(), "session-1", "Ab3k")
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if ok {
		t.Fatal("expected expired challenge to be rejected")
	}
}

func TestPutReplacesLiveChallenge(t *testing.T) {
	store, _ := newTestStore(t)
	putChallenge(t, store, "session-1", "AAAA", 5*time.Minute)
	putChallenge(t, store, "session-1", "BBBB", 5*time.Minute)

	ok, err := store.Consume(context.Background(), "session-1", "AAAA")
	if err != nil {
		t.Fatalf("consume superseded: %v", err)
	}
	if ok {
		t.Fatal("expected superseded challenge to be rejected")
	}

	ok, err = store.Consume(context.Background(), "session-1", "BBBB")
	if err != nil {
		t.Fatalf("consume current: %v", err)
	}
	if !ok {
		t.Fatal("expected current challenge to be accepted")
	}
}

func TestPutDropsAlreadyExpiredChallenge(t *testing.T) {
	store, mr := newTestStore(t)
	putChallenge(t, store, "session-1", "Ab3k", -time.Second)

	if mr.Exists("shop:captcha:session-1") {
		t.Fatal("expected no key for an already expired challenge")
	}
}

func TestChallengesAreScopedPerSession(t *testing.T) {
	store, _ := newTestStore(t)
	putChallenge(t, store, "session-1", "AAAA", 5*time.Minute)
	putChallenge(t, store, "session-2", "BBBB", 5*time.Minute)

	ok, err := store.Consume(context.Background(), "session-1", "BBBB")
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if ok {
		t.Fatal("expected answer from another session to be rejected")
	}

	ok, err = store.Consume(context.Background(), "session-2", "BBBB")
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if !ok {
		t.Fatal("expected matching session answer to be accepted")
	}
}
