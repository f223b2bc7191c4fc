package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arklim/shopfront/internal/core/domain"
	"github.com/arklim/shopfront/internal/core/port"
	"github.com/arklim/shopfront/internal/infra/config"
	"github.com/arklim/shopfront/internal/infra/security"
	"github.com/arklim/shopfront/internal/repository"
	memoryrepo "github.com/arklim/shopfront/internal/repository/memory"
	"github.com/arklim/shopfront/internal/transport/http/routes"
	"github.com/arklim/shopfront/internal/usecase"
)

type memoryUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[string]domain.User)}
}

func (r *memoryUserRepo) Create(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == user.Username {
			return repository.ErrDuplicate
		}
	}
	r.users[user.ID] = user
	return nil
}

func (r *memoryUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (r *memoryUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Username == username {
			u := user
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memoryUserRepo) List(_ context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.User, 0, len(r.users))
	for _, user := range r.users {
		out = append(out, user)
	}
	return out, nil
}

func (r *memoryUserRepo) Update(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	r.users[user.ID] = user
	return nil
}

func (r *memoryUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

type noopPublisher struct{}

func (noopPublisher) PublishUserRegistered(context.Context, domain.UserRegisteredEvent) error {
	return nil
}

func (noopPublisher) PublishLogin(context.Context, domain.LoginEvent) error { return nil }

var _ port.UserRepository = (*memoryUserRepo)(nil)

type testEnv struct {
	engine   *gin.Engine
	users    *memoryUserRepo
	captchas *memoryrepo.CaptchaStore
	codec    *security.TokenCodec
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	codec, err := security.NewTokenCodec(security.TokenConfig{
		Secret: "handlers-test-secret",
		Issuer: "shopfront-test",
		TTL:    time.Hour,
	})
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}

	hasher, err := security.NewHasher(security.DefaultHasherConfig())
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}

	users := newMemoryUserRepo()
	captchaStore := memoryrepo.NewCaptchaStore(0)
	t.Cleanup(func() { _ = captchaStore.Close() })

	providers := []port.AuthProvider{
		usecase.NewTokenProvider(codec),
		usecase.NewPasswordProvider(users, hasher),
	}
	events := noopPublisher{}

	engine := routes.Register(routes.Dependencies{
		Config: &config.AppConfig{},
		Logger: zap.NewNop(),
		Services: routes.ServiceSet{
			Auth:     usecase.NewAuthService(providers, users, captchaStore, codec, events),
			Users:    usecase.NewUserService(users, hasher, events),
			Captchas: usecase.NewCaptchaService(captchaStore, time.Minute),
		},
	})

	return &testEnv{
		engine:   engine,
		users:    users,
		captchas: captchaStore,
		codec:    codec,
	}
}

func (e *testEnv) do(t *testing.T, method, target, contentType string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func (e *testEnv) doAuth(t *testing.T, method, target, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func (e *testEnv) doJSON(t *testing.T, method, target string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return e.do(t, method, target, "application/json", body)
}

// seedChallenge plants a known challenge text so tests can answer it.
func (e *testEnv) seedChallenge(t *testing.T, sessionID, text string) {
	t.Helper()
	err := e.captchas.Put(context.Background(), sessionID, domain.CaptchaChallenge{
		Text:      text,
		ExpiresAt: time.Now().Add(time.Minute),
	})
	if err != nil {
		t.Fatalf("seed challenge: %v", err)
	}
}

func (e *testEnv) register(t *testing.T, username, email, password string) {
	t.Helper()
	w := e.doJSON(t, http.MethodPost, "/api/users/register", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("register %q: status = %d, body = %s", username, w.Code, w.Body.String())
	}
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}
