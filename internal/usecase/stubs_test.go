package usecase

import (
	"context"
	"strings"
	"sync"

	"github.com/arklim/shopfront/internal/core/domain"
	"github.com/arklim/shopfront/internal/core/port"
	"github.com/arklim/shopfront/internal/repository"
)

// stubUserRepo is an in-memory port.UserRepository for usecase tests.
type stubUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User

	createErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]domain.User)}
}

func (r *stubUserRepo) Create(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.createErr != nil {
		return r.createErr
	}
	for _, existing := range r.users {
		if existing.Username == user.Username {
			return repository.ErrDuplicate
		}
	}
	r.users[user.ID] = user
	return nil
}

func (r *stubUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
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

func (r *stubUserRepo) List(context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := make([]domain.User, 0, len(r.users))
	for _, user := range r.users {
		users = append(users, user)
	}
	return users, nil
}

func (r *stubUserRepo) Update(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	r.users[user.ID] = user
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

// stubCaptchaStore is an in-memory port.CaptchaStore without expiry handling.
type stubCaptchaStore struct {
	mu      sync.Mutex
	entries map[string]string
}

func newStubCaptchaStore() *stubCaptchaStore {
	return &stubCaptchaStore{entries: make(map[string]string)}
}

func (s *stubCaptchaStore) Put(_ context.Context, sessionID string, challenge domain.CaptchaChallenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sessionID] = challenge.Text
	return nil
}

func (s *stubCaptchaStore) Consume(_ context.Context, sessionID, answer string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	text, ok := s.entries[sessionID]
	if !ok || !strings.EqualFold(text, answer) {
		return false, nil
	}
	delete(s.entries, sessionID)
	return true, nil
}

func (s *stubCaptchaStore) Sweep(context.Context) (int, error) { return 0, nil }

func (s *stubCaptchaStore) Close() error { return nil }

// stubPublisher records published events.
type stubPublisher struct {
	mu         sync.Mutex
	registered []domain.UserRegisteredEvent
	logins     []domain.LoginEvent
}

func (p *stubPublisher) PublishUserRegistered(_ context.Context, event domain.UserRegisteredEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.registered = append(p.registered, event)
	return nil
}

func (p *stubPublisher) PublishLogin(_ context.Context, event domain.LoginEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logins = append(p.logins, event)
	return nil
}

// recordingProvider observes chain dispatch.
type recordingProvider struct {
	supports  bool
	called    bool
	principal domain.Principal
	err       error
}

func (p *recordingProvider) Supports(domain.Credential) bool {
	return p.supports
}

func (p *recordingProvider) Authenticate(context.Context, domain.Credential) (domain.Principal, error) {
	p.called = true
	if p.err != nil {
		return domain.Principal{}, p.err
	}
	return p.principal, nil
}

var (
	_ port.UserRepository = (*stubUserRepo)(nil)
	_ port.CaptchaStore   = (*stubCaptchaStore)(nil)
	_ port.EventPublisher = (*stubPublisher)(nil)
	_ port.AuthProvider   = (*recordingProvider)(nil)
)
