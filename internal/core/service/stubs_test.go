package service

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/casalinger/session-gateway/internal/core/domain"
	"github.com/casalinger/session-gateway/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubProvider struct {
	mu       sync.Mutex
	session  *domain.ProviderSession
	err      error
	signOuts int
}

func (p *stubProvider) CurrentSession(_ context.Context) (*domain.ProviderSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session, p.err
}

func (p *stubProvider) Subscribe() (<-chan domain.SessionEvent, func()) {
	return make(chan domain.SessionEvent), func() {}
}

func (p *stubProvider) SignOut(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signOuts++
	p.session = nil
	return nil
}

type lookupFunc func(ctx context.Context, token string) (domain.RoleProfile, error)

type stubProfiles struct {
	mu     sync.Mutex
	calls  []domain.Role
	byRole map[domain.Role]lookupFunc
}

func newStubProfiles() *stubProfiles {
	return &stubProfiles{byRole: make(map[domain.Role]lookupFunc)}
}

func (s *stubProfiles) on(role domain.Role, fn lookupFunc) *stubProfiles {
	s.byRole[role] = fn
	return s
}

func (s *stubProfiles) FetchProfile(ctx context.Context, role domain.Role, bearer string) (domain.RoleProfile, error) {
	s.mu.Lock()
	s.calls = append(s.calls, role)
	fn := s.byRole[role]
	s.mu.Unlock()
	if fn == nil {
		return nil, domain.ErrProfileNotFound
	}
	return fn(ctx, bearer)
}

func (s *stubProfiles) callLog() []domain.Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Role(nil), s.calls...)
}

func (s *stubProfiles) count(role domain.Role) int {
	n := 0
	for _, r := range s.callLog() {
		if r == role {
			n++
		}
	}
	return n
}

func found(p domain.RoleProfile) lookupFunc {
	return func(context.Context, string) (domain.RoleProfile, error) { return p, nil }
}

func failing(err error) lookupFunc {
	return func(context.Context, string) (domain.RoleProfile, error) { return nil, err }
}

// blocking returns a lookup that signals started, then waits for release or
// for its context to end.
func blocking(p domain.RoleProfile, started chan<- struct{}, release <-chan struct{}) lookupFunc {
	return func(ctx context.Context, _ string) (domain.RoleProfile, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		select {
		case <-release:
			return p, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

type memStore struct {
	mu     sync.Mutex
	values map[string]string
	err    error
}

func newMemStore() *memStore {
	return &memStore{values: make(map[string]string)}
}

func (s *memStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", false, s.err
	}
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *memStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.values[key] = value
	return nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	delete(s.values, key)
	return nil
}

func (s *memStore) Ping(context.Context) error { return s.err }

// recordingCache wraps a real actor cache and logs every mutation.
type recordingCache struct {
	ports.ActorCache
	mu  sync.Mutex
	ops []string
}

func (c *recordingCache) Write(ctx context.Context, actor domain.Actor) error {
	c.mu.Lock()
	c.ops = append(c.ops, "write:"+actor.String())
	c.mu.Unlock()
	return c.ActorCache.Write(ctx, actor)
}

func (c *recordingCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.ops = append(c.ops, "clear")
	c.mu.Unlock()
	return c.ActorCache.Clear(ctx)
}

func (c *recordingCache) log() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.ops...)
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

var errBackendDown = errors.New("dial tcp 127.0.0.1:5000: connect: connection refused")

func agentProfile(id string) *domain.AgentProfile {
	return &domain.AgentProfile{ID: domain.ProfileID(id), Name: "Agent " + id, OnboardingComplete: true, Specialty: "rental"}
}

func renterProfile(id string) *domain.RenterProfile {
	return &domain.RenterProfile{ID: domain.ProfileID(id), Name: "Renter " + id, OnboardingComplete: true}
}

func adminProfile(id string) *domain.AdminProfile {
	return &domain.AdminProfile{ID: domain.ProfileID(id), FullName: "Admin " + id, Permissions: []string{"feature_properties"}}
}

func session(token string) *domain.ProviderSession {
	return &domain.ProviderSession{AccessToken: token, Subject: "sub-" + token}
}

type fixture struct {
	provider *stubProvider
	profiles *stubProfiles
	store    *memStore
	cache    *recordingCache
	resolver *sessionResolver
}

func newFixture(profiles *stubProfiles, opts ResolverOptions) *fixture {
	store := newMemStore()
	cache := &recordingCache{ActorCache: NewActorCache(store, zerolog.Nop())}
	provider := &stubProvider{}
	r := NewSessionResolver(provider, profiles, cache, opts, zerolog.Nop()).(*sessionResolver)
	return &fixture{provider: provider, profiles: profiles, store: store, cache: cache, resolver: r}
}

func (f *fixture) cached() (domain.Actor, bool) {
	return f.cache.Read(context.Background())
}
