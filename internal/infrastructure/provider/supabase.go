package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/casalinger/session-gateway/internal/core/domain"
)

const subscriberBuffer = 16

// supabaseClaims is the subset of a Supabase access token the gateway reads.
type supabaseClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type subscriber struct {
	ch   chan domain.SessionEvent
	done chan struct{}
}

// SupabaseProvider holds the session the shell reported from Supabase Auth
// and fans lifecycle events out to subscribers. Access tokens are verified
// with the project's JWT secret before they are accepted.
type SupabaseProvider struct {
	secret []byte
	log    zerolog.Logger
	now    func() time.Time

	// pubMu orders publishes: subscribers see events in the order the
	// session was stored.
	pubMu sync.Mutex

	mu      sync.Mutex
	session *domain.ProviderSession
	subs    map[uint64]*subscriber
	nextSub uint64
}

func NewSupabaseProvider(jwtSecret string, log zerolog.Logger) *SupabaseProvider {
	return &SupabaseProvider{
		secret: []byte(jwtSecret),
		log:    log,
		now:    time.Now,
		subs:   make(map[uint64]*subscriber),
	}
}

// Verify parses an HS256 access token into a provider session. Any signature,
// expiry or claim problem is reported as domain.ErrInvalidSession.
func (p *SupabaseProvider) Verify(accessToken string) (*domain.ProviderSession, error) {
	claims := &supabaseClaims{}
	tkn, err := jwt.ParseWithClaims(accessToken, claims, func(token *jwt.Token) (interface{}, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil || !tkn.Valid {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSession, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", domain.ErrInvalidSession)
	}

	return &domain.ProviderSession{
		AccessToken: accessToken,
		Subject:     claims.Subject,
		Email:       claims.Email,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}

// CurrentSession returns the last reported session, or nil when there is
// none or it has expired.
func (p *SupabaseProvider) CurrentSession(_ context.Context) (*domain.ProviderSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.session.Active(p.now()) {
		return nil, nil
	}
	s := *p.session
	return &s, nil
}

// Subscribe registers for session events. Events are delivered in publish
// order; the returned func stops delivery.
func (p *SupabaseProvider) Subscribe() (<-chan domain.SessionEvent, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextSub
	p.nextSub++
	sub := &subscriber{
		ch:   make(chan domain.SessionEvent, subscriberBuffer),
		done: make(chan struct{}),
	}
	p.subs[id] = sub

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, id)
			p.mu.Unlock()
			close(sub.done)
		})
	}
}

// Publish records the event's session as current and delivers the event to
// every subscriber. A signed_out event clears the session. Concurrent
// publishes are serialized, so the last event delivered always matches
// CurrentSession.
func (p *SupabaseProvider) Publish(ctx context.Context, event domain.SessionEvent) error {
	if !event.Type.Valid() {
		return fmt.Errorf("unknown session event %q", event.Type)
	}
	if event.Type == domain.SessionSignedOut {
		event.Session = nil
	} else if event.Session == nil {
		return fmt.Errorf("%w: %s event without a session", domain.ErrInvalidSession, event.Type)
	}

	p.pubMu.Lock()
	defer p.pubMu.Unlock()

	p.mu.Lock()
	p.session = event.Session
	subs := make([]*subscriber, 0, len(p.subs))
	for _, s := range p.subs {
		subs = append(subs, s)
	}
	p.mu.Unlock()

	p.log.Debug().Str("event", string(event.Type)).Int("subscribers", len(subs)).Msg("publishing session event")
	for _, s := range subs {
		select {
		case s.ch <- event:
		case <-s.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// SignOut drops the current session and publishes signed_out.
func (p *SupabaseProvider) SignOut(ctx context.Context) error {
	return p.Publish(ctx, domain.SessionEvent{Type: domain.SessionSignedOut})
}
