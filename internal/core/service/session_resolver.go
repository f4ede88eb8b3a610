package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/casalinger/session-gateway/internal/core/domain"
	"github.com/casalinger/session-gateway/internal/core/ports"
	"github.com/casalinger/session-gateway/internal/pkg/metrics"
)

const (
	defaultLookupTimeout = 10 * time.Second
	cacheWriteTimeout    = 3 * time.Second
)

// ResolverOptions tunes the session resolver. Zero values select defaults.
type ResolverOptions struct {
	// LookupTimeout bounds a single profile lookup; an expired lookup counts as
	// failed and the sequence advances.
	LookupTimeout time.Duration
}

// resolution is one issued lookup sequence. Callers resolving the same session
// while it is in flight join it instead of issuing their own.
type resolution struct {
	seq    uint64
	key    string
	ctx    context.Context
	cancel context.CancelFunc
}

func (r *resolution) flightKey() string {
	return fmt.Sprintf("%s#%d", r.key, r.seq)
}

type sessionResolver struct {
	provider      ports.AuthProvider
	profiles      ports.ProfileClient
	cache         ports.ActorCache
	log           zerolog.Logger
	lookupTimeout time.Duration

	flights singleflight.Group

	mu        sync.Mutex
	issued    uint64 // sequence of the most recently issued resolution
	committed uint64 // sequence of the most recently committed resolution
	inflight  *resolution
	actor     domain.Actor
	hint      domain.Actor
	hasHint   bool
	settled   bool
	idle      chan struct{} // closed while nothing is pending
	subs      map[uint64]chan domain.Actor
	nextSub   uint64
}

// NewSessionResolver returns the process-wide resolver. Only the most
// recently issued resolution may commit; older ones report
// domain.ErrResolutionSuperseded and leave the cache untouched.
func NewSessionResolver(
	provider ports.AuthProvider,
	profiles ports.ProfileClient,
	cache ports.ActorCache,
	opts ResolverOptions,
	log zerolog.Logger,
) ports.SessionResolver {
	if opts.LookupTimeout <= 0 {
		opts.LookupTimeout = defaultLookupTimeout
	}
	idle := make(chan struct{})
	close(idle)
	return &sessionResolver{
		provider:      provider,
		profiles:      profiles,
		cache:         cache,
		log:           log,
		lookupTimeout: opts.LookupTimeout,
		actor:         domain.Guest(),
		hint:          domain.Guest(),
		idle:          idle,
		subs:          make(map[uint64]chan domain.Actor),
	}
}

// Resolve converts session into the current actor. A nil session, or one
// without a bearer token, resolves to Guest and clears the cache.
func (r *sessionResolver) Resolve(ctx context.Context, session *domain.ProviderSession) (domain.Actor, error) {
	return r.await(ctx, r.issue(session))
}

func (r *sessionResolver) Enqueue(event domain.SessionEvent) <-chan ports.Outcome {
	ch := r.issue(r.eventSession(event))
	out := make(chan ports.Outcome, 1)
	go func() {
		res := <-ch
		actor, _ := res.Val.(domain.Actor)
		out <- ports.Outcome{Actor: actor, Err: res.Err}
	}()
	return out
}

func (r *sessionResolver) eventSession(event domain.SessionEvent) *domain.ProviderSession {
	metrics.ProviderEventsTotal.WithLabelValues(string(event.Type)).Inc()
	r.log.Debug().Str("event", string(event.Type)).Msg("provider session event")
	if event.Type == domain.SessionSignedOut {
		return nil
	}
	return event.Session
}

// issue starts, or joins, the resolution for session. Sequence numbers are
// assigned before issue returns.
func (r *sessionResolver) issue(session *domain.ProviderSession) <-chan singleflight.Result {
	if session == nil || session.AccessToken == "" {
		ch := make(chan singleflight.Result, 1)
		ch <- singleflight.Result{Val: r.replace(domain.Guest())}
		return ch
	}

	res := r.begin(session.Fingerprint())
	token := session.AccessToken
	return r.flights.DoChan(res.flightKey(), func() (any, error) {
		actor := r.lookup(res.ctx, res.key, token)
		return r.commit(res.seq, actor)
	})
}

func (r *sessionResolver) await(ctx context.Context, ch <-chan singleflight.Result) (domain.Actor, error) {
	select {
	case out := <-ch:
		actor, _ := out.Val.(domain.Actor)
		return actor, out.Err
	case <-ctx.Done():
		return r.Snapshot().Actor, ctx.Err()
	}
}

// Refresh re-resolves from the provider's current session.
func (r *sessionResolver) Refresh(ctx context.Context) (domain.Actor, error) {
	session, err := r.provider.CurrentSession(ctx)
	if err != nil {
		return r.Snapshot().Actor, fmt.Errorf("refresh session: %w", err)
	}
	return r.Resolve(ctx, session)
}

// Restore loads the cached actor as a hint for first paint. It performs no
// network lookups and is ignored once a live resolution has committed.
func (r *sessionResolver) Restore(ctx context.Context) (domain.Actor, bool) {
	actor, ok := r.cache.Read(ctx)
	if !ok {
		return domain.Guest(), false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.settled {
		return r.actor, false
	}
	r.hint = actor
	r.hasHint = true
	return actor, true
}

// SetActor commits actor directly, as login and onboarding completion do.
// Any in-flight resolution is superseded.
func (r *sessionResolver) SetActor(_ context.Context, actor domain.Actor) domain.Actor {
	return r.replace(actor)
}

// Logout commits Guest, clears the cache and signs out of the provider.
func (r *sessionResolver) Logout(ctx context.Context) error {
	r.replace(domain.Guest())

	if err := r.provider.SignOut(ctx); err != nil {
		return fmt.Errorf("logout: provider sign-out: %w", err)
	}
	r.log.Info().Msg("actor logged out")
	return nil
}

func (r *sessionResolver) Snapshot() ports.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	resolving := false
	select {
	case <-r.idle:
	default:
		resolving = true
	}
	return ports.Snapshot{
		Actor:     r.actor,
		Hint:      r.hint,
		HasHint:   r.hasHint,
		Settled:   r.settled,
		Resolving: resolving,
	}
}

// Subscribe returns a channel that always holds the latest committed actor
// not yet received; intermediate values may be skipped. The returned func
// must be called to release the subscription.
func (r *sessionResolver) Subscribe() (<-chan domain.Actor, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextSub
	r.nextSub++
	ch := make(chan domain.Actor, 1)
	r.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			delete(r.subs, id)
			close(ch)
		})
	}
}

// Wait blocks until no resolution is pending and returns the committed actor.
func (r *sessionResolver) Wait(ctx context.Context) (domain.Actor, error) {
	r.mu.Lock()
	idle := r.idle
	r.mu.Unlock()

	select {
	case <-idle:
		return r.Snapshot().Actor, nil
	case <-ctx.Done():
		return r.Snapshot().Actor, ctx.Err()
	}
}

// begin issues a resolution for key, or joins the in-flight one when it is
// still the latest and looks up the same session.
func (r *sessionResolver) begin(key string) *resolution {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.inflight != nil && r.inflight.key == key && r.inflight.seq == r.issued {
		return r.inflight
	}
	seq := r.supersedeLocked()
	ctx, cancel := context.WithCancel(context.Background())
	r.inflight = &resolution{seq: seq, key: key, ctx: ctx, cancel: cancel}
	r.markPendingLocked()
	return r.inflight
}

// supersedeLocked issues a new sequence number and aborts the in-flight
// lookups, whose result could no longer commit.
func (r *sessionResolver) supersedeLocked() uint64 {
	if r.inflight != nil {
		r.inflight.cancel()
		r.inflight = nil
	}
	r.issued++
	return r.issued
}

func (r *sessionResolver) markPendingLocked() {
	select {
	case <-r.idle:
		r.idle = make(chan struct{})
	default:
	}
}

// replace supersedes any in-flight resolution and commits actor in one step.
func (r *sessionResolver) replace(actor domain.Actor) domain.Actor {
	r.mu.Lock()
	defer r.mu.Unlock()
	committed, _ := r.commitLocked(r.supersedeLocked(), actor)
	return committed
}

// commit makes actor the live value if seq is still the latest issued
// sequence. The cache is written under mu so writes land in issue order.
func (r *sessionResolver) commit(seq uint64, actor domain.Actor) (domain.Actor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.commitLocked(seq, actor)
}

func (r *sessionResolver) commitLocked(seq uint64, actor domain.Actor) (domain.Actor, error) {
	if seq != r.issued {
		metrics.ResolutionsTotal.WithLabelValues("superseded").Inc()
		r.log.Debug().Uint64("seq", seq).Uint64("latest", r.issued).Msg("discarding superseded resolution")
		return r.actor, domain.ErrResolutionSuperseded
	}
	if seq <= r.committed {
		return r.actor, nil
	}
	r.committed = seq
	if r.inflight != nil && r.inflight.seq == seq {
		r.inflight.cancel()
		r.inflight = nil
	}

	r.persistLocked(actor)

	changed := !r.settled || !r.actor.Equal(actor)
	r.actor = actor
	r.settled = true
	r.hint = domain.Guest()
	r.hasHint = false
	select {
	case <-r.idle:
	default:
		close(r.idle)
	}

	outcome := string(domain.KindGuest)
	if role, ok := domain.RoleOf(actor); ok {
		outcome = string(role)
	}
	metrics.ResolutionsTotal.WithLabelValues(outcome).Inc()

	if changed {
		r.log.Info().Stringer("actor", actor).Uint64("seq", seq).Msg("current actor changed")
		r.notifyLocked(actor)
	}
	return actor, nil
}

func (r *sessionResolver) persistLocked(actor domain.Actor) {
	ctx, cancel := context.WithTimeout(context.Background(), cacheWriteTimeout)
	defer cancel()

	var err error
	if domain.IsAuthenticated(actor) {
		err = r.cache.Write(ctx, actor)
	} else {
		err = r.cache.Clear(ctx)
	}
	if err != nil {
		r.log.Warn().Err(err).Msg("actor cache update failed")
	}
}

func (r *sessionResolver) notifyLocked(actor domain.Actor) {
	for _, ch := range r.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- actor:
		default:
		}
	}
}

// lookup tries each role in domain.LookupOrder, one at a time, and stops at the
// first profile found. No lookup failure escapes: not-found, errors and
// timeouts all advance to the next role.
func (r *sessionResolver) lookup(ctx context.Context, fingerprint, token string) domain.Actor {
	for _, role := range domain.LookupOrder {
		if ctx.Err() != nil {
			return domain.Guest()
		}

		profile, err := r.fetch(ctx, role, token)
		switch {
		case err == nil:
			return domain.Authenticated(profile)
		case ctx.Err() != nil:
			return domain.Guest()
		case errors.Is(err, domain.ErrProfileNotFound):
			r.log.Debug().Str("role", string(role)).Str("session", fingerprint).Msg("no profile for role")
		default:
			r.log.Warn().Err(err).Str("role", string(role)).Str("session", fingerprint).Msg("profile lookup failed")
		}
	}

	r.log.Info().Str("session", fingerprint).Msg("session has no role profile, resolving as guest")
	return domain.Guest()
}

func (r *sessionResolver) fetch(ctx context.Context, role domain.Role, token string) (domain.RoleProfile, error) {
	pctx, cancel := context.WithTimeout(ctx, r.lookupTimeout)
	defer cancel()

	start := time.Now()
	profile, err := r.profiles.FetchProfile(pctx, role, token)
	metrics.LookupDuration.WithLabelValues(string(role)).Observe(time.Since(start).Seconds())

	result := "found"
	switch {
	case err == nil && profile == nil:
		err = fmt.Errorf("%w: empty %s profile", domain.ErrMalformedProfile, role)
		result = "error"
	case err == nil:
	case errors.Is(err, domain.ErrProfileNotFound):
		result = "not_found"
	case errors.Is(pctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		result = "timeout"
	default:
		result = "error"
	}
	metrics.LookupsTotal.WithLabelValues(string(role), result).Inc()
	return profile, err
}
