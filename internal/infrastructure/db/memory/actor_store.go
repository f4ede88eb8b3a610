// Package memory is a process-local ActorStore for development and for
// deployments that do not need the actor to survive a restart.
package memory

import (
	"context"
	"sync"

	"github.com/casalinger/session-gateway/internal/core/ports"
)

type ActorStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewActorStore() ports.ActorStore {
	return &ActorStore{values: make(map[string]string)}
}

func (s *ActorStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *ActorStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
	return nil
}

func (s *ActorStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.values, key)
	s.mu.Unlock()
	return nil
}

func (s *ActorStore) Ping(context.Context) error { return nil }
