package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestAuthenticated_NilProfileIsGuest(t *testing.T) {
	var agent *AgentProfile
	if IsAuthenticated(Authenticated(agent)) {
		t.Fatalf("typed nil profile must yield guest")
	}
	if IsAuthenticated(Authenticated(nil)) {
		t.Fatalf("nil profile must yield guest")
	}
	if IsAuthenticated(Actor{}) {
		t.Fatalf("zero actor must be guest")
	}
}

func TestRoleOf(t *testing.T) {
	if _, ok := RoleOf(Guest()); ok {
		t.Fatalf("guest has no role")
	}
	role, ok := RoleOf(Authenticated(&AdminProfile{ID: "1"}))
	if !ok || role != RoleAdmin {
		t.Fatalf("expected admin, got %s (ok=%v)", role, ok)
	}
}

func TestActorJSON(t *testing.T) {
	agent := Authenticated(&AgentProfile{ID: "9", Name: "Ana", Languages: []string{"pt"}})

	data, err := json.Marshal(agent)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"kind":"authenticated"`) || !strings.Contains(string(data), `"role":"agent"`) {
		t.Fatalf("unexpected encoding %s", data)
	}

	var back Actor
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(agent) {
		t.Fatalf("round trip mismatch: %s vs %s", back, agent)
	}

	data, _ = json.Marshal(Guest())
	if string(data) != `{"kind":"guest"}` {
		t.Fatalf("unexpected guest encoding %s", data)
	}
}

func TestActorEqual(t *testing.T) {
	a := Authenticated(&RenterProfile{ID: "1", Name: "Rui"})
	b := Authenticated(&RenterProfile{ID: "1", Name: "Rui"})
	c := Authenticated(&RenterProfile{ID: "1", Name: "Rui M."})

	if !a.Equal(b) || a.Equal(c) || a.Equal(Guest()) || !Guest().Equal(Actor{}) {
		t.Fatalf("unexpected equality results")
	}
}

func TestProviderSession(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := &ProviderSession{AccessToken: "abc", ExpiresAt: now.Add(time.Minute)}
	if !s.Active(now) || s.Active(now.Add(2*time.Minute)) {
		t.Fatalf("unexpected Active result")
	}

	var nilSession *ProviderSession
	if nilSession.Active(now) || nilSession.Fingerprint() != "" {
		t.Fatalf("nil session must be inactive with no fingerprint")
	}

	same := &ProviderSession{AccessToken: "abc"}
	other := &ProviderSession{AccessToken: "abd"}
	if s.Fingerprint() != same.Fingerprint() || s.Fingerprint() == other.Fingerprint() {
		t.Fatalf("fingerprint must depend on the token only")
	}
	if strings.Contains(s.Fingerprint(), "abc") || len(s.Fingerprint()) != 24 {
		t.Fatalf("unexpected fingerprint %q", s.Fingerprint())
	}
}
