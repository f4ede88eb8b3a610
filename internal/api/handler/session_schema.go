package handler

import (
	"encoding/json"

	"github.com/casalinger/session-gateway/internal/core/domain"
	"github.com/casalinger/session-gateway/internal/core/ports"
)

type sessionEventRequest struct {
	Type string `json:"type" validate:"required,oneof=signed_in signed_out token_refreshed"`
}

// setActorRequest carries a profile the caller just fetched from the backend,
// after login or onboarding completion.
type setActorRequest struct {
	Role    string          `json:"role" validate:"required,oneof=agent renter user admin"`
	Profile json.RawMessage `json:"profile" validate:"required" swaggertype:"object"`
}

type guardRequest struct {
	Path string `query:"path" validate:"required,startswith=/"`
	Wait bool   `query:"wait"`
}

// actorView is the public shape of an actor: who, never the profile.
type actorView struct {
	Kind domain.ActorKind `json:"kind"`
	Role domain.Role      `json:"role,omitempty"`
}

func toActorView(actor domain.Actor) actorView {
	role, _ := domain.RoleOf(actor)
	return actorView{Kind: actor.Kind(), Role: role}
}

type sessionResponse struct {
	Actor     actorView       `json:"actor"`
	Hint      *actorView      `json:"hint,omitempty"`
	Settled   bool            `json:"settled"`
	Resolving bool            `json:"resolving"`
	Idle      ports.IdleState `json:"idle"`
}

type decisionResponse struct {
	domain.Decision
	Location string `json:"location,omitempty"`
}

type profileResponse struct {
	Role    domain.Role        `json:"role"`
	Profile domain.RoleProfile `json:"profile"`
}

type permissionsResponse struct {
	Permissions []string `json:"permissions"`
}

type logoutResponse struct {
	Redirect string `json:"redirect"`
}

type acceptedResponse struct {
	Message string `json:"message"`
}

func toSessionResponse(snap ports.Snapshot, idle ports.IdleState) sessionResponse {
	resp := sessionResponse{
		Actor:     toActorView(snap.Actor),
		Settled:   snap.Settled,
		Resolving: snap.Resolving,
		Idle:      idle,
	}
	if snap.HasHint {
		hint := toActorView(snap.Hint)
		resp.Hint = &hint
	}
	return resp
}
