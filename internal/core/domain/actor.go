package domain

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// ActorKind tags the Actor union.
type ActorKind string

const (
	KindGuest         ActorKind = "guest"
	KindAuthenticated ActorKind = "authenticated"
)

// Actor is the normalized "who is using the app right now": either a guest
// or an authenticated identity holding exactly one role profile.
// The zero value is a guest.
type Actor struct {
	profile RoleProfile
}

// Guest returns the unauthenticated actor.
func Guest() Actor { return Actor{} }

// Authenticated wraps profile. The role is taken from the profile so the two
// can never disagree; a nil profile yields Guest.
func Authenticated(profile RoleProfile) Actor {
	if profile == nil {
		return Guest()
	}
	if v := reflect.ValueOf(profile); v.Kind() == reflect.Pointer && v.IsNil() {
		return Guest()
	}
	return Actor{profile: profile}
}

// Kind returns the union tag.
func (a Actor) Kind() ActorKind {
	if a.profile == nil {
		return KindGuest
	}
	return KindAuthenticated
}

// Profile returns the role profile, or nil for a guest.
func (a Actor) Profile() RoleProfile { return a.profile }

// Equal reports whether a and b describe the same actor.
func (a Actor) Equal(b Actor) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	if a.profile == nil {
		return true
	}
	return a.profile.Role() == b.profile.Role() && reflect.DeepEqual(a.profile, b.profile)
}

func (a Actor) String() string {
	if a.profile == nil {
		return string(KindGuest)
	}
	return fmt.Sprintf("%s(%s)", a.profile.Role(), a.profile.ProfileID())
}

// IsAuthenticated is the single authentication check every caller uses.
func IsAuthenticated(a Actor) bool {
	return a.Kind() == KindAuthenticated
}

// RoleOf returns the actor's role; ok is false for a guest.
func RoleOf(a Actor) (role Role, ok bool) {
	if a.profile == nil {
		return "", false
	}
	return a.profile.Role(), true
}

type actorJSON struct {
	Kind    ActorKind       `json:"kind"`
	Role    Role            `json:"role,omitempty"`
	Profile json.RawMessage `json:"profile,omitempty"`
}

func (a Actor) MarshalJSON() ([]byte, error) {
	if a.profile == nil {
		return json.Marshal(actorJSON{Kind: KindGuest})
	}
	raw, err := json.Marshal(a.profile)
	if err != nil {
		return nil, fmt.Errorf("marshal %s profile: %w", a.profile.Role(), err)
	}
	return json.Marshal(actorJSON{Kind: KindAuthenticated, Role: a.profile.Role(), Profile: raw})
}

func (a *Actor) UnmarshalJSON(b []byte) error {
	var aj actorJSON
	if err := json.Unmarshal(b, &aj); err != nil {
		return err
	}
	switch aj.Kind {
	case KindGuest:
		*a = Guest()
		return nil
	case KindAuthenticated:
		role, err := ParseRole(string(aj.Role))
		if err != nil {
			return err
		}
		profile, err := DecodeProfile(role, aj.Profile)
		if err != nil {
			return err
		}
		*a = Authenticated(profile)
		return nil
	}
	return fmt.Errorf("unknown actor kind %q", aj.Kind)
}
