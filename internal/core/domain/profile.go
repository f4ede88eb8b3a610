package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Role is one of the three mutually exclusive authenticated roles.
type Role string

const (
	RoleAgent  Role = "agent"
	RoleRenter Role = "renter"
	RoleAdmin  Role = "admin"
)

// LookupOrder is the precedence used when resolving a session. An identity
// provisioned under several roles resolves to the first one listed.
var LookupOrder = []Role{RoleAgent, RoleRenter, RoleAdmin}

// ParseRole maps a stored or user-supplied role name onto a Role.
// "user" is accepted as the backend's name for renters.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "agent":
		return RoleAgent, nil
	case "renter", "user":
		return RoleRenter, nil
	case "admin":
		return RoleAdmin, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// ProfileID is the backend's profile identifier. The backend emits it as a
// JSON number for some roles and as a string for others.
type ProfileID string

func (id *ProfileID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ProfileID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("profile id: %w", err)
	}
	*id = ProfileID(n.String())
	return nil
}

// StringList decodes a list the backend may send as a JSON array, as a
// string holding a JSON array (admin permissions are stored as dumped JSON)
// or as a comma-separated string (agent languages).
type StringList []string

func (l *StringList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*l = nil
		return nil
	}
	if len(b) > 0 && b[0] == '[' {
		var items []string
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		*l = items
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("string list: %w", err)
	}
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") {
		var items []string
		if err := json.Unmarshal([]byte(s), &items); err != nil {
			return fmt.Errorf("string list: %w", err)
		}
		*l = items
		return nil
	}
	var items []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	*l = items
	return nil
}

// RoleProfile is implemented by AgentProfile, RenterProfile and AdminProfile.
type RoleProfile interface {
	Role() Role
	ProfileID() ProfileID
	// Subject is the auth-provider subject the record belongs to, empty
	// when the backend did not send it.
	Subject() string
	DisplayName() string
	Onboarded() bool
}

// AgentProfile is the backend's agent record.
type AgentProfile struct {
	ID                 ProfileID  `json:"id"`
	Name               string     `json:"name"`
	Email              string     `json:"email,omitempty"`
	ProviderID         string     `json:"supabase_id,omitempty"`
	OnboardingComplete bool       `json:"onboarding_complete"`
	Phone              string     `json:"phone,omitempty"`
	AgentType          string     `json:"agent_type,omitempty"`
	Specialty          string     `json:"specialty,omitempty"`
	Languages          StringList `json:"languages,omitempty"`
	BusinessAddress    string     `json:"address,omitempty"`
	PhotoURL           string     `json:"photo_url,omitempty"`
}

func (p *AgentProfile) Role() Role           { return RoleAgent }
func (p *AgentProfile) ProfileID() ProfileID { return p.ID }
func (p *AgentProfile) Subject() string      { return p.ProviderID }
func (p *AgentProfile) DisplayName() string  { return p.Name }
func (p *AgentProfile) Onboarded() bool      { return p.OnboardingComplete }

// RenterProfile is the backend's user record for people looking to rent.
type RenterProfile struct {
	ID                 ProfileID       `json:"id"`
	Name               string          `json:"name"`
	Email              string          `json:"email,omitempty"`
	ProviderID         string          `json:"supabase_id,omitempty"`
	OnboardingComplete bool            `json:"onboarding_complete"`
	Phone              string          `json:"phone,omitempty"`
	Preferences        json.RawMessage `json:"preferences,omitempty"`
}

func (p *RenterProfile) Role() Role           { return RoleRenter }
func (p *RenterProfile) ProfileID() ProfileID { return p.ID }
func (p *RenterProfile) Subject() string      { return p.ProviderID }
func (p *RenterProfile) DisplayName() string  { return p.Name }
func (p *RenterProfile) Onboarded() bool      { return p.OnboardingComplete }

// AdminProfile is the backend's admin record. The backend keys admins by
// their provider subject and sends no id of its own.
type AdminProfile struct {
	ID                 ProfileID  `json:"id,omitempty"`
	Name               string     `json:"name,omitempty"`
	FullName           string     `json:"full_name,omitempty"`
	Email              string     `json:"email,omitempty"`
	ProviderID         string     `json:"supabase_id,omitempty"`
	AdminRole          string     `json:"role,omitempty"`
	IsActive           bool       `json:"is_active"`
	OnboardingComplete bool       `json:"onboarding_complete"`
	Permissions        StringList `json:"permissions,omitempty"`
}

func (p *AdminProfile) Role() Role      { return RoleAdmin }
func (p *AdminProfile) Subject() string { return p.ProviderID }
func (p *AdminProfile) Onboarded() bool { return p.OnboardingComplete }

// ProfileID falls back to the provider subject when the record has no id.
func (p *AdminProfile) ProfileID() ProfileID {
	if p.ID != "" {
		return p.ID
	}
	return ProfileID(p.ProviderID)
}

// DisplayName prefers name and falls back to full_name, which is the only
// field older admin records carry.
func (p *AdminProfile) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.FullName
}

// DecodeProfile parses a profile body for role. A body that is not a JSON
// object or carries no identifier is rejected with ErrMalformedProfile.
func DecodeProfile(role Role, data []byte) (RoleProfile, error) {
	var p RoleProfile
	switch role {
	case RoleAgent:
		p = &AgentProfile{}
	case RoleRenter:
		p = &RenterProfile{}
	case RoleAdmin:
		p = &AdminProfile{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: %s body is not an object", ErrMalformedProfile, role)
	}
	if err := json.Unmarshal(trimmed, p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedProfile, err)
	}
	if p.ProfileID() == "" {
		return nil, fmt.Errorf("%w: %s profile has no id", ErrMalformedProfile, role)
	}
	return p, nil
}
