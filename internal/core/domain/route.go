package domain

import "net/url"

const (
	LoginPath      = "/login"
	AgentLoginPath = "/agent/login"
	AdminLoginPath = "/admin/login"

	AgentPathPrefix = "/agent/"
	AdminPathPrefix = "/admin/"
)

// LoginPathFor is where actor lands after logging out. Agents return to the
// agent login page, everyone else to the general one.
func LoginPathFor(actor Actor) string {
	if role, ok := RoleOf(actor); ok && role == RoleAgent {
		return AgentLoginPath
	}
	return LoginPath
}

// DecisionKind is the outcome of a route check.
type DecisionKind string

const (
	DecisionAllow    DecisionKind = "allow"
	DecisionRedirect DecisionKind = "redirect"
	// DecisionPending means the actor is still being resolved; the shell
	// shows a neutral "checking authentication" state.
	DecisionPending DecisionKind = "pending"
	// DecisionTimeout means resolution did not finish in time; the shell
	// offers a retry instead of waiting forever.
	DecisionTimeout DecisionKind = "timeout"
)

// Decision is returned by the route guard. From is the originally requested
// path so the login flow can return the user to it.
type Decision struct {
	Kind   DecisionKind `json:"decision"`
	Target string       `json:"target,omitempty"`
	From   string       `json:"from,omitempty"`
}

func Allow() Decision { return Decision{Kind: DecisionAllow} }

func Redirect(target, from string) Decision {
	return Decision{Kind: DecisionRedirect, Target: target, From: from}
}

// Location renders a redirect as a URL carrying the intended destination in
// the "from" query parameter. Empty for non-redirect decisions.
func (d Decision) Location() string {
	if d.Kind != DecisionRedirect {
		return ""
	}
	if d.From == "" {
		return d.Target
	}
	return d.Target + "?from=" + url.QueryEscape(d.From)
}
