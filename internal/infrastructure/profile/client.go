package profile

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/casalinger/session-gateway/internal/core/domain"
	"github.com/casalinger/session-gateway/internal/core/ports"
)

const maxProfileBody = 1 << 20

// rolePaths are the backend endpoints returning the caller's profile for
// each role. Renters are "users" on the backend.
var rolePaths = map[domain.Role]string{
	domain.RoleAgent:  "/api/agent/profile",
	domain.RoleRenter: "/api/user/profile",
	domain.RoleAdmin:  "/api/admin/profile",
}

// Client looks up role profiles on the CasaLinger backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
	log        zerolog.Logger
}

// NewClient returns a profile client for the backend at baseURL. Timeouts
// come from the caller's context.
func NewClient(httpClient *http.Client, baseURL string, log zerolog.Logger) ports.ProfileClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		log:        log,
	}
}

// FetchProfile returns the role profile owned by the bearer token.
// A 404 yields domain.ErrProfileNotFound; any other failure wraps
// domain.ErrProfileUnavailable.
func (c *Client) FetchProfile(ctx context.Context, role domain.Role, bearer string) (domain.RoleProfile, error) {
	path, ok := rolePaths[role]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownRole, role)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build %s profile request: %w", role, err)
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s profile: %w", domain.ErrProfileUnavailable, role, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.ErrProfileNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		c.log.Debug().Str("role", string(role)).Int("status", resp.StatusCode).Msg("profile endpoint returned an error status")
		return nil, fmt.Errorf("%w: %s profile: status %d", domain.ErrProfileUnavailable, role, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProfileBody))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s profile: %w", domain.ErrProfileUnavailable, role, err)
	}
	profile, err := domain.DecodeProfile(role, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrProfileUnavailable, err)
	}
	return profile, nil
}
