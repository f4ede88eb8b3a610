package ports

import (
	"context"

	"github.com/casalinger/session-gateway/internal/core/domain"
)

// ProfileClient fetches the bearer's profile for one role. A missing profile
// is reported as domain.ErrProfileNotFound.
type ProfileClient interface {
	FetchProfile(ctx context.Context, role domain.Role, bearer string) (domain.RoleProfile, error)
}
