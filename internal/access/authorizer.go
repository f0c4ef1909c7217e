// Package access decides whether an authenticated caller may perform a
// role-gated operation.
//
// The caller identity always comes from a verified credential. The role it
// carries is ignored: every decision re-reads the user record so a demoted
// or blocked user loses access immediately, even with an unexpired token.
package access

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"blooddonation/internal/domain"
)

// Caller is the identity proven by a verified credential.
type Caller struct {
	ExternalID string
	Email      string
}

// UserLookup resolves the current user record for a caller.
type UserLookup interface {
	GetByExternalID(ctx context.Context, externalID string) (*domain.User, error)
}

// Authorizer resolves role and status freshly on every call.
type Authorizer struct {
	users  UserLookup
	logger zerolog.Logger
}

func NewAuthorizer(users UserLookup, logger zerolog.Logger) *Authorizer {
	return &Authorizer{users: users, logger: logger}
}

// Resolve loads the caller's current user record.
func (a *Authorizer) Resolve(ctx context.Context, caller Caller) (*domain.User, error) {
	if strings.TrimSpace(caller.ExternalID) == "" {
		return nil, domain.ErrUnauthorized
	}
	return a.users.GetByExternalID(ctx, caller.ExternalID)
}

// Authorize returns the caller's user record when their current role is in
// allowed and their account is active. It fails with domain.ErrNotFound for
// unknown identities and domain.ErrForbidden otherwise.
func (a *Authorizer) Authorize(ctx context.Context, caller Caller, allowed ...domain.UserRole) (*domain.User, error) {
	user, err := a.Resolve(ctx, caller)
	if err != nil {
		return nil, err
	}
	if !user.IsActive() {
		a.logger.Warn().Str("uid", caller.ExternalID).Msg("access denied: account blocked")
		return nil, domain.ErrForbidden
	}
	if !user.HasRole(allowed...) {
		a.logger.Warn().
			Str("uid", caller.ExternalID).
			Str("role", string(user.Role)).
			Msg("access denied: insufficient privileges")
		return nil, domain.ErrForbidden
	}
	return user, nil
}

// IsStaff reports whether u may act on other users' requests.
func IsStaff(u *domain.User) bool {
	return u != nil && u.IsActive() && u.HasRole(domain.UserRoleAdmin, domain.UserRoleVolunteer)
}
