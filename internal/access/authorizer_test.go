package access

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blooddonation/internal/adapter/memory"
	"blooddonation/internal/domain"
)

func seed(t *testing.T, users *memory.UserRepository, uid string, role domain.UserRole, status domain.UserStatus) {
	t.Helper()
	require.NoError(t, users.Create(context.Background(), &domain.User{
		ExternalID: uid,
		Email:      uid + "@example.com",
		Role:       role,
		Status:     status,
	}))
}

func TestAuthorizeAdminListing(t *testing.T) {
	users := memory.NewUserRepository()
	seed(t, users, "donor", domain.UserRoleDonor, domain.UserStatusActive)
	seed(t, users, "vol", domain.UserRoleVolunteer, domain.UserStatusActive)
	seed(t, users, "admin", domain.UserRoleAdmin, domain.UserStatusActive)
	authz := NewAuthorizer(users, zerolog.Nop())
	ctx := context.Background()

	_, err := authz.Authorize(ctx, Caller{ExternalID: "donor"}, domain.UserRoleAdmin, domain.UserRoleVolunteer)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	for _, uid := range []string{"vol", "admin"} {
		u, err := authz.Authorize(ctx, Caller{ExternalID: uid}, domain.UserRoleAdmin, domain.UserRoleVolunteer)
		require.NoError(t, err, uid)
		assert.Equal(t, uid, u.ExternalID)
	}
}

func TestAuthorizeUsesCurrentRole(t *testing.T) {
	users := memory.NewUserRepository()
	seed(t, users, "admin", domain.UserRoleAdmin, domain.UserStatusActive)
	authz := NewAuthorizer(users, zerolog.Nop())
	ctx := context.Background()

	_, err := authz.Authorize(ctx, Caller{ExternalID: "admin"}, domain.UserRoleAdmin)
	require.NoError(t, err)

	require.NoError(t, users.UpdateRole(ctx, "admin", domain.UserRoleDonor))
	_, err = authz.Authorize(ctx, Caller{ExternalID: "admin"}, domain.UserRoleAdmin)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestAuthorizeBlockedUser(t *testing.T) {
	users := memory.NewUserRepository()
	seed(t, users, "admin", domain.UserRoleAdmin, domain.UserStatusBlocked)
	authz := NewAuthorizer(users, zerolog.Nop())

	_, err := authz.Authorize(context.Background(), Caller{ExternalID: "admin"}, domain.UserRoleAdmin)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestAuthorizeUnknownAndAnonymous(t *testing.T) {
	authz := NewAuthorizer(memory.NewUserRepository(), zerolog.Nop())
	ctx := context.Background()

	_, err := authz.Authorize(ctx, Caller{ExternalID: "ghost"}, domain.UserRoleDonor)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = authz.Authorize(ctx, Caller{}, domain.UserRoleDonor)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestIsStaff(t *testing.T) {
	assert.True(t, IsStaff(&domain.User{Role: domain.UserRoleAdmin, Status: domain.UserStatusActive}))
	assert.True(t, IsStaff(&domain.User{Role: domain.UserRoleVolunteer, Status: domain.UserStatusActive}))
	assert.False(t, IsStaff(&domain.User{Role: domain.UserRoleDonor, Status: domain.UserStatusActive}))
	assert.False(t, IsStaff(&domain.User{Role: domain.UserRoleAdmin, Status: domain.UserStatusBlocked}))
	assert.False(t, IsStaff(nil))
}
