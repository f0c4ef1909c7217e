// Package identity owns user registration, profile changes and the role and
// status switches administrators flip.
package identity

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/rs/zerolog"

	"blooddonation/internal/domain"
	"blooddonation/internal/infra"
)

// Profile is the registration payload.
type Profile struct {
	ExternalID string
	Email      string
	Name       string
	AvatarURL  string
	BloodGroup string
	District   string
	Upazila    string
}

// Service implements the identity and role store.
type Service struct {
	users   domain.UserRepository
	logger  zerolog.Logger
	metrics *infra.Metrics
}

func NewService(users domain.UserRepository, logger zerolog.Logger, metrics *infra.Metrics) *Service {
	return &Service{users: users, logger: logger, metrics: metrics}
}

// Register creates a donor account in active status.
func (s *Service) Register(ctx context.Context, p Profile) (*domain.User, error) {
	p.ExternalID = strings.TrimSpace(p.ExternalID)
	p.Email = strings.TrimSpace(p.Email)
	if p.ExternalID == "" {
		return nil, domain.InvalidInputf("uid is required")
	}
	if _, err := mail.ParseAddress(p.Email); err != nil {
		return nil, domain.InvalidInputf("a valid email is required")
	}
	if p.BloodGroup != "" && !domain.ValidBloodGroup(p.BloodGroup) {
		return nil, domain.InvalidInputf("unknown blood group %q", p.BloodGroup)
	}

	user := &domain.User{
		ExternalID: p.ExternalID,
		Email:      p.Email,
		Name:       strings.TrimSpace(p.Name),
		AvatarURL:  p.AvatarURL,
		BloodGroup: p.BloodGroup,
		District:   p.District,
		Upazila:    p.Upazila,
		Role:       domain.UserRoleDonor,
		Status:     domain.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateIdentity) {
			s.logger.Info().Str("uid", p.ExternalID).Msg("registration rejected: uid already registered")
		}
		return nil, err
	}
	s.metrics.UserRegistered()
	s.logger.Info().Str("uid", user.ExternalID).Msg("user registered")
	return user, nil
}

// FindByExternalID returns the user or domain.ErrNotFound.
func (s *Service) FindByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	if strings.TrimSpace(externalID) == "" {
		return nil, domain.ErrNotFound
	}
	return s.users.GetByExternalID(ctx, externalID)
}

// SetRole changes a user's role. Setting the current role again is a no-op success.
func (s *Service) SetRole(ctx context.Context, externalID string, role domain.UserRole) error {
	role = domain.ParseUserRole(string(role))
	if !role.Valid() {
		return domain.InvalidInputf("unknown role %q", role)
	}
	if err := s.users.UpdateRole(ctx, externalID, role); err != nil {
		return err
	}
	s.logger.Info().Str("uid", externalID).Str("role", string(role)).Msg("user role changed")
	return nil
}

// SetStatus blocks or unblocks a user. Setting the current status again is a no-op success.
func (s *Service) SetStatus(ctx context.Context, externalID string, status domain.UserStatus) error {
	status = domain.ParseUserStatus(string(status))
	if !status.Valid() {
		return domain.InvalidInputf("unknown status %q", status)
	}
	if err := s.users.UpdateStatus(ctx, externalID, status); err != nil {
		return err
	}
	s.logger.Info().Str("uid", externalID).Str("status", string(status)).Msg("user status changed")
	return nil
}

// UpdateProfile changes the self-service profile fields only.
func (s *Service) UpdateProfile(ctx context.Context, externalID string, update domain.ProfileUpdate) (*domain.User, error) {
	if update.Empty() {
		return nil, domain.InvalidInputf("no profile fields to update")
	}
	if update.BloodGroup != nil && *update.BloodGroup != "" && !domain.ValidBloodGroup(*update.BloodGroup) {
		return nil, domain.InvalidInputf("unknown blood group %q", *update.BloodGroup)
	}
	return s.users.UpdateProfile(ctx, externalID, update)
}

// List returns one page of users plus the total matching the filter.
func (s *Service) List(ctx context.Context, filter domain.UserFilter, page domain.Page) ([]domain.User, int, error) {
	if err := page.Validate(); err != nil {
		return nil, 0, err
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, domain.InvalidInputf("unknown status %q", filter.Status)
	}
	if filter.Role != "" && !filter.Role.Valid() {
		return nil, 0, domain.InvalidInputf("unknown role %q", filter.Role)
	}
	items, err := s.users.List(ctx, filter, page)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.users.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// SearchDonors finds active users by blood group and location.
func (s *Service) SearchDonors(ctx context.Context, criteria domain.DonorSearch) ([]domain.User, error) {
	if criteria.BloodGroup != "" && !domain.ValidBloodGroup(criteria.BloodGroup) {
		return nil, domain.InvalidInputf("unknown blood group %q", criteria.BloodGroup)
	}
	return s.users.Search(ctx, criteria)
}

// CountDonors returns the number of users holding the donor role.
func (s *Service) CountDonors(ctx context.Context) (int, error) {
	return s.users.Count(ctx, domain.UserFilter{Role: domain.UserRoleDonor})
}
