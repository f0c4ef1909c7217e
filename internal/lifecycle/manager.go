// Package lifecycle drives donation requests through their status
// progression: pending -> inprogress -> done, with cancelation allowed from
// either open state.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"blooddonation/internal/access"
	"blooddonation/internal/domain"
	"blooddonation/internal/infra"
)

// Manager implements the donation request lifecycle.
type Manager struct {
	requests domain.RequestRepository
	users    access.UserLookup
	logger   zerolog.Logger
	metrics  *infra.Metrics
	now      func() time.Time
}

func NewManager(requests domain.RequestRepository, users access.UserLookup, logger zerolog.Logger, metrics *infra.Metrics) *Manager {
	return &Manager{
		requests: requests,
		users:    users,
		logger:   logger,
		metrics:  metrics,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create opens a pending request on behalf of an active requester.
func (m *Manager) Create(ctx context.Context, requesterID string, payload map[string]any) (*domain.DonationRequest, error) {
	if strings.TrimSpace(requesterID) == "" {
		return nil, domain.InvalidInputf("requester uid is required")
	}
	requester, err := m.users.GetByExternalID(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if !requester.IsActive() {
		m.logger.Warn().Str("uid", requesterID).Msg("blocked user tried to create a donation request")
		return nil, fmt.Errorf("%w: blocked users cannot create a donation request", domain.ErrForbidden)
	}

	req := &domain.DonationRequest{
		RequesterExternalID: requester.ExternalID,
		Payload:             domain.SanitizePayload(payload),
		Status:              domain.RequestStatusPending,
		CreatedAt:           m.now(),
	}
	if err := m.requests.Create(ctx, req); err != nil {
		return nil, err
	}
	m.metrics.RequestCreated()
	m.logger.Info().Str("request_id", req.ID).Str("uid", requesterID).Msg("donation request created")
	return req, nil
}

// List returns one page of requests and the total matching filter. The two
// reads are not a snapshot: concurrent writes may make them disagree.
func (m *Manager) List(ctx context.Context, filter domain.RequestFilter, page domain.Page) ([]domain.DonationRequest, int, error) {
	if err := page.Validate(); err != nil {
		return nil, 0, err
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, domain.InvalidInputf("unknown request status %q", filter.Status)
	}
	items, err := m.requests.List(ctx, filter, page)
	if err != nil {
		return nil, 0, err
	}
	total, err := m.requests.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListPublicPending lists open requests for the public board.
func (m *Manager) ListPublicPending(ctx context.Context, page domain.Page) ([]domain.DonationRequest, int, error) {
	return m.List(ctx, domain.RequestFilter{Status: domain.RequestStatusPending}, page)
}

func (m *Manager) Get(ctx context.Context, id string) (*domain.DonationRequest, error) {
	return m.requests.GetByID(ctx, id)
}

// Count returns the number of requests ever created and not deleted.
func (m *Manager) Count(ctx context.Context) (int, error) {
	return m.requests.Count(ctx, domain.RequestFilter{})
}

// Update replaces the request payload. Lifecycle fields are never taken from
// the payload. Only the requester or staff may edit, and only while the
// request is still open.
func (m *Manager) Update(ctx context.Context, actor *domain.User, id string, payload map[string]any) (*domain.DonationRequest, error) {
	req, err := m.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(actor, req) {
		return nil, domain.ErrForbidden
	}
	if req.Status.Terminal() {
		return nil, fmt.Errorf("%w: request is %s", domain.ErrConflict, req.Status)
	}
	return m.requests.UpdatePayload(ctx, id, domain.SanitizePayload(payload), req.Version, m.now())
}

// AdminSetStatus moves a request along the transition table.
func (m *Manager) AdminSetStatus(ctx context.Context, id string, status domain.RequestStatus) (*domain.DonationRequest, error) {
	status = domain.RequestStatus(strings.ToLower(strings.TrimSpace(string(status))))
	if !status.Valid() {
		return nil, domain.InvalidInputf("unknown request status %q", status)
	}
	req, err := m.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !req.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: cannot move request from %s to %s", domain.ErrConflict, req.Status, status)
	}
	updated, err := m.requests.CompareAndSetStatus(ctx, id, req.Status, req.Version, domain.StatusChange{
		To: status,
		At: m.now(),
	})
	if err != nil {
		return nil, err
	}
	m.metrics.RequestTransitioned(string(status))
	m.logger.Info().Str("request_id", id).Str("from", string(req.Status)).Str("to", string(status)).Msg("request status changed")
	return updated, nil
}

// Confirm records a donor for a pending request and moves it to inprogress.
// The update is conditional on the status and version read here, so of two
// concurrent confirmers exactly one wins and the other gets a conflict.
func (m *Manager) Confirm(ctx context.Context, id, donorName, donorEmail string) (*domain.DonationRequest, error) {
	donorName = strings.TrimSpace(donorName)
	donorEmail = strings.TrimSpace(donorEmail)
	if donorName == "" {
		return nil, domain.InvalidInputf("donor name is required")
	}
	if _, err := mail.ParseAddress(donorEmail); err != nil {
		return nil, domain.InvalidInputf("a valid donor email is required")
	}

	req, err := m.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != domain.RequestStatusPending {
		m.metrics.ConfirmConflict()
		return nil, domain.ErrNotPending
	}
	updated, err := m.requests.CompareAndSetStatus(ctx, id, domain.RequestStatusPending, req.Version, domain.StatusChange{
		To:         domain.RequestStatusInProgress,
		DonorName:  &donorName,
		DonorEmail: &donorEmail,
		At:         m.now(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			m.metrics.ConfirmConflict()
			m.logger.Info().Str("request_id", id).Msg("confirmation lost race")
			return nil, domain.ErrNotPending
		}
		return nil, err
	}
	m.metrics.RequestTransitioned(string(domain.RequestStatusInProgress))
	m.logger.Info().Str("request_id", id).Str("donor_email", donorEmail).Msg("donation confirmed")
	return updated, nil
}

// Delete removes a request. Only the requester or staff may delete.
func (m *Manager) Delete(ctx context.Context, actor *domain.User, id string) error {
	req, err := m.requests.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !canManage(actor, req) {
		return domain.ErrForbidden
	}
	if err := m.requests.Delete(ctx, id); err != nil {
		return err
	}
	m.logger.Info().Str("request_id", id).Str("by", actor.ExternalID).Msg("donation request deleted")
	return nil
}

func canManage(actor *domain.User, req *domain.DonationRequest) bool {
	if actor == nil {
		return false
	}
	return actor.ExternalID == req.RequesterExternalID || access.IsStaff(actor)
}
