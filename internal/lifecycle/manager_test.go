package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"

	"blooddonation/internal/adapter/memory"
	"blooddonation/internal/domain"
	"blooddonation/internal/infra"
)

type ManagerSuite struct {
	suite.Suite
	ctx      context.Context
	users    *memory.UserRepository
	requests *memory.RequestRepository
	metrics  *infra.Metrics
	manager  *Manager
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerSuite))
}

func (s *ManagerSuite) SetupTest() {
	s.ctx = context.Background()
	s.users = memory.NewUserRepository()
	s.requests = memory.NewRequestRepository()
	s.metrics = infra.NewMetrics(prometheus.NewRegistry())
	s.manager = NewManager(s.requests, s.users, zerolog.Nop(), s.metrics)

	s.seedUser("requester", domain.UserRoleDonor, domain.UserStatusActive)
	s.seedUser("other", domain.UserRoleDonor, domain.UserStatusActive)
	s.seedUser("volunteer", domain.UserRoleVolunteer, domain.UserStatusActive)
	s.seedUser("blocked", domain.UserRoleDonor, domain.UserStatusBlocked)
}

func (s *ManagerSuite) seedUser(uid string, role domain.UserRole, status domain.UserStatus) {
	s.Require().NoError(s.users.Create(s.ctx, &domain.User{
		ExternalID: uid,
		Email:      uid + "@example.com",
		Role:       role,
		Status:     status,
	}))
}

func (s *ManagerSuite) user(uid string) *domain.User {
	u, err := s.users.GetByExternalID(s.ctx, uid)
	s.Require().NoError(err)
	return u
}

func (s *ManagerSuite) create() *domain.DonationRequest {
	req, err := s.manager.Create(s.ctx, "requester", map[string]any{
		"recipientName": "Rahim",
		"bloodGroup":    "A+",
		"hospital":      "Dhaka Medical",
	})
	s.Require().NoError(err)
	return req
}

func (s *ManagerSuite) TestCreateStartsPending() {
	req, err := s.manager.Create(s.ctx, "requester", map[string]any{
		"hospital":   "Dhaka Medical",
		"status":     "done",
		"donorEmail": "forged@example.com",
		"_id":        "x",
	})
	s.Require().NoError(err)

	s.Equal(domain.RequestStatusPending, req.Status)
	s.Equal("requester", req.RequesterExternalID)
	s.Empty(req.DonorEmail)
	s.Equal("Dhaka Medical", req.Payload["hospital"])
	s.NotContains(req.Payload, "status")
	s.NotContains(req.Payload, "donorEmail")
	s.NotContains(req.Payload, "_id")
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.RequestsCreated))
}

func (s *ManagerSuite) TestCreateByBlockedUser() {
	_, err := s.manager.Create(s.ctx, "blocked", map[string]any{"hospital": "X"})
	s.ErrorIs(err, domain.ErrForbidden)

	total, err := s.manager.Count(s.ctx)
	s.Require().NoError(err)
	s.Zero(total)
}

func (s *ManagerSuite) TestCreateByUnknownUser() {
	_, err := s.manager.Create(s.ctx, "ghost", nil)
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *ManagerSuite) TestConfirmPending() {
	req := s.create()

	got, err := s.manager.Confirm(s.ctx, req.ID, "Karim", "karim@example.com")
	s.Require().NoError(err)
	s.Equal(domain.RequestStatusInProgress, got.Status)
	s.Equal("Karim", got.DonorName)
	s.Equal("karim@example.com", got.DonorEmail)
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.RequestTransitions.WithLabelValues("inprogress")))
}

func (s *ManagerSuite) TestConfirmInProgressKeepsFirstDonor() {
	req := s.create()
	_, err := s.manager.Confirm(s.ctx, req.ID, "Karim", "karim@example.com")
	s.Require().NoError(err)

	_, err = s.manager.Confirm(s.ctx, req.ID, "Someone", "someone@example.com")
	s.ErrorIs(err, domain.ErrNotPending)
	s.ErrorIs(err, domain.ErrConflict)

	stored, err := s.manager.Get(s.ctx, req.ID)
	s.Require().NoError(err)
	s.Equal("Karim", stored.DonorName)
	s.Equal("karim@example.com", stored.DonorEmail)
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.ConfirmConflicts))
}

func (s *ManagerSuite) TestConfirmMissing() {
	_, err := s.manager.Confirm(s.ctx, "missing", "Karim", "karim@example.com")
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *ManagerSuite) TestConfirmValidatesDonor() {
	req := s.create()
	_, err := s.manager.Confirm(s.ctx, req.ID, "", "karim@example.com")
	s.ErrorIs(err, domain.ErrInvalidInput)
	_, err = s.manager.Confirm(s.ctx, req.ID, "Karim", "nope")
	s.ErrorIs(err, domain.ErrInvalidInput)
}

func (s *ManagerSuite) TestConcurrentConfirmHasOneWinner() {
	req := s.create()

	const confirmers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	for i := 0; i < confirmers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.manager.Confirm(s.ctx, req.ID, fmt.Sprintf("Donor %d", i), fmt.Sprintf("d%d@example.com", i))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, domain.ErrNotPending):
				conflicts++
			}
		}(i)
	}
	wg.Wait()

	s.Equal(1, wins)
	s.Equal(confirmers-1, conflicts)
}

func (s *ManagerSuite) TestAdminTransitions() {
	req := s.create()

	got, err := s.manager.AdminSetStatus(s.ctx, req.ID, domain.RequestStatusInProgress)
	s.Require().NoError(err)
	s.Equal(domain.RequestStatusInProgress, got.Status)

	_, err = s.manager.AdminSetStatus(s.ctx, req.ID, domain.RequestStatusPending)
	s.ErrorIs(err, domain.ErrConflict)

	got, err = s.manager.AdminSetStatus(s.ctx, req.ID, "DONE")
	s.Require().NoError(err)
	s.Equal(domain.RequestStatusDone, got.Status)

	_, err = s.manager.AdminSetStatus(s.ctx, req.ID, domain.RequestStatusCanceled)
	s.ErrorIs(err, domain.ErrConflict)
}

func (s *ManagerSuite) TestAdminRejectsUnknownStatus() {
	req := s.create()
	_, err := s.manager.AdminSetStatus(s.ctx, req.ID, "archived")
	s.ErrorIs(err, domain.ErrInvalidInput)

	_, err = s.manager.AdminSetStatus(s.ctx, "missing", domain.RequestStatusDone)
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *ManagerSuite) TestUpdateTouchesPayloadOnly() {
	req := s.create()

	got, err := s.manager.Update(s.ctx, s.user("requester"), req.ID, map[string]any{
		"hospital": "Square Hospital",
		"status":   "done",
	})
	s.Require().NoError(err)
	s.Equal(domain.RequestStatusPending, got.Status)
	s.Equal("Square Hospital", got.Payload["hospital"])
	s.NotContains(got.Payload, "status")
	s.Greater(got.Version, req.Version)
}

func (s *ManagerSuite) TestUpdatePermissions() {
	req := s.create()

	_, err := s.manager.Update(s.ctx, s.user("other"), req.ID, map[string]any{"hospital": "X"})
	s.ErrorIs(err, domain.ErrForbidden)

	_, err = s.manager.Update(s.ctx, s.user("volunteer"), req.ID, map[string]any{"hospital": "X"})
	s.NoError(err)
}

func (s *ManagerSuite) TestUpdateClosedRequest() {
	req := s.create()
	_, err := s.manager.AdminSetStatus(s.ctx, req.ID, domain.RequestStatusCanceled)
	s.Require().NoError(err)

	_, err = s.manager.Update(s.ctx, s.user("requester"), req.ID, map[string]any{"hospital": "X"})
	s.ErrorIs(err, domain.ErrConflict)
}

func (s *ManagerSuite) TestDeletePermissions() {
	req := s.create()

	s.ErrorIs(s.manager.Delete(s.ctx, s.user("other"), req.ID), domain.ErrForbidden)
	s.Require().NoError(s.manager.Delete(s.ctx, s.user("requester"), req.ID))

	_, err := s.manager.Get(s.ctx, req.ID)
	s.ErrorIs(err, domain.ErrNotFound)
	s.ErrorIs(s.manager.Delete(s.ctx, s.user("volunteer"), req.ID), domain.ErrNotFound)
}

func (s *ManagerSuite) TestListPagination() {
	for i := 0; i < 25; i++ {
		s.create()
	}
	page := domain.Page{Number: 1, Limit: 10}

	items, total, err := s.manager.List(s.ctx, domain.RequestFilter{RequesterExternalID: "requester"}, page)
	s.Require().NoError(err)
	s.Len(items, 10)
	s.Equal(25, total)

	page.Number = 3
	items, total, err = s.manager.List(s.ctx, domain.RequestFilter{}, page)
	s.Require().NoError(err)
	s.Len(items, 5)
	s.Equal(25, total)

	_, _, err = s.manager.List(s.ctx, domain.RequestFilter{}, domain.Page{Number: 1, Limit: 0})
	s.ErrorIs(err, domain.ErrInvalidInput)
}

func (s *ManagerSuite) TestListPublicPending() {
	a := s.create()
	s.create()
	_, err := s.manager.Confirm(s.ctx, a.ID, "Karim", "karim@example.com")
	s.Require().NoError(err)

	items, total, err := s.manager.ListPublicPending(s.ctx, domain.Page{Number: 1, Limit: 10})
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Require().Len(items, 1)
	s.Equal(domain.RequestStatusPending, items[0].Status)
}
