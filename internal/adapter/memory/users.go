// Package memory holds map-backed repositories used for local development
// (STORE_DRIVER=memory) and by the service tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"blooddonation/internal/domain"
)

// UserRepository implements domain.UserRepository in memory.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User // keyed by external id
	seq   map[string]int
	next  int
	now   func() time.Time
}

// NewUserRepository creates an empty in-memory user repository.
func NewUserRepository() *UserRepository {
	return &UserRepository{
		users: make(map[string]domain.User),
		seq:   make(map[string]int),
		now:   time.Now,
	}
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ExternalID]; ok {
		return domain.ErrDuplicateIdentity
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := r.now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	r.users[user.ExternalID] = *user
	r.next++
	r.seq[user.ExternalID] = r.next
	return nil
}

func (r *UserRepository) GetByExternalID(_ context.Context, externalID string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[externalID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepository) UpdateRole(_ context.Context, externalID string, role domain.UserRole) error {
	return r.mutate(externalID, func(u *domain.User) { u.Role = role })
}

func (r *UserRepository) UpdateStatus(_ context.Context, externalID string, status domain.UserStatus) error {
	return r.mutate(externalID, func(u *domain.User) { u.Status = status })
}

func (r *UserRepository) UpdateProfile(_ context.Context, externalID string, update domain.ProfileUpdate) (*domain.User, error) {
	var out domain.User
	err := r.mutate(externalID, func(u *domain.User) {
		update.Apply(u)
		out = *u
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *UserRepository) mutate(externalID string, fn func(u *domain.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[externalID]
	if !ok {
		return domain.ErrNotFound
	}
	fn(&u)
	u.UpdatedAt = r.now().UTC()
	r.users[externalID] = u
	return nil
}

func (r *UserRepository) List(_ context.Context, filter domain.UserFilter, page domain.Page) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matched := r.filterLocked(func(u domain.User) bool { return matchUser(u, filter) })
	return paginate(matched, page), nil
}

func (r *UserRepository) Count(_ context.Context, filter domain.UserFilter) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.filterLocked(func(u domain.User) bool { return matchUser(u, filter) })), nil
}

func (r *UserRepository) Search(_ context.Context, criteria domain.DonorSearch) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.filterLocked(func(u domain.User) bool {
		if u.Status != domain.UserStatusActive {
			return false
		}
		if criteria.BloodGroup != "" && u.BloodGroup != criteria.BloodGroup {
			return false
		}
		if criteria.District != "" && u.District != criteria.District {
			return false
		}
		if criteria.Upazila != "" && u.Upazila != criteria.Upazila {
			return false
		}
		return true
	}), nil
}

// filterLocked returns matching users in registration order.
func (r *UserRepository) filterLocked(keep func(domain.User) bool) []domain.User {
	out := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		if keep(u) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return r.seq[out[i].ExternalID] < r.seq[out[j].ExternalID]
	})
	return out
}

func matchUser(u domain.User, filter domain.UserFilter) bool {
	if filter.Status != "" && u.Status != filter.Status {
		return false
	}
	if filter.Role != "" && u.Role != filter.Role {
		return false
	}
	return true
}

func paginate[T any](items []T, page domain.Page) []T {
	start := page.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + page.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

var _ domain.UserRepository = (*UserRepository)(nil)
