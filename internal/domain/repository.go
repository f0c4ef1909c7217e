package domain

import (
	"context"
	"math"
	"time"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// Page describes offset based pagination. Page numbers start at 1.
type Page struct {
	Number int
	Limit  int
}

// Validate rejects page numbers or limits below one, limits above
// MaxPageLimit, and pages whose offset does not fit a 32-bit integer.
func (p Page) Validate() error {
	if p.Number < 1 {
		return InvalidInputf("page must be >= 1")
	}
	if p.Limit < 1 {
		return InvalidInputf("limit must be >= 1")
	}
	if p.Limit > MaxPageLimit {
		return InvalidInputf("limit must be <= %d", MaxPageLimit)
	}
	if p.Number-1 > math.MaxInt32/p.Limit {
		return InvalidInputf("page %d is out of range", p.Number)
	}
	return nil
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// UserFilter narrows admin user listings. Zero values match everything.
type UserFilter struct {
	Status UserStatus
	Role   UserRole
}

// DonorSearch holds the public donor search criteria. Empty fields are ignored.
type DonorSearch struct {
	BloodGroup string
	District   string
	Upazila    string
}

// RequestFilter narrows donation request listings. Zero values match everything.
type RequestFilter struct {
	RequesterExternalID string
	Status              RequestStatus
}

// StatusChange describes a guarded status update.
type StatusChange struct {
	To         RequestStatus
	DonorName  *string
	DonorEmail *string
	At         time.Time
}

// UserRepository defines access methods for users.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByExternalID(ctx context.Context, externalID string) (*User, error)
	UpdateRole(ctx context.Context, externalID string, role UserRole) error
	UpdateStatus(ctx context.Context, externalID string, status UserStatus) error
	UpdateProfile(ctx context.Context, externalID string, update ProfileUpdate) (*User, error)
	List(ctx context.Context, filter UserFilter, page Page) ([]User, error)
	Count(ctx context.Context, filter UserFilter) (int, error)
	Search(ctx context.Context, criteria DonorSearch) ([]User, error)
}

// RequestRepository handles donation request persistence.
//
// CompareAndSetStatus and UpdatePayload only apply when the stored row still
// has the expected status/version and return ErrConflict otherwise.
type RequestRepository interface {
	Create(ctx context.Context, req *DonationRequest) error
	GetByID(ctx context.Context, id string) (*DonationRequest, error)
	List(ctx context.Context, filter RequestFilter, page Page) ([]DonationRequest, error)
	Count(ctx context.Context, filter RequestFilter) (int, error)
	UpdatePayload(ctx context.Context, id string, payload map[string]any, expectedVersion int64, at time.Time) (*DonationRequest, error)
	CompareAndSetStatus(ctx context.Context, id string, from RequestStatus, expectedVersion int64, change StatusChange) (*DonationRequest, error)
	Delete(ctx context.Context, id string) error
}

// FundingRepository handles the append-only funding ledger.
type FundingRepository interface {
	Create(ctx context.Context, record *FundingRecord) error
	List(ctx context.Context) ([]FundingRecord, error)
	Total(ctx context.Context) (int64, error)
}
