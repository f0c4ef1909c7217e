package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"blooddonation/internal/domain"
)

// RequestRepository implements domain.RequestRepository in memory.
type RequestRepository struct {
	mu       sync.RWMutex
	requests map[string]domain.DonationRequest
	seq      map[string]int
	next     int
}

// NewRequestRepository creates an empty in-memory request repository.
func NewRequestRepository() *RequestRepository {
	return &RequestRepository{
		requests: make(map[string]domain.DonationRequest),
		seq:      make(map[string]int),
	}
}

func (r *RequestRepository) Create(_ context.Context, req *domain.DonationRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if _, ok := r.requests[req.ID]; ok {
		return domain.ErrConflict
	}
	if req.Version == 0 {
		req.Version = 1
	}
	if req.UpdatedAt.IsZero() {
		req.UpdatedAt = req.CreatedAt
	}
	r.requests[req.ID] = cloneRequest(*req)
	r.next++
	r.seq[req.ID] = r.next
	return nil
}

func (r *RequestRepository) GetByID(_ context.Context, id string) (*domain.DonationRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := cloneRequest(req)
	return &out, nil
}

func (r *RequestRepository) List(_ context.Context, filter domain.RequestFilter, page domain.Page) ([]domain.DonationRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return paginate(r.matchLocked(filter), page), nil
}

func (r *RequestRepository) Count(_ context.Context, filter domain.RequestFilter) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.matchLocked(filter)), nil
}

func (r *RequestRepository) UpdatePayload(_ context.Context, id string, payload map[string]any, expectedVersion int64, at time.Time) (*domain.DonationRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if req.Version != expectedVersion {
		return nil, domain.ErrConflict
	}
	req.Payload = payload
	req.Version++
	req.UpdatedAt = at
	r.requests[id] = cloneRequest(req)
	out := cloneRequest(req)
	return &out, nil
}

func (r *RequestRepository) CompareAndSetStatus(_ context.Context, id string, from domain.RequestStatus, expectedVersion int64, change domain.StatusChange) (*domain.DonationRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if req.Status != from || req.Version != expectedVersion {
		return nil, domain.ErrConflict
	}
	req.Status = change.To
	if change.DonorName != nil {
		req.DonorName = *change.DonorName
	}
	if change.DonorEmail != nil {
		req.DonorEmail = *change.DonorEmail
	}
	req.Version++
	req.UpdatedAt = change.At
	r.requests[id] = cloneRequest(req)
	out := cloneRequest(req)
	return &out, nil
}

func (r *RequestRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.requests[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.requests, id)
	delete(r.seq, id)
	return nil
}

// matchLocked returns matching requests newest first.
func (r *RequestRepository) matchLocked(filter domain.RequestFilter) []domain.DonationRequest {
	out := make([]domain.DonationRequest, 0, len(r.requests))
	for _, req := range r.requests {
		if filter.RequesterExternalID != "" && req.RequesterExternalID != filter.RequesterExternalID {
			continue
		}
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		out = append(out, cloneRequest(req))
	}
	sort.Slice(out, func(i, j int) bool {
		return r.seq[out[i].ID] > r.seq[out[j].ID]
	})
	return out
}

func cloneRequest(req domain.DonationRequest) domain.DonationRequest {
	if req.Payload != nil {
		payload := make(map[string]any, len(req.Payload))
		for k, v := range req.Payload {
			payload[k] = v
		}
		req.Payload = payload
	}
	return req
}

var _ domain.RequestRepository = (*RequestRepository)(nil)
