package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"blooddonation/internal/domain"
)

// FundingRepository implements domain.FundingRepository in memory.
type FundingRepository struct {
	mu       sync.RWMutex
	records  []domain.FundingRecord
	payments map[string]struct{}
}

// NewFundingRepository creates an empty in-memory ledger.
func NewFundingRepository() *FundingRepository {
	return &FundingRepository{payments: make(map[string]struct{})}
}

func (r *FundingRepository) Create(_ context.Context, record *domain.FundingRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if record.PaymentIntentID != "" {
		if _, dup := r.payments[record.PaymentIntentID]; dup {
			return domain.ErrDuplicatePayment
		}
		r.payments[record.PaymentIntentID] = struct{}{}
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	r.records = append(r.records, *record)
	return nil
}

func (r *FundingRepository) List(_ context.Context) ([]domain.FundingRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.FundingRecord, len(r.records))
	copy(out, r.records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *FundingRepository) Total(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var total int64
	for _, rec := range r.records {
		total += rec.AmountInt
	}
	return total, nil
}

var _ domain.FundingRepository = (*FundingRepository)(nil)
