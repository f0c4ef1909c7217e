package repo

import (
	"context"

	"blooddonation/internal/domain"
	"blooddonation/internal/infra"
	"blooddonation/internal/sqlinline"
)

// FundingRepositoryPG implements FundingRepository using PostgreSQL.
type FundingRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewFundingRepository creates a new funding repo.
func NewFundingRepository(sql infra.SQLExecutor) *FundingRepositoryPG {
	return &FundingRepositoryPG{sql: sql}
}

// Create inserts a new funding record. A payment intent can only be recorded once.
func (r *FundingRepositoryPG) Create(ctx context.Context, record *domain.FundingRecord) error {
	row := r.sql.QueryRow(ctx, sqlinline.QInsertFunding,
		record.UID,
		record.Name,
		record.Email,
		record.AmountInt,
		record.Currency,
		record.PaymentIntentID,
		record.CreatedAt,
	)
	if err := row.Scan(&record.ID); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicatePayment
		}
		return classify("insert funding", err)
	}
	return nil
}

// List returns the whole ledger, newest first.
func (r *FundingRepositoryPG) List(ctx context.Context) ([]domain.FundingRecord, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListFunding)
	if err != nil {
		return nil, classify("list funding", err)
	}
	defer rows.Close()

	items := []domain.FundingRecord{}
	for rows.Next() {
		var rec domain.FundingRecord
		if err := rows.Scan(&rec.ID, &rec.UID, &rec.Name, &rec.Email, &rec.AmountInt, &rec.Currency, &rec.PaymentIntentID, &rec.CreatedAt); err != nil {
			return nil, classify("scan funding", err)
		}
		items = append(items, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterate funding", err)
	}
	return items, nil
}

// Total sums every recorded amount.
func (r *FundingRepositoryPG) Total(ctx context.Context) (int64, error) {
	var total int64
	if err := r.sql.QueryRow(ctx, sqlinline.QSumFunding).Scan(&total); err != nil {
		return 0, classify("sum funding", err)
	}
	return total, nil
}

var _ domain.FundingRepository = (*FundingRepositoryPG)(nil)
