package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"blooddonation/internal/domain"
	"blooddonation/internal/infra"
	"blooddonation/internal/sqlinline"
)

// RequestRepositoryPG implements domain.RequestRepository using PostgreSQL.
// The opaque request payload lives in a JSONB column.
type RequestRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewRequestRepository creates a new request repo.
func NewRequestRepository(sql infra.SQLExecutor) *RequestRepositoryPG {
	return &RequestRepositoryPG{sql: sql}
}

// Create inserts a new donation request and fills in its id and version.
func (r *RequestRepositoryPG) Create(ctx context.Context, req *domain.DonationRequest) error {
	payload, err := encodePayload(req.Payload)
	if err != nil {
		return err
	}
	row := r.sql.QueryRow(ctx, sqlinline.QInsertRequest, req.RequesterExternalID, payload, string(req.Status), req.CreatedAt)
	if err := row.Scan(&req.ID, &req.Version); err != nil {
		return classify("insert request", err)
	}
	req.UpdatedAt = req.CreatedAt
	return nil
}

func (r *RequestRepositoryPG) GetByID(ctx context.Context, id string) (*domain.DonationRequest, error) {
	req, err := scanRequest(r.sql.QueryRow(ctx, sqlinline.QSelectRequestByID, id))
	if err != nil {
		return nil, classify("select request", err)
	}
	return req, nil
}

// List returns requests newest first.
func (r *RequestRepositoryPG) List(ctx context.Context, filter domain.RequestFilter, page domain.Page) ([]domain.DonationRequest, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListRequests, filter.RequesterExternalID, string(filter.Status), page.Limit, page.Offset())
	if err != nil {
		return nil, classify("list requests", err)
	}
	defer rows.Close()
	items := []domain.DonationRequest{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, classify("scan request", err)
		}
		items = append(items, *req)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterate requests", err)
	}
	return items, nil
}

func (r *RequestRepositoryPG) Count(ctx context.Context, filter domain.RequestFilter) (int, error) {
	var total int
	if err := r.sql.QueryRow(ctx, sqlinline.QCountRequests, filter.RequesterExternalID, string(filter.Status)).Scan(&total); err != nil {
		return 0, classify("count requests", err)
	}
	return total, nil
}

func (r *RequestRepositoryPG) UpdatePayload(ctx context.Context, id string, payload map[string]any, expectedVersion int64, at time.Time) (*domain.DonationRequest, error) {
	raw, err := encodePayload(payload)
	if err != nil {
		return nil, err
	}
	req, err := scanRequest(r.sql.QueryRow(ctx, sqlinline.QUpdateRequestPayload, id, raw, expectedVersion, at))
	if err != nil {
		return nil, r.missOrConflict(ctx, "update request payload", id, err)
	}
	return req, nil
}

func (r *RequestRepositoryPG) CompareAndSetStatus(ctx context.Context, id string, from domain.RequestStatus, expectedVersion int64, change domain.StatusChange) (*domain.DonationRequest, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QCompareAndSetRequestStatus,
		id,
		string(from),
		expectedVersion,
		string(change.To),
		change.DonorName,
		change.DonorEmail,
		change.At,
	)
	req, err := scanRequest(row)
	if err != nil {
		return nil, r.missOrConflict(ctx, "set request status", id, err)
	}
	return req, nil
}

func (r *RequestRepositoryPG) Delete(ctx context.Context, id string) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QDeleteRequest, id)
	if err != nil {
		return classify("delete request", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// missOrConflict tells a guarded update that matched nothing because the row
// is gone apart from one that lost the precondition.
func (r *RequestRepositoryPG) missOrConflict(ctx context.Context, op, id string, err error) error {
	if !errors.Is(err, pgx.ErrNoRows) {
		return classify(op, err)
	}
	var exists bool
	if err := r.sql.QueryRow(ctx, sqlinline.QRequestExists, id).Scan(&exists); err != nil {
		return classify(op, err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrConflict
}

func encodePayload(payload map[string]any) ([]byte, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: payload is not serializable", domain.ErrInvalidInput)
	}
	return raw, nil
}

func scanRequest(row pgx.Row) (*domain.DonationRequest, error) {
	var req domain.DonationRequest
	var status string
	var payload []byte
	if err := row.Scan(&req.ID, &req.RequesterExternalID, &payload, &status, &req.DonorName, &req.DonorEmail, &req.Version, &req.CreatedAt, &req.UpdatedAt); err != nil {
		return nil, err
	}
	req.Status = domain.RequestStatus(status)
	req.Payload = map[string]any{}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &req.Payload); err != nil {
			return nil, fmt.Errorf("decode request payload: %w", err)
		}
	}
	return &req, nil
}

var _ domain.RequestRepository = (*RequestRepositoryPG)(nil)
