// Package funding records monetary contributions after the processor has
// confirmed them.
package funding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"blooddonation/internal/access"
	"blooddonation/internal/domain"
	"blooddonation/internal/infra"
)

// Processor is the card processor the ledger trusts for payment state.
type Processor interface {
	CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*domain.PaymentIntent, error)
	GetIntent(ctx context.Context, id string) (*domain.PaymentIntent, error)
}

// Ledger implements the funding ledger.
type Ledger struct {
	records   domain.FundingRepository
	users     access.UserLookup
	processor Processor
	currency  string
	logger    zerolog.Logger
	metrics   *infra.Metrics
	now       func() time.Time
}

// NewLedger builds a ledger. A nil processor disables intent creation and
// recording; reads keep working.
func NewLedger(records domain.FundingRepository, users access.UserLookup, processor Processor, currency string, logger zerolog.Logger, metrics *infra.Metrics) *Ledger {
	return &Ledger{
		records:   records,
		users:     users,
		processor: processor,
		currency:  strings.ToLower(currency),
		logger:    logger,
		metrics:   metrics,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreatePaymentIntent opens a processor intent tagged with the payer's
// identity and returns its client secret.
func (l *Ledger) CreatePaymentIntent(ctx context.Context, uid string, amount int64) (string, error) {
	if amount <= 0 {
		return "", domain.ErrInvalidAmount
	}
	payer, err := l.users.GetByExternalID(ctx, uid)
	if err != nil {
		return "", err
	}
	if l.processor == nil {
		return "", fmt.Errorf("%w: payments are not configured", domain.ErrUnavailable)
	}
	intent, err := l.processor.CreateIntent(ctx, amount, l.currency, map[string]string{
		"uid":   payer.ExternalID,
		"email": payer.Email,
	})
	if err != nil {
		return "", err
	}
	l.logger.Info().Str("uid", uid).Str("intent_id", intent.ID).Int64("amount", amount).Msg("payment intent created")
	return intent.ClientSecret, nil
}

// Record appends a ledger entry for a completed payment. The intent is read
// back from the processor and must have succeeded for the same amount,
// currency and payer. Recording the same intent twice fails with
// domain.ErrDuplicatePayment.
func (l *Ledger) Record(ctx context.Context, uid string, amount int64, paymentIntentID string) (*domain.FundingRecord, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	paymentIntentID = strings.TrimSpace(paymentIntentID)
	if paymentIntentID == "" {
		return nil, domain.InvalidInputf("payment intent id is required")
	}
	payer, err := l.users.GetByExternalID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if l.processor == nil {
		return nil, fmt.Errorf("%w: payments are not configured", domain.ErrUnavailable)
	}

	intent, err := l.processor.GetIntent(ctx, paymentIntentID)
	if err != nil {
		return nil, err
	}
	if err := l.verify(intent, payer, amount); err != nil {
		l.logger.Warn().Err(err).Str("uid", uid).Str("intent_id", paymentIntentID).Msg("funding record rejected")
		return nil, err
	}

	record := &domain.FundingRecord{
		UID:             payer.ExternalID,
		Name:            payer.Name,
		Email:           payer.Email,
		AmountInt:       amount,
		Currency:        strings.ToLower(intent.Currency),
		PaymentIntentID: intent.ID,
		CreatedAt:       l.now(),
	}
	if err := l.records.Create(ctx, record); err != nil {
		return nil, err
	}
	l.metrics.Funded(amount)
	l.logger.Info().Str("uid", uid).Str("intent_id", intent.ID).Int64("amount", amount).Msg("funding recorded")
	return record, nil
}

func (l *Ledger) verify(intent *domain.PaymentIntent, payer *domain.User, amount int64) error {
	if intent.Status != domain.PaymentIntentSucceeded {
		return fmt.Errorf("%w: payment is %s", domain.ErrConflict, intent.Status)
	}
	if intent.AmountInt != amount {
		return domain.InvalidInputf("amount %d does not match the charged amount", amount)
	}
	if !strings.EqualFold(intent.Currency, l.currency) {
		return domain.InvalidInputf("unexpected currency %q", intent.Currency)
	}
	if owner := intent.Metadata["uid"]; owner != payer.ExternalID {
		return fmt.Errorf("%w: payment belongs to another user", domain.ErrForbidden)
	}
	return nil
}

// List returns all records, newest first.
func (l *Ledger) List(ctx context.Context) ([]domain.FundingRecord, error) {
	return l.records.List(ctx)
}

// TotalAmount sums every recorded contribution in minor units.
func (l *Ledger) TotalAmount(ctx context.Context) (int64, error) {
	return l.records.Total(ctx)
}
