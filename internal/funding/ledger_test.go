package funding

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"blooddonation/internal/adapter/memory"
	"blooddonation/internal/domain"
	"blooddonation/internal/infra"
)

type mockProcessor struct {
	mock.Mock
}

func (m *mockProcessor) CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*domain.PaymentIntent, error) {
	args := m.Called(ctx, amount, currency, metadata)
	intent, _ := args.Get(0).(*domain.PaymentIntent)
	return intent, args.Error(1)
}

func (m *mockProcessor) GetIntent(ctx context.Context, id string) (*domain.PaymentIntent, error) {
	args := m.Called(ctx, id)
	intent, _ := args.Get(0).(*domain.PaymentIntent)
	return intent, args.Error(1)
}

type fixture struct {
	ledger    *Ledger
	records   *memory.FundingRepository
	processor *mockProcessor
	metrics   *infra.Metrics
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	users := memory.NewUserRepository()
	require.NoError(t, users.Create(context.Background(), &domain.User{
		ExternalID: "u1",
		Email:      "u1@example.com",
		Name:       "Nadia",
		Role:       domain.UserRoleDonor,
		Status:     domain.UserStatusActive,
	}))
	records := memory.NewFundingRepository()
	processor := &mockProcessor{}
	metrics := infra.NewMetrics(prometheus.NewRegistry())
	return fixture{
		ledger:    NewLedger(records, users, processor, "USD", zerolog.Nop(), metrics),
		records:   records,
		processor: processor,
		metrics:   metrics,
	}
}

func succeeded(id string, amount int64, uid string) *domain.PaymentIntent {
	return &domain.PaymentIntent{
		ID:        id,
		AmountInt: amount,
		Currency:  "usd",
		Status:    domain.PaymentIntentSucceeded,
		Metadata:  map[string]string{"uid": uid},
	}
}

func TestCreatePaymentIntent(t *testing.T) {
	f := newFixture(t)
	f.processor.On("CreateIntent", mock.Anything, int64(500), "usd", map[string]string{"uid": "u1", "email": "u1@example.com"}).
		Return(&domain.PaymentIntent{ID: "pi_1", ClientSecret: "secret_1"}, nil).Once()

	secret, err := f.ledger.CreatePaymentIntent(context.Background(), "u1", 500)
	require.NoError(t, err)
	assert.Equal(t, "secret_1", secret)
	f.processor.AssertExpectations(t)
}

func TestCreatePaymentIntentRejectsNonPositive(t *testing.T) {
	f := newFixture(t)
	for _, amount := range []int64{0, -100} {
		_, err := f.ledger.CreatePaymentIntent(context.Background(), "u1", amount)
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	}
	f.processor.AssertNotCalled(t, "CreateIntent")
}

func TestRecordAndTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.processor.On("GetIntent", mock.Anything, "pi_1").Return(succeeded("pi_1", 500, "u1"), nil)
	f.processor.On("GetIntent", mock.Anything, "pi_2").Return(succeeded("pi_2", 250, "u1"), nil)

	rec, err := f.ledger.Record(ctx, "u1", 500, "pi_1")
	require.NoError(t, err)
	assert.Equal(t, "Nadia", rec.Name)
	assert.Equal(t, "u1@example.com", rec.Email)
	assert.Equal(t, "usd", rec.Currency)

	_, err = f.ledger.Record(ctx, "u1", 250, "pi_2")
	require.NoError(t, err)

	total, err := f.ledger.TotalAmount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(750), total)
	assert.Equal(t, float64(750), testutil.ToFloat64(f.metrics.FundingAmount))

	list, err := f.ledger.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestRecordRejectsNonPositiveAmount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ledger.Record(ctx, "u1", 0, "pi_1")
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.ledger.Record(ctx, "u1", -5, "pi_1")
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	total, err := f.ledger.TotalAmount(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)
	f.processor.AssertNotCalled(t, "GetIntent")
}

func TestRecordTwiceIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.processor.On("GetIntent", mock.Anything, "pi_1").Return(succeeded("pi_1", 500, "u1"), nil)

	_, err := f.ledger.Record(ctx, "u1", 500, "pi_1")
	require.NoError(t, err)
	_, err = f.ledger.Record(ctx, "u1", 500, "pi_1")
	assert.ErrorIs(t, err, domain.ErrDuplicatePayment)

	total, err := f.ledger.TotalAmount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(500), total)
}

func TestRecordVerifiesIntent(t *testing.T) {
	tests := []struct {
		name   string
		intent *domain.PaymentIntent
		want   error
	}{
		{"not succeeded", &domain.PaymentIntent{ID: "pi_1", AmountInt: 500, Currency: "usd", Status: domain.PaymentIntentProcessing, Metadata: map[string]string{"uid": "u1"}}, domain.ErrConflict},
		{"amount mismatch", succeeded("pi_1", 100, "u1"), domain.ErrInvalidInput},
		{"other payer", succeeded("pi_1", 500, "u2"), domain.ErrForbidden},
		{"currency mismatch", &domain.PaymentIntent{ID: "pi_1", AmountInt: 500, Currency: "eur", Status: domain.PaymentIntentSucceeded, Metadata: map[string]string{"uid": "u1"}}, domain.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.processor.On("GetIntent", mock.Anything, "pi_1").Return(tt.intent, nil)

			_, err := f.ledger.Record(context.Background(), "u1", 500, "pi_1")
			assert.ErrorIs(t, err, tt.want)

			list, err := f.ledger.List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

func TestRecordUnknownPayer(t *testing.T) {
	f := newFixture(t)
	_, err := f.ledger.Record(context.Background(), "ghost", 500, "pi_1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLedgerWithoutProcessor(t *testing.T) {
	users := memory.NewUserRepository()
	require.NoError(t, users.Create(context.Background(), &domain.User{ExternalID: "u1", Email: "u1@example.com"}))
	ledger := NewLedger(memory.NewFundingRepository(), users, nil, "usd", zerolog.Nop(), nil)

	_, err := ledger.CreatePaymentIntent(context.Background(), "u1", 500)
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}
