// Package payment talks to the card processor that backs the funding ledger.
package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"

	"blooddonation/internal/domain"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("payment: stripe secret key is required")

// Options configures the Stripe client.
type Options struct {
	SecretKey string
	// BaseURL overrides the Stripe API endpoint. Empty means production.
	BaseURL        string
	HTTPClient     *http.Client
	Logger         zerolog.Logger
	RequestTimeout time.Duration
}

// StripeClient creates and reads payment intents.
type StripeClient struct {
	intents *paymentintent.Client
	logger  zerolog.Logger
}

func NewStripeClient(opts Options) (*StripeClient, error) {
	if strings.TrimSpace(opts.SecretKey) == "" {
		return nil, ErrMissingAPIKey
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 20 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	cfg := &stripe.BackendConfig{
		HTTPClient:        httpClient,
		MaxNetworkRetries: stripe.Int64(0),
	}
	if opts.BaseURL != "" {
		cfg.URL = stripe.String(strings.TrimRight(opts.BaseURL, "/"))
	}
	return &StripeClient{
		intents: &paymentintent.Client{
			B:   stripe.GetBackendWithConfig(stripe.APIBackend, cfg),
			Key: opts.SecretKey,
		},
		logger: opts.Logger,
	}, nil
}

// CreateIntent opens a card payment intent for amount minor units.
func (c *StripeClient) CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*domain.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amount),
		Currency:           stripe.String(strings.ToLower(currency)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	start := time.Now()
	pi, err := c.intents.New(params)
	if err != nil {
		c.logger.Error().Err(err).Int64("amount", amount).Msg("stripe create intent failed")
		return nil, classify("create intent", err)
	}
	c.logger.Debug().
		Str("intent_id", pi.ID).
		Int64("amount", amount).
		Dur("elapsed", time.Since(start)).
		Msg("stripe intent created")
	return toDomain(pi), nil
}

// GetIntent reads an intent's current state from Stripe.
func (c *StripeClient) GetIntent(ctx context.Context, id string) (*domain.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := c.intents.Get(id, params)
	if err != nil {
		c.logger.Warn().Err(err).Str("intent_id", id).Msg("stripe get intent failed")
		return nil, classify("get intent", err)
	}
	return toDomain(pi), nil
}

func toDomain(pi *stripe.PaymentIntent) *domain.PaymentIntent {
	return &domain.PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		AmountInt:    pi.Amount,
		Currency:     string(pi.Currency),
		Status:       domain.PaymentIntentStatus(pi.Status),
		Metadata:     pi.Metadata,
	}
}

func classify(op string, err error) error {
	var serr *stripe.Error
	if errors.As(err, &serr) {
		switch {
		case serr.HTTPStatusCode == http.StatusNotFound:
			return fmt.Errorf("payment: %s: %w", op, domain.ErrNotFound)
		case serr.Type == stripe.ErrorTypeInvalidRequest:
			return fmt.Errorf("payment: %s: %w: %s", op, domain.ErrInvalidInput, serr.Msg)
		}
		return fmt.Errorf("payment: %s: %w: %s", op, domain.ErrProviderFailure, serr.Msg)
	}
	return fmt.Errorf("payment: %s: %w: %w", op, domain.ErrProviderFailure, err)
}
