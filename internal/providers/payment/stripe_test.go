package payment

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blooddonation/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *StripeClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewStripeClient(Options{
		SecretKey:  "sk_test_123",
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
		Logger:     zerolog.Nop(),
	})
	require.NoError(t, err)
	return client
}

func TestNewStripeClientRequiresKey(t *testing.T) {
	_, err := NewStripeClient(Options{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestCreateIntent(t *testing.T) {
	var form url.Values
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		form, _ = url.ParseQuery(string(body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"pi_1","object":"payment_intent","amount":500,"currency":"usd","status":"requires_payment_method","client_secret":"pi_1_secret","metadata":{"uid":"u1"}}`)
	})

	intent, err := client.CreateIntent(context.Background(), 500, "USD", map[string]string{"uid": "u1"})
	require.NoError(t, err)
	assert.Equal(t, "pi_1", intent.ID)
	assert.Equal(t, "pi_1_secret", intent.ClientSecret)
	assert.Equal(t, int64(500), intent.AmountInt)
	assert.Equal(t, "500", form.Get("amount"))
	assert.Equal(t, "usd", form.Get("currency"))
	assert.Equal(t, "u1", form.Get("metadata[uid]"))
}

func TestGetIntent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents/pi_1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"pi_1","object":"payment_intent","amount":500,"currency":"usd","status":"succeeded","metadata":{"uid":"u1"}}`)
	})

	intent, err := client.GetIntent(context.Background(), "pi_1")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentIntentSucceeded, intent.Status)
	assert.Equal(t, "usd", intent.Currency)
	assert.Equal(t, "u1", intent.Metadata["uid"])
}

func TestGetIntentNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"type":"invalid_request_error","code":"resource_missing","message":"No such payment_intent"}}`)
	})

	_, err := client.GetIntent(context.Background(), "pi_missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
