package domain

import "time"

// FundingRecord is an immutable ledger entry for one completed contribution.
type FundingRecord struct {
	ID              string
	UID             string
	Name            string
	Email           string
	AmountInt       int64
	Currency        string
	PaymentIntentID string
	CreatedAt       time.Time
}

// PaymentIntentStatus mirrors the processor's intent state we care about.
type PaymentIntentStatus string

const (
	PaymentIntentSucceeded  PaymentIntentStatus = "succeeded"
	PaymentIntentProcessing PaymentIntentStatus = "processing"
)

// PaymentIntent is the processor-side view of a charge.
type PaymentIntent struct {
	ID           string
	ClientSecret string
	AmountInt    int64
	Currency     string
	Status       PaymentIntentStatus
	Metadata     map[string]string
}
