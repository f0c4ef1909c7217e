package domain

import "time"

// RequestStatus enumerates donation request lifecycle states.
type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "pending"
	RequestStatusInProgress RequestStatus = "inprogress"
	RequestStatusDone       RequestStatus = "done"
	RequestStatusCanceled   RequestStatus = "canceled"
)

// requestTransitions lists the allowed successors of each status.
// inprogress -> pending is deliberately absent.
var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestStatusPending:    {RequestStatusInProgress, RequestStatusCanceled},
	RequestStatusInProgress: {RequestStatusDone, RequestStatusCanceled},
	RequestStatusDone:       nil,
	RequestStatusCanceled:   nil,
}

// Valid reports whether s is a known request status.
func (s RequestStatus) Valid() bool {
	_, ok := requestTransitions[s]
	return ok
}

// CanTransitionTo reports whether to is an allowed successor of s.
func (s RequestStatus) CanTransitionTo(to RequestStatus) bool {
	for _, next := range requestTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s RequestStatus) Terminal() bool {
	return s.Valid() && len(requestTransitions[s]) == 0
}

// DonationRequest is a call for blood raised by a registered user.
type DonationRequest struct {
	ID                  string
	RequesterExternalID string
	// Payload holds the recipient and location fields as submitted.
	Payload    map[string]any
	Status     RequestStatus
	DonorName  string
	DonorEmail string
	Version    int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// reservedPayloadKeys are lifecycle fields that must never travel inside a payload.
var reservedPayloadKeys = []string{
	"_id", "id", "status", "donorName", "donorEmail", "version",
	"createdAt", "updatedAt", "requesterUid", "requesterExternalId",
}

// SanitizePayload returns a copy of p without lifecycle keys.
func SanitizePayload(p map[string]any) map[string]any {
	out := make(map[string]any, len(p))
	for k, v := range p {
		out[k] = v
	}
	for _, k := range reservedPayloadKeys {
		delete(out, k)
	}
	return out
}
