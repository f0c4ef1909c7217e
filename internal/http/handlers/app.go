package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"blooddonation/internal/access"
	"blooddonation/internal/domain"
	"blooddonation/internal/funding"
	"blooddonation/internal/identity"
	"blooddonation/internal/infra/oidc"
	"blooddonation/internal/lifecycle"
	"blooddonation/internal/middleware"
)

// IDTokenVerifier verifies upstream identity provider tokens.
type IDTokenVerifier interface {
	Verify(ctx context.Context, token string) (*oidc.IDClaims, error)
}

// Pinger reports storage health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// App carries every dependency the HTTP handlers need. It is built once in
// cmd/api and shared by all requests.
type App struct {
	Identity *identity.Service
	Requests *lifecycle.Manager
	Funding  *funding.Ledger
	Authz    *access.Authorizer
	Tokens   *middleware.TokenIssuer
	// IDTokens is nil when no identity provider is configured. Registration
	// and token issuance then trust the uid in the body, which is only
	// allowed when AllowUnverifiedIdentity is set (development).
	IDTokens                IDTokenVerifier
	AllowUnverifiedIdentity bool
	Store                   Pinger
	Logger                  zerolog.Logger
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) success(w http.ResponseWriter, code int, fields map[string]any) {
	body := map[string]any{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	a.json(w, code, body)
}

// error maps a domain error onto a status code and the localized error body.
func (a *App) error(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		a.Logger.Error().Err(err).
			Str("request_id", middleware.RequestIDFromContext(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
	}
	middleware.WriteError(w, r, status, code)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount):
		return http.StatusBadRequest, "invalid_amount"
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrDuplicateIdentity):
		return http.StatusConflict, "duplicate_identity"
	case errors.Is(err, domain.ErrNotPending):
		return http.StatusConflict, "not_pending"
	case errors.Is(err, domain.ErrDuplicatePayment):
		return http.StatusConflict, "duplicate_payment"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, domain.ErrUnavailable):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, domain.ErrProviderFailure):
		return http.StatusBadGateway, "payment_failed"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

const maxBodyBytes = 1 << 20

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return domain.InvalidInputf("invalid JSON body: %v", err)
	}
	return nil
}

// caller returns the verified identity placed in the context by AuthJWT.
func caller(r *http.Request) (access.Caller, error) {
	c, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		return access.Caller{}, domain.ErrUnauthorized
	}
	return c, nil
}

// authorize resolves the caller and checks their current role.
func (a *App) authorize(r *http.Request, allowed ...domain.UserRole) (*domain.User, error) {
	c, err := caller(r)
	if err != nil {
		return nil, err
	}
	return a.Authz.Authorize(r.Context(), c, allowed...)
}

var anyRole = []domain.UserRole{domain.UserRoleDonor, domain.UserRoleVolunteer, domain.UserRoleAdmin}

var staffRoles = []domain.UserRole{domain.UserRoleAdmin, domain.UserRoleVolunteer}

// pageFromQuery reads ?page= and ?limit=. Missing values default to page 1
// and the default limit; malformed values are rejected.
func pageFromQuery(r *http.Request) (domain.Page, error) {
	page := domain.Page{Number: 1, Limit: domain.DefaultPageLimit}
	q := r.URL.Query()
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return page, domain.InvalidInputf("page must be a number")
		}
		page.Number = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return page, domain.InvalidInputf("limit must be a number")
		}
		page.Limit = n
	}
	return page, page.Validate()
}

func pageBody(items any, total int, page domain.Page) map[string]any {
	return map[string]any{
		"items": items,
		"total": total,
		"page":  page.Number,
		"limit": page.Limit,
	}
}
