package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"blooddonation/internal/access"
	"blooddonation/internal/domain"
)

// TokenClaims are the claims of an application credential. Role is a hint for
// clients only; authorization always re-reads the stored role.
type TokenClaims struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 application credentials.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret, issuer string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs a credential for the given identity.
func (t *TokenIssuer) Issue(uid, email, role string) (string, time.Time, error) {
	if strings.TrimSpace(uid) == "" {
		return "", time.Time{}, domain.InvalidInputf("uid is required")
	}
	now := t.now()
	expires := now.Add(t.ttl)
	claims := TokenClaims{
		UID:   uid,
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// Verify checks signature, issuer and expiry. Every failure wraps
// domain.ErrUnauthorized.
func (t *TokenIssuer) Verify(token string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}
	if claims.UID == "" {
		return nil, fmt.Errorf("%w: token has no uid", domain.ErrUnauthorized)
	}
	return claims, nil
}

type callerKey struct{}

// AuthJWT rejects requests without a valid bearer credential and stores the
// verified caller in the request context.
func AuthJWT(tokens *TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				WriteError(w, r, http.StatusUnauthorized, "unauthorized")
				return
			}
			claims, err := tokens.Verify(raw)
			if err != nil {
				WriteError(w, r, http.StatusUnauthorized, "unauthorized")
				return
			}
			ctx := ContextWithCaller(r.Context(), access.Caller{ExternalID: claims.UID, Email: claims.Email})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// CallerFromContext returns the verified caller, if any.
func CallerFromContext(ctx context.Context) (access.Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(access.Caller)
	return c, ok && c.ExternalID != ""
}

func ContextWithCaller(ctx context.Context, caller access.Caller) context.Context {
	if strings.TrimSpace(caller.ExternalID) == "" {
		return ctx
	}
	return context.WithValue(ctx, callerKey{}, caller)
}
