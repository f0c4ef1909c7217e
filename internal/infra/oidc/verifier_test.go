package oidc

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blooddonation/internal/domain"
)

type issuerFixture struct {
	srv      *httptest.Server
	key      *rsa.PrivateKey
	verifier *Verifier
}

func newIssuer(t *testing.T) issuerFixture {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"jwks_uri": srv.URL + "/keys"})
	})
	mux.HandleFunc("/keys", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(jwks{Keys: []jwk{{
			Kid: "k1",
			Kty: "RSA",
			Alg: "RS256",
			N:   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
			E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		}}})
	})
	return issuerFixture{srv: srv, key: key, verifier: NewVerifier(srv.URL+"/", "project-1")}
}

func (f issuerFixture) sign(t *testing.T, kid string, claims IDClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = kid
	raw, err := tok.SignedString(f.key)
	require.NoError(t, err)
	return raw
}

func (f issuerFixture) claims(sub string) IDClaims {
	return IDClaims{
		Email: sub + "@example.com",
		Name:  "Test " + sub,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			Issuer:    f.srv.URL,
			Audience:  jwt.ClaimStrings{"project-1"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestVerifyValidToken(t *testing.T) {
	f := newIssuer(t)

	claims, err := f.verifier.Verify(context.Background(), f.sign(t, "k1", f.claims("abc")))
	require.NoError(t, err)
	assert.Equal(t, "abc", claims.Subject)
	assert.Equal(t, "abc@example.com", claims.Email)
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	f := newIssuer(t)

	wrongAud := f.claims("abc")
	wrongAud.Audience = jwt.ClaimStrings{"other"}
	wrongIss := f.claims("abc")
	wrongIss.Issuer = "https://evil.example.com"
	expired := f.claims("abc")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	noSubject := f.claims("")

	cases := map[string]string{
		"audience":    f.sign(t, "k1", wrongAud),
		"issuer":      f.sign(t, "k1", wrongIss),
		"expired":     f.sign(t, "k1", expired),
		"unknown kid": f.sign(t, "k2", f.claims("abc")),
		"no subject":  f.sign(t, "k1", noSubject),
		"garbage":     "a.b.c",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.verifier.Verify(context.Background(), raw)
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
		})
	}
}

func TestVerifyIssuerDown(t *testing.T) {
	f := newIssuer(t)
	raw := f.sign(t, "k1", f.claims("abc"))
	f.srv.Close()

	_, err := f.verifier.Verify(context.Background(), raw)
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}
