package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"blooddonation/internal/domain"
	"blooddonation/internal/identity"
)

type identityProof struct {
	IDToken string `json:"idToken"`
	UID     string `json:"uid"`
	Email   string `json:"email"`
}

type registerRequest struct {
	identityProof
	Name       string `json:"name"`
	Avatar     string `json:"avatar"`
	BloodGroup string `json:"bloodGroup"`
	District   string `json:"district"`
	Upazila    string `json:"upazila"`
}

// verifiedIdentity returns the uid and email proven by the identity provider
// token. Without a provider the body is trusted, in development only.
func (a *App) verifiedIdentity(ctx context.Context, proof identityProof) (string, string, error) {
	if a.IDTokens != nil {
		if strings.TrimSpace(proof.IDToken) == "" {
			return "", "", domain.ErrUnauthorized
		}
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		claims, err := a.IDTokens.Verify(ctx, proof.IDToken)
		if err != nil {
			a.Logger.Warn().Err(err).Msg("id token rejected")
			return "", "", err
		}
		return claims.Subject, claims.Email, nil
	}
	if !a.AllowUnverifiedIdentity {
		return "", "", fmt.Errorf("%w: no identity provider configured", domain.ErrUnavailable)
	}
	if strings.TrimSpace(proof.UID) == "" {
		return "", "", domain.ErrUnauthorized
	}
	return proof.UID, proof.Email, nil
}

func (a *App) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		a.error(w, r, err)
		return
	}
	uid, email, err := a.verifiedIdentity(r.Context(), req.identityProof)
	if err != nil {
		a.error(w, r, err)
		return
	}
	user, err := a.Identity.Register(r.Context(), identity.Profile{
		ExternalID: uid,
		Email:      email,
		Name:       req.Name,
		AvatarURL:  req.Avatar,
		BloodGroup: domain.NormalizeBloodGroup(req.BloodGroup),
		District:   req.District,
		Upazila:    req.Upazila,
	})
	if err != nil {
		a.error(w, r, err)
		return
	}
	a.success(w, http.StatusCreated, map[string]any{"user": toUserDTO(user)})
}

// IssueToken exchanges an identity provider token for an application
// credential. The account must already be registered.
func (a *App) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req identityProof
	if err := decode(r, &req); err != nil {
		a.error(w, r, err)
		return
	}
	uid, _, err := a.verifiedIdentity(r.Context(), req)
	if err != nil {
		a.error(w, r, err)
		return
	}
	user, err := a.Identity.FindByExternalID(r.Context(), uid)
	if err != nil {
		a.error(w, r, err)
		return
	}
	token, expires, err := a.Tokens.Issue(user.ExternalID, user.Email, string(user.Role))
	if err != nil {
		a.error(w, r, err)
		return
	}
	a.success(w, http.StatusOK, map[string]any{
		"token":     token,
		"expiresAt": expires,
		"user":      toUserDTO(user),
	})
}
