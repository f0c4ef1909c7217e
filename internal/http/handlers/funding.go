package handlers

import (
	"net/http"
	"time"

	"blooddonation/internal/domain"
)

type intentRequest struct {
	Amount int64 `json:"amount"`
}

func (a *App) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	payer, err := a.authorize(r, anyRole...)
	if err != nil {
		a.error(w, r, err)
		return
	}
	var req intentRequest
	if err := decode(r, &req); err != nil {
		a.error(w, r, err)
		return
	}
	secret, err := a.Funding.CreatePaymentIntent(r.Context(), payer.ExternalID, req.Amount)
	if err != nil {
		a.error(w, r, err)
		return
	}
	a.success(w, http.StatusOK, map[string]any{"clientSecret": secret})
}

type recordRequest struct {
	Amount          int64  `json:"amount"`
	PaymentIntentID string `json:"paymentIntentId"`
}

type fundingDTO struct {
	ID              string    `json:"id"`
	UID             string    `json:"uid"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Amount          int64     `json:"amount"`
	Currency        string    `json:"currency"`
	PaymentIntentID string    `json:"paymentIntentId"`
	CreatedAt       time.Time `json:"createdAt"`
}

func toFundingDTO(rec *domain.FundingRecord) fundingDTO {
	return fundingDTO{
		ID:              rec.ID,
		UID:             rec.UID,
		Name:            rec.Name,
		Email:           rec.Email,
		Amount:          rec.AmountInt,
		Currency:        rec.Currency,
		PaymentIntentID: rec.PaymentIntentID,
		CreatedAt:       rec.CreatedAt,
	}
}

func (a *App) RecordFunding(w http.ResponseWriter, r *http.Request) {
	payer, err := a.authorize(r, anyRole...)
	if err != nil {
		a.error(w, r, err)
		return
	}
	var req recordRequest
	if err := decode(r, &req); err != nil {
		a.error(w, r, err)
		return
	}
	rec, err := a.Funding.Record(r.Context(), payer.ExternalID, req.Amount, req.PaymentIntentID)
	if err != nil {
		a.error(w, r, err)
		return
	}
	a.success(w, http.StatusCreated, map[string]any{"funding": toFundingDTO(rec)})
}

func (a *App) ListFunding(w http.ResponseWriter, r *http.Request) {
	if _, err := a.authorize(r, anyRole...); err != nil {
		a.error(w, r, err)
		return
	}
	records, err := a.Funding.List(r.Context())
	if err != nil {
		a.error(w, r, err)
		return
	}
	items := make([]fundingDTO, 0, len(records))
	for i := range records {
		items = append(items, toFundingDTO(&records[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}
