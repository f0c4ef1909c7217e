package handlers

import "net/http"

// StatsSummary backs the staff dashboard cards.
func (a *App) StatsSummary(w http.ResponseWriter, r *http.Request) {
	if _, err := a.authorize(r, staffRoles...); err != nil {
		a.error(w, r, err)
		return
	}
	ctx := r.Context()
	donors, err := a.Identity.CountDonors(ctx)
	if err != nil {
		a.error(w, r, err)
		return
	}
	requests, err := a.Requests.Count(ctx)
	if err != nil {
		a.error(w, r, err)
		return
	}
	funding, err := a.Funding.TotalAmount(ctx)
	if err != nil {
		a.error(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"totalDonors":   donors,
		"totalRequests": requests,
		"totalFunding":  funding,
	})
}

func (a *App) TotalFunding(w http.ResponseWriter, r *http.Request) {
	if _, err := a.authorize(r, staffRoles...); err != nil {
		a.error(w, r, err)
		return
	}
	total, err := a.Funding.TotalAmount(r.Context())
	if err != nil {
		a.error(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"total": total})
}
