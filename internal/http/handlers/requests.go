package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"blooddonation/internal/domain"
)

// requestDTO flattens the opaque payload next to the lifecycle fields.
// Reserved keys are stripped from payloads on write, so nothing collides.
func requestDTO(req *domain.DonationRequest) map[string]any {
	out := make(map[string]any, len(req.Payload)+8)
	for k, v := range req.Payload {
		out[k] = v
	}
	out["id"] = req.ID
	out["requesterUid"] = req.RequesterExternalID
	out["status"] = req.Status
	out["donorName"] = req.DonorName
	out["donorEmail"] = req.DonorEmail
	out["version"] = req.Version
	out["createdAt"] = req.CreatedAt.Format(time.RFC3339)
	if !req.UpdatedAt.IsZero() {
		out["updatedAt"] = req.UpdatedAt.Format(time.RFC3339)
	}
	return out
}

func requestDTOs(reqs []domain.DonationRequest) []map[string]any {
	out := make([]map[string]any, 0, len(reqs))
	for i := range reqs {
		out = append(out, requestDTO(&reqs[i]))
	}
	return out
}

func (a *App) CreateRequest(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		a.error(w, r, err)
		return
	}
	var payload map[string]any
	if err := decode(r, &payload); err != nil {
		a.error(w, r, err)
		return
	}
	req, err := a.Requests.Create(r.Context(), c.ExternalID, payload)
	if err != nil {
		a.error(w, r, err)
		return
	}
	a.success(w, http.StatusCreated, map[string]any{"id": req.ID, "request": requestDTO(req)})
}

// ListMyRequests lists the caller's own requests, optionally by ?status=.
func (a *App) ListMyRequests(w http.ResponseWriter, r *http.Request) {
	user, err := a.authorize(r, anyRole...)
	if err != nil {
		a.error(w, r, err)
		return
	}
	a.listRequests(w, r, domain.RequestFilter{RequesterExternalID: user.ExternalID})
}

func (a *App) AdminListRequests(w http.ResponseWriter, r *http.Request) {
	if _, err := a.authorize(r, staffRoles...); err != nil {
		a.error(w, r, err)
		return
	}
	a.listRequests(w, r, domain.RequestFilter{})
}

func (a *App) listRequests(w http.ResponseWriter, r *http.Request, filter domain.RequestFilter) {
	page, err := pageFromQuery(r)
	if err != nil {
		a.error(w, r, err)
		return
	}
	if v := r.URL.Query().Get("status"); v != "" {
		filter.Status = domain.RequestStatus(v)
	}
	items, total, err := a.Requests.List(r.Context(), filter, page)
	if err != nil {
		a.error(w, r, err)
		return
	}
	a.json(w, http.StatusOK, pageBody(requestDTOs(items), total, page))
}

// PublicRequests lists pending requests without authentication.
func (a *App) PublicRequests(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		a.error(w, r, err)
		return
	}
	items, total, err := a.Requests.ListPublicPending(r.Context(), page)
	if err != nil {
		a.error(w, r, err)
		return
	}
	a.json(w, http.StatusOK, pageBody(requestDTOs(items), total, page))
}

func (a *App) GetRequest(w http.ResponseWriter, r *http.Request) {
	if _, err := a.authorize(r, anyRole...); err != nil {
		a.error(w, r, err)
		return
	}
	req, err := a.Requests.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.error(w, r, err)
		return
	}
	a.json(w, http.StatusOK, requestDTO(req))
}

func (a *App) UpdateRequest(w http.ResponseWriter, r *http.Request) {
	user, err := a.authorize(r, anyRole...)
	if err != nil {
		a.error(w, r, err)
		return
	}
	var payload map[string]any
	if err := decode(r, &payload); err != nil {
		a.error(w, r, err)
		return
	}
	req, err := a.Requests.Update(r.Context(), user, chi.URLParam(r, "id"), payload)
	if err != nil {
		a.error(w, r, err)
		return
	}
	a.success(w, http.StatusOK, map[string]any{"request": requestDTO(req)})
}

// ConfirmRequest records the caller as the donor. Name and email come from
// the caller's profile, not from the body.
func (a *App) ConfirmRequest(w http.ResponseWriter, r *http.Request) {
	donor, err := a.authorize(r, anyRole...)
	if err != nil {
		a.error(w, r, err)
		return
	}
	name := donor.Name
	if name == "" {
		name = donor.Email
	}
	req, err := a.Requests.Confirm(r.Context(), chi.URLParam(r, "id"), name, donor.Email)
	if err != nil {
		a.error(w, r, err)
		return
	}
	a.success(w, http.StatusOK, map[string]any{"request": requestDTO(req)})
}

func (a *App) DeleteRequest(w http.ResponseWriter, r *http.Request) {
	user, err := a.authorize(r, anyRole...)
	if err != nil {
		a.error(w, r, err)
		return
	}
	if err := a.Requests.Delete(r.Context(), user, chi.URLParam(r, "id")); err != nil {
		a.error(w, r, err)
		return
	}
	a.success(w, http.StatusOK, nil)
}

func (a *App) AdminSetRequestStatus(w http.ResponseWriter, r *http.Request) {
	if _, err := a.authorize(r, staffRoles...); err != nil {
		a.error(w, r, err)
		return
	}
	var req statusRequest
	if err := decode(r, &req); err != nil {
		a.error(w, r, err)
		return
	}
	updated, err := a.Requests.AdminSetStatus(r.Context(), chi.URLParam(r, "id"), domain.RequestStatus(req.Status))
	if err != nil {
		a.error(w, r, err)
		return
	}
	a.success(w, http.StatusOK, map[string]any{"request": requestDTO(updated)})
}

func (a *App) AdminDeleteRequest(w http.ResponseWriter, r *http.Request) {
	admin, err := a.authorize(r, domain.UserRoleAdmin)
	if err != nil {
		a.error(w, r, err)
		return
	}
	if err := a.Requests.Delete(r.Context(), admin, chi.URLParam(r, "id")); err != nil {
		a.error(w, r, err)
		return
	}
	a.success(w, http.StatusOK, nil)
}
