package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"blooddonation/internal/access"
	"blooddonation/internal/domain"
)

type userDTO struct {
	UID        string    `json:"uid"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Avatar     string    `json:"avatar,omitempty"`
	BloodGroup string    `json:"bloodGroup,omitempty"`
	District   string    `json:"district,omitempty"`
	Upazila    string    `json:"upazila,omitempty"`
	Role       string    `json:"role"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toUserDTO(u *domain.User) userDTO {
	return userDTO{
		UID:        u.ExternalID,
		Email:      u.Email,
		Name:       u.Name,
		Avatar:     u.AvatarURL,
		BloodGroup: u.BloodGroup,
		District:   u.District,
		Upazila:    u.Upazila,
		Role:       string(u.Role),
		Status:     string(u.Status),
		CreatedAt:  u.CreatedAt,
	}
}

func toUserDTOs(users []domain.User) []userDTO {
	out := make([]userDTO, 0, len(users))
	for i := range users {
		out = append(out, toUserDTO(&users[i]))
	}
	return out
}

// Me returns the caller's own profile. Blocked users can still read it.
func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		a.error(w, r, err)
		return
	}
	user, err := a.Authz.Resolve(r.Context(), c)
	if err != nil {
		a.error(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toUserDTO(user))
}

type profileRequest struct {
	Name       *string `json:"name"`
	Avatar     *string `json:"avatar"`
	BloodGroup *string `json:"bloodGroup"`
	District   *string `json:"district"`
	Upazila    *string `json:"upazila"`
}

func (a *App) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user, err := a.authorize(r, anyRole...)
	if err != nil {
		a.error(w, r, err)
		return
	}
	var req profileRequest
	if err := decode(r, &req); err != nil {
		a.error(w, r, err)
		return
	}
	if req.BloodGroup != nil {
		g := domain.NormalizeBloodGroup(*req.BloodGroup)
		req.BloodGroup = &g
	}
	updated, err := a.Identity.UpdateProfile(r.Context(), user.ExternalID, domain.ProfileUpdate{
		Name:       req.Name,
		AvatarURL:  req.Avatar,
		BloodGroup: req.BloodGroup,
		District:   req.District,
		Upazila:    req.Upazila,
	})
	if err != nil {
		a.error(w, r, err)
		return
	}
	a.success(w, http.StatusOK, map[string]any{"user": toUserDTO(updated)})
}

// GetUser returns another user's profile to that user or to staff.
func (a *App) GetUser(w http.ResponseWriter, r *http.Request) {
	viewer, err := a.authorize(r, anyRole...)
	if err != nil {
		a.error(w, r, err)
		return
	}
	uid := chi.URLParam(r, "uid")
	if uid != viewer.ExternalID && !access.IsStaff(viewer) {
		a.error(w, r, domain.ErrForbidden)
		return
	}
	user, err := a.Identity.FindByExternalID(r.Context(), uid)
	if err != nil {
		a.error(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toUserDTO(user))
}

type donorDTO struct {
	Name       string `json:"name"`
	Avatar     string `json:"avatar,omitempty"`
	BloodGroup string `json:"bloodGroup"`
	District   string `json:"district"`
	Upazila    string `json:"upazila"`
}

// SearchDonors is public, so it exposes no contact details.
func (a *App) SearchDonors(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	found, err := a.Identity.SearchDonors(r.Context(), domain.DonorSearch{
		BloodGroup: domain.NormalizeBloodGroup(q.Get("bloodGroup")),
		District:   q.Get("district"),
		Upazila:    q.Get("upazila"),
	})
	if err != nil {
		a.error(w, r, err)
		return
	}
	items := make([]donorDTO, 0, len(found))
	for _, u := range found {
		items = append(items, donorDTO{
			Name:       u.Name,
			Avatar:     u.AvatarURL,
			BloodGroup: u.BloodGroup,
			District:   u.District,
			Upazila:    u.Upazila,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func (a *App) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	if _, err := a.authorize(r, domain.UserRoleAdmin); err != nil {
		a.error(w, r, err)
		return
	}
	page, err := pageFromQuery(r)
	if err != nil {
		a.error(w, r, err)
		return
	}
	q := r.URL.Query()
	filter := domain.UserFilter{}
	if v := q.Get("status"); v != "" {
		filter.Status = domain.ParseUserStatus(v)
	}
	if v := q.Get("role"); v != "" {
		filter.Role = domain.ParseUserRole(v)
	}
	users, total, err := a.Identity.List(r.Context(), filter, page)
	if err != nil {
		a.error(w, r, err)
		return
	}
	a.json(w, http.StatusOK, pageBody(toUserDTOs(users), total, page))
}

type roleRequest struct {
	Role string `json:"role"`
}

func (a *App) AdminSetRole(w http.ResponseWriter, r *http.Request) {
	admin, err := a.authorize(r, domain.UserRoleAdmin)
	if err != nil {
		a.error(w, r, err)
		return
	}
	var req roleRequest
	if err := decode(r, &req); err != nil {
		a.error(w, r, err)
		return
	}
	uid := chi.URLParam(r, "uid")
	if err := a.Identity.SetRole(r.Context(), uid, domain.UserRole(req.Role)); err != nil {
		a.error(w, r, err)
		return
	}
	a.Logger.Info().Str("by", admin.ExternalID).Str("uid", uid).Str("role", req.Role).Msg("admin changed role")
	a.success(w, http.StatusOK, nil)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (a *App) AdminSetUserStatus(w http.ResponseWriter, r *http.Request) {
	admin, err := a.authorize(r, domain.UserRoleAdmin)
	if err != nil {
		a.error(w, r, err)
		return
	}
	var req statusRequest
	if err := decode(r, &req); err != nil {
		a.error(w, r, err)
		return
	}
	uid := chi.URLParam(r, "uid")
	if err := a.Identity.SetStatus(r.Context(), uid, domain.UserStatus(req.Status)); err != nil {
		a.error(w, r, err)
		return
	}
	a.Logger.Info().Str("by", admin.ExternalID).Str("uid", uid).Str("status", req.Status).Msg("admin changed status")
	a.success(w, http.StatusOK, nil)
}
