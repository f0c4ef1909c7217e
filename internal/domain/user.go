package domain

import (
	"strings"
	"time"
)

// UserRole enumerates supported roles.
type UserRole string

const (
	UserRoleDonor     UserRole = "donor"
	UserRoleVolunteer UserRole = "volunteer"
	UserRoleAdmin     UserRole = "admin"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case UserRoleDonor, UserRoleVolunteer, UserRoleAdmin:
		return true
	}
	return false
}

// UserStatus enumerates account states.
type UserStatus string

const (
	UserStatusActive  UserStatus = "active"
	UserStatusBlocked UserStatus = "blocked"
)

// Valid reports whether s is a known status.
func (s UserStatus) Valid() bool {
	return s == UserStatusActive || s == UserStatusBlocked
}

// ParseUserStatus normalizes raw status input ("Active ", "BLOCKED").
func ParseUserStatus(raw string) UserStatus {
	return UserStatus(strings.ToLower(strings.TrimSpace(raw)))
}

// ParseUserRole normalizes raw role input.
func ParseUserRole(raw string) UserRole {
	return UserRole(strings.ToLower(strings.TrimSpace(raw)))
}

var bloodGroups = map[string]struct{}{
	"A+": {}, "A-": {}, "B+": {}, "B-": {},
	"AB+": {}, "AB-": {}, "O+": {}, "O-": {},
}

// ValidBloodGroup reports whether g is one of the ABO/Rh groups.
func ValidBloodGroup(g string) bool {
	_, ok := bloodGroups[g]
	return ok
}

// User represents a registered donor, volunteer or admin.
type User struct {
	ID         string
	ExternalID string
	Email      string
	Name       string
	AvatarURL  string
	BloodGroup string
	District   string
	Upazila    string
	Role       UserRole
	Status     UserStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsActive reports whether the user may act on requests.
func (u User) IsActive() bool {
	return ParseUserStatus(string(u.Status)) == UserStatusActive
}

// HasRole reports whether the user's role is one of roles.
func (u User) HasRole(roles ...UserRole) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// ProfileUpdate carries the fields a user may change on their own profile.
// Nil fields are left untouched.
type ProfileUpdate struct {
	Name       *string
	AvatarURL  *string
	BloodGroup *string
	District   *string
	Upazila    *string
}

// Empty reports whether no field is set.
func (p ProfileUpdate) Empty() bool {
	return p.Name == nil && p.AvatarURL == nil && p.BloodGroup == nil && p.District == nil && p.Upazila == nil
}

// Apply copies the set fields onto u.
func (p ProfileUpdate) Apply(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.AvatarURL != nil {
		u.AvatarURL = *p.AvatarURL
	}
	if p.BloodGroup != nil {
		u.BloodGroup = *p.BloodGroup
	}
	if p.District != nil {
		u.District = *p.District
	}
	if p.Upazila != nil {
		u.Upazila = *p.Upazila
	}
}

// NormalizeBloodGroup upper-cases g and restores a '+' that form/query
// decoding turned into a trailing space ("AB " -> "AB+").
func NormalizeBloodGroup(g string) string {
	if strings.HasSuffix(g, " ") && strings.TrimSpace(g) != "" {
		g = strings.TrimSpace(g) + "+"
	}
	return strings.ToUpper(strings.TrimSpace(g))
}
