package auth

import "strings"

// RoleKind is the closed set of membership roles inside an organization.
type RoleKind string

const (
	// RoleAdmin grants every capability RoleUser grants, plus management
	// actions.
	RoleAdmin RoleKind = "admin"
	// RoleUser is the baseline membership role.
	RoleUser RoleKind = "user"
)

// ParseRoleKind normalizes raw role input. Unknown values map to ("", false).
func ParseRoleKind(raw string) (RoleKind, bool) {
	switch RoleKind(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleUser:
		return RoleUser, true
	default:
		return "", false
	}
}

// Satisfies reports whether a held role meets a required role. The hierarchy
// is a fixed two-level one: admin covers user, nothing covers admin. Any
// unknown role on either side denies.
func Satisfies(required, actual RoleKind) bool {
	switch required {
	case RoleAdmin:
		return actual == RoleAdmin
	case RoleUser:
		return actual == RoleAdmin || actual == RoleUser
	default:
		return false
	}
}

// Membership records one org-scoped role held by a user.
type Membership struct {
	OrgID string
	Role  RoleKind
}

// Identity is the authenticated caller resolved for the current request.
// A nil *Identity means the caller is anonymous; all methods are nil-safe
// and deny for anonymous callers.
type Identity struct {
	ID          string
	Memberships []Membership
}

// RoleIn returns the caller's role within the given org, if any.
func (i *Identity) RoleIn(orgID string) (RoleKind, bool) {
	if i == nil || orgID == "" {
		return "", false
	}
	for _, m := range i.Memberships {
		if m.OrgID == orgID {
			return m.Role, true
		}
	}
	return "", false
}

// Authorized reports whether the caller holds at least the required role in
// the given org. An empty orgID always denies: an unresolved target must
// never grant access.
func (i *Identity) Authorized(orgID string, required RoleKind) bool {
	if orgID == "" {
		return false
	}
	role, ok := i.RoleIn(orgID)
	if !ok {
		return false
	}
	return Satisfies(required, role)
}

// BelongsTo reports whether the caller has any membership in the org,
// regardless of role.
func (i *Identity) BelongsTo(orgID string) bool {
	_, ok := i.RoleIn(orgID)
	return ok
}
