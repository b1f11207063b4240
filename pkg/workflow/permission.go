package workflow

import "github.com/google/uuid"

// Role is a platform or counterparty role name as carried in JWT claims.
type Role string

const (
	RoleSuperAdmin        Role = "super_admin"
	RoleCommercialManager Role = "commercial_manager"
	RoleDirector          Role = "director"
	RolePlanAdmin         Role = "plan_admin"
	RoleClinicAdmin       Role = "clinic_admin"
	RoleProfessional      Role = "professional"
)

// User is the actor evaluated by the approval predicates. EntityKind and
// EntityID link counterparty users (plan admins, clinic admins,
// professionals) to the entity they represent; platform staff leave them
// zero.
type User struct {
	ID         string
	Roles      []Role
	EntityKind Kind
	EntityID   uuid.UUID
}

// HasRole reports whether the user carries the given role.
func (u *User) HasRole(r Role) bool {
	if u == nil {
		return false
	}
	for _, have := range u.Roles {
		if have == r {
			return true
		}
	}
	return false
}

// internalApproverRoles are the platform roles allowed to record the internal
// approval decision. super_admin belongs here once; the duplicated
// special-case the legacy client carried was collapsed.
var internalApproverRoles = []Role{RoleSuperAdmin, RoleCommercialManager, RoleDirector}

// CanApproveInternally reports whether the user may record an internal
// (platform-side) approval decision on any negotiation.
func CanApproveInternally(u *User) bool {
	if u == nil {
		return false
	}
	for _, r := range internalApproverRoles {
		if u.HasRole(r) {
			return true
		}
	}
	return false
}

// externalApproverRole maps a counterparty kind to the role whose holders may
// approve on that counterparty's behalf.
var externalApproverRole = map[Kind]Role{
	KindHealthPlan:   RolePlanAdmin,
	KindClinic:       RoleClinicAdmin,
	KindProfessional: RoleProfessional,
}

// CanApproveExternally reports whether the user may record the counterparty's
// approval decision on a negotiation with the given negotiable. Platform
// super admins always may; anyone else needs the kind-specific role and an
// entity link matching the negotiable's id.
func CanApproveExternally(u *User, n Negotiable) bool {
	if u == nil {
		return false
	}
	if u.HasRole(RoleSuperAdmin) {
		return true
	}
	role, ok := externalApproverRole[n.Kind]
	if !ok {
		return false
	}
	return u.HasRole(role) && u.EntityID == n.ID && u.EntityID != uuid.Nil
}

// CanDirectorApprove reports whether the user may clear the director
// sign-off stage.
func CanDirectorApprove(u *User) bool {
	return u.HasRole(RoleDirector) || u.HasRole(RoleSuperAdmin)
}
