// Package permission implements the role-hierarchy rules governing team
// membership. All predicates are pure functions over roles and ownership
// facts; absence of permission is expressed as false, never as an error.
package permission

// Role is a team membership role, ordered by power.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
	RoleViewer Role = "viewer"
)

var rolePower = map[Role]int{
	RoleOwner:  3,
	RoleAdmin:  2,
	RoleMember: 1,
	RoleViewer: 0,
}

// Valid reports whether r is one of the four defined roles.
func (r Role) Valid() bool {
	_, ok := rolePower[r]
	return ok
}

// Power returns the numeric power of r (owner=3 .. viewer=0).
// Unknown roles have power -1 and lose every comparison.
func (r Role) Power() int {
	p, ok := rolePower[r]
	if !ok {
		return -1
	}
	return p
}

// IsPrimaryOwner reports whether userID is the team's primary owner, the
// user who created the team. Primary-owner status is derived by equality
// with the team's owner ID, never stored.
func IsPrimaryOwner(userID, teamOwnerID string) bool {
	return userID == teamOwnerID
}

// IsHigherRole reports whether a strictly outranks b. Equal roles are
// never higher.
func IsHigherRole(a, b Role) bool {
	return a.Power() > b.Power()
}

// CanManageMembers reports whether a role may invite, add, or remove
// members at all. Only owners and admins manage members.
func CanManageMembers(r Role) bool {
	return r == RoleOwner || r == RoleAdmin
}

// CanAssignRole reports whether the actor may grant newRole to someone
// joining the team. The primary owner may assign any role; everyone else
// must strictly outrank the role being assigned, so an admin can hand out
// member or viewer but never admin or owner.
func CanAssignRole(actorRole Role, actorUserID, teamOwnerID string, newRole Role) bool {
	if IsPrimaryOwner(actorUserID, teamOwnerID) {
		return true
	}
	return IsHigherRole(actorRole, newRole)
}

// CanChangeRole reports whether the actor may move an existing member from
// targetRole to newRole. The primary owner always may; everyone else must
// strictly outrank both the target's current role and the requested one.
func CanChangeRole(actorRole Role, actorUserID, teamOwnerID string, targetRole, newRole Role) bool {
	if IsPrimaryOwner(actorUserID, teamOwnerID) {
		return true
	}
	return IsHigherRole(actorRole, targetRole) && IsHigherRole(actorRole, newRole)
}

// CanRemoveMember reports whether the actor may remove the target member.
// The primary owner can never be removed, and the last remaining owner
// can never be removed. Past those guards the primary owner may remove
// anyone; other actors must strictly outrank the target.
func CanRemoveMember(actorRole Role, actorUserID, teamOwnerID string, targetRole Role, targetUserID string, ownersCount int) bool {
	if IsPrimaryOwner(targetUserID, teamOwnerID) {
		return false
	}
	if targetRole == RoleOwner && ownersCount <= 1 {
		return false
	}
	if IsPrimaryOwner(actorUserID, teamOwnerID) {
		return true
	}
	return IsHigherRole(actorRole, targetRole)
}

// CanDeleteTeam reports whether userID may delete the team. Only the
// primary owner may; co-owners holding the owner role are not enough.
func CanDeleteTeam(userID, teamOwnerID string) bool {
	return IsPrimaryOwner(userID, teamOwnerID)
}
