package team

import (
	"time"

	"github.com/google/uuid"

	"github.com/teamcore/teamcore/permission"
)

// Role is re-exported from the permission package so callers of the
// service API rarely need both imports.
type Role = permission.Role

const (
	RoleOwner  = permission.RoleOwner
	RoleAdmin  = permission.RoleAdmin
	RoleMember = permission.RoleMember
	RoleViewer = permission.RoleViewer
)

// Plan is a team's billing plan. Stored only; no enforcement happens here.
type Plan string

const (
	PlanFree       Plan = "free"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// Valid reports whether p is a known plan.
func (p Plan) Valid() bool {
	return p == PlanFree || p == PlanPro || p == PlanEnterprise
}

// Status is a team's lifecycle status.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusDeleted   Status = "deleted"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusSuspended || s == StatusDeleted
}

// Team represents a row in the team table. OwnerID identifies the primary
// owner and never changes after creation; the member whose user ID equals
// it holds implicit full permission regardless of stored role.
type Team struct {
	ID        uuid.UUID
	Name      string
	Slug      string
	OwnerID   string
	Plan      Plan
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TeamMember represents a row in the team_member table. The
// (TeamID, UserID) pair is unique: a user holds at most one membership
// per team.
type TeamMember struct {
	ID       uuid.UUID
	TeamID   uuid.UUID
	UserID   string
	Role     Role
	JoinedAt time.Time
}

// Membership is a member row joined with its team, loaded in one read so
// every permission decision sees a consistent snapshot of both.
type Membership struct {
	Member TeamMember
	Team   Team
}

// InviteState is the derived lifecycle state of an invite.
type InviteState string

const (
	InvitePending  InviteState = "pending"
	InviteAccepted InviteState = "accepted"
	InviteRevoked  InviteState = "revoked"
	InviteExpired  InviteState = "expired"
)

// TeamInvite represents a row in the team_invite table. AcceptedAt and
// AcceptedBy are set together on acceptance; accepted and revoked are
// terminal, expiry is derived from ExpiresAt at read time.
type TeamInvite struct {
	ID         uuid.UUID
	TeamID     uuid.UUID
	Email      string
	Role       Role
	Token      string
	ExpiresAt  time.Time
	AcceptedAt *time.Time
	AcceptedBy *string
	RevokedAt  *time.Time
	CreatedAt  time.Time
}

// Accepted reports whether the invite reached its accepted terminal state.
func (i *TeamInvite) Accepted() bool { return i.AcceptedAt != nil }

// Revoked reports whether the invite was revoked.
func (i *TeamInvite) Revoked() bool { return i.RevokedAt != nil }

// Expired reports whether the invite's deadline has passed at now.
func (i *TeamInvite) Expired(now time.Time) bool {
	return i.ExpiresAt.Before(now)
}

// Pending reports whether the invite can still be accepted at now.
func (i *TeamInvite) Pending(now time.Time) bool {
	return !i.Accepted() && !i.Revoked() && !i.Expired(now)
}

// State derives the invite's lifecycle state at now. Terminal states win
// over expiry: an accepted invite stays accepted after its deadline.
func (i *TeamInvite) State(now time.Time) InviteState {
	switch {
	case i.Accepted():
		return InviteAccepted
	case i.Revoked():
		return InviteRevoked
	case i.Expired(now):
		return InviteExpired
	default:
		return InvitePending
	}
}

// Audit action names emitted by the service, in the sink's vocabulary.
const (
	ActionCreate       = "CREATE"
	ActionUpdate       = "UPDATE"
	ActionDelete       = "DELETE"
	ActionAdd          = "ADD"
	ActionUpdateRole   = "UPDATE_ROLE"
	ActionRemove       = "REMOVE"
	ActionInviteCreate = "INVITE_CREATE"
	ActionInviteAccept = "INVITE_ACCEPT"
	ActionInviteRevoke = "INVITE_REVOKE"
)
