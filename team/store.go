package team

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors returned by Store implementations. The service maps
// them onto the caller-facing error taxonomy.
var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("row not found")

	// ErrDuplicateSlug is returned when a team insert or update violates
	// slug uniqueness.
	ErrDuplicateSlug = errors.New("team slug already exists")

	// ErrDuplicateMember is returned when a member insert violates the
	// (team, user) uniqueness constraint.
	ErrDuplicateMember = errors.New("user is already a team member")

	// ErrDuplicateInvite is returned when an invite insert violates the
	// (team, email) or token uniqueness constraints.
	ErrDuplicateInvite = errors.New("invite already exists")
)

// TeamUpdate carries the updatable team fields. Nil fields are left
// untouched; identity, ownership, and timestamps are never updatable, and
// Slug only moves together with Name.
type TeamUpdate struct {
	Name   *string
	Slug   *string
	Plan   *Plan
	Status *Status
}

// Tx is the set of reads and writes available inside one atomic scope.
// Every read that informs a permission decision happens through the same
// Tx as the write it conditions, so concurrent membership changes cannot
// invalidate a check mid-operation.
type Tx interface {
	InsertTeam(ctx context.Context, t *Team) error
	UpdateTeam(ctx context.Context, id uuid.UUID, u TeamUpdate) (*Team, error)
	DeleteTeam(ctx context.Context, id uuid.UUID) error

	// GetMembership loads a member row joined with its team in one read.
	GetMembership(ctx context.Context, teamID uuid.UUID, userID string) (*Membership, error)
	GetMember(ctx context.Context, teamID uuid.UUID, userID string) (*TeamMember, error)
	InsertMember(ctx context.Context, m *TeamMember) error
	UpdateMemberRole(ctx context.Context, id uuid.UUID, role Role) (*TeamMember, error)
	DeleteMember(ctx context.Context, teamID uuid.UUID, userID string) error
	DeleteTeamMembers(ctx context.Context, teamID uuid.UUID) error
	CountOwners(ctx context.Context, teamID uuid.UUID) (int, error)

	InsertInvite(ctx context.Context, i *TeamInvite) error
	GetInvite(ctx context.Context, teamID, id uuid.UUID) (*TeamInvite, error)
	GetInviteByToken(ctx context.Context, token string) (*TeamInvite, error)
	// GetInviteByEmail returns the invite row for (teamID, email)
	// regardless of state; at most one exists at any instant.
	GetInviteByEmail(ctx context.Context, teamID uuid.UUID, email string) (*TeamInvite, error)
	DeleteInvite(ctx context.Context, id uuid.UUID) error
	MarkInviteAccepted(ctx context.Context, id uuid.UUID, userID string, at time.Time) (*TeamInvite, error)
	MarkInviteRevoked(ctx context.Context, id uuid.UUID, at time.Time) (*TeamInvite, error)
}

// Store opens atomic transactions against the persistent store. If fn
// returns an error the transaction rolls back and WithinTx returns that
// error; otherwise the transaction commits.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}
