// Package team implements multi-tenant team membership: team lifecycle,
// member management, and time-limited invitations, with a role hierarchy
// enforced by the permission package. Every operation runs inside one
// store transaction so permission checks and the writes they condition
// see a single consistent snapshot.
package team

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/teamcore/teamcore/audit"
	"github.com/teamcore/teamcore/ident"
	"github.com/teamcore/teamcore/permission"
)

const (
	defaultInviteTTL    = 24 * time.Hour
	defaultSlugAttempts = 5

	actorTypeUser = "user"

	entityTeam   = "team"
	entityMember = "member"
	entityInvite = "invite"
)

// Config tunes a Service. Zero values fall back to defaults.
type Config struct {
	// InviteTTL is how long a fresh invite stays acceptable. Default 24h.
	InviteTTL time.Duration

	// SlugAttempts bounds how many slugs team creation tries before
	// giving up on a unique one. Default 5.
	SlugAttempts int

	// Audit receives one entry per successful mutation, after commit.
	// Default discards entries.
	Audit audit.Logger

	// Logger receives internal error detail that is never surfaced to
	// callers. Default slog.Default().
	Logger *slog.Logger

	// NewSlug, NewToken, and Now are injection points for tests.
	NewSlug  func(name string) string
	NewToken func() string
	Now      func() time.Time
}

// Service implements the team, membership, and invite operations against
// a transactional store and the host's user directory.
type Service struct {
	store Store
	users Directory

	audit  audit.Logger
	logger *slog.Logger

	inviteTTL    time.Duration
	slugAttempts int
	newSlug      func(string) string
	newToken     func() string
	now          func() time.Time
}

// NewService creates a Service. The store and directory are required;
// everything in cfg is optional.
func NewService(store Store, users Directory, cfg Config) *Service {
	s := &Service{
		store:        store,
		users:        users,
		audit:        cfg.Audit,
		logger:       cfg.Logger,
		inviteTTL:    cfg.InviteTTL,
		slugAttempts: cfg.SlugAttempts,
		newSlug:      cfg.NewSlug,
		newToken:     cfg.NewToken,
		now:          cfg.Now,
	}
	if s.audit == nil {
		s.audit = audit.Nop{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.inviteTTL <= 0 {
		s.inviteTTL = defaultInviteTTL
	}
	if s.slugAttempts <= 0 {
		s.slugAttempts = defaultSlugAttempts
	}
	if s.newSlug == nil {
		s.newSlug = ident.NewSlug
	}
	if s.newToken == nil {
		s.newToken = ident.NewToken
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

// run executes fn in one store transaction and normalizes the outcome:
// typed service errors pass through, anything else is logged and
// downgraded to an internal error so store detail never leaks.
func (s *Service) run(ctx context.Context, op string, fn func(tx Tx) error) error {
	err := s.store.WithinTx(ctx, fn)
	if err == nil {
		return nil
	}
	if e, ok := AsError(err); ok {
		return e
	}
	s.logger.Error("team operation failed", "op", op, "error", err)
	return internalErr("failed to "+op, err)
}

// emit reports an audit entry. Called after the transaction committed;
// the business outcome is already decided.
func (s *Service) emit(ctx context.Context, e audit.Entry) {
	if e.ActorType == "" {
		e.ActorType = actorTypeUser
	}
	s.audit.Log(ctx, e)
}

// TeamChanges carries the caller-updatable team fields. Identity,
// ownership, slug, and timestamps are not updatable; the slug is
// regenerated when the name changes.
type TeamChanges struct {
	Name   *string
	Plan   *Plan
	Status *Status
}

func (c TeamChanges) empty() bool {
	return c.Name == nil && c.Plan == nil && c.Status == nil
}

// CreateTeam creates a team owned by userID and enrolls the creator as
// its first member with the owner role. Slug collisions are retried with
// fresh random suffixes up to the configured bound.
func (s *Service) CreateTeam(ctx context.Context, userID, name string) (*Team, error) {
	name = strings.TrimSpace(name)
	if userID == "" || name == "" {
		return nil, validationErr("user ID and team name are required")
	}

	var created *Team
	err := s.run(ctx, "create team", func(tx Tx) error {
		now := s.now()

		var t *Team
		for attempt := 0; attempt < s.slugAttempts; attempt++ {
			candidate := &Team{
				ID:        uuid.New(),
				Name:      name,
				Slug:      s.newSlug(name),
				OwnerID:   userID,
				Plan:      PlanFree,
				Status:    StatusActive,
				CreatedAt: now,
				UpdatedAt: now,
			}
			err := tx.InsertTeam(ctx, candidate)
			if err == nil {
				t = candidate
				break
			}
			if errors.Is(err, ErrDuplicateSlug) {
				continue
			}
			return err
		}
		if t == nil {
			return internalErr("failed to create team: could not allocate a unique slug", nil)
		}

		member := &TeamMember{
			ID:       uuid.New(),
			TeamID:   t.ID,
			UserID:   userID,
			Role:     RoleOwner,
			JoinedAt: now,
		}
		if err := tx.InsertMember(ctx, member); err != nil {
			return err
		}

		created = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, audit.Entry{
		ActorID:    userID,
		EntityType: entityTeam,
		EntityID:   created.ID.String(),
		Action:     ActionCreate,
		Metadata:   map[string]any{"name": created.Name, "slug": created.Slug},
	})

	return created, nil
}

// UpdateTeam applies partial field changes to a team. The acting user
// must hold the stored owner role on the team; unlike deletion, a
// co-owner qualifies.
func (s *Service) UpdateTeam(ctx context.Context, teamID uuid.UUID, currentUserID string, changes TeamChanges) (*Team, error) {
	if teamID == uuid.Nil || currentUserID == "" || changes.empty() {
		return nil, validationErr("team ID, user ID, and at least one field change are required")
	}
	if changes.Name != nil && strings.TrimSpace(*changes.Name) == "" {
		return nil, validationErr("team name must not be empty")
	}
	if changes.Plan != nil && !changes.Plan.Valid() {
		return nil, validationErr("unknown plan")
	}
	if changes.Status != nil && !changes.Status.Valid() {
		return nil, validationErr("unknown status")
	}

	var updated *Team
	err := s.run(ctx, "update team", func(tx Tx) error {
		m, err := tx.GetMembership(ctx, teamID, currentUserID)
		if errors.Is(err, ErrNotFound) {
			return unauthorizedErr("not a team owner")
		}
		if err != nil {
			return err
		}
		if m.Member.Role != RoleOwner {
			return unauthorizedErr("not a team owner")
		}

		u := TeamUpdate{Plan: changes.Plan, Status: changes.Status}
		if changes.Name != nil {
			name := strings.TrimSpace(*changes.Name)
			slug := s.newSlug(name)
			u.Name = &name
			u.Slug = &slug
		}

		updated, err = tx.UpdateTeam(ctx, teamID, u)
		if errors.Is(err, ErrNotFound) {
			return notFoundErr("team not found")
		}
		if errors.Is(err, ErrDuplicateSlug) {
			return conflictErr("team slug already in use")
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	meta := map[string]any{}
	if changes.Name != nil {
		meta["name"] = updated.Name
		meta["slug"] = updated.Slug
	}
	if changes.Plan != nil {
		meta["plan"] = string(*changes.Plan)
	}
	if changes.Status != nil {
		meta["status"] = string(*changes.Status)
	}
	s.emit(ctx, audit.Entry{
		ActorID:    currentUserID,
		EntityType: entityTeam,
		EntityID:   teamID.String(),
		Action:     ActionUpdate,
		Metadata:   meta,
	})

	return updated, nil
}

// DeleteTeam deletes a team with all its memberships and invites. Only
// the primary owner may delete; co-owners holding the stored owner role
// are rejected.
func (s *Service) DeleteTeam(ctx context.Context, currentUserID string, teamID uuid.UUID) error {
	if teamID == uuid.Nil || currentUserID == "" {
		return validationErr("team ID and user ID are required")
	}

	err := s.run(ctx, "delete team", func(tx Tx) error {
		m, err := tx.GetMembership(ctx, teamID, currentUserID)
		if errors.Is(err, ErrNotFound) {
			return unauthorizedErr("only the primary owner can delete a team")
		}
		if err != nil {
			return err
		}
		if !permission.CanDeleteTeam(currentUserID, m.Team.OwnerID) {
			return unauthorizedErr("only the primary owner can delete a team")
		}

		if err := tx.DeleteTeamMembers(ctx, teamID); err != nil {
			return err
		}
		return tx.DeleteTeam(ctx, teamID)
	})
	if err != nil {
		return err
	}

	s.emit(ctx, audit.Entry{
		ActorID:    currentUserID,
		EntityType: entityTeam,
		EntityID:   teamID.String(),
		Action:     ActionDelete,
	})

	return nil
}
