package team

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/teamcore/teamcore/audit"
	"github.com/teamcore/teamcore/permission"
)

// CreateInvite issues a time-limited invitation to an email address. At
// most one invite per (team, email) exists at a time: a still-pending one
// conflicts, while an accepted, revoked, or expired one is superseded by
// the new invite inside the same transaction.
func (s *Service) CreateInvite(ctx context.Context, teamID uuid.UUID, currentUserID, email string, role Role) (*TeamInvite, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if teamID == uuid.Nil || currentUserID == "" || email == "" {
		return nil, validationErr("team ID, acting user ID, and email are required")
	}
	if !role.Valid() {
		return nil, validationErr("unknown role")
	}

	var created *TeamInvite
	err := s.run(ctx, "create invite", func(tx Tx) error {
		m, err := tx.GetMembership(ctx, teamID, currentUserID)
		if errors.Is(err, ErrNotFound) {
			return unauthorizedErr("not a team member")
		}
		if err != nil {
			return err
		}

		if !permission.CanManageMembers(m.Member.Role) {
			return unauthorizedErr("cannot manage invites")
		}
		if !permission.CanAssignRole(m.Member.Role, currentUserID, m.Team.OwnerID, role) {
			return invalidActionErr("cannot assign this role")
		}

		// An invitee who already signed up and joined needs no invite.
		invitee, err := s.users.UserByEmail(ctx, email)
		if err != nil && !errors.Is(err, ErrUserNotFound) {
			return err
		}
		if err == nil {
			_, err = tx.GetMember(ctx, teamID, invitee.ID)
			if err == nil {
				return conflictErr("user is already a team member")
			}
			if !errors.Is(err, ErrNotFound) {
				return err
			}
		}

		now := s.now()

		existing, err := tx.GetInviteByEmail(ctx, teamID, email)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		if err == nil {
			if existing.Pending(now) {
				return conflictErr("an invite for this email is already pending")
			}
			// Terminal or expired: supersede so the unique (team, email)
			// index stays satisfiable.
			if err := tx.DeleteInvite(ctx, existing.ID); err != nil {
				return err
			}
		}

		invite := &TeamInvite{
			ID:        uuid.New(),
			TeamID:    teamID,
			Email:     email,
			Role:      role,
			Token:     s.newToken(),
			ExpiresAt: now.Add(s.inviteTTL),
			CreatedAt: now,
		}
		if err := tx.InsertInvite(ctx, invite); err != nil {
			if errors.Is(err, ErrDuplicateInvite) {
				return conflictErr("an invite for this email already exists")
			}
			return err
		}

		created = invite
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, audit.Entry{
		ActorID:    currentUserID,
		EntityType: entityInvite,
		EntityID:   created.ID.String(),
		Action:     ActionInviteCreate,
		Metadata:   map[string]any{"email": email, "role": string(role), "teamId": teamID.String()},
	})

	return created, nil
}

// AcceptInvite redeems an invite token for userID, materializing a
// membership with the invited role and moving the invite to its accepted
// terminal state.
func (s *Service) AcceptInvite(ctx context.Context, token, userID string) (*TeamInvite, error) {
	if token == "" || userID == "" {
		return nil, validationErr("token and user ID are required")
	}

	var accepted *TeamInvite
	err := s.run(ctx, "accept invite", func(tx Tx) error {
		invite, err := tx.GetInviteByToken(ctx, token)
		if errors.Is(err, ErrNotFound) {
			return notFoundErr("invite not found")
		}
		if err != nil {
			return err
		}

		if invite.Accepted() || invite.Revoked() {
			return invalidActionErr("invite already used or revoked")
		}

		now := s.now()
		if invite.Expired(now) {
			return expiredErr("invite has expired")
		}

		_, err = tx.GetMember(ctx, invite.TeamID, userID)
		if err == nil {
			return conflictErr("user is already a team member")
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}

		member := &TeamMember{
			ID:       uuid.New(),
			TeamID:   invite.TeamID,
			UserID:   userID,
			Role:     invite.Role,
			JoinedAt: now,
		}
		if err := tx.InsertMember(ctx, member); err != nil {
			if errors.Is(err, ErrDuplicateMember) {
				return conflictErr("user is already a team member")
			}
			return err
		}

		accepted, err = tx.MarkInviteAccepted(ctx, invite.ID, userID, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, audit.Entry{
		ActorID:    userID,
		EntityType: entityInvite,
		EntityID:   accepted.ID.String(),
		Action:     ActionInviteAccept,
		TargetID:   userID,
		Metadata:   map[string]any{"teamId": accepted.TeamID.String()},
	})

	return accepted, nil
}

// RevokeInvite withdraws a still-pending invite. Accepted or already
// revoked invites are terminal and cannot be revoked again.
func (s *Service) RevokeInvite(ctx context.Context, teamID uuid.UUID, currentUserID string, inviteID uuid.UUID) (*TeamInvite, error) {
	if teamID == uuid.Nil || currentUserID == "" || inviteID == uuid.Nil {
		return nil, validationErr("team ID, acting user ID, and invite ID are required")
	}

	var revoked *TeamInvite
	err := s.run(ctx, "revoke invite", func(tx Tx) error {
		m, err := tx.GetMembership(ctx, teamID, currentUserID)
		if errors.Is(err, ErrNotFound) {
			return unauthorizedErr("not a team member")
		}
		if err != nil {
			return err
		}

		if !permission.CanManageMembers(m.Member.Role) {
			return unauthorizedErr("cannot manage invites")
		}

		invite, err := tx.GetInvite(ctx, teamID, inviteID)
		if errors.Is(err, ErrNotFound) {
			return notFoundErr("invite not found")
		}
		if err != nil {
			return err
		}

		if invite.Accepted() || invite.Revoked() {
			return invalidActionErr("invite already accepted or revoked")
		}

		revoked, err = tx.MarkInviteRevoked(ctx, invite.ID, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, audit.Entry{
		ActorID:    currentUserID,
		EntityType: entityInvite,
		EntityID:   revoked.ID.String(),
		Action:     ActionInviteRevoke,
		Metadata:   map[string]any{"teamId": teamID.String()},
	})

	return revoked, nil
}
