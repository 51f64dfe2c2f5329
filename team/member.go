package team

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/teamcore/teamcore/audit"
	"github.com/teamcore/teamcore/permission"
)

// AddMember directly enrolls an existing user into a team. The actor must
// be able to manage members and to assign the requested role; the target
// must exist in the directory, must not already be a member, and must not
// have a pending invite outstanding (that flow must finish or be revoked
// first).
func (s *Service) AddMember(ctx context.Context, teamID uuid.UUID, userID string, role Role, currentUserID string) (*TeamMember, error) {
	if teamID == uuid.Nil || userID == "" || currentUserID == "" {
		return nil, validationErr("team ID, user ID, and acting user ID are required")
	}
	if !role.Valid() {
		return nil, validationErr("unknown role")
	}

	var added *TeamMember
	err := s.run(ctx, "add member", func(tx Tx) error {
		m, err := tx.GetMembership(ctx, teamID, currentUserID)
		if errors.Is(err, ErrNotFound) {
			return unauthorizedErr("not a team member")
		}
		if err != nil {
			return err
		}

		if !permission.CanManageMembers(m.Member.Role) {
			return unauthorizedErr("cannot manage members")
		}
		if !permission.CanAssignRole(m.Member.Role, currentUserID, m.Team.OwnerID, role) {
			return invalidActionErr("cannot assign this role")
		}

		_, err = tx.GetMember(ctx, teamID, userID)
		if err == nil {
			return conflictErr("user is already a team member")
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}

		target, err := s.users.UserByID(ctx, userID)
		if errors.Is(err, ErrUserNotFound) {
			return notFoundErr("user not found")
		}
		if err != nil {
			return err
		}

		invite, err := tx.GetInviteByEmail(ctx, teamID, target.Email)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		if err == nil && invite.Pending(s.now()) {
			return conflictErr("user already has a pending invite")
		}

		member := &TeamMember{
			ID:       uuid.New(),
			TeamID:   teamID,
			UserID:   userID,
			Role:     role,
			JoinedAt: s.now(),
		}
		if err := tx.InsertMember(ctx, member); err != nil {
			if errors.Is(err, ErrDuplicateMember) {
				return conflictErr("user is already a team member")
			}
			return err
		}

		added = member
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, audit.Entry{
		ActorID:    currentUserID,
		EntityType: entityMember,
		EntityID:   added.ID.String(),
		Action:     ActionAdd,
		TargetID:   userID,
		Metadata:   map[string]any{"role": string(role)},
	})

	return added, nil
}

// ChangeRole moves an existing member to a new role. Changing one's own
// role is rejected unconditionally, primary owner included.
func (s *Service) ChangeRole(ctx context.Context, teamID uuid.UUID, userID string, newRole Role, currentUserID string) (*TeamMember, error) {
	if teamID == uuid.Nil || userID == "" || currentUserID == "" {
		return nil, validationErr("team ID, user ID, and acting user ID are required")
	}
	if !newRole.Valid() {
		return nil, validationErr("unknown role")
	}
	if userID == currentUserID {
		return nil, invalidActionErr("cannot change your own role")
	}

	var updated *TeamMember
	var oldRole Role
	err := s.run(ctx, "change role", func(tx Tx) error {
		m, err := tx.GetMembership(ctx, teamID, currentUserID)
		if errors.Is(err, ErrNotFound) {
			return unauthorizedErr("not a team member")
		}
		if err != nil {
			return err
		}

		if !permission.CanManageMembers(m.Member.Role) {
			return unauthorizedErr("cannot manage member roles")
		}

		target, err := tx.GetMember(ctx, teamID, userID)
		if errors.Is(err, ErrNotFound) {
			return notFoundErr("member not found")
		}
		if err != nil {
			return err
		}

		if !permission.CanChangeRole(m.Member.Role, currentUserID, m.Team.OwnerID, target.Role, newRole) {
			return invalidActionErr("cannot change this member to that role")
		}

		oldRole = target.Role
		updated, err = tx.UpdateMemberRole(ctx, target.ID, newRole)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, audit.Entry{
		ActorID:    currentUserID,
		EntityType: entityMember,
		EntityID:   updated.ID.String(),
		Action:     ActionUpdateRole,
		TargetID:   userID,
		Metadata:   map[string]any{"oldRole": string(oldRole), "newRole": string(newRole)},
	})

	return updated, nil
}

// RemoveMember deletes a member from a team. Self-removal is rejected
// unconditionally (that is a leave flow, not a removal); the primary
// owner and the last remaining owner can never be removed.
func (s *Service) RemoveMember(ctx context.Context, teamID uuid.UUID, userID, currentUserID string) error {
	if teamID == uuid.Nil || userID == "" || currentUserID == "" {
		return validationErr("team ID, user ID, and acting user ID are required")
	}
	if userID == currentUserID {
		return invalidActionErr("cannot remove yourself; leave the team instead")
	}

	var removedID uuid.UUID
	err := s.run(ctx, "remove member", func(tx Tx) error {
		m, err := tx.GetMembership(ctx, teamID, currentUserID)
		if errors.Is(err, ErrNotFound) {
			return unauthorizedErr("not a team member")
		}
		if err != nil {
			return err
		}

		target, err := tx.GetMember(ctx, teamID, userID)
		if errors.Is(err, ErrNotFound) {
			return notFoundErr("member not found")
		}
		if err != nil {
			return err
		}

		owners, err := tx.CountOwners(ctx, teamID)
		if err != nil {
			return err
		}

		if !permission.CanRemoveMember(m.Member.Role, currentUserID, m.Team.OwnerID, target.Role, target.UserID, owners) {
			return invalidActionErr("cannot remove this member")
		}

		removedID = target.ID
		return tx.DeleteMember(ctx, teamID, userID)
	})
	if err != nil {
		return err
	}

	s.emit(ctx, audit.Entry{
		ActorID:    currentUserID,
		EntityType: entityMember,
		EntityID:   removedID.String(),
		Action:     ActionRemove,
		TargetID:   userID,
	})

	return nil
}
