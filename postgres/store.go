package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/teamcore/teamcore/team"
)

const uniqueViolation = "23505"

// Store implements team.Store using pgxpool.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// WithinTx runs fn inside one transaction. The transaction commits iff
// fn returns nil; otherwise it rolls back and fn's error is returned.
func (s *Store) WithinTx(ctx context.Context, fn func(tx team.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&sqlTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// sqlTx implements team.Tx over a pgx transaction.
type sqlTx struct {
	tx pgx.Tx
}

// duplicateErr maps a unique violation onto the store sentinel for the
// violated constraint. Returns nil if err is not a unique violation.
func duplicateErr(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return nil
	}
	switch pgErr.ConstraintName {
	case "team_slug_unique":
		return team.ErrDuplicateSlug
	case "team_member_unique":
		return team.ErrDuplicateMember
	case "team_invite_team_email_unique", "team_invite_token_unique":
		return team.ErrDuplicateInvite
	}
	return nil
}

func (t *sqlTx) InsertTeam(ctx context.Context, tm *team.Team) error {
	query := `
		INSERT INTO team (id, name, slug, owner_id, plan, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := t.tx.Exec(ctx, query,
		tm.ID, tm.Name, tm.Slug, tm.OwnerID, tm.Plan, tm.Status, tm.CreatedAt, tm.UpdatedAt)
	if err != nil {
		if dup := duplicateErr(err); dup != nil {
			return dup
		}
		return fmt.Errorf("inserting team: %w", err)
	}
	return nil
}

func (t *sqlTx) UpdateTeam(ctx context.Context, id uuid.UUID, u team.TeamUpdate) (*team.Team, error) {
	var setClauses []string
	var args []any
	argIdx := 1

	if u.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", argIdx))
		args = append(args, *u.Name)
		argIdx++
	}
	if u.Slug != nil {
		setClauses = append(setClauses, fmt.Sprintf("slug = $%d", argIdx))
		args = append(args, *u.Slug)
		argIdx++
	}
	if u.Plan != nil {
		setClauses = append(setClauses, fmt.Sprintf("plan = $%d", argIdx))
		args = append(args, *u.Plan)
		argIdx++
	}
	if u.Status != nil {
		setClauses = append(setClauses, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *u.Status)
		argIdx++
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE team
		SET %s
		WHERE id = $%d
		RETURNING id, name, slug, owner_id, plan, status, created_at, updated_at`,
		strings.Join(setClauses, ", "), argIdx)

	tm, err := scanTeam(t.tx.QueryRow(ctx, query, args...))
	if err != nil {
		if dup := duplicateErr(err); dup != nil {
			return nil, dup
		}
		return nil, err
	}
	return tm, nil
}

func (t *sqlTx) DeleteTeam(ctx context.Context, id uuid.UUID) error {
	// team_member and team_invite rows cascade via their foreign keys.
	result, err := t.tx.Exec(ctx, `DELETE FROM team WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting team: %w", err)
	}
	if result.RowsAffected() == 0 {
		return team.ErrNotFound
	}
	return nil
}

func (t *sqlTx) GetMembership(ctx context.Context, teamID uuid.UUID, userID string) (*team.Membership, error) {
	query := `
		SELECT m.id, m.team_id, m.user_id, m.role, m.joined_at,
		       t.id, t.name, t.slug, t.owner_id, t.plan, t.status, t.created_at, t.updated_at
		FROM team_member m
		JOIN team t ON t.id = m.team_id
		WHERE m.team_id = $1 AND m.user_id = $2`

	var ms team.Membership
	err := t.tx.QueryRow(ctx, query, teamID, userID).Scan(
		&ms.Member.ID, &ms.Member.TeamID, &ms.Member.UserID, &ms.Member.Role, &ms.Member.JoinedAt,
		&ms.Team.ID, &ms.Team.Name, &ms.Team.Slug, &ms.Team.OwnerID, &ms.Team.Plan,
		&ms.Team.Status, &ms.Team.CreatedAt, &ms.Team.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, team.ErrNotFound
		}
		return nil, fmt.Errorf("querying membership: %w", err)
	}
	return &ms, nil
}

func (t *sqlTx) GetMember(ctx context.Context, teamID uuid.UUID, userID string) (*team.TeamMember, error) {
	query := `
		SELECT id, team_id, user_id, role, joined_at
		FROM team_member
		WHERE team_id = $1 AND user_id = $2`

	return scanMember(t.tx.QueryRow(ctx, query, teamID, userID))
}

func (t *sqlTx) InsertMember(ctx context.Context, m *team.TeamMember) error {
	query := `
		INSERT INTO team_member (id, team_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := t.tx.Exec(ctx, query, m.ID, m.TeamID, m.UserID, m.Role, m.JoinedAt)
	if err != nil {
		if dup := duplicateErr(err); dup != nil {
			return dup
		}
		return fmt.Errorf("inserting team member: %w", err)
	}
	return nil
}

func (t *sqlTx) UpdateMemberRole(ctx context.Context, id uuid.UUID, role team.Role) (*team.TeamMember, error) {
	query := `
		UPDATE team_member
		SET role = $1
		WHERE id = $2
		RETURNING id, team_id, user_id, role, joined_at`

	return scanMember(t.tx.QueryRow(ctx, query, role, id))
}

func (t *sqlTx) DeleteMember(ctx context.Context, teamID uuid.UUID, userID string) error {
	result, err := t.tx.Exec(ctx,
		`DELETE FROM team_member WHERE team_id = $1 AND user_id = $2`, teamID, userID)
	if err != nil {
		return fmt.Errorf("deleting team member: %w", err)
	}
	if result.RowsAffected() == 0 {
		return team.ErrNotFound
	}
	return nil
}

func (t *sqlTx) DeleteTeamMembers(ctx context.Context, teamID uuid.UUID) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM team_member WHERE team_id = $1`, teamID)
	if err != nil {
		return fmt.Errorf("deleting team members: %w", err)
	}
	return nil
}

func (t *sqlTx) CountOwners(ctx context.Context, teamID uuid.UUID) (int, error) {
	var count int
	err := t.tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM team_member WHERE team_id = $1 AND role = 'owner'`, teamID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting owners: %w", err)
	}
	return count, nil
}

func (t *sqlTx) InsertInvite(ctx context.Context, i *team.TeamInvite) error {
	query := `
		INSERT INTO team_invite (id, team_id, email, role, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := t.tx.Exec(ctx, query,
		i.ID, i.TeamID, i.Email, i.Role, i.Token, i.ExpiresAt, i.CreatedAt)
	if err != nil {
		if dup := duplicateErr(err); dup != nil {
			return dup
		}
		return fmt.Errorf("inserting team invite: %w", err)
	}
	return nil
}

const inviteColumns = `id, team_id, email, role, token, expires_at, accepted_at, accepted_by, revoked_at, created_at`

func (t *sqlTx) GetInvite(ctx context.Context, teamID, id uuid.UUID) (*team.TeamInvite, error) {
	query := fmt.Sprintf(`SELECT %s FROM team_invite WHERE id = $1 AND team_id = $2`, inviteColumns)
	return scanInvite(t.tx.QueryRow(ctx, query, id, teamID))
}

func (t *sqlTx) GetInviteByToken(ctx context.Context, token string) (*team.TeamInvite, error) {
	query := fmt.Sprintf(`SELECT %s FROM team_invite WHERE token = $1`, inviteColumns)
	return scanInvite(t.tx.QueryRow(ctx, query, token))
}

func (t *sqlTx) GetInviteByEmail(ctx context.Context, teamID uuid.UUID, email string) (*team.TeamInvite, error) {
	query := fmt.Sprintf(`SELECT %s FROM team_invite WHERE team_id = $1 AND email = $2`, inviteColumns)
	return scanInvite(t.tx.QueryRow(ctx, query, teamID, email))
}

func (t *sqlTx) DeleteInvite(ctx context.Context, id uuid.UUID) error {
	result, err := t.tx.Exec(ctx, `DELETE FROM team_invite WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting team invite: %w", err)
	}
	if result.RowsAffected() == 0 {
		return team.ErrNotFound
	}
	return nil
}

func (t *sqlTx) MarkInviteAccepted(ctx context.Context, id uuid.UUID, userID string, at time.Time) (*team.TeamInvite, error) {
	query := fmt.Sprintf(`
		UPDATE team_invite
		SET accepted_at = $1, accepted_by = $2
		WHERE id = $3 AND accepted_at IS NULL AND revoked_at IS NULL
		RETURNING %s`, inviteColumns)

	return scanInvite(t.tx.QueryRow(ctx, query, at, userID, id))
}

func (t *sqlTx) MarkInviteRevoked(ctx context.Context, id uuid.UUID, at time.Time) (*team.TeamInvite, error) {
	query := fmt.Sprintf(`
		UPDATE team_invite
		SET revoked_at = $1
		WHERE id = $2 AND accepted_at IS NULL AND revoked_at IS NULL
		RETURNING %s`, inviteColumns)

	return scanInvite(t.tx.QueryRow(ctx, query, at, id))
}

func scanTeam(row pgx.Row) (*team.Team, error) {
	var tm team.Team
	err := row.Scan(&tm.ID, &tm.Name, &tm.Slug, &tm.OwnerID, &tm.Plan, &tm.Status,
		&tm.CreatedAt, &tm.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, team.ErrNotFound
		}
		return nil, fmt.Errorf("scanning team row: %w", err)
	}
	return &tm, nil
}

func scanMember(row pgx.Row) (*team.TeamMember, error) {
	var m team.TeamMember
	err := row.Scan(&m.ID, &m.TeamID, &m.UserID, &m.Role, &m.JoinedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, team.ErrNotFound
		}
		return nil, fmt.Errorf("scanning team member row: %w", err)
	}
	return &m, nil
}

func scanInvite(row pgx.Row) (*team.TeamInvite, error) {
	var i team.TeamInvite
	err := row.Scan(&i.ID, &i.TeamID, &i.Email, &i.Role, &i.Token, &i.ExpiresAt,
		&i.AcceptedAt, &i.AcceptedBy, &i.RevokedAt, &i.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, team.ErrNotFound
		}
		return nil, fmt.Errorf("scanning team invite row: %w", err)
	}
	return &i, nil
}
