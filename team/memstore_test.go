package team_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/teamcore/teamcore/audit"
	"github.com/teamcore/teamcore/team"
)

// memStore is an in-memory team.Store. Transactions are not isolated;
// service tests are single-threaded, so fn simply runs against the maps.
type memStore struct {
	teams   map[uuid.UUID]team.Team
	members map[uuid.UUID]team.TeamMember
	invites map[uuid.UUID]team.TeamInvite

	// insertTeamErrs is consumed one error per InsertTeam call before the
	// real insert logic runs; used to force slug collisions.
	insertTeamErrs []error
}

func newMemStore() *memStore {
	return &memStore{
		teams:   make(map[uuid.UUID]team.Team),
		members: make(map[uuid.UUID]team.TeamMember),
		invites: make(map[uuid.UUID]team.TeamInvite),
	}
}

func (s *memStore) WithinTx(_ context.Context, fn func(tx team.Tx) error) error {
	return fn(&memTx{s: s})
}

type memTx struct {
	s *memStore
}

func (t *memTx) InsertTeam(_ context.Context, tm *team.Team) error {
	if len(t.s.insertTeamErrs) > 0 {
		err := t.s.insertTeamErrs[0]
		t.s.insertTeamErrs = t.s.insertTeamErrs[1:]
		if err != nil {
			return err
		}
	}
	for _, existing := range t.s.teams {
		if existing.Slug == tm.Slug {
			return team.ErrDuplicateSlug
		}
	}
	t.s.teams[tm.ID] = *tm
	return nil
}

func (t *memTx) UpdateTeam(_ context.Context, id uuid.UUID, u team.TeamUpdate) (*team.Team, error) {
	tm, ok := t.s.teams[id]
	if !ok {
		return nil, team.ErrNotFound
	}
	if u.Slug != nil {
		for otherID, other := range t.s.teams {
			if otherID != id && other.Slug == *u.Slug {
				return nil, team.ErrDuplicateSlug
			}
		}
		tm.Slug = *u.Slug
	}
	if u.Name != nil {
		tm.Name = *u.Name
	}
	if u.Plan != nil {
		tm.Plan = *u.Plan
	}
	if u.Status != nil {
		tm.Status = *u.Status
	}
	tm.UpdatedAt = time.Now().UTC()
	t.s.teams[id] = tm
	return &tm, nil
}

func (t *memTx) DeleteTeam(_ context.Context, id uuid.UUID) error {
	if _, ok := t.s.teams[id]; !ok {
		return team.ErrNotFound
	}
	delete(t.s.teams, id)
	for mid, m := range t.s.members {
		if m.TeamID == id {
			delete(t.s.members, mid)
		}
	}
	for iid, i := range t.s.invites {
		if i.TeamID == id {
			delete(t.s.invites, iid)
		}
	}
	return nil
}

func (t *memTx) GetMembership(ctx context.Context, teamID uuid.UUID, userID string) (*team.Membership, error) {
	m, err := t.GetMember(ctx, teamID, userID)
	if err != nil {
		return nil, err
	}
	tm, ok := t.s.teams[teamID]
	if !ok {
		return nil, team.ErrNotFound
	}
	return &team.Membership{Member: *m, Team: tm}, nil
}

func (t *memTx) GetMember(_ context.Context, teamID uuid.UUID, userID string) (*team.TeamMember, error) {
	for _, m := range t.s.members {
		if m.TeamID == teamID && m.UserID == userID {
			m := m
			return &m, nil
		}
	}
	return nil, team.ErrNotFound
}

func (t *memTx) InsertMember(ctx context.Context, m *team.TeamMember) error {
	if _, err := t.GetMember(ctx, m.TeamID, m.UserID); err == nil {
		return team.ErrDuplicateMember
	}
	t.s.members[m.ID] = *m
	return nil
}

func (t *memTx) UpdateMemberRole(_ context.Context, id uuid.UUID, role team.Role) (*team.TeamMember, error) {
	m, ok := t.s.members[id]
	if !ok {
		return nil, team.ErrNotFound
	}
	m.Role = role
	t.s.members[id] = m
	return &m, nil
}

func (t *memTx) DeleteMember(ctx context.Context, teamID uuid.UUID, userID string) error {
	m, err := t.GetMember(ctx, teamID, userID)
	if err != nil {
		return err
	}
	delete(t.s.members, m.ID)
	return nil
}

func (t *memTx) DeleteTeamMembers(_ context.Context, teamID uuid.UUID) error {
	for id, m := range t.s.members {
		if m.TeamID == teamID {
			delete(t.s.members, id)
		}
	}
	return nil
}

func (t *memTx) CountOwners(_ context.Context, teamID uuid.UUID) (int, error) {
	count := 0
	for _, m := range t.s.members {
		if m.TeamID == teamID && m.Role == team.RoleOwner {
			count++
		}
	}
	return count, nil
}

func (t *memTx) InsertInvite(_ context.Context, i *team.TeamInvite) error {
	for _, existing := range t.s.invites {
		if existing.Token == i.Token {
			return team.ErrDuplicateInvite
		}
		if existing.TeamID == i.TeamID && existing.Email == i.Email {
			return team.ErrDuplicateInvite
		}
	}
	t.s.invites[i.ID] = *i
	return nil
}

func (t *memTx) GetInvite(_ context.Context, teamID, id uuid.UUID) (*team.TeamInvite, error) {
	i, ok := t.s.invites[id]
	if !ok || i.TeamID != teamID {
		return nil, team.ErrNotFound
	}
	return &i, nil
}

func (t *memTx) GetInviteByToken(_ context.Context, token string) (*team.TeamInvite, error) {
	for _, i := range t.s.invites {
		if i.Token == token {
			i := i
			return &i, nil
		}
	}
	return nil, team.ErrNotFound
}

func (t *memTx) GetInviteByEmail(_ context.Context, teamID uuid.UUID, email string) (*team.TeamInvite, error) {
	for _, i := range t.s.invites {
		if i.TeamID == teamID && i.Email == email {
			i := i
			return &i, nil
		}
	}
	return nil, team.ErrNotFound
}

func (t *memTx) DeleteInvite(_ context.Context, id uuid.UUID) error {
	if _, ok := t.s.invites[id]; !ok {
		return team.ErrNotFound
	}
	delete(t.s.invites, id)
	return nil
}

func (t *memTx) MarkInviteAccepted(_ context.Context, id uuid.UUID, userID string, at time.Time) (*team.TeamInvite, error) {
	i, ok := t.s.invites[id]
	if !ok || i.AcceptedAt != nil || i.RevokedAt != nil {
		return nil, team.ErrNotFound
	}
	i.AcceptedAt = &at
	i.AcceptedBy = &userID
	t.s.invites[id] = i
	return &i, nil
}

func (t *memTx) MarkInviteRevoked(_ context.Context, id uuid.UUID, at time.Time) (*team.TeamInvite, error) {
	i, ok := t.s.invites[id]
	if !ok || i.AcceptedAt != nil || i.RevokedAt != nil {
		return nil, team.ErrNotFound
	}
	i.RevokedAt = &at
	t.s.invites[id] = i
	return &i, nil
}

// memDirectory is an in-memory team.Directory.
type memDirectory struct {
	byID map[string]team.User
}

func newMemDirectory() *memDirectory {
	return &memDirectory{byID: make(map[string]team.User)}
}

func (d *memDirectory) add(id, email string) {
	d.byID[id] = team.User{ID: id, Email: email}
}

func (d *memDirectory) UserByID(_ context.Context, id string) (*team.User, error) {
	u, ok := d.byID[id]
	if !ok {
		return nil, team.ErrUserNotFound
	}
	return &u, nil
}

func (d *memDirectory) UserByEmail(_ context.Context, email string) (*team.User, error) {
	for _, u := range d.byID {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, team.ErrUserNotFound
}

// auditRecorder captures emitted audit entries.
type auditRecorder struct {
	entries []audit.Entry
}

func (r *auditRecorder) Log(_ context.Context, e audit.Entry) {
	r.entries = append(r.entries, e)
}

func (r *auditRecorder) last(t *testing.T) audit.Entry {
	t.Helper()
	require.NotEmpty(t, r.entries, "expected at least one audit entry")
	return r.entries[len(r.entries)-1]
}

// fixture wires a Service against the in-memory fakes with a controllable
// clock.
type fixture struct {
	store *memStore
	dir   *memDirectory
	rec   *auditRecorder
	now   time.Time
	svc   *team.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store: newMemStore(),
		dir:   newMemDirectory(),
		rec:   &auditRecorder{},
		now:   time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = team.NewService(f.store, f.dir, team.Config{
		Audit: f.rec,
		Now:   func() time.Time { return f.now },
	})
	return f
}

// advance moves the fixture clock forward.
func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

// createTeam creates a team through the service and fails the test on
// error.
func (f *fixture) createTeam(t *testing.T, ownerID, name string) *team.Team {
	t.Helper()
	tm, err := f.svc.CreateTeam(context.Background(), ownerID, name)
	require.NoError(t, err)
	return tm
}

// seedMember inserts a membership row directly, bypassing the service.
func (f *fixture) seedMember(t *testing.T, teamID uuid.UUID, userID string, role team.Role) *team.TeamMember {
	t.Helper()
	m := &team.TeamMember{
		ID:       uuid.New(),
		TeamID:   teamID,
		UserID:   userID,
		Role:     role,
		JoinedAt: f.now,
	}
	err := f.store.WithinTx(context.Background(), func(tx team.Tx) error {
		return tx.InsertMember(context.Background(), m)
	})
	require.NoError(t, err)
	return m
}

// setRole rewrites a member's role directly, bypassing the service.
func (f *fixture) setRole(t *testing.T, teamID uuid.UUID, userID string, role team.Role) {
	t.Helper()
	err := f.store.WithinTx(context.Background(), func(tx team.Tx) error {
		m, err := tx.GetMember(context.Background(), teamID, userID)
		if err != nil {
			return err
		}
		_, err = tx.UpdateMemberRole(context.Background(), m.ID, role)
		return err
	})
	require.NoError(t, err)
}

// memberRole reads a member's current role straight from the store.
func (f *fixture) memberRole(t *testing.T, teamID uuid.UUID, userID string) team.Role {
	t.Helper()
	var role team.Role
	err := f.store.WithinTx(context.Background(), func(tx team.Tx) error {
		m, err := tx.GetMember(context.Background(), teamID, userID)
		if err != nil {
			return err
		}
		role = m.Role
		return nil
	})
	require.NoError(t, err)
	return role
}

// requireCode asserts err is a service error with the given code.
func requireCode(t *testing.T, err error, code team.Code) {
	t.Helper()
	require.Error(t, err)
	e, ok := team.AsError(err)
	require.True(t, ok, "expected a service error, got %v", err)
	require.Equal(t, code, e.Code, "unexpected code, message: %s", e.Message)
}
