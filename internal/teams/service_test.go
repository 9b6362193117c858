package teams

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fitleague/fitleague/internal/platform/httpx"
	"github.com/fitleague/fitleague/internal/rbac"
	"github.com/fitleague/fitleague/internal/shared"
)

type memoryTeamRepo struct {
	nextID  int64
	teams   map[int64]Team
	rosters map[int64]map[int64]time.Time
}

func newMemoryTeamRepo() *memoryTeamRepo {
	return &memoryTeamRepo{nextID: 1, teams: map[int64]Team{}, rosters: map[int64]map[int64]time.Time{}}
}

func (m *memoryTeamRepo) CreateTeam(_ context.Context, team Team) (Team, error) {
	team.ID = m.nextID
	m.nextID++
	m.teams[team.ID] = team
	m.rosters[team.ID] = map[int64]time.Time{}
	return team, nil
}

func (m *memoryTeamRepo) GetTeam(_ context.Context, leagueID, teamID int64) (Team, error) {
	team, ok := m.teams[teamID]
	if !ok || team.LeagueID != leagueID {
		return Team{}, ErrTeamNotFound
	}
	return team, nil
}

func (m *memoryTeamRepo) ListTeams(_ context.Context, leagueID int64) ([]Team, error) {
	var out []Team
	for _, team := range m.teams {
		if team.LeagueID == leagueID {
			out = append(out, team)
		}
	}
	return out, nil
}

func (m *memoryTeamRepo) AddMember(_ context.Context, teamID, userID int64) error {
	roster, ok := m.rosters[teamID]
	if !ok {
		return ErrTeamNotFound
	}
	roster[userID] = time.Now()
	return nil
}

func (m *memoryTeamRepo) RemoveMember(_ context.Context, teamID, userID int64) error {
	roster, ok := m.rosters[teamID]
	if !ok {
		return ErrTeamNotFound
	}
	delete(roster, userID)
	return nil
}

func (m *memoryTeamRepo) ListMembers(_ context.Context, teamID int64) ([]Member, error) {
	var out []Member
	for userID, joined := range m.rosters[teamID] {
		out = append(out, Member{TeamID: teamID, UserID: userID, JoinedAt: joined})
	}
	return out, nil
}

func (m *memoryTeamRepo) CaptainID(_ context.Context, teamID int64) (int64, error) {
	team, ok := m.teams[teamID]
	if !ok {
		return 0, ErrTeamNotFound
	}
	return team.CaptainID, nil
}

type auditStub struct {
	logs []shared.AuditLog
}

func (a *auditStub) Record(_ context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func TestCreateTeamSeedsCaptainAsFirstMember(t *testing.T) {
	repo := newMemoryTeamRepo()
	audit := &auditStub{}
	svc := NewService(repo, audit)

	team, err := svc.CreateTeam(context.Background(), 7, "Dockside Rowers", 200)
	require.NoError(t, err)
	require.Equal(t, int64(200), team.CaptainID)

	members, err := svc.ListMembers(context.Background(), 7, team.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	require.Equal(t, int64(200), members[0].UserID)

	require.Len(t, audit.logs, 1)
	require.Equal(t, "TEAM_CREATE", audit.logs[0].Action)
	require.False(t, audit.logs[0].At.IsZero())
}

func TestCreateTeamRequiresName(t *testing.T) {
	svc := NewService(newMemoryTeamRepo(), nil)

	_, err := svc.CreateTeam(context.Background(), 7, "   ", 200)
	var fields *httpx.FieldErrors
	require.ErrorAs(t, err, &fields)
	require.Contains(t, fields.Fields, "name")
}

func TestRosterChangesScopedToOwnTeamForCaptains(t *testing.T) {
	repo := newMemoryTeamRepo()
	svc := NewService(repo, &auditStub{})

	own, err := svc.CreateTeam(context.Background(), 7, "Dockside Rowers", 200)
	require.NoError(t, err)
	other, err := svc.CreateTeam(context.Background(), 7, "Uptown Sprinters", 999)
	require.NoError(t, err)

	// A captain manages their own roster.
	require.NoError(t, svc.AddMember(context.Background(), 200, rbac.RoleCaptain, 7, own.ID, 100))

	// But not someone else's.
	err = svc.AddMember(context.Background(), 200, rbac.RoleCaptain, 7, other.ID, 100)
	require.ErrorIs(t, err, httpx.ErrForbidden)

	// Governors manage any roster in the league.
	require.NoError(t, svc.AddMember(context.Background(), 300, rbac.RoleGovernor, 7, other.ID, 100))

	// Players hold no roster permission at all.
	err = svc.AddMember(context.Background(), 100, rbac.RolePlayer, 7, own.ID, 101)
	require.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestRemoveMemberDropsFromRoster(t *testing.T) {
	repo := newMemoryTeamRepo()
	svc := NewService(repo, &auditStub{})

	team, err := svc.CreateTeam(context.Background(), 7, "Dockside Rowers", 200)
	require.NoError(t, err)
	require.NoError(t, svc.AddMember(context.Background(), 200, rbac.RoleCaptain, 7, team.ID, 100))

	require.NoError(t, svc.RemoveMember(context.Background(), 200, rbac.RoleCaptain, 7, team.ID, 100))

	members, err := svc.ListMembers(context.Background(), 7, team.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
}

func TestRosterChangeUnknownTeam(t *testing.T) {
	svc := NewService(newMemoryTeamRepo(), nil)

	err := svc.AddMember(context.Background(), 300, rbac.RoleGovernor, 7, 42, 100)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}
