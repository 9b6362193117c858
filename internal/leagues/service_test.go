package leagues

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fitleague/fitleague/internal/platform/httpx"
	"github.com/fitleague/fitleague/internal/shared"
)

type memoryLeagueRepo struct {
	nextLeagueID   int64
	nextActivityID int64
	leagues        map[int64]League
	members        map[int64]map[int64]string
	activities     map[int64]Activity
}

func newMemoryLeagueRepo() *memoryLeagueRepo {
	return &memoryLeagueRepo{
		nextLeagueID:   1,
		nextActivityID: 1,
		leagues:        map[int64]League{},
		members:        map[int64]map[int64]string{},
		activities:     map[int64]Activity{},
	}
}

func (m *memoryLeagueRepo) CreateLeague(_ context.Context, league League) (League, error) {
	league.ID = m.nextLeagueID
	m.nextLeagueID++
	m.leagues[league.ID] = league
	m.members[league.ID] = map[int64]string{}
	return league, nil
}

func (m *memoryLeagueRepo) GetLeague(_ context.Context, id int64) (League, error) {
	league, ok := m.leagues[id]
	if !ok {
		return League{}, ErrLeagueNotFound
	}
	return league, nil
}

func (m *memoryLeagueRepo) ListLeagues(_ context.Context) ([]League, error) {
	var out []League
	for _, league := range m.leagues {
		out = append(out, league)
	}
	return out, nil
}

func (m *memoryLeagueRepo) UpsertMember(_ context.Context, leagueID, userID int64, role string) error {
	members, ok := m.members[leagueID]
	if !ok {
		return ErrLeagueNotFound
	}
	members[userID] = role
	return nil
}

func (m *memoryLeagueRepo) UpsertActivity(_ context.Context, activity Activity) (Activity, error) {
	for id, existing := range m.activities {
		if existing.LeagueID == activity.LeagueID && existing.Name == activity.Name {
			activity.ID = id
			m.activities[id] = activity
			return activity, nil
		}
	}
	activity.ID = m.nextActivityID
	m.nextActivityID++
	m.activities[activity.ID] = activity
	return activity, nil
}

func (m *memoryLeagueRepo) GetActivity(_ context.Context, leagueID, activityID int64) (Activity, error) {
	activity, ok := m.activities[activityID]
	if !ok || activity.LeagueID != leagueID {
		return Activity{}, ErrActivityNotFound
	}
	return activity, nil
}

func (m *memoryLeagueRepo) ListActivities(_ context.Context, leagueID int64) ([]Activity, error) {
	var out []Activity
	for _, activity := range m.activities {
		if activity.LeagueID == leagueID {
			out = append(out, activity)
		}
	}
	return out, nil
}

type auditStub struct {
	logs []shared.AuditLog
}

func (a *auditStub) Record(_ context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func TestCreateLeagueStampsAuditTimestamp(t *testing.T) {
	audit := &auditStub{}
	svc := NewService(newMemoryLeagueRepo(), audit)

	_, err := svc.CreateLeague(context.Background(), CreateLeagueInput{Name: "Harbor City", HostID: 1})
	require.NoError(t, err)

	require.Len(t, audit.logs, 1)
	require.Equal(t, "LEAGUE_CREATE", audit.logs[0].Action)
	require.False(t, audit.logs[0].At.IsZero())
}

func TestCreateLeagueRequiresNameAndHost(t *testing.T) {
	svc := NewService(newMemoryLeagueRepo(), nil)

	_, err := svc.CreateLeague(context.Background(), CreateLeagueInput{Name: "  ", HostID: 1})
	var fields *httpx.FieldErrors
	require.ErrorAs(t, err, &fields)
	require.Contains(t, fields.Fields, "name")

	_, err = svc.CreateLeague(context.Background(), CreateLeagueInput{Name: "Harbor City"})
	require.ErrorIs(t, err, httpx.ErrValidation)

	league, err := svc.CreateLeague(context.Background(), CreateLeagueInput{Name: "Harbor City", Season: "2026", HostID: 1})
	require.NoError(t, err)
	require.Equal(t, int64(1), league.HostID)
}

func TestJoinLeagueKeepsExistingRole(t *testing.T) {
	repo := newMemoryLeagueRepo()
	svc := NewService(repo, nil)
	league, err := svc.CreateLeague(context.Background(), CreateLeagueInput{Name: "Harbor City", HostID: 1})
	require.NoError(t, err)

	require.NoError(t, svc.JoinLeague(context.Background(), league.ID, 42))
	require.Equal(t, "player", repo.members[league.ID][42])

	require.NoError(t, svc.AssignGovernor(context.Background(), league.ID, 42, 1))
	require.Equal(t, "governor", repo.members[league.ID][42])

	err = svc.JoinLeague(context.Background(), 999, 42)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestConfigureActivityValidatesThresholds(t *testing.T) {
	repo := newMemoryLeagueRepo()
	svc := NewService(repo, nil)
	league, err := svc.CreateLeague(context.Background(), CreateLeagueInput{Name: "Harbor City", HostID: 1})
	require.NoError(t, err)

	_, err = svc.ConfigureActivity(context.Background(), ConfigureActivityInput{
		LeagueID: league.ID,
		Name:     "Rowing",
		Base:     Threshold{Min: ptr(8000), Max: ptr(5000)},
	})
	var fields *httpx.FieldErrors
	require.ErrorAs(t, err, &fields)
	require.Contains(t, fields.Fields, "base_min")

	activity, err := svc.ConfigureActivity(context.Background(), ConfigureActivityInput{
		LeagueID: league.ID,
		Name:     "Rowing",
		Unit:     "meters",
		Base:     Threshold{Min: ptr(5000), Max: ptr(12000)},
		Below40:  &Threshold{Min: ptr(6000)},
	})
	require.NoError(t, err)
	require.NotZero(t, activity.ID)

	// Reconfiguring the same activity keeps its identity.
	updated, err := svc.ConfigureActivity(context.Background(), ConfigureActivityInput{
		LeagueID: league.ID,
		Name:     "Rowing",
		Unit:     "meters",
		Base:     Threshold{Min: ptr(5500)},
	})
	require.NoError(t, err)
	require.Equal(t, activity.ID, updated.ID)
}

func TestResolveThresholdMapsInvalidAge(t *testing.T) {
	repo := newMemoryLeagueRepo()
	svc := NewService(repo, nil)
	league, err := svc.CreateLeague(context.Background(), CreateLeagueInput{Name: "Harbor City", HostID: 1})
	require.NoError(t, err)
	activity, err := svc.ConfigureActivity(context.Background(), ConfigureActivityInput{
		LeagueID: league.ID,
		Name:     "Rowing",
		Base:     Threshold{Min: ptr(5000)},
	})
	require.NoError(t, err)

	_, err = svc.ResolveThreshold(context.Background(), league.ID, activity.ID, -3)
	var fields *httpx.FieldErrors
	require.ErrorAs(t, err, &fields)
	require.Contains(t, fields.Fields, "age")

	resolved, err := svc.ResolveThreshold(context.Background(), league.ID, activity.ID, 45)
	require.NoError(t, err)
	require.Equal(t, TierBase, resolved.Tier)
}
