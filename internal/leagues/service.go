package leagues

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/fitleague/fitleague/internal/platform/httpx"
	"github.com/fitleague/fitleague/internal/shared"
)

// Domain errors wrap the httpx sentinels so handlers map them directly.
var (
	ErrLeagueNotFound   = fmt.Errorf("%w: league", httpx.ErrNotFound)
	ErrActivityNotFound = fmt.Errorf("%w: activity", httpx.ErrNotFound)
)

// RepositoryPort describes persistence operations used by Service.
type RepositoryPort interface {
	CreateLeague(ctx context.Context, league League) (League, error)
	GetLeague(ctx context.Context, id int64) (League, error)
	ListLeagues(ctx context.Context) ([]League, error)
	UpsertMember(ctx context.Context, leagueID, userID int64, role string) error
	UpsertActivity(ctx context.Context, activity Activity) (Activity, error)
	GetActivity(ctx context.Context, leagueID, activityID int64) (Activity, error)
	ListActivities(ctx context.Context, leagueID int64) ([]Activity, error)
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service orchestrates league configuration flows.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService constructs a league service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// CreateLeagueInput describes league creation payload.
type CreateLeagueInput struct {
	Name   string
	Season string
	HostID int64
}

// CreateLeague persists a new league owned by the host.
func (s *Service) CreateLeague(ctx context.Context, input CreateLeagueInput) (League, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return League{}, httpx.NewFieldErrors(map[string]string{"name": "name is required"})
	}
	if input.HostID == 0 {
		return League{}, fmt.Errorf("%w: host required", httpx.ErrValidation)
	}
	league, err := s.repo.CreateLeague(ctx, League{Name: input.Name, Season: strings.TrimSpace(input.Season), HostID: input.HostID})
	if err != nil {
		return League{}, err
	}
	s.recordAudit(ctx, input.HostID, "LEAGUE_CREATE", league.ID, map[string]any{"name": league.Name})
	return league, nil
}

// GetLeague fetches a league by ID.
func (s *Service) GetLeague(ctx context.Context, id int64) (League, error) {
	return s.repo.GetLeague(ctx, id)
}

// ListLeagues returns all leagues.
func (s *Service) ListLeagues(ctx context.Context) ([]League, error) {
	return s.repo.ListLeagues(ctx)
}

// JoinLeague registers the user as a player. Existing membership rows keep
// their role.
func (s *Service) JoinLeague(ctx context.Context, leagueID, userID int64) error {
	if _, err := s.repo.GetLeague(ctx, leagueID); err != nil {
		return err
	}
	return s.repo.UpsertMember(ctx, leagueID, userID, "player")
}

// AssignGovernor promotes a league member to governor.
func (s *Service) AssignGovernor(ctx context.Context, leagueID, userID, actorID int64) error {
	if _, err := s.repo.GetLeague(ctx, leagueID); err != nil {
		return err
	}
	if err := s.repo.UpsertMember(ctx, leagueID, userID, "governor"); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "GOVERNOR_ASSIGN", leagueID, map[string]any{"user_id": userID})
	return nil
}

// ConfigureActivityInput describes an activity configuration payload. Override
// tiers are applied only when present.
type ConfigureActivityInput struct {
	LeagueID int64
	Name     string
	Unit     string
	Base     Threshold
	Below40  *Threshold
	Above60  *Threshold
	ActorID  int64
}

// ConfigureActivity creates or updates an activity and its thresholds.
func (s *Service) ConfigureActivity(ctx context.Context, input ConfigureActivityInput) (Activity, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return Activity{}, httpx.NewFieldErrors(map[string]string{"name": "name is required"})
	}
	if fields := validateThresholds(input); len(fields) > 0 {
		return Activity{}, httpx.NewFieldErrors(fields)
	}
	if _, err := s.repo.GetLeague(ctx, input.LeagueID); err != nil {
		return Activity{}, err
	}
	activity, err := s.repo.UpsertActivity(ctx, Activity{
		LeagueID: input.LeagueID,
		Name:     input.Name,
		Unit:     strings.TrimSpace(input.Unit),
		Base:     input.Base,
		Below40:  input.Below40,
		Above60:  input.Above60,
	})
	if err != nil {
		return Activity{}, err
	}
	s.recordAudit(ctx, input.ActorID, "ACTIVITY_CONFIGURE", input.LeagueID, map[string]any{"activity": activity.Name})
	return activity, nil
}

// GetActivity fetches one activity scoped to its league.
func (s *Service) GetActivity(ctx context.Context, leagueID, activityID int64) (Activity, error) {
	return s.repo.GetActivity(ctx, leagueID, activityID)
}

// ListActivities returns all activities configured for a league.
func (s *Service) ListActivities(ctx context.Context, leagueID int64) ([]Activity, error) {
	return s.repo.ListActivities(ctx, leagueID)
}

// ResolveThreshold loads the activity and computes the applicable thresholds
// for a participant age.
func (s *Service) ResolveThreshold(ctx context.Context, leagueID, activityID int64, ageYears float64) (ResolvedThreshold, error) {
	activity, err := s.repo.GetActivity(ctx, leagueID, activityID)
	if err != nil {
		return ResolvedThreshold{}, err
	}
	resolved, err := ResolveActivityMinimum(activity, ageYears)
	if err != nil {
		return ResolvedThreshold{}, httpx.NewFieldErrors(map[string]string{"age": err.Error()})
	}
	return resolved, nil
}

func validateThresholds(input ConfigureActivityInput) map[string]string {
	fields := map[string]string{}
	checkPair := func(prefix string, t Threshold) {
		if t.Min != nil && *t.Min < 0 {
			fields[prefix+"_min"] = "must not be negative"
		}
		if t.Max != nil && *t.Max < 0 {
			fields[prefix+"_max"] = "must not be negative"
		}
		if t.Min != nil && t.Max != nil && *t.Min > *t.Max {
			fields[prefix+"_min"] = "must not exceed " + prefix + "_max"
		}
	}
	checkPair("base", input.Base)
	if input.Below40 != nil {
		checkPair("below40", *input.Below40)
	}
	if input.Above60 != nil {
		checkPair("above60", *input.Above60)
	}
	return fields
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "league",
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
		At:       shared.UTCClock(),
	})
}
