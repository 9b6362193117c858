package teams

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/fitleague/fitleague/internal/platform/httpx"
	"github.com/fitleague/fitleague/internal/rbac"
	"github.com/fitleague/fitleague/internal/shared"
)

// ErrTeamNotFound wraps the not-found sentinel for handler mapping.
var ErrTeamNotFound = fmt.Errorf("%w: team", httpx.ErrNotFound)

// RepositoryPort describes persistence operations used by Service.
type RepositoryPort interface {
	CreateTeam(ctx context.Context, team Team) (Team, error)
	GetTeam(ctx context.Context, leagueID, teamID int64) (Team, error)
	ListTeams(ctx context.Context, leagueID int64) ([]Team, error)
	AddMember(ctx context.Context, teamID, userID int64) error
	RemoveMember(ctx context.Context, teamID, userID int64) error
	ListMembers(ctx context.Context, teamID int64) ([]Member, error)
	CaptainID(ctx context.Context, teamID int64) (int64, error)
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service orchestrates team membership flows.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService constructs a team service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// CreateTeam registers a team in the league; the creator becomes its captain
// and first member.
func (s *Service) CreateTeam(ctx context.Context, leagueID int64, name string, captainID int64) (Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Team{}, httpx.NewFieldErrors(map[string]string{"name": "name is required"})
	}
	team, err := s.repo.CreateTeam(ctx, Team{LeagueID: leagueID, Name: name, CaptainID: captainID})
	if err != nil {
		return Team{}, err
	}
	if err := s.repo.AddMember(ctx, team.ID, captainID); err != nil {
		return Team{}, err
	}
	s.recordAudit(ctx, captainID, "TEAM_CREATE", team.ID, map[string]any{"name": team.Name, "league_id": leagueID})
	return team, nil
}

// GetTeam fetches a team scoped to its league.
func (s *Service) GetTeam(ctx context.Context, leagueID, teamID int64) (Team, error) {
	return s.repo.GetTeam(ctx, leagueID, teamID)
}

// ListTeams returns all teams in a league.
func (s *Service) ListTeams(ctx context.Context, leagueID int64) ([]Team, error) {
	return s.repo.ListTeams(ctx, leagueID)
}

// ListMembers returns the roster of a team.
func (s *Service) ListMembers(ctx context.Context, leagueID, teamID int64) ([]Member, error) {
	if _, err := s.repo.GetTeam(ctx, leagueID, teamID); err != nil {
		return nil, err
	}
	return s.repo.ListMembers(ctx, teamID)
}

// AddMember adds a user to the roster. Captains may only manage their own
// team; governor and host manage any team in the league.
func (s *Service) AddMember(ctx context.Context, actorID int64, actorRole rbac.Role, leagueID, teamID, userID int64) error {
	if err := s.authorizeRosterChange(ctx, actorID, actorRole, leagueID, teamID); err != nil {
		return err
	}
	if err := s.repo.AddMember(ctx, teamID, userID); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "TEAM_MEMBER_ADD", teamID, map[string]any{"user_id": userID})
	return nil
}

// RemoveMember drops a user from the roster.
func (s *Service) RemoveMember(ctx context.Context, actorID int64, actorRole rbac.Role, leagueID, teamID, userID int64) error {
	if err := s.authorizeRosterChange(ctx, actorID, actorRole, leagueID, teamID); err != nil {
		return err
	}
	if err := s.repo.RemoveMember(ctx, teamID, userID); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "TEAM_MEMBER_REMOVE", teamID, map[string]any{"user_id": userID})
	return nil
}

// CaptainID exposes the captain lookup for other modules.
func (s *Service) CaptainID(ctx context.Context, teamID int64) (int64, error) {
	return s.repo.CaptainID(ctx, teamID)
}

func (s *Service) authorizeRosterChange(ctx context.Context, actorID int64, actorRole rbac.Role, leagueID, teamID int64) error {
	if !rbac.Authorize(actorRole, rbac.PermTeamsManage) {
		return httpx.ErrForbidden
	}
	if _, err := s.repo.GetTeam(ctx, leagueID, teamID); err != nil {
		return err
	}
	// Captains hold teams.manage, but only for the team they lead.
	if actorRole == rbac.RoleCaptain {
		captainID, err := s.repo.CaptainID(ctx, teamID)
		if err != nil {
			return err
		}
		if captainID != actorID {
			return httpx.ErrForbidden
		}
	}
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "team",
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
		At:       shared.UTCClock(),
	})
}
