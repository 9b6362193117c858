package entries

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fitleague/fitleague/internal/leagues"
	"github.com/fitleague/fitleague/internal/platform/httpx"
	"github.com/fitleague/fitleague/internal/rbac"
	"github.com/fitleague/fitleague/internal/shared"
	"github.com/fitleague/fitleague/internal/teams"
)

// DefaultAutoApproveHours is the pending age after which the sweep approves an
// entry.
const DefaultAutoApproveHours = 48

// reviewModule tags review log rows written by this package.
const reviewModule = "entries"

// Domain errors wrap the httpx sentinels for handler mapping.
var (
	ErrEntryNotFound   = fmt.Errorf("%w: entry", httpx.ErrNotFound)
	ErrAlreadyReviewed = fmt.Errorf("%w: entry already reviewed", httpx.ErrDuplicate)
)

// RepositoryPort describes persistence operations used by Service.
type RepositoryPort interface {
	Insert(ctx context.Context, entry Entry) (Entry, error)
	Get(ctx context.Context, id uuid.UUID) (Entry, error)
	ListByLeague(ctx context.Context, leagueID int64, status Status, limit, offset int) ([]Entry, error)
	CountByLeague(ctx context.Context, leagueID int64, status Status) (int, error)
	ListByUser(ctx context.Context, leagueID, userID int64) ([]Entry, error)
	UpdateStatusIfPending(ctx context.Context, id uuid.UUID, status Status, reviewerID *int64, note string, at time.Time) (bool, error)
	OverrideStatus(ctx context.Context, id uuid.UUID, status Status, reviewerID *int64, note string, at time.Time) (bool, error)
	ListPendingBefore(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error)
	ApprovePendingByIDs(ctx context.Context, ids []uuid.UUID, at time.Time) ([]uuid.UUID, error)
	RejectedSummary(ctx context.Context, leagueID, userID int64) (RejectedSummary, error)
}

// ActivityPort exposes the league activity configuration.
type ActivityPort interface {
	GetActivity(ctx context.Context, leagueID, activityID int64) (leagues.Activity, error)
}

// TeamPort exposes the roster facts needed for team-scoped review.
type TeamPort interface {
	GetTeam(ctx context.Context, leagueID, teamID int64) (teams.Team, error)
	CaptainID(ctx context.Context, teamID int64) (int64, error)
}

// ProfilePort exposes participant ages for threshold resolution.
type ProfilePort interface {
	AgeYears(ctx context.Context, userID int64, at time.Time) (float64, error)
}

// ReviewPort records review history.
type ReviewPort interface {
	Record(ctx context.Context, log shared.ReviewLog) error
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service orchestrates the submission lifecycle.
type Service struct {
	repo       RepositoryPort
	activities ActivityPort
	teams      TeamPort
	profiles   ProfilePort
	reviews    ReviewPort
	audit      AuditPort
	cache      *SummaryCache
	clock      shared.Clock
}

// NewService constructs an entry service. A nil clock defaults to UTC now.
func NewService(repo RepositoryPort, activities ActivityPort, teamPort TeamPort, profiles ProfilePort, reviews ReviewPort, audit AuditPort, cache *SummaryCache, clock shared.Clock) *Service {
	if clock == nil {
		clock = shared.UTCClock
	}
	return &Service{
		repo:       repo,
		activities: activities,
		teams:      teamPort,
		profiles:   profiles,
		reviews:    reviews,
		audit:      audit,
		cache:      cache,
		clock:      clock,
	}
}

// SubmitInput describes a new submission payload.
type SubmitInput struct {
	LeagueID   int64
	TeamID     int64
	ActivityID int64
	UserID     int64
	Value      float64
	Note       string
}

// Submit validates the measured value against the participant's applicable
// thresholds and records a pending entry.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (Entry, error) {
	if _, err := s.teams.GetTeam(ctx, input.LeagueID, input.TeamID); err != nil {
		return Entry{}, err
	}
	activity, err := s.activities.GetActivity(ctx, input.LeagueID, input.ActivityID)
	if err != nil {
		return Entry{}, err
	}
	now := s.clock()
	age, err := s.profiles.AgeYears(ctx, input.UserID, now)
	if err != nil {
		return Entry{}, err
	}
	resolved, err := leagues.ResolveActivityMinimum(activity, age)
	if err != nil {
		if errors.Is(err, leagues.ErrInvalidAge) {
			return Entry{}, httpx.NewFieldErrors(map[string]string{"age": err.Error()})
		}
		return Entry{}, err
	}
	if !resolved.Min.Unbounded && input.Value < resolved.Min.Value {
		return Entry{}, httpx.NewFieldErrors(map[string]string{
			"value": fmt.Sprintf("below the %s tier minimum of %g", resolved.Tier, resolved.Min.Value),
		})
	}
	if !resolved.Max.Unbounded && input.Value > resolved.Max.Value {
		return Entry{}, httpx.NewFieldErrors(map[string]string{
			"value": fmt.Sprintf("above the %s tier maximum of %g", resolved.Tier, resolved.Max.Value),
		})
	}

	entry := Entry{
		ID:         uuid.New(),
		LeagueID:   input.LeagueID,
		TeamID:     input.TeamID,
		UserID:     input.UserID,
		ActivityID: input.ActivityID,
		Value:      input.Value,
		Status:     StatusPending,
		Note:       input.Note,
		CreatedAt:  now,
	}
	entry, err = s.repo.Insert(ctx, entry)
	if err != nil {
		return Entry{}, err
	}
	s.recordReview(ctx, entry.ID, &input.UserID, shared.ReviewSubmit, input.Note)
	return entry, nil
}

// Get fetches an entry scoped to its league.
func (s *Service) Get(ctx context.Context, leagueID int64, id uuid.UUID) (Entry, error) {
	entry, err := s.repo.Get(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	if entry.LeagueID != leagueID {
		return Entry{}, ErrEntryNotFound
	}
	return entry, nil
}

// ListByLeague returns one page of league entries, optionally filtered by
// status, with pagination metadata.
func (s *Service) ListByLeague(ctx context.Context, leagueID int64, status Status, page, perPage int) ([]Entry, shared.Pagination, error) {
	if status != "" && !status.Valid() {
		return nil, shared.Pagination{}, httpx.NewFieldErrors(map[string]string{"status": "unknown status"})
	}
	total, err := s.repo.CountByLeague(ctx, leagueID, status)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	pagination := shared.NewPagination(page, perPage, total)
	list, err := s.repo.ListByLeague(ctx, leagueID, status, pagination.PerPage, (pagination.Page-1)*pagination.PerPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, pagination, nil
}

// ListOwn returns the acting user's entries in a league.
func (s *Service) ListOwn(ctx context.Context, leagueID, userID int64) ([]Entry, error) {
	return s.repo.ListByUser(ctx, leagueID, userID)
}

// ReviewInput describes a manual review decision.
type ReviewInput struct {
	LeagueID  int64
	EntryID   uuid.UUID
	ActorID   int64
	ActorRole rbac.Role
	Approve   bool
	Note      string
}

// Review applies a manual approve/reject. Only pending entries transition;
// losing the race against another reviewer or the sweep yields
// ErrAlreadyReviewed.
func (s *Service) Review(ctx context.Context, input ReviewInput) (Entry, error) {
	entry, err := s.Get(ctx, input.LeagueID, input.EntryID)
	if err != nil {
		return Entry{}, err
	}
	if err := s.authorizeReview(ctx, input.ActorID, input.ActorRole, entry); err != nil {
		return Entry{}, err
	}
	if entry.Status != StatusPending {
		return Entry{}, ErrAlreadyReviewed
	}

	target := StatusRejected
	action := shared.ReviewReject
	if input.Approve {
		target = StatusApproved
		action = shared.ReviewApprove
	}
	now := s.clock()
	updated, err := s.repo.UpdateStatusIfPending(ctx, entry.ID, target, &input.ActorID, input.Note, now)
	if err != nil {
		return Entry{}, err
	}
	if !updated {
		return Entry{}, ErrAlreadyReviewed
	}
	s.recordReview(ctx, entry.ID, &input.ActorID, action, input.Note)
	s.recordAudit(ctx, input.ActorID, "ENTRY_"+string(action), entry.ID)
	if target == StatusRejected {
		_ = s.cache.InvalidateUser(ctx, entry.UserID)
	}
	return s.repo.Get(ctx, entry.ID)
}

// Override rewrites a previously reviewed entry. Requires the override
// permission held by governor and host.
func (s *Service) Override(ctx context.Context, input ReviewInput) (Entry, error) {
	if !rbac.Authorize(input.ActorRole, rbac.PermEntriesOverride) {
		return Entry{}, httpx.ErrForbidden
	}
	entry, err := s.Get(ctx, input.LeagueID, input.EntryID)
	if err != nil {
		return Entry{}, err
	}

	target := StatusRejected
	action := shared.ReviewReject
	if input.Approve {
		target = StatusApproved
		action = shared.ReviewApprove
	}
	now := s.clock()
	updated, err := s.repo.OverrideStatus(ctx, entry.ID, target, &input.ActorID, input.Note, now)
	if err != nil {
		return Entry{}, err
	}
	if !updated {
		return Entry{}, ErrEntryNotFound
	}
	s.recordReview(ctx, entry.ID, &input.ActorID, action, input.Note)
	s.recordAudit(ctx, input.ActorID, "ENTRY_OVERRIDE", entry.ID)
	if target == StatusRejected || entry.Status == StatusRejected {
		_ = s.cache.InvalidateUser(ctx, entry.UserID)
	}
	return s.repo.Get(ctx, entry.ID)
}

// SweepAutoApprove approves pending entries older than the cutoff. The bulk
// update is conditioned on status = 'pending' at write time, so concurrent
// manual reviews are never resurrected. Re-running without new eligible
// entries is a no-op.
func (s *Service) SweepAutoApprove(ctx context.Context, cutoffHours int) (SweepResult, error) {
	if cutoffHours <= 0 {
		cutoffHours = DefaultAutoApproveHours
	}
	now := s.clock()
	cutoff := now.Add(-time.Duration(cutoffHours) * time.Hour)

	ids, err := s.repo.ListPendingBefore(ctx, cutoff)
	if err != nil {
		return SweepResult{}, err
	}
	result := SweepResult{EntryIDs: []uuid.UUID{}}
	if len(ids) == 0 {
		return result, nil
	}

	approved, err := s.repo.ApprovePendingByIDs(ctx, ids, now)
	if err != nil {
		return SweepResult{}, err
	}
	for _, id := range approved {
		s.recordReview(ctx, id, nil, shared.ReviewAutoApprove, "auto-approved after pending cutoff")
	}
	result.ApprovedCount = len(approved)
	result.EntryIDs = append(result.EntryIDs, approved...)
	return result, nil
}

// RejectedSummaryFor serves the per-user rejected summary through the TTL
// cache.
func (s *Service) RejectedSummaryFor(ctx context.Context, leagueID, userID int64) (RejectedSummary, error) {
	return s.cache.Fetch(ctx, leagueID, userID, func(ctx context.Context) (RejectedSummary, error) {
		return s.repo.RejectedSummary(ctx, leagueID, userID)
	})
}

func (s *Service) authorizeReview(ctx context.Context, actorID int64, role rbac.Role, entry Entry) error {
	if rbac.Authorize(role, rbac.PermEntriesValidateAny) {
		return nil
	}
	if !rbac.Authorize(role, rbac.PermEntriesValidateTeam) {
		return httpx.ErrForbidden
	}
	// Team-scoped validators may only review entries from the team they lead.
	captainID, err := s.teams.CaptainID(ctx, entry.TeamID)
	if err != nil {
		return err
	}
	if captainID != actorID {
		return httpx.ErrForbidden
	}
	return nil
}

func (s *Service) recordReview(ctx context.Context, entryID uuid.UUID, actorID *int64, action shared.ReviewAction, note string) {
	if s.reviews == nil {
		return
	}
	_ = s.reviews.Record(ctx, shared.ReviewLog{
		Module:  reviewModule,
		RefID:   entryID,
		ActorID: actorID,
		Action:  action,
		Note:    note,
		At:      s.clock(),
	})
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, entryID uuid.UUID) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "entry",
		EntityID: entryID.String(),
		At:       s.clock(),
	})
}
