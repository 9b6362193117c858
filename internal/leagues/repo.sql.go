package leagues

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for leagues.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a league repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateLeague inserts a league row.
func (r *Repository) CreateLeague(ctx context.Context, league League) (League, error) {
	if r == nil || r.pool == nil {
		return League{}, fmt.Errorf("leagues repo not initialised")
	}
	const query = `
INSERT INTO leagues (name, season, host_id, created_at, updated_at)
VALUES ($1, $2, $3, NOW(), NOW())
RETURNING id, created_at, updated_at`
	row := r.pool.QueryRow(ctx, query, league.Name, league.Season, league.HostID)
	if err := row.Scan(&league.ID, &league.CreatedAt, &league.UpdatedAt); err != nil {
		return League{}, err
	}
	return league, nil
}

// GetLeague fetches a league by ID.
func (r *Repository) GetLeague(ctx context.Context, id int64) (League, error) {
	if r == nil || r.pool == nil {
		return League{}, fmt.Errorf("leagues repo not initialised")
	}
	const query = `SELECT id, name, season, host_id, created_at, updated_at FROM leagues WHERE id = $1`
	var league League
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&league.ID, &league.Name, &league.Season, &league.HostID, &league.CreatedAt, &league.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return League{}, ErrLeagueNotFound
		}
		return League{}, err
	}
	return league, nil
}

// ListLeagues returns all leagues ordered by name.
func (r *Repository) ListLeagues(ctx context.Context) ([]League, error) {
	if r == nil || r.pool == nil {
		return nil, fmt.Errorf("leagues repo not initialised")
	}
	const query = `SELECT id, name, season, host_id, created_at, updated_at FROM leagues ORDER BY name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []League
	for rows.Next() {
		var league League
		if err := rows.Scan(&league.ID, &league.Name, &league.Season, &league.HostID, &league.CreatedAt, &league.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, league)
	}
	return out, rows.Err()
}

// UpsertMember inserts or updates a membership role row.
func (r *Repository) UpsertMember(ctx context.Context, leagueID, userID int64, role string) error {
	if r == nil || r.pool == nil {
		return fmt.Errorf("leagues repo not initialised")
	}
	const query = `
INSERT INTO league_members (league_id, user_id, role, created_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT (league_id, user_id) DO UPDATE SET role = EXCLUDED.role`
	_, err := r.pool.Exec(ctx, query, leagueID, userID, role)
	return err
}

// UpsertActivity inserts or replaces the activity configuration for a league.
func (r *Repository) UpsertActivity(ctx context.Context, activity Activity) (Activity, error) {
	if r == nil || r.pool == nil {
		return Activity{}, fmt.Errorf("leagues repo not initialised")
	}
	below40Min, below40Max, below40Set := splitOverride(activity.Below40)
	above60Min, above60Max, above60Set := splitOverride(activity.Above60)
	const query = `
INSERT INTO league_activities (
  league_id, name, unit, base_min, base_max,
  below40_enabled, below40_min, below40_max,
  above60_enabled, above60_min, above60_max,
  created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
ON CONFLICT (league_id, name) DO UPDATE SET
  unit = EXCLUDED.unit,
  base_min = EXCLUDED.base_min,
  base_max = EXCLUDED.base_max,
  below40_enabled = EXCLUDED.below40_enabled,
  below40_min = EXCLUDED.below40_min,
  below40_max = EXCLUDED.below40_max,
  above60_enabled = EXCLUDED.above60_enabled,
  above60_min = EXCLUDED.above60_min,
  above60_max = EXCLUDED.above60_max,
  updated_at = NOW()
RETURNING id, created_at, updated_at`
	row := r.pool.QueryRow(ctx, query,
		activity.LeagueID, activity.Name, activity.Unit, activity.Base.Min, activity.Base.Max,
		below40Set, below40Min, below40Max,
		above60Set, above60Min, above60Max)
	if err := row.Scan(&activity.ID, &activity.CreatedAt, &activity.UpdatedAt); err != nil {
		return Activity{}, err
	}
	return activity, nil
}

const activityColumns = `
id, league_id, name, unit, base_min, base_max,
below40_enabled, below40_min, below40_max,
above60_enabled, above60_min, above60_max,
created_at, updated_at`

// GetActivity fetches one activity scoped to its league.
func (r *Repository) GetActivity(ctx context.Context, leagueID, activityID int64) (Activity, error) {
	if r == nil || r.pool == nil {
		return Activity{}, fmt.Errorf("leagues repo not initialised")
	}
	query := `SELECT ` + activityColumns + ` FROM league_activities WHERE league_id = $1 AND id = $2`
	activity, err := scanActivity(r.pool.QueryRow(ctx, query, leagueID, activityID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Activity{}, ErrActivityNotFound
		}
		return Activity{}, err
	}
	return activity, nil
}

// ListActivities returns the activities configured for a league.
func (r *Repository) ListActivities(ctx context.Context, leagueID int64) ([]Activity, error) {
	if r == nil || r.pool == nil {
		return nil, fmt.Errorf("leagues repo not initialised")
	}
	query := `SELECT ` + activityColumns + ` FROM league_activities WHERE league_id = $1 ORDER BY name`
	rows, err := r.pool.Query(ctx, query, leagueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Activity
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, activity)
	}
	return out, rows.Err()
}

func splitOverride(t *Threshold) (min, max *float64, enabled bool) {
	if t == nil {
		return nil, nil, false
	}
	return t.Min, t.Max, true
}

func scanActivity(row pgx.Row) (Activity, error) {
	var (
		activity                       Activity
		below40Enabled, above60Enabled bool
		below40Min, below40Max         *float64
		above60Min, above60Max         *float64
	)
	err := row.Scan(
		&activity.ID, &activity.LeagueID, &activity.Name, &activity.Unit,
		&activity.Base.Min, &activity.Base.Max,
		&below40Enabled, &below40Min, &below40Max,
		&above60Enabled, &above60Min, &above60Max,
		&activity.CreatedAt, &activity.UpdatedAt)
	if err != nil {
		return Activity{}, err
	}
	if below40Enabled {
		activity.Below40 = &Threshold{Min: below40Min, Max: below40Max}
	}
	if above60Enabled {
		activity.Above60 = &Threshold{Min: above60Min, Max: above60Max}
	}
	return activity, nil
}

var _ RepositoryPort = (*Repository)(nil)
