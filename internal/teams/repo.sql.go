package teams

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for teams.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a team repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateTeam inserts a team row.
func (r *Repository) CreateTeam(ctx context.Context, team Team) (Team, error) {
	if r == nil || r.pool == nil {
		return Team{}, fmt.Errorf("teams repo not initialised")
	}
	const query = `
INSERT INTO teams (league_id, name, captain_id, created_at, updated_at)
VALUES ($1, $2, $3, NOW(), NOW())
RETURNING id, created_at, updated_at`
	row := r.pool.QueryRow(ctx, query, team.LeagueID, team.Name, team.CaptainID)
	if err := row.Scan(&team.ID, &team.CreatedAt, &team.UpdatedAt); err != nil {
		return Team{}, err
	}
	return team, nil
}

// GetTeam fetches a team scoped to its league.
func (r *Repository) GetTeam(ctx context.Context, leagueID, teamID int64) (Team, error) {
	if r == nil || r.pool == nil {
		return Team{}, fmt.Errorf("teams repo not initialised")
	}
	const query = `SELECT id, league_id, name, captain_id, created_at, updated_at FROM teams WHERE league_id = $1 AND id = $2`
	var team Team
	err := r.pool.QueryRow(ctx, query, leagueID, teamID).Scan(
		&team.ID, &team.LeagueID, &team.Name, &team.CaptainID, &team.CreatedAt, &team.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Team{}, ErrTeamNotFound
		}
		return Team{}, err
	}
	return team, nil
}

// ListTeams returns all teams in a league ordered by name.
func (r *Repository) ListTeams(ctx context.Context, leagueID int64) ([]Team, error) {
	if r == nil || r.pool == nil {
		return nil, fmt.Errorf("teams repo not initialised")
	}
	const query = `SELECT id, league_id, name, captain_id, created_at, updated_at FROM teams WHERE league_id = $1 ORDER BY name`
	rows, err := r.pool.Query(ctx, query, leagueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Team
	for rows.Next() {
		var team Team
		if err := rows.Scan(&team.ID, &team.LeagueID, &team.Name, &team.CaptainID, &team.CreatedAt, &team.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, team)
	}
	return out, rows.Err()
}

// AddMember inserts a roster row, tolerating repeats.
func (r *Repository) AddMember(ctx context.Context, teamID, userID int64) error {
	if r == nil || r.pool == nil {
		return fmt.Errorf("teams repo not initialised")
	}
	const query = `
INSERT INTO team_members (team_id, user_id, joined_at)
VALUES ($1, $2, NOW())
ON CONFLICT (team_id, user_id) DO NOTHING`
	_, err := r.pool.Exec(ctx, query, teamID, userID)
	return err
}

// RemoveMember deletes a roster row.
func (r *Repository) RemoveMember(ctx context.Context, teamID, userID int64) error {
	if r == nil || r.pool == nil {
		return fmt.Errorf("teams repo not initialised")
	}
	_, err := r.pool.Exec(ctx, `DELETE FROM team_members WHERE team_id = $1 AND user_id = $2`, teamID, userID)
	return err
}

// ListMembers returns the roster of a team.
func (r *Repository) ListMembers(ctx context.Context, teamID int64) ([]Member, error) {
	if r == nil || r.pool == nil {
		return nil, fmt.Errorf("teams repo not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT team_id, user_id, joined_at FROM team_members WHERE team_id = $1 ORDER BY joined_at`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.TeamID, &m.UserID, &m.JoinedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// CaptainID returns the captain of a team.
func (r *Repository) CaptainID(ctx context.Context, teamID int64) (int64, error) {
	if r == nil || r.pool == nil {
		return 0, fmt.Errorf("teams repo not initialised")
	}
	var captainID int64
	err := r.pool.QueryRow(ctx, `SELECT captain_id FROM teams WHERE id = $1`, teamID).Scan(&captainID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrTeamNotFound
		}
		return 0, err
	}
	return captainID, nil
}

var _ RepositoryPort = (*Repository)(nil)
