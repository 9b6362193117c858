package rbac

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGMembershipRepository resolves role facts from PostgreSQL.
type PGMembershipRepository struct {
	pool *pgxpool.Pool
}

// NewMembershipRepository constructs a PostgreSQL backed repository.
func NewMembershipRepository(pool *pgxpool.Pool) *PGMembershipRepository {
	return &PGMembershipRepository{pool: pool}
}

// QualifyingRoles collects every role the user holds in the league: the host
// record on the league itself, the membership role row, and captaincy of any
// team in the league.
func (r *PGMembershipRepository) QualifyingRoles(ctx context.Context, userID, leagueID int64) ([]Role, error) {
	if r == nil || r.pool == nil {
		return nil, fmt.Errorf("rbac repo not initialised")
	}
	const query = `
SELECT 'host' AS role FROM leagues WHERE id = $2 AND host_id = $1
UNION ALL
SELECT role FROM league_members WHERE user_id = $1 AND league_id = $2
UNION ALL
SELECT 'captain' FROM teams WHERE league_id = $2 AND captain_id = $1`
	rows, err := r.pool.Query(ctx, query, userID, leagueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, err
		}
		roles = append(roles, Role(role))
	}
	return roles, rows.Err()
}

var _ MembershipRepository = (*PGMembershipRepository)(nil)
