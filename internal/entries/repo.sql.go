package entries

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for entries.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs an entry repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const entryColumns = `
id, league_id, team_id, user_id, activity_id, value, status, note, review_note,
reviewed_by, reviewed_at, created_at, updated_at`

// Insert persists a new entry.
func (r *Repository) Insert(ctx context.Context, entry Entry) (Entry, error) {
	if r == nil || r.pool == nil {
		return Entry{}, fmt.Errorf("entries repo not initialised")
	}
	const query = `
INSERT INTO entries (id, league_id, team_id, user_id, activity_id, value, status, note, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
RETURNING created_at, updated_at`
	row := r.pool.QueryRow(ctx, query,
		entry.ID, entry.LeagueID, entry.TeamID, entry.UserID, entry.ActivityID,
		entry.Value, string(entry.Status), entry.Note, entry.CreatedAt)
	if err := row.Scan(&entry.CreatedAt, &entry.UpdatedAt); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// Get fetches an entry by ID.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Entry, error) {
	if r == nil || r.pool == nil {
		return Entry{}, fmt.Errorf("entries repo not initialised")
	}
	query := `SELECT ` + entryColumns + ` FROM entries WHERE id = $1`
	entry, err := scanEntry(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, ErrEntryNotFound
		}
		return Entry{}, err
	}
	return entry, nil
}

// ListByLeague returns one page of league entries, optionally filtered by
// status, newest first.
func (r *Repository) ListByLeague(ctx context.Context, leagueID int64, status Status, limit, offset int) ([]Entry, error) {
	if r == nil || r.pool == nil {
		return nil, fmt.Errorf("entries repo not initialised")
	}
	query := `SELECT ` + entryColumns + ` FROM entries WHERE league_id = $1`
	args := []any{leagueID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, string(status))
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEntries(rows)
}

// CountByLeague counts league entries matching the optional status filter.
func (r *Repository) CountByLeague(ctx context.Context, leagueID int64, status Status) (int, error) {
	if r == nil || r.pool == nil {
		return 0, fmt.Errorf("entries repo not initialised")
	}
	query := `SELECT COUNT(*) FROM entries WHERE league_id = $1`
	args := []any{leagueID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, string(status))
	}
	var total int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// ListByUser returns a user's entries in a league, newest first.
func (r *Repository) ListByUser(ctx context.Context, leagueID, userID int64) ([]Entry, error) {
	if r == nil || r.pool == nil {
		return nil, fmt.Errorf("entries repo not initialised")
	}
	query := `SELECT ` + entryColumns + ` FROM entries WHERE league_id = $1 AND user_id = $2 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, leagueID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEntries(rows)
}

// UpdateStatusIfPending transitions the entry conditioned on it still being
// pending at write time. Returns false when another reviewer (or the sweep)
// got there first.
func (r *Repository) UpdateStatusIfPending(ctx context.Context, id uuid.UUID, status Status, reviewerID *int64, note string, at time.Time) (bool, error) {
	if r == nil || r.pool == nil {
		return false, fmt.Errorf("entries repo not initialised")
	}
	const query = `
UPDATE entries SET status = $2, reviewed_by = $3, review_note = $4, reviewed_at = $5, updated_at = $5
WHERE id = $1 AND status = 'pending'`
	tag, err := r.pool.Exec(ctx, query, id, string(status), reviewerID, note, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// OverrideStatus rewrites a reviewed entry's status. Reserved for governor or
// host override flows.
func (r *Repository) OverrideStatus(ctx context.Context, id uuid.UUID, status Status, reviewerID *int64, note string, at time.Time) (bool, error) {
	if r == nil || r.pool == nil {
		return false, fmt.Errorf("entries repo not initialised")
	}
	const query = `
UPDATE entries SET status = $2, reviewed_by = $3, review_note = $4, reviewed_at = $5, updated_at = $5
WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, string(status), reviewerID, note, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ListPendingBefore returns IDs of pending entries created before the cutoff.
func (r *Repository) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	if r == nil || r.pool == nil {
		return nil, fmt.Errorf("entries repo not initialised")
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM entries WHERE status = 'pending' AND created_at < $1 ORDER BY created_at`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ApprovePendingByIDs bulk-approves the given entries. The update itself is
// conditioned on status = 'pending' so a manual transition racing the sweep is
// never overwritten; reviewed_by stays NULL to mark the transition as
// system-initiated. Returns the IDs actually approved.
func (r *Repository) ApprovePendingByIDs(ctx context.Context, ids []uuid.UUID, at time.Time) ([]uuid.UUID, error) {
	if r == nil || r.pool == nil {
		return nil, fmt.Errorf("entries repo not initialised")
	}
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `
UPDATE entries SET status = 'approved', reviewed_at = $2, updated_at = $2
WHERE id = ANY($1) AND status = 'pending'
RETURNING id`
	rows, err := r.pool.Query(ctx, query, ids, at)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var approved []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		approved = append(approved, id)
	}
	return approved, rows.Err()
}

// RejectedSummary aggregates rejected entries for a user in a league.
func (r *Repository) RejectedSummary(ctx context.Context, leagueID, userID int64) (RejectedSummary, error) {
	if r == nil || r.pool == nil {
		return RejectedSummary{}, fmt.Errorf("entries repo not initialised")
	}
	const query = `
SELECT COUNT(*), COALESCE(SUM(value), 0), MAX(reviewed_at)
FROM entries WHERE league_id = $1 AND user_id = $2 AND status = 'rejected'`
	summary := RejectedSummary{LeagueID: leagueID, UserID: userID}
	err := r.pool.QueryRow(ctx, query, leagueID, userID).Scan(&summary.Count, &summary.TotalValue, &summary.LastRejectedAt)
	if err != nil {
		return RejectedSummary{}, err
	}
	return summary, nil
}

func collectEntries(rows pgx.Rows) ([]Entry, error) {
	var out []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

func scanEntry(row pgx.Row) (Entry, error) {
	var (
		entry  Entry
		status string
	)
	err := row.Scan(
		&entry.ID, &entry.LeagueID, &entry.TeamID, &entry.UserID, &entry.ActivityID,
		&entry.Value, &status, &entry.Note, &entry.ReviewNote,
		&entry.ReviewedBy, &entry.ReviewedAt, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		return Entry{}, err
	}
	entry.Status = Status(status)
	return entry, nil
}
