package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/stridestats/stridestats/internal/models"
)

// PostgresRefreshRepository implements jobs.RefreshRepository using
// PostgreSQL. Records older than the horizon read back as absent, so
// expired lockouts never block a refresh.
type PostgresRefreshRepository struct {
	db      *sql.DB
	horizon time.Duration
}

// NewPostgresRefreshRepository creates a new PostgreSQL refresh repository.
// A zero horizon disables expiry.
func NewPostgresRefreshRepository(db *sql.DB, horizon time.Duration) *PostgresRefreshRepository {
	return &PostgresRefreshRepository{db: db, horizon: horizon}
}

// Get returns the last refresh timestamp for an athlete and tier, or nil
// when none exists within the horizon.
func (r *PostgresRefreshRepository) Get(ctx context.Context, athleteID int64, tier models.Tier) (*time.Time, error) {
	query := "SELECT refreshed_at FROM refreshes WHERE athlete_id = $1 AND tier = $2"
	args := []interface{}{athleteID, tier}
	if r.horizon > 0 {
		query += " AND refreshed_at > NOW() - $3::interval"
		args = append(args, fmt.Sprintf("%d seconds", int(r.horizon.Seconds())))
	}

	var refreshedAt time.Time
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&refreshedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query refresh record: %w", err)
	}
	return &refreshedAt, nil
}

// Set records a refresh, replacing any previous record for the athlete and
// tier.
func (r *PostgresRefreshRepository) Set(ctx context.Context, athleteID int64, tier models.Tier, refreshedAt time.Time) error {
	query := `
		INSERT INTO refreshes (athlete_id, tier, refreshed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (athlete_id, tier) DO UPDATE SET
			refreshed_at = EXCLUDED.refreshed_at
	`

	_, err := r.db.ExecContext(ctx, query, athleteID, tier, refreshedAt)
	if err != nil {
		return fmt.Errorf("failed to store refresh record: %w", err)
	}
	return nil
}

// DeleteExpired removes refresh records older than the horizon. The pipeline
// invokes it after each successful job; Get already ignores expired rows.
func (r *PostgresRefreshRepository) DeleteExpired(ctx context.Context) (int, error) {
	if r.horizon <= 0 {
		return 0, nil
	}

	result, err := r.db.ExecContext(ctx,
		"DELETE FROM refreshes WHERE refreshed_at <= NOW() - $1::interval",
		fmt.Sprintf("%d seconds", int(r.horizon.Seconds())),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired refresh records: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(rows), nil
}
