package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/stridestats/stridestats/internal/artifacts"
	"github.com/stridestats/stridestats/internal/models"
)

// PostgresArtifactRepository implements artifacts.Store using PostgreSQL.
// Rendered artifacts are stored as JSON bytes keyed by athlete, tier, and
// artifact name.
type PostgresArtifactRepository struct {
	db *sql.DB
}

// NewPostgresArtifactRepository creates a new PostgreSQL artifact repository.
func NewPostgresArtifactRepository(db *sql.DB) *PostgresArtifactRepository {
	return &PostgresArtifactRepository{db: db}
}

// Exists checks whether an artifact is cached.
func (r *PostgresArtifactRepository) Exists(ctx context.Context, key artifacts.Key) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM artifacts WHERE athlete_id = $1 AND tier = $2 AND name = $3)",
		key.AthleteID, key.Tier, key.Name,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check artifact existence: %w", err)
	}
	return exists, nil
}

// Get retrieves a cached artifact, or nil when absent.
func (r *PostgresArtifactRepository) Get(ctx context.Context, key artifacts.Key) ([]byte, error) {
	var body []byte
	err := r.db.QueryRowContext(ctx,
		"SELECT body FROM artifacts WHERE athlete_id = $1 AND tier = $2 AND name = $3",
		key.AthleteID, key.Tier, key.Name,
	).Scan(&body)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query artifact: %w", err)
	}
	return body, nil
}

// Put stores an artifact, replacing any previous version.
func (r *PostgresArtifactRepository) Put(ctx context.Context, key artifacts.Key, data []byte) error {
	query := `
		INSERT INTO artifacts (athlete_id, tier, name, body, generated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (athlete_id, tier, name) DO UPDATE SET
			body = EXCLUDED.body,
			generated_at = EXCLUDED.generated_at
	`

	_, err := r.db.ExecContext(ctx, query, key.AthleteID, key.Tier, key.Name, data)
	if err != nil {
		return fmt.Errorf("failed to store artifact: %w", err)
	}
	return nil
}

// DeleteAll removes every cached artifact for an athlete and tier.
func (r *PostgresArtifactRepository) DeleteAll(ctx context.Context, athleteID int64, tier models.Tier) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM artifacts WHERE athlete_id = $1 AND tier = $2",
		athleteID, tier,
	)
	if err != nil {
		return fmt.Errorf("failed to delete artifacts: %w", err)
	}
	return nil
}

// Count returns the total number of cached artifacts.
func (r *PostgresArtifactRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM artifacts").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count artifacts: %w", err)
	}
	return count, nil
}
