package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/stridestats/stridestats/internal/models"
)

// PostgresTokenRepository stores athlete OAuth tokens in PostgreSQL.
type PostgresTokenRepository struct {
	db *sql.DB
}

// NewPostgresTokenRepository creates a new PostgreSQL token repository.
func NewPostgresTokenRepository(db *sql.DB) *PostgresTokenRepository {
	return &PostgresTokenRepository{db: db}
}

// Get retrieves an athlete's token record, or nil when the athlete has
// never connected.
func (r *PostgresTokenRepository) Get(ctx context.Context, athleteID int64) (*models.TokenRecord, error) {
	query := `
		SELECT athlete_id, access_token, refresh_token, expires_at, updated_at
		FROM tokens
		WHERE athlete_id = $1
	`

	var token models.TokenRecord
	err := r.db.QueryRowContext(ctx, query, athleteID).Scan(
		&token.AthleteID,
		&token.AccessToken,
		&token.RefreshToken,
		&token.ExpiresAt,
		&token.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query token: %w", err)
	}
	return &token, nil
}

// Store saves a token record, replacing any previous one for the athlete.
func (r *PostgresTokenRepository) Store(ctx context.Context, token models.TokenRecord) error {
	query := `
		INSERT INTO tokens (athlete_id, access_token, refresh_token, expires_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (athlete_id) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			expires_at = EXCLUDED.expires_at,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		token.AthleteID,
		token.AccessToken,
		token.RefreshToken,
		token.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}

// Delete removes an athlete's token, used when they disconnect.
func (r *PostgresTokenRepository) Delete(ctx context.Context, athleteID int64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM tokens WHERE athlete_id = $1", athleteID)
	if err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
