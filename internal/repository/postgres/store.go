package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/7azemaamer/salla-adv-bundler-sub000/internal/domain"
	"github.com/7azemaamer/salla-adv-bundler-sub000/pkg/database"
	apperrors "github.com/7azemaamer/salla-adv-bundler-sub000/pkg/errors"
)

// StoreRepository implements repository.StoreRepository using PostgreSQL.
type StoreRepository struct {
	pool database.DBTX
}

// NewStoreRepository creates a new PostgreSQL-backed store repository.
func NewStoreRepository(pool database.DBTX) *StoreRepository {
	return &StoreRepository{pool: pool}
}

// GetByID retrieves a store by its ID.
func (r *StoreRepository) GetByID(ctx context.Context, id string) (*domain.Store, error) {
	query := `
		SELECT id, merchant_id, name, plan, status, access_token, refresh_token,
		       token_expires_at, created_at, updated_at
		FROM stores
		WHERE id = $1`

	var s domain.Store
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID,
		&s.MerchantID,
		&s.Name,
		&s.Plan,
		&s.Status,
		&s.AccessToken,
		&s.RefreshToken,
		&s.TokenExpiresAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get store: %w", err)
	}

	return &s, nil
}

// UpdateTokens stores a refreshed OAuth token pair and clears a
// reauth_required flag if one was set.
func (r *StoreRepository) UpdateTokens(ctx context.Context, id, accessToken, refreshToken string, expiresAt time.Time) error {
	query := `
		UPDATE stores
		SET access_token = $1, refresh_token = $2, token_expires_at = $3,
		    status = CASE WHEN status = 'reauth_required' THEN 'active' ELSE status END,
		    updated_at = NOW()
		WHERE id = $4`

	ct, err := r.pool.Exec(ctx, query, accessToken, refreshToken, expiresAt, id)
	if err != nil {
		return fmt.Errorf("update store tokens: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("store", id)
	}

	return nil
}

// SetStatus updates the store lifecycle status.
func (r *StoreRepository) SetStatus(ctx context.Context, id, status string) error {
	query := `
		UPDATE stores
		SET status = $1, updated_at = NOW()
		WHERE id = $2`

	ct, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("set store status: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("store", id)
	}

	return nil
}
