package postgres

import (
	"context"
	"fmt"

	"github.com/7azemaamer/salla-adv-bundler-sub000/internal/domain"
	"github.com/7azemaamer/salla-adv-bundler-sub000/pkg/database"
	apperrors "github.com/7azemaamer/salla-adv-bundler-sub000/pkg/errors"
)

// OfferRepository implements repository.OfferRepository using PostgreSQL.
type OfferRepository struct {
	pool database.DBTX
}

// NewOfferRepository creates a new PostgreSQL-backed offer mirror repository.
func NewOfferRepository(pool database.DBTX) *OfferRepository {
	return &OfferRepository{pool: pool}
}

// Create inserts a new remote offer mirror row.
func (r *OfferRepository) Create(ctx context.Context, o *domain.BundleOffer) error {
	query := `
		INSERT INTO bundle_offers (
			id, bundle_id, store_id, tier, remote_offer_id, offer_name,
			discount_amount, status, sync_status, raw_response, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.pool.Exec(ctx, query,
		o.ID,
		o.BundleID,
		o.StoreID,
		o.Tier,
		o.RemoteOfferID,
		o.OfferName,
		o.DiscountAmount,
		o.Status,
		o.SyncStatus,
		o.RawResponse,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("bundle offer", "id", o.ID)
		}
		return fmt.Errorf("insert bundle offer: %w", err)
	}

	return nil
}

// ListByBundle returns all offer mirrors for a bundle ordered by tier.
func (r *OfferRepository) ListByBundle(ctx context.Context, bundleID string) ([]domain.BundleOffer, error) {
	query := `
		SELECT id, bundle_id, store_id, tier, remote_offer_id, offer_name,
		       discount_amount, status, sync_status, raw_response, created_at, updated_at
		FROM bundle_offers
		WHERE bundle_id = $1
		ORDER BY tier ASC`

	rows, err := r.pool.Query(ctx, query, bundleID)
	if err != nil {
		return nil, fmt.Errorf("list bundle offers: %w", err)
	}
	defer rows.Close()

	var offers []domain.BundleOffer
	for rows.Next() {
		var o domain.BundleOffer
		if err := rows.Scan(
			&o.ID,
			&o.BundleID,
			&o.StoreID,
			&o.Tier,
			&o.RemoteOfferID,
			&o.OfferName,
			&o.DiscountAmount,
			&o.Status,
			&o.SyncStatus,
			&o.RawResponse,
			&o.CreatedAt,
			&o.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan bundle offer row: %w", err)
		}
		offers = append(offers, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bundle offer rows: %w", err)
	}

	if offers == nil {
		offers = []domain.BundleOffer{}
	}

	return offers, nil
}

// DeleteByBundle hard-deletes all offer mirrors for a bundle and returns how
// many rows were removed. Mirrors are never reused across activations.
func (r *OfferRepository) DeleteByBundle(ctx context.Context, bundleID string) (int, error) {
	ct, err := r.pool.Exec(ctx, `DELETE FROM bundle_offers WHERE bundle_id = $1`, bundleID)
	if err != nil {
		return 0, fmt.Errorf("delete bundle offers: %w", err)
	}

	return int(ct.RowsAffected()), nil
}
