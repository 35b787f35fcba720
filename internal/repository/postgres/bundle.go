package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/7azemaamer/salla-adv-bundler-sub000/internal/domain"
	"github.com/7azemaamer/salla-adv-bundler-sub000/internal/repository"
	"github.com/7azemaamer/salla-adv-bundler-sub000/pkg/database"
	apperrors "github.com/7azemaamer/salla-adv-bundler-sub000/pkg/errors"
)

const bundleColumns = `id, store_id, name, description, target_product_id, target_product_name,
		   tiers, config_hash, status, start_date, expiry_date, offers_count,
		   total_views, total_clicks, total_conversions, total_revenue,
		   created_at, updated_at`

// BundleRepository implements repository.BundleRepository using PostgreSQL.
// Tiers are stored as a JSONB column.
type BundleRepository struct {
	pool database.DBTX
}

// NewBundleRepository creates a new PostgreSQL-backed bundle repository.
func NewBundleRepository(pool database.DBTX) *BundleRepository {
	return &BundleRepository{pool: pool}
}

// Create inserts a new bundle configuration.
func (r *BundleRepository) Create(ctx context.Context, b *domain.BundleConfig) error {
	tiersJSON, err := json.Marshal(b.Tiers)
	if err != nil {
		return fmt.Errorf("marshal tiers: %w", err)
	}

	query := `
		INSERT INTO bundle_configs (
			id, store_id, name, description, target_product_id, target_product_name,
			tiers, config_hash, status, start_date, expiry_date, offers_count,
			total_views, total_clicks, total_conversions, total_revenue,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	_, err = r.pool.Exec(ctx, query,
		b.ID,
		b.StoreID,
		b.Name,
		b.Description,
		b.TargetProductID,
		b.TargetProductName,
		tiersJSON,
		b.ConfigHash,
		b.Status,
		b.StartDate,
		b.ExpiryDate,
		b.OffersCount,
		b.TotalViews,
		b.TotalClicks,
		b.TotalConversions,
		b.TotalRevenue,
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("bundle", "id", b.ID)
		}
		return fmt.Errorf("insert bundle: %w", err)
	}

	return nil
}

// GetByID retrieves a bundle configuration by its ID.
func (r *BundleRepository) GetByID(ctx context.Context, id string) (*domain.BundleConfig, error) {
	query := `
		SELECT ` + bundleColumns + `
		FROM bundle_configs
		WHERE id = $1`

	return r.scanBundle(ctx, query, id)
}

// GetOpenByHash finds a draft or active bundle with the given config hash.
func (r *BundleRepository) GetOpenByHash(ctx context.Context, storeID, hash string) (*domain.BundleConfig, error) {
	query := `
		SELECT ` + bundleColumns + `
		FROM bundle_configs
		WHERE store_id = $1 AND config_hash = $2 AND status IN ('draft', 'active')
		ORDER BY created_at DESC
		LIMIT 1`

	return r.scanBundle(ctx, query, storeID, hash)
}

// List returns bundles matching the given filter with the total count.
func (r *BundleRepository) List(ctx context.Context, filter repository.BundleFilter) ([]domain.BundleConfig, int, error) {
	conditions := []string{"store_id = $1"}
	args := []any{filter.StoreID}
	argIndex := 2

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	}

	if filter.TargetProductID != nil {
		conditions = append(conditions, fmt.Sprintf("target_product_id = $%d", argIndex))
		args = append(args, *filter.TargetProductID)
		argIndex++
	}

	query := fmt.Sprintf(`
		SELECT `+bundleColumns+`,
			   count(*) OVER() AS total_count
		FROM bundle_configs
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		strings.Join(conditions, " AND "), argIndex, argIndex+1,
	)

	limit := filter.PerPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bundles: %w", err)
	}
	defer rows.Close()

	var (
		bundles    []domain.BundleConfig
		totalCount int
	)

	for rows.Next() {
		var (
			b         domain.BundleConfig
			tiersJSON []byte
		)

		if err := rows.Scan(
			&b.ID,
			&b.StoreID,
			&b.Name,
			&b.Description,
			&b.TargetProductID,
			&b.TargetProductName,
			&tiersJSON,
			&b.ConfigHash,
			&b.Status,
			&b.StartDate,
			&b.ExpiryDate,
			&b.OffersCount,
			&b.TotalViews,
			&b.TotalClicks,
			&b.TotalConversions,
			&b.TotalRevenue,
			&b.CreatedAt,
			&b.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan bundle row: %w", err)
		}

		if err := unmarshalTiers(tiersJSON, &b); err != nil {
			return nil, 0, err
		}

		bundles = append(bundles, b)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate bundle rows: %w", err)
	}

	if bundles == nil {
		bundles = []domain.BundleConfig{}
	}

	return bundles, totalCount, nil
}

// Update modifies an existing bundle configuration.
func (r *BundleRepository) Update(ctx context.Context, b *domain.BundleConfig) error {
	tiersJSON, err := json.Marshal(b.Tiers)
	if err != nil {
		return fmt.Errorf("marshal tiers: %w", err)
	}

	b.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE bundle_configs
		SET name = $1, description = $2, target_product_id = $3, target_product_name = $4,
		    tiers = $5, config_hash = $6, status = $7, start_date = $8, expiry_date = $9,
		    offers_count = $10, updated_at = $11
		WHERE id = $12`

	ct, err := r.pool.Exec(ctx, query,
		b.Name,
		b.Description,
		b.TargetProductID,
		b.TargetProductName,
		tiersJSON,
		b.ConfigHash,
		b.Status,
		b.StartDate,
		b.ExpiryDate,
		b.OffersCount,
		b.UpdatedAt,
		b.ID,
	)
	if err != nil {
		return fmt.Errorf("update bundle: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("bundle", b.ID)
	}

	return nil
}

// UpdateStatus transitions a bundle's status and records the live offer count.
func (r *BundleRepository) UpdateStatus(ctx context.Context, id, status string, offersCount int) error {
	query := `
		UPDATE bundle_configs
		SET status = $1, offers_count = $2, updated_at = NOW()
		WHERE id = $3`

	ct, err := r.pool.Exec(ctx, query, status, offersCount, id)
	if err != nil {
		return fmt.Errorf("update bundle status: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("bundle", id)
	}

	return nil
}

// Delete removes a bundle configuration. Offer mirrors cascade via FK.
func (r *BundleRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM bundle_configs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete bundle: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("bundle", id)
	}

	return nil
}

// CountOpenByStore counts draft and active bundles for the store. Used for
// plan quota enforcement.
func (r *BundleRepository) CountOpenByStore(ctx context.Context, storeID string) (int, error) {
	query := `
		SELECT count(*)
		FROM bundle_configs
		WHERE store_id = $1 AND status IN ('draft', 'active')`

	var count int
	if err := r.pool.QueryRow(ctx, query, storeID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count open bundles: %w", err)
	}

	return count, nil
}

// ListExpired returns draft, active, and inactive bundles whose expiry date
// has passed. Drafts expire too so they stop counting against the plan quota.
func (r *BundleRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]domain.BundleConfig, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT ` + bundleColumns + `
		FROM bundle_configs
		WHERE status IN ('draft', 'active', 'inactive') AND expiry_date IS NOT NULL AND expiry_date < $1
		ORDER BY expiry_date ASC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list expired bundles: %w", err)
	}
	defer rows.Close()

	var bundles []domain.BundleConfig
	for rows.Next() {
		var (
			b         domain.BundleConfig
			tiersJSON []byte
		)

		if err := rows.Scan(
			&b.ID,
			&b.StoreID,
			&b.Name,
			&b.Description,
			&b.TargetProductID,
			&b.TargetProductName,
			&tiersJSON,
			&b.ConfigHash,
			&b.Status,
			&b.StartDate,
			&b.ExpiryDate,
			&b.OffersCount,
			&b.TotalViews,
			&b.TotalClicks,
			&b.TotalConversions,
			&b.TotalRevenue,
			&b.CreatedAt,
			&b.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan expired bundle row: %w", err)
		}

		if err := unmarshalTiers(tiersJSON, &b); err != nil {
			return nil, err
		}

		bundles = append(bundles, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expired bundle rows: %w", err)
	}

	return bundles, nil
}

// IncrementCounters atomically adds analytics deltas to the bundle row.
func (r *BundleRepository) IncrementCounters(ctx context.Context, id string, d repository.CounterDeltas) error {
	query := `
		UPDATE bundle_configs
		SET total_views = total_views + $1,
		    total_clicks = total_clicks + $2,
		    total_conversions = total_conversions + $3,
		    total_revenue = total_revenue + $4,
		    updated_at = NOW()
		WHERE id = $5`

	ct, err := r.pool.Exec(ctx, query, d.Views, d.Clicks, d.Conversions, d.Revenue, id)
	if err != nil {
		return fmt.Errorf("increment bundle counters: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("bundle", id)
	}

	return nil
}

// scanBundle executes a query expected to return a single bundle row.
func (r *BundleRepository) scanBundle(ctx context.Context, query string, args ...any) (*domain.BundleConfig, error) {
	var (
		b         domain.BundleConfig
		tiersJSON []byte
	)

	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&b.ID,
		&b.StoreID,
		&b.Name,
		&b.Description,
		&b.TargetProductID,
		&b.TargetProductName,
		&tiersJSON,
		&b.ConfigHash,
		&b.Status,
		&b.StartDate,
		&b.ExpiryDate,
		&b.OffersCount,
		&b.TotalViews,
		&b.TotalClicks,
		&b.TotalConversions,
		&b.TotalRevenue,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan bundle: %w", err)
	}

	if err := unmarshalTiers(tiersJSON, &b); err != nil {
		return nil, err
	}

	return &b, nil
}

func unmarshalTiers(data []byte, b *domain.BundleConfig) error {
	if data != nil {
		if err := json.Unmarshal(data, &b.Tiers); err != nil {
			return fmt.Errorf("unmarshal tiers: %w", err)
		}
	}
	if b.Tiers == nil {
		b.Tiers = []domain.Tier{}
	}
	return nil
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
