package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/7azemaamer/salla-adv-bundler-sub000/internal/domain"
	"github.com/7azemaamer/salla-adv-bundler-sub000/internal/repository"
	"github.com/7azemaamer/salla-adv-bundler-sub000/pkg/database"
	apperrors "github.com/7azemaamer/salla-adv-bundler-sub000/pkg/errors"
)

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func setupBundleRepo(t *testing.T) (*BundleRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	repo := NewBundleRepository(mock)
	return repo, mock
}

func sampleBundle() *domain.BundleConfig {
	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	expiry := now.Add(30 * 24 * time.Hour)
	return &domain.BundleConfig{
		ID:                "bundle-001",
		StoreID:           "store-001",
		Name:              "Buy 2 Get 1",
		Description:       "Summer clearance",
		TargetProductID:   "prod-100",
		TargetProductName: "Classic Tee",
		Tiers: []domain.Tier{
			{
				Tier:        1,
				BuyQuantity: 2,
				IsDefault:   true,
				Offers: []domain.Offer{
					{ProductID: "gift-a", Quantity: 1, DiscountType: domain.DiscountTypeFree},
				},
			},
		},
		ConfigHash:  "abc123",
		Status:      domain.BundleStatusDraft,
		StartDate:   now,
		ExpiryDate:  &expiry,
		OffersCount: 0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func bundleColumnNames() []string {
	return []string{
		"id", "store_id", "name", "description", "target_product_id", "target_product_name",
		"tiers", "config_hash", "status", "start_date", "expiry_date", "offers_count",
		"total_views", "total_clicks", "total_conversions", "total_revenue",
		"created_at", "updated_at",
	}
}

func bundleRow(b *domain.BundleConfig) *pgxmock.Rows {
	tiersJSON, _ := json.Marshal(b.Tiers)
	return pgxmock.NewRows(bundleColumnNames()).
		AddRow(
			b.ID, b.StoreID, b.Name, b.Description, b.TargetProductID, b.TargetProductName,
			tiersJSON, b.ConfigHash, b.Status, b.StartDate, b.ExpiryDate, b.OffersCount,
			b.TotalViews, b.TotalClicks, b.TotalConversions, b.TotalRevenue,
			b.CreatedAt, b.UpdatedAt,
		)
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestBundleRepository_Create_Success(t *testing.T) {
	repo, mock := setupBundleRepo(t)
	defer mock.Close()

	b := sampleBundle()
	tiersJSON, _ := json.Marshal(b.Tiers)

	mock.ExpectExec("INSERT INTO bundle_configs").
		WithArgs(
			b.ID, b.StoreID, b.Name, b.Description, b.TargetProductID, b.TargetProductName,
			tiersJSON, b.ConfigHash, b.Status, b.StartDate, b.ExpiryDate, b.OffersCount,
			b.TotalViews, b.TotalClicks, b.TotalConversions, b.TotalRevenue,
			b.CreatedAt, b.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), b)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBundleRepository_Create_UniqueViolation(t *testing.T) {
	repo, mock := setupBundleRepo(t)
	defer mock.Close()

	b := sampleBundle()
	tiersJSON, _ := json.Marshal(b.Tiers)

	mock.ExpectExec("INSERT INTO bundle_configs").
		WithArgs(
			b.ID, b.StoreID, b.Name, b.Description, b.TargetProductID, b.TargetProductName,
			tiersJSON, b.ConfigHash, b.Status, b.StartDate, b.ExpiryDate, b.OffersCount,
			b.TotalViews, b.TotalClicks, b.TotalConversions, b.TotalRevenue,
			b.CreatedAt, b.UpdatedAt,
		).
		WillReturnError(errors.New("ERROR: duplicate key value violates unique constraint (SQLSTATE 23505)"))

	err := repo.Create(context.Background(), b)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// GetByID / GetOpenByHash
// ---------------------------------------------------------------------------

func TestBundleRepository_GetByID_Success(t *testing.T) {
	repo, mock := setupBundleRepo(t)
	defer mock.Close()

	b := sampleBundle()
	mock.ExpectQuery("SELECT (.+) FROM bundle_configs WHERE id").
		WithArgs(b.ID).
		WillReturnRows(bundleRow(b))

	got, err := repo.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
	assert.Equal(t, b.StoreID, got.StoreID)
	assert.Len(t, got.Tiers, 1)
	assert.Equal(t, "gift-a", got.Tiers[0].Offers[0].ProductID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBundleRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := setupBundleRepo(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM bundle_configs WHERE id").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(bundleColumnNames()))

	got, err := repo.GetByID(context.Background(), "missing")
	assert.Nil(t, got)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBundleRepository_GetOpenByHash_Success(t *testing.T) {
	repo, mock := setupBundleRepo(t)
	defer mock.Close()

	b := sampleBundle()
	mock.ExpectQuery("SELECT (.+) FROM bundle_configs").
		WithArgs(b.StoreID, b.ConfigHash).
		WillReturnRows(bundleRow(b))

	got, err := repo.GetOpenByHash(context.Background(), b.StoreID, b.ConfigHash)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBundleRepository_GetOpenByHash_NotFound(t *testing.T) {
	repo, mock := setupBundleRepo(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM bundle_configs").
		WithArgs("store-001", "nope").
		WillReturnRows(pgxmock.NewRows(bundleColumnNames()))

	_, err := repo.GetOpenByHash(context.Background(), "store-001", "nope")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// List
// ---------------------------------------------------------------------------

func TestBundleRepository_List_WithStatusFilter(t *testing.T) {
	repo, mock := setupBundleRepo(t)
	defer mock.Close()

	b := sampleBundle()
	tiersJSON, _ := json.Marshal(b.Tiers)
	rows := pgxmock.NewRows(append(bundleColumnNames(), "total_count")).
		AddRow(
			b.ID, b.StoreID, b.Name, b.Description, b.TargetProductID, b.TargetProductName,
			tiersJSON, b.ConfigHash, b.Status, b.StartDate, b.ExpiryDate, b.OffersCount,
			b.TotalViews, b.TotalClicks, b.TotalConversions, b.TotalRevenue,
			b.CreatedAt, b.UpdatedAt, 7,
		)

	status := domain.BundleStatusDraft
	mock.ExpectQuery("SELECT (.+) FROM bundle_configs").
		WithArgs(b.StoreID, status, 20, 0).
		WillReturnRows(rows)

	bundles, total, err := repo.List(context.Background(), repository.BundleFilter{
		StoreID: b.StoreID,
		Status:  &status,
	})
	require.NoError(t, err)
	assert.Len(t, bundles, 1)
	assert.Equal(t, 7, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBundleRepository_List_Empty(t *testing.T) {
	repo, mock := setupBundleRepo(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM bundle_configs").
		WithArgs("store-001", 20, 0).
		WillReturnRows(pgxmock.NewRows(append(bundleColumnNames(), "total_count")))

	bundles, total, err := repo.List(context.Background(), repository.BundleFilter{StoreID: "store-001"})
	require.NoError(t, err)
	assert.NotNil(t, bundles)
	assert.Empty(t, bundles)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// UpdateStatus / Delete / counters
// ---------------------------------------------------------------------------

func TestBundleRepository_UpdateStatus_Success(t *testing.T) {
	repo, mock := setupBundleRepo(t)
	defer mock.Close()

	mock.ExpectExec("UPDATE bundle_configs").
		WithArgs(domain.BundleStatusActive, 3, "bundle-001").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.UpdateStatus(context.Background(), "bundle-001", domain.BundleStatusActive, 3)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBundleRepository_UpdateStatus_NotFound(t *testing.T) {
	repo, mock := setupBundleRepo(t)
	defer mock.Close()

	mock.ExpectExec("UPDATE bundle_configs").
		WithArgs(domain.BundleStatusActive, 0, "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.UpdateStatus(context.Background(), "missing", domain.BundleStatusActive, 0)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBundleRepository_Delete_Success(t *testing.T) {
	repo, mock := setupBundleRepo(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM bundle_configs").
		WithArgs("bundle-001").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := repo.Delete(context.Background(), "bundle-001")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBundleRepository_Delete_NotFound(t *testing.T) {
	repo, mock := setupBundleRepo(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM bundle_configs").
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBundleRepository_CountOpenByStore(t *testing.T) {
	repo, mock := setupBundleRepo(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT count").
		WithArgs("store-001").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountOpenByStore(context.Background(), "store-001")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBundleRepository_ListExpired(t *testing.T) {
	repo, mock := setupBundleRepo(t)
	defer mock.Close()

	b := sampleBundle()
	b.Status = domain.BundleStatusActive
	now := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)

	// drafts and inactive bundles expire too, not just active ones
	mock.ExpectQuery(`SELECT (.+) FROM bundle_configs\s+WHERE status IN \('draft', 'active', 'inactive'\)`).
		WithArgs(now, 100).
		WillReturnRows(bundleRow(b))

	bundles, err := repo.ListExpired(context.Background(), now, 0)
	require.NoError(t, err)
	assert.Len(t, bundles, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBundleRepository_IncrementCounters(t *testing.T) {
	repo, mock := setupBundleRepo(t)
	defer mock.Close()

	mock.ExpectExec("UPDATE bundle_configs").
		WithArgs(int64(5), int64(2), int64(1), int64(9900), "bundle-001").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.IncrementCounters(context.Background(), "bundle-001", repository.CounterDeltas{
		Views: 5, Clicks: 2, Conversions: 1, Revenue: 9900,
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
