package postgres

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/7azemaamer/salla-adv-bundler-sub000/internal/domain"
	"github.com/7azemaamer/salla-adv-bundler-sub000/pkg/database"
	apperrors "github.com/7azemaamer/salla-adv-bundler-sub000/pkg/errors"
)

func setupStoreRepo(t *testing.T) (*StoreRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	return NewStoreRepository(mock), mock
}

func TestStoreRepository_GetByID_Success(t *testing.T) {
	repo, mock := setupStoreRepo(t)
	defer mock.Close()

	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{
		"id", "merchant_id", "name", "plan", "status", "access_token",
		"refresh_token", "token_expires_at", "created_at", "updated_at",
	}).AddRow(
		"store-001", int64(123456), "Demo Store", domain.PlanPro, domain.StoreStatusActive,
		"at-secret", "rt-secret", now.Add(time.Hour), now, now,
	)

	mock.ExpectQuery("SELECT (.+) FROM stores").
		WithArgs("store-001").
		WillReturnRows(rows)

	s, err := repo.GetByID(context.Background(), "store-001")
	require.NoError(t, err)
	assert.Equal(t, domain.PlanPro, s.Plan)
	assert.Equal(t, "at-secret", s.AccessToken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := setupStoreRepo(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM stores").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "merchant_id", "name", "plan", "status", "access_token",
			"refresh_token", "token_expires_at", "created_at", "updated_at",
		}))

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreRepository_UpdateTokens_Success(t *testing.T) {
	repo, mock := setupStoreRepo(t)
	defer mock.Close()

	expiresAt := time.Date(2025, 7, 1, 14, 0, 0, 0, time.UTC)
	mock.ExpectExec("UPDATE stores").
		WithArgs("new-at", "new-rt", expiresAt, "store-001").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.UpdateTokens(context.Background(), "store-001", "new-at", "new-rt", expiresAt)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreRepository_SetStatus_NotFound(t *testing.T) {
	repo, mock := setupStoreRepo(t)
	defer mock.Close()

	mock.ExpectExec("UPDATE stores").
		WithArgs(domain.StoreStatusReauthRequired, "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.SetStatus(context.Background(), "missing", domain.StoreStatusReauthRequired)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
