package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/7azemaamer/salla-adv-bundler-sub000/internal/domain"
	"github.com/7azemaamer/salla-adv-bundler-sub000/internal/salla"
	apperrors "github.com/7azemaamer/salla-adv-bundler-sub000/pkg/errors"
	"github.com/7azemaamer/salla-adv-bundler-sub000/pkg/httpclient"
	"github.com/7azemaamer/salla-adv-bundler-sub000/pkg/logger"
)

type mockStoreRepo struct {
	mock.Mock
}

func (m *mockStoreRepo) GetByID(ctx context.Context, id string) (*domain.Store, error) {
	args := m.Called(ctx, id)
	if s, ok := args.Get(0).(*domain.Store); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStoreRepo) UpdateTokens(ctx context.Context, id, accessToken, refreshToken string, expiresAt time.Time) error {
	return m.Called(ctx, id, accessToken, refreshToken, expiresAt).Error(0)
}

func (m *mockStoreRepo) SetStatus(ctx context.Context, id, status string) error {
	return m.Called(ctx, id, status).Error(0)
}

func newTestAdapter(t *testing.T, srv *httptest.Server) *Adapter {
	t.Helper()

	repo := new(mockStoreRepo)
	repo.On("GetByID", mock.Anything, "store-001").Return(&domain.Store{
		ID:             "store-001",
		Status:         domain.StoreStatusActive,
		AccessToken:    "token",
		TokenExpiresAt: time.Now().Add(time.Hour),
	}, nil)

	hc := httpclient.New(httpclient.DefaultConfig())
	tokens := salla.NewTokenSource(salla.TokenSourceConfig{}, repo, hc, logger.New("test", "error"))
	return NewAdapter(Config{BaseURL: srv.URL}, hc, tokens, logger.New("test", "error"))
}

func TestAdapter_GetProduct_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/prod-100", r.URL.Path)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"status":200,"success":true,"data":{"id":100,"name":"Classic Tee","price":{"amount":99.5,"currency":"SAR"},"main_image":"https://cdn/x.png","sku":"TEE-01"}}`))
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv)

	snap, err := a.GetProduct(context.Background(), "store-001", "prod-100")
	require.NoError(t, err)
	assert.Equal(t, "100", snap.ID)
	assert.Equal(t, "Classic Tee", snap.Name)
	assert.InDelta(t, 99.5, snap.Price, 0.001)
	assert.Equal(t, "SAR", snap.Currency)
}

func TestAdapter_GetProduct_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status":404,"success":false}`))
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv)

	_, err := a.GetProduct(context.Background(), "store-001", "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAdapter_GetProducts_PartialFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/products/missing" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"status":404,"success":false}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":200,"success":true,"data":{"id":100,"name":"OK","price":{"amount":10,"currency":"SAR"}}}`))
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv)

	snapshots, failed := a.GetProducts(context.Background(), "store-001", []string{"prod-100", "missing"})
	assert.Len(t, snapshots, 1)
	require.Len(t, failed, 1)
	assert.Equal(t, "missing", failed[0].ProductID)
}
