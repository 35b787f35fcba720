package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/7azemaamer/salla-adv-bundler-sub000/internal/domain"
	"github.com/7azemaamer/salla-adv-bundler-sub000/internal/repository"
	apperrors "github.com/7azemaamer/salla-adv-bundler-sub000/pkg/errors"
	"github.com/7azemaamer/salla-adv-bundler-sub000/pkg/logger"
)

func newTestAnalytics(t *testing.T) (*AnalyticsService, *mockBundleRepo) {
	t.Helper()
	bundles := new(mockBundleRepo)
	return NewAnalyticsService(bundles, nil, logger.New("test", "error")), bundles
}

func TestAnalytics_TrackView(t *testing.T) {
	svc, bundles := newTestAnalytics(t)

	bundles.On("IncrementCounters", mock.Anything, "bundle-001", repository.CounterDeltas{Views: 1}).
		Return(nil)

	err := svc.Track(context.Background(), "bundle-001", MetricView, 0)
	assert.NoError(t, err)
	bundles.AssertExpectations(t)
}

func TestAnalytics_TrackConversionWithRevenue(t *testing.T) {
	svc, bundles := newTestAnalytics(t)

	bundles.On("IncrementCounters", mock.Anything, "bundle-001",
		repository.CounterDeltas{Conversions: 1, Revenue: 19900}).Return(nil)

	err := svc.Track(context.Background(), "bundle-001", MetricConversion, 19900)
	assert.NoError(t, err)
	bundles.AssertExpectations(t)
}

func TestAnalytics_UnknownMetric(t *testing.T) {
	svc, bundles := newTestAnalytics(t)

	err := svc.Track(context.Background(), "bundle-001", "likes", 0)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	bundles.AssertNotCalled(t, "IncrementCounters", mock.Anything, mock.Anything, mock.Anything)
}

func TestAnalytics_StatsFallsBackToRow(t *testing.T) {
	svc, bundles := newTestAnalytics(t)

	bundles.On("GetByID", mock.Anything, "bundle-001").Return(&domain.BundleConfig{
		ID:          "bundle-001",
		TotalViews:  10,
		TotalClicks: 4,
	}, nil)

	d, err := svc.Stats(context.Background(), "bundle-001")
	require.NoError(t, err)
	assert.Equal(t, int64(10), d.Views)
	assert.Equal(t, int64(4), d.Clicks)
}
