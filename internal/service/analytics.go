package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/7azemaamer/salla-adv-bundler-sub000/internal/repository"
	apperrors "github.com/7azemaamer/salla-adv-bundler-sub000/pkg/errors"
)

// Tracked metric names.
const (
	MetricView       = "view"
	MetricClick      = "click"
	MetricConversion = "conversion"
)

func statsKey(bundleID string) string {
	return "bundle:stats:" + bundleID
}

// AnalyticsService records engagement counters for bundles. The database row
// is the source of truth; Redis keeps a hot copy for dashboard reads and its
// failures never fail the tracking call.
type AnalyticsService struct {
	bundles repository.BundleRepository
	redis   *redis.Client
	logger  *slog.Logger
}

// NewAnalyticsService creates an analytics service.
func NewAnalyticsService(bundles repository.BundleRepository, redisClient *redis.Client, logger *slog.Logger) *AnalyticsService {
	return &AnalyticsService{bundles: bundles, redis: redisClient, logger: logger}
}

// Track increments one metric for a bundle. Revenue (minor units) is only
// meaningful for conversions and ignored otherwise.
func (s *AnalyticsService) Track(ctx context.Context, bundleID, metric string, revenue int64) error {
	var deltas repository.CounterDeltas
	switch metric {
	case MetricView:
		deltas.Views = 1
	case MetricClick:
		deltas.Clicks = 1
	case MetricConversion:
		deltas.Conversions = 1
		if revenue > 0 {
			deltas.Revenue = revenue
		}
	default:
		return apperrors.InvalidInput(fmt.Sprintf("unknown metric %q", metric))
	}

	if err := s.bundles.IncrementCounters(ctx, bundleID, deltas); err != nil {
		return err
	}

	s.mirrorToRedis(ctx, bundleID, metric, deltas)

	return nil
}

func (s *AnalyticsService) mirrorToRedis(ctx context.Context, bundleID, metric string, d repository.CounterDeltas) {
	if s.redis == nil {
		return
	}

	key := statsKey(bundleID)
	pipe := s.redis.Pipeline()
	switch metric {
	case MetricView:
		pipe.HIncrBy(ctx, key, "views", d.Views)
	case MetricClick:
		pipe.HIncrBy(ctx, key, "clicks", d.Clicks)
	case MetricConversion:
		pipe.HIncrBy(ctx, key, "conversions", d.Conversions)
		if d.Revenue > 0 {
			pipe.HIncrBy(ctx, key, "revenue", d.Revenue)
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Warn("redis stats mirror failed",
			slog.String("bundle_id", bundleID),
			slog.String("metric", metric),
			slog.String("error", err.Error()),
		)
	}
}

// Stats returns the hot counters for a bundle from Redis, falling back to
// the database row when the hash is missing.
func (s *AnalyticsService) Stats(ctx context.Context, bundleID string) (repository.CounterDeltas, error) {
	if s.redis != nil {
		vals, err := s.redis.HGetAll(ctx, statsKey(bundleID)).Result()
		if err == nil && len(vals) > 0 {
			var d repository.CounterDeltas
			fmt.Sscanf(vals["views"], "%d", &d.Views)
			fmt.Sscanf(vals["clicks"], "%d", &d.Clicks)
			fmt.Sscanf(vals["conversions"], "%d", &d.Conversions)
			fmt.Sscanf(vals["revenue"], "%d", &d.Revenue)
			return d, nil
		}
	}

	b, err := s.bundles.GetByID(ctx, bundleID)
	if err != nil {
		return repository.CounterDeltas{}, err
	}
	return repository.CounterDeltas{
		Views:       b.TotalViews,
		Clicks:      b.TotalClicks,
		Conversions: b.TotalConversions,
		Revenue:     b.TotalRevenue,
	}, nil
}
