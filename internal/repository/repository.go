package repository

import (
	"context"
	"time"

	"github.com/7azemaamer/salla-adv-bundler-sub000/internal/domain"
)

// BundleFilter narrows List results.
type BundleFilter struct {
	StoreID         string
	Status          *string
	TargetProductID *string
	Page            int
	PerPage         int
}

// CounterDeltas carries analytics increments flushed to the bundle row.
type CounterDeltas struct {
	Views       int64
	Clicks      int64
	Conversions int64
	Revenue     int64
}

// BundleRepository provides access to bundle configurations.
type BundleRepository interface {
	Create(ctx context.Context, b *domain.BundleConfig) error
	GetByID(ctx context.Context, id string) (*domain.BundleConfig, error)
	// GetOpenByHash finds a draft or active bundle with the given config hash
	// for the store. Returns apperrors.ErrNotFound when none exists.
	GetOpenByHash(ctx context.Context, storeID, hash string) (*domain.BundleConfig, error)
	List(ctx context.Context, filter BundleFilter) ([]domain.BundleConfig, int, error)
	Update(ctx context.Context, b *domain.BundleConfig) error
	UpdateStatus(ctx context.Context, id, status string, offersCount int) error
	Delete(ctx context.Context, id string) error
	CountOpenByStore(ctx context.Context, storeID string) (int, error)
	// ListExpired returns draft, active, and inactive bundles whose expiry
	// date is before now.
	ListExpired(ctx context.Context, now time.Time, limit int) ([]domain.BundleConfig, error)
	IncrementCounters(ctx context.Context, id string, d CounterDeltas) error
}

// OfferRepository provides access to local mirrors of remote special offers.
type OfferRepository interface {
	Create(ctx context.Context, o *domain.BundleOffer) error
	ListByBundle(ctx context.Context, bundleID string) ([]domain.BundleOffer, error)
	DeleteByBundle(ctx context.Context, bundleID string) (int, error)
}

// StoreRepository provides access to installed merchant stores.
type StoreRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Store, error)
	UpdateTokens(ctx context.Context, id, accessToken, refreshToken string, expiresAt time.Time) error
	SetStatus(ctx context.Context, id, status string) error
}
