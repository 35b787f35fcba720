package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/7azemaamer/salla-adv-bundler-sub000/internal/catalog"
	"github.com/7azemaamer/salla-adv-bundler-sub000/internal/domain"
	"github.com/7azemaamer/salla-adv-bundler-sub000/internal/repository"
	"github.com/7azemaamer/salla-adv-bundler-sub000/internal/salla"
	apperrors "github.com/7azemaamer/salla-adv-bundler-sub000/pkg/errors"
	"github.com/7azemaamer/salla-adv-bundler-sub000/pkg/slug"
)

// sweepLockKey guards the expiry sweep so only one instance runs it.
const (
	sweepLockKey = "bundle:sweep:lock"
	sweepLockTTL = 4 * time.Minute
	sweepBatch   = 100
)

// OfferGateway is the remote special-offer surface the lifecycle manager
// drives. Implemented by salla.Client.
type OfferGateway interface {
	CreateOffer(ctx context.Context, storeID string, payload *salla.OfferPayload) (*salla.RemoteOffer, []byte, error)
	SetOfferStatus(ctx context.Context, storeID string, remoteID int64, status string) error
	DeleteOffer(ctx context.Context, storeID string, remoteID int64) error
}

// CatalogAdapter resolves product snapshots. Implemented by catalog.Adapter.
type CatalogAdapter interface {
	GetProducts(ctx context.Context, storeID string, productIDs []string) (map[string]*catalog.ProductSnapshot, []catalog.FailedLookup)
}

// EventPublisher publishes bundle lifecycle events. Implemented by
// event.Producer.
type EventPublisher interface {
	PublishBundleCreated(ctx context.Context, b *domain.BundleConfig) error
	PublishBundleActivated(ctx context.Context, b *domain.BundleConfig) error
	PublishBundleDeactivated(ctx context.Context, b *domain.BundleConfig) error
	PublishBundleDeleted(ctx context.Context, b *domain.BundleConfig) error
	PublishBundleExpired(ctx context.Context, b *domain.BundleConfig) error
}

// BundleService orchestrates the bundle lifecycle: creation with config-hash
// idempotency, per-tier remote offer realization, teardown, and the expiry
// sweep. Remote calls and the local database are not transactional with each
// other; every transition is written to favor a recoverable local state.
type BundleService struct {
	bundles      repository.BundleRepository
	offers       repository.OfferRepository
	stores       repository.StoreRepository
	gateway      OfferGateway
	catalog      CatalogAdapter
	consolidator *Consolidator
	producer     EventPublisher
	redis        *redis.Client
	logger       *slog.Logger

	// activating serializes activation attempts per bundle.
	activating sync.Map
}

// NewBundleService creates a bundle lifecycle service.
func NewBundleService(
	bundles repository.BundleRepository,
	offers repository.OfferRepository,
	stores repository.StoreRepository,
	gateway OfferGateway,
	catalogAdapter CatalogAdapter,
	consolidator *Consolidator,
	producer EventPublisher,
	redisClient *redis.Client,
	logger *slog.Logger,
) *BundleService {
	return &BundleService{
		bundles:      bundles,
		offers:       offers,
		stores:       stores,
		gateway:      gateway,
		catalog:      catalogAdapter,
		consolidator: consolidator,
		producer:     producer,
		redis:        redisClient,
		logger:       logger,
	}
}

// CreateBundleInput holds the parameters for creating a bundle.
type CreateBundleInput struct {
	StoreID         string
	Name            string
	Description     string
	TargetProductID string
	Tiers           []domain.Tier
	StartDate       time.Time
	ExpiryDate      *time.Time
}

// UpdateBundleInput holds the whitelisted updatable fields. The target
// product is deliberately absent; changing it means creating a new bundle.
type UpdateBundleInput struct {
	Name        *string
	Description *string
	ExpiryDate  *time.Time
	ClearExpiry bool
	// Tiers, when non-nil, replaces the bundle's tier structure wholesale.
	// This is a commercial change: the config hash is recomputed and the
	// caller must re-activate for remote offers to pick it up.
	Tiers []domain.Tier
	// TierStyling updates display fields on existing tiers, keyed by tier
	// number. It never changes the config hash.
	TierStyling map[int]TierStyling
}

// TierStyling carries display-only tier fields.
type TierStyling struct {
	Title string
	Color string
}

// TierError records why one tier failed to activate.
type TierError struct {
	Tier    int    `json:"tier"`
	Message string `json:"message"`
}

// ActivationResult reports a (possibly partial) activation outcome.
type ActivationResult struct {
	BundleID    string      `json:"bundle_id"`
	Status      string      `json:"status"`
	OffersCount int         `json:"offers_count"`
	Errors      []TierError `json:"errors,omitempty"`
}

// PreviewTier is the dry-run payload for one tier.
type PreviewTier struct {
	Consolidation TierConsolidation  `json:"consolidation"`
	Payload       *salla.OfferPayload `json:"payload"`
}

// CreateBundle validates, enriches, and persists a bundle as a draft. If an
// open bundle with the same commercial configuration already exists for the
// store, that bundle is returned instead and created is false.
func (s *BundleService) CreateBundle(ctx context.Context, input *CreateBundleInput) (*domain.BundleConfig, bool, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, false, err
	}

	store, err := s.stores.GetByID(ctx, input.StoreID)
	if err != nil {
		return nil, false, fmt.Errorf("load store: %w", err)
	}
	if store.Status != domain.StoreStatusActive {
		return nil, false, apperrors.Forbidden(
			fmt.Sprintf("store is %s, only active stores can create bundles", store.Status),
		).WithCode("STORE_NOT_ACTIVE")
	}

	openCount, err := s.bundles.CountOpenByStore(ctx, input.StoreID)
	if err != nil {
		return nil, false, fmt.Errorf("count open bundles: %w", err)
	}
	if store.QuotaExceeded(openCount) {
		return nil, false, apperrors.Forbidden(
			fmt.Sprintf("plan %q allows at most %d open bundles", store.Plan, store.BundleQuota()),
		).WithCode("PLAN_LIMIT_EXCEEDED")
	}

	now := time.Now().UTC()
	bundle := &domain.BundleConfig{
		ID:              uuid.New().String(),
		StoreID:         input.StoreID,
		Name:            input.Name,
		Description:     input.Description,
		TargetProductID: input.TargetProductID,
		Tiers:           input.Tiers,
		Status:          domain.BundleStatusDraft,
		StartDate:       input.StartDate,
		ExpiryDate:      input.ExpiryDate,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	bundle.ConfigHash = domain.ComputeConfigHash(bundle)

	existing, err := s.bundles.GetOpenByHash(ctx, input.StoreID, bundle.ConfigHash)
	if err == nil {
		s.logger.InfoContext(ctx, "identical open bundle exists, returning it",
			slog.String("store_id", input.StoreID),
			slog.String("bundle_id", existing.ID),
		)
		return existing, false, nil
	}
	if !isNotFound(err) {
		return nil, false, fmt.Errorf("check config hash: %w", err)
	}

	if err := s.enrich(ctx, bundle); err != nil {
		return nil, false, err
	}

	if err := s.bundles.Create(ctx, bundle); err != nil {
		return nil, false, err
	}

	if err := s.producer.PublishBundleCreated(ctx, bundle); err != nil {
		s.logger.ErrorContext(ctx, "publish bundle.created event",
			slog.String("bundle_id", bundle.ID),
			slog.String("error", err.Error()),
		)
	}

	return bundle, true, nil
}

// enrich resolves product snapshots for the target and every gift product.
// Any unresolvable product rejects the bundle.
func (s *BundleService) enrich(ctx context.Context, b *domain.BundleConfig) error {
	snapshots, failed := s.catalog.GetProducts(ctx, b.StoreID, b.ProductIDs())
	if len(failed) > 0 {
		ids := make([]string, 0, len(failed))
		for _, f := range failed {
			ids = append(ids, f.ProductID)
		}
		return apperrors.NotFound("product", strings.Join(ids, ", ")).WithCode("PRODUCT_NOT_FOUND")
	}

	if target, ok := snapshots[b.TargetProductID]; ok {
		b.TargetProductName = target.Name
	}

	for ti := range b.Tiers {
		for oi := range b.Tiers[ti].Offers {
			o := &b.Tiers[ti].Offers[oi]
			snap, ok := snapshots[o.ProductID]
			if !ok {
				continue
			}
			o.ProductName = snap.Name
			o.ProductPrice = snap.Price
			o.ProductImage = snap.Image
			o.Currency = snap.Currency
		}
	}

	return nil
}

// refreshZeroPrices re-resolves gift products whose snapshot price is zero or
// missing before consolidation, so a catalog hiccup at create time does not
// bake a bogus 100% discount into the remote offer. Lookup failures are
// logged and the stale snapshot is kept.
func (s *BundleService) refreshZeroPrices(ctx context.Context, b *domain.BundleConfig) {
	var stale []string
	for _, tier := range b.Tiers {
		for _, o := range tier.Offers {
			if o.ProductPrice == 0 {
				stale = append(stale, o.ProductID)
			}
		}
	}
	if len(stale) == 0 {
		return
	}

	snapshots, failed := s.catalog.GetProducts(ctx, b.StoreID, stale)
	for _, f := range failed {
		s.logger.WarnContext(ctx, "price refresh failed for gift product",
			slog.String("bundle_id", b.ID),
			slog.String("product_id", f.ProductID),
			slog.String("error", f.Reason),
		)
	}

	for ti := range b.Tiers {
		for oi := range b.Tiers[ti].Offers {
			o := &b.Tiers[ti].Offers[oi]
			snap, ok := snapshots[o.ProductID]
			if !ok || o.ProductPrice != 0 {
				continue
			}
			o.ProductName = snap.Name
			o.ProductPrice = snap.Price
			o.ProductImage = snap.Image
			o.Currency = snap.Currency
		}
	}
}

// GetBundle retrieves a bundle, lazily expiring it when its expiry date has
// passed.
func (s *BundleService) GetBundle(ctx context.Context, id string) (*domain.BundleConfig, error) {
	b, err := s.bundles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if b.ShouldExpire(time.Now().UTC()) {
		if err := s.expire(ctx, b); err != nil {
			s.logger.ErrorContext(ctx, "lazy expire failed",
				slog.String("bundle_id", b.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	return b, nil
}

// ListBundles returns bundles for a store.
func (s *BundleService) ListBundles(ctx context.Context, filter repository.BundleFilter) ([]domain.BundleConfig, int, error) {
	return s.bundles.List(ctx, filter)
}

// Activate realizes one remote special offer per tier. Partial success is
// allowed: tiers that fail are reported back and the bundle still activates
// as long as at least one tier succeeded. A fresh remote offer with a fresh
// name is created for every tier on every activation; prior mirrors are
// discarded first.
func (s *BundleService) Activate(ctx context.Context, bundleID string) (*ActivationResult, error) {
	if _, loaded := s.activating.LoadOrStore(bundleID, struct{}{}); loaded {
		return nil, apperrors.Conflict("activation already in progress").WithCode("ACTIVATION_IN_PROGRESS")
	}
	defer s.activating.Delete(bundleID)

	b, err := s.bundles.GetByID(ctx, bundleID)
	if err != nil {
		return nil, err
	}

	if b.Status == domain.BundleStatusActive {
		return nil, apperrors.Conflict("bundle is already active").WithCode("ALREADY_ACTIVE")
	}

	now := time.Now().UTC()
	if b.IsExpired(now) {
		return nil, apperrors.Conflict("bundle expiry date has passed")
	}

	// Discard mirrors from any previous activation. Remote offers they point
	// to are torn down best effort; ids are never reused.
	if err := s.teardownRemote(ctx, b); err != nil {
		return nil, err
	}

	s.refreshZeroPrices(ctx, b)

	namePrefix := slug.Generate(b.Name)
	if namePrefix == "" {
		namePrefix = "bundle"
	}

	result := &ActivationResult{BundleID: b.ID}

	for _, tier := range b.Tiers {
		offerName := fmt.Sprintf("%s-t%d-%s", namePrefix, tier.Tier, randomSuffix())
		payload := s.consolidator.BuildPayload(b, tier, offerName, now)

		remote, raw, err := s.gateway.CreateOffer(ctx, b.StoreID, payload)
		if err != nil {
			if isReauth(err) {
				return nil, apperrors.Unauthorized("merchant reauthorization required").WithCode("REAUTH_REQUIRED")
			}
			s.logger.WarnContext(ctx, "tier activation failed",
				slog.String("bundle_id", b.ID),
				slog.Int("tier", tier.Tier),
				slog.String("error", err.Error()),
			)
			result.Errors = append(result.Errors, TierError{Tier: tier.Tier, Message: remoteMessage(err)})
			continue
		}

		if err := s.gateway.SetOfferStatus(ctx, b.StoreID, remote.ID, salla.RemoteStatusActive); err != nil {
			s.logger.WarnContext(ctx, "tier offer created but activation failed, tearing down",
				slog.String("bundle_id", b.ID),
				slog.Int("tier", tier.Tier),
				slog.Int64("remote_offer_id", remote.ID),
				slog.String("error", err.Error()),
			)
			if delErr := s.gateway.DeleteOffer(ctx, b.StoreID, remote.ID); delErr != nil {
				s.logger.ErrorContext(ctx, "orphaned remote offer",
					slog.Int64("remote_offer_id", remote.ID),
					slog.String("error", delErr.Error()),
				)
			}
			result.Errors = append(result.Errors, TierError{Tier: tier.Tier, Message: remoteMessage(err)})
			continue
		}

		mirror := &domain.BundleOffer{
			ID:             uuid.New().String(),
			BundleID:       b.ID,
			StoreID:        b.StoreID,
			Tier:           tier.Tier,
			RemoteOfferID:  remote.ID,
			OfferName:      offerName,
			DiscountAmount: payload.Get.DiscountAmount,
			Status:         domain.OfferStatusActive,
			SyncStatus:     domain.SyncStatusSynced,
			RawResponse:    raw,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := s.offers.Create(ctx, mirror); err != nil {
			// The remote offer is live but the mirror write failed; keep the
			// remote side and surface the tier as failed so a re-activation
			// reconciles it.
			s.logger.ErrorContext(ctx, "persist offer mirror failed",
				slog.String("bundle_id", b.ID),
				slog.Int64("remote_offer_id", remote.ID),
				slog.String("error", err.Error()),
			)
			result.Errors = append(result.Errors, TierError{Tier: tier.Tier, Message: "failed to persist offer record"})
			continue
		}

		result.OffersCount++
	}

	if result.OffersCount == 0 {
		if err := s.bundles.UpdateStatus(ctx, b.ID, domain.BundleStatusInactive, 0); err != nil {
			s.logger.ErrorContext(ctx, "force bundle inactive after failed activation",
				slog.String("bundle_id", b.ID),
				slog.String("error", err.Error()),
			)
		}
		result.Status = domain.BundleStatusInactive
		return result, apperrors.ServiceUnavailable("no tier could be activated").WithCode("REMOTE_OFFER_ERROR")
	}

	if err := s.bundles.UpdateStatus(ctx, b.ID, domain.BundleStatusActive, result.OffersCount); err != nil {
		return nil, fmt.Errorf("mark bundle active: %w", err)
	}
	result.Status = domain.BundleStatusActive

	b.Status = domain.BundleStatusActive
	b.OffersCount = result.OffersCount
	if err := s.producer.PublishBundleActivated(ctx, b); err != nil {
		s.logger.ErrorContext(ctx, "publish bundle.activated event",
			slog.String("bundle_id", b.ID),
			slog.String("error", err.Error()),
		)
	}

	return result, nil
}

// Deactivate tears down the bundle's remote offers and flips it to inactive.
// Remote deletion failures are logged and skipped; local mirrors are always
// removed so a later activation starts clean.
func (s *BundleService) Deactivate(ctx context.Context, bundleID string) (*domain.BundleConfig, error) {
	b, err := s.bundles.GetByID(ctx, bundleID)
	if err != nil {
		return nil, err
	}

	if b.Status != domain.BundleStatusActive {
		return nil, apperrors.Conflict(fmt.Sprintf("cannot deactivate a %s bundle", b.Status))
	}

	if err := s.teardownRemote(ctx, b); err != nil {
		return nil, err
	}

	if err := s.bundles.UpdateStatus(ctx, b.ID, domain.BundleStatusInactive, 0); err != nil {
		return nil, err
	}
	b.Status = domain.BundleStatusInactive
	b.OffersCount = 0

	if err := s.producer.PublishBundleDeactivated(ctx, b); err != nil {
		s.logger.ErrorContext(ctx, "publish bundle.deactivated event",
			slog.String("bundle_id", b.ID),
			slog.String("error", err.Error()),
		)
	}

	return b, nil
}

// UpdateBundle applies whitelisted field changes. Display fields leave the
// config hash untouched; a tier replacement recomputes it. Remote offers are
// never touched here: after a commercial change the bundle keeps its current
// status and the merchant re-activates to push the new structure.
func (s *BundleService) UpdateBundle(ctx context.Context, bundleID string, input *UpdateBundleInput) (*domain.BundleConfig, error) {
	b, err := s.bundles.GetByID(ctx, bundleID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, apperrors.InvalidInput("bundle name must not be empty")
		}
		b.Name = *input.Name
	}
	if input.Description != nil {
		b.Description = *input.Description
	}
	if input.ClearExpiry {
		b.ExpiryDate = nil
	} else if input.ExpiryDate != nil {
		if !input.ExpiryDate.After(b.StartDate) {
			return nil, apperrors.InvalidInput("expiry date must be after start date")
		}
		b.ExpiryDate = input.ExpiryDate
	}
	if input.Tiers != nil {
		if err := validateTiers(input.Tiers); err != nil {
			return nil, err
		}
		b.Tiers = input.Tiers
		if err := s.enrich(ctx, b); err != nil {
			return nil, err
		}
		b.ConfigHash = domain.ComputeConfigHash(b)
	}
	for ti := range b.Tiers {
		styling, ok := input.TierStyling[b.Tiers[ti].Tier]
		if !ok {
			continue
		}
		if styling.Title != "" {
			b.Tiers[ti].Title = styling.Title
		}
		if styling.Color != "" {
			b.Tiers[ti].Color = styling.Color
		}
	}

	if err := s.bundles.Update(ctx, b); err != nil {
		return nil, err
	}

	return b, nil
}

// DeleteBundle tears down remote offers best effort and removes the bundle
// and its mirrors. Deletion is allowed from any state.
func (s *BundleService) DeleteBundle(ctx context.Context, bundleID string) error {
	b, err := s.bundles.GetByID(ctx, bundleID)
	if err != nil {
		return err
	}

	if err := s.teardownRemote(ctx, b); err != nil {
		return err
	}

	if err := s.bundles.Delete(ctx, b.ID); err != nil {
		return err
	}

	if err := s.producer.PublishBundleDeleted(ctx, b); err != nil {
		s.logger.ErrorContext(ctx, "publish bundle.deleted event",
			slog.String("bundle_id", b.ID),
			slog.String("error", err.Error()),
		)
	}

	return nil
}

// Preview builds the per-tier remote payloads without any remote calls.
func (s *BundleService) Preview(ctx context.Context, bundleID string) ([]PreviewTier, error) {
	b, err := s.bundles.GetByID(ctx, bundleID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	namePrefix := slug.Generate(b.Name)
	if namePrefix == "" {
		namePrefix = "bundle"
	}

	previews := make([]PreviewTier, 0, len(b.Tiers))
	for _, tier := range b.Tiers {
		offerName := fmt.Sprintf("%s-t%d-preview", namePrefix, tier.Tier)
		previews = append(previews, PreviewTier{
			Consolidation: s.consolidator.Consolidate(b.ID, tier),
			Payload:       s.consolidator.BuildPayload(b, tier, offerName, now),
		})
	}

	return previews, nil
}

// CleanupExpiredBundles flips open bundles past their expiry date to expired,
// tearing down remote offers where any exist. A Redis lock keeps concurrent
// instances from double sweeping; without Redis the sweep runs unguarded,
// which is safe because the expired transition is idempotent.
func (s *BundleService) CleanupExpiredBundles(ctx context.Context) (int, error) {
	if s.redis != nil {
		ok, err := s.redis.SetNX(ctx, sweepLockKey, "1", sweepLockTTL).Result()
		if err != nil {
			return 0, fmt.Errorf("acquire sweep lock: %w", err)
		}
		if !ok {
			s.logger.DebugContext(ctx, "expiry sweep already running elsewhere")
			return 0, nil
		}
		defer s.redis.Del(context.WithoutCancel(ctx), sweepLockKey)
	}

	expired, err := s.bundles.ListExpired(ctx, time.Now().UTC(), sweepBatch)
	if err != nil {
		return 0, fmt.Errorf("list expired bundles: %w", err)
	}

	swept := 0
	for i := range expired {
		b := expired[i]
		if err := s.expire(ctx, &b); err != nil {
			s.logger.ErrorContext(ctx, "expire bundle failed",
				slog.String("bundle_id", b.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		swept++
	}

	return swept, nil
}

// expire runs the deactivation path with the expired terminal status.
func (s *BundleService) expire(ctx context.Context, b *domain.BundleConfig) error {
	if err := s.teardownRemote(ctx, b); err != nil {
		return err
	}

	if err := s.bundles.UpdateStatus(ctx, b.ID, domain.BundleStatusExpired, 0); err != nil {
		return err
	}
	b.Status = domain.BundleStatusExpired
	b.OffersCount = 0

	if err := s.producer.PublishBundleExpired(ctx, b); err != nil {
		s.logger.ErrorContext(ctx, "publish bundle.expired event",
			slog.String("bundle_id", b.ID),
			slog.String("error", err.Error()),
		)
	}

	return nil
}

// teardownRemote deletes the bundle's remote offers best effort and always
// removes the local mirrors. A remote offer that cannot be deleted is logged
// as an orphan; it is never re-adopted.
func (s *BundleService) teardownRemote(ctx context.Context, b *domain.BundleConfig) error {
	mirrors, err := s.offers.ListByBundle(ctx, b.ID)
	if err != nil {
		return fmt.Errorf("list offer mirrors: %w", err)
	}

	for _, m := range mirrors {
		if err := s.gateway.DeleteOffer(ctx, b.StoreID, m.RemoteOfferID); err != nil {
			if isReauth(err) {
				return apperrors.Unauthorized("merchant reauthorization required").WithCode("REAUTH_REQUIRED")
			}
			s.logger.WarnContext(ctx, "remote offer delete failed, leaving orphan",
				slog.String("bundle_id", b.ID),
				slog.Int64("remote_offer_id", m.RemoteOfferID),
				slog.String("error", err.Error()),
			)
		}
	}

	if _, err := s.offers.DeleteByBundle(ctx, b.ID); err != nil {
		return fmt.Errorf("delete offer mirrors: %w", err)
	}

	return nil
}

func validateCreateInput(input *CreateBundleInput) error {
	if input.StoreID == "" {
		return apperrors.InvalidInput("store id is required")
	}
	if input.Name == "" {
		return apperrors.InvalidInput("bundle name is required")
	}
	if input.TargetProductID == "" {
		return apperrors.InvalidInput("target product id is required")
	}
	if input.ExpiryDate != nil && !input.ExpiryDate.After(input.StartDate) {
		return apperrors.InvalidInput("expiry date must be strictly after start date")
	}

	return validateTiers(input.Tiers)
}

func validateTiers(tiers []domain.Tier) error {
	if len(tiers) == 0 {
		return apperrors.InvalidInput("at least one tier is required")
	}
	if len(tiers) > domain.MaxTiers {
		return apperrors.InvalidInput(fmt.Sprintf("at most %d tiers are allowed", domain.MaxTiers))
	}

	seenTiers := make(map[int]struct{}, len(tiers))
	seenQty := make(map[int]struct{}, len(tiers))
	for _, tier := range tiers {
		if tier.Tier < 1 || tier.Tier > domain.MaxTiers {
			return apperrors.InvalidInput(fmt.Sprintf("tier number must be 1..%d", domain.MaxTiers))
		}
		if _, dup := seenTiers[tier.Tier]; dup {
			return apperrors.InvalidInput(fmt.Sprintf("duplicate tier number %d", tier.Tier))
		}
		seenTiers[tier.Tier] = struct{}{}

		if tier.BuyQuantity < 1 || tier.BuyQuantity > domain.MaxBuyQuantity {
			return apperrors.InvalidInput(fmt.Sprintf("tier %d: buy quantity must be 1..%d", tier.Tier, domain.MaxBuyQuantity))
		}
		if _, dup := seenQty[tier.BuyQuantity]; dup {
			return apperrors.InvalidInput(fmt.Sprintf("duplicate buy quantity %d across tiers", tier.BuyQuantity))
		}
		seenQty[tier.BuyQuantity] = struct{}{}

		if len(tier.Offers) == 0 {
			return apperrors.InvalidInput(fmt.Sprintf("tier %d has no offers", tier.Tier))
		}
		if len(tier.Offers) > domain.MaxOffersPerTier {
			return apperrors.InvalidInput(fmt.Sprintf("tier %d: at most %d offers per tier", tier.Tier, domain.MaxOffersPerTier))
		}

		for _, o := range tier.Offers {
			if o.ProductID == "" {
				return apperrors.InvalidInput(fmt.Sprintf("tier %d: offer product id is required", tier.Tier))
			}
			if o.Quantity < 1 || o.Quantity > domain.MaxOfferQuantity {
				return apperrors.InvalidInput(fmt.Sprintf("tier %d: offer quantity must be 1..%d", tier.Tier, domain.MaxOfferQuantity))
			}
			if !domain.IsValidDiscountType(o.DiscountType) {
				return apperrors.InvalidInput(fmt.Sprintf("tier %d: invalid discount type %q", tier.Tier, o.DiscountType))
			}
			switch o.DiscountType {
			case domain.DiscountTypePercentage:
				if o.DiscountAmount <= 0 || o.DiscountAmount > 100 {
					return apperrors.InvalidInput(fmt.Sprintf("tier %d: percentage must be in (0,100]", tier.Tier))
				}
			case domain.DiscountTypeFixedAmount:
				if o.DiscountAmount <= 0 {
					return apperrors.InvalidInput(fmt.Sprintf("tier %d: fixed amount must be positive", tier.Tier))
				}
			}
		}
	}

	return nil
}

func randomSuffix() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return uuid.New().String()[:8]
	}
	return hex.EncodeToString(buf)
}

func isNotFound(err error) bool {
	return errors.Is(err, apperrors.ErrNotFound)
}

func isReauth(err error) bool {
	return errors.Is(err, salla.ErrReauthRequired)
}

func remoteMessage(err error) string {
	if re, ok := salla.IsRemoteError(err); ok {
		return fmt.Sprintf("platform rejected the offer (status %d)", re.StatusCode)
	}
	return err.Error()
}
