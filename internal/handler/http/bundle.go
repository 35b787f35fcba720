package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/7azemaamer/salla-adv-bundler-sub000/internal/domain"
	"github.com/7azemaamer/salla-adv-bundler-sub000/internal/repository"
	"github.com/7azemaamer/salla-adv-bundler-sub000/internal/service"
	"github.com/7azemaamer/salla-adv-bundler-sub000/pkg/httputil"
	"github.com/7azemaamer/salla-adv-bundler-sub000/pkg/logger"
	"github.com/7azemaamer/salla-adv-bundler-sub000/pkg/validator"
)

// BundleHandler handles HTTP requests for bundle endpoints. The store acting
// on the request is taken from the X-Store-ID header, which the dashboard
// gateway injects after session auth.
type BundleHandler struct {
	bundles   *service.BundleService
	analytics *service.AnalyticsService
	logger    *slog.Logger
}

// NewBundleHandler creates a new bundle HTTP handler.
func NewBundleHandler(bundles *service.BundleService, analytics *service.AnalyticsService, logger *slog.Logger) *BundleHandler {
	return &BundleHandler{
		bundles:   bundles,
		analytics: analytics,
		logger:    logger,
	}
}

// --- Request DTOs ---

// OfferRequest is one gift line inside a tier.
type OfferRequest struct {
	ProductID      string  `json:"product_id" validate:"required"`
	Quantity       int     `json:"quantity" validate:"required,gte=1,lte=10"`
	DiscountType   string  `json:"discount_type" validate:"required,oneof=free percentage fixed_amount"`
	DiscountAmount float64 `json:"discount_amount" validate:"gte=0"`
	OfferType      string  `json:"offer_type" validate:"max=64"`
	Message        string  `json:"message" validate:"max=255"`
}

// TierRequest is one buy-quantity threshold.
type TierRequest struct {
	Tier        int            `json:"tier" validate:"required,gte=1,lte=10"`
	BuyQuantity int            `json:"buy_quantity" validate:"required,gte=1,lte=20"`
	IsDefault   bool           `json:"is_default"`
	Title       string         `json:"title" validate:"max=120"`
	Color       string         `json:"color" validate:"max=32"`
	Offers      []OfferRequest `json:"offers" validate:"required,min=1,max=10,dive"`
}

// CreateBundleRequest is the JSON request body for creating a bundle.
type CreateBundleRequest struct {
	Name            string        `json:"name" validate:"required,min=1,max=255"`
	Description     string        `json:"description" validate:"max=2000"`
	TargetProductID string        `json:"target_product_id" validate:"required"`
	Tiers           []TierRequest `json:"bundles" validate:"required,min=1,max=10,dive"`
	StartDate       string        `json:"start_date"`
	ExpiryDate      *string       `json:"expiry_date"`
}

// UpdateBundleRequest is the JSON request body for updating a bundle. A
// non-nil bundles array replaces the tier structure; the merchant must
// re-activate afterwards for remote offers to reflect it.
type UpdateBundleRequest struct {
	Name        *string                `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string                `json:"description" validate:"omitempty,max=2000"`
	ExpiryDate  *string                `json:"expiry_date"`
	ClearExpiry bool                   `json:"clear_expiry"`
	Tiers       []TierRequest          `json:"bundles" validate:"omitempty,max=10,dive"`
	TierStyling map[string]TierStyling `json:"tier_styling" validate:"omitempty,dive"`
}

// TierStyling carries display-only tier updates keyed by tier number.
type TierStyling struct {
	Title string `json:"title" validate:"max=120"`
	Color string `json:"color" validate:"max=32"`
}

// TrackRequest is the optional JSON body for conversion tracking.
type TrackRequest struct {
	Revenue int64 `json:"revenue" validate:"gte=0"`
}

// --- Handlers ---

// CreateBundle handles POST /api/v1/bundles
func (h *BundleHandler) CreateBundle(w http.ResponseWriter, r *http.Request) {
	storeID := logger.StoreIDFromContext(r.Context())
	if storeID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "X-Store-ID header is required"},
		})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	var req CreateBundleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	startDate := time.Now().UTC()
	if req.StartDate != "" {
		parsed, err := time.Parse(time.RFC3339, req.StartDate)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "start_date must be in RFC3339 format"},
			})
			return
		}
		startDate = parsed
	}

	var expiryDate *time.Time
	if req.ExpiryDate != nil && *req.ExpiryDate != "" {
		parsed, err := time.Parse(time.RFC3339, *req.ExpiryDate)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "expiry_date must be in RFC3339 format"},
			})
			return
		}
		expiryDate = &parsed
	}

	input := &service.CreateBundleInput{
		StoreID:         storeID,
		Name:            req.Name,
		Description:     req.Description,
		TargetProductID: req.TargetProductID,
		Tiers:           toDomainTiers(req.Tiers),
		StartDate:       startDate,
		ExpiryDate:      expiryDate,
	}

	bundle, created, err := h.bundles.CreateBundle(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	status := http.StatusCreated
	if !created {
		// An identical open bundle already existed; return it instead.
		status = http.StatusOK
	}
	httputil.WriteJSON(w, status, httputil.Response{Data: bundle})
}

// ListBundles handles GET /api/v1/bundles
func (h *BundleHandler) ListBundles(w http.ResponseWriter, r *http.Request) {
	storeID := logger.StoreIDFromContext(r.Context())
	if storeID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "X-Store-ID header is required"},
		})
		return
	}

	filter := repository.BundleFilter{
		StoreID: storeID,
		Page:    1,
		PerPage: 20,
	}

	if v := r.URL.Query().Get("page"); v != "" {
		if page, err := strconv.Atoi(v); err == nil && page > 0 {
			filter.Page = page
		}
	}
	if v := r.URL.Query().Get("per_page"); v != "" {
		if perPage, err := strconv.Atoi(v); err == nil && perPage > 0 && perPage <= 100 {
			filter.PerPage = perPage
		}
	}
	if v := r.URL.Query().Get("status"); v != "" {
		filter.Status = &v
	}
	if v := r.URL.Query().Get("target_product_id"); v != "" {
		filter.TargetProductID = &v
	}

	bundles, total, err := h.bundles.ListBundles(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK,
		httputil.NewPaginatedResponse(bundles, total, filter.Page, filter.PerPage))
}

// GetBundle handles GET /api/v1/bundles/{id}
func (h *BundleHandler) GetBundle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	bundle, err := h.bundles.GetBundle(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: bundle})
}

// UpdateBundle handles PUT /api/v1/bundles/{id}
func (h *BundleHandler) UpdateBundle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	var req UpdateBundleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	input := &service.UpdateBundleInput{
		Name:        req.Name,
		Description: req.Description,
		ClearExpiry: req.ClearExpiry,
	}

	if req.ExpiryDate != nil && *req.ExpiryDate != "" {
		parsed, err := time.Parse(time.RFC3339, *req.ExpiryDate)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "expiry_date must be in RFC3339 format"},
			})
			return
		}
		input.ExpiryDate = &parsed
	}

	if req.Tiers != nil {
		input.Tiers = toDomainTiers(req.Tiers)
	}

	if len(req.TierStyling) > 0 {
		input.TierStyling = make(map[int]service.TierStyling, len(req.TierStyling))
		for k, v := range req.TierStyling {
			tier, err := strconv.Atoi(k)
			if err != nil {
				httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "tier_styling keys must be tier numbers"},
				})
				return
			}
			input.TierStyling[tier] = service.TierStyling{Title: v.Title, Color: v.Color}
		}
	}

	bundle, err := h.bundles.UpdateBundle(r.Context(), id, input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: bundle})
}

// DeleteBundle handles DELETE /api/v1/bundles/{id}
func (h *BundleHandler) DeleteBundle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.bundles.DeleteBundle(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusNoContent, nil)
}

// GenerateOffers handles POST /api/v1/bundles/{id}/offers/generate
func (h *BundleHandler) GenerateOffers(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.bundles.Activate(r.Context(), id)
	if err != nil {
		// A partial result with zero successes still carries per-tier detail.
		if result != nil {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, httputil.Response{
				Data: result,
				Error: &httputil.ErrorResponse{
					Code:    "REMOTE_OFFER_ERROR",
					Message: "no tier could be activated",
				},
			})
			return
		}
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// PreviewOffers handles GET /api/v1/bundles/{id}/offers/preview
func (h *BundleHandler) PreviewOffers(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	previews, err := h.bundles.Preview(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: previews})
}

// DeactivateBundle handles POST /api/v1/bundles/{id}/deactivate
func (h *BundleHandler) DeactivateBundle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	bundle, err := h.bundles.Deactivate(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: bundle})
}

// TrackMetric handles POST /api/v1/bundles/{id}/track/{metric}
func (h *BundleHandler) TrackMetric(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	metric := chi.URLParam(r, "metric")

	var req TrackRequest
	if r.Body != nil && r.ContentLength > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, 4<<10)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
			})
			return
		}
	}

	if err := h.analytics.Track(r.Context(), id, metric, req.Revenue); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusAccepted, httputil.Response{Data: map[string]string{"status": "recorded"}})
}

// GetStats handles GET /api/v1/bundles/{id}/stats
func (h *BundleHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	stats, err := h.analytics.Stats(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]int64{
		"views":       stats.Views,
		"clicks":      stats.Clicks,
		"conversions": stats.Conversions,
		"revenue":     stats.Revenue,
	}})
}

// toDomainTiers converts request tiers to domain tiers.
func toDomainTiers(tiers []TierRequest) []domain.Tier {
	out := make([]domain.Tier, 0, len(tiers))
	for _, t := range tiers {
		tier := domain.Tier{
			Tier:        t.Tier,
			BuyQuantity: t.BuyQuantity,
			IsDefault:   t.IsDefault,
			Title:       t.Title,
			Color:       t.Color,
			Offers:      make([]domain.Offer, 0, len(t.Offers)),
		}
		for _, o := range t.Offers {
			tier.Offers = append(tier.Offers, domain.Offer{
				ProductID:      o.ProductID,
				Quantity:       o.Quantity,
				DiscountType:   o.DiscountType,
				DiscountAmount: o.DiscountAmount,
				OfferType:      o.OfferType,
				Message:        o.Message,
			})
		}
		out = append(out, tier)
	}
	return out
}
