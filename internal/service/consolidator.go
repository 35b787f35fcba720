package service

import (
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/7azemaamer/salla-adv-bundler-sub000/internal/domain"
	"github.com/7azemaamer/salla-adv-bundler-sub000/internal/salla"
)

// remoteDateLayout is the datetime format the platform accepts.
const remoteDateLayout = "2006-01-02 15:04:05"

// OfferTypeBuyXGetY is the only remote offer type the engine produces.
const OfferTypeBuyXGetY = "buy_x_get_y"

// ConsolidatorConfig tunes payload generation for the remote platform.
type ConsolidatorConfig struct {
	// TimezoneOffset shifts local wall-clock times into the platform's
	// timezone, which the API interprets dates in.
	TimezoneOffset time.Duration

	// StartBuffer is added to the computed start so the offer's start time
	// has not already elapsed by the time the request lands.
	StartBuffer time.Duration
}

// TierConsolidation is the arithmetic outcome of collapsing one tier's
// heterogeneous offers into a single uniform percentage.
type TierConsolidation struct {
	Tier            int      `json:"tier"`
	BuyQuantity     int      `json:"buy_quantity"`
	GiftProductIDs  []string `json:"gift_product_ids"`
	GiftQuantity    int      `json:"gift_quantity"`
	TotalSavings    float64  `json:"total_savings"`
	TotalGiftValue  float64  `json:"total_gift_value"`
	ConsolidatedPct int      `json:"consolidated_pct"`
	ZeroGiftValue   bool     `json:"zero_gift_value"`
}

// Consolidator collapses a tier's offers into one remote special-offer
// payload. The remote platform supports exactly one discount rule per offer,
// so per-offer savings are summed and re-expressed as a single percentage
// over the union of gift products. This is deliberately lossy: the uniform
// percentage may slightly under- or over-discount individual gifts versus
// the itemized definition.
type Consolidator struct {
	cfg    ConsolidatorConfig
	logger *slog.Logger
}

// NewConsolidator creates a consolidator.
func NewConsolidator(cfg ConsolidatorConfig, logger *slog.Logger) *Consolidator {
	return &Consolidator{cfg: cfg, logger: logger}
}

// offerSavings computes the discount value of a single offer line.
func offerSavings(o domain.Offer) float64 {
	qty := float64(o.Quantity)
	switch o.DiscountType {
	case domain.DiscountTypeFree:
		return o.ProductPrice * qty
	case domain.DiscountTypePercentage:
		return o.ProductPrice * qty * o.DiscountAmount / 100
	case domain.DiscountTypeFixedAmount:
		return o.DiscountAmount * qty
	default:
		return 0
	}
}

// roundHalfUp rounds to the nearest integer, halves away from zero.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// Consolidate collapses one tier into its consolidated discount numbers.
func (c *Consolidator) Consolidate(bundleID string, tier domain.Tier) TierConsolidation {
	var (
		totalSavings   float64
		totalGiftValue float64
		giftQuantity   int
	)
	giftSet := make(map[string]struct{})

	for _, o := range tier.Offers {
		totalSavings += offerSavings(o)
		totalGiftValue += o.ProductPrice * float64(o.Quantity)
		giftQuantity += o.Quantity
		giftSet[o.ProductID] = struct{}{}
	}

	giftIDs := make([]string, 0, len(giftSet))
	for id := range giftSet {
		giftIDs = append(giftIDs, id)
	}
	sort.Strings(giftIDs)

	result := TierConsolidation{
		Tier:           tier.Tier,
		BuyQuantity:    tier.BuyQuantity,
		GiftProductIDs: giftIDs,
		GiftQuantity:   giftQuantity,
		TotalSavings:   totalSavings,
		TotalGiftValue: totalGiftValue,
	}

	if totalGiftValue == 0 {
		// Zero-priced gifts make the ratio undefined; the whole reward side
		// is effectively free.
		result.ConsolidatedPct = 100
		result.ZeroGiftValue = true
		c.logger.Warn("tier has zero total gift value, consolidating as 100%",
			slog.String("bundle_id", bundleID),
			slog.Int("tier", tier.Tier),
		)
		return result
	}

	pct := roundHalfUp(totalSavings / totalGiftValue * 100)
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	result.ConsolidatedPct = pct

	return result
}

// BuildPayload produces the remote create-offer request for one tier.
func (c *Consolidator) BuildPayload(b *domain.BundleConfig, tier domain.Tier, offerName string, now time.Time) *salla.OfferPayload {
	cons := c.Consolidate(b.ID, tier)

	start := now.Add(c.cfg.TimezoneOffset).Add(c.cfg.StartBuffer)

	payload := &salla.OfferPayload{
		Name:      offerName,
		OfferType: OfferTypeBuyXGetY,
		StartDate: start.Format(remoteDateLayout),
		Buy: salla.BuySpec{
			Type:     "product",
			Quantity: tier.BuyQuantity,
			Products: []string{b.TargetProductID},
		},
		Get: salla.GetSpec{
			Type:           "product",
			Quantity:       cons.GiftQuantity,
			DiscountType:   "percentage",
			DiscountAmount: cons.ConsolidatedPct,
			Products:       cons.GiftProductIDs,
		},
	}

	if b.ExpiryDate != nil {
		payload.ExpiryDate = b.ExpiryDate.Add(c.cfg.TimezoneOffset).Format(remoteDateLayout)
	}

	return payload
}
