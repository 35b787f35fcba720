package domain

import (
	"time"
)

// Bundle status constants.
const (
	BundleStatusDraft    = "draft"
	BundleStatusActive   = "active"
	BundleStatusInactive = "inactive"
	BundleStatusExpired  = "expired"
)

// Offer discount type constants.
const (
	DiscountTypeFree        = "free"
	DiscountTypePercentage  = "percentage"
	DiscountTypeFixedAmount = "fixed_amount"
)

// Tier shape limits enforced at validation time.
const (
	MaxTiers            = 10
	MaxBuyQuantity      = 20
	MaxOfferQuantity    = 10
	MaxOffersPerTier    = 10
)

// Offer is one gift/discount line item within a tier.
type Offer struct {
	ProductID      string  `json:"product_id"`
	ProductName    string  `json:"product_name,omitempty"`
	ProductPrice   float64 `json:"product_price,omitempty"`
	ProductImage   string  `json:"product_image,omitempty"`
	Currency       string  `json:"currency,omitempty"`
	Quantity       int     `json:"quantity"`
	DiscountType   string  `json:"discount_type"`
	DiscountAmount float64 `json:"discount_amount"`
	OfferType      string  `json:"offer_type,omitempty"`
	Message        string  `json:"message,omitempty"`
}

// Tier is one buy-quantity threshold within a bundle. Title and Color are
// display-only and excluded from the config hash.
type Tier struct {
	Tier        int     `json:"tier"`
	BuyQuantity int     `json:"buy_quantity"`
	IsDefault   bool    `json:"is_default"`
	Title       string  `json:"title,omitempty"`
	Color       string  `json:"color,omitempty"`
	Offers      []Offer `json:"offers"`
}

// BundleConfig is a merchant-defined multi-tier buy-X-get-Y promotion.
type BundleConfig struct {
	ID                string     `json:"id"`
	StoreID           string     `json:"store_id"`
	Name              string     `json:"name"`
	Description       string     `json:"description,omitempty"`
	TargetProductID   string     `json:"target_product_id"`
	TargetProductName string     `json:"target_product_name,omitempty"`
	Tiers             []Tier     `json:"bundles"`
	ConfigHash        string     `json:"config_hash"`
	Status            string     `json:"status"`
	StartDate         time.Time  `json:"start_date"`
	ExpiryDate        *time.Time `json:"expiry_date,omitempty"`
	OffersCount       int        `json:"offers_count"`
	TotalViews        int64      `json:"total_views"`
	TotalClicks       int64      `json:"total_clicks"`
	TotalConversions  int64      `json:"total_conversions"`
	TotalRevenue      int64      `json:"total_revenue"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// IsOpen reports whether the bundle participates in the config-hash
// uniqueness check. Expired and deleted bundles are excluded so a merchant
// can recreate a promotion that already ran its course.
func (b *BundleConfig) IsOpen() bool {
	return b.Status == BundleStatusDraft || b.Status == BundleStatusActive
}

// IsExpired reports whether the bundle's expiry date has passed.
func (b *BundleConfig) IsExpired(now time.Time) bool {
	return b.ExpiryDate != nil && now.After(*b.ExpiryDate)
}

// ShouldExpire reports whether the bundle is due for the expired transition.
// Draft, active, and inactive bundles all expire once their date passes;
// otherwise stale drafts would count against the plan quota forever.
func (b *BundleConfig) ShouldExpire(now time.Time) bool {
	return b.Status != BundleStatusExpired && b.IsExpired(now)
}

// ValidStatuses returns the set of valid bundle statuses.
func ValidStatuses() []string {
	return []string{
		BundleStatusDraft,
		BundleStatusActive,
		BundleStatusInactive,
		BundleStatusExpired,
	}
}

// IsValidStatus checks whether the given string is a valid bundle status.
func IsValidStatus(status string) bool {
	for _, s := range ValidStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// ValidDiscountTypes returns the set of valid per-offer discount types.
func ValidDiscountTypes() []string {
	return []string{DiscountTypeFree, DiscountTypePercentage, DiscountTypeFixedAmount}
}

// IsValidDiscountType checks whether the given string is a valid discount type.
func IsValidDiscountType(t string) bool {
	for _, v := range ValidDiscountTypes() {
		if v == t {
			return true
		}
	}
	return false
}

// ProductIDs returns the target product plus every gift product referenced by
// any tier, deduplicated, in first-seen order.
func (b *BundleConfig) ProductIDs() []string {
	seen := map[string]struct{}{b.TargetProductID: {}}
	ids := []string{b.TargetProductID}
	for _, tier := range b.Tiers {
		for _, offer := range tier.Offers {
			if _, ok := seen[offer.ProductID]; ok {
				continue
			}
			seen[offer.ProductID] = struct{}{}
			ids = append(ids, offer.ProductID)
		}
	}
	return ids
}
