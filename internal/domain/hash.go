package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// hashOffer carries only the commercially significant offer fields. Display
// fields (message, cached product name/price/image) do not affect identity.
type hashOffer struct {
	ProductID      string  `json:"product_id"`
	Quantity       int     `json:"quantity"`
	DiscountType   string  `json:"discount_type"`
	DiscountAmount float64 `json:"discount_amount"`
	OfferType      string  `json:"offer_type"`
}

type hashTier struct {
	Tier        int         `json:"tier"`
	BuyQuantity int         `json:"buy_quantity"`
	Offers      []hashOffer `json:"offers"`
}

type hashPayload struct {
	StoreID         string     `json:"store_id"`
	TargetProductID string     `json:"target_product_id"`
	Tiers           []hashTier `json:"tiers"`
}

// ComputeConfigHash returns a stable SHA-256 hex digest of the bundle's
// commercial configuration. Two bundles that differ only in name,
// description, tier titles, colors, or offer messages hash equal. Tier and
// offer ordering does not affect the result.
func ComputeConfigHash(b *BundleConfig) string {
	payload := hashPayload{
		StoreID:         b.StoreID,
		TargetProductID: b.TargetProductID,
		Tiers:           make([]hashTier, 0, len(b.Tiers)),
	}
	for _, t := range b.Tiers {
		ht := hashTier{
			Tier:        t.Tier,
			BuyQuantity: t.BuyQuantity,
			Offers:      make([]hashOffer, 0, len(t.Offers)),
		}
		for _, o := range t.Offers {
			ht.Offers = append(ht.Offers, hashOffer{
				ProductID:      o.ProductID,
				Quantity:       o.Quantity,
				DiscountType:   o.DiscountType,
				DiscountAmount: o.DiscountAmount,
				OfferType:      o.OfferType,
			})
		}
		sort.Slice(ht.Offers, func(i, j int) bool {
			return ht.Offers[i].ProductID < ht.Offers[j].ProductID
		})
		payload.Tiers = append(payload.Tiers, ht)
	}
	sort.Slice(payload.Tiers, func(i, j int) bool {
		return payload.Tiers[i].Tier < payload.Tiers[j].Tier
	})

	data, err := json.Marshal(payload)
	if err != nil {
		// Marshal of a struct with no cycles or channels cannot fail.
		panic(err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
