package domain

import "time"

// Remote offer mirror status constants.
const (
	OfferStatusActive   = "active"
	OfferStatusInactive = "inactive"
	OfferStatusFailed   = "failed"
)

// Remote sync status constants.
const (
	SyncStatusPending = "pending"
	SyncStatusSynced  = "synced"
	SyncStatusFailed  = "failed"
)

// BundleOffer is a local mirror of one special offer created on the remote
// platform, one row per tier. Rows are hard-deleted on deactivation; a fresh
// remote offer with a fresh name is created on every activation.
type BundleOffer struct {
	ID            string `json:"id"`
	BundleID      string `json:"bundle_id"`
	StoreID       string `json:"store_id"`
	Tier          int    `json:"tier"`
	RemoteOfferID int64  `json:"remote_offer_id"`
	OfferName     string `json:"offer_name"`
	// DiscountAmount is the consolidated uniform percentage the remote
	// offer was created with.
	DiscountAmount int       `json:"discount_amount"`
	Status         string    `json:"status"`
	SyncStatus     string    `json:"sync_status"`
	RawResponse    []byte    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
