package domain

import "time"

// Store plan constants.
const (
	PlanBasic   = "basic"
	PlanPro     = "pro"
	PlanSpecial = "special"
)

// Store status constants.
const (
	StoreStatusActive         = "active"
	StoreStatusSuspended      = "suspended"
	StoreStatusReauthRequired = "reauth_required"
)

// Store is an installed merchant with OAuth credentials for the platform API.
type Store struct {
	ID             string    `json:"id"`
	MerchantID     int64     `json:"merchant_id"`
	Name           string    `json:"name"`
	Plan           string    `json:"plan"`
	Status         string    `json:"status"`
	AccessToken    string    `json:"-"`
	RefreshToken   string    `json:"-"`
	TokenExpiresAt time.Time `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// BundleQuota returns the maximum number of open bundles the store's plan
// allows. Zero means unlimited.
func (s *Store) BundleQuota() int {
	switch s.Plan {
	case PlanPro:
		return 10
	case PlanSpecial:
		return 0
	default:
		return 3
	}
}

// QuotaExceeded reports whether creating one more open bundle would exceed
// the plan quota given the current open count.
func (s *Store) QuotaExceeded(openCount int) bool {
	quota := s.BundleQuota()
	return quota > 0 && openCount >= quota
}
