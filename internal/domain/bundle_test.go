package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBundleConfig_IsOpen(t *testing.T) {
	tests := []struct {
		status string
		open   bool
	}{
		{BundleStatusDraft, true},
		{BundleStatusActive, true},
		{BundleStatusInactive, false},
		{BundleStatusExpired, false},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			b := &BundleConfig{Status: tt.status}
			assert.Equal(t, tt.open, b.IsOpen())
		})
	}
}

func TestBundleConfig_IsExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	assert.False(t, (&BundleConfig{}).IsExpired(now), "no expiry date never expires")
	assert.True(t, (&BundleConfig{ExpiryDate: &past}).IsExpired(now))
	assert.False(t, (&BundleConfig{ExpiryDate: &future}).IsExpired(now))
}

func TestBundleConfig_ShouldExpire(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)

	tests := []struct {
		status string
		want   bool
	}{
		{BundleStatusDraft, true},
		{BundleStatusActive, true},
		{BundleStatusInactive, true},
		{BundleStatusExpired, false},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			b := &BundleConfig{Status: tt.status, ExpiryDate: &past}
			assert.Equal(t, tt.want, b.ShouldExpire(now))
		})
	}

	assert.False(t, (&BundleConfig{Status: BundleStatusDraft}).ShouldExpire(now), "no expiry date never expires")
}

func TestBundleConfig_ProductIDs(t *testing.T) {
	b := &BundleConfig{
		TargetProductID: "prod-1",
		Tiers: []Tier{
			{Offers: []Offer{{ProductID: "gift-a"}, {ProductID: "gift-b"}}},
			{Offers: []Offer{{ProductID: "gift-a"}, {ProductID: "prod-1"}}},
		},
	}
	assert.Equal(t, []string{"prod-1", "gift-a", "gift-b"}, b.ProductIDs())
}

func TestStore_BundleQuota(t *testing.T) {
	assert.Equal(t, 3, (&Store{Plan: PlanBasic}).BundleQuota())
	assert.Equal(t, 3, (&Store{Plan: "unknown"}).BundleQuota())
	assert.Equal(t, 10, (&Store{Plan: PlanPro}).BundleQuota())
	assert.Equal(t, 0, (&Store{Plan: PlanSpecial}).BundleQuota())
}

func TestStore_QuotaExceeded(t *testing.T) {
	basic := &Store{Plan: PlanBasic}
	assert.False(t, basic.QuotaExceeded(2))
	assert.True(t, basic.QuotaExceeded(3))

	special := &Store{Plan: PlanSpecial}
	assert.False(t, special.QuotaExceeded(10000))
}
