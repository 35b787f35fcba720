package integration

import (
	"net/http"
	"testing"
)

// TestHealthEndpoints verifies the liveness and readiness probes.
func TestHealthEndpoints(t *testing.T) {
	skipIfNotRunning(t)

	status, _ := httpGetWithHeaders(t, baseURL()+"/health/live", nil)
	requireStatus(t, status, http.StatusOK)

	status, body := httpGetWithHeaders(t, baseURL()+"/health/ready", nil)
	requireStatus(t, status, http.StatusOK)
	if got := extractString(t, body, "status"); got != "up" {
		t.Fatalf("expected readiness status up, got %q", got)
	}
}

// TestBundleDraftLifecycle exercises create, duplicate detection, read,
// update, preview, tracking, and delete against a running instance. Remote
// activation is not covered here since it needs live platform credentials.
func TestBundleDraftLifecycle(t *testing.T) {
	skipIfNotRunning(t)

	headers := storeHeaders(seedStoreID)
	target := uniqueProductID("it-prod")
	gift := uniqueProductID("it-gift")

	create := map[string]interface{}{
		"name":              "Integration Bundle",
		"target_product_id": target,
		"bundles": []map[string]interface{}{
			{
				"tier":         1,
				"buy_quantity": 2,
				"is_default":   true,
				"offers": []map[string]interface{}{
					{"product_id": gift, "quantity": 1, "discount_type": "free"},
				},
			},
		},
	}

	// Create. Product enrichment may fail against a store with fake tokens;
	// skip rather than fail if so.
	status, body := httpPostWithHeaders(t, baseURL()+"/api/v1/bundles", create, headers)
	if status == http.StatusNotFound || status == http.StatusUnauthorized || status == http.StatusServiceUnavailable {
		t.Skipf("platform catalog not reachable with seed credentials (status %d)", status)
	}
	requireStatus(t, status, http.StatusCreated)
	bundleID := extractString(t, body, "data.id")
	if got := extractString(t, body, "data.status"); got != "draft" {
		t.Fatalf("expected draft status, got %q", got)
	}

	// Identical payload returns the existing bundle, not a new one.
	status, body = httpPostWithHeaders(t, baseURL()+"/api/v1/bundles", create, headers)
	requireStatus(t, status, http.StatusOK)
	if got := extractString(t, body, "data.id"); got != bundleID {
		t.Fatalf("expected existing bundle %s, got %s", bundleID, got)
	}

	// Read it back.
	status, body = httpGetWithHeaders(t, baseURL()+"/api/v1/bundles/"+bundleID, headers)
	requireStatus(t, status, http.StatusOK)
	if got := extractString(t, body, "data.target_product_id"); got != target {
		t.Fatalf("expected target %s, got %s", target, got)
	}

	// Display-field update keeps the hash and the draft status.
	update := map[string]interface{}{"name": "Integration Bundle Renamed"}
	status, body = httpPutWithHeaders(t, baseURL()+"/api/v1/bundles/"+bundleID, update, headers)
	requireStatus(t, status, http.StatusOK)
	if got := extractString(t, body, "data.name"); got != "Integration Bundle Renamed" {
		t.Fatalf("rename not applied, got %q", got)
	}

	// Preview computes consolidated percentages without touching the platform.
	status, _ = httpGetWithHeaders(t, baseURL()+"/api/v1/bundles/"+bundleID+"/offers/preview", headers)
	requireStatus(t, status, http.StatusOK)

	// Tracking is fire-and-forget.
	status, _ = httpPostWithHeaders(t, baseURL()+"/api/v1/bundles/"+bundleID+"/track/view", nil, headers)
	requireStatus(t, status, http.StatusAccepted)

	// Delete.
	status, _ = httpDeleteWithHeaders(t, baseURL()+"/api/v1/bundles/"+bundleID, headers)
	requireStatus(t, status, http.StatusNoContent)

	status, _ = httpGetWithHeaders(t, baseURL()+"/api/v1/bundles/"+bundleID, headers)
	requireStatus(t, status, http.StatusNotFound)
}

// TestBundleValidation verifies request validation rejects malformed input.
func TestBundleValidation(t *testing.T) {
	skipIfNotRunning(t)

	headers := storeHeaders(seedStoreID)

	// Missing tiers.
	status, body := httpPostWithHeaders(t, baseURL()+"/api/v1/bundles",
		map[string]interface{}{"name": "No tiers", "target_product_id": "p1"}, headers)
	requireStatus(t, status, http.StatusBadRequest)
	if got := extractString(t, body, "error.code"); got != "VALIDATION_ERROR" {
		t.Fatalf("expected VALIDATION_ERROR, got %q", got)
	}

	// Missing store header.
	status, _ = httpPostWithHeaders(t, baseURL()+"/api/v1/bundles",
		map[string]interface{}{"name": "x"}, nil)
	requireStatus(t, status, http.StatusBadRequest)
}
