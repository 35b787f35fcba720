package salla

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/7azemaamer/salla-adv-bundler-sub000/pkg/httpclient"
)

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()

	repo := new(mockStoreRepo)
	repo.On("GetByID", mock.Anything, "store-001").
		Return(freshStore(time.Now().Add(time.Hour)), nil)

	hc := httpclient.New(httpclient.DefaultConfig())
	tokens := NewTokenSource(TokenSourceConfig{}, repo, hc, testLogger())

	return NewClient(
		ClientConfig{BaseURL: srv.URL, RequestsPerSecond: 100, Burst: 10},
		hc, tokens, testLogger(),
	)
}

func samplePayload() *OfferPayload {
	return &OfferPayload{
		Name:      "buy-2-get-1-t1-a1b2c3",
		OfferType: "buy_x_get_y",
		StartDate: "2025-07-01 15:05:00",
		Buy:       BuySpec{Type: "product", Quantity: 2, Products: []string{"prod-100"}},
		Get: GetSpec{
			Type:           "product",
			Quantity:       2,
			DiscountType:   "percentage",
			DiscountAmount: 67,
			Products:       []string{"gift-a", "gift-b"},
		},
	}
}

func TestClient_CreateOffer_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/specialoffers", r.URL.Path)
		assert.Equal(t, "Bearer current-token", r.Header.Get("Authorization"))

		var got OfferPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "buy_x_get_y", got.OfferType)
		assert.Equal(t, 67, got.Get.DiscountAmount)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"status":201,"success":true,"data":{"id":990011,"name":"buy-2-get-1-t1-a1b2c3","status":"inactive"}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)

	offer, raw, err := c.CreateOffer(context.Background(), "store-001", samplePayload())
	require.NoError(t, err)
	assert.Equal(t, int64(990011), offer.ID)
	assert.Contains(t, string(raw), "990011")
}

func TestClient_CreateOffer_RemoteRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"status":422,"success":false,"error":{"message":"start_date is in the past"}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)

	_, _, err := c.CreateOffer(context.Background(), "store-001", samplePayload())
	re, ok := IsRemoteError(err)
	require.True(t, ok)
	assert.Equal(t, "create_offer", re.Op)
	assert.Equal(t, http.StatusUnprocessableEntity, re.StatusCode)
	assert.Contains(t, re.Body, "start_date is in the past")
}

func TestClient_SetOfferStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/specialoffers/990011/status", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, RemoteStatusActive, body["status"])

		_, _ = w.Write([]byte(`{"status":200,"success":true,"data":{"id":990011,"status":"active"}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)

	err := c.SetOfferStatus(context.Background(), "store-001", 990011, RemoteStatusActive)
	assert.NoError(t, err)
}

func TestClient_DeleteOffer_MissingIsNotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status":404,"success":false}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)

	err := c.DeleteOffer(context.Background(), "store-001", 990011)
	assert.NoError(t, err)
}

func TestClient_GetOffer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/specialoffers/990011", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":200,"success":true,"data":{"id":990011,"name":"n","status":"active"}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)

	offer, err := c.GetOffer(context.Background(), "store-001", 990011)
	require.NoError(t, err)
	assert.Equal(t, RemoteStatusActive, offer.Status)
}

func TestClient_ListOffers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":200,"success":true,"data":[{"id":1},{"id":2}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)

	offers, err := c.ListOffers(context.Background(), "store-001")
	require.NoError(t, err)
	assert.Len(t, offers, 2)
}
