package salla

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"golang.org/x/time/rate"
)

// Remote offer statuses accepted by the platform.
const (
	RemoteStatusActive   = "active"
	RemoteStatusInactive = "inactive"
)

// BuySpec is the trigger side of a buy-x-get-y offer.
type BuySpec struct {
	Type     string   `json:"type"`
	Quantity int      `json:"quantity"`
	Products []string `json:"products"`
}

// GetSpec is the reward side of a buy-x-get-y offer. The platform supports a
// single uniform discount across all reward products.
type GetSpec struct {
	Type           string   `json:"type"`
	Quantity       int      `json:"quantity"`
	DiscountType   string   `json:"discount_type"`
	DiscountAmount int      `json:"discount_amount"`
	Products       []string `json:"products"`
}

// OfferPayload is the create-offer request body.
type OfferPayload struct {
	Name       string  `json:"name"`
	OfferType  string  `json:"offer_type"`
	Message    string  `json:"message,omitempty"`
	StartDate  string  `json:"start_date"`
	ExpiryDate string  `json:"expiry_date,omitempty"`
	Buy        BuySpec `json:"buy"`
	Get        GetSpec `json:"get"`
}

// RemoteOffer is the platform's view of a special offer.
type RemoteOffer struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	OfferType string `json:"offer_type"`
	Status    string `json:"status"`
}

type remoteEnvelope struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

// ClientConfig holds gateway configuration.
type ClientConfig struct {
	BaseURL string
	// RequestsPerSecond paces calls against the platform's rate limit.
	RequestsPerSecond float64
	Burst             int
}

// Client is the special-offer gateway. It paces requests, injects per-store
// bearer tokens, and wraps every platform rejection in a RemoteError. Callers
// own retries; the gateway never retries on its own beyond transport-level
// behavior of the underlying HTTP client.
type Client struct {
	cfg     ClientConfig
	http    HTTPDoer
	tokens  *TokenSource
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewClient creates a special-offer gateway client.
func NewClient(cfg ClientConfig, httpClient HTTPDoer, tokens *TokenSource, logger *slog.Logger) *Client {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		cfg:     cfg,
		http:    httpClient,
		tokens:  tokens,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		logger:  logger,
	}
}

// CreateOffer creates a special offer and returns the platform's record plus
// the raw response body for mirror persistence.
func (c *Client) CreateOffer(ctx context.Context, storeID string, payload *OfferPayload) (*RemoteOffer, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal offer payload: %w", err)
	}

	raw, err := c.call(ctx, "create_offer", storeID, http.MethodPost, "/specialoffers", bytes.NewReader(body))
	if err != nil {
		return nil, nil, err
	}

	var offer RemoteOffer
	if err := decodeData(raw, &offer); err != nil {
		return nil, raw, fmt.Errorf("decode create offer response: %w", err)
	}
	if offer.ID == 0 {
		return nil, raw, fmt.Errorf("create offer response missing id")
	}

	return &offer, raw, nil
}

// SetOfferStatus activates or deactivates a remote offer.
func (c *Client) SetOfferStatus(ctx context.Context, storeID string, remoteID int64, status string) error {
	body, err := json.Marshal(map[string]string{"status": status})
	if err != nil {
		return fmt.Errorf("marshal status payload: %w", err)
	}

	path := "/specialoffers/" + strconv.FormatInt(remoteID, 10) + "/status"
	_, err = c.call(ctx, "set_offer_status", storeID, http.MethodPost, path, bytes.NewReader(body))
	return err
}

// DeleteOffer removes a remote offer. Deleting an offer that is already gone
// is not an error.
func (c *Client) DeleteOffer(ctx context.Context, storeID string, remoteID int64) error {
	path := "/specialoffers/" + strconv.FormatInt(remoteID, 10)
	_, err := c.call(ctx, "delete_offer", storeID, http.MethodDelete, path, nil)
	if re, ok := IsRemoteError(err); ok && re.StatusCode == http.StatusNotFound {
		return nil
	}
	return err
}

// GetOffer fetches a single remote offer.
func (c *Client) GetOffer(ctx context.Context, storeID string, remoteID int64) (*RemoteOffer, error) {
	path := "/specialoffers/" + strconv.FormatInt(remoteID, 10)
	raw, err := c.call(ctx, "get_offer", storeID, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var offer RemoteOffer
	if err := decodeData(raw, &offer); err != nil {
		return nil, fmt.Errorf("decode get offer response: %w", err)
	}
	return &offer, nil
}

// ListOffers fetches the store's special offers.
func (c *Client) ListOffers(ctx context.Context, storeID string) ([]RemoteOffer, error) {
	raw, err := c.call(ctx, "list_offers", storeID, http.MethodGet, "/specialoffers", nil)
	if err != nil {
		return nil, err
	}

	var offers []RemoteOffer
	if err := decodeData(raw, &offers); err != nil {
		return nil, fmt.Errorf("decode list offers response: %w", err)
	}
	return offers, nil
}

// call executes one paced, authenticated request and returns the raw body of
// a 2xx response. Non-2xx responses become RemoteError.
func (c *Client) call(ctx context.Context, op, storeID, method, path string, body io.Reader) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	token, err := c.tokens.AccessToken(ctx, storeID)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("platform rejected request",
			slog.String("op", op),
			slog.String("store_id", storeID),
			slog.Int("status", resp.StatusCode),
		)
		return nil, &RemoteError{Op: op, StatusCode: resp.StatusCode, Body: string(raw)}
	}

	return raw, nil
}

func decodeData(raw []byte, v any) error {
	var env remoteEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return err
	}
	if env.Data == nil {
		return fmt.Errorf("response missing data field")
	}
	return json.Unmarshal(env.Data, v)
}
