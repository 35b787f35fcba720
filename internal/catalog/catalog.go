package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/7azemaamer/salla-adv-bundler-sub000/internal/salla"
	apperrors "github.com/7azemaamer/salla-adv-bundler-sub000/pkg/errors"
)

// ProductSnapshot is the subset of a platform product cached on bundle
// offers. Prices are captured at enrichment time and not kept in sync.
type ProductSnapshot struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	Image    string  `json:"image,omitempty"`
	SKU      string  `json:"sku,omitempty"`
}

// FailedLookup records one product that could not be resolved during a batch
// fetch.
type FailedLookup struct {
	ProductID string `json:"product_id"`
	Reason    string `json:"reason"`
}

// Config holds catalog adapter configuration.
type Config struct {
	BaseURL string
}

type productEnvelope struct {
	Success bool `json:"success"`
	Data    struct {
		ID    json.Number `json:"id"`
		Name  string      `json:"name"`
		Price struct {
			Amount   float64 `json:"amount"`
			Currency string  `json:"currency"`
		} `json:"price"`
		MainImage string `json:"main_image"`
		SKU       string `json:"sku"`
	} `json:"data"`
}

// Adapter resolves product snapshots from the platform catalog API.
type Adapter struct {
	cfg    Config
	http   salla.HTTPDoer
	tokens *salla.TokenSource
	logger *slog.Logger
}

// NewAdapter creates a catalog adapter.
func NewAdapter(cfg Config, httpClient salla.HTTPDoer, tokens *salla.TokenSource, logger *slog.Logger) *Adapter {
	return &Adapter{cfg: cfg, http: httpClient, tokens: tokens, logger: logger}
}

// GetProduct resolves a single product. A missing product maps to
// apperrors.ErrNotFound so callers can reject bundle creation cleanly.
func (a *Adapter) GetProduct(ctx context.Context, storeID, productID string) (*ProductSnapshot, error) {
	token, err := a.tokens.AccessToken(ctx, storeID)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.BaseURL+"/products/"+productID, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create product request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := a.http.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", productID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read product response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, apperrors.NotFound("product", productID)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &salla.RemoteError{Op: "get_product", StatusCode: resp.StatusCode, Body: string(body)}
	}

	var env productEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode product response: %w", err)
	}

	return &ProductSnapshot{
		ID:       env.Data.ID.String(),
		Name:     env.Data.Name,
		Price:    env.Data.Price.Amount,
		Currency: env.Data.Price.Currency,
		Image:    env.Data.MainImage,
		SKU:      env.Data.SKU,
	}, nil
}

// GetProducts resolves a batch of products, reporting failures per product
// instead of aborting the batch.
func (a *Adapter) GetProducts(ctx context.Context, storeID string, productIDs []string) (map[string]*ProductSnapshot, []FailedLookup) {
	snapshots := make(map[string]*ProductSnapshot, len(productIDs))
	var failed []FailedLookup

	for _, id := range productIDs {
		snap, err := a.GetProduct(ctx, storeID, id)
		if err != nil {
			a.logger.Warn("product lookup failed",
				slog.String("store_id", storeID),
				slog.String("product_id", id),
				slog.String("error", err.Error()),
			)
			failed = append(failed, FailedLookup{ProductID: id, Reason: err.Error()})
			continue
		}
		snapshots[id] = snap
	}

	return snapshots, failed
}
