// Package main implements a standalone seed script that populates a local
// bundler instance with demo data. Stores are inserted with direct SQL since
// merchant onboarding has no endpoint in this service; bundles are created
// through the running HTTP API so the full validation and hashing path is
// exercised.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func httpPost(url, storeID string, body any) (map[string]any, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal body: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Store-ID", storeID)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))
	}

	var out map[string]any
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}

type seedStore struct {
	ID         string
	MerchantID int64
	Name       string
	Plan       string
}

var stores = []seedStore{
	{ID: "store-demo-basic", MerchantID: 100001, Name: "Demo Basic Store", Plan: "basic"},
	{ID: "store-demo-pro", MerchantID: 100002, Name: "Demo Pro Store", Plan: "pro"},
	{ID: "store-demo-special", MerchantID: 100003, Name: "Demo Special Store", Plan: "special"},
}

func insertStores(ctx context.Context, pool *pgxpool.Pool) error {
	for _, s := range stores {
		_, err := pool.Exec(ctx, `
			INSERT INTO stores (id, merchant_id, name, plan, status, access_token, refresh_token, token_expires_at)
			VALUES ($1, $2, $3, $4, 'active', 'seed-access-token', 'seed-refresh-token', NOW() + INTERVAL '12 hours')
			ON CONFLICT (id) DO UPDATE SET plan = EXCLUDED.plan, name = EXCLUDED.name`,
			s.ID, s.MerchantID, s.Name, s.Plan,
		)
		if err != nil {
			return fmt.Errorf("insert store %s: %w", s.ID, err)
		}
		log.Printf("store %s (%s plan) ready", s.ID, s.Plan)
	}
	return nil
}

func sampleBundle(n int) map[string]any {
	return map[string]any{
		"name":              fmt.Sprintf("Demo Bundle %d", n),
		"description":       "Seeded multi-tier promotion",
		"target_product_id": fmt.Sprintf("seed-prod-%d", n),
		"bundles": []map[string]any{
			{
				"tier":         1,
				"buy_quantity": 2,
				"is_default":   true,
				"title":        "Buy 2",
				"offers": []map[string]any{
					{"product_id": fmt.Sprintf("seed-gift-%d-a", n), "quantity": 1, "discount_type": "free"},
				},
			},
			{
				"tier":         2,
				"buy_quantity": 4,
				"title":        "Buy 4",
				"offers": []map[string]any{
					{"product_id": fmt.Sprintf("seed-gift-%d-a", n), "quantity": 1, "discount_type": "free"},
					{"product_id": fmt.Sprintf("seed-gift-%d-b", n), "quantity": 1, "discount_type": "percentage", "discount_amount": 50},
				},
			},
		},
	}
}

func createBundles(baseURL string) error {
	for i, s := range stores {
		// One bundle per store keeps the basic plan well under quota.
		resp, err := httpPost(baseURL+"/api/v1/bundles", s.ID, sampleBundle(i+1))
		if err != nil {
			return fmt.Errorf("create bundle for %s: %w", s.ID, err)
		}
		if data, ok := resp["data"].(map[string]any); ok {
			log.Printf("bundle %v created for %s", data["id"], s.ID)
		}
	}
	return nil
}

func main() {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		getEnv("POSTGRES_USER", "bundler"),
		getEnv("POSTGRES_PASSWORD", "bundler_secret"),
		getEnv("POSTGRES_HOST", "localhost"),
		getEnv("POSTGRES_PORT", "5432"),
		getEnv("BUNDLER_DB_NAME", "bundler_db"),
	)
	baseURL := getEnv("BUNDLER_BASE_URL", "http://localhost:8080")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatalf("connect to postgres: %v", err)
	}
	defer pool.Close()

	if err := insertStores(ctx, pool); err != nil {
		log.Fatalf("seed stores: %v", err)
	}
	if err := createBundles(baseURL); err != nil {
		log.Fatalf("seed bundles: %v", err)
	}

	log.Println("seed complete")
}
