package salla

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/7azemaamer/salla-adv-bundler-sub000/internal/domain"
	"github.com/7azemaamer/salla-adv-bundler-sub000/internal/repository"
)

// refreshSkew is how long before expiry a token is refreshed proactively.
const refreshSkew = 5 * time.Minute

// TokenSourceConfig holds OAuth client credentials and endpoint.
type TokenSourceConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
}

// HTTPDoer executes HTTP requests. Satisfied by httpclient.Client and
// httpclient.BreakerClient.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// TokenSource hands out valid access tokens for stores, refreshing them
// before expiry. Refresh is serialized per store so concurrent activations
// never burn the same single-use refresh token twice.
type TokenSource struct {
	cfg    TokenSourceConfig
	stores repository.StoreRepository
	http   HTTPDoer
	logger *slog.Logger

	mu sync.Map // store ID -> *sync.Mutex
}

// NewTokenSource creates a token source backed by the store repository.
func NewTokenSource(cfg TokenSourceConfig, stores repository.StoreRepository, httpClient HTTPDoer, logger *slog.Logger) *TokenSource {
	return &TokenSource{
		cfg:    cfg,
		stores: stores,
		http:   httpClient,
		logger: logger,
	}
}

func (ts *TokenSource) storeLock(storeID string) *sync.Mutex {
	v, _ := ts.mu.LoadOrStore(storeID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// AccessToken returns a usable access token for the store, refreshing it if
// it is expired or about to expire. Returns ErrReauthRequired when the
// refresh grant itself is rejected.
func (ts *TokenSource) AccessToken(ctx context.Context, storeID string) (string, error) {
	lock := ts.storeLock(storeID)
	lock.Lock()
	defer lock.Unlock()

	store, err := ts.stores.GetByID(ctx, storeID)
	if err != nil {
		return "", fmt.Errorf("load store for token: %w", err)
	}

	if store.Status == domain.StoreStatusReauthRequired {
		return "", ErrReauthRequired
	}

	if time.Until(store.TokenExpiresAt) > refreshSkew {
		return store.AccessToken, nil
	}

	return ts.refresh(ctx, store)
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

func (ts *TokenSource) refresh(ctx context.Context, store *domain.Store) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", store.RefreshToken)
	form.Set("client_id", ts.cfg.ClientID)
	form.Set("client_secret", ts.cfg.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := ts.http.Do(ctx, req)
	if err != nil {
		return "", fmt.Errorf("refresh token: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read token response: %w", err)
	}

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
		// The refresh grant is dead. Flag the store so every subsequent call
		// short-circuits until the merchant reauthorizes.
		ts.logger.Error("refresh grant rejected, flagging store for reauth",
			slog.String("store_id", store.ID),
			slog.Int("status", resp.StatusCode),
		)
		if err := ts.stores.SetStatus(ctx, store.ID, domain.StoreStatusReauthRequired); err != nil {
			ts.logger.Error("flag store reauth_required",
				slog.String("store_id", store.ID),
				slog.String("error", err.Error()),
			)
		}
		return "", ErrReauthRequired
	}

	if resp.StatusCode != http.StatusOK {
		return "", &RemoteError{Op: "refresh_token", StatusCode: resp.StatusCode, Body: string(body)}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("token response missing access_token")
	}

	expiresAt := time.Now().UTC().Add(time.Duration(tr.ExpiresIn) * time.Second)
	newRefresh := tr.RefreshToken
	if newRefresh == "" {
		newRefresh = store.RefreshToken
	}

	if err := ts.stores.UpdateTokens(ctx, store.ID, tr.AccessToken, newRefresh, expiresAt); err != nil {
		return "", fmt.Errorf("persist refreshed tokens: %w", err)
	}

	ts.logger.Info("access token refreshed",
		slog.String("store_id", store.ID),
		slog.Time("expires_at", expiresAt),
	)

	return tr.AccessToken, nil
}
