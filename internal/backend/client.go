// Package backend is the HTTP client for the account API (spec.md §6), a
// fixed-schema external collaborator treated as out-of-scope for its own
// implementation but wired here as the client the gateway's tools call.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/fenwick-labs/voicegate/internal/config"
	"github.com/fenwick-labs/voicegate/internal/retry"
)

// Client calls the backend account API with per-request bearer auth. No
// client state is shared across requests beyond the base URL and HTTP
// transport (spec.md §5: "no shared client state").
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
}

// New constructs a Client. timeout bounds each individual request per
// spec.md §5 ("Backend account API call: ≤5s").
func New(cfg config.BackendConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		timeout: timeout,
		http:    &http.Client{Timeout: timeout},
	}
}

// Balance is the response shape for GET /api/account/balance.
type Balance struct {
	Main     float64 `json:"main"`
	Savings  float64 `json:"savings"`
	Currency string  `json:"currency"`
}

// AccountDetails is the response shape for GET /api/account/details.
type AccountDetails struct {
	AccountNo string `json:"account_no"`
	Holder    string `json:"holder"`
	Type      string `json:"type"`
}

// Transaction is one entry of GET /api/transactions/recent.
type Transaction struct {
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Sign        string  `json:"sign"`
}

// CardDetails is the response shape for GET /api/card/details.
type CardDetails struct {
	MaskedPAN   string  `json:"masked_pan"`
	State       string  `json:"state"`
	CreditLimit float64 `json:"credit_limit"`
	Available   float64 `json:"available"`
	Expiry      string  `json:"expiry"`
}

// CardState is the response shape for POST /api/card/freeze and /unfreeze.
type CardState struct {
	State string `json:"state"`
}

// GetBalance calls GET /api/account/balance.
func (c *Client) GetBalance(ctx context.Context, token string) (*Balance, error) {
	var out Balance
	if err := c.doJSON(ctx, http.MethodGet, "/api/account/balance", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAccountDetails calls GET /api/account/details.
func (c *Client) GetAccountDetails(ctx context.Context, token string) (*AccountDetails, error) {
	var out AccountDetails
	if err := c.doJSON(ctx, http.MethodGet, "/api/account/details", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetRecentTransactions calls GET /api/transactions/recent?limit=N.
func (c *Client) GetRecentTransactions(ctx context.Context, token string, limit int) ([]Transaction, error) {
	path := "/api/transactions/recent?limit=" + strconv.Itoa(limit)
	var out []Transaction
	if err := c.doJSON(ctx, http.MethodGet, path, token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetCardDetails calls GET /api/card/details.
func (c *Client) GetCardDetails(ctx context.Context, token string) (*CardDetails, error) {
	var out CardDetails
	if err := c.doJSON(ctx, http.MethodGet, "/api/card/details", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FreezeCard calls POST /api/card/freeze.
func (c *Client) FreezeCard(ctx context.Context, token string) (*CardState, error) {
	var out CardState
	if err := c.doJSON(ctx, http.MethodPost, "/api/card/freeze", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UnfreezeCard calls POST /api/card/unfreeze.
func (c *Client) UnfreezeCard(ctx context.Context, token string) (*CardState, error) {
	var out CardState
	if err := c.doJSON(ctx, http.MethodPost, "/api/card/unfreeze", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// doJSON issues one HTTP request with bearer auth, decoding a JSON
// response into out. GET requests are retried once on transient network
// failure (not on 4xx/5xx) via internal/retry; POST requests that mutate
// state (freeze/unfreeze) are never retried automatically, to avoid a
// double side effect on a slow-but-succeeding first attempt.
func (c *Client) doJSON(ctx context.Context, method, path, token string, body any, out any) error {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	attempt := func() error {
		return c.attempt(reqCtx, method, path, token, body, out)
	}

	if method != http.MethodGet {
		return attempt()
	}

	result := retry.Do(reqCtx, retry.Config{
		MaxAttempts:  2,
		InitialDelay: 50 * time.Millisecond,
		MaxDelay:     200 * time.Millisecond,
		Factor:       2,
		Jitter:       true,
	}, attempt)
	return result.Err
}

func (c *Client) attempt(ctx context.Context, method, path, token string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &config.Error{Kind: config.ErrBackendHTTPError, Msg: err.Error()}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &config.Error{Kind: config.ErrBackendHTTPError, Msg: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return &config.Error{Kind: config.ErrBackendTimeout, Msg: "backend request timed out"}
		}
		return &config.Error{Kind: config.ErrBackendHTTPError, Msg: err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &config.Error{Kind: config.ErrBackendHTTPError, Msg: err.Error()}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return &config.Error{Kind: config.ErrToolUnauthenticated, Msg: "backend rejected the bearer token"}
	}
	if resp.StatusCode >= 400 {
		return &config.Error{Kind: config.ErrBackendHTTPError, Msg: fmt.Sprintf("backend returned %d: %s", resp.StatusCode, string(data))}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &config.Error{Kind: config.ErrBackendHTTPError, Msg: "decode backend response: " + err.Error()}
	}
	return nil
}
