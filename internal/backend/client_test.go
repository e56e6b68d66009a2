package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenwick-labs/voicegate/internal/config"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*Client, func()) {
	t.Helper()
	srv := httptest.NewServer(handler)
	client := New(config.BackendConfig{BaseURL: srv.URL, Timeout: 2 * time.Second})
	return client, srv.Close
}

func TestClientGetBalance(t *testing.T) {
	client, closeFn := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/account/balance", r.URL.Path)
		assert.Equal(t, "Bearer tok123", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"main":100.5,"savings":200,"currency":"USD"}`))
	})
	defer closeFn()

	bal, err := client.GetBalance(context.Background(), "tok123")
	require.NoError(t, err)
	assert.Equal(t, 100.5, bal.Main)
	assert.Equal(t, 200.0, bal.Savings)
	assert.Equal(t, "USD", bal.Currency)
}

func TestClientUnauthorizedMapsToToolUnauthenticated(t *testing.T) {
	client, closeFn := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	defer closeFn()

	_, err := client.GetBalance(context.Background(), "bad-token")
	require.Error(t, err)
	var cfgErr *config.Error
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, config.ErrToolUnauthenticated, cfgErr.Kind)
}

func TestClientHTTPErrorMapsToBackendHTTPError(t *testing.T) {
	client, closeFn := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	})
	defer closeFn()

	_, err := client.GetAccountDetails(context.Background(), "tok")
	require.Error(t, err)
	var cfgErr *config.Error
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, config.ErrBackendHTTPError, cfgErr.Kind)
}

func TestClientFreezeThenUnfreezeRestoresActive(t *testing.T) {
	state := "active"
	client, closeFn := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/card/freeze":
			state = "frozen"
		case "/api/card/unfreeze":
			state = "active"
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"state":"` + state + `"}`))
	})
	defer closeFn()

	frozen, err := client.FreezeCard(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "frozen", frozen.State)

	unfrozen, err := client.UnfreezeCard(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "active", unfrozen.State)
}

func TestClientRecentTransactionsLimit(t *testing.T) {
	client, closeFn := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"date":"2026-01-01","description":"coffee","amount":4.5,"sign":"-"}]`))
	})
	defer closeFn()

	txns, err := client.GetRecentTransactions(context.Background(), "tok", 5)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "coffee", txns[0].Description)
}
