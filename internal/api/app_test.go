package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"MarketSim/internal/api"
	"MarketSim/internal/auth"
	"MarketSim/internal/catalog"
	"MarketSim/internal/ledger"
	"MarketSim/pkg/kit"
)

const jwtSecret = "test-secret"

func newMarketTS(t *testing.T, mutate func(*api.HTTPDeps)) *httptest.Server {
	t.Helper()

	deps := api.HTTPDeps{
		Log:                 zap.NewNop(),
		Service:             "marketd",
		Ledger:              ledger.New(catalog.MustNew(catalog.DefaultSeed())),
		PurchaseLimitPerMin: 100,
	}
	if mutate != nil {
		mutate(&deps)
	}

	ts := httptest.NewServer(api.NewHandler(deps))
	t.Cleanup(ts.Close)
	return ts
}

func doReq(t *testing.T, method, url, token, body string) (*http.Response, []byte) {
	t.Helper()

	req, err := http.NewRequest(method, url, bytes.NewBufferString(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, b
}

func mustToken(t *testing.T, role string) string {
	t.Helper()

	tok, err := auth.NewTokenMaker(jwtSecret).New("ops", role, time.Hour)
	require.NoError(t, err)
	return tok
}

func TestPublicAPI_Health(t *testing.T) {
	ts := newMarketTS(t, nil)

	resp, _ := doReq(t, http.MethodGet, ts.URL+"/healthz", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doReq(t, http.MethodGet, ts.URL+"/readyz", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ready","users":3,"products":3}`, string(body))
}

func TestPublicAPI_CatalogAndPurchase(t *testing.T) {
	ts := newMarketTS(t, nil)

	resp, body := doReq(t, http.MethodGet, ts.URL+"/users", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var users []catalog.User
	require.NoError(t, json.Unmarshal(body, &users))
	assert.Len(t, users, 3)

	resp, _ = doReq(t, http.MethodPost, ts.URL+"/purchases", "", `{"user_id":3,"product_id":3}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body = doReq(t, http.MethodGet, ts.URL+"/users/3", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var u catalog.User
	require.NoError(t, json.Unmarshal(body, &u))
	assert.Equal(t, int64(100000), u.Balance)

	resp, body = doReq(t, http.MethodGet, ts.URL+"/products/3/buyers", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var buyers []catalog.User
	require.NoError(t, json.Unmarshal(body, &buyers))
	require.Len(t, buyers, 1)
	assert.Equal(t, 3, buyers[0].ID)
}

func TestPublicAPI_ErrorsCarryRequestID(t *testing.T) {
	ts := newMarketTS(t, nil)

	resp, body := doReq(t, http.MethodPost, ts.URL+"/purchases", "", `{"user_id":99,"product_id":1}`)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var e kit.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &e))
	assert.Equal(t, "unknown party", e.Error)
	assert.NotEmpty(t, e.RequestID)
}

func TestPublicAPI_OperatorAuth(t *testing.T) {
	ts := newMarketTS(t, func(d *api.HTTPDeps) {
		d.Tokens = auth.NewTokenMaker(jwtSecret)
	})
	purchase := `{"user_id":2,"product_id":1}`

	resp, _ := doReq(t, http.MethodPost, ts.URL+"/purchases", "", purchase)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doReq(t, http.MethodPost, ts.URL+"/purchases", "not-a-jwt", purchase)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doReq(t, http.MethodPost, ts.URL+"/purchases", mustToken(t, "viewer"), purchase)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = doReq(t, http.MethodPost, ts.URL+"/purchases", mustToken(t, auth.RoleOperator), purchase)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	// reads stay public
	resp, _ = doReq(t, http.MethodGet, ts.URL+"/users/2/products", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPublicAPI_PurchaseRateLimit(t *testing.T) {
	ts := newMarketTS(t, func(d *api.HTTPDeps) {
		d.PurchaseLimitPerMin = 2
	})
	purchase := `{"user_id":3,"product_id":1}`

	for i := 0; i < 2; i++ {
		resp, _ := doReq(t, http.MethodPost, ts.URL+"/purchases", "", purchase)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, _ := doReq(t, http.MethodPost, ts.URL+"/purchases", "", purchase)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "60", resp.Header.Get("Retry-After"))

	resp, _ = doReq(t, http.MethodGet, ts.URL+"/users", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPublicAPI_Metrics(t *testing.T) {
	ts := newMarketTS(t, func(d *api.HTTPDeps) {
		d.Registry = prometheus.NewRegistry()
		d.MetricsEnabled = true
		d.MetricsToken = "scrape"
	})

	resp, _ := doReq(t, http.MethodPost, ts.URL+"/purchases", "", `{"user_id":1,"product_id":1}`)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = doReq(t, http.MethodGet, ts.URL+"/metrics", "", "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := doReq(t, http.MethodGet, ts.URL+"/metrics", "scrape", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `market_purchases_total{result="insufficient_funds"} 1`)
	assert.Contains(t, string(body), `market_http_requests_total{method="POST",path="/purchases",service="marketd",status="422"} 1`)
}

func TestPublicAPI_MetricsDisabledWithoutRegistry(t *testing.T) {
	ts := newMarketTS(t, func(d *api.HTTPDeps) {
		d.MetricsEnabled = true
	})

	resp, _ := doReq(t, http.MethodGet, ts.URL+"/metrics", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPublicAPI_SwaggerDoc(t *testing.T) {
	ts := newMarketTS(t, nil)

	resp, body := doReq(t, http.MethodGet, ts.URL+"/swagger/doc.json", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var doc struct {
		Info  map[string]any            `json:"info"`
		Paths map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(body, &doc))
	assert.Equal(t, "MarketSim API", doc.Info["title"])
	assert.Contains(t, doc.Paths["/purchases"], "post")
	assert.Contains(t, doc.Paths["/products/{id}/buyers"], "get")
}
