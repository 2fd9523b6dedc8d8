package pricefeed_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cosmossdk.io/log"
	"github.com/stretchr/testify/require"

	"github.com/surgeswap/surge/pricefeed"
)

func newTestServer(t *testing.T, sources ...pricefeed.Source) *pricefeed.Server {
	t.Helper()
	cfg := pricefeed.DefaultConfig()
	cfg.NodeAPIURL = "http://unused"
	require.NoError(t, cfg.Validate())

	feed := pricefeed.NewFeed(sources, dec("0.15"), 5*time.Minute, log.NewNopLogger())
	return pricefeed.NewServer(cfg, feed, log.NewNopLogger())
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ok", body["status"])
}

func TestServer_PriceOK(t *testing.T) {
	srv := newTestServer(t, &stubSource{name: "node", price: dec("1.25")})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/prices/uatom/uusdt", nil)
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "uatom/uusdt", body["pair"])
	require.Equal(t, dec("1.25").String(), body["price"])
	require.Equal(t, "node", body["source"])
}

func TestServer_PriceUnavailable(t *testing.T) {
	srv := newTestServer(t, &stubSource{name: "node", err: errors.New("down")})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/prices/uatom/uusdt", nil)
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServer_PriceIdenticalDenoms(t *testing.T) {
	srv := newTestServer(t, &stubSource{name: "node", price: dec("1")})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/prices/uatom/uatom", nil)
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Metrics(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}
