package vies

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(testWriter{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

type testWriter struct{}

func (testWriter) Write(p []byte) (int, error) { return len(p), nil }

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Hour)
}

func registryStub(t *testing.T, calls *atomic.Int64, respond func(req checkVATRequest) (int, checkVATResponse)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/check-vat-number", r.URL.Path)
		var req checkVATRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		status, resp := respond(req)
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestValidateNonEUNotApplicable(t *testing.T) {
	var calls atomic.Int64
	srv := registryStub(t, &calls, nil)
	client := NewClient(Config{Endpoint: srv.URL}, nil, testLogger())

	res := client.Validate(context.Background(), "US123456789")
	require.False(t, res.Applicable)
	require.Nil(t, res.Valid)
	require.False(t, res.Unavailable)
	require.Zero(t, calls.Load(), "non-EU numbers must not reach the registry")
}

func TestValidateConfirmed(t *testing.T) {
	var calls atomic.Int64
	srv := registryStub(t, &calls, func(req checkVATRequest) (int, checkVATResponse) {
		require.Equal(t, "DE", req.CountryCode)
		require.Equal(t, "811569869", req.VATNumber)
		require.Equal(t, "BG", req.RequesterMemberStateCode)
		return http.StatusOK, checkVATResponse{
			Valid: true, Name: "SIEMENS AG", Address: "MUENCHEN", RequestIdentifier: "WAPIAAAAY",
		}
	})
	client := NewClient(Config{Endpoint: srv.URL, RequesterVAT: "BG123456789"}, nil, testLogger())

	res := client.Validate(context.Background(), "de 811-569-869")
	require.True(t, res.Applicable)
	require.True(t, res.Confirmed())
	require.Equal(t, "DE811569869", res.VATNumber)
	require.Equal(t, "SIEMENS AG", res.CompanyName)
	require.Equal(t, "WAPIAAAAY", res.RequestID)
	require.Equal(t, int64(1), calls.Load())
}

func TestValidateInvalidNumber(t *testing.T) {
	var calls atomic.Int64
	srv := registryStub(t, &calls, func(req checkVATRequest) (int, checkVATResponse) {
		return http.StatusOK, checkVATResponse{Valid: false}
	})
	client := NewClient(Config{Endpoint: srv.URL}, nil, testLogger())

	res := client.Validate(context.Background(), "FR00000000000")
	require.True(t, res.Applicable)
	require.NotNil(t, res.Valid)
	require.False(t, *res.Valid)
	require.False(t, res.Unavailable)
}

func TestValidateCacheHitSkipsRegistry(t *testing.T) {
	var calls atomic.Int64
	srv := registryStub(t, &calls, func(req checkVATRequest) (int, checkVATResponse) {
		return http.StatusOK, checkVATResponse{Valid: true, Name: "ACME OOD"}
	})
	client := NewClient(Config{Endpoint: srv.URL}, newTestCache(t), testLogger())

	first := client.Validate(context.Background(), "BG175074752")
	require.True(t, first.Confirmed())
	second := client.Validate(context.Background(), "BG175074752")
	require.True(t, second.Confirmed())
	require.Equal(t, "ACME OOD", second.CompanyName)
	require.Equal(t, int64(1), calls.Load(), "second lookup must be served from cache")
}

func TestValidateRegistryErrorDegrades(t *testing.T) {
	var calls atomic.Int64
	srv := registryStub(t, &calls, func(req checkVATRequest) (int, checkVATResponse) {
		return http.StatusInternalServerError, checkVATResponse{}
	})
	client := NewClient(Config{Endpoint: srv.URL}, newTestCache(t), testLogger())

	res := client.Validate(context.Background(), "IT00743110157")
	require.True(t, res.Applicable)
	require.Nil(t, res.Valid)
	require.True(t, res.Unavailable)
	require.NotEmpty(t, res.Err)

	// Degraded verdicts are never cached; the next call retries live.
	client.Validate(context.Background(), "IT00743110157")
	require.Equal(t, int64(2), calls.Load())
}

func TestValidateUnreachableRegistryDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()
	client := NewClient(Config{Endpoint: srv.URL, Timeout: time.Second}, nil, testLogger())

	res := client.Validate(context.Background(), "ES B12345674")
	require.True(t, res.Unavailable)
	require.Nil(t, res.Valid)
}

func TestValidateMalformedNumberRejectedLocally(t *testing.T) {
	var calls atomic.Int64
	srv := registryStub(t, &calls, nil)
	client := NewClient(Config{Endpoint: srv.URL}, nil, testLogger())

	res := client.Validate(context.Background(), "DE1234567890123")
	require.True(t, res.Applicable)
	require.NotNil(t, res.Valid)
	require.False(t, *res.Valid)
	require.Zero(t, calls.Load())
}

func TestBulkValidatePreservesOrder(t *testing.T) {
	var calls atomic.Int64
	srv := registryStub(t, &calls, func(req checkVATRequest) (int, checkVATResponse) {
		return http.StatusOK, checkVATResponse{Valid: req.CountryCode == "DE"}
	})
	client := NewClient(Config{Endpoint: srv.URL}, newTestCache(t), testLogger())

	results, err := client.BulkValidate(context.Background(), []string{
		"DE811569869", "US12345678", "FR40303265045", "DE129273398",
	}, 2)
	require.NoError(t, err)
	require.Len(t, results, 4)
	require.True(t, results[0].Confirmed())
	require.False(t, results[1].Applicable)
	require.False(t, results[2].Confirmed())
	require.True(t, results[3].Confirmed())
}

func TestRefreshCached(t *testing.T) {
	var calls atomic.Int64
	srv := registryStub(t, &calls, func(req checkVATRequest) (int, checkVATResponse) {
		return http.StatusOK, checkVATResponse{Valid: true}
	})
	cache := newTestCache(t)
	client := NewClient(Config{Endpoint: srv.URL}, cache, testLogger())

	client.Validate(context.Background(), "DE811569869")
	client.Validate(context.Background(), "FR40303265045")
	require.Equal(t, int64(2), calls.Load())

	refreshed, err := client.RefreshCached(context.Background(), 2)
	require.NoError(t, err)
	require.Equal(t, 2, refreshed)
	require.Equal(t, int64(4), calls.Load(), "refresh must hit the registry again")
}

func TestSplitAndSanitize(t *testing.T) {
	cc, no, ok := Split("  bg 1750.747-52 ")
	require.True(t, ok)
	require.Equal(t, "BG", cc)
	require.Equal(t, "175074752", no)

	_, _, ok = Split("BG1")
	require.False(t, ok)
}

func TestIsEUMember(t *testing.T) {
	require.True(t, IsEUMember("BG"))
	require.True(t, IsEUMember("el"))
	require.False(t, IsEUMember("GB"))
	require.False(t, IsEUMember("US"))
	require.False(t, IsEUMember(""))
}
