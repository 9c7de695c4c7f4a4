package fxprovider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/estudio/backend/internal/domain/fx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientLookup(t *testing.T) {
	day := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	t.Run("parses a successful quote", func(t *testing.T) {
		var gotPath, gotAuth string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotAuth = r.Header.Get("Authorization")
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"date":"2025-01-15","rate":"1302.500000"}`))
		}))
		defer server.Close()

		client := NewClient(Config{BaseURL: server.URL, Token: "secret-token"}, nil)
		rate, err := client.Lookup(context.Background(), day)
		require.NoError(t, err)

		assert.True(t, rate.Equal(decimal.RequireFromString("1302.5")))
		assert.Equal(t, "/rates/2025-01-15", gotPath)
		assert.Equal(t, "Bearer secret-token", gotAuth)
	})

	t.Run("maps 404 to the not-found sentinel", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		client := NewClient(Config{BaseURL: server.URL}, nil)
		_, err := client.Lookup(context.Background(), day)
		assert.ErrorIs(t, err, fx.ErrRateNotFound)
	})

	t.Run("maps server errors to ProviderError with the status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "upstream down", http.StatusServiceUnavailable)
		}))
		defer server.Close()

		client := NewClient(Config{BaseURL: server.URL}, nil)
		_, err := client.Lookup(context.Background(), day)

		var provErr *fx.ProviderError
		require.True(t, errors.As(err, &provErr))
		assert.Equal(t, http.StatusServiceUnavailable, provErr.StatusCode)
		assert.NotErrorIs(t, err, fx.ErrRateNotFound)
	})

	t.Run("rejects malformed and non-positive rates", func(t *testing.T) {
		for _, body := range []string{
			`{"date":"2025-01-15","rate":"abc"}`,
			`{"date":"2025-01-15","rate":"0"}`,
			`{"date":"2025-01-15","rate":"-1"}`,
			`not json`,
		} {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))

			client := NewClient(Config{BaseURL: server.URL}, nil)
			_, err := client.Lookup(context.Background(), day)

			var provErr *fx.ProviderError
			assert.True(t, errors.As(err, &provErr), "expected ProviderError for body %q", body)
			server.Close()
		}
	})

	t.Run("normalizes the requested date", func(t *testing.T) {
		var gotPath string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			_, _ = w.Write([]byte(`{"date":"2025-01-15","rate":"1300"}`))
		}))
		defer server.Close()

		client := NewClient(Config{BaseURL: server.URL}, nil)
		_, err := client.Lookup(context.Background(), day.Add(18*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, "/rates/2025-01-15", gotPath)
	})

	t.Run("unreachable provider yields ProviderError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		client := NewClient(Config{BaseURL: server.URL, Timeout: time.Second}, nil)
		_, err := client.Lookup(context.Background(), day)

		var provErr *fx.ProviderError
		assert.True(t, errors.As(err, &provErr))
	})
}
