package paystack

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/surgeseven/settlement/internal/apperrors"
	"github.com/surgeseven/settlement/internal/logger"
)

func TestKobo(t *testing.T) {
	tests := []struct {
		name    string
		amount  decimal.Decimal
		want    int64
		wantErr bool
	}{
		{name: "whole naira", amount: decimal.NewFromInt(5000), want: 500000},
		{name: "with kobo", amount: decimal.RequireFromString("47250.50"), want: 4725050},
		{name: "zero", amount: decimal.Zero, want: 0},
		{name: "fraction of kobo", amount: decimal.RequireFromString("10.005"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Kobo(tt.amount)

			if tt.wantErr {
				require.Error(t, err, "sub-kobo amounts must not be silently rounded")
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestInitializeTransaction(t *testing.T) {
	t.Run("successful initialization", func(t *testing.T) {
		var gotAuth string
		var gotPayload map[string]any

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/transaction/initialize", r.URL.Path)
			gotAuth = r.Header.Get("Authorization")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"status": true,
				"message": "Authorization URL created",
				"data": {
					"authorization_url": "https://checkout.paystack.com/abc123",
					"access_code": "abc123",
					"reference": "ref-1"
				}
			}`))
		}))
		defer srv.Close()

		client := NewClient(srv.URL, "sk_test_xyz", logger.NewNoOpLogger())

		authURL, err := client.InitializeTransaction(t.Context(), "shipper@example.com", 500000, "ref-1", "https://app.example.com/verify")

		require.NoError(t, err)
		require.Equal(t, "https://checkout.paystack.com/abc123", authURL)
		require.Equal(t, "Bearer sk_test_xyz", gotAuth)
		require.Equal(t, "shipper@example.com", gotPayload["email"])
		require.Equal(t, float64(500000), gotPayload["amount"])
		require.Equal(t, "ref-1", gotPayload["reference"])
		require.Equal(t, "https://app.example.com/verify", gotPayload["callback_url"])
	})

	t.Run("provider rejects", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"status": false, "message": "Invalid key"}`))
		}))
		defer srv.Close()

		client := NewClient(srv.URL, "bad-key", logger.NewNoOpLogger())

		_, err := client.InitializeTransaction(t.Context(), "shipper@example.com", 100, "ref-2", "")

		require.ErrorIs(t, err, apperrors.ErrProviderRejected)
	})

	t.Run("provider down", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		client := NewClient(srv.URL, "key", logger.NewNoOpLogger())

		_, err := client.InitializeTransaction(t.Context(), "shipper@example.com", 100, "ref-3", "")

		require.ErrorIs(t, err, apperrors.ErrProviderUnavailable)
	})

	t.Run("network error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close() // closed on purpose

		client := NewClient(srv.URL, "key", logger.NewNoOpLogger())

		_, err := client.InitializeTransaction(t.Context(), "shipper@example.com", 100, "ref-4", "")

		require.ErrorIs(t, err, apperrors.ErrProviderUnavailable)
	})
}

func TestVerifyTransaction(t *testing.T) {
	t.Run("successful charge", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodGet, r.Method)
			require.Equal(t, "/transaction/verify/ref-1", r.URL.Path)

			_, _ = w.Write([]byte(`{
				"status": true,
				"message": "Verification successful",
				"data": {"status": "success", "amount": 500000, "paid_at": "2026-08-30T12:00:00.000Z"}
			}`))
		}))
		defer srv.Close()

		client := NewClient(srv.URL, "key", logger.NewNoOpLogger())

		v, err := client.VerifyTransaction(t.Context(), "ref-1")

		require.NoError(t, err)
		require.True(t, v.Succeeded)
		require.Equal(t, "success", v.Status)
		require.Equal(t, int64(500000), v.AmountKobo)
		require.Equal(t, "2026-08-30T12:00:00.000Z", v.PaidAt)
	})

	t.Run("abandoned charge", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{
				"status": true,
				"message": "Verification successful",
				"data": {"status": "abandoned", "amount": 500000, "paid_at": ""}
			}`))
		}))
		defer srv.Close()

		client := NewClient(srv.URL, "key", logger.NewNoOpLogger())

		v, err := client.VerifyTransaction(t.Context(), "ref-2")

		require.NoError(t, err, "abandoned is a valid provider answer, not an error")
		require.False(t, v.Succeeded)
		require.Equal(t, "abandoned", v.Status)
	})

	t.Run("unknown reference", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"status": false, "message": "Transaction reference not found"}`))
		}))
		defer srv.Close()

		client := NewClient(srv.URL, "key", logger.NewNoOpLogger())

		_, err := client.VerifyTransaction(t.Context(), "no-such-ref")

		require.ErrorIs(t, err, apperrors.ErrProviderRejected)
	})

	t.Run("provider down", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		client := NewClient(srv.URL, "key", logger.NewNoOpLogger())

		_, err := client.VerifyTransaction(t.Context(), "ref-3")

		require.ErrorIs(t, err, apperrors.ErrProviderUnavailable)
	})
}
