package flutterwave

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

func TestNewReference(t *testing.T) {
	ref := NewReference()

	require.Len(t, ref, 14)
	require.Equal(t, "WDR_", ref[:4])
	require.NotContains(t, ref, "-")

	require.NotEqual(t, ref, NewReference(), "each call must produce a distinct reference")
}

func TestInitiateTransfer(t *testing.T) {
	transfer := Transfer{
		BankCode:        "058",
		AccountNumber:   "0123456789",
		Amount:          decimal.NewFromInt(2500),
		Narration:       "SurgeSeven withdrawal",
		BeneficiaryName: "Test Carrier",
	}

	t.Run("successful transfer", func(t *testing.T) {
		var gotAuth string
		var gotPayload map[string]any

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/transfers", r.URL.Path)
			gotAuth = r.Header.Get("Authorization")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))

			_, _ = w.Write([]byte(`{
				"status": "success",
				"message": "Transfer Queued Successfully",
				"data": {"id": 345678, "reference": "WDR_ab12cd34ef", "status": "NEW"}
			}`))
		}))
		defer srv.Close()

		client := NewClient(srv.URL, "FLWSECK_TEST", logger.NewNoOpLogger())

		result, err := client.InitiateTransfer(t.Context(), transfer)

		require.NoError(t, err)
		require.Equal(t, int64(345678), result.TransferID)
		require.Equal(t, "WDR_ab12cd34ef", result.Reference)
		require.Equal(t, "Bearer FLWSECK_TEST", gotAuth)
		require.Equal(t, "058", gotPayload["account_bank"])
		require.Equal(t, "0123456789", gotPayload["account_number"])
		require.Equal(t, float64(2500), gotPayload["amount"])
		require.Equal(t, "NGN", gotPayload["currency"])
		require.Equal(t, "SurgeSeven withdrawal", gotPayload["narration"])

		reference, ok := gotPayload["reference"].(string)
		require.True(t, ok)
		require.Equal(t, "WDR_", reference[:4], "reference is generated client side")
	})

	t.Run("fresh reference per attempt", func(t *testing.T) {
		var references []string

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var payload map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			references = append(references, payload["reference"].(string))

			_, _ = w.Write([]byte(`{"status": "success", "data": {"id": 1, "status": "NEW"}}`))
		}))
		defer srv.Close()

		client := NewClient(srv.URL, "key", logger.NewNoOpLogger())

		_, err := client.InitiateTransfer(t.Context(), transfer)
		require.NoError(t, err)
		_, err = client.InitiateTransfer(t.Context(), transfer)
		require.NoError(t, err)

		require.Len(t, references, 2)
		require.NotEqual(t, references[0], references[1], "retries must not reuse a reference")
	})

	t.Run("falls back to generated reference", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status": "success", "data": {"id": 42, "reference": "", "status": "NEW"}}`))
		}))
		defer srv.Close()

		client := NewClient(srv.URL, "key", logger.NewNoOpLogger())

		result, err := client.InitiateTransfer(t.Context(), transfer)

		require.NoError(t, err)
		require.NotEmpty(t, result.Reference, "reference must never be empty on success")
		require.Equal(t, "WDR_", result.Reference[:4])
	})

	t.Run("provider rejects", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"status": "error", "message": "Insufficient funds in customer wallet"}`))
		}))
		defer srv.Close()

		client := NewClient(srv.URL, "key", logger.NewNoOpLogger())

		_, err := client.InitiateTransfer(t.Context(), transfer)

		require.ErrorIs(t, err, apperrors.ErrPayoutRejected)
		require.Contains(t, err.Error(), "Insufficient funds")
	})

	t.Run("error status with 200 code", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status": "error", "message": "IP whitelisting required"}`))
		}))
		defer srv.Close()

		client := NewClient(srv.URL, "key", logger.NewNoOpLogger())

		_, err := client.InitiateTransfer(t.Context(), transfer)

		require.ErrorIs(t, err, apperrors.ErrPayoutRejected)
	})

	t.Run("provider down", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		client := NewClient(srv.URL, "key", logger.NewNoOpLogger())

		_, err := client.InitiateTransfer(t.Context(), transfer)

		require.ErrorIs(t, err, apperrors.ErrPayoutUnavailable)
	})

	t.Run("network error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close() // closed on purpose

		client := NewClient(srv.URL, "key", logger.NewNoOpLogger())

		_, err := client.InitiateTransfer(t.Context(), transfer)

		require.ErrorIs(t, err, apperrors.ErrPayoutUnavailable)
	})
}
