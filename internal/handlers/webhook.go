package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/surgeseven/settlement/internal/apperrors"
	"github.com/surgeseven/settlement/internal/handlers/render"
	"github.com/surgeseven/settlement/internal/logger"
)

// handlePayoutWebhook receives transfer status events from the payout
// provider. The provider authenticates itself with the verif-hash header,
// not a user token, so the handler stays outside the auth middleware.
func handlePayoutWebhook(webhookHash string, service reconcilerService, l logger.Logger) http.Handler {
	type request struct {
		Data struct {
			ID     int64  `json:"id"`
			Status string `json:"status"`
		} `json:"data"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get("verif-hash")
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(webhookHash)) != 1 {
			render.ServiceError(w, "Invalid webhook signature", http.StatusUnauthorized)
			return
		}

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			render.DecodeError(w, err)
			return
		}
		if req.Data.ID == 0 {
			render.ServiceError(w, "Transfer id is required", http.StatusBadRequest)
			return
		}

		_, err := service.ReconcilePayoutEvent(r.Context(), req.Data.ID, req.Data.Status)

		switch {
		case err == nil:
			w.WriteHeader(http.StatusOK)
		case errors.Is(err, apperrors.ErrWithdrawalNotFound):
			render.ServiceError(w, "Unknown transfer", http.StatusBadRequest)
		default:
			l.Error("Failed to reconcile payout event", "error", err, "transfer_id", req.Data.ID)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
