package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/surgeseven/settlement/internal/apperrors"
	"github.com/surgeseven/settlement/internal/handlers/render"
	"github.com/surgeseven/settlement/internal/handlers/userctx"
	"github.com/surgeseven/settlement/internal/logger"
	"github.com/surgeseven/settlement/internal/models"
)

type withdrawalResponse struct {
	ID          uuid.UUID       `json:"id"`
	MethodID    uuid.UUID       `json:"method_id"`
	Amount      decimal.Decimal `json:"amount"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	ProcessedAt *time.Time      `json:"processed_at,omitempty"`
}

func toWithdrawalResponse(wr models.WithdrawalRequest) withdrawalResponse {
	return withdrawalResponse{
		ID:          wr.ID,
		MethodID:    wr.MethodID,
		Amount:      wr.Amount,
		Status:      wr.Status,
		CreatedAt:   wr.CreatedAt,
		ProcessedAt: wr.ProcessedAt,
	}
}

type methodResponse struct {
	ID            uuid.UUID `json:"id"`
	BankCode      string    `json:"bank_code"`
	AccountNumber string    `json:"account_number"`
	AccountName   string    `json:"account_name"`
	Verified      bool      `json:"verified"`
	CreatedAt     time.Time `json:"created_at"`
}

func toMethodResponse(m models.WithdrawalMethod) methodResponse {
	return methodResponse{
		ID:            m.ID,
		BankCode:      m.BankCode,
		AccountNumber: m.AccountNumber,
		AccountName:   m.AccountName,
		Verified:      m.Verified,
		CreatedAt:     m.CreatedAt,
	}
}

func handleBalance(service ledgerService, l logger.Logger) http.Handler {
	type response struct {
		Current   decimal.Decimal `json:"current"`
		Withdrawn decimal.Decimal `json:"withdrawn"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		balance, err := service.GetBalance(r.Context(), user.ID)

		switch err {
		case nil:
			render.JSON(w, response{Current: balance.Current, Withdrawn: balance.Withdrawn})
		default:
			l.Error("Failed to get balance", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleAddWithdrawalMethod(service ledgerService, l logger.Logger) http.Handler {
	type request struct {
		BankCode      string `json:"bank_code" validate:"required,bankcode"`
		AccountNumber string `json:"account_number" validate:"required,len=10,numeric"`
		AccountName   string `json:"account_name" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		method, err := service.AddWithdrawalMethod(r.Context(), user.ID, req.BankCode, req.AccountNumber, req.AccountName)

		switch err {
		case nil:
			render.JSONWithStatus(w, toMethodResponse(method), http.StatusCreated)
		default:
			l.Error("Failed to add withdrawal method", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleListWithdrawalMethods(service ledgerService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		methods, err := service.ListWithdrawalMethods(r.Context(), user.ID)
		if err != nil {
			l.Error("Failed to list withdrawal methods", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		out := make([]methodResponse, 0, len(methods))
		for _, m := range methods {
			out = append(out, toMethodResponse(m))
		}
		render.JSON(w, out)
	})
}

func handleWithdraw(service ledgerService, l logger.Logger) http.Handler {
	type request struct {
		MethodID uuid.UUID       `json:"method_id" validate:"required"`
		Amount   decimal.Decimal `json:"amount" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		if !req.Amount.IsPositive() {
			render.ServiceError(w, "Amount must be positive", http.StatusUnprocessableEntity)
			return
		}

		withdrawal, err := service.Withdraw(r.Context(), user.ID, req.MethodID, req.Amount)

		switch {
		case err == nil:
			render.JSONWithStatus(w, toWithdrawalResponse(withdrawal), http.StatusCreated)
		case errors.Is(err, apperrors.ErrBalanceInsufficient):
			render.ServiceError(w, "Insufficient balance", http.StatusPaymentRequired)
		case errors.Is(err, apperrors.ErrMethodNotFound):
			render.ServiceError(w, "Withdrawal method not found", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrMethodNotVerified):
			render.ServiceError(w, "Withdrawal method is not verified", http.StatusForbidden)
		case errors.Is(err, apperrors.ErrPayoutUnavailable):
			render.ServiceError(w, "Payout provider is unavailable", http.StatusBadGateway)
		case errors.Is(err, apperrors.ErrPayoutRejected):
			render.ServiceError(w, "Payout provider rejected the transfer", http.StatusBadGateway)
		default:
			l.Error("Failed to create withdrawal", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleListWithdrawals(service ledgerService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		withdrawals, err := service.ListWithdrawals(r.Context(), user.ID)
		if err != nil {
			l.Error("Failed to list withdrawals", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		out := make([]withdrawalResponse, 0, len(withdrawals))
		for _, wr := range withdrawals {
			out = append(out, toWithdrawalResponse(wr))
		}
		render.JSON(w, out)
	})
}

func handleAdminWithdrawalStatus(service ledgerService, l logger.Logger) http.Handler {
	type request struct {
		Status string `json:"status" validate:"required"`
		Notes  string `json:"notes"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			render.ServiceError(w, "Withdrawal id must be a valid uuid", http.StatusUnprocessableEntity)
			return
		}

		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		withdrawal, err := service.SetWithdrawalStatus(r.Context(), id, req.Status, req.Notes)

		switch {
		case err == nil:
			render.JSON(w, toWithdrawalResponse(withdrawal))
		case errors.Is(err, apperrors.ErrInvalidStatus):
			render.ServiceError(w, "Unknown withdrawal status", http.StatusUnprocessableEntity)
		case errors.Is(err, apperrors.ErrWithdrawalNotFound):
			render.ServiceError(w, "Withdrawal not found", http.StatusNotFound)
		default:
			l.Error("Failed to set withdrawal status", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
