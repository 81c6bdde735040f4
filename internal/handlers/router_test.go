package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/surgeseven/settlement/internal/apperrors"
	"github.com/surgeseven/settlement/internal/handlers/middleware"
	"github.com/surgeseven/settlement/internal/logger"
	"github.com/surgeseven/settlement/internal/models"
	"github.com/surgeseven/settlement/internal/service/tracker"
)

const (
	testSecretKey   = "test-secret"
	testWebhookHash = "test-webhook-hash"
)

// fakeLedger satisfies ledgerService with canned values per method.
type fakeLedger struct {
	balance    models.Balance
	balanceErr error

	withdrawal    models.WithdrawalRequest
	withdrawErr   error
	lastMethodID  uuid.UUID
	lastAmount    decimal.Decimal
	statusUpdated models.WithdrawalRequest
	statusErr     error
	lastStatus    string
	lastNotes     string
}

func (f *fakeLedger) StartSubscription(context.Context, models.User, string) (models.Subscription, string, error) {
	return models.Subscription{}, "", nil
}

func (f *fakeLedger) VerifySubscription(context.Context, string) (models.Subscription, error) {
	return models.Subscription{}, nil
}

func (f *fakeLedger) StartBookingPayment(context.Context, models.User, uuid.UUID) (models.Booking, string, error) {
	return models.Booking{}, "", nil
}

func (f *fakeLedger) VerifyBookingPayment(context.Context, models.User, string) (models.Booking, error) {
	return models.Booking{}, nil
}

func (f *fakeLedger) GetBalance(context.Context, uuid.UUID) (models.Balance, error) {
	return f.balance, f.balanceErr
}

func (f *fakeLedger) AddWithdrawalMethod(_ context.Context, userID uuid.UUID, bankCode, accountNumber, accountName string) (models.WithdrawalMethod, error) {
	return models.WithdrawalMethod{
		ID: uuid.New(), UserID: userID,
		BankCode: bankCode, AccountNumber: accountNumber, AccountName: accountName,
	}, nil
}

func (f *fakeLedger) ListWithdrawalMethods(context.Context, uuid.UUID) ([]models.WithdrawalMethod, error) {
	return nil, nil
}

func (f *fakeLedger) Withdraw(_ context.Context, _ uuid.UUID, methodID uuid.UUID, amount decimal.Decimal) (models.WithdrawalRequest, error) {
	f.lastMethodID = methodID
	f.lastAmount = amount
	return f.withdrawal, f.withdrawErr
}

func (f *fakeLedger) ListWithdrawals(context.Context, uuid.UUID) ([]models.WithdrawalRequest, error) {
	return nil, nil
}

func (f *fakeLedger) SetWithdrawalStatus(_ context.Context, _ uuid.UUID, status string, notes string) (models.WithdrawalRequest, error) {
	f.lastStatus = status
	f.lastNotes = notes
	return f.statusUpdated, f.statusErr
}

type fakeReconciler struct {
	updated models.WithdrawalRequest
	err     error

	calls      int
	lastID     int64
	lastStatus string
}

func (f *fakeReconciler) ReconcilePayoutEvent(_ context.Context, transferID int64, providerStatus string) (models.WithdrawalRequest, error) {
	f.calls++
	f.lastID = transferID
	f.lastStatus = providerStatus
	return f.updated, f.err
}

type fakeTracker struct {
	view tracker.View
	err  error

	lastTrackerID string
	lastAction    string
	lastStaff     bool
}

func (f *fakeTracker) Position(_ context.Context, trackerID string, user models.User) (tracker.View, error) {
	f.lastTrackerID = trackerID
	f.lastStaff = user.Staff
	return f.view, f.err
}

func (f *fakeTracker) Command(_ context.Context, trackerID string, _ models.User, action string) error {
	f.lastTrackerID = trackerID
	f.lastAction = action
	return f.err
}

func newTestServer(t *testing.T, ledger *fakeLedger, rec *fakeReconciler, trk *fakeTracker) *httptest.Server {
	t.Helper()

	if ledger == nil {
		ledger = &fakeLedger{}
	}
	if rec == nil {
		rec = &fakeReconciler{}
	}
	if trk == nil {
		trk = &fakeTracker{}
	}

	h := NewRouter(Config{SecretKey: testSecretKey, WebhookHash: testWebhookHash}, ledger, rec, trk, logger.NewNoOpLogger())
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return srv
}

func signToken(t *testing.T, user models.User) string {
	t.Helper()

	claims := middleware.AccessTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID: user.ID,
		Email:  user.Email,
		Staff:  user.Staff,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecretKey))
	require.NoError(t, err)
	return token
}

func doRequest(t *testing.T, method, url, token, body string) (*http.Response, string) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()

	return resp, string(respBody)
}

func TestAuth(t *testing.T) {
	srv := newTestServer(t, nil, nil, nil)

	t.Run("missing token", func(t *testing.T) {
		resp, _ := doRequest(t, http.MethodGet, srv.URL+"/api/balance", "", "")

		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("garbage token", func(t *testing.T) {
		resp, _ := doRequest(t, http.MethodGet, srv.URL+"/api/balance", "not-a-jwt", "")

		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("expired token", func(t *testing.T) {
		claims := middleware.AccessTokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
			UserID: uuid.New(),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecretKey))
		require.NoError(t, err)

		resp, _ := doRequest(t, http.MethodGet, srv.URL+"/api/balance", token, "")

		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("valid token", func(t *testing.T) {
		token := signToken(t, models.User{ID: uuid.New(), Email: "u@example.com"})

		resp, _ := doRequest(t, http.MethodGet, srv.URL+"/api/balance", token, "")

		require.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestBalanceHandler(t *testing.T) {
	ledger := &fakeLedger{balance: models.Balance{
		Current:   decimal.RequireFromString("150.5"),
		Withdrawn: decimal.NewFromInt(42),
	}}
	srv := newTestServer(t, ledger, nil, nil)
	token := signToken(t, models.User{ID: uuid.New()})

	resp, body := doRequest(t, http.MethodGet, srv.URL+"/api/balance", token, "")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"current": "150.5", "withdrawn": "42"}`, body)
}

func TestWithdrawHandler(t *testing.T) {
	methodID := uuid.New()

	t.Run("withdraw ok", func(t *testing.T) {
		ledger := &fakeLedger{withdrawal: models.WithdrawalRequest{
			ID:       uuid.New(),
			MethodID: methodID,
			Amount:   decimal.NewFromInt(400),
			Status:   models.WithdrawalStatusProcessing,
		}}
		srv := newTestServer(t, ledger, nil, nil)
		token := signToken(t, models.User{ID: uuid.New()})

		resp, body := doRequest(t, http.MethodPost, srv.URL+"/api/withdrawals", token,
			`{"method_id": "`+methodID.String()+`", "amount": 400}`)

		require.Equalf(t, http.StatusCreated, resp.StatusCode, "unexpected code. Body: %s", body)
		require.Contains(t, body, `"processing"`)
		require.Equal(t, methodID, ledger.lastMethodID)
		require.True(t, ledger.lastAmount.Equal(decimal.NewFromInt(400)))
	})

	t.Run("insufficient balance", func(t *testing.T) {
		ledger := &fakeLedger{withdrawErr: apperrors.ErrBalanceInsufficient}
		srv := newTestServer(t, ledger, nil, nil)
		token := signToken(t, models.User{ID: uuid.New()})

		resp, body := doRequest(t, http.MethodPost, srv.URL+"/api/withdrawals", token,
			`{"method_id": "`+methodID.String()+`", "amount": 400}`)

		require.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
		require.JSONEq(t, `{"error": "service_error", "message": "Insufficient balance"}`, body)
	})

	t.Run("non-positive amount", func(t *testing.T) {
		srv := newTestServer(t, nil, nil, nil)
		token := signToken(t, models.User{ID: uuid.New()})

		resp, _ := doRequest(t, http.MethodPost, srv.URL+"/api/withdrawals", token,
			`{"method_id": "`+methodID.String()+`", "amount": -5}`)

		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("unknown bank code rejected on method creation", func(t *testing.T) {
		srv := newTestServer(t, nil, nil, nil)
		token := signToken(t, models.User{ID: uuid.New()})

		resp, body := doRequest(t, http.MethodPost, srv.URL+"/api/withdrawals/methods", token,
			`{"bank_code": "999", "account_number": "0123456789", "account_name": "Test"}`)

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Contains(t, body, "validation_failed")
	})
}

func TestAdminWithdrawalHandler(t *testing.T) {
	withdrawalID := uuid.New()

	t.Run("staff can set status", func(t *testing.T) {
		ledger := &fakeLedger{statusUpdated: models.WithdrawalRequest{
			ID:     withdrawalID,
			Status: models.WithdrawalStatusFailed,
		}}
		srv := newTestServer(t, ledger, nil, nil)
		token := signToken(t, models.User{ID: uuid.New(), Staff: true})

		resp, body := doRequest(t, http.MethodPost, srv.URL+"/api/admin/withdrawals/"+withdrawalID.String(), token,
			`{"status": "failed", "notes": "bank rejected"}`)

		require.Equalf(t, http.StatusOK, resp.StatusCode, "unexpected code. Body: %s", body)
		require.Equal(t, "failed", ledger.lastStatus)
		require.Equal(t, "bank rejected", ledger.lastNotes)
	})

	t.Run("non-staff forbidden", func(t *testing.T) {
		srv := newTestServer(t, nil, nil, nil)
		token := signToken(t, models.User{ID: uuid.New(), Staff: false})

		resp, _ := doRequest(t, http.MethodPost, srv.URL+"/api/admin/withdrawals/"+withdrawalID.String(), token,
			`{"status": "failed"}`)

		require.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("invalid status", func(t *testing.T) {
		ledger := &fakeLedger{statusErr: apperrors.ErrInvalidStatus}
		srv := newTestServer(t, ledger, nil, nil)
		token := signToken(t, models.User{ID: uuid.New(), Staff: true})

		resp, _ := doRequest(t, http.MethodPost, srv.URL+"/api/admin/withdrawals/"+withdrawalID.String(), token,
			`{"status": "approved"}`)

		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})
}

func TestPayoutWebhookHandler(t *testing.T) {
	t.Run("valid event", func(t *testing.T) {
		rec := &fakeReconciler{updated: models.WithdrawalRequest{Status: models.WithdrawalStatusCompleted}}
		srv := newTestServer(t, nil, rec, nil)

		req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/webhooks/flutterwave",
			strings.NewReader(`{"data": {"id": 345678, "status": "SUCCESSFUL"}}`))
		require.NoError(t, err)
		req.Header.Set("verif-hash", testWebhookHash)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		_ = resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, 1, rec.calls)
		require.Equal(t, int64(345678), rec.lastID)
		require.Equal(t, "SUCCESSFUL", rec.lastStatus)
	})

	t.Run("missing signature", func(t *testing.T) {
		rec := &fakeReconciler{}
		srv := newTestServer(t, nil, rec, nil)

		resp, _ := doRequest(t, http.MethodPost, srv.URL+"/api/webhooks/flutterwave", "",
			`{"data": {"id": 345678, "status": "SUCCESSFUL"}}`)

		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.Zero(t, rec.calls, "unsigned events must never reach the reconciler")
	})

	t.Run("wrong signature", func(t *testing.T) {
		rec := &fakeReconciler{}
		srv := newTestServer(t, nil, rec, nil)

		req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/webhooks/flutterwave",
			strings.NewReader(`{"data": {"id": 345678, "status": "SUCCESSFUL"}}`))
		require.NoError(t, err)
		req.Header.Set("verif-hash", "wrong-hash")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		_ = resp.Body.Close()

		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.Zero(t, rec.calls)
	})

	t.Run("unknown transfer", func(t *testing.T) {
		rec := &fakeReconciler{err: apperrors.ErrWithdrawalNotFound}
		srv := newTestServer(t, nil, rec, nil)

		req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/webhooks/flutterwave",
			strings.NewReader(`{"data": {"id": 1, "status": "SUCCESSFUL"}}`))
		require.NoError(t, err)
		req.Header.Set("verif-hash", testWebhookHash)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		_ = resp.Body.Close()

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("missing transfer id", func(t *testing.T) {
		rec := &fakeReconciler{}
		srv := newTestServer(t, nil, rec, nil)

		req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/webhooks/flutterwave",
			strings.NewReader(`{"data": {"status": "SUCCESSFUL"}}`))
		require.NoError(t, err)
		req.Header.Set("verif-hash", testWebhookHash)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		_ = resp.Body.Close()

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Zero(t, rec.calls)
	})
}

func TestTrackerHandlers(t *testing.T) {
	t.Run("position", func(t *testing.T) {
		lastUpdated := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
		trk := &fakeTracker{view: tracker.View{
			Latitude:    6.5244,
			Longitude:   3.3792,
			Speed:       62,
			LastUpdated: &lastUpdated,
			Status:      models.TrackerStatusOnline,
		}}
		srv := newTestServer(t, nil, nil, trk)
		token := signToken(t, models.User{ID: uuid.New()})

		resp, body := doRequest(t, http.MethodGet, srv.URL+"/api/trackers/device-7/position", token, "")

		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "device-7", trk.lastTrackerID)
		require.False(t, trk.lastStaff)
		require.JSONEq(t, `{
			"latitude": 6.5244,
			"longitude": 3.3792,
			"speed": 62,
			"last_updated": "2026-08-30T12:00:00Z",
			"status": "online"
		}`, body)
	})

	t.Run("position for unknown truck", func(t *testing.T) {
		trk := &fakeTracker{err: apperrors.ErrTruckNotFound}
		srv := newTestServer(t, nil, nil, trk)
		token := signToken(t, models.User{ID: uuid.New()})

		resp, _ := doRequest(t, http.MethodGet, srv.URL+"/api/trackers/device-7/position", token, "")

		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("command", func(t *testing.T) {
		trk := &fakeTracker{}
		srv := newTestServer(t, nil, nil, trk)
		token := signToken(t, models.User{ID: uuid.New()})

		resp, body := doRequest(t, http.MethodPost, srv.URL+"/api/trackers/device-7/command", token,
			`{"action": "lock"}`)

		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "lock", trk.lastAction)
		require.JSONEq(t, `{"status": "sent"}`, body)
	})

	t.Run("unknown action", func(t *testing.T) {
		trk := &fakeTracker{err: apperrors.ErrInvalidAction}
		srv := newTestServer(t, nil, nil, trk)
		token := signToken(t, models.User{ID: uuid.New()})

		resp, _ := doRequest(t, http.MethodPost, srv.URL+"/api/trackers/device-7/command", token,
			`{"action": "restart"}`)

		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})
}
