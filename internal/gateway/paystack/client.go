// Package paystack implements the inbound payment provider client:
// charge initialization and verification.
package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/surgeseven/settlement/internal/apperrors"
	"github.com/surgeseven/settlement/internal/logger"
)

const defaultBaseURL = "https://api.paystack.co"

type Client struct {
	BaseURL string

	secretKey string
	client    *http.Client
	logger    logger.Logger
}

func NewClient(baseURL string, secretKey string, l logger.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		BaseURL:   baseURL,
		secretKey: secretKey,
		client:    &http.Client{},
		logger:    l,
	}
}

// Kobo converts a decimal naira amount to the provider's minor unit.
// Fails when the amount does not divide evenly into kobo: the provider
// only accepts integers and silent rounding would move money.
func Kobo(amount decimal.Decimal) (int64, error) {
	shifted := amount.Shift(2)
	if !shifted.Equal(shifted.Truncate(0)) {
		return 0, fmt.Errorf("amount %s is not representable in kobo", amount)
	}

	return shifted.IntPart(), nil
}

type Verification struct {
	Succeeded  bool
	Status     string
	AmountKobo int64
	PaidAt     string
}

type initializeResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

type verifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status string `json:"status"`
		Amount int64  `json:"amount"`
		PaidAt string `json:"paid_at"`
	} `json:"data"`
}

// InitializeTransaction registers a charge and returns the URL the payer
// must be redirected to. The reference must already be persisted locally.
func (c *Client) InitializeTransaction(ctx context.Context, email string, amountKobo int64, reference string, callbackURL string) (string, error) {
	payload := map[string]any{
		"email":        email,
		"amount":       amountKobo,
		"reference":    reference,
		"callback_url": callbackURL,
	}

	var body initializeResponse
	status, err := c.post(ctx, "/transaction/initialize", payload, &body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrProviderUnavailable, err)
	}

	switch {
	case status >= 500:
		return "", fmt.Errorf("%w: status code %d", apperrors.ErrProviderUnavailable, status)
	case status >= 400 || !body.Status:
		c.logger.Warn("Charge initialization rejected", "reference", reference, "message", body.Message)
		return "", fmt.Errorf("%w: %s", apperrors.ErrProviderRejected, body.Message)
	}

	return body.Data.AuthorizationURL, nil
}

// VerifyTransaction reads the charge status. It has no side effects on
// the provider side, so callers may repeat it for the same reference.
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (Verification, error) {
	var v Verification

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/transaction/verify/"+reference, nil)
	if err != nil {
		return v, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return v, fmt.Errorf("%w: %v", apperrors.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close() // nolint:errcheck

	if resp.StatusCode >= 500 {
		return v, fmt.Errorf("%w: status code %d", apperrors.ErrProviderUnavailable, resp.StatusCode)
	}

	var body verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return v, fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode >= 400 || !body.Status {
		c.logger.Warn("Charge verification rejected", "reference", reference, "message", body.Message)
		return v, fmt.Errorf("%w: %s", apperrors.ErrProviderRejected, body.Message)
	}

	v.Status = body.Data.Status
	v.Succeeded = body.Data.Status == "success"
	v.AmountKobo = body.Data.Amount
	v.PaidAt = body.Data.PaidAt

	return v, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	data, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && resp.StatusCode < 500 {
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}

	return resp.StatusCode, nil
}
