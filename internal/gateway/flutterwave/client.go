// Package flutterwave implements the outbound payout provider client.
package flutterwave

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/surgeseven/settlement/internal/apperrors"
	"github.com/surgeseven/settlement/internal/logger"
)

const (
	defaultBaseURL = "https://api.flutterwave.com/v3"
	currency       = "NGN"
)

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

type Transfer struct {
	BankCode        string
	AccountNumber   string
	Amount          decimal.Decimal
	Narration       string
	BeneficiaryName string
}

type Result struct {
	TransferID int64
	Reference  string
}

type transferResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		ID        int64  `json:"id"`
		Reference string `json:"reference"`
		Status    string `json:"status"`
	} `json:"data"`
}

// NewReference generates a payout reference. Every initiation attempt gets a
// fresh one so the provider can tell retries of distinct attempts apart.
func NewReference() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "WDR_" + hex[:10]
}

// InitiateTransfer starts an outbound transfer. A rejected transfer
// (apperrors.ErrPayoutRejected) must not be retried without user correction;
// an unavailable provider (apperrors.ErrPayoutUnavailable) may be retried,
// which produces a new reference.
func (c *Client) InitiateTransfer(ctx context.Context, t Transfer) (Result, error) {
	var result Result

	reference := NewReference()
	payload := map[string]any{
		"account_bank":     t.BankCode,
		"account_number":   t.AccountNumber,
		"amount":           t.Amount.InexactFloat64(),
		"narration":        t.Narration,
		"currency":         currency,
		"reference":        reference,
		"beneficiary_name": t.BeneficiaryName,
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	data, err := json.Marshal(payload)
	if err != nil {
		return result, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/transfers", bytes.NewReader(data))
	if err != nil {
		return result, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return result, fmt.Errorf("%w: %v", apperrors.ErrPayoutUnavailable, err)
	}
	defer resp.Body.Close() // nolint:errcheck

	if resp.StatusCode >= 500 {
		return result, fmt.Errorf("%w: status code %d", apperrors.ErrPayoutUnavailable, resp.StatusCode)
	}

	var body transferResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return result, fmt.Errorf("%w: decode response: %v", apperrors.ErrPayoutUnavailable, err)
	}

	if resp.StatusCode >= 400 || body.Status != "success" {
		c.logger.Warn("Transfer rejected", "reference", reference, "message", body.Message)
		return result, fmt.Errorf("%w: %s", apperrors.ErrPayoutRejected, body.Message)
	}

	result.TransferID = body.Data.ID
	result.Reference = body.Data.Reference
	if result.Reference == "" {
		result.Reference = reference
	}

	c.logger.Debug("Transfer initiated", "transfer_id", result.TransferID, "reference", result.Reference)
	return result, nil
}
