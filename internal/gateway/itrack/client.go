// Package itrack talks to the GPS tracking provider web API.
// All calls are POSTs to a single endpoint dispatched by the 'action'
// query parameter and authenticated by a session token.
package itrack

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/surgeseven/settlement/internal/apperrors"
	"github.com/surgeseven/settlement/internal/logger"
)

const (
	// Relay command opcodes from the provider docs
	CmdSetRelayOil = "TYPE_SERVER_SET_RELAY_OIL"

	// Fixed opcode password from the provider docs
	cmdPassword = "zhuyi"

	// Provider status codes
	statusOK            = 0
	statusSendConfirmed = 6
)

type Config struct {
	BaseURL  string
	Username string
	Password string
}

type Client struct {
	cfg    Config
	client *http.Client
	logger logger.Logger
}

func NewClient(cfg Config, l logger.Logger) *Client {
	return &Client{
		cfg: cfg,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: l,
	}
}

// Error is a non-zero provider status with its reason text.
type Error struct {
	Status int
	Cause  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("tracker provider status %d: %s", e.Status, e.Cause)
}

// Record is a raw position record as the provider sends it. Coordinate and
// timestamp fields come in provider-specific pairs; normalization happens
// in the tracker service, not here.
type Record struct {
	CalLat      *float64 `json:"callat"`
	CalLon      *float64 `json:"callon"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Speed       float64  `json:"speed"`
	UpdateTime  *int64   `json:"updatetime"`
	ArrivedTime *int64   `json:"arrivedtime"`
	Moving      int      `json:"moving"`
	Voltage     *float64 `json:"voltagev"`
	Satellites  *int     `json:"gpsvalidnum"`
	Radius      float64  `json:"radius"`
	Course      *float64 `json:"course"`
	Altitude    float64  `json:"altitude"`
	StrStatus   string   `json:"strstatus"`
	Alarm       int      `json:"alarm"`
	Alarm2      int      `json:"alarm2"`
	ParkDur     int64    `json:"parkduration"`
	AccDur      int64    `json:"accduration"`
}

type apiResponse struct {
	Status  int      `json:"status"`
	Cause   string   `json:"cause"`
	Token   string   `json:"token"`
	Records []Record `json:"records"`
}

// Login obtains a fresh session token. The provider expects the password
// md5-hexed, not in clear.
func (c *Client) Login(ctx context.Context) (string, error) {
	payload := map[string]any{
		"type":     "USER",
		"from":     "web",
		"username": c.cfg.Username,
		"password": md5Hex(c.cfg.Password),
		"browser":  "SurgeSevenWebApp",
	}

	var body apiResponse
	if err := c.post(ctx, "login", "", payload, &body); err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrAuthUnavailable, err)
	}

	if body.Status != statusOK || body.Token == "" {
		c.logger.Warn("Tracker login failed", "status", body.Status, "cause", body.Cause)
		return "", fmt.Errorf("%w: %s", apperrors.ErrAuthUnavailable, body.Cause)
	}

	return body.Token, nil
}

// LastPosition fetches the latest known record for one device.
func (c *Client) LastPosition(ctx context.Context, token string, deviceID string) (Record, error) {
	payload := map[string]any{
		"deviceids":             []string{deviceID},
		"lastquerypositiontime": 0,
	}

	var body apiResponse
	if err := c.post(ctx, "lastposition", token, payload, &body); err != nil {
		return Record{}, err
	}

	if body.Status != statusOK {
		return Record{}, &Error{Status: body.Status, Cause: body.Cause}
	}

	if len(body.Records) == 0 {
		return Record{}, apperrors.ErrNoPositionData
	}

	return body.Records[0], nil
}

// SendCommand issues a relay command to one device. Anything but the
// documented send-confirmed status is a failure with the provider's reason.
func (c *Client) SendCommand(ctx context.Context, token string, deviceID string, cmdCode string, params []string) error {
	payload := map[string]any{
		"deviceid": deviceID,
		"cmdcode":  cmdCode,
		"params":   params,
		"cmdpwd":   cmdPassword,
	}

	var body apiResponse
	if err := c.post(ctx, "sendcmd", token, payload, &body); err != nil {
		return err
	}

	if body.Status != statusSendConfirmed {
		cause := body.Cause
		if cause == "" {
			cause = fmt.Sprintf("status code %d", body.Status)
		}
		c.logger.Warn("Tracker command not confirmed", "device_id", deviceID, "status", body.Status, "cause", cause)
		return fmt.Errorf("%w: %s", apperrors.ErrCommandFailed, cause)
	}

	return nil
}

func (c *Client) post(ctx context.Context, action string, token string, payload any, out *apiResponse) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	url := c.cfg.BaseURL + "?action=" + action
	if token != "" {
		url += "&token=" + token
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func md5Hex(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}
