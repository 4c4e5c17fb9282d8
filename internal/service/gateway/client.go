// internal/service/gateway/client.go
package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"gymflow-service/internal/domain/payment"
	xerrors "gymflow-service/internal/pkg/errors"

	"go.uber.org/zap"
)

type Config struct {
	BaseURL string
	KeyID   string
	Secret  string
	Timeout time.Duration
}

// Client talks to the payment gateway: order creation before checkout and
// signature verification of the confirmation callback. Checkout itself
// happens on the gateway's side.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

type orderRequest struct {
	Amount   int64  `json:"amount"` // minor units
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type orderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// CreateOrder registers a payable order with the gateway. Network failures
// and timeouts surface as retryable upstream errors; the bill itself is
// never affected.
func (c *Client) CreateOrder(ctx context.Context, amount float64, currency, receipt string) (*payment.GatewayOrder, error) {
	body, err := json.Marshal(orderRequest{
		Amount:   int64(math.Round(amount * 100)),
		Currency: currency,
		Receipt:  receipt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode order request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.cfg.KeyID, c.cfg.Secret)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("gateway order creation failed", zap.String("receipt", receipt), zap.Error(err))
		return nil, fmt.Errorf("%w: gateway order creation: %v", xerrors.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: gateway returned %d", xerrors.ErrUpstreamUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("gateway rejected order (status %d)", resp.StatusCode)
	}

	var out orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode gateway response: %w", err)
	}

	return &payment.GatewayOrder{
		OrderID:  out.ID,
		Amount:   float64(out.Amount) / 100,
		Currency: out.Currency,
		Receipt:  out.Receipt,
	}, nil
}

// VerifySignature checks the HMAC-SHA256 signature the gateway attaches to
// its confirmation callback, computed over "orderID|paymentID" with the
// shared secret.
func (c *Client) VerifySignature(conf payment.GatewayConfirmation) error {
	if conf.OrderID == "" || conf.PaymentID == "" || conf.Signature == "" {
		return errors.New("incomplete gateway confirmation")
	}

	mac := hmac.New(sha256.New, []byte(c.cfg.Secret))
	mac.Write([]byte(conf.OrderID + "|" + conf.PaymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	if subtle.ConstantTimeCompare([]byte(expected), []byte(conf.Signature)) != 1 {
		return errors.New("gateway signature mismatch")
	}
	return nil
}
