package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"gymflow-service/internal/domain/payment"
	xerrors "gymflow-service/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCreateOrderSendsMinorUnits(t *testing.T) {
	var got orderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "key_test", user)
		assert.Equal(t, "secret_test", pass)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(orderResponse{
			ID:       "order_1",
			Amount:   got.Amount,
			Currency: got.Currency,
			Receipt:  got.Receipt,
		})
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, KeyID: "key_test", Secret: "secret_test"}, zap.NewNop())

	order, err := client.CreateOrder(context.Background(), 420.84, "INR", "rcpt_1")
	require.NoError(t, err)

	assert.Equal(t, int64(42084), got.Amount)
	assert.Equal(t, "INR", got.Currency)
	assert.Equal(t, "order_1", order.OrderID)
	assert.InDelta(t, 420.84, order.Amount, 1e-9)
}

func TestCreateOrderUpstreamFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, KeyID: "k", Secret: "s"}, zap.NewNop())

	_, err := client.CreateOrder(context.Background(), 100, "INR", "rcpt")
	require.Error(t, err)
	assert.True(t, xerrors.Retryable(err))

	// A dead endpoint is retryable too.
	srv.Close()
	_, err = client.CreateOrder(context.Background(), 100, "INR", "rcpt")
	require.Error(t, err)
	assert.True(t, xerrors.Retryable(err))
}

func TestCreateOrderRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, KeyID: "k", Secret: "s"}, zap.NewNop())

	_, err := client.CreateOrder(context.Background(), 100, "INR", "rcpt")
	require.Error(t, err)
	assert.False(t, xerrors.Retryable(err))
}

func sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	client := NewClient(Config{Secret: "secret_test"}, zap.NewNop())

	conf := payment.GatewayConfirmation{
		OrderID:   "order_1",
		PaymentID: "pay_1",
		Signature: sign("secret_test", "order_1", "pay_1"),
	}
	assert.NoError(t, client.VerifySignature(conf))

	conf.Signature = sign("wrong_secret", "order_1", "pay_1")
	assert.Error(t, client.VerifySignature(conf))

	conf.Signature = ""
	assert.Error(t, client.VerifySignature(conf))

	conf = payment.GatewayConfirmation{
		OrderID:   "order_1",
		PaymentID: "pay_2",
		Signature: sign("secret_test", "order_1", "pay_1"),
	}
	assert.Error(t, client.VerifySignature(conf))
}
