package payment

import (
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"smmpanel/internal/models"
)

func TestMapCryptoPayStatus(t *testing.T) {
	cases := map[string]models.DepositStatus{
		"paid":          models.DepositPayment,
		"paid_over":     models.DepositPayment,
		"cancel":        models.DepositCanceled,
		"system_fail":   models.DepositCanceled,
		"fail":          models.DepositCanceled,
		"refund":        models.DepositCanceled,
		"process":       models.DepositPending,
		"confirm_check": models.DepositPending,
		"check":         models.DepositPending,
		"wtf_new_state": models.DepositPending,
		"":              models.DepositPending,
	}
	for remote, want := range cases {
		require.Equal(t, want, MapCryptoPayStatus(remote), "remote status %q", remote)
	}
}

func TestCryptoPaySignature(t *testing.T) {
	g := NewCryptoPayGateway(&models.CryptoPayConfig{MerchantID: "m-1", APIKey: "secret"})

	body := []byte(`{"order_id":"12","uuid":"abc"}`)
	payload := base64.StdEncoding.EncodeToString(body)
	sum := md5.Sum([]byte(payload + "secret"))

	require.Equal(t, hex.EncodeToString(sum[:]), g.Sign(body))
}

func TestCryptoPayCheckStatus(t *testing.T) {
	var gotSign, gotMerchant string
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/payment/info", r.URL.Path)
		gotSign = r.Header.Get("sign")
		gotMerchant = r.Header.Get("merchant")
		gotBody, _ = io.ReadAll(r.Body)
		fmt.Fprint(w, `{"result":{"payment_status":"paid","amount":"20.00"}}`)
	}))
	defer srv.Close()

	g := NewCryptoPayGateway(&models.CryptoPayConfig{
		MerchantID: "m-1",
		APIKey:     "secret",
		BaseURL:    srv.URL,
	})

	dep := &models.Deposit{
		Amount: decimal.NewFromInt(20),
		Detail: models.DepositDetail{
			Provider:  models.GatewayCryptoPay,
			TrackUUID: "track-uuid-1",
		},
	}
	dep.ID = 12

	status, err := g.CheckStatus(dep)
	require.NoError(t, err)
	require.Equal(t, models.DepositPayment, status)
	require.Equal(t, "m-1", gotMerchant)
	require.Equal(t, g.Sign(gotBody), gotSign)

	var req map[string]string
	require.NoError(t, json.Unmarshal(gotBody, &req))
	require.Equal(t, "track-uuid-1", req["uuid"])
	require.Equal(t, "12", req["order_id"])
}

func TestCryptoPayCheckStatusAmountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result":{"payment_status":"paid","amount":"10.00"}}`)
	}))
	defer srv.Close()

	g := NewCryptoPayGateway(&models.CryptoPayConfig{
		MerchantID: "m-1",
		APIKey:     "secret",
		BaseURL:    srv.URL,
	})

	// The processor reports a paid amount below what the deposit claims; the
	// deposit must never be credited as PAYMENT.
	dep := &models.Deposit{Amount: decimal.NewFromInt(20)}
	status, err := g.CheckStatus(dep)
	require.NoError(t, err)
	require.Equal(t, models.DepositError, status)
}

func TestCryptoPayCheckStatusTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	g := NewCryptoPayGateway(&models.CryptoPayConfig{
		MerchantID: "m-1",
		APIKey:     "secret",
		BaseURL:    srv.URL,
	})

	status, err := g.CheckStatus(&models.Deposit{})
	require.Error(t, err)
	require.Equal(t, models.DepositPending, status)
}
