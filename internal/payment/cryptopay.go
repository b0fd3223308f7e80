package payment

import (
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"

	"smmpanel/internal/models"
	"smmpanel/internal/pkg/httpclient"
)

const defaultCryptoPayURL = "https://api.cryptomus.com/v1"

// CryptoPayGateway polls a crypto payment processor whose requests are signed
// with MD5(base64(body) + api key) in the `sign` header.
type CryptoPayGateway struct {
	cfg    *models.CryptoPayConfig
	client *httpclient.Client
}

func NewCryptoPayGateway(cfg *models.CryptoPayConfig) *CryptoPayGateway {
	return &CryptoPayGateway{
		cfg:    cfg,
		client: httpclient.New().WithHeader("merchant", cfg.MerchantID),
	}
}

func (g *CryptoPayGateway) Name() models.GatewayProvider {
	return models.GatewayCryptoPay
}

func (g *CryptoPayGateway) baseURL() string {
	if g.cfg.BaseURL != "" {
		return g.cfg.BaseURL
	}
	return defaultCryptoPayURL
}

// Sign computes the request signature over the raw JSON body.
func (g *CryptoPayGateway) Sign(body []byte) string {
	payload := base64.StdEncoding.EncodeToString(body)
	sum := md5.Sum([]byte(payload + g.cfg.APIKey))
	return hex.EncodeToString(sum[:])
}

func (g *CryptoPayGateway) CheckStatus(deposit *models.Deposit) (models.DepositStatus, error) {
	req := map[string]string{
		"uuid":     deposit.Detail.TrackUUID,
		"order_id": strconv.FormatUint(uint64(deposit.ID), 10),
	}
	body, err := json.Marshal(req)
	if err != nil {
		return models.DepositPending, err
	}

	_, respBody, err := g.client.PostSigned(g.baseURL()+"/payment/info", body, "sign", g.Sign(body))
	if err != nil {
		return models.DepositPending, fmt.Errorf("cryptopay status request failed: %w", err)
	}

	var resp struct {
		Result struct {
			PaymentStatus string `json:"payment_status"`
			Amount        string `json:"amount"`
		} `json:"result"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return models.DepositPending, fmt.Errorf("cryptopay status parse error: %w", err)
	}

	status := MapCryptoPayStatus(resp.Result.PaymentStatus)
	if status == models.DepositPayment && !coversAmount(resp.Result.Amount, deposit.Amount) {
		// The processor reports less than the deposit claims; never credit
		// more than what was actually paid.
		return models.DepositError, nil
	}
	return status, nil
}

// MapCryptoPayStatus translates the processor's status strings. Anything
// unrecognized stays PENDING so a vocabulary addition on their side can never
// trigger a terminal transition here.
func MapCryptoPayStatus(remote string) models.DepositStatus {
	switch remote {
	case "paid", "paid_over":
		return models.DepositPayment
	case "cancel", "system_fail", "fail", "refund":
		return models.DepositCanceled
	case "process", "confirm_check", "check":
		return models.DepositPending
	default:
		return models.DepositPending
	}
}
