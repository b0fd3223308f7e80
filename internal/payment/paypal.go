package payment

import (
	"encoding/json"
	"fmt"
	"net/http"

	"smmpanel/internal/models"
	"smmpanel/internal/pkg/httpclient"
)

const defaultPayPalURL = "https://api-m.paypal.com"

// PayPalGateway polls a PayPal-style order API. Orders are looked up by id
// with an OAuth client-credentials token.
type PayPalGateway struct {
	cfg    *models.PayPalConfig
	client *httpclient.Client
}

func NewPayPalGateway(cfg *models.PayPalConfig) *PayPalGateway {
	return &PayPalGateway{
		cfg:    cfg,
		client: httpclient.New(),
	}
}

func (g *PayPalGateway) Name() models.GatewayProvider {
	return models.GatewayPayPal
}

func (g *PayPalGateway) baseURL() string {
	if g.cfg.BaseURL != "" {
		return g.cfg.BaseURL
	}
	return defaultPayPalURL
}

// token fetches a client-credentials access token.
func (g *PayPalGateway) token() (string, error) {
	resp, err := g.client.Request().
		SetBasicAuth(g.cfg.ClientID, g.cfg.Secret).
		SetFormData(map[string]string{"grant_type": "client_credentials"}).
		Post(g.baseURL() + "/v1/oauth2/token")
	if err != nil {
		return "", fmt.Errorf("paypal token request failed: %w", err)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return "", fmt.Errorf("paypal token parse error: %w", err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("paypal token missing in response")
	}
	return body.AccessToken, nil
}

func (g *PayPalGateway) CheckStatus(deposit *models.Deposit) (models.DepositStatus, error) {
	token, err := g.token()
	if err != nil {
		return models.DepositPending, err
	}

	resp, err := g.client.Request().
		SetAuthToken(token).
		Get(g.baseURL() + "/v2/checkout/orders/" + deposit.Detail.PayPalOrderID)
	if err != nil {
		return models.DepositPending, fmt.Errorf("paypal order lookup failed: %w", err)
	}

	// An order the gateway no longer knows is a terminal failure, distinct
	// from a reported cancellation.
	if resp.StatusCode() == http.StatusNotFound {
		return models.DepositError, nil
	}

	var body struct {
		Status        string `json:"status"`
		PurchaseUnits []struct {
			Amount struct {
				Value string `json:"value"`
			} `json:"amount"`
		} `json:"purchase_units"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return models.DepositPending, fmt.Errorf("paypal order parse error: %w", err)
	}

	status := MapPayPalStatus(body.Status)
	if status == models.DepositPayment && len(body.PurchaseUnits) > 0 &&
		!coversAmount(body.PurchaseUnits[0].Amount.Value, deposit.Amount) {
		return models.DepositError, nil
	}
	return status, nil
}

// MapPayPalStatus translates the order API's status strings.
func MapPayPalStatus(remote string) models.DepositStatus {
	switch remote {
	case "COMPLETED":
		return models.DepositPayment
	case "VOIDED":
		return models.DepositCanceled
	default:
		return models.DepositPending
	}
}
