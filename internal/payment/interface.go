package payment

import (
	"fmt"

	"github.com/shopspring/decimal"

	"smmpanel/internal/models"
)

// Gateway is a payment processor that can report the current true status of a
// deposit. Implementations map remote status vocabularies to the local
// DepositStatus enum; transport failures return an error and the deposit must
// be left PENDING for a later poll.
type Gateway interface {
	// Name returns the gateway identifier.
	Name() models.GatewayProvider

	// CheckStatus polls the processor for the deposit's current status.
	CheckStatus(deposit *models.Deposit) (models.DepositStatus, error)
}

// coversAmount reports whether the gateway-reported figure covers what the
// deposit claims. A gateway that omits the figure skips the check; one that
// reports something unparsable fails it.
func coversAmount(reported string, claimed decimal.Decimal) bool {
	if reported == "" {
		return true
	}
	paid, err := decimal.NewFromString(reported)
	if err != nil {
		return false
	}
	return !paid.LessThan(claimed)
}

// Factory builds a Gateway from a stored gateway row.
type Factory func(gw *models.PaymentGateway) (Gateway, error)

// NewGateway is the default Factory, switching on the provider tag of the
// gateway's typed config.
func NewGateway(gw *models.PaymentGateway) (Gateway, error) {
	switch gw.Provider {
	case models.GatewayCryptoPay:
		if gw.Config.CryptoPay == nil {
			return nil, fmt.Errorf("gateway %d: missing cryptopay config", gw.ID)
		}
		return NewCryptoPayGateway(gw.Config.CryptoPay), nil
	case models.GatewayPayPal:
		if gw.Config.PayPal == nil {
			return nil, fmt.Errorf("gateway %d: missing paypal config", gw.ID)
		}
		return NewPayPalGateway(gw.Config.PayPal), nil
	default:
		return nil, fmt.Errorf("gateway %d: unknown provider %q", gw.ID, gw.Provider)
	}
}
