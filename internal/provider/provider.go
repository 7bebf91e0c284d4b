// Package provider talks to the PIX payment providers. Each provider turns a
// sanitized order.ChargeRequest into a charge and decodes its own webhooks into
// a provider-neutral Notification.
package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"pixrelay/api/internal/config"
	"pixrelay/api/internal/errs"
	"pixrelay/api/internal/order"
)

const defaultHTTPTimeout = 30 * time.Second

// Provider is a PIX payment provider.
type Provider interface {
	Name() string
	CreateCharge(ctx context.Context, req *order.ChargeRequest) (*order.ChargeResult, error)
	ParseNotification(body []byte) (*Notification, error)
}

// Notification is a decoded provider webhook.
type Notification struct {
	ID            string
	ExternalID    string
	Status        string
	Amount        decimal.Decimal
	PaymentMethod string
	// Authorized is true when Status is the provider's "paid" sentinel.
	Authorized bool
}

// New builds the provider selected by cfg.Provider. A nil httpClient gets a
// client with a 30s timeout.
func New(cfg *config.Config, httpClient *http.Client) (Provider, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	switch cfg.Provider {
	case config.ProviderConnectPay, "":
		return NewConnectPay(cfg.ConnectPayBaseURL, cfg.ConnectPayAPISecret, cfg.ConnectPayRecipientID, httpClient), nil
	case config.ProviderHorsePay:
		return NewHorsePay(cfg.HorsePayBaseURL, cfg.HorsePayClientKey, cfg.HorsePayClientSecret, cfg.HorsePaySplitUser, httpClient), nil
	default:
		return nil, fmt.Errorf("provedor de pagamento desconhecido: %q", cfg.Provider)
	}
}

func validateCharge(req *order.ChargeRequest) error {
	if req == nil || req.PayerName == "" {
		return errs.Validation("payer_name", "Nome do pagador e valor são obrigatórios")
	}
	if !req.Amount.IsPositive() {
		return errs.Validation("amount", "valor deve ser maior que zero")
	}
	return nil
}

// notificationAmount reads an optional webhook amount; anything unparsable is zero.
func notificationAmount(v interface{}) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	amount, err := order.ParseAmount(v)
	if err != nil {
		return decimal.Zero
	}
	return amount
}
