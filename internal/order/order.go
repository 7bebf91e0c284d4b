// Package order validates inbound PIX order requests and normalizes provider
// answers into the single result shape the frontend consumes.
package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"pixrelay/api/internal/errs"
)

const (
	DocumentTypeCPF = "CPF"
	PaymentMethod   = "PIX"
	StatusPending   = "PENDING"
)

// Static catalogue data: the storefront sells a single SKU.
const (
	ProductID    = "parafusadeira-48v-001"
	ProductTitle = "Parafusadeira Furadeira 48V 2 Baterias com Maleta e Acessórios"
)

// PixOrderRequest is the body of POST /api/create-pix.
// Amount stays untyped: the storefront sends either a number or a string.
type PixOrderRequest struct {
	PayerName   string      `json:"payer_name"`
	Amount      interface{} `json:"amount"`
	Phone       string      `json:"phone"`
	Email       string      `json:"email"`
	Document    string      `json:"document"`
	CallbackURL string      `json:"callback_url"`
}

// ChargeRequest is the sanitized, provider-neutral charge built from a PixOrderRequest.
type ChargeRequest struct {
	ExternalID   string
	PayerName    string
	Amount       decimal.Decimal
	Phone        string // digits only
	RawPhone     string
	Email        string
	Document     string
	DocumentType string
	ClientIP     string
	WebhookURL   string
}

// ChargeResult is the normalized answer of a provider.
type ChargeResult struct {
	OrderID       string
	TransactionID string
	Payload       string // PIX copia-e-cola
	QRImage       string // provider-rendered image, when the provider sends one
	Status        string
}

// NewChargeResult builds the canonical result. orderID and transactionID accept
// whatever JSON type the provider uses for its identifiers.
func NewChargeResult(orderID, transactionID interface{}, payload, qrImage, status string) *ChargeResult {
	txID := cast.ToString(transactionID)
	id := cast.ToString(orderID)
	if id == "" {
		id = txID
	}
	if status == "" {
		status = StatusPending
	}
	return &ChargeResult{
		OrderID:       id,
		TransactionID: txID,
		Payload:       payload,
		QRImage:       qrImage,
		Status:        status,
	}
}

// Normalizer turns raw requests into ChargeRequests.
type Normalizer struct {
	// RequireDocument rejects invalid documents instead of substituting FallbackCPF.
	RequireDocument bool
	IDs             *IDGenerator
	Now             func() time.Time
}

// NewNormalizer returns a Normalizer using the wall clock.
func NewNormalizer(requireDocument bool) *Normalizer {
	return &Normalizer{
		RequireDocument: requireDocument,
		IDs:             NewIDGenerator(),
		Now:             time.Now,
	}
}

// Validate checks the fields every provider requires before any network call.
func Validate(payerName string, amount interface{}) (decimal.Decimal, error) {
	if strings.TrimSpace(payerName) == "" {
		return decimal.Zero, errs.Validation("payer_name", "Nome do pagador e valor são obrigatórios")
	}
	return ParseAmount(amount)
}

// Sanitize validates raw and fills every field a provider needs.
func (n *Normalizer) Sanitize(raw PixOrderRequest, clientIP string) (*ChargeRequest, error) {
	amount, err := Validate(raw.PayerName, raw.Amount)
	if err != nil {
		return nil, err
	}

	document, ok := SanitizeDocument(raw.Document)
	if !ok && n.RequireDocument {
		return nil, errs.Validation("document", fmt.Sprintf("CPF inválido: deve conter 11 dígitos (recebido %d)", len(digitsOnly(raw.Document))))
	}

	return &ChargeRequest{
		ExternalID:   n.IDs.Next(),
		PayerName:    strings.TrimSpace(raw.PayerName),
		Amount:       amount,
		Phone:        SanitizePhone(raw.Phone),
		RawPhone:     raw.Phone,
		Email:        SanitizeEmail(raw.Email, n.Now()),
		Document:     document,
		DocumentType: DocumentTypeCPF,
		ClientIP:     SanitizeIP(clientIP),
		WebhookURL:   strings.TrimSpace(raw.CallbackURL),
	}, nil
}

// SanitizeEmail accepts any non-empty address containing "@" and otherwise
// synthesizes a placeholder the providers accept.
func SanitizeEmail(email string, now time.Time) string {
	email = strings.TrimSpace(email)
	if email != "" && strings.Contains(email, "@") {
		return email
	}
	return fmt.Sprintf("client%d@placeholder.invalid", now.UnixMilli())
}
