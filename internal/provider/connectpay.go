package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cast"

	"pixrelay/api/internal/config"
	"pixrelay/api/internal/errs"
	"pixrelay/api/internal/logger"
	"pixrelay/api/internal/order"
)

// ConnectPayAuthorized is the webhook status of a paid transaction.
const ConnectPayAuthorized = "AUTHORIZED"

// ConnectPay creates PIX transactions authenticated by a static api-secret header.
type ConnectPay struct {
	rest        restClient
	apiSecret   string
	recipientID string
}

func NewConnectPay(baseURL, apiSecret, recipientID string, httpClient *http.Client) *ConnectPay {
	return &ConnectPay{
		rest:        newRESTClient(config.ProviderConnectPay, "ConnectPay", baseURL, httpClient),
		apiSecret:   apiSecret,
		recipientID: recipientID,
	}
}

func (c *ConnectPay) Name() string { return config.ProviderConnectPay }

type connectPayItem struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	IsPhysical  bool    `json:"is_physical"`
}

type connectPayCustomer struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	DocumentType string `json:"document_type"`
	Document     string `json:"document"`
}

type connectPaySplit struct {
	RecipientID string `json:"recipient_id"`
	Percentage  int    `json:"percentage"`
}

type connectPayTransactionRequest struct {
	ExternalID    string             `json:"external_id"`
	TotalAmount   float64            `json:"total_amount"`
	PaymentMethod string             `json:"payment_method"`
	WebhookURL    string             `json:"webhook_url,omitempty"`
	IP            string             `json:"ip"`
	Items         []connectPayItem   `json:"items"`
	Customer      connectPayCustomer `json:"customer"`
	Splits        []connectPaySplit  `json:"splits,omitempty"`
}

type connectPayTransaction struct {
	ID         interface{} `json:"id"`
	ExternalID interface{} `json:"external_id"`
	Status     string      `json:"status"`
	HasError   bool        `json:"hasError"`
	Message    string      `json:"message"`
	Pix        *struct {
		Payload string `json:"payload"`
	} `json:"pix"`
}

// CreateCharge handles POST {base}/v1/transactions.
func (c *ConnectPay) CreateCharge(ctx context.Context, req *order.ChargeRequest) (*order.ChargeResult, error) {
	if err := validateCharge(req); err != nil {
		return nil, err
	}
	if c.apiSecret == "" {
		return nil, errs.Config("CONNECTPAY_API_SECRET")
	}

	amount := req.Amount.InexactFloat64()
	body := connectPayTransactionRequest{
		ExternalID:    req.ExternalID,
		TotalAmount:   amount,
		PaymentMethod: order.PaymentMethod,
		WebhookURL:    req.WebhookURL,
		IP:            req.ClientIP,
		Items: []connectPayItem{{
			ID:          order.ProductID,
			Title:       order.ProductTitle,
			Description: order.ProductTitle,
			Price:       amount,
			Quantity:    1,
			IsPhysical:  true,
		}},
		Customer: connectPayCustomer{
			Name:         req.PayerName,
			Email:        req.Email,
			Phone:        req.Phone,
			DocumentType: req.DocumentType,
			Document:     req.Document,
		},
	}
	if c.recipientID != "" {
		body.Splits = []connectPaySplit{{RecipientID: c.recipientID, Percentage: 100}}
	}

	logger.Infof("[CONNECTPAY] criando transação external_id=%s amount=%s split=%v", req.ExternalID, req.Amount.StringFixed(2), c.recipientID != "")

	var tx connectPayTransaction
	err := c.rest.doJSON(ctx, http.MethodPost, "/v1/transactions", map[string]string{"api-secret": c.apiSecret}, body, &tx)
	if err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}

	if tx.HasError {
		msg := tx.Message
		if msg == "" {
			msg = "Erro desconhecido"
		}
		return nil, &errs.ProviderLogicError{Provider: c.Name(), Message: msg}
	}
	if tx.Pix == nil || tx.Pix.Payload == "" {
		return nil, &errs.MalformedResponseError{Provider: "ConnectPay", Field: "Payload PIX"}
	}

	return order.NewChargeResult(tx.ExternalID, tx.ID, tx.Pix.Payload, "", tx.Status), nil
}

type connectPayNotification struct {
	ID            interface{} `json:"id"`
	ExternalID    interface{} `json:"external_id"`
	Status        string      `json:"status"`
	TotalAmount   interface{} `json:"total_amount"`
	PaymentMethod string      `json:"payment_method"`
}

// ParseNotification decodes {id, external_id, status, total_amount, payment_method}.
func (c *ConnectPay) ParseNotification(body []byte) (*Notification, error) {
	var n connectPayNotification
	if err := json.Unmarshal(body, &n); err != nil {
		return nil, fmt.Errorf("connectpay webhook: %w", err)
	}
	return &Notification{
		ID:            cast.ToString(n.ID),
		ExternalID:    cast.ToString(n.ExternalID),
		Status:        n.Status,
		Amount:        notificationAmount(n.TotalAmount),
		PaymentMethod: n.PaymentMethod,
		Authorized:    n.Status == ConnectPayAuthorized,
	}, nil
}
