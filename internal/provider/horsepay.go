package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cast"

	"pixrelay/api/internal/config"
	"pixrelay/api/internal/errs"
	"pixrelay/api/internal/logger"
	"pixrelay/api/internal/order"
)

// HorsePayPaid is the webhook status of a paid order.
const HorsePayPaid = "paid"

// HorsePay exchanges client credentials for a bearer token and creates orders with it.
type HorsePay struct {
	rest         restClient
	clientKey    string
	clientSecret string
	splitUser    string
	tokens       *TokenCache
}

func NewHorsePay(baseURL, clientKey, clientSecret, splitUser string, httpClient *http.Client) *HorsePay {
	h := &HorsePay{
		rest:         newRESTClient(config.ProviderHorsePay, "HorsePay", baseURL, httpClient),
		clientKey:    clientKey,
		clientSecret: clientSecret,
		splitUser:    splitUser,
	}
	h.tokens = NewTokenCache(TokenTTL, nil, h.fetchToken)
	return h
}

func (h *HorsePay) Name() string { return config.ProviderHorsePay }

type horsePayTokenRequest struct {
	ClientKey    string `json:"client_key"`
	ClientSecret string `json:"client_secret"`
}

type horsePayTokenResponse struct {
	AccessToken string `json:"access_token"`
}

func (h *HorsePay) fetchToken(ctx context.Context) (string, error) {
	logger.Debugf("[HORSEPAY] renovando token de acesso")
	var resp horsePayTokenResponse
	err := h.rest.doJSON(ctx, http.MethodPost, "/auth/token", nil,
		horsePayTokenRequest{ClientKey: h.clientKey, ClientSecret: h.clientSecret}, &resp)
	if err != nil {
		return "", fmt.Errorf("auth token: %w", err)
	}
	if resp.AccessToken == "" {
		return "", &errs.MalformedResponseError{Provider: "HorsePay", Field: "access_token"}
	}
	return resp.AccessToken, nil
}

type horsePaySplit struct {
	User    string `json:"user"`
	Percent int    `json:"percent"`
}

type horsePayOrderRequest struct {
	PayerName         string          `json:"payer_name"`
	Amount            float64         `json:"amount"`
	CallbackURL       string          `json:"callback_url,omitempty"`
	ClientReferenceID string          `json:"client_reference_id"`
	Phone             string          `json:"phone,omitempty"`
	Split             []horsePaySplit `json:"split,omitempty"`
}

type horsePayOrderResponse struct {
	ExternalID interface{} `json:"external_id"`
	CopyPast   string      `json:"copy_past"`
	Payment    string      `json:"payment"`
	Status     interface{} `json:"status"`
	Error      interface{} `json:"error"`
	Message    string      `json:"message"`
}

// CreateCharge handles POST {base}/transaction/neworder.
func (h *HorsePay) CreateCharge(ctx context.Context, req *order.ChargeRequest) (*order.ChargeResult, error) {
	if err := validateCharge(req); err != nil {
		return nil, err
	}
	if h.clientKey == "" {
		return nil, errs.Config("HORSEPAY_CLIENT_KEY")
	}
	if h.clientSecret == "" {
		return nil, errs.Config("HORSEPAY_CLIENT_SECRET")
	}

	token, err := h.tokens.Get(ctx)
	if err != nil {
		return nil, err
	}

	body := horsePayOrderRequest{
		PayerName:         req.PayerName,
		Amount:            req.Amount.InexactFloat64(),
		CallbackURL:       req.WebhookURL,
		ClientReferenceID: req.ExternalID,
		Phone:             req.Phone,
	}
	if h.splitUser != "" {
		body.Split = []horsePaySplit{{User: h.splitUser, Percent: 100}}
	}

	logger.Infof("[HORSEPAY] criando pedido external_id=%s amount=%s split=%v", req.ExternalID, req.Amount.StringFixed(2), h.splitUser != "")

	var resp horsePayOrderResponse
	err = h.rest.doJSON(ctx, http.MethodPost, "/transaction/neworder",
		map[string]string{"Authorization": "Bearer " + token}, body, &resp)
	if err != nil {
		return nil, fmt.Errorf("new order: %w", err)
	}

	if flagSet(resp.Error) {
		msg := resp.Message
		if s, ok := resp.Error.(string); ok && msg == "" {
			msg = s
		}
		if msg == "" {
			msg = "Erro desconhecido"
		}
		return nil, &errs.ProviderLogicError{Provider: h.Name(), Message: msg}
	}
	if resp.CopyPast == "" {
		return nil, &errs.MalformedResponseError{Provider: "HorsePay", Field: "Payload PIX"}
	}

	return order.NewChargeResult(req.ExternalID, resp.ExternalID, resp.CopyPast, resp.Payment, horsePayStatus(resp.Status)), nil
}

type horsePayNotification struct {
	ExternalID        interface{} `json:"external_id"`
	ClientReferenceID string      `json:"client_reference_id"`
	Status            interface{} `json:"status"`
	Amount            interface{} `json:"amount"`
}

// ParseNotification decodes {external_id, client_reference_id, status, amount}.
// HorsePay reports a payment either as status "paid" or as status true.
func (h *HorsePay) ParseNotification(body []byte) (*Notification, error) {
	var n horsePayNotification
	if err := json.Unmarshal(body, &n); err != nil {
		return nil, fmt.Errorf("horsepay webhook: %w", err)
	}

	id := cast.ToString(n.ExternalID)
	externalID := n.ClientReferenceID
	if externalID == "" {
		externalID = id
	}

	status := cast.ToString(n.Status)
	authorized := strings.EqualFold(status, HorsePayPaid)
	if b, ok := n.Status.(bool); ok {
		authorized = b
	}

	return &Notification{
		ID:            id,
		ExternalID:    externalID,
		Status:        status,
		Amount:        notificationAmount(n.Amount),
		PaymentMethod: order.PaymentMethod,
		Authorized:    authorized,
	}, nil
}

// flagSet reads a loosely typed error flag: true, a non-empty message, or a non-zero code.
func flagSet(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != "" && !strings.EqualFold(x, "false")
	default:
		return cast.ToFloat64(x) != 0
	}
}

func horsePayStatus(v interface{}) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.ToUpper(s)
}
