package pix

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"pixrelay/api/internal/auth"
	"pixrelay/api/internal/errs"
	"pixrelay/api/internal/logger"
	"pixrelay/api/internal/middleware"
	"pixrelay/api/internal/notifier"
	"pixrelay/api/internal/order"
	"pixrelay/api/internal/provider"
)

const (
	maxRequestBody = 65536
	webhookPrefix  = "/api/webhook/"
)

// QRRenderer turns a PIX payload into an image, or nil when it cannot.
type QRRenderer interface {
	Render(payload string) *string
}

// Notifier receives the side effects of orders and payments. Implementations
// must not block the caller.
type Notifier interface {
	OrderCreated(evt notifier.OrderEvent)
	PaymentConfirmed(evt notifier.PaymentConfirmedEvent)
}

// Handler serves the storefront-facing PIX endpoints.
type Handler struct {
	provider       provider.Provider
	normalizer     *order.Normalizer
	qr             QRRenderer
	notifier       Notifier
	signer         *auth.CallbackSigner
	webhookBaseURL string
	now            func() time.Time
}

// Options wires a Handler. Signer and WebhookBaseURL are optional.
type Options struct {
	Provider       provider.Provider
	Normalizer     *order.Normalizer
	QR             QRRenderer
	Notifier       Notifier
	Signer         *auth.CallbackSigner
	WebhookBaseURL string
}

func NewHandler(opts Options) *Handler {
	signer := opts.Signer
	if signer == nil {
		signer = auth.NewCallbackSigner("")
	}
	return &Handler{
		provider:       opts.Provider,
		normalizer:     opts.Normalizer,
		qr:             opts.QR,
		notifier:       opts.Notifier,
		signer:         signer,
		webhookBaseURL: opts.WebhookBaseURL,
		now:            time.Now,
	}
}

// Register mounts every route on mux. Each webhook provider gets
// /api/webhook/<name>.
func (h *Handler) Register(mux *http.ServeMux, webhookProviders ...provider.Provider) {
	mux.HandleFunc("/api/create-pix", h.CreatePix)
	mux.HandleFunc("/api/health", h.Health)
	for _, p := range webhookProviders {
		mux.HandleFunc(webhookPrefix+p.Name(), h.Webhook(p))
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, failureResponse{Success: false, Message: message})
}

type failureResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Error   string `json:"error,omitempty"`
}

// respondFailure maps err onto the status and message the storefront expects.
func respondFailure(w http.ResponseWriter, err error) {
	resp := failureResponse{Success: false, Code: errs.Code(err)}

	var (
		validation  *errs.ValidationError
		providerErr *errs.ProviderError
	)
	switch {
	case errors.As(err, &validation):
		resp.Message = validation.Message
	case errors.As(err, &providerErr):
		resp.Message = providerErr.Message
	case resp.Code == errs.CodeInternal:
		resp.Message = "Erro interno do servidor"
		resp.Error = err.Error()
	default:
		resp.Message = errorText(err)
	}
	respondJSON(w, errs.HTTPStatus(err), resp)
}

// errorText drops the wrapping context added on the way up.
func errorText(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}

type createPixResponse struct {
	Success    bool    `json:"success"`
	OrderID    string  `json:"orderId"`
	ExternalID string  `json:"external_id"`
	CopyPast   string  `json:"copy_past"`
	CopyPaste  string  `json:"copy_paste"`
	Code       string  `json:"code"`
	Payment    *string `json:"payment"`
	QRCode     *string `json:"qrCode"`
	Status     string  `json:"status"`
}

// CreatePix handles POST /api/create-pix.
// The payload and the QR image are repeated under their historical alias
// names (copy_past/copy_paste/code, payment/qrCode); existing frontends read all of them.
func (h *Handler) CreatePix(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var raw order.PixOrderRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		respondFailure(w, errs.Validation("", "corpo inválido"))
		return
	}

	clientIP := order.ClientIP(r.Header.Get("X-Forwarded-For"), r.RemoteAddr)
	req, err := h.normalizer.Sanitize(raw, clientIP)
	if err != nil {
		logger.Warnf("[CREATE_PIX] requisição inválida: %v", err)
		respondFailure(w, err)
		return
	}

	if req.WebhookURL == "" {
		callback, err := h.signer.CallbackURL(h.webhookBaseURL, webhookPrefix+h.provider.Name(), req.ExternalID)
		if err != nil {
			logger.Warnf("[CREATE_PIX] não foi possível montar webhook_url: %v", err)
		}
		req.WebhookURL = callback
	}

	logger.Infof("[CREATE_PIX] provider=%s external_id=%s amount=%s request_id=%s",
		h.provider.Name(), req.ExternalID, req.Amount.StringFixed(2), middleware.RequestID(r.Context()))

	result, err := h.provider.CreateCharge(r.Context(), req)
	if err != nil {
		logger.Errorf("[CREATE_PIX] Erro ao criar pedido Pix external_id=%s: %v", req.ExternalID, err)
		respondFailure(w, err)
		return
	}

	qr := h.qr.Render(result.Payload)
	if qr == nil && result.QRImage != "" {
		img := result.QRImage
		qr = &img
	}

	h.notifier.OrderCreated(notifier.OrderEvent{
		OrderID:       result.OrderID,
		TransactionID: result.TransactionID,
		PayerName:     req.PayerName,
		Amount:        req.Amount.InexactFloat64(),
		Phone:         req.RawPhone,
		Status:        result.Status,
	})

	logger.Infof("[CREATE_PIX] pedido criado order_id=%s status=%s qr=%v", result.OrderID, result.Status, qr != nil)

	respondJSON(w, http.StatusOK, createPixResponse{
		Success:    true,
		OrderID:    result.OrderID,
		ExternalID: result.OrderID,
		CopyPast:   result.Payload,
		CopyPaste:  result.Payload,
		Code:       result.Payload,
		Payment:    qr,
		QRCode:     qr,
		Status:     result.Status,
	})
}

// Health handles GET /api/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": h.now().UTC().Format("2006-01-02T15:04:05.000Z"),
	})
}

// Webhook handles POST /api/webhook/<provider>.
//
// The provider always gets 200 {received:true}: a non-2xx answer would only
// make it retry. Processing failures, panics included, are reported in the
// "error" field of the acknowledgment.
func (h *Handler) Webhook(p provider.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		ack := map[string]interface{}{"received": true}
		if err := h.processWebhook(p, r); err != nil {
			logger.Errorf("[WEBHOOK] Erro ao processar webhook %s: %v", p.Name(), err)
			ack["error"] = err.Error()
		}
		respondJSON(w, http.StatusOK, ack)
	}
}

func (h *Handler) processWebhook(p provider.Provider, r *http.Request) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		return fmt.Errorf("erro ao ler corpo: %w", err)
	}
	logger.Infof("[WEBHOOK] Recebendo webhook %s: %s", p.Name(), string(body))

	n, err := p.ParseNotification(body)
	if err != nil {
		return fmt.Errorf("corpo inválido: %w", err)
	}

	if h.signer.Enabled() {
		subject, err := h.signer.Verify(r.URL.Query().Get("token"))
		if err != nil {
			return err
		}
		if subject != n.ExternalID {
			return fmt.Errorf("%w: emitido para %s, recebido %s", auth.ErrInvalidCallbackToken, subject, n.ExternalID)
		}
	}

	if !n.Authorized {
		logger.Infof("[WEBHOOK] status %q ignorado (external_id=%s)", n.Status, n.ExternalID)
		return nil
	}
	if !n.Amount.IsPositive() {
		logger.Warnf("[WEBHOOK] pagamento autorizado sem valor (external_id=%s), nada a notificar", n.ExternalID)
		return nil
	}

	logger.Infof("[WEBHOOK] pagamento confirmado external_id=%s id=%s amount=%s", n.ExternalID, n.ID, n.Amount.StringFixed(2))
	h.notifier.PaymentConfirmed(notifier.PaymentConfirmedEvent{
		OrderID:       n.ExternalID,
		TransactionID: n.ID,
		Amount:        n.Amount.InexactFloat64(),
		PaymentMethod: n.PaymentMethod,
		Status:        n.Status,
	})
	return nil
}
