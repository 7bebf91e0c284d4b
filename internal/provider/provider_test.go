package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"pixrelay/api/internal/config"
	"pixrelay/api/internal/errs"
	"pixrelay/api/internal/order"
)

func chargeRequest() *order.ChargeRequest {
	return &order.ChargeRequest{
		ExternalID:   "ORD-ABCDEFGH-1700000000000",
		PayerName:    "Maria Silva",
		Amount:       decimal.RequireFromString("149.90"),
		Phone:        "11912345678",
		Email:        "maria@exemplo.com",
		Document:     order.FallbackCPF,
		DocumentType: order.DocumentTypeCPF,
		ClientIP:     "203.0.113.7",
		WebhookURL:   "https://loja.example.com/api/webhook/connectpay",
	}
}

func TestConnectPayCreateCharge(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/transactions", r.URL.Path)
		require.Equal(t, "segredo", r.Header.Get("api-secret"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"id":"tx_1","external_id":"ORD-ABCDEFGH-1700000000000","status":"PENDING","pix":{"payload":"00020126580014br.gov.bcb.pix"}}`))
	}))
	defer srv.Close()

	cp := NewConnectPay(srv.URL, "segredo", "rcpt_1", srv.Client())
	res, err := cp.CreateCharge(context.Background(), chargeRequest())
	require.NoError(t, err)
	require.Equal(t, "ORD-ABCDEFGH-1700000000000", res.OrderID)
	require.Equal(t, "tx_1", res.TransactionID)
	require.Equal(t, "00020126580014br.gov.bcb.pix", res.Payload)
	require.Equal(t, "PENDING", res.Status)

	require.Equal(t, "ORD-ABCDEFGH-1700000000000", got["external_id"])
	require.Equal(t, 149.9, got["total_amount"])
	require.Equal(t, "PIX", got["payment_method"])
	require.Equal(t, "203.0.113.7", got["ip"])
	require.Equal(t, "https://loja.example.com/api/webhook/connectpay", got["webhook_url"])

	items := got["items"].([]interface{})
	require.Len(t, items, 1)
	require.Equal(t, order.ProductID, items[0].(map[string]interface{})["id"])

	customer := got["customer"].(map[string]interface{})
	require.Equal(t, "CPF", customer["document_type"])
	require.Equal(t, order.FallbackCPF, customer["document"])

	splits := got["splits"].([]interface{})
	require.Equal(t, "rcpt_1", splits[0].(map[string]interface{})["recipient_id"])
	require.Equal(t, float64(100), splits[0].(map[string]interface{})["percentage"])
}

func TestConnectPayOmitsSplitsWithoutRecipient(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"id":"tx_1","pix":{"payload":"abc"}}`))
	}))
	defer srv.Close()

	req := chargeRequest()
	req.WebhookURL = ""
	res, err := NewConnectPay(srv.URL, "segredo", "", srv.Client()).CreateCharge(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "tx_1", res.OrderID)
	require.Equal(t, order.StatusPending, res.Status)
	require.NotContains(t, got, "splits")
	require.NotContains(t, got, "webhook_url")
}

func TestConnectPayErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "status do provedor",
			status: http.StatusBadGateway,
			body:   `{"message":"gateway indisponível"}`,
			check: func(t *testing.T, err error) {
				var pe *errs.ProviderError
				require.ErrorAs(t, err, &pe)
				require.Equal(t, http.StatusBadGateway, pe.Status)
				require.Equal(t, "gateway indisponível", pe.Message)
				require.Equal(t, http.StatusBadGateway, errs.HTTPStatus(err))
			},
		},
		{
			name:   "status com campo error",
			status: http.StatusUnauthorized,
			body:   `{"error":"api-secret inválido"}`,
			check: func(t *testing.T, err error) {
				var pe *errs.ProviderError
				require.ErrorAs(t, err, &pe)
				require.Equal(t, "api-secret inválido", pe.Message)
			},
		},
		{
			name:   "corpo de erro não JSON",
			status: http.StatusInternalServerError,
			body:   `<html>oops</html>`,
			check: func(t *testing.T, err error) {
				var pe *errs.ProviderError
				require.ErrorAs(t, err, &pe)
				require.Equal(t, "Erro ao criar pedido Pix", pe.Message)
			},
		},
		{
			name:   "hasError",
			status: http.StatusOK,
			body:   `{"hasError":true,"message":"cliente bloqueado"}`,
			check: func(t *testing.T, err error) {
				var le *errs.ProviderLogicError
				require.ErrorAs(t, err, &le)
				require.Equal(t, "cliente bloqueado", le.Message)
			},
		},
		{
			name:   "sem payload pix",
			status: http.StatusOK,
			body:   `{"id":"tx_1","pix":{}}`,
			check: func(t *testing.T, err error) {
				var me *errs.MalformedResponseError
				require.ErrorAs(t, err, &me)
			},
		},
		{
			name:   "corpo inválido",
			status: http.StatusOK,
			body:   `not json`,
			check: func(t *testing.T, err error) {
				require.Equal(t, errs.CodeMalformedResponse, errs.Code(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewConnectPay(srv.URL, "segredo", "", srv.Client()).CreateCharge(context.Background(), chargeRequest())
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestConnectPayValidatesBeforeNetwork(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	cp := NewConnectPay(srv.URL, "segredo", "", srv.Client())

	req := chargeRequest()
	req.PayerName = ""
	_, err := cp.CreateCharge(context.Background(), req)
	require.Equal(t, errs.CodeValidation, errs.Code(err))

	req = chargeRequest()
	req.Amount = decimal.Zero
	_, err = cp.CreateCharge(context.Background(), req)
	require.Equal(t, errs.CodeValidation, errs.Code(err))

	_, err = NewConnectPay(srv.URL, "", "", srv.Client()).CreateCharge(context.Background(), chargeRequest())
	var ce *errs.ConfigError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, "CONNECTPAY_API_SECRET", ce.Key)

	require.Zero(t, atomic.LoadInt32(&calls))
}

func TestConnectPayParseNotification(t *testing.T) {
	cp := NewConnectPay("http://unused", "s", "", nil)

	n, err := cp.ParseNotification([]byte(`{"id":"tx_1","external_id":"ORD-1","status":"AUTHORIZED","total_amount":149.9,"payment_method":"PIX"}`))
	require.NoError(t, err)
	require.True(t, n.Authorized)
	require.Equal(t, "tx_1", n.ID)
	require.Equal(t, "ORD-1", n.ExternalID)
	require.True(t, n.Amount.Equal(decimal.RequireFromString("149.9")))

	n, err = cp.ParseNotification([]byte(`{"id":7,"status":"PENDING","total_amount":"abc"}`))
	require.NoError(t, err)
	require.False(t, n.Authorized)
	require.Equal(t, "7", n.ID)
	require.True(t, n.Amount.IsZero())

	for _, status := range []string{"authorized", "Authorized", " AUTHORIZED"} {
		n, err = cp.ParseNotification([]byte(`{"id":"tx_1","status":"` + status + `","total_amount":10}`))
		require.NoError(t, err)
		require.False(t, n.Authorized, status)
	}

	n, err = cp.ParseNotification([]byte(`{"id":"tx_1","status":"AUTHORIZED","total_amount":"1e2000000000"}`))
	require.NoError(t, err)
	require.True(t, n.Amount.IsZero())

	_, err = cp.ParseNotification([]byte(`{`))
	require.Error(t, err)
}

func TestHorsePayCreateCharge(t *testing.T) {
	var tokenCalls, orderCalls int32
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/token":
			atomic.AddInt32(&tokenCalls, 1)
			var creds map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
			require.Equal(t, "chave", creds["client_key"])
			require.Equal(t, "segredo", creds["client_secret"])
			w.Write([]byte(`{"access_token":"tok_1"}`))
		case "/transaction/neworder":
			atomic.AddInt32(&orderCalls, 1)
			require.Equal(t, "Bearer tok_1", r.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.Write([]byte(`{"external_id":98765,"copy_past":"000201hp","payment":"data:image/png;base64,AAA","status":"pending"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	hp := NewHorsePay(srv.URL, "chave", "segredo", "split_user", srv.Client())
	for i := 0; i < 2; i++ {
		res, err := hp.CreateCharge(context.Background(), chargeRequest())
		require.NoError(t, err)
		require.Equal(t, "ORD-ABCDEFGH-1700000000000", res.OrderID)
		require.Equal(t, "98765", res.TransactionID)
		require.Equal(t, "000201hp", res.Payload)
		require.Equal(t, "data:image/png;base64,AAA", res.QRImage)
		require.Equal(t, "PENDING", res.Status)
	}
	require.Equal(t, int32(1), atomic.LoadInt32(&tokenCalls))
	require.Equal(t, int32(2), atomic.LoadInt32(&orderCalls))

	require.Equal(t, "Maria Silva", got["payer_name"])
	require.Equal(t, 149.9, got["amount"])
	require.Equal(t, "ORD-ABCDEFGH-1700000000000", got["client_reference_id"])
	split := got["split"].([]interface{})
	require.Equal(t, "split_user", split[0].(map[string]interface{})["user"])
}

func TestHorsePayErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{"flag booleana", `{"error":true,"message":"limite excedido"}`, errs.CodeProviderLogic},
		{"mensagem no campo error", `{"error":"conta suspensa"}`, errs.CodeProviderLogic},
		{"sem copy_past", `{"external_id":1}`, errs.CodeMalformedResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/auth/token" {
					w.Write([]byte(`{"access_token":"tok"}`))
					return
				}
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewHorsePay(srv.URL, "k", "s", "", srv.Client()).CreateCharge(context.Background(), chargeRequest())
			require.Equal(t, tt.code, errs.Code(err))
		})
	}
}

func TestHorsePayMissingCredentials(t *testing.T) {
	_, err := NewHorsePay("http://unused", "", "s", "", nil).CreateCharge(context.Background(), chargeRequest())
	require.Equal(t, errs.CodeConfig, errs.Code(err))

	_, err = NewHorsePay("http://unused", "k", "", "", nil).CreateCharge(context.Background(), chargeRequest())
	var ce *errs.ConfigError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, "HORSEPAY_CLIENT_SECRET", ce.Key)
}

func TestHorsePayTokenFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"credenciais inválidas"}`))
	}))
	defer srv.Close()

	_, err := NewHorsePay(srv.URL, "k", "s", "", srv.Client()).CreateCharge(context.Background(), chargeRequest())
	var pe *errs.ProviderError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, http.StatusUnauthorized, pe.Status)
}

func TestHorsePayParseNotification(t *testing.T) {
	hp := NewHorsePay("http://unused", "k", "s", "", nil)

	n, err := hp.ParseNotification([]byte(`{"external_id":98765,"client_reference_id":"ORD-1","status":"PAID","amount":"149.90"}`))
	require.NoError(t, err)
	require.True(t, n.Authorized)
	require.Equal(t, "98765", n.ID)
	require.Equal(t, "ORD-1", n.ExternalID)

	n, err = hp.ParseNotification([]byte(`{"external_id":98765,"status":true,"amount":10}`))
	require.NoError(t, err)
	require.True(t, n.Authorized)
	require.Equal(t, "98765", n.ExternalID)

	n, err = hp.ParseNotification([]byte(`{"external_id":98765,"status":false}`))
	require.NoError(t, err)
	require.False(t, n.Authorized)
}

func TestTokenCacheExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	var fetches int
	cache := NewTokenCache(TokenTTL, func() time.Time { return now }, func(context.Context) (string, error) {
		fetches++
		return "tok_" + string(rune('0'+fetches)), nil
	})

	tok, err := cache.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, "tok_1", tok)
	require.Equal(t, now.Add(TokenTTL), cache.ExpiresAt())

	now = now.Add(TokenTTL - time.Nanosecond)
	tok, _ = cache.Get(context.Background())
	require.Equal(t, "tok_1", tok)
	require.Equal(t, 1, fetches)

	// now == expiresAt is already expired
	now = now.Add(time.Nanosecond)
	tok, _ = cache.Get(context.Background())
	require.Equal(t, "tok_2", tok)
	require.Equal(t, 2, fetches)
}

func TestTokenCacheFetchErrorKeepsNothing(t *testing.T) {
	cache := NewTokenCache(TokenTTL, nil, func(context.Context) (string, error) {
		return "", &errs.ProviderError{Provider: "horsepay", Status: 500}
	})
	_, err := cache.Get(context.Background())
	require.Error(t, err)
	require.True(t, cache.ExpiresAt().IsZero())
}

func TestNew(t *testing.T) {
	p, err := New(&config.Config{Provider: config.ProviderConnectPay}, nil)
	require.NoError(t, err)
	require.Equal(t, "connectpay", p.Name())

	p, err = New(&config.Config{Provider: config.ProviderHorsePay}, nil)
	require.NoError(t, err)
	require.Equal(t, "horsepay", p.Name())

	_, err = New(&config.Config{Provider: "pagseguro"}, nil)
	require.Error(t, err)
}
