package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
		code string
	}{
		{"validação", Validation("amount", "deve ser maior que zero"), http.StatusBadRequest, CodeValidation},
		{"config", Config("CONNECTPAY_API_SECRET"), http.StatusInternalServerError, CodeConfig},
		{"provider 502", &ProviderError{Provider: "connectpay", Status: 502}, http.StatusBadGateway, CodeProvider},
		{"provider 422", &ProviderError{Provider: "connectpay", Status: 422}, http.StatusUnprocessableEntity, CodeProvider},
		{"provider status inválido", &ProviderError{Provider: "connectpay", Status: 0}, http.StatusBadGateway, CodeProvider},
		{"erro lógico", &ProviderLogicError{Message: "saldo"}, http.StatusBadRequest, CodeProviderLogic},
		{"resposta sem payload", &MalformedResponseError{Provider: "ConnectPay", Field: "Payload PIX"}, http.StatusBadRequest, CodeMalformedResponse},
		{"embrulhado", fmt.Errorf("create charge: %w", Validation("payer_name", "obrigatório")), http.StatusBadRequest, CodeValidation},
		{"genérico", errors.New("boom"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
			if got := Code(tt.err); got != tt.code {
				t.Errorf("Code() = %s, want %s", got, tt.code)
			}
		})
	}
}

func TestNotifierErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &NotifierError{Sink: "sheets", Err: cause}
	if !errors.Is(err, cause) {
		t.Errorf("errors.Is() = false, want true")
	}
	if err.Error() != "sheets: connection refused" {
		t.Errorf("Error() = %q", err.Error())
	}
}
