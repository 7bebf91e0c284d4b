// Package errs holds the error taxonomy shared by the PIX relay.
// Every error carries a stable code that is safe to expose to API callers.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeValidation        = "validation_error"
	CodeConfig            = "config_error"
	CodeProvider          = "provider_error"
	CodeProviderLogic     = "provider_logic_error"
	CodeMalformedResponse = "malformed_response"
	CodeNotifier          = "notifier_error"
	CodeInternal          = "internal_error"
)

// ValidationError reports bad client input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Code() string { return CodeValidation }

// Validation builds a ValidationError for field.
func Validation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// ConfigError reports missing server-side credentials.
type ConfigError struct {
	Key string
}

func (e *ConfigError) Error() string { return e.Key + " não configurado" }

func (e *ConfigError) Code() string { return CodeConfig }

// Config builds a ConfigError for an environment key.
func Config(key string) error {
	return &ConfigError{Key: key}
}

// ProviderError is a non-2xx answer from a payment provider.
type ProviderError struct {
	Provider string
	Status   int
	Body     string
	Message  string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s error (%d): %s", e.Provider, e.Status, e.Message)
}

func (e *ProviderError) Code() string { return CodeProvider }

// ProviderLogicError is a 2xx answer that flags a failure in its body.
type ProviderLogicError struct {
	Provider string
	Message  string
}

func (e *ProviderLogicError) Error() string {
	return fmt.Sprintf("Erro ao criar transação: %s", e.Message)
}

func (e *ProviderLogicError) Code() string { return CodeProviderLogic }

// MalformedResponseError is a 2xx answer missing a required field.
type MalformedResponseError struct {
	Provider string
	Field    string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s não retornado pela %s", e.Field, e.Provider)
}

func (e *MalformedResponseError) Code() string { return CodeMalformedResponse }

// NotifierError is a failed side-effect dispatch. It is only ever logged.
type NotifierError struct {
	Sink   string
	Status int
	Err    error
}

func (e *NotifierError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Sink, e.Err)
	}
	return fmt.Sprintf("%s: status %d", e.Sink, e.Status)
}

func (e *NotifierError) Unwrap() error { return e.Err }

func (e *NotifierError) Code() string { return CodeNotifier }

// Code returns the taxonomy code of err, or CodeInternal.
func Code(err error) string {
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return CodeInternal
}

// HTTPStatus maps err to the status returned by the create-pix endpoint.
// Provider errors pass the upstream status through.
func HTTPStatus(err error) int {
	var (
		validation *ValidationError
		config     *ConfigError
		provider   *ProviderError
		logic      *ProviderLogicError
		malformed  *MalformedResponseError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &config):
		return http.StatusInternalServerError
	case errors.As(err, &provider):
		if provider.Status < 400 || provider.Status > 599 {
			return http.StatusBadGateway
		}
		return provider.Status
	case errors.As(err, &logic), errors.As(err, &malformed):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
