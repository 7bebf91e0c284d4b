package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "PAYMENT_PROVIDER", "CONNECTPAY_BASE_URL", "HORSEPAY_BASE_URL",
		"CORS_ORIGINS", "REQUIRE_DOCUMENT", "WEBHOOK_BASE_URL", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	require.Equal(t, 3000, cfg.Port)
	require.Equal(t, ProviderConnectPay, cfg.Provider)
	require.Equal(t, DefaultConnectPayBaseURL, cfg.ConnectPayBaseURL)
	require.Equal(t, DefaultHorsePayBaseURL, cfg.HorsePayBaseURL)
	require.Equal(t, []string{"*"}, cfg.CORSOrigins)
	require.False(t, cfg.RequireDocument)
	require.Equal(t, "info", cfg.LogLevel)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("PAYMENT_PROVIDER", "HorsePay")
	t.Setenv("CONNECTPAY_BASE_URL", "http://localhost:9000/")
	t.Setenv("WEBHOOK_BASE_URL", "https://loja.example.com/")
	t.Setenv("CORS_ORIGINS", "https://a.com, https://b.com ,")
	t.Setenv("REQUIRE_DOCUMENT", "true")

	cfg := Load()
	require.Equal(t, 8081, cfg.Port)
	require.Equal(t, ProviderHorsePay, cfg.Provider)
	require.Equal(t, "http://localhost:9000", cfg.ConnectPayBaseURL)
	require.Equal(t, "https://loja.example.com", cfg.WebhookBaseURL)
	require.Equal(t, []string{"https://a.com", "https://b.com"}, cfg.CORSOrigins)
	require.True(t, cfg.RequireDocument)
}

func TestLoadInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("PORT", "abc")
	t.Setenv("REQUIRE_DOCUMENT", "talvez")

	cfg := Load()
	require.Equal(t, 3000, cfg.Port)
	require.False(t, cfg.RequireDocument)
}
