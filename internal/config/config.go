package config

import (
	"os"
	"strings"

	"github.com/spf13/cast"
)

const (
	ProviderConnectPay = "connectpay"
	ProviderHorsePay   = "horsepay"

	DefaultConnectPayBaseURL = "https://api.connectpay.vc"
	DefaultHorsePayBaseURL   = "https://api.horsepay.io"
)

// Config holds every environment-sourced setting of the relay.
type Config struct {
	Port     int
	LogLevel string
	Provider string

	ConnectPayBaseURL     string
	ConnectPayAPISecret   string
	ConnectPayRecipientID string // optional: payment split

	HorsePayBaseURL      string
	HorsePayClientKey    string
	HorsePayClientSecret string
	HorsePaySplitUser    string // optional: payment split

	TikTokAPIToken string
	TikTokPixelID  string

	SheetsWebhookURL string

	// WebhookBaseURL is the externally reachable address of this relay, used to
	// build provider callback URLs when the frontend sends none.
	WebhookBaseURL        string
	CallbackSigningSecret string

	// RequireDocument turns the fallback CPF off: invalid documents are rejected.
	RequireDocument bool

	CORSOrigins []string
}

// Load reads the configuration from the environment.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 3000),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Provider: strings.ToLower(getEnv("PAYMENT_PROVIDER", ProviderConnectPay)),

		ConnectPayBaseURL:     strings.TrimRight(getEnv("CONNECTPAY_BASE_URL", DefaultConnectPayBaseURL), "/"),
		ConnectPayAPISecret:   os.Getenv("CONNECTPAY_API_SECRET"),
		ConnectPayRecipientID: os.Getenv("CONNECTPAY_RECIPIENT_ID"),

		HorsePayBaseURL:      strings.TrimRight(getEnv("HORSEPAY_BASE_URL", DefaultHorsePayBaseURL), "/"),
		HorsePayClientKey:    os.Getenv("HORSEPAY_CLIENT_KEY"),
		HorsePayClientSecret: os.Getenv("HORSEPAY_CLIENT_SECRET"),
		HorsePaySplitUser:    os.Getenv("HORSEPAY_SPLIT_USER"),

		TikTokAPIToken: os.Getenv("TIKTOK_API_TOKEN"),
		TikTokPixelID:  os.Getenv("TIKTOK_PIXEL_ID"),

		SheetsWebhookURL: os.Getenv("GOOGLE_SHEETS_WEBHOOK"),

		WebhookBaseURL:        strings.TrimRight(os.Getenv("WEBHOOK_BASE_URL"), "/"),
		CallbackSigningSecret: os.Getenv("CALLBACK_SIGNING_SECRET"),

		RequireDocument: getEnvBool("REQUIRE_DOCUMENT", false),

		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),
	}
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := cast.ToIntE(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return def
	}
	return b
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
