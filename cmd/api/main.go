package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"pixrelay/api/internal/auth"
	"pixrelay/api/internal/config"
	"pixrelay/api/internal/logger"
	"pixrelay/api/internal/middleware"
	"pixrelay/api/internal/notifier"
	"pixrelay/api/internal/order"
	"pixrelay/api/internal/pix"
	"pixrelay/api/internal/provider"
	"pixrelay/api/internal/qrcode"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := config.Load()
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	httpClient := &http.Client{Timeout: 30 * time.Second}
	active, err := provider.New(cfg, httpClient)
	if err != nil {
		logger.Fatalf("%v", err)
	}

	// Webhooks are accepted from both providers so that switching
	// PAYMENT_PROVIDER does not drop callbacks for orders already in flight.
	connectPay := provider.NewConnectPay(cfg.ConnectPayBaseURL, cfg.ConnectPayAPISecret, cfg.ConnectPayRecipientID, httpClient)
	horsePay := provider.NewHorsePay(cfg.HorsePayBaseURL, cfg.HorsePayClientKey, cfg.HorsePayClientSecret, cfg.HorsePaySplitUser, httpClient)

	notify := notifier.New(notifier.Options{
		SheetsURL:     cfg.SheetsWebhookURL,
		TikTokToken:   cfg.TikTokAPIToken,
		TikTokPixelID: cfg.TikTokPixelID,
	})
	if !notify.SheetsEnabled() {
		logger.Warnf("GOOGLE_SHEETS_WEBHOOK não configurado, registro em planilha desabilitado")
	}
	if !notify.TrackingEnabled() {
		logger.Warnf("TIKTOK_API_TOKEN não configurado, eventos de conversão desabilitados")
	}

	signer := auth.NewCallbackSigner(cfg.CallbackSigningSecret)
	if signer.Enabled() && cfg.WebhookBaseURL == "" {
		logger.Warnf("CALLBACK_SIGNING_SECRET definido sem WEBHOOK_BASE_URL, webhooks sem token serão ignorados")
	}

	handler := pix.NewHandler(pix.Options{
		Provider:       active,
		Normalizer:     order.NewNormalizer(cfg.RequireDocument),
		QR:             qrcode.NewRenderer(),
		Notifier:       notify,
		Signer:         signer,
		WebhookBaseURL: cfg.WebhookBaseURL,
	})

	mux := http.NewServeMux()
	handler.Register(mux, connectPay, horsePay)

	root := middleware.Recover(middleware.RequestLog(middleware.CORS(cfg.CORSOrigins)(mux)))

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
	}

	logger.Infof("relay PIX escutando em %s (provedor=%s)", addr, active.Name())

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("erro no servidor: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Infof("encerrando...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Errorf("erro ao encerrar servidor: %v", err)
	}
	notify.Wait()
	logger.Infof("servidor parado")
}
