package qrcode

import (
	"encoding/base64"
	"errors"

	goqrcode "github.com/skip2/go-qrcode"

	"pixrelay/api/internal/logger"
)

const (
	DefaultSize   = 400
	dataURLPrefix = "data:image/png;base64,"
)

var errEmptyPayload = errors.New("payload vazio")

// Renderer encodes PIX copia-e-cola strings as PNG data URLs.
type Renderer struct {
	Size   int
	Level  goqrcode.RecoveryLevel
	encode func(content string, level goqrcode.RecoveryLevel, size int) ([]byte, error)
}

// NewRenderer returns a 400px renderer with medium error correction.
func NewRenderer() *Renderer {
	return &Renderer{Size: DefaultSize, Level: goqrcode.Medium, encode: goqrcode.Encode}
}

// Encode returns the data URL for payload.
func (r *Renderer) Encode(payload string) (string, error) {
	if payload == "" {
		return "", errEmptyPayload
	}
	png, err := r.encode(payload, r.Level, r.Size)
	if err != nil {
		return "", err
	}
	return dataURLPrefix + base64.StdEncoding.EncodeToString(png), nil
}

// Render is Encode without the error: failures are logged and yield nil, so a
// missing image never fails an order.
func (r *Renderer) Render(payload string) *string {
	img, err := r.Encode(payload)
	if err != nil {
		logger.Errorf("[QRCODE] Erro ao gerar QR Code: %v", err)
		return nil
	}
	return &img
}
