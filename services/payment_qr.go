package services

import (
	"encoding/base64"
	"fmt"

	"github.com/skip2/go-qrcode"
)

const qrCodeSize = 256

// encodePaymentQR renders the pay URL as a PNG data URI the client can show directly
func encodePaymentQR(codeURL string) (string, error) {
	png, err := qrcode.Encode(codeURL, qrcode.Medium, qrCodeSize)
	if err != nil {
		return "", fmt.Errorf("failed to generate payment QR code: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
