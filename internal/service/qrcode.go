package service

import (
	"encoding/base64"
	"fmt"

	"github.com/skip2/go-qrcode"
)

const qrImageSize = 256

// RenderQRDataURL encodes a pairing token as a PNG data URL.
func RenderQRDataURL(token string) (string, error) {
	png, err := qrcode.Encode(token, qrcode.Medium, qrImageSize)
	if err != nil {
		return "", fmt.Errorf("encode qr: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
