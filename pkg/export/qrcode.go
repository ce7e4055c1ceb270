package export

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// QRCodePNG encodes content as a PNG QR code of size x size pixels.
func QRCodePNG(content string, size int) ([]byte, error) {
	if content == "" {
		return nil, fmt.Errorf("qr content required")
	}
	if size <= 0 {
		size = 256
	}
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}
