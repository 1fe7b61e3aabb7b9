package services

import (
	"encoding/base64"

	"github.com/skip2/go-qrcode"
	"github.com/vouchersplit/backend/internal/errs"
)

const (
	defaultQRSize = 256
	maxQRSize     = 1024
)

// TokenQR renders a voucher token as a base64 PNG so it can be scanned at a
// till. size is the image width in pixels.
func TokenQR(token string, size int) (string, error) {
	if token == "" {
		return "", errs.Markf(errs.ErrValidation, "token is required")
	}
	if size <= 0 {
		size = defaultQRSize
	}
	if size > maxQRSize {
		size = maxQRSize
	}

	png, err := qrcode.Encode(token, qrcode.Medium, size)
	if err != nil {
		return "", errs.Wrap(err, "encode qr code")
	}
	return base64.StdEncoding.EncodeToString(png), nil
}
