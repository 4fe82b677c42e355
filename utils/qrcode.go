package utils

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	// DefaultQRSize is the edge length in pixels of generated QR images.
	DefaultQRSize = 512
	// MaxQRSize caps client-requested sizes; memory grows with size².
	MaxQRSize = 1024
)

// QRPNG renders payload as a PNG QR code. Sizes above MaxQRSize are clamped.
func QRPNG(payload string, size int) ([]byte, error) {
	if payload == "" {
		return nil, fmt.Errorf("empty qr payload")
	}
	switch {
	case size <= 0:
		size = DefaultQRSize
	case size > MaxQRSize:
		size = MaxQRSize
	}
	png, err := qrcode.Encode(payload, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}
