package qrcode

import (
	"encoding/base64"
	"fmt"

	goqrcode "github.com/skip2/go-qrcode"
)

const dataURLPrefix = "data:image/png;base64,"

// Renderer turns a payload into a scannable image.
type Renderer interface {
	DataURL(content string) (string, error)
}

// PNGRenderer encodes payloads as square PNG QR codes.
type PNGRenderer struct {
	size  int
	level goqrcode.RecoveryLevel
}

func NewPNGRenderer(size int) *PNGRenderer {
	if size <= 0 {
		size = 256
	}
	return &PNGRenderer{size: size, level: goqrcode.Medium}
}

// DataURL returns the image as a base64 PNG data URL.
func (r *PNGRenderer) DataURL(content string) (string, error) {
	png, err := goqrcode.Encode(content, r.level, r.size)
	if err != nil {
		return "", fmt.Errorf("failed to encode qr code: %w", err)
	}
	return dataURLPrefix + base64.StdEncoding.EncodeToString(png), nil
}
