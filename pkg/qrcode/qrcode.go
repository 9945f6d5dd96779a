package qrcode

import (
	"encoding/base64"
	"errors"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"
)

var (
	ErrEmptyContent = errors.New("qrcode: content cannot be empty")
	ErrGenerate     = errors.New("qrcode: failed to generate")
)

const defaultSize = 256

// Option tunes the generated image.
type Option func(*options)

type options struct {
	size  int
	level skipqrcode.RecoveryLevel
}

// WithSize sets the image edge in pixels.
func WithSize(px int) Option {
	return func(o *options) {
		if px > 0 {
			o.size = px
		}
	}
}

// WithHighRecovery survives heavier print damage at the cost of density.
func WithHighRecovery() Option {
	return func(o *options) { o.level = skipqrcode.High }
}

// PNG encodes content as a QR code image.
func PNG(content string, opts ...Option) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	o := options{size: defaultSize, level: skipqrcode.Medium}
	for _, opt := range opts {
		opt(&o)
	}
	png, err := skipqrcode.Encode(content, o.level, o.size)
	if err != nil {
		return nil, errors.Join(ErrGenerate, err)
	}
	return png, nil
}

// DataURI returns the PNG as a data: URI for inline HTML.
func DataURI(content string, opts ...Option) (string, error) {
	png, err := PNG(content, opts...)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
