// Package imagegate turns a transport-encoded image payload into raw
// bytes and rejects anything that is not a well-formed photo before
// the expensive OCR and catalog work starts.
package imagegate

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image/jpeg"
	"strings"
)

var (
	// ErrInvalidEncoding means the payload was not a data-URL style
	// "<prefix>,<base64>" string.
	ErrInvalidEncoding = errors.New("invalid image encoding")
	// ErrInvalidImage means the decoded bytes are not a parseable JPEG.
	ErrInvalidImage = errors.New("invalid image data")
)

var jpegSignature = []byte{0xff, 0xd8, 0xff}

// DecodeDataURL splits a "data:image/jpeg;base64,<payload>" style
// string on its first comma and base64-decodes the payload.
func DecodeDataURL(s string) ([]byte, error) {
	idx := strings.IndexByte(s, ',')
	if idx < 0 {
		return nil, ErrInvalidEncoding
	}
	raw, err := base64.StdEncoding.DecodeString(s[idx+1:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return raw, nil
}

// Validate checks the JPEG magic bytes and then probes the header so a
// truncated or mislabeled upload fails here instead of inside OCR.
func Validate(b []byte) error {
	if len(b) < len(jpegSignature) || !bytes.HasPrefix(b, jpegSignature) {
		return ErrInvalidImage
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return ErrInvalidImage
	}
	return nil
}
