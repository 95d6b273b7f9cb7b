// Package ocr wraps the Tesseract engine behind a small interface so
// the request pipeline treats text recognition as a black box: image
// bytes in, newline-separated text lines out.
package ocr

import "context"

// Recognizer extracts text lines from an image.
type Recognizer interface {
	Recognize(ctx context.Context, img []byte) (string, error)
}
