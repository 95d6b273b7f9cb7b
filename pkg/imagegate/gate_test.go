package imagegate

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
)

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 40, 56))
	for y := 0; y < 56; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.NRGBA{200, 180, 40, 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeDataURL(t *testing.T) {
	raw := jpegBytes(t)
	payload := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(raw)
	got, err := DecodeDataURL(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Fatalf("decoded bytes differ: %d vs %d", len(got), len(raw))
	}
}

func TestDecodeDataURLMissingDelimiter(t *testing.T) {
	if _, err := DecodeDataURL("nodelimiterhere"); !errors.Is(err, ErrInvalidEncoding) {
		t.Fatalf("expected ErrInvalidEncoding got %v", err)
	}
}

func TestDecodeDataURLBadBase64(t *testing.T) {
	if _, err := DecodeDataURL("data:image/jpeg;base64,???!"); !errors.Is(err, ErrInvalidEncoding) {
		t.Fatalf("expected ErrInvalidEncoding got %v", err)
	}
}

func TestValidateAcceptsJPEG(t *testing.T) {
	if err := Validate(jpegBytes(t)); err != nil {
		t.Fatalf("expected valid jpeg, got %v", err)
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	if err := Validate([]byte("definitely not an image")); !errors.Is(err, ErrInvalidImage) {
		t.Fatalf("expected ErrInvalidImage got %v", err)
	}
}

func TestValidateRejectsTruncated(t *testing.T) {
	raw := jpegBytes(t)
	if err := Validate(raw[:8]); !errors.Is(err, ErrInvalidImage) {
		t.Fatalf("expected ErrInvalidImage got %v", err)
	}
}
