package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// Tesseract runs gosseract over a few preprocessed crops of the card
// photo. Card text is not evenly distributed: the name sits in a band
// near the top and the number/total stamp in the footer, so those
// regions get dedicated passes on top of the full-frame one.
type Tesseract struct {
	Language string
}

func NewTesseract(language string) *Tesseract {
	if language == "" {
		language = "eng"
	}
	return &Tesseract{Language: language}
}

// Recognize returns the concatenated text of all passes, one line per
// recognized line. Individual pass failures are tolerated as long as
// at least one pass produced output.
func (t *Tesseract) Recognize(ctx context.Context, img []byte) (string, error) {
	src, err := imaging.Decode(bytes.NewReader(img))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	prep := imaging.Grayscale(src)
	prep = imaging.AdjustContrast(prep, 12)
	prep = imaging.Sharpen(prep, 0.6)
	if prep.Bounds().Dy() < 900 {
		prep = imaging.Resize(prep, 0, 1200, imaging.Lanczos)
	}

	h := prep.Bounds().Dy()
	w := prep.Bounds().Dx()
	crops := []image.Image{
		prep,
		// name band
		imaging.Crop(prep, image.Rect(0, 0, w, h/4)),
		// footer band with the number/total stamp
		imaging.Crop(prep, image.Rect(0, h*4/5, w, h)),
	}

	var parts []string
	var lastErr error
	for i, crop := range crops {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		text, err := t.runPass(crop)
		if err != nil {
			lastErr = err
			log.Printf("ocr pass %d failed: %v", i, err)
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			parts = append(parts, text)
		}
	}
	if len(parts) == 0 && lastErr != nil {
		return "", fmt.Errorf("ocr: %w", lastErr)
	}
	return strings.Join(parts, "\n"), nil
}

func (t *Tesseract) runPass(img image.Image) (string, error) {
	tmp, err := os.CreateTemp("", "cardscan-*.png")
	if err != nil {
		return "", err
	}
	path := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(path)
	if err := imaging.Save(img, path); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()
	_ = client.SetLanguage(t.Language)
	_ = client.SetPageSegMode(gosseract.PSM_SPARSE_TEXT)
	if err := client.SetImage(path); err != nil {
		return "", err
	}
	return client.Text()
}
