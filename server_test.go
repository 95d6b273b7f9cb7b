package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"cardscan/pkg/config"
	"cardscan/pkg/extract"
	"cardscan/pkg/pricing"
)

type stubRecognizer struct {
	text string
	err  error
}

func (s *stubRecognizer) Recognize(ctx context.Context, img []byte) (string, error) {
	return s.text, s.err
}

type stubResolver struct {
	quote pricing.Quote
}

func (s *stubResolver) Resolve(ctx context.Context, attrs extract.Attributes) pricing.Quote {
	return s.quote
}

type stubStore struct {
	images      map[string][]byte
	records     map[string]any
	diagnostics map[string][]byte
	putErr      error
}

func newStubStore() *stubStore {
	return &stubStore{
		images:      map[string][]byte{},
		records:     map[string]any{},
		diagnostics: map[string][]byte{},
	}
}

func (s *stubStore) PutImage(ctx context.Context, id string, img []byte) (string, error) {
	if s.putErr != nil {
		return "", s.putErr
	}
	s.images[id] = img
	return "http://storage.local/cards/" + id + ".jpg", nil
}

func (s *stubStore) PutRecord(ctx context.Context, id string, record any) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.records[id] = record
	return nil
}

func (s *stubStore) PutDiagnostic(ctx context.Context, id string, img []byte) error {
	s.diagnostics[id] = img
	return nil
}

func (s *stubStore) PresignedUpload(ctx context.Context, filename string) (string, error) {
	return "http://storage.local/presigned/" + filename, nil
}

func testServer(t *testing.T, recognizer *stubRecognizer, store *stubStore, cfg *config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if cfg == nil {
		cfg = &config.Config{}
	}
	srv := &Server{
		cfg:      cfg,
		ocr:      recognizer,
		vocab:    extract.DefaultVocabulary(),
		resolver: &stubResolver{},
		store:    store,
	}
	r := gin.New()
	setupRoutes(r, srv)
	return r
}

func jpegDataURL(t *testing.T) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 60, 84))
	for y := 0; y < 84; y++ {
		for x := 0; x < 60; x++ {
			img.Set(x, y, color.NRGBA{240, 200, 60, 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func postJSON(r http.Handler, path string, body any) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestProcessCardHappyPath(t *testing.T) {
	store := newStubStore()
	r := testServer(t, &stubRecognizer{text: "BASIC\nPIKACHU\n58/102"}, store, nil)

	rec := postJSON(r, "/process-card", gin.H{"imageBase64": jpegDataURL(t)})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", rec.Code, rec.Body.String())
	}
	var got CardRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Name != "Pikachu" {
		t.Fatalf("name: expected Pikachu got %q", got.Name)
	}
	if got.CardNumber != "58" || got.TotalCardsInSet != "102" {
		t.Fatalf("number: expected 58/102 got %s/%s", got.CardNumber, got.TotalCardsInSet)
	}
	if got.EvolutionStage != "BASIC" {
		t.Fatalf("stage: expected BASIC got %q", got.EvolutionStage)
	}
	if got.FullText != "BASIC\nPIKACHU\n58/102" {
		t.Fatalf("fullText must carry the verbatim OCR text, got %q", got.FullText)
	}
	if len(store.images) != 1 || len(store.records) != 1 {
		t.Fatalf("expected image+record writes, got %d/%d", len(store.images), len(store.records))
	}
	if len(store.diagnostics) != 0 {
		t.Fatalf("no diagnostic write expected")
	}
}

func TestProcessCardInvalidImageArchivesDiagnostic(t *testing.T) {
	store := newStubStore()
	r := testServer(t, &stubRecognizer{text: "unused"}, store, nil)

	payload := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("not a real image"))
	rec := postJSON(r, "/process-card", gin.H{"imageBase64": payload})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if len(store.diagnostics) != 1 {
		t.Fatalf("expected one diagnostic write, got %d", len(store.diagnostics))
	}
	if len(store.images) != 0 || len(store.records) != 0 {
		t.Fatalf("no image/record writes expected on rejection")
	}
}

func TestProcessCardMissingDelimiter(t *testing.T) {
	store := newStubStore()
	r := testServer(t, &stubRecognizer{}, store, nil)

	rec := postJSON(r, "/process-card", gin.H{"imageBase64": "nodelimiter"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if len(store.diagnostics) != 0 {
		t.Fatalf("encoding failures are not archived")
	}
}

func TestProcessCardOCRFailureIsFatal(t *testing.T) {
	store := newStubStore()
	r := testServer(t, &stubRecognizer{err: errors.New("tesseract crashed")}, store, nil)

	rec := postJSON(r, "/process-card", gin.H{"imageBase64": jpegDataURL(t)})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
	if len(store.records) != 0 {
		t.Fatalf("nothing may be persisted when OCR fails")
	}
}

func TestProcessCardUnreadableTextStillSucceeds(t *testing.T) {
	store := newStubStore()
	r := testServer(t, &stubRecognizer{text: "%%% garbled @@@"}, store, nil)

	rec := postJSON(r, "/process-card", gin.H{"imageBase64": jpegDataURL(t)})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var got CardRecord
	_ = json.Unmarshal(rec.Body.Bytes(), &got)
	if got.Name != extract.Unknown || got.CardNumber != extract.Unknown {
		t.Fatalf("expected Unknown sentinels, got %+v", got)
	}
}

func TestSignedURL(t *testing.T) {
	r := testServer(t, &stubRecognizer{}, newStubStore(), nil)

	req, _ := http.NewRequest(http.MethodGet, "/get-signed-url?filename=scan.jpg", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "presigned/scan.jpg") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}

	req, _ = http.NewRequest(http.MethodGet, "/get-signed-url", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without filename, got %d", rec.Code)
	}
}

func TestAuthGateWhenSecretConfigured(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("service-key"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	cfg := &config.Config{AuthSecret: "test-secret", APIKeyHash: string(hash)}
	r := testServer(t, &stubRecognizer{text: "BASIC\nPIKACHU\n58/102"}, newStubStore(), cfg)

	// Unauthenticated processing is refused.
	rec := postJSON(r, "/process-card", gin.H{"imageBase64": jpegDataURL(t)})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}

	// Wrong key is refused.
	rec = postJSON(r, "/auth/token", gin.H{"apiKey": "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad key got %d", rec.Code)
	}

	// Exchange the key, then process with the token.
	rec = postJSON(r, "/auth/token", gin.H{"apiKey": "service-key"})
	if rec.Code != http.StatusOK {
		t.Fatalf("token exchange failed: %d %s", rec.Code, rec.Body.String())
	}
	var tokenResp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &tokenResp); err != nil || tokenResp.Token == "" {
		t.Fatalf("no token in response: %v %s", err, rec.Body.String())
	}

	raw, _ := json.Marshal(gin.H{"imageBase64": jpegDataURL(t)})
	req, _ := http.NewRequest(http.MethodPost, "/process-card", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tokenResp.Token)
	rec2 := httptest.NewRecorder()
	r.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusOK {
		t.Fatalf("expected 200 with token got %d %s", rec2.Code, rec2.Body.String())
	}
}
