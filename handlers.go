package main

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"cardscan/pkg/config"
	"cardscan/pkg/extract"
	"cardscan/pkg/imagegate"
	"cardscan/pkg/ocr"
	"cardscan/pkg/pricing"
)

// maxBodyBytes caps the inbound request body; a base64 JPEG photo fits
// comfortably under this.
const maxBodyBytes = 10 << 20

// ObjectStore is the slice of the storage layer the handlers use,
// narrowed so tests can stub it.
type ObjectStore interface {
	PutImage(ctx context.Context, id string, img []byte) (string, error)
	PutRecord(ctx context.Context, id string, record any) error
	PutDiagnostic(ctx context.Context, id string, img []byte) error
	PresignedUpload(ctx context.Context, filename string) (string, error)
}

// PriceResolver resolves extracted attributes to a market quote.
type PriceResolver interface {
	Resolve(ctx context.Context, attrs extract.Attributes) pricing.Quote
}

type Server struct {
	cfg      *config.Config
	ocr      ocr.Recognizer
	vocab    *extract.Vocabulary
	resolver PriceResolver
	store    ObjectStore
}

func setupRoutes(r *gin.Engine, s *Server) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	grp := r.Group("")
	grp.Use(limitBody(maxBodyBytes))
	if s.cfg.AuthSecret != "" {
		r.POST("/auth/token", s.tokenHandler)
		grp.Use(jwtAuthMiddleware([]byte(s.cfg.AuthSecret)))
	}
	grp.POST("/process-card", s.processCardHandler)
	grp.GET("/get-signed-url", s.signedURLHandler)
	grp.GET("/scans", s.listScansHandler)
}

func limitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}

// processCardHandler runs the full pipeline: gate, OCR, extraction,
// pricing, persistence. OCR and storage failures are fatal to the
// request; pricing degrades to a null quote.
func (s *Server) processCardHandler(c *gin.Context) {
	var req struct {
		ImageBase64 string `json:"imageBase64" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	img, err := imagegate.DecodeDataURL(req.ImageBase64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image encoding"})
		return
	}

	id := uuid.New().String()
	ctx := c.Request.Context()

	if err := imagegate.Validate(img); err != nil {
		if errors.Is(err, imagegate.ErrInvalidImage) {
			// Archive the rejected bytes so misbehaving clients can be
			// diagnosed later.
			if derr := s.store.PutDiagnostic(ctx, id, img); derr != nil {
				log.Printf("diagnostic archive failed for %s: %v", id, derr)
			}
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image"})
		return
	}

	text, err := s.ocr.Recognize(ctx, img)
	if err != nil {
		log.Printf("ocr failed for %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "text recognition failed"})
		return
	}

	attrs := extract.Extract(text, s.vocab)
	quote := s.resolver.Resolve(ctx, attrs)

	imageURL, err := s.store.PutImage(ctx, id, img)
	if err != nil {
		log.Printf("image write failed for %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage write failed"})
		return
	}
	rec := buildRecord(attrs, quote, text, imageURL)
	if err := s.store.PutRecord(ctx, id, rec); err != nil {
		log.Printf("record write failed for %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage write failed"})
		return
	}

	saveScan(id, rec)

	c.JSON(http.StatusOK, rec)
}

// signedURLHandler hands out a short-lived direct-upload URL. Thin
// delegation to the storage collaborator.
func (s *Server) signedURLHandler(c *gin.Context) {
	filename := c.Query("filename")
	if filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "filename required"})
		return
	}
	u, err := s.store.PresignedUpload(c.Request.Context(), filename)
	if err != nil {
		log.Printf("presign failed for %s: %v", filename, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create signed url"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": u})
}

// listScansHandler returns recent history rows, newest first.
func (s *Server) listScansHandler(c *gin.Context) {
	if db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scan history disabled"})
		return
	}
	var scans []struct {
		ScanID        string   `json:"scanId"`
		Name          string   `json:"name"`
		CardNumber    string   `json:"cardNumber"`
		SetID         string   `json:"setId"`
		SelectedPrice *float64 `json:"selectedPrice"`
		ImageURL      string   `json:"imageUrl"`
	}
	if err := db.Table("scans").Order("id desc").Limit(100).Find(&scans).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, scans)
}
