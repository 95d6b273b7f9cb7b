package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"cardscan/pkg/catalog"
	"cardscan/pkg/config"
	"cardscan/pkg/extract"
	"cardscan/pkg/ocr"
	"cardscan/pkg/pricing"
	"cardscan/pkg/storage"
)

func main() {
	cfg := config.Load()

	// `./cardscan migrate` runs schema migration and exits, for CI or
	// manual DB setup.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if cfg.DatabaseDSN == "" {
			log.Fatal("migrate requires DB_DSN")
		}
		initDB(cfg.DatabaseDSN)
		log.Println("migration completed")
		return
	}

	initDB(cfg.DatabaseDSN)

	vocab := extract.DefaultVocabulary()
	if cfg.VocabFile != "" {
		if err := vocab.LoadFile(cfg.VocabFile); err != nil {
			log.Printf("vocabulary file %s not loaded, using built-in list: %v", cfg.VocabFile, err)
		} else if err := vocab.Watch(context.Background(), cfg.VocabFile); err != nil {
			log.Printf("vocabulary watch failed: %v", err)
		}
	}

	client := catalog.NewClient(cfg.Catalog.BaseURL, cfg.Catalog.APIKey)
	index := catalog.NewSetIndex(client)
	index.Start(context.Background(), cfg.Catalog.RefreshInterval)

	var cache *redis.Client
	if cfg.Redis.Addr != "" {
		cache = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := cache.Ping(ctx).Err(); err != nil {
			log.Printf("redis unreachable, quote cache disabled: %v", err)
			cache = nil
		}
		cancel()
	}

	store, err := storage.New(
		cfg.Storage.Endpoint,
		cfg.Storage.AccessKey,
		cfg.Storage.SecretKey,
		cfg.Storage.Bucket,
		cfg.Storage.UseSSL,
	)
	if err != nil {
		log.Fatalf("object storage init failed: %v", err)
	}

	srv := &Server{
		cfg:      cfg,
		ocr:      ocr.NewTesseract(cfg.OCRLanguage),
		vocab:    vocab,
		resolver: pricing.NewResolver(client, index, cache),
		store:    store,
	}

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	setupRoutes(r, srv)

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
