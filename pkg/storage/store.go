// Package storage persists card images and their derived metadata
// records as objects in a minio/S3-compatible bucket.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// DiagnosticPrefix namespaces archived copies of rejected uploads so
// they can be inspected without polluting the real card objects.
const DiagnosticPrefix = "invalid-images/"

// presignTTL bounds the direct-upload authorization handed to clients.
const presignTTL = 60 * time.Second

type Store struct {
	client   *minio.Client
	bucket   string
	endpoint string
	useSSL   bool
}

// New connects to the object-storage endpoint and makes sure the
// bucket exists.
func New(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*Store, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	s := &Store{client: client, bucket: bucket, endpoint: endpoint, useSSL: useSSL}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("make bucket %s: %w", bucket, err)
		}
		log.Printf("created bucket %s", bucket)
	}
	return s, nil
}

// PutImage stores the original photo under <id>.jpg and returns its
// public URL.
func (s *Store) PutImage(ctx context.Context, id string, img []byte) (string, error) {
	key := id + ".jpg"
	if err := s.put(ctx, key, img, "image/jpeg"); err != nil {
		return "", err
	}
	return s.PublicURL(key), nil
}

// PutRecord stores the final metadata document under <id>.json.
func (s *Store) PutRecord(ctx context.Context, id string, record any) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	return s.put(ctx, id+".json", raw, "application/json")
}

// PutDiagnostic archives a rejected payload for later inspection.
func (s *Store) PutDiagnostic(ctx context.Context, id string, img []byte) error {
	return s.put(ctx, DiagnosticPrefix+id+".jpg", img, "image/jpeg")
}

// PresignedUpload returns a short-lived direct-upload URL for the
// given object name.
func (s *Store) PresignedUpload(ctx context.Context, filename string) (string, error) {
	u, err := s.client.PresignedPutObject(ctx, s.bucket, filename, presignTTL)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", filename, err)
	}
	return u.String(), nil
}

// PublicURL derives the object's public address from endpoint, bucket
// and key.
func (s *Store) PublicURL(key string) string {
	scheme := "http"
	if s.useSSL {
		scheme = "https"
	}
	u := url.URL{Scheme: scheme, Host: s.endpoint, Path: "/" + s.bucket + "/" + key}
	return u.String()
}

// put uploads with one retry; storage shares the catalog's transient
// failure profile.
func (s *Store) put(ctx context.Context, key string, data []byte, contentType string) error {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(300 * time.Millisecond):
			}
		}
		_, lastErr = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
			ContentType: contentType,
		})
		if lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("put %s: %w", key, lastErr)
}
