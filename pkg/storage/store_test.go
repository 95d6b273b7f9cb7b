package storage

import "testing"

func TestPublicURL(t *testing.T) {
	s := &Store{bucket: "card-images", endpoint: "localhost:9000"}
	got := s.PublicURL("abc123.jpg")
	if got != "http://localhost:9000/card-images/abc123.jpg" {
		t.Fatalf("unexpected url %q", got)
	}
}

func TestPublicURLHTTPS(t *testing.T) {
	s := &Store{bucket: "cards", endpoint: "storage.example.com", useSSL: true}
	got := s.PublicURL(DiagnosticPrefix + "abc.jpg")
	if got != "https://storage.example.com/cards/invalid-images/abc.jpg" {
		t.Fatalf("unexpected url %q", got)
	}
}
