package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublicURL(t *testing.T) {
	s := &GCSStore{bucket: "bookforge-docs"}
	assert.Equal(t, "https://storage.googleapis.com/bookforge-docs/u1/d1.pdf", s.PublicURL("/u1/d1.pdf"))

	cdn := &GCSStore{bucket: "bookforge-docs", publicBaseURL: "https://cdn.example.com"}
	assert.Equal(t, "https://cdn.example.com/u1/d1.docx", cdn.PublicURL("u1/d1.docx"))
}
