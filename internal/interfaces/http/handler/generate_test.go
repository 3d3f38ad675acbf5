package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookforge-ai-api/internal/domain/entity"
)

func TestGenerate_StreamsAttachmentAndCleansUp(t *testing.T) {
	s := newStack(t, catsReply)

	w := doJSON(s.engine, http.MethodPost, "/generateBookSmall", map[string]string{
		"prompt": "Cats",
		"userId": "u1",
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="cats.pdf"`, w.Header().Get("Content-Disposition"))
	assert.NotEmpty(t, w.Header().Get("X-Job-ID"))
	assert.Equal(t, "%PDF-stub", w.Body.String())
	assert.Equal(t, 0, s.workspaceCount(t))

	docs := s.repo.all()
	require.Len(t, docs, 1)
	assert.Equal(t, entity.DocumentStatusCompleted, docs[0].Status)
	assert.Equal(t, "u1", docs[0].UserID)
}

func TestGenerate_DocxFormat(t *testing.T) {
	s := newStack(t, catsReply)

	w := doJSON(s.engine, http.MethodPost, "/generateBookSmall", map[string]string{
		"prompt": "Cats",
		"userId": "u1",
		"format": "DOCX",
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, entity.DocumentFormatDOCX.ContentType(), w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="cats.docx"`, w.Header().Get("Content-Disposition"))
	assert.True(t, w.Body.Len() > 0)
}

func TestGenerate_BadRequests(t *testing.T) {
	s := newStack(t, catsReply)

	cases := []struct {
		name string
		body map[string]string
	}{
		{"missing prompt", map[string]string{"userId": "u1"}},
		{"missing user", map[string]string{"prompt": "Cats"}},
		{"blank prompt", map[string]string{"prompt": "   ", "userId": "u1"}},
		{"bad format", map[string]string{"prompt": "Cats", "userId": "u1", "format": "epub"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(s.engine, http.MethodPost, "/generateBookSmall", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotEmpty(t, decodeError(t, w)["error"])
		})
	}
	assert.Equal(t, 0, s.model.calls)
}

func TestGenerate_IrrelevantReplyIs422(t *testing.T) {
	s := newStack(t, func(call int) (string, error) {
		if call == 0 {
			return "# Table of Contents\n\n1. Cats", nil
		}
		return "Something about dogs.", nil
	})

	w := doJSON(s.engine, http.MethodPost, "/generateBookSmall", map[string]string{"prompt": "Cats", "userId": "u1"})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, "generated content was off-topic", body["error"])
	assert.Equal(t, 0, s.workspaceCount(t))

	docs := s.repo.all()
	require.Len(t, docs, 1)
	assert.Equal(t, entity.DocumentStatusFailed, docs[0].Status)
}

func TestGenerate_UpstreamErrorIs502WithGenericMessage(t *testing.T) {
	s := newStack(t, func(call int) (string, error) {
		if call == 2 {
			return "", errors.New("dial tcp: secret-host refused")
		}
		return catsReply(call)
	})

	w := doJSON(s.engine, http.MethodPost, "/generateBookSmall", map[string]string{"prompt": "Cats", "userId": "u1"})

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.NotContains(t, w.Body.String(), "secret-host")
	assert.Equal(t, 0, s.workspaceCount(t))
}

func TestGenerate_CancelledMidwayIs409(t *testing.T) {
	var s *stack
	s = newStack(t, catsReply)
	s.model.hook = func(call int) {
		if call == 1 {
			w := doJSON(s.engine, http.MethodPost, "/generate/cancel", map[string]string{"userId": "u1"})
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), `"cancelled":1`)
		}
	}

	w := doJSON(s.engine, http.MethodPost, "/generateBookSmall", map[string]string{"prompt": "Cats", "userId": "u1"})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 2, s.model.calls)
	assert.Equal(t, 0, s.workspaceCount(t))
}

func TestCancel_NoActiveJobs(t *testing.T) {
	s := newStack(t, catsReply)

	w := doJSON(s.engine, http.MethodPost, "/generate/cancel", map[string]string{"userId": "nobody"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"cancelled":0`)

	w = doJSON(s.engine, http.MethodPost, "/generate/cancel", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListProfiles(t *testing.T) {
	s := newStack(t, catsReply)

	w := doJSON(s.engine, http.MethodGet, "/profiles", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"route":"/generateBookSmall"`)
	assert.Contains(t, w.Body.String(), `"route":"/generateResearchPaperLong"`)
	assert.Contains(t, w.Body.String(), `"sections":7`)
}
