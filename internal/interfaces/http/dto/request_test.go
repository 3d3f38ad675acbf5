package dto

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"bookforge-ai-api/internal/domain/repository"
)

func TestBindPage(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		query    string
		wantPage int
		wantSize int
	}{
		{"", 1, repository.DefaultPageSize},
		{"?page=2&page_size=5", 2, 5},
		{"?page=abc&page_size=x", 1, repository.DefaultPageSize},
		{"?page=-1&page_size=500", 1, repository.MaxPageSize},
	}
	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/documents"+tt.query, nil)

		req := BindPage(c)
		assert.Equal(t, tt.wantPage, req.Page, tt.query)
		assert.Equal(t, tt.wantSize, req.PageSize, tt.query)
		assert.Equal(t, req.Page, req.Pagination().Page)
	}
}

func TestNewPageMeta(t *testing.T) {
	r := repository.NewPagedResult([]int{1, 2}, 5, repository.NewPagination(1, 2))
	meta := NewPageMeta(r)
	assert.Equal(t, 5, meta.Total)
	assert.Equal(t, 3, meta.TotalPages)
	assert.True(t, meta.HasNext)
}
