package dto

import (
	"time"

	"bookforge-ai-api/internal/domain/entity"
)

// DocumentResponse 文档元数据响应
type DocumentResponse struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	Title        string     `json:"title"`
	Topic        string     `json:"topic"`
	Type         string     `json:"type"`
	Profile      string     `json:"profile"`
	Format       string     `json:"format"`
	Status       string     `json:"status"`
	FileURL      string     `json:"file_url,omitempty"`
	Size         int64      `json:"size"`
	IsPublic     bool       `json:"is_public"`
	ShareToken   string     `json:"share_token,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// SharedDocumentResponse 公开分享的文档，不含所有者和令牌
type SharedDocumentResponse struct {
	Title     string    `json:"title"`
	Topic     string    `json:"topic"`
	Type      string    `json:"type"`
	Format    string    `json:"format"`
	FileURL   string    `json:"file_url"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// ShareResponse 分享结果
type ShareResponse struct {
	DocumentID string `json:"document_id"`
	ShareToken string `json:"share_token"`
	SharePath  string `json:"share_path"`
}

// ToDocumentResponse 转换为响应
func ToDocumentResponse(d *entity.Document) *DocumentResponse {
	if d == nil {
		return nil
	}
	resp := &DocumentResponse{
		ID:           d.ID,
		UserID:       d.UserID,
		Title:        d.Title,
		Topic:        d.Topic,
		Type:         string(d.Type),
		Profile:      d.Profile,
		Format:       string(d.Format),
		Status:       string(d.Status),
		FileURL:      d.FileURL,
		Size:         d.Size,
		IsPublic:     d.IsPublic,
		ErrorMessage: d.ErrorMessage,
		CreatedAt:    d.CreatedAt,
		CompletedAt:  d.CompletedAt,
	}
	if d.ShareToken != nil {
		resp.ShareToken = *d.ShareToken
	}
	return resp
}

// ToDocumentList 转换列表
func ToDocumentList(docs []*entity.Document) []*DocumentResponse {
	out := make([]*DocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, ToDocumentResponse(d))
	}
	return out
}

// ToSharedDocumentResponse 转换为公开响应
func ToSharedDocumentResponse(d *entity.Document) *SharedDocumentResponse {
	if d == nil {
		return nil
	}
	return &SharedDocumentResponse{
		Title:     d.Title,
		Topic:     d.Topic,
		Type:      string(d.Type),
		Format:    string(d.Format),
		FileURL:   d.FileURL,
		Size:      d.Size,
		CreatedAt: d.CreatedAt,
	}
}
