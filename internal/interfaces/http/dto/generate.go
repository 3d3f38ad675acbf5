package dto

// GenerateRequest 生成请求
type GenerateRequest struct {
	Prompt string `json:"prompt" binding:"required"`
	UserID string `json:"userId" binding:"required"`
	// Format 输出格式 pdf/docx，默认 pdf
	Format string `json:"format,omitempty"`
}

// CancelRequest 取消请求
type CancelRequest struct {
	UserID string `json:"userId" binding:"required"`
}

// CancelResponse 取消结果
type CancelResponse struct {
	UserID    string `json:"user_id"`
	Cancelled int    `json:"cancelled"`
}

// ProfileResponse 生成档位
type ProfileResponse struct {
	Name         string `json:"name"`
	Route        string `json:"route"`
	DocumentType string `json:"document_type"`
	Chapters     int    `json:"chapters"`
	Sections     int    `json:"sections"`
	MinWords     int    `json:"min_words"`
}
