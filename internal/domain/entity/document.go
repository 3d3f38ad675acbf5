// Package entity 定义领域实体
package entity

import (
	"time"

	"github.com/google/uuid"
)

// DocumentType 文档类型
type DocumentType string

const (
	DocumentTypeBook          DocumentType = "book"
	DocumentTypeResearchPaper DocumentType = "research_paper"
)

// DocumentFormat 输出格式
type DocumentFormat string

const (
	DocumentFormatPDF  DocumentFormat = "pdf"
	DocumentFormatDOCX DocumentFormat = "docx"
)

// ContentType 返回格式对应的 MIME 类型
func (f DocumentFormat) ContentType() string {
	switch f {
	case DocumentFormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/pdf"
	}
}

// Valid 检查格式是否受支持
func (f DocumentFormat) Valid() bool {
	return f == DocumentFormatPDF || f == DocumentFormatDOCX
}

// DocumentStatus 文档状态
type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "pending"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusCompleted  DocumentStatus = "completed"
	DocumentStatusFailed     DocumentStatus = "failed"
)

// Document 已生成（或生成中）文档的元数据记录
type Document struct {
	ID           string         `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID       string         `json:"user_id" gorm:"type:varchar(128);index;not null"`
	Title        string         `json:"title" gorm:"type:varchar(512);not null"`
	Topic        string         `json:"topic" gorm:"type:text;not null"`
	Type         DocumentType   `json:"type" gorm:"type:varchar(32);not null"`
	Profile      string         `json:"profile" gorm:"type:varchar(64);not null"`
	Format       DocumentFormat `json:"format" gorm:"type:varchar(8);not null"`
	FileURL      string         `json:"file_url,omitempty" gorm:"type:text"`
	ObjectKey    string         `json:"-" gorm:"type:varchar(512)"`
	Size         int64          `json:"size"`
	ShareToken   *string        `json:"share_token,omitempty" gorm:"type:varchar(64);uniqueIndex"`
	IsPublic     bool           `json:"is_public" gorm:"not null;default:false"`
	Status       DocumentStatus `json:"status" gorm:"type:varchar(16);index;not null"`
	ErrorMessage string         `json:"error_message,omitempty" gorm:"type:text"`
	CreatedAt    time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	StartedAt    *time.Time     `json:"started_at,omitempty"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
}

// TableName 表名
func (Document) TableName() string {
	return "documents"
}

// NewDocument 创建待处理的文档记录
func NewDocument(userID, title, topic, profile string, docType DocumentType, format DocumentFormat) *Document {
	return &Document{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		Topic:     topic,
		Type:      docType,
		Profile:   profile,
		Format:    format,
		Status:    DocumentStatusPending,
		CreatedAt: time.Now(),
	}
}

// ObjectKeyFor 对象存储路径 {userId}/{documentId}.{format}
func (d *Document) ObjectKeyFor() string {
	return d.UserID + "/" + d.ID + "." + string(d.Format)
}

// Start 开始生成
func (d *Document) Start() {
	now := time.Now()
	d.Status = DocumentStatusProcessing
	d.StartedAt = &now
}

// Complete 生成完成
func (d *Document) Complete(fileURL, objectKey string, size int64) {
	now := time.Now()
	d.Status = DocumentStatusCompleted
	d.FileURL = fileURL
	d.ObjectKey = objectKey
	d.Size = size
	d.ErrorMessage = ""
	d.CompletedAt = &now
}

// Fail 生成失败
func (d *Document) Fail(errMsg string) {
	now := time.Now()
	d.Status = DocumentStatusFailed
	d.ErrorMessage = errMsg
	d.CompletedAt = &now
}

// Share 开启公开分享，已有令牌时沿用
func (d *Document) Share() string {
	if d.ShareToken == nil || *d.ShareToken == "" {
		token := uuid.NewString()
		d.ShareToken = &token
	}
	d.IsPublic = true
	return *d.ShareToken
}

// Shareable 只有已完成的文档可以分享
func (d *Document) Shareable() bool {
	return d.Status == DocumentStatusCompleted
}

// Duration 生成耗时
func (d *Document) Duration() time.Duration {
	if d.StartedAt == nil || d.CompletedAt == nil {
		return 0
	}
	return d.CompletedAt.Sub(*d.StartedAt)
}
