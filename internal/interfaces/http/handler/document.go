package handler

import (
	"github.com/gin-gonic/gin"

	"bookforge-ai-api/internal/application/document"
	"bookforge-ai-api/internal/domain/entity"
	"bookforge-ai-api/internal/domain/repository"
	"bookforge-ai-api/internal/interfaces/http/dto"
	"bookforge-ai-api/pkg/errors"
)

// DocumentHandler 文档元数据处理器
type DocumentHandler struct {
	documents *document.Service
}

// NewDocumentHandler 创建文档处理器
func NewDocumentHandler(documents *document.Service) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

// ListDocuments 获取用户的文档列表
// @Summary 文档列表
// @Tags Documents
// @Produce json
// @Param userId path string true "用户 ID"
// @Param status query string false "状态过滤"
// @Param type query string false "类型过滤"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} dto.Response[[]dto.DocumentResponse]
// @Failure 403 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse "未配置元数据存储"
// @Router /documents/{userId} [get]
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	ctx := c.Request.Context()
	userID := dto.BindUserID(c)
	if rid := requesterID(c); rid != "" && rid != userID {
		writeError(c, errors.ErrForbidden, "list documents of another user")
		return
	}

	page := dto.BindPage(c)
	filter := &repository.DocumentFilter{
		Status: entity.DocumentStatus(c.Query("status")),
		Type:   entity.DocumentType(c.Query("type")),
	}

	result, err := h.documents.List(ctx, userID, filter, page.Pagination())
	if err != nil {
		writeError(c, err, "failed to list documents")
		return
	}
	dto.SuccessWithPage(c, dto.ToDocumentList(result.Items), dto.NewPageMeta(result))
}

// DeleteDocument 删除文档及其存储的文件
// @Summary 删除文档
// @Tags Documents
// @Param documentId path string true "文档 ID"
// @Success 204
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /documents/{documentId} [delete]
func (h *DocumentHandler) DeleteDocument(c *gin.Context) {
	if err := h.documents.Delete(c.Request.Context(), dto.BindDocumentID(c), requesterID(c)); err != nil {
		writeError(c, err, "failed to delete document")
		return
	}
	dto.NoContent(c)
}

// ShareDocument 开启公开分享
// @Summary 分享文档
// @Tags Documents
// @Produce json
// @Param documentId path string true "文档 ID"
// @Success 200 {object} dto.Response[dto.ShareResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "文档尚未完成"
// @Router /documents/{documentId}/share [post]
func (h *DocumentHandler) ShareDocument(c *gin.Context) {
	doc, err := h.documents.Share(c.Request.Context(), dto.BindDocumentID(c), requesterID(c))
	if err != nil {
		writeError(c, err, "failed to share document")
		return
	}
	token := *doc.ShareToken
	dto.Success(c, &dto.ShareResponse{
		DocumentID: doc.ID,
		ShareToken: token,
		SharePath:  "/share/" + token,
	})
}

// GetShared 按分享令牌读取公开文档
// @Summary 读取分享
// @Tags Documents
// @Produce json
// @Param token path string true "分享令牌"
// @Success 200 {object} dto.Response[dto.SharedDocumentResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /share/{token} [get]
func (h *DocumentHandler) GetShared(c *gin.Context) {
	doc, err := h.documents.GetShared(c.Request.Context(), dto.BindShareToken(c))
	if err != nil {
		writeError(c, err, "failed to load shared document")
		return
	}
	dto.Success(c, dto.ToSharedDocumentResponse(doc))
}
