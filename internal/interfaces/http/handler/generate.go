package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"bookforge-ai-api/internal/application/book"
	"bookforge-ai-api/internal/application/document"
	"bookforge-ai-api/internal/domain/entity"
	"bookforge-ai-api/internal/interfaces/http/dto"
	"bookforge-ai-api/pkg/logger"
)

// ProfileRoutes 每个内置规格对应的生成路由
var ProfileRoutes = map[string]string{
	book.ProfileBookSmall:         "/generateBookSmall",
	book.ProfileBookMedium:        "/generateBookMed",
	book.ProfileBookLong:          "/generateBookLong",
	book.ProfileResearchPaper:     "/generateResearchPaper",
	book.ProfileResearchPaperLong: "/generateResearchPaperLong",
}

// GenerateHandler 文档生成处理器
type GenerateHandler struct {
	service *document.GenerationService
}

// NewGenerateHandler 创建文档生成处理器
func NewGenerateHandler(service *document.GenerationService) *GenerateHandler {
	return &GenerateHandler{service: service}
}

// Generate 返回指定规格的生成处理函数
// 整份文档在本次请求内生成完毕，成功后以附件形式返回文件，随后删除工作目录
// @Summary 生成文档
// @Tags Generate
// @Accept json
// @Produce application/pdf
// @Param body body dto.GenerateRequest true "主题与用户"
// @Success 200 {file} binary
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "任务被取消"
// @Failure 422 {object} dto.ErrorResponse "回复偏离主题"
// @Failure 502 {object} dto.ErrorResponse "模型调用失败"
// @Failure 503 {object} dto.ErrorResponse "队列已满"
func (h *GenerateHandler) Generate(profile book.Profile) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.GenerateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			dto.BadRequest(c, "prompt and userId are required")
			return
		}
		prompt := strings.TrimSpace(req.Prompt)
		if prompt == "" {
			dto.BadRequest(c, "prompt must not be empty")
			return
		}
		userID := req.UserID
		if rid := requesterID(c); rid != "" {
			userID = rid
		}

		ctx := logger.WithContext(c.Request.Context(), logger.UserIDKey, userID)
		res, err := h.service.Generate(ctx, document.GenerateCommand{
			UserID:  userID,
			Topic:   prompt,
			Profile: profile,
			Format:  entity.DocumentFormat(strings.ToLower(strings.TrimSpace(req.Format))),
		})
		if err != nil {
			writeError(c, err, "document generation failed")
			return
		}
		defer func() {
			if rmErr := res.Release(); rmErr != nil {
				logger.Warn(ctx, "failed to release job workspace", "job_id", res.JobID, "error", rmErr.Error())
			}
		}()

		f, err := res.Open()
		if err != nil {
			writeError(c, err, "failed to open generated document")
			return
		}
		defer f.Close()

		c.DataFromReader(http.StatusOK, res.Size, res.ContentType, f, map[string]string{
			"Content-Disposition": fmt.Sprintf("attachment; filename=%q", res.FileName),
			"X-Job-ID":            res.JobID,
		})
	}
}

// Cancel 取消用户排队中和运行中的任务
// 正在进行的模型调用会执行完，任务在下一节开始前停止
// @Summary 取消生成
// @Tags Generate
// @Accept json
// @Produce json
// @Param body body dto.CancelRequest true "用户"
// @Success 200 {object} dto.Response[dto.CancelResponse]
// @Router /generate/cancel [post]
func (h *GenerateHandler) Cancel(c *gin.Context) {
	var req dto.CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "userId is required")
		return
	}
	userID := req.UserID
	if rid := requesterID(c); rid != "" {
		userID = rid
	}

	n := h.service.Cancel(userID)
	logger.Info(c.Request.Context(), "generation cancel requested", "user_id", userID, "cancelled", n)
	dto.Success(c, &dto.CancelResponse{UserID: userID, Cancelled: n})
}

// ListProfiles 列出可用的生成规格
// @Summary 生成规格
// @Tags Generate
// @Produce json
// @Success 200 {object} dto.Response[[]dto.ProfileResponse]
// @Router /profiles [get]
func (h *GenerateHandler) ListProfiles(c *gin.Context) {
	profiles := book.Profiles()
	out := make([]*dto.ProfileResponse, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, &dto.ProfileResponse{
			Name:         p.Name,
			Route:        ProfileRoutes[p.Name],
			DocumentType: string(p.DocumentType),
			Chapters:     p.ChapterCount,
			Sections:     p.SectionCount(),
			MinWords:     p.MinWordsPerChapter,
		})
	}
	dto.Success(c, out)
}
