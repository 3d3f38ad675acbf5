// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"
	stderrors "errors"

	"github.com/gin-gonic/gin"

	"bookforge-ai-api/internal/application/book"
	"bookforge-ai-api/internal/application/queue"
	"bookforge-ai-api/internal/interfaces/http/dto"
	"bookforge-ai-api/pkg/errors"
	"bookforge-ai-api/pkg/logger"
)

// requesterID 认证中间件注入的用户 ID，未启用认证时为空
func requesterID(c *gin.Context) string {
	return c.GetString("user_id")
}

// toAppError 把应用层错误映射为对外错误
// 只有参数错误会带上原始信息，其余统一使用预定义文案
func toAppError(err error) *errors.AppError {
	var appErr *errors.AppError
	switch {
	case stderrors.As(err, &appErr):
		return appErr
	case stderrors.Is(err, book.ErrInvalidRequest):
		return errors.ErrInvalidParam.WithDetail(err.Error())
	case stderrors.Is(err, book.ErrCancelled):
		return errors.ErrGenerationCanceled
	case stderrors.Is(err, book.ErrIrrelevantReply):
		return errors.ErrIrrelevantReply
	case stderrors.Is(err, book.ErrUpstream):
		return errors.ErrLLMCallFailed
	case stderrors.Is(err, queue.ErrQueueFull):
		return errors.ErrQueueFull
	case stderrors.Is(err, queue.ErrQueueClosed):
		return errors.ErrServiceUnavailable
	case stderrors.Is(err, book.ErrRender):
		return errors.ErrRenderFailed
	default:
		return errors.ErrGenerationFailed
	}
}

// writeError 记录并输出错误响应
func writeError(c *gin.Context, err error, msg string) {
	ctx := c.Request.Context()
	if stderrors.Is(err, context.Canceled) && ctx.Err() != nil {
		logger.Warn(ctx, "client went away", "error", err.Error())
		c.Abort()
		return
	}

	appErr := toAppError(err)
	if appErr.HTTPStatus >= 500 {
		logger.Error(ctx, msg, err, "error_code", string(appErr.Code))
	} else {
		logger.Warn(ctx, msg, "error", err.Error(), "error_code", string(appErr.Code))
	}

	message := appErr.Message
	if appErr.Detail != "" {
		message = appErr.Detail
	}
	dto.ErrorWithCode(c, appErr.HTTPStatus, string(appErr.Code), message)
}
