package book

import (
	"errors"

	"bookforge-ai-api/internal/application/render"
)

var (
	// ErrInvalidRequest 请求参数不合法
	ErrInvalidRequest = errors.New("invalid generation request")
	// ErrUpstream 模型调用失败或返回空内容
	ErrUpstream = errors.New("completion upstream failed")
	// ErrIrrelevantReply 回复与主题无关
	ErrIrrelevantReply = errors.New("completion is not relevant to the topic")
	// ErrMissingArtifact 组装时找不到章节文件
	ErrMissingArtifact = errors.New("section artifact missing")
	// ErrCancelled 用户取消了任务
	ErrCancelled = errors.New("generation cancelled")
	// ErrRender 渲染失败
	ErrRender = render.ErrRender
)
