package book

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"bookforge-ai-api/internal/infrastructure/artifact"
	"bookforge-ai-api/pkg/logger"
)

// CombinedFile 组装后的 Markdown 文件
const CombinedFile = "combined.md"

// Assembler 把各节按序拼接成一份文档
type Assembler struct{}

// NewAssembler 创建组装器
func NewAssembler() *Assembler {
	return &Assembler{}
}

// Combine 按序号读取各节，以一个空行连接，写入 combined.md 并删除各节文件
func (a *Assembler) Combine(ctx context.Context, ws *artifact.Workspace, sections []SectionArtifact) (string, error) {
	ordered := make([]SectionArtifact, len(sections))
	copy(ordered, sections)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	parts := make([]string, 0, len(ordered))
	for _, sec := range ordered {
		data, err := ws.ReadFile(sec.Name)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return "", fmt.Errorf("%w: %s", ErrMissingArtifact, sec.Name)
			}
			return "", fmt.Errorf("read %s: %w", sec.Name, err)
		}
		parts = append(parts, strings.TrimSpace(string(data)))
	}

	combined := strings.Join(parts, "\n\n")
	if err := ws.WriteFile(CombinedFile, []byte(combined)); err != nil {
		return "", fmt.Errorf("write %s: %w", CombinedFile, err)
	}

	for _, sec := range ordered {
		if err := ws.Remove(sec.Name); err != nil {
			logger.Warn(ctx, "failed to remove section artifact", "name", sec.Name, "error", err.Error())
		}
	}
	return combined, nil
}
