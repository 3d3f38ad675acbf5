// Package artifact 管理生成任务的临时文件
package artifact

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/afero"
)

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9_\-.]+`)

// Store 任务工作目录的根
type Store struct {
	fs   afero.Fs
	root string
}

// NewStore 基于任意 afero.Fs 创建工作目录存储
func NewStore(fs afero.Fs, root string) *Store {
	return &Store{fs: fs, root: filepath.Clean(root)}
}

// NewOsStore 使用本地磁盘
func NewOsStore(root string) *Store {
	return NewStore(afero.NewOsFs(), root)
}

// NewMemStore 使用内存文件系统
func NewMemStore() *Store {
	return NewStore(afero.NewMemMapFs(), "/jobs")
}

// Fs 返回底层文件系统
func (s *Store) Fs() afero.Fs {
	return s.fs
}

// Open 创建（或打开）任务工作目录
func (s *Store) Open(jobID string) (*Workspace, error) {
	name := SafeName(jobID)
	if name == "" {
		return nil, fmt.Errorf("artifact: empty workspace id")
	}
	dir := filepath.Join(s.root, name)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("artifact: create workspace %s: %w", dir, err)
	}
	return &Workspace{fs: s.fs, dir: dir, id: name}, nil
}

// Workspace 单个任务的工作目录，任务结束后整体删除
type Workspace struct {
	fs  afero.Fs
	dir string
	id  string
}

// ID 工作目录标识
func (w *Workspace) ID() string {
	return w.id
}

// Dir 工作目录路径
func (w *Workspace) Dir() string {
	return w.dir
}

// Path 返回工作目录内文件的完整路径
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.dir, filepath.Base(name))
}

// WriteFile 写入文件
func (w *Workspace) WriteFile(name string, data []byte) error {
	return afero.WriteFile(w.fs, w.Path(name), data, 0o644)
}

// ReadFile 读取文件
func (w *Workspace) ReadFile(name string) ([]byte, error) {
	return afero.ReadFile(w.fs, w.Path(name))
}

// Create 创建文件用于流式写入
func (w *Workspace) Create(name string) (afero.File, error) {
	return w.fs.Create(w.Path(name))
}

// Open 打开文件用于流式读取
func (w *Workspace) Open(name string) (afero.File, error) {
	return w.fs.Open(w.Path(name))
}

// Exists 文件是否存在
func (w *Workspace) Exists(name string) bool {
	ok, err := afero.Exists(w.fs, w.Path(name))
	return err == nil && ok
}

// Size 文件大小
func (w *Workspace) Size(name string) (int64, error) {
	info, err := w.fs.Stat(w.Path(name))
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Remove 删除单个文件，文件不存在视为成功
func (w *Workspace) Remove(name string) error {
	if err := w.fs.Remove(w.Path(name)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Destroy 删除整个工作目录
func (w *Workspace) Destroy() error {
	return w.fs.RemoveAll(w.dir)
}

// Copy 将文件内容写到 dst
func (w *Workspace) Copy(dst io.Writer, name string) (int64, error) {
	f, err := w.Open(name)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return io.Copy(dst, f)
}

// SafeName 将任意字符串转换为可用作文件名的片段
func SafeName(s string) string {
	s = strings.TrimSpace(s)
	s = unsafeNameChars.ReplaceAllString(s, "_")
	s = strings.Trim(s, "._")
	if len(s) > 96 {
		s = s[:96]
	}
	return s
}
