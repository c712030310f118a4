package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ErrNotFound 文件不存在
var ErrNotFound = errors.New("file not found")

// LocalStorage 存储根目录下的扁平文件存储
type LocalStorage struct {
	absBasePath string
}

// NewLocalStorage 创建本地存储，目录不存在时自动创建
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for '%s': %w", basePath, err)
	}

	if err := os.MkdirAll(absPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory '%s': %w", absPath, err)
	}

	testFile := filepath.Join(absPath, ".write_test_"+strconv.FormatInt(time.Now().UnixNano(), 10))
	f, err := os.Create(testFile)
	if err != nil {
		return nil, fmt.Errorf("storage directory '%s' is not writable: %w", absPath, err)
	}
	_ = f.Close()
	_ = os.Remove(testFile)

	return &LocalStorage{absBasePath: absPath}, nil
}

// Save 写入 name 对应的文件，返回绝对路径；同名文件会被覆盖
func (s *LocalStorage) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	dstPath, err := s.Path(name)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// 先写临时文件再 rename，读者不会看到写了一半的内容
	tmp, err := os.CreateTemp(s.absBasePath, ".tmp-"+name+"-")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file for '%s': %w", name, err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write '%s': %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to close '%s': %w", name, err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		_ = os.Remove(tmpPath)
		return "", err
	}
	if err := os.Rename(tmpPath, dstPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to move '%s' into place: %w", name, err)
	}

	return dstPath, nil
}

// Open 打开文件；path 可以是记录中的绝对路径，也可以是根目录下的文件名
func (s *LocalStorage) Open(path string) (*os.File, error) {
	fullPath := path
	if !filepath.IsAbs(path) {
		var err error
		if fullPath, err = s.Path(path); err != nil {
			return nil, err
		}
	}

	f, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to open '%s': %w", fullPath, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if !info.Mode().IsRegular() {
		_ = f.Close()
		return nil, ErrNotFound
	}
	return f, nil
}

// ReadFile 读取整个文件
func (s *LocalStorage) ReadFile(path string) ([]byte, error) {
	f, err := s.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(f)
}

// Remove 删除根目录下的文件，不存在视为成功
func (s *LocalStorage) Remove(path string) error {
	fullPath, err := s.contain(path)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete '%s': %w", fullPath, err)
	}
	return nil
}

// Exists 检查文件是否存在
func (s *LocalStorage) Exists(path string) (bool, error) {
	fullPath, err := s.contain(path)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Walk 遍历根目录下的普通文件（不递归，跳过临时文件）
func (s *LocalStorage) Walk(ctx context.Context, fn func(path string, info fs.FileInfo) error) error {
	entries, err := os.ReadDir(s.absBasePath)
	if err != nil {
		return fmt.Errorf("failed to read storage directory: %w", err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
		if err := fn(filepath.Join(s.absBasePath, entry.Name()), info); err != nil {
			return err
		}
	}
	return nil
}

// Path 返回 name 在根目录下的绝对路径
func (s *LocalStorage) Path(name string) (string, error) {
	if !IsValidName(name) {
		return "", fmt.Errorf("invalid storage name: %q", name)
	}
	return filepath.Join(s.absBasePath, name), nil
}

// ThumbnailPath 缩略图路径 <root>/<fileId>_<width>
func (s *LocalStorage) ThumbnailPath(fileID uint, width int) string {
	return filepath.Join(s.absBasePath, ThumbnailName(fileID, width))
}

// ThumbnailName 缩略图文件名
func ThumbnailName(fileID uint, width int) string {
	return fmt.Sprintf("%d_%d", fileID, width)
}

// Health 检查存储健康状态
func (s *LocalStorage) Health(ctx context.Context) error {
	_, err := os.ReadDir(s.absBasePath)
	return err
}

// BasePath 返回存储根目录
func (s *LocalStorage) BasePath() string {
	return s.absBasePath
}

// contain 把路径解析到根目录内，越界时报错
func (s *LocalStorage) contain(path string) (string, error) {
	if !filepath.IsAbs(path) {
		return s.Path(path)
	}

	clean := filepath.Clean(path)
	rel, err := filepath.Rel(s.absBasePath, clean)
	if err != nil || rel == "." || strings.Contains(rel, string(os.PathSeparator)) || !IsValidName(rel) {
		return "", fmt.Errorf("invalid file path, outside storage root: %s", path)
	}
	return clean, nil
}

// IsValidName 文件名只能是根目录下的单层安全名称
func IsValidName(name string) bool {
	if name == "" || name == "." || strings.Contains(name, "..") {
		return false
	}

	for _, r := range name {
		if (r < 'a' || r > 'z') &&
			(r < 'A' || r > 'Z') &&
			(r < '0' || r > '9') &&
			r != '-' && r != '_' && r != '.' {
			return false
		}
	}
	return true
}
