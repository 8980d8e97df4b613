// Package templates 管理点数与花色模板库
package templates

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gocv.io/x/gocv"

	"github.com/zoeyai/cardvision/pkg/vision/cv"
)

// Category 模板类别
type Category string

const (
	CategoryRank Category = "ranks"
	CategorySuit Category = "suits"
)

var (
	// ErrNotFound 模板不存在
	ErrNotFound = errors.New("template not found")
	// ErrStoreUnavailable 模板存储不可用（目录不存在等）
	ErrStoreUnavailable = errors.New("template store unavailable")
)

// Store 模板存储：按 (类别, 标签) 返回单通道图像
// 返回的 Mat 归调用方所有
type Store interface {
	Get(category Category, label string) (gocv.Mat, error)
}

// DirStore 文件目录存储，布局为 <dir>/<category>/<label>.png
type DirStore struct {
	Dir string
}

// NewDirStore 创建目录存储
func NewDirStore(dir string) *DirStore {
	return &DirStore{Dir: dir}
}

// Path 模板文件路径
func (s *DirStore) Path(category Category, label string) string {
	return filepath.Join(s.Dir, string(category), label+".png")
}

// Get 读取灰度模板
func (s *DirStore) Get(category Category, label string) (gocv.Mat, error) {
	if info, err := os.Stat(s.Dir); err != nil || !info.IsDir() {
		return gocv.NewMat(), fmt.Errorf("%w: %s", ErrStoreUnavailable, s.Dir)
	}

	path := s.Path(category, label)
	if _, err := os.Stat(path); err != nil {
		return gocv.NewMat(), fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	mat, err := cv.ReadImageGray(path)
	if err != nil {
		mat.Close()
		return gocv.NewMat(), err
	}
	return mat, nil
}

// MemoryStore 内存存储，主要用于测试和内置模板
type MemoryStore struct {
	mu    sync.RWMutex
	items map[Category]map[string]gocv.Mat
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[Category]map[string]gocv.Mat)}
}

// Put 保存模板副本
func (s *MemoryStore) Put(category Category, label string, img gocv.Mat) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.items[category] == nil {
		s.items[category] = make(map[string]gocv.Mat)
	}
	if old, ok := s.items[category][label]; ok {
		old.Close()
	}
	s.items[category][label] = img.Clone()
}

// Get 返回模板副本
func (s *MemoryStore) Get(category Category, label string) (gocv.Mat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	img, ok := s.items[category][label]
	if !ok {
		return gocv.NewMat(), fmt.Errorf("%w: %s/%s", ErrNotFound, category, label)
	}
	return img.Clone(), nil
}

// Close 释放全部模板
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.items {
		for _, img := range m {
			img.Close()
		}
	}
	s.items = make(map[Category]map[string]gocv.Mat)
	return nil
}
