package source

import (
	"context"
	"fmt"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/zoeyai/cardvision/internal/logger"
	"github.com/zoeyai/cardvision/pkg/vision/cv"
)

// ImageSource 按顺序读取图片文件，无法解码的文件会被跳过
type ImageSource struct {
	mu      sync.Mutex
	files   []string
	next    int
	skipped []string
	log     *logger.Logger
}

// NewImageSource 创建图片来源
func NewImageSource(files []string) (*ImageSource, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("图片来源为空")
	}
	list := make([]string, len(files))
	copy(list, files)
	return &ImageSource{files: list, log: logger.Default().With("source")}, nil
}

// Read 返回下一张可解码的图片
func (s *ImageSource) Read(ctx context.Context) (gocv.Mat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for s.next < len(s.files) {
		if err := ctx.Err(); err != nil {
			return gocv.NewMat(), err
		}

		path := s.files[s.next]
		s.next++

		data, err := os.ReadFile(path)
		if err != nil {
			s.skip(path, err)
			continue
		}
		img, err := cv.DecodeImage(data)
		if err != nil {
			s.skip(path, err)
			continue
		}
		return img, nil
	}
	return gocv.NewMat(), ErrEndOfStream
}

func (s *ImageSource) skip(path string, err error) {
	s.skipped = append(s.skipped, path)
	s.log.Warn("跳过图片 %s: %v", path, err)
}

// Current 最近一次 Read 对应的文件，尚未读取时为空
func (s *ImageSource) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next == 0 {
		return ""
	}
	return s.files[s.next-1]
}

// Skipped 被跳过的文件
func (s *ImageSource) Skipped() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.skipped))
	copy(out, s.skipped)
	return out
}

// Close 无需释放资源
func (s *ImageSource) Close() error {
	return nil
}
