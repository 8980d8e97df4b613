// Package source 提供帧来源：摄像头、视频文件、RTSP 流、图片列表和屏幕区域
package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gocv.io/x/gocv"

	"github.com/zoeyai/cardvision/pkg/config"
)

var (
	// ErrEndOfStream 来源已结束，没有更多帧
	ErrEndOfStream = errors.New("end of stream")
	// ErrUnsupported 不支持的来源类型
	ErrUnsupported = errors.New("unsupported source kind")
)

// FrameSource 帧来源
// Read 返回的 Mat 归调用方所有；来源结束时返回 ErrEndOfStream
type FrameSource interface {
	Read(ctx context.Context) (gocv.Mat, error)
	Close() error
}

// 来源类型
const (
	KindCamera = "camera"
	KindVideo  = "video"
	KindRTSP   = "rtsp"
	KindImages = "images"
	KindScreen = "screen"
)

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".bmp": true,
	".tif": true, ".tiff": true, ".webp": true, ".gif": true,
}

// Open 按配置打开帧来源
func Open(cfg config.SourceConfig) (FrameSource, error) {
	switch cfg.Kind {
	case KindCamera, "":
		return OpenVideo(cfg.Device)
	case KindVideo, KindRTSP:
		if cfg.URI == "" {
			return nil, fmt.Errorf("%s 来源需要 uri", cfg.Kind)
		}
		return OpenVideo(cfg.URI)
	case KindImages:
		files := cfg.Images
		if len(files) == 0 && cfg.URI != "" {
			var err error
			if files, err = ListImages(cfg.URI); err != nil {
				return nil, err
			}
		}
		return NewImageSource(files)
	case KindScreen:
		return NewScreenSource(cfg.Screen), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, cfg.Kind)
	}
}

// ListImages 返回目录中的图片文件，按文件名排序
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("读取图片目录失败: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
