package source

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/go-vgo/robotgo"
	"gocv.io/x/gocv"

	"github.com/zoeyai/cardvision/pkg/config"
	"github.com/zoeyai/cardvision/pkg/vision/cv"
)

// ErrPermissionDenied 没有屏幕录制权限
var ErrPermissionDenied = errors.New("screen capture permission denied")

// ScreenSource 截取屏幕区域作为帧，区域为零值时截取全屏
type ScreenSource struct {
	region config.ROI
}

// NewScreenSource 创建屏幕来源
func NewScreenSource(region config.ROI) *ScreenSource {
	return &ScreenSource{region: region}
}

// Read 截取一帧
func (s *ScreenSource) Read(ctx context.Context) (gocv.Mat, error) {
	if err := ctx.Err(); err != nil {
		return gocv.NewMat(), err
	}
	if !ScreenCaptureAllowed() {
		return gocv.NewMat(), fmt.Errorf("%w\n%s", ErrPermissionDenied, ScreenCaptureInstructions())
	}

	img, err := s.capture()
	if err != nil {
		return gocv.NewMat(), err
	}
	return cv.ImageToMat(img)
}

func (s *ScreenSource) capture() (image.Image, error) {
	r := s.region
	if r.Width <= 0 || r.Height <= 0 {
		img, err := robotgo.CaptureImg()
		if err != nil {
			return nil, fmt.Errorf("截屏失败: %w", err)
		}
		return img, nil
	}

	img, err := robotgo.CaptureImg(r.X, r.Y, r.Width, r.Height)
	if err != nil {
		return nil, fmt.Errorf("截取区域失败: %w", err)
	}
	return img, nil
}

// Close 无需释放资源
func (s *ScreenSource) Close() error {
	return nil
}
