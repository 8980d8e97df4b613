package cv

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// ErrInvalidInput 输入图像非法（空图、通道数或尺寸不符）
var ErrInvalidInput = errors.New("invalid input image")

// RegionError 裁剪区域超出图像范围
type RegionError struct {
	Region image.Rectangle
	Bounds image.Rectangle
}

func (e *RegionError) Error() string {
	return fmt.Sprintf("区域 %v 超出图像范围 %v", e.Region, e.Bounds)
}

// Unwrap 使 errors.Is(err, ErrInvalidInput) 成立
func (e *RegionError) Unwrap() error {
	return ErrInvalidInput
}

// CheckFrame 校验是否为非空的 3 通道图像
func CheckFrame(img gocv.Mat) error {
	if img.Empty() {
		return fmt.Errorf("%w: 空图像", ErrInvalidInput)
	}
	if img.Channels() != 3 {
		return fmt.Errorf("%w: 期望 3 通道, 实际 %d", ErrInvalidInput, img.Channels())
	}
	return nil
}

// CheckSize 校验图像尺寸
func CheckSize(img gocv.Mat, width, height int) error {
	if img.Empty() {
		return fmt.Errorf("%w: 空图像", ErrInvalidInput)
	}
	if img.Cols() != width || img.Rows() != height {
		return fmt.Errorf("%w: 期望 %dx%d, 实际 %dx%d", ErrInvalidInput, width, height, img.Cols(), img.Rows())
	}
	return nil
}
