package classify

import (
	"image"
	"math"

	"gocv.io/x/gocv"

	"github.com/zoeyai/cardvision/pkg/config"
	"github.com/zoeyai/cardvision/pkg/vision/cv"
)

// roiRect ROI 转换为矩形
func roiRect(r config.ROI) image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// MirrorROI 返回与 roi 中心对称的右下角区域
func MirrorROI(roi config.ROI, size config.Size) config.ROI {
	return config.ROI{
		X:      size.Width - roi.Width - roi.X,
		Y:      size.Height - roi.Height - roi.Y,
		Width:  roi.Width,
		Height: roi.Height,
	}
}

// CountDark 统计灰度值小于 dark 的像素数
func CountDark(region gocv.Mat, dark float64) int {
	gray := cv.ToGray(region)
	defer gray.Close()

	// 8 位图像上 THRESH_BINARY_INV 保留 <= floor(thresh) 的像素
	bin := gocv.NewMat()
	defer bin.Close()
	gocv.Threshold(gray, &bin, float32(math.Ceil(dark)-1), 255, gocv.ThresholdBinaryInv)
	return gocv.CountNonZero(bin)
}

// CorrectOrientation 比较左上点数角和右下对称角的暗像素数
// 左上多于右下的 ratio 倍时保持不变，否则旋转 180 度
// 返回新的图像（调用方 Close）以及是否发生旋转
func CorrectOrientation(img gocv.Mat, vc config.VisionConfig) (gocv.Mat, bool, error) {
	top, err := cv.CropRegion(img, roiRect(vc.RankROI))
	if err != nil {
		return gocv.NewMat(), false, err
	}
	defer top.Close()

	bottom, err := cv.CropRegion(img, roiRect(MirrorROI(vc.RankROI, vc.CardSize)))
	if err != nil {
		return gocv.NewMat(), false, err
	}
	defer bottom.Close()

	topDark := float64(CountDark(top, vc.DarkThreshold))
	bottomDark := float64(CountDark(bottom, vc.DarkThreshold))

	if topDark > bottomDark*vc.OrientationRatio {
		return img.Clone(), false, nil
	}
	return cv.Rotate180(img), true, nil
}
