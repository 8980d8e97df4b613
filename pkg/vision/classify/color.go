package classify

import (
	"gocv.io/x/gocv"

	"github.com/zoeyai/cardvision/pkg/card"
	"github.com/zoeyai/cardvision/pkg/config"
)

// ChannelMeans 返回 BGR 三通道均值
func ChannelMeans(region gocv.Mat) (b, g, r float64) {
	m := region.Mean()
	return m.Val1, m.Val2, m.Val3
}

// IsRed 红色判定：mean(R)-mean(G) 与 mean(R)-mean(B) 都超过阈值
func IsRed(region gocv.Mat, vc config.VisionConfig) bool {
	if region.Empty() || region.Channels() != 3 {
		return false
	}
	b, g, r := ChannelMeans(region)
	return r-g > vc.RedMinusGreen && r-b > vc.RedMinusBlue
}

// DetectColor 返回区域颜色
func DetectColor(region gocv.Mat, vc config.VisionConfig) card.Color {
	if IsRed(region, vc) {
		return card.Red
	}
	return card.Black
}

// RedMaskRatio 区域中落在红色 HSV 区间内的像素比例，仅用于诊断
func RedMaskRatio(region gocv.Mat, vc config.VisionConfig) float64 {
	if region.Empty() || region.Channels() != 3 {
		return 0
	}

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(region, &hsv, gocv.ColorBGRToHSV)

	union := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), region.Rows(), region.Cols(), gocv.MatTypeCV8UC1)
	defer union.Close()

	for _, rr := range vc.RedRanges {
		part := gocv.NewMat()
		gocv.InRangeWithScalar(hsv,
			gocv.NewScalar(rr.Lower[0], rr.Lower[1], rr.Lower[2], 0),
			gocv.NewScalar(rr.Upper[0], rr.Upper[1], rr.Upper[2], 0),
			&part)
		gocv.BitwiseOr(union, part, &union)
		part.Close()
	}

	total := region.Rows() * region.Cols()
	return float64(gocv.CountNonZero(union)) / float64(total)
}
