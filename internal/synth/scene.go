package synth

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/zoeyai/cardvision/pkg/card"
	"github.com/zoeyai/cardvision/pkg/config"
)

// CardSpec 标准卡片描述
type CardSpec struct {
	// Rank 为 nil 时点数角留空
	Rank *card.Rank
	// Suit 为 nil 时花色角留空
	Suit *card.Suit
	// Ink 墨迹颜色，零值时按花色颜色取红或黑
	Ink color.RGBA
	// SuitTint 非 nil 时先用该颜色填充花色区域
	SuitTint *color.RGBA
}

// RankPtr 返回点数指针
func RankPtr(r card.Rank) *card.Rank { return &r }

// SuitPtr 返回花色指针
func SuitPtr(s card.Suit) *card.Suit { return &s }

// CanonicalCard 生成 vc.CardSize 大小的 BGR 标准卡片
// 点数模板贴在点数区域左侧 5 像素处，花色模板贴在花色区域左上角，两者均为原始尺度
func CanonicalCard(spec CardSpec, vc config.VisionConfig) (gocv.Mat, error) {
	w, h := vc.CardSize.Width, vc.CardSize.Height
	img := gocv.NewMatWithSizeFromScalar(Scalar(Paper), h, w, gocv.MatTypeCV8UC3)

	ink := spec.Ink
	if ink == (color.RGBA{}) {
		ink = InkBlack
		if spec.Suit != nil && spec.Suit.Color() == card.Red {
			ink = InkRed
		}
	}

	if spec.SuitTint != nil {
		roi := vc.SuitROI
		gocv.Rectangle(&img, image.Rect(roi.X, roi.Y, roi.X+roi.Width, roi.Y+roi.Height), *spec.SuitTint, -1)
	}

	if spec.Rank != nil {
		tmpl, err := RankTemplate(*spec.Rank, vc.RankTemplateSize)
		if err != nil {
			img.Close()
			return gocv.NewMat(), err
		}
		at := image.Pt(vc.RankROI.X+5, vc.RankROI.Y)
		err = Stamp(&img, tmpl, at, ink)
		tmpl.Close()
		if err != nil {
			img.Close()
			return gocv.NewMat(), err
		}
	}

	if spec.Suit != nil {
		tmpl := SuitTemplate(*spec.Suit, vc.SuitTemplateSize)
		err := Stamp(&img, tmpl, image.Pt(vc.SuitROI.X, vc.SuitROI.Y), ink)
		tmpl.Close()
		if err != nil {
			img.Close()
			return gocv.NewMat(), err
		}
	}

	return img, nil
}

// Stamp 以模板的非零像素为掩码，在 at 处涂上墨迹颜色
func Stamp(dst *gocv.Mat, mask gocv.Mat, at image.Point, ink color.RGBA) error {
	rect := image.Rectangle{Min: at, Max: at.Add(image.Pt(mask.Cols(), mask.Rows()))}
	if !rect.In(image.Rect(0, 0, dst.Cols(), dst.Rows())) {
		return fmt.Errorf("贴图区域 %v 超出图像", rect)
	}

	fill := gocv.NewMatWithSizeFromScalar(Scalar(ink), mask.Rows(), mask.Cols(), dst.Type())
	defer fill.Close()

	region := dst.Region(rect)
	defer region.Close()
	fill.CopyToWithMask(&region, mask)
	return nil
}

// Placement 卡片在场景中的位置
type Placement struct {
	Card gocv.Mat
	// Origin 卡片左上角在帧中的位置
	Origin image.Point
	// UpsideDown 为 true 时先旋转 180 度
	UpsideDown bool
}

// Frame 生成 width x height 的纯色背景帧，并按位置贴入卡片
func Frame(width, height int, bg color.RGBA, cards ...Placement) (gocv.Mat, error) {
	frame := gocv.NewMatWithSizeFromScalar(Scalar(bg), height, width, gocv.MatTypeCV8UC3)

	for _, p := range cards {
		src := p.Card
		if p.UpsideDown {
			rotated := gocv.NewMat()
			gocv.Rotate(p.Card, &rotated, gocv.Rotate180Clockwise)
			defer rotated.Close()
			src = rotated
		}

		rect := image.Rectangle{Min: p.Origin, Max: p.Origin.Add(image.Pt(src.Cols(), src.Rows()))}
		if !rect.In(image.Rect(0, 0, width, height)) {
			frame.Close()
			return gocv.NewMat(), fmt.Errorf("卡片区域 %v 超出帧", rect)
		}
		region := frame.Region(rect)
		src.CopyTo(&region)
		region.Close()
	}
	return frame, nil
}

// FillQuad 在帧上填充任意四边形，用于旋转卡片等几何场景
func FillQuad(frame *gocv.Mat, pts [4]image.Point, c color.RGBA) {
	pv := gocv.NewPointsVectorFromPoints([][]image.Point{pts[:]})
	defer pv.Close()
	gocv.FillPoly(frame, pv, c)
}

// WarpInto 将卡片图像透视贴到帧中的四边形上，顶点顺序为 左上 -> 右上 -> 右下 -> 左下
// 只复制被完整覆盖的像素，边缘保留背景色
func WarpInto(frame *gocv.Mat, src gocv.Mat, quad [4]image.Point) {
	from := gocv.NewPointVectorFromPoints([]image.Point{
		{0, 0}, {src.Cols(), 0}, {src.Cols(), src.Rows()}, {0, src.Rows()},
	})
	defer from.Close()
	to := gocv.NewPointVectorFromPoints(quad[:])
	defer to.Close()

	m := gocv.GetPerspectiveTransform(from, to)
	defer m.Close()

	size := image.Pt(frame.Cols(), frame.Rows())
	warped := gocv.NewMat()
	defer warped.Close()
	gocv.WarpPerspective(src, &warped, m, size)

	full := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 0, 0, 0), src.Rows(), src.Cols(), gocv.MatTypeCV8UC1)
	defer full.Close()
	mask := gocv.NewMat()
	defer mask.Close()
	gocv.WarpPerspective(full, &mask, m, size)
	gocv.Threshold(mask, &mask, 254, 255, gocv.ThresholdBinary)

	warped.CopyToWithMask(frame, mask)
}
