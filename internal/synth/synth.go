// Package synth 生成合成的模板、标准卡片和场景帧，供测试和自检使用
package synth

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"sync"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"gocv.io/x/gocv"

	"github.com/zoeyai/cardvision/pkg/card"
	"github.com/zoeyai/cardvision/pkg/config"
)

var (
	// Background 纯绿色背景，落在默认背景 HSV 区间内
	Background = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	// Paper 卡片底色
	Paper = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	// InkBlack 黑色墨迹
	InkBlack = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	// InkRed 红色墨迹
	InkRed = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	// PinkTint 偏红的浅色，灰度高于二值化阈值但会让颜色判定为红
	PinkTint = color.RGBA{R: 255, G: 160, B: 160, A: 255}
)

var white = color.RGBA{R: 255, G: 255, B: 255, A: 255}

var (
	fontOnce sync.Once
	boldFont *truetype.Font
	fontErr  error
)

func loadFont() (*truetype.Font, error) {
	fontOnce.Do(func() {
		boldFont, fontErr = truetype.Parse(gobold.TTF)
	})
	return boldFont, fontErr
}

// Scalar 将 RGBA 颜色转换为 BGR 顺序的 Scalar
func Scalar(c color.RGBA) gocv.Scalar {
	return gocv.NewScalar(float64(c.B), float64(c.G), float64(c.R), 0)
}

// renderText 渲染白字黑底文字并裁剪到墨迹外接框
func renderText(text string) (*image.Gray, error) {
	f, err := loadFont()
	if err != nil {
		return nil, fmt.Errorf("加载字体失败: %w", err)
	}

	const fontSize = 64
	canvas := image.NewGray(image.Rect(0, 0, 200, 110))

	c := freetype.NewContext()
	c.SetDPI(72)
	c.SetFont(f)
	c.SetFontSize(fontSize)
	c.SetClip(canvas.Bounds())
	c.SetDst(canvas)
	c.SetSrc(image.White)
	c.SetHinting(font.HintingNone)

	pt := freetype.Pt(10, 10+int(c.PointToFixed(fontSize)>>6))
	if _, err := c.DrawString(text, pt); err != nil {
		return nil, fmt.Errorf("绘制文字失败: %w", err)
	}

	bbox := image.Rectangle{}
	for y := 0; y < canvas.Rect.Dy(); y++ {
		for x := 0; x < canvas.Rect.Dx(); x++ {
			if canvas.GrayAt(x, y).Y > 127 {
				bbox = bbox.Union(image.Rect(x, y, x+1, y+1))
			}
		}
	}
	if bbox.Empty() {
		return nil, fmt.Errorf("文字 %q 没有墨迹", text)
	}

	out := image.NewGray(image.Rect(0, 0, bbox.Dx(), bbox.Dy()))
	draw.Draw(out, out.Bounds(), canvas, bbox.Min, draw.Src)
	return out, nil
}

// RankTemplate 点数模板：size 尺寸的单通道图，白色字形黑色背景，四周留白
func RankTemplate(r card.Rank, size config.Size) (gocv.Mat, error) {
	glyph, err := renderText(r.String())
	if err != nil {
		return gocv.NewMat(), err
	}

	src, err := gocv.ImageGrayToMatGray(glyph)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("字形转换失败: %w", err)
	}
	defer src.Close()

	marginX, marginY := size.Width/10, size.Height/8
	box := image.Rect(marginX, marginY, size.Width-marginX, size.Height-marginY)

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(src, &resized, box.Size(), 0, 0, gocv.InterpolationLinear)

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(resized, &binary, 127, 255, gocv.ThresholdBinary)

	tmpl := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), size.Height, size.Width, gocv.MatTypeCV8UC1)
	dst := tmpl.Region(box)
	binary.CopyTo(&dst)
	dst.Close()
	return tmpl, nil
}

// SuitTemplate 花色模板：size 尺寸的单通道图，白色图形黑色背景
// 图形按 40x40 设计后缩放
func SuitTemplate(s card.Suit, size config.Size) gocv.Mat {
	base := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 40, 40, gocv.MatTypeCV8UC1)
	drawSuit(&base, s)

	if size.Width == 40 && size.Height == 40 {
		return base
	}
	defer base.Close()

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(base, &resized, image.Pt(size.Width, size.Height), 0, 0, gocv.InterpolationLinear)

	out := gocv.NewMat()
	gocv.Threshold(resized, &out, 127, 255, gocv.ThresholdBinary)
	return out
}

func drawSuit(img *gocv.Mat, s card.Suit) {
	switch s {
	case card.Spades:
		fillPoly(img, []image.Point{{20, 6}, {34, 28}, {6, 28}})
		gocv.Rectangle(img, image.Rect(17, 28, 23, 34), white, -1)
	case card.Hearts:
		gocv.Circle(img, image.Pt(14, 15), 7, white, -1)
		gocv.Circle(img, image.Pt(26, 15), 7, white, -1)
		fillPoly(img, []image.Point{{7, 18}, {33, 18}, {20, 34}})
	case card.Diamonds:
		fillPoly(img, []image.Point{{20, 6}, {34, 20}, {20, 34}, {6, 20}})
	case card.Clubs:
		gocv.Circle(img, image.Pt(20, 11), 6, white, -1)
		gocv.Circle(img, image.Pt(12, 22), 6, white, -1)
		gocv.Circle(img, image.Pt(28, 22), 6, white, -1)
		gocv.Rectangle(img, image.Rect(18, 24, 22, 34), white, -1)
	}
}

func fillPoly(img *gocv.Mat, pts []image.Point) {
	pv := gocv.NewPointsVectorFromPoints([][]image.Point{pts})
	defer pv.Close()
	gocv.FillPoly(img, pv, white)
}

// WriteTemplateDir 按 <dir>/ranks/<label>.png 和 <dir>/suits/<label>.png 写出全部模板
func WriteTemplateDir(dir string, vc config.VisionConfig) error {
	for _, sub := range []string{"ranks", "suits"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			return fmt.Errorf("创建模板目录失败: %w", err)
		}
	}

	for _, r := range card.AllRanks() {
		m, err := RankTemplate(r, vc.RankTemplateSize)
		if err != nil {
			return err
		}
		ok := gocv.IMWrite(filepath.Join(dir, "ranks", r.String()+".png"), m)
		m.Close()
		if !ok {
			return fmt.Errorf("写入点数模板 %s 失败", r)
		}
	}
	for _, s := range card.AllSuits() {
		m := SuitTemplate(s, vc.SuitTemplateSize)
		ok := gocv.IMWrite(filepath.Join(dir, "suits", s.String()+".png"), m)
		m.Close()
		if !ok {
			return fmt.Errorf("写入花色模板 %s 失败", s)
		}
	}
	return nil
}
