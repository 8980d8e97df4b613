package vision

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/zoeyai/cardvision/pkg/card"
	"github.com/zoeyai/cardvision/pkg/vision/cv"
	"github.com/zoeyai/cardvision/pkg/vision/detect"
)

// Version 版本号
const Version = "1.0.0"

// Point 表示二维坐标点
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// NewPoint 创建新的 Point
func NewPoint(x, y int) Point {
	return Point{X: x, Y: y}
}

func fromImagePoint(p image.Point) Point {
	return Point{X: p.X, Y: p.Y}
}

func fromImagePoints(pts []image.Point) []Point {
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[i] = fromImagePoint(p)
	}
	return out
}

// Rectangle 表示矩形区域（四个角点）
type Rectangle struct {
	TopLeft     Point `json:"top_left"`
	BottomLeft  Point `json:"bottom_left"`
	BottomRight Point `json:"bottom_right"`
	TopRight    Point `json:"top_right"`
}

// NewRectangle 从左上角坐标和宽高创建矩形
func NewRectangle(x, y, w, h int) Rectangle {
	return Rectangle{
		TopLeft:     Point{X: x, Y: y},
		BottomLeft:  Point{X: x, Y: y + h},
		BottomRight: Point{X: x + w, Y: y + h},
		TopRight:    Point{X: x + w, Y: y},
	}
}

// Center 返回矩形中心点
func (r Rectangle) Center() Point {
	return Point{
		X: (r.TopLeft.X + r.BottomRight.X) / 2,
		Y: (r.TopLeft.Y + r.BottomRight.Y) / 2,
	}
}

// Width 返回矩形宽度
func (r Rectangle) Width() int {
	return r.TopRight.X - r.TopLeft.X
}

// Height 返回矩形高度
func (r Rectangle) Height() int {
	return r.BottomLeft.Y - r.TopLeft.Y
}

// ToImageRect 转换为 image.Rectangle
func (r Rectangle) ToImageRect() image.Rectangle {
	return image.Rect(r.TopLeft.X, r.TopLeft.Y, r.BottomRight.X, r.BottomRight.Y)
}

// boundingBox 轮廓外接矩形
func boundingBox(pts []image.Point) Rectangle {
	if len(pts) == 0 {
		return Rectangle{}
	}
	r := image.Rectangle{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		r = r.Union(image.Rectangle{Min: p, Max: p.Add(image.Pt(1, 1))})
	}
	return NewRectangle(r.Min.X, r.Min.Y, r.Dx(), r.Dy())
}

// CardResult 帧中单张卡片的定位与识别结果
type CardResult struct {
	card.Result

	Status   string    `json:"status"`
	Corners  []Point   `json:"corners,omitempty"`
	Box      Rectangle `json:"box"`
	Centroid Point     `json:"centroid"`
	Area     float64   `json:"area"`
	Contour  []Point   `json:"contour,omitempty"`

	// Card 矫正后的标准图像，仅在 WithKeepCards 时保留，调用方负责 Close
	Card *gocv.Mat `json:"-"`
}

// Close 释放保留的标准图像
func (r *CardResult) Close() error {
	if r == nil || r.Card == nil {
		return nil
	}
	err := r.Card.Close()
	r.Card = nil
	return err
}

func newCardResult(d *detect.Detection) CardResult {
	res := CardResult{
		Result:   card.Unknown(),
		Status:   d.Status.String(),
		Box:      boundingBox(d.Contour),
		Centroid: fromImagePoint(d.Centroid),
		Area:     d.Area,
		Contour:  fromImagePoints(d.Contour),
	}
	if d.Status == detect.Detected {
		res.Corners = fromImagePoints(d.Quad.Points())
	}
	return res
}

// Quad 类型别名
type Quad = cv.Quad
