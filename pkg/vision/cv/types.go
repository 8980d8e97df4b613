package cv

import (
	"image"

	"gocv.io/x/gocv"
)

// Quad 四边形角点，顺序为 左上 -> 右上 -> 右下 -> 左下
type Quad [4]image.Point

// Points 返回角点切片
func (q Quad) Points() []image.Point {
	return []image.Point{q[0], q[1], q[2], q[3]}
}

// PointVector 转换为 gocv.PointVector，调用方负责 Close
func (q Quad) PointVector() gocv.PointVector {
	return gocv.NewPointVectorFromPoints(q.Points())
}

// MatchResult 模板匹配结果
type MatchResult struct {
	// Confidence 匹配置信度 (0-1)
	Confidence float64 `json:"confidence"`
	// Scale 取得最高分的模板缩放比例，0 表示模板在任何尺度下都放不进探针图
	Scale float64 `json:"scale"`
	// Location 最佳匹配左上角
	Location image.Point `json:"location"`
	// Size 缩放后的模板尺寸
	Size image.Point `json:"size"`
}

