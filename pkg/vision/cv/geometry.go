package cv

import (
	"image"
	"math"
	"sort"
)

// OrderCorners 将四个顶点排序为 左上 -> 右上 -> 右下 -> 左下
//
// 左上 x+y 最小，右下 x+y 最大，右上 y-x 最小，左下 y-x 最大。
// 并列时左上取 x 较小者，右下取 x 较大者，右上取 y 较小者，左下取 y 较大者，
// 结果与输入顺序无关。
// 若四个选择没有落在四个不同的点上，改为绕质心按角度顺时针排序，
// 起点为 x+y 最小（再比 y）的点。
func OrderCorners(pts [4]image.Point) Quad {
	tl, tr, br, bl := 0, 0, 0, 0
	for i, p := range pts {
		if less(p.X+p.Y, p.X, pts[tl].X+pts[tl].Y, pts[tl].X) {
			tl = i
		}
		if less(-(p.X + p.Y), -p.X, -(pts[br].X + pts[br].Y), -pts[br].X) {
			br = i
		}
		if less(p.Y-p.X, p.Y, pts[tr].Y-pts[tr].X, pts[tr].Y) {
			tr = i
		}
		if less(-(p.Y - p.X), -p.Y, -(pts[bl].Y - pts[bl].X), -pts[bl].Y) {
			bl = i
		}
	}

	if distinct(tl, tr, br, bl) {
		return Quad{pts[tl], pts[tr], pts[br], pts[bl]}
	}
	return orderByAngle(pts)
}

// less 按 (key, tie) 字典序比较
func less(key, tie, otherKey, otherTie int) bool {
	return key < otherKey || (key == otherKey && tie < otherTie)
}

func distinct(idx ...int) bool {
	seen := 0
	for _, i := range idx {
		if seen&(1<<i) != 0 {
			return false
		}
		seen |= 1 << i
	}
	return true
}

func orderByAngle(pts [4]image.Point) Quad {
	var cx, cy float64
	for _, p := range pts {
		cx += float64(p.X)
		cy += float64(p.Y)
	}
	cx /= 4
	cy /= 4

	start := 0
	for i, p := range pts {
		s, best := p.X+p.Y, pts[start].X+pts[start].Y
		if s < best || (s == best && p.Y < pts[start].Y) {
			start = i
		}
	}

	// 图像坐标 y 轴向下，atan2 递增即顺时针
	angle := func(p image.Point) float64 {
		a := math.Atan2(float64(p.Y)-cy, float64(p.X)-cx)
		base := math.Atan2(float64(pts[start].Y)-cy, float64(pts[start].X)-cx)
		d := a - base
		for d < 0 {
			d += 2 * math.Pi
		}
		return d
	}

	sorted := pts
	sort.SliceStable(sorted[:], func(i, j int) bool {
		ai, aj := angle(sorted[i]), angle(sorted[j])
		if ai != aj {
			return ai < aj
		}
		if sorted[i].X != sorted[j].X {
			return sorted[i].X < sorted[j].X
		}
		return sorted[i].Y < sorted[j].Y
	})
	return Quad{sorted[0], sorted[1], sorted[2], sorted[3]}
}

// ContourCentroid 轮廓质心 (m10/m00, m01/m00)，m00 为 0 时返回 (0,0)
func ContourCentroid(contour []image.Point) image.Point {
	m00, m10, m01 := polygonMoments(contour)
	if m00 == 0 {
		return image.Point{}
	}
	return image.Point{
		X: int(m10 / m00),
		Y: int(m01 / m00),
	}
}

// polygonMoments 闭合多边形的零阶与一阶矩（有向）
func polygonMoments(contour []image.Point) (m00, m10, m01 float64) {
	n := len(contour)
	if n < 3 {
		return 0, 0, 0
	}
	for i := 0; i < n; i++ {
		p, q := contour[i], contour[(i+1)%n]
		x0, y0 := float64(p.X), float64(p.Y)
		x1, y1 := float64(q.X), float64(q.Y)
		cross := x0*y1 - x1*y0
		m00 += cross
		m10 += (x0 + x1) * cross
		m01 += (y0 + y1) * cross
	}
	return m00 / 2, m10 / 6, m01 / 6
}
