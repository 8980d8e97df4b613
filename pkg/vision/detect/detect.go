// Package detect 在帧中定位卡片并透视矫正为标准卡片图像
package detect

import (
	"fmt"
	"image"
	"sort"

	"gocv.io/x/gocv"

	"github.com/zoeyai/cardvision/internal/logger"
	"github.com/zoeyai/cardvision/pkg/config"
	"github.com/zoeyai/cardvision/pkg/vision/cv"
)

// Status 检测状态
type Status int

const (
	// Detected 找到四边形并完成矫正
	Detected Status = iota
	// ShapeRejected 轮廓面积足够但逼近后不是四边形
	ShapeRejected
)

func (s Status) String() string {
	switch s {
	case Detected:
		return "detected"
	case ShapeRejected:
		return "shape_rejected"
	default:
		return "unknown"
	}
}

// MarshalText 序列化为字符串
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Detection 单个候选卡片
type Detection struct {
	Status   Status
	Contour  []image.Point
	Quad     cv.Quad
	Centroid image.Point
	Area     float64
	// Card 标准尺寸的矫正图像，仅 Status 为 Detected 时有效
	Card gocv.Mat
}

// Close 释放矫正图像
func (d *Detection) Close() error {
	if d == nil {
		return nil
	}
	return d.Card.Close()
}

// Localizer 卡片定位器
type Localizer struct {
	cfg    config.VisionConfig
	kernel gocv.Mat
	log    *logger.Logger
}

// NewLocalizer 创建定位器
func NewLocalizer(cfg config.VisionConfig) *Localizer {
	k := cfg.MorphKernel
	if k <= 0 {
		k = 3
	}
	return &Localizer{
		cfg:    cfg,
		kernel: gocv.GetStructuringElement(gocv.MorphRect, image.Pt(k, k)),
		log:    logger.Default().With("detect"),
	}
}

// Close 释放形态学核
func (l *Localizer) Close() error {
	return l.kernel.Close()
}

// ForegroundMask 返回前景掩码：HSV 背景区间取反后做闭运算和开运算
func (l *Localizer) ForegroundMask(frame gocv.Mat) (gocv.Mat, error) {
	if err := cv.CheckFrame(frame); err != nil {
		return gocv.NewMat(), err
	}

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(frame, &hsv, gocv.ColorBGRToHSV)

	blurred := gocv.NewMat()
	defer blurred.Close()
	k := l.cfg.BlurKernel
	gocv.GaussianBlur(hsv, &blurred, image.Pt(k, k), l.cfg.BlurSigma, l.cfg.BlurSigma, gocv.BorderDefault)

	bg := l.cfg.Background
	lower := gocv.NewScalar(bg.Lower[0], bg.Lower[1], bg.Lower[2], 0)
	upper := gocv.NewScalar(bg.Upper[0], bg.Upper[1], bg.Upper[2], 0)

	bgMask := gocv.NewMat()
	defer bgMask.Close()
	gocv.InRangeWithScalar(blurred, lower, upper, &bgMask)

	fg := gocv.NewMat()
	defer fg.Close()
	gocv.BitwiseNot(bgMask, &fg)

	closed := gocv.NewMat()
	defer closed.Close()
	gocv.MorphologyEx(fg, &closed, gocv.MorphClose, l.kernel)

	opened := gocv.NewMat()
	gocv.MorphologyEx(closed, &opened, gocv.MorphOpen, l.kernel)
	return opened, nil
}

type candidate struct {
	contour []image.Point
	area    float64
}

func (l *Localizer) candidates(frame gocv.Mat) ([]candidate, error) {
	mask, err := l.ForegroundMask(frame)
	if err != nil {
		return nil, err
	}
	defer mask.Close()

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	out := make([]candidate, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		pv := contours.At(i)
		out = append(out, candidate{
			contour: pv.ToPoints(),
			area:    gocv.ContourArea(pv),
		})
	}
	return out, nil
}

// LocateLargest 单卡模式：取面积最大的轮廓
// 没有轮廓或面积不足时返回 nil；逼近后不是四边形时返回 Status 为 ShapeRejected 的结果
func (l *Localizer) LocateLargest(frame gocv.Mat) (*Detection, error) {
	cands, err := l.candidates(frame)
	if err != nil {
		return nil, err
	}
	if len(cands) == 0 {
		l.log.Debug("未找到轮廓")
		return nil, nil
	}

	best := cands[0]
	for _, c := range cands[1:] {
		if c.area > best.area {
			best = c
		}
	}
	if best.area < l.cfg.MinContourArea {
		l.log.Debug("最大轮廓面积 %.0f 小于阈值 %.0f", best.area, l.cfg.MinContourArea)
		return nil, nil
	}

	return l.rectify(frame, best, l.cfg.EpsilonSingle)
}

// Locate 多卡模式：每个面积达标的轮廓独立处理，仅返回四边形
// 结果按质心从上到下、从左到右排序
func (l *Localizer) Locate(frame gocv.Mat) ([]*Detection, error) {
	cands, err := l.candidates(frame)
	if err != nil {
		return nil, err
	}

	var out []*Detection
	for _, c := range cands {
		if c.area < l.cfg.MinContourArea {
			continue
		}
		d, err := l.rectify(frame, c, l.cfg.EpsilonMulti)
		if err != nil {
			CloseAll(out)
			return nil, err
		}
		if d.Status != Detected {
			d.Close()
			continue
		}
		out = append(out, d)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Centroid, out[j].Centroid
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
	l.log.Debug("候选轮廓 %d 个, 检出卡片 %d 张", len(cands), len(out))
	return out, nil
}

func (l *Localizer) rectify(frame gocv.Mat, c candidate, epsFactor float64) (*Detection, error) {
	d := &Detection{
		Contour:  c.contour,
		Area:     c.area,
		Centroid: cv.ContourCentroid(c.contour),
		Card:     gocv.NewMat(),
	}

	pv := gocv.NewPointVectorFromPoints(c.contour)
	defer pv.Close()

	eps := epsFactor * gocv.ArcLength(pv, true)
	approx := gocv.ApproxPolyDP(pv, eps, true)
	defer approx.Close()

	if approx.Size() != 4 {
		d.Status = ShapeRejected
		l.log.Debug("轮廓逼近为 %d 个顶点, 不是卡片", approx.Size())
		return d, nil
	}

	var corners [4]image.Point
	copy(corners[:], approx.ToPoints())
	d.Quad = cv.OrderCorners(corners)

	card, err := Warp(frame, d.Quad, l.cfg.CardSize)
	if err != nil {
		d.Close()
		return nil, err
	}
	d.Card.Close()
	d.Card = card
	d.Status = Detected
	return d, nil
}

// Warp 将有序四边形透视变换到 size 大小的标准图像
func Warp(frame gocv.Mat, q cv.Quad, size config.Size) (gocv.Mat, error) {
	if size.Width <= 0 || size.Height <= 0 {
		return gocv.NewMat(), fmt.Errorf("%w: 非法目标尺寸 %+v", cv.ErrInvalidInput, size)
	}

	src := q.PointVector()
	defer src.Close()
	dst := gocv.NewPointVectorFromPoints([]image.Point{
		{0, 0},
		{size.Width, 0},
		{size.Width, size.Height},
		{0, size.Height},
	})
	defer dst.Close()

	m := gocv.GetPerspectiveTransform(src, dst)
	defer m.Close()

	out := gocv.NewMat()
	gocv.WarpPerspective(frame, &out, m, image.Pt(size.Width, size.Height))
	return out, nil
}

// CloseAll 释放一组检测结果
func CloseAll(ds []*Detection) {
	for _, d := range ds {
		d.Close()
	}
}
