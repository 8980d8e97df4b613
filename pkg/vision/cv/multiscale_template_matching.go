package cv

import (
	"fmt"

	"gocv.io/x/gocv"
)

// DefaultScales 默认模板缩放比例
var DefaultScales = []float64{0.8, 0.9, 1.0, 1.1, 1.2}

// PyramidMatcher 多尺度模板匹配器
//
// 探针图先反向二值化，再对每个缩放比例下的模板做 TM_CCOEFF_NORMED，
// 取所有尺度中的最高分。模板在某个尺度下放不进探针图时跳过该尺度。
type PyramidMatcher struct {
	scales    []float64
	threshold float64
}

// NewPyramidMatcher 创建多尺度匹配器
// threshold 为探针图二值化阈值
func NewPyramidMatcher(scales []float64, threshold float64) *PyramidMatcher {
	if len(scales) == 0 {
		scales = DefaultScales
	}
	s := make([]float64, len(scales))
	copy(s, scales)
	return &PyramidMatcher{scales: s, threshold: threshold}
}

// Match 在已二值化的探针图上匹配单个模板
// 所有尺度都放不进时返回零值结果 (Confidence 0, Scale 0)
func (m *PyramidMatcher) Match(probe, templ gocv.Mat) MatchResult {
	var best MatchResult
	if probe.Empty() || templ.Empty() {
		return best
	}

	for _, scale := range m.scales {
		w, h := scaledSize(templ.Cols(), templ.Rows(), scale)
		if w < 1 || h < 1 || w > probe.Cols() || h > probe.Rows() {
			continue
		}

		scaled := ResizeImage(templ, w, h)
		res, err := NewTemplateMatching(scaled, probe).FindBestResult()
		scaled.Close()
		if err != nil {
			continue
		}

		if best.Scale == 0 || res.Confidence > best.Confidence {
			res.Scale = scale
			best = res
		}
	}
	return best
}

// ScoreAll 对区域二值化后逐个模板评分
// 空模板（缺失的标签）得 0 分；返回切片与 templs 一一对应
func (m *PyramidMatcher) ScoreAll(region gocv.Mat, templs []gocv.Mat) ([]float64, error) {
	if region.Empty() {
		return nil, fmt.Errorf("%w: 空区域", ErrInvalidInput)
	}

	probe := Binarize(region, m.threshold)
	defer probe.Close()

	scores := make([]float64, len(templs))
	for i, t := range templs {
		if t.Empty() {
			continue
		}
		scores[i] = m.Match(probe, t).Confidence
	}
	return scores, nil
}

// scaledSize 缩放后的模板尺寸，向零截断
func scaledSize(w, h int, scale float64) (int, int) {
	return int(float64(w) * scale), int(float64(h) * scale)
}
