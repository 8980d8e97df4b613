package cv

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// TemplateMatching 单尺度模板匹配器
type TemplateMatching struct {
	imSearch gocv.Mat
	imSource gocv.Mat
}

// NewTemplateMatching 创建模板匹配器，search 为模板，source 为探针图
func NewTemplateMatching(search, source gocv.Mat) *TemplateMatching {
	return &TemplateMatching{
		imSearch: search,
		imSource: source,
	}
}

// FindBestResult 查找最佳匹配
// 模板比探针图大时返回 *ImageSizeError
func (t *TemplateMatching) FindBestResult() (MatchResult, error) {
	if t.imSearch.Empty() || t.imSource.Empty() {
		return MatchResult{}, fmt.Errorf("%w: 模板或探针图为空", ErrInvalidInput)
	}
	if err := checkSourceLargerThanSearch(t.imSource, t.imSearch); err != nil {
		return MatchResult{}, err
	}

	result := t.getTemplateResultMatrix()
	defer result.Close()

	_, maxVal, _, maxLoc := gocv.MinMaxLoc(result)

	return MatchResult{
		Confidence: ClampScore(maxVal),
		Scale:      1,
		Location:   maxLoc,
		Size:       image.Point{X: t.imSearch.Cols(), Y: t.imSearch.Rows()},
	}, nil
}

// getTemplateResultMatrix 计算 TM_CCOEFF_NORMED 结果矩阵
func (t *TemplateMatching) getTemplateResultMatrix() gocv.Mat {
	srcGray := ToGray(t.imSource)
	searchGray := ToGray(t.imSearch)
	defer srcGray.Close()
	defer searchGray.Close()

	mask := gocv.NewMat()
	defer mask.Close()

	result := gocv.NewMat()
	gocv.MatchTemplate(srcGray, searchGray, &result, gocv.TmCcoeffNormed, mask)
	return result
}

// checkSourceLargerThanSearch 检查源图像是否不小于搜索图像
func checkSourceLargerThanSearch(source, search gocv.Mat) error {
	if source.Rows() < search.Rows() || source.Cols() < search.Cols() {
		return &ImageSizeError{
			SourceSize: [2]int{source.Cols(), source.Rows()},
			SearchSize: [2]int{search.Cols(), search.Rows()},
		}
	}
	return nil
}

// ImageSizeError 图像尺寸错误
type ImageSizeError struct {
	SourceSize [2]int
	SearchSize [2]int
}

func (e *ImageSizeError) Error() string {
	return fmt.Sprintf("模板尺寸 %dx%d 大于探针图 %dx%d",
		e.SearchSize[0], e.SearchSize[1], e.SourceSize[0], e.SourceSize[1])
}
