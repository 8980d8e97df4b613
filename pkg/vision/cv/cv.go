// Package cv 提供卡片识别用到的底层图像操作
//
// 包含:
//   - 图像读写与解码 (文件、上传字节)
//   - 区域裁剪、二值化、缩放、旋转
//   - 四边形角点排序与轮廓质心
//   - 单尺度与多尺度 (金字塔) 模板匹配
//
// 基本用法:
//
//	probe, _ := cv.CropRegion(card, image.Rect(0, 3, 85, 53))
//	defer probe.Close()
//
//	m := cv.NewPyramidMatcher(cv.DefaultScales, 150)
//	scores, err := m.ScoreAll(probe, templates)
package cv
