package config

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig 配置非法
var ErrInvalidConfig = errors.New("invalid config")

// Contains 判断 ROI 是否完全落在 size 内
func (r ROI) Contains(s Size) bool {
	return r.X >= 0 && r.Y >= 0 && r.Width > 0 && r.Height > 0 &&
		r.X+r.Width <= s.Width && r.Y+r.Height <= s.Height
}

// Validate 校验识别参数
func (v *VisionConfig) Validate() error {
	if v.CardSize.Width <= 0 || v.CardSize.Height <= 0 {
		return fmt.Errorf("%w: 卡片尺寸必须为正: %+v", ErrInvalidConfig, v.CardSize)
	}
	if !v.RankROI.Contains(v.CardSize) {
		return fmt.Errorf("%w: 点数 ROI 超出卡片范围: %+v", ErrInvalidConfig, v.RankROI)
	}
	if !v.SuitROI.Contains(v.CardSize) {
		return fmt.Errorf("%w: 花色 ROI 超出卡片范围: %+v", ErrInvalidConfig, v.SuitROI)
	}
	if v.RankTemplateSize.Width <= 0 || v.RankTemplateSize.Height <= 0 ||
		v.SuitTemplateSize.Width <= 0 || v.SuitTemplateSize.Height <= 0 {
		return fmt.Errorf("%w: 模板尺寸必须为正", ErrInvalidConfig)
	}
	if v.BlurKernel <= 0 || v.BlurKernel%2 == 0 {
		return fmt.Errorf("%w: 模糊核必须为正奇数: %d", ErrInvalidConfig, v.BlurKernel)
	}
	if v.MorphKernel <= 0 {
		return fmt.Errorf("%w: 形态学核必须为正: %d", ErrInvalidConfig, v.MorphKernel)
	}
	if v.MinContourArea < 0 {
		return fmt.Errorf("%w: 最小轮廓面积不能为负", ErrInvalidConfig)
	}
	if v.EpsilonSingle <= 0 || v.EpsilonMulti <= 0 {
		return fmt.Errorf("%w: 多边形逼近系数必须为正", ErrInvalidConfig)
	}
	if len(v.Scales) == 0 {
		return fmt.Errorf("%w: 缩放比例不能为空", ErrInvalidConfig)
	}
	for _, s := range v.Scales {
		if s <= 0 {
			return fmt.Errorf("%w: 缩放比例必须为正: %v", ErrInvalidConfig, s)
		}
	}
	if v.MatchThreshold < 0 || v.MatchThreshold > 1 || v.MinConfidence < 0 || v.MinConfidence > 1 {
		return fmt.Errorf("%w: 阈值必须在 [0,1] 内", ErrInvalidConfig)
	}
	if !inByteRange(v.BinarizeThreshold) || !inByteRange(v.DarkThreshold) {
		return fmt.Errorf("%w: 灰度阈值必须在 [0,255] 内", ErrInvalidConfig)
	}
	if !inByteRange(v.RedMinusGreen) || !inByteRange(v.RedMinusBlue) {
		return fmt.Errorf("%w: 红色通道差阈值必须在 [0,255] 内", ErrInvalidConfig)
	}
	if v.OrientationRatio <= 0 {
		return fmt.Errorf("%w: 方向比例必须为正", ErrInvalidConfig)
	}
	return nil
}

func inByteRange(v float64) bool {
	return v >= 0 && v <= 255
}

// Validate 校验完整配置
func (c *AppConfig) Validate() error {
	if err := c.Vision.Validate(); err != nil {
		return err
	}
	switch c.Source.Kind {
	case "", "camera", "video", "rtsp", "images", "screen":
	default:
		return fmt.Errorf("%w: 未知帧源类型 %q", ErrInvalidConfig, c.Source.Kind)
	}
	return nil
}
