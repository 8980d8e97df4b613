package vision

import (
	"github.com/zoeyai/cardvision/pkg/config"
)

// Option 流水线选项函数类型
type Option func(*pipelineConfig)

// pipelineConfig 流水线的临时配置
type pipelineConfig struct {
	vision     config.VisionConfig
	withScores bool
	keepCards  bool
}

// defaultPipelineConfig 默认流水线配置
func defaultPipelineConfig() *pipelineConfig {
	return &pipelineConfig{
		vision: config.DefaultVisionConfig(),
	}
}

// WithVisionConfig 使用指定的识别参数
func WithVisionConfig(vc config.VisionConfig) Option {
	return func(c *pipelineConfig) {
		c.vision = vc
	}
}

// WithScores 在结果中附带完整分数表
func WithScores(enabled bool) Option {
	return func(c *pipelineConfig) {
		c.withScores = enabled
	}
}

// WithKeepCards 在结果中保留矫正后的标准图像
func WithKeepCards(enabled bool) Option {
	return func(c *pipelineConfig) {
		c.keepCards = enabled
	}
}

// WithThreshold 设置模板匹配阈值
func WithThreshold(threshold float64) Option {
	return func(c *pipelineConfig) {
		c.vision.MatchThreshold = threshold
	}
}

// WithMinConfidence 设置最终有效性的最低置信度
func WithMinConfidence(min float64) Option {
	return func(c *pipelineConfig) {
		c.vision.MinConfidence = min
	}
}
