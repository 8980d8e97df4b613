// Package classify 对标准卡片图像做方向矫正、颜色判定和点数花色识别
package classify

import (
	"errors"
	"fmt"
	"time"

	"gocv.io/x/gocv"

	"github.com/zoeyai/cardvision/internal/logger"
	"github.com/zoeyai/cardvision/pkg/card"
	"github.com/zoeyai/cardvision/pkg/config"
	"github.com/zoeyai/cardvision/pkg/vision/cv"
	"github.com/zoeyai/cardvision/pkg/vision/templates"
)

// ErrTemplatesNotLoaded 模板库未加载
var ErrTemplatesNotLoaded = errors.New("templates not loaded")

// Classifier 卡片分类器，可并发使用
type Classifier struct {
	cfg        config.VisionConfig
	lib        *templates.Library
	matcher    *cv.PyramidMatcher
	withScores bool
	log        *logger.Logger
}

// Option 分类器选项
type Option func(*Classifier)

// WithScores 在结果中附带完整分数表
func WithScores(enabled bool) Option {
	return func(c *Classifier) {
		c.withScores = enabled
	}
}

// NewClassifier 创建分类器
func NewClassifier(lib *templates.Library, vc config.VisionConfig, opts ...Option) *Classifier {
	c := &Classifier{
		cfg:     vc,
		lib:     lib,
		matcher: cv.NewPyramidMatcher(vc.Scales, vc.BinarizeThreshold),
		log:     logger.Default().With("classify"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MatchRanks 对点数区域计算 13 个点数的分数
func (c *Classifier) MatchRanks(region gocv.Mat) (card.RankScores, error) {
	var out card.RankScores
	scores, err := c.matcher.ScoreAll(region, c.lib.RankTemplates())
	if err != nil {
		return out, err
	}
	copy(out[:], scores)
	return out, nil
}

// MatchSuits 对花色区域计算 4 个花色的分数
func (c *Classifier) MatchSuits(region gocv.Mat) (card.SuitScores, error) {
	var out card.SuitScores
	scores, err := c.matcher.ScoreAll(region, c.lib.SuitTemplates())
	if err != nil {
		return out, err
	}
	copy(out[:], scores)
	return out, nil
}

// Classify 识别标准卡片图像
// 输入必须是 CardSize 大小的 3 通道图像，否则返回 cv.ErrInvalidInput
// 识别不出或置信度不足时返回 Valid=false 的结果而不是错误
func (c *Classifier) Classify(img gocv.Mat) (card.Result, error) {
	start := time.Now()

	if c.lib == nil {
		return card.Unknown(), ErrTemplatesNotLoaded
	}
	if err := c.lib.Load(); err != nil {
		return card.Unknown(), fmt.Errorf("%w: %v", ErrTemplatesNotLoaded, err)
	}
	if !c.lib.IsLoaded() {
		return card.Unknown(), ErrTemplatesNotLoaded
	}
	if err := cv.CheckFrame(img); err != nil {
		return card.Unknown(), err
	}
	if err := cv.CheckSize(img, c.cfg.CardSize.Width, c.cfg.CardSize.Height); err != nil {
		return card.Unknown(), err
	}

	oriented, rotated, err := CorrectOrientation(img, c.cfg)
	if err != nil {
		return card.Unknown(), fmt.Errorf("方向矫正失败: %w", err)
	}
	defer oriented.Close()

	rankROI, err := cv.CropRegion(oriented, roiRect(c.cfg.RankROI))
	if err != nil {
		return card.Unknown(), err
	}
	defer rankROI.Close()

	suitROI, err := cv.CropRegion(oriented, roiRect(c.cfg.SuitROI))
	if err != nil {
		return card.Unknown(), err
	}
	defer suitROI.Close()

	res := card.Unknown()
	res.Color = DetectColor(suitROI, c.cfg)

	rankScores, err := c.MatchRanks(rankROI)
	if err != nil {
		return card.Unknown(), err
	}
	suitScores, err := c.MatchSuits(suitROI)
	if err != nil {
		return card.Unknown(), err
	}
	if c.withScores {
		res.RankScores = &rankScores
		res.SuitScores = &suitScores
		ratio := RedMaskRatio(suitROI, c.cfg)
		res.RedRatio = &ratio
	}

	res.Rank, res.RankConfidence = rankScores.BestRank(c.cfg.MatchThreshold)
	res.Suit, res.SuitConfidence = suitScores.BestSuit(c.cfg.MatchThreshold)

	if res.Rank == nil || res.Suit == nil {
		c.log.Debug("点数或花色未识别: rank=%.3f suit=%.3f rotated=%v", res.RankConfidence, res.SuitConfidence, rotated)
		return res, nil
	}

	if s, conf, changed := Reconcile(*res.Suit, res.SuitConfidence, suitScores, res.Color); changed {
		c.log.Debug("颜色 %s 与花色 %s 不一致, 改为 %s", res.Color, res.Suit, s)
		res.Suit, res.SuitConfidence = &s, conf
	}

	if res.RankConfidence < c.cfg.MinConfidence || res.SuitConfidence < c.cfg.MinConfidence {
		c.log.Debug("置信度不足: rank=%.3f suit=%.3f", res.RankConfidence, res.SuitConfidence)
		return res, nil
	}

	res.Label = card.Label(*res.Rank, *res.Suit)
	res.Valid = true
	c.log.Debug("识别为 %s, 耗时 %s", res.Label, time.Since(start))
	return res, nil
}

// Reconcile 花色颜色与检测颜色不一致时，在检测颜色的两个花色中重新取最高分
// 颜色一致或未检测颜色时原样返回，changed 为 false
func Reconcile(suit card.Suit, conf float64, scores card.SuitScores, detected card.Color) (card.Suit, float64, bool) {
	if detected == card.NoColor || suit.Color() == detected {
		return suit, conf, false
	}

	candidates := card.SuitsOfColor(detected)
	best, bestScore := candidates[0], scores[candidates[0]]
	for _, s := range candidates[1:] {
		if scores[s] > bestScore {
			best, bestScore = s, scores[s]
		}
	}
	return best, bestScore, true
}
