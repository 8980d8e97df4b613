// Package vision 提供扑克牌识别流水线
//
// 流程: 帧 -> 定位 (HSV 分割 + 轮廓 + 透视矫正) -> 分类 (方向 + 颜色 + 多尺度模板匹配)
//
// 基本用法:
//
//	p, err := vision.NewPipeline(templates.NewDirStore("templates"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Close()
//
//	results, err := p.ProcessFrame(frame)
//	for _, r := range results {
//	    fmt.Println(r.Format())
//	}
package vision

import (
	"fmt"
	"time"

	"gocv.io/x/gocv"

	"github.com/zoeyai/cardvision/internal/logger"
	"github.com/zoeyai/cardvision/pkg/card"
	"github.com/zoeyai/cardvision/pkg/vision/classify"
	"github.com/zoeyai/cardvision/pkg/vision/cv"
	"github.com/zoeyai/cardvision/pkg/vision/detect"
	"github.com/zoeyai/cardvision/pkg/vision/templates"
)

// Pipeline 定位 + 分类流水线
// 模板库只读共享，不同帧可以并发处理
type Pipeline struct {
	cfg        *pipelineConfig
	localizer  *detect.Localizer
	library    *templates.Library
	classifier *classify.Classifier
	log        *logger.Logger
}

// NewPipeline 创建流水线并加载模板
// 存储不可用或任一类别没有模板时返回错误
func NewPipeline(store templates.Store, opts ...Option) (*Pipeline, error) {
	cfg := defaultPipelineConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.vision.Validate(); err != nil {
		return nil, err
	}

	lib := templates.NewLibrary(store, cfg.vision)
	if err := lib.Load(); err != nil {
		lib.Close()
		return nil, fmt.Errorf("加载模板失败: %w", err)
	}
	if !lib.IsLoaded() {
		lib.Close()
		return nil, fmt.Errorf("%w: 点数或花色模板为空", classify.ErrTemplatesNotLoaded)
	}

	return &Pipeline{
		cfg:        cfg,
		localizer:  detect.NewLocalizer(cfg.vision),
		library:    lib,
		classifier: classify.NewClassifier(lib, cfg.vision, classify.WithScores(cfg.withScores)),
		log:        logger.Default().With("pipeline"),
	}, nil
}

// Library 返回模板库
func (p *Pipeline) Library() *templates.Library {
	return p.library
}

// Classify 识别一张标准卡片图像
func (p *Pipeline) Classify(canonical gocv.Mat) (card.Result, error) {
	return p.classifier.Classify(canonical)
}

// ProcessFrame 多卡模式：定位帧中全部卡片并逐张识别
// 没有卡片时返回空切片
func (p *Pipeline) ProcessFrame(frame gocv.Mat) ([]CardResult, error) {
	start := time.Now()

	detections, err := p.localizer.Locate(frame)
	if err != nil {
		return nil, err
	}
	defer detect.CloseAll(detections)

	results := make([]CardResult, 0, len(detections))
	for _, d := range detections {
		res, err := p.classifyDetection(d)
		if err != nil {
			CloseResults(results)
			return nil, err
		}
		results = append(results, res)
	}

	p.log.Debug("帧处理完成: cards=%d, 耗时 %s", len(results), time.Since(start))
	return results, nil
}

// ProcessLargest 单卡模式：只处理面积最大的轮廓
// 没有检测到时返回 nil；轮廓不是四边形时返回 Status 为 shape_rejected 的无效结果
func (p *Pipeline) ProcessLargest(frame gocv.Mat) (*CardResult, error) {
	d, err := p.localizer.LocateLargest(frame)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, nil
	}
	defer d.Close()

	if d.Status != detect.Detected {
		res := newCardResult(d)
		return &res, nil
	}

	res, err := p.classifyDetection(d)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (p *Pipeline) classifyDetection(d *detect.Detection) (CardResult, error) {
	res := newCardResult(d)

	r, err := p.classifier.Classify(d.Card)
	if err != nil {
		return res, err
	}
	res.Result = r

	if p.cfg.keepCards {
		m := d.Card.Clone()
		res.Card = &m
	}
	return res, nil
}

// CloseResults 释放一组结果中保留的标准图像
func CloseResults(rs []CardResult) {
	for i := range rs {
		rs[i].Close()
	}
}

// Close 释放流水线资源
func (p *Pipeline) Close() error {
	p.localizer.Close()
	return p.library.Close()
}

// ============ 工具函数 ============

// ReadImage 读取图像文件
func ReadImage(filename string) (gocv.Mat, error) {
	return cv.ReadImage(filename)
}

// LoadImage 加载图像 (支持多种输入类型)
func LoadImage(input interface{}) (gocv.Mat, error) {
	return cv.LoadImageInput(input)
}

// DecodeImage 解码图像字节
func DecodeImage(data []byte) (gocv.Mat, error) {
	return cv.DecodeImage(data)
}
