package templates

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"github.com/zoeyai/cardvision/internal/logger"
	"github.com/zoeyai/cardvision/pkg/card"
	"github.com/zoeyai/cardvision/pkg/config"
)

// Library 模板库
//
// 每个点数和花色最多一个模板，加载时统一缩放到类别的目标尺寸。
// 只加载一次，之后只读，可在多个 goroutine 间共享。
// 缺失的标签保存为空 Mat，匹配时得 0 分。
type Library struct {
	store    Store
	rankSize config.Size
	suitSize config.Size

	once    sync.Once
	loadErr error

	ranks [card.NumRanks]gocv.Mat
	suits [card.NumSuits]gocv.Mat

	rankCount int
	suitCount int
	missing   []string

	log *logger.Logger
}

// NewLibrary 创建模板库，首次 Load 时才读取存储
func NewLibrary(store Store, vc config.VisionConfig) *Library {
	lib := &Library{
		store:    store,
		rankSize: vc.RankTemplateSize,
		suitSize: vc.SuitTemplateSize,
		log:      logger.Default().With("templates"),
	}
	for i := range lib.ranks {
		lib.ranks[i] = gocv.NewMat()
	}
	for i := range lib.suits {
		lib.suits[i] = gocv.NewMat()
	}
	return lib
}

// Load 从存储加载全部模板，重复调用只执行一次
// 单个标签缺失不是错误；存储整体不可用时返回 ErrStoreUnavailable
func (l *Library) Load() error {
	l.once.Do(func() {
		l.loadErr = l.load()
	})
	return l.loadErr
}

func (l *Library) load() error {
	for _, r := range card.AllRanks() {
		m, err := l.get(CategoryRank, r.String(), l.rankSize)
		if err != nil {
			if errors.Is(err, ErrStoreUnavailable) {
				return err
			}
			l.missing = append(l.missing, string(CategoryRank)+"/"+r.String())
			l.log.Warn("点数模板缺失: %s (%v)", r, err)
			continue
		}
		l.ranks[r].Close()
		l.ranks[r] = m
		l.rankCount++
	}

	for _, s := range card.AllSuits() {
		m, err := l.get(CategorySuit, s.String(), l.suitSize)
		if err != nil {
			if errors.Is(err, ErrStoreUnavailable) {
				return err
			}
			l.missing = append(l.missing, string(CategorySuit)+"/"+s.String())
			l.log.Warn("花色模板缺失: %s (%v)", s, err)
			continue
		}
		l.suits[s].Close()
		l.suits[s] = m
		l.suitCount++
	}

	l.log.Info("模板加载完成: 点数 %d/%d, 花色 %d/%d", l.rankCount, card.NumRanks, l.suitCount, card.NumSuits)
	return nil
}

// get 读取模板并缩放到目标尺寸
func (l *Library) get(category Category, label string, size config.Size) (gocv.Mat, error) {
	raw, err := l.store.Get(category, label)
	if err != nil {
		raw.Close()
		return gocv.NewMat(), err
	}
	defer raw.Close()

	if raw.Empty() {
		return gocv.NewMat(), fmt.Errorf("%w: %s/%s 为空图像", ErrNotFound, category, label)
	}

	gray := raw
	if raw.Channels() != 1 {
		gray = gocv.NewMat()
		defer gray.Close()
		gocv.CvtColor(raw, &gray, gocv.ColorBGRToGray)
	}

	out := gocv.NewMat()
	gocv.Resize(gray, &out, image.Pt(size.Width, size.Height), 0, 0, gocv.InterpolationLinear)
	return out, nil
}

// IsLoaded 点数和花色各至少有一个模板时为 true
func (l *Library) IsLoaded() bool {
	return l.rankCount > 0 && l.suitCount > 0
}

// Counts 已加载的点数和花色模板数
func (l *Library) Counts() (ranks, suits int) {
	return l.rankCount, l.suitCount
}

// Missing 缺失的模板，形如 "ranks/10"
func (l *Library) Missing() []string {
	out := make([]string, len(l.missing))
	copy(out, l.missing)
	return out
}

// Rank 点数模板，缺失时为空 Mat；返回值只读，不要 Close
func (l *Library) Rank(r card.Rank) gocv.Mat {
	return l.ranks[r]
}

// Suit 花色模板，缺失时为空 Mat；返回值只读，不要 Close
func (l *Library) Suit(s card.Suit) gocv.Mat {
	return l.suits[s]
}

// RankTemplates 按点数顺序返回全部模板
func (l *Library) RankTemplates() []gocv.Mat {
	return l.ranks[:]
}

// SuitTemplates 按花色顺序返回全部模板
func (l *Library) SuitTemplates() []gocv.Mat {
	return l.suits[:]
}

// Close 释放全部模板
func (l *Library) Close() error {
	for i := range l.ranks {
		l.ranks[i].Close()
	}
	for i := range l.suits {
		l.suits[i].Close()
	}
	return nil
}
