package stats

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/zoeyai/cardvision/pkg/card"
)

// ErrLengthMismatch 标注与预测数量不一致
var ErrLengthMismatch = errors.New("ground truth and predictions differ in length")

// Analysis 与标注对比后的误判分析
type Analysis struct {
	Total      int     `json:"total"`
	Correct    int     `json:"correct"`
	Accuracy   float64 `json:"accuracy"`
	RankErrors int     `json:"rank_errors"`
	SuitErrors int     `json:"suit_errors"`
	BothErrors int     `json:"both_errors"`
	Undetected int     `json:"undetected"`
	// 形如 "Q->K" 的混淆计数，只统计单项错误
	RankConfusion map[string]int `json:"rank_confusion"`
	SuitConfusion map[string]int `json:"suit_confusion"`
}

// Analyze 逐项对比标注和预测
// 无效预测计为未检出；标注标签非法时返回错误
func Analyze(groundTruth []string, predictions []card.Result) (Analysis, error) {
	a := Analysis{
		RankConfusion: make(map[string]int),
		SuitConfusion: make(map[string]int),
	}
	if len(groundTruth) != len(predictions) {
		return a, fmt.Errorf("%w: %d != %d", ErrLengthMismatch, len(groundTruth), len(predictions))
	}

	a.Total = len(groundTruth)
	for i, gt := range groundTruth {
		gr, gs, err := card.ParseLabel(gt)
		if err != nil {
			return a, fmt.Errorf("第 %d 个标注: %w", i, err)
		}

		pred := predictions[i]
		pr, ps, ok := pred.Identity()
		if !pred.Valid || !ok {
			a.Undetected++
			continue
		}

		switch {
		case pr == gr && ps == gs:
			a.Correct++
		case pr != gr && ps != gs:
			a.BothErrors++
		case pr != gr:
			a.RankErrors++
			a.RankConfusion[gr.String()+"->"+pr.String()]++
		default:
			a.SuitErrors++
			a.SuitConfusion[gs.String()+"->"+ps.String()]++
		}
	}

	if a.Total > 0 {
		a.Accuracy = float64(a.Correct) / float64(a.Total)
	}
	return a, nil
}

type confusion struct {
	key   string
	count int
}

// sortedConfusion 按次数降序，次数相同按键排序
func sortedConfusion(m map[string]int) []confusion {
	out := make([]confusion, 0, len(m))
	for k, v := range m {
		out = append(out, confusion{k, v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].key < out[j].key
	})
	return out
}

// Format 文本报告
func (a Analysis) Format() string {
	var b strings.Builder
	line := strings.Repeat("=", 48)

	fmt.Fprintln(&b, line)
	fmt.Fprintln(&b, "识别分析")
	fmt.Fprintln(&b, line)
	fmt.Fprintf(&b, "总数: %d\n", a.Total)
	fmt.Fprintf(&b, "正确: %d (%.1f%%)\n", a.Correct, a.Accuracy*100)
	fmt.Fprintf(&b, "仅点数错误: %d\n", a.RankErrors)
	fmt.Fprintf(&b, "仅花色错误: %d\n", a.SuitErrors)
	fmt.Fprintf(&b, "两者都错: %d\n", a.BothErrors)
	fmt.Fprintf(&b, "未检出: %d\n", a.Undetected)

	if len(a.RankConfusion) > 0 {
		fmt.Fprintln(&b, "\n点数混淆:")
		for _, c := range sortedConfusion(a.RankConfusion) {
			fmt.Fprintf(&b, "  %s: %d\n", c.key, c.count)
		}
	}
	if len(a.SuitConfusion) > 0 {
		fmt.Fprintln(&b, "\n花色混淆:")
		for _, c := range sortedConfusion(a.SuitConfusion) {
			fmt.Fprintf(&b, "  %s: %d\n", c.key, c.count)
		}
	}
	return b.String()
}

// Format 文本报告
func (s Summary) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "总数: %d\n", s.Total)
	fmt.Fprintf(&b, "有效: %d (%.1f%%)\n", s.Valid, s.SuccessRate*100)
	fmt.Fprintf(&b, "无效: %d\n", s.Invalid)
	fmt.Fprintf(&b, "平均置信度: 点数 %.3f, 花色 %.3f\n", s.MeanRankConfidence, s.MeanSuitConfidence)
	if len(s.Unique) > 0 {
		fmt.Fprintf(&b, "识别到的卡片: %s\n", strings.Join(s.Unique, ", "))
	}
	return b.String()
}
