package card

import (
	"fmt"
	"strings"
)

// UnknownLabel 无法识别时的标签
const UnknownLabel = "unknown"

// RankScores 每个点数的匹配分数，索引为 Rank
type RankScores [NumRanks]float64

// SuitScores 每个花色的匹配分数，索引为 Suit
type SuitScores [NumSuits]float64

// Result 单张卡片的识别结果
type Result struct {
	Label          string  `json:"label"`
	Rank           *Rank   `json:"rank"`
	Suit           *Suit   `json:"suit"`
	RankConfidence float64 `json:"rank_confidence"`
	SuitConfidence float64 `json:"suit_confidence"`
	Color          Color   `json:"color"`
	Valid          bool    `json:"valid"`

	// 调试用的完整分数表
	RankScores *RankScores `json:"rank_scores,omitempty"`
	SuitScores *SuitScores `json:"suit_scores,omitempty"`
	// RedRatio 花色区域落在红色 HSV 区间内的像素比例
	RedRatio *float64 `json:"red_ratio,omitempty"`
}

// Unknown 返回空的无效结果
func Unknown() Result {
	return Result{Label: UnknownLabel}
}

// Identity 返回点数和花色，任一缺失时 ok 为 false
func (r Result) Identity() (Rank, Suit, bool) {
	if r.Rank == nil || r.Suit == nil {
		return 0, 0, false
	}
	return *r.Rank, *r.Suit, true
}

// Format 格式化为可读文本
func (r Result) Format() string {
	if !r.Valid {
		parts := []string{"unknown"}
		if r.Rank != nil {
			parts = append(parts, fmt.Sprintf("rank=%s(%.2f)", r.Rank, r.RankConfidence))
		}
		if r.Suit != nil {
			parts = append(parts, fmt.Sprintf("suit=%s(%.2f)", r.Suit, r.SuitConfidence))
		}
		if r.Color != NoColor {
			parts = append(parts, "color="+r.Color.String())
		}
		return strings.Join(parts, " ")
	}
	return fmt.Sprintf("%s (rank %.2f, suit %.2f, %s)", r.Label, r.RankConfidence, r.SuitConfidence, r.Color)
}

// Comparison 识别结果与期望标签的对比
type Comparison struct {
	Expected    string `json:"expected"`
	Predicted   string `json:"predicted"`
	RankCorrect bool   `json:"rank_correct"`
	SuitCorrect bool   `json:"suit_correct"`
	Correct     bool   `json:"correct"`
}

// Compare 将识别结果与期望标签比较
func Compare(expected string, r Result) Comparison {
	c := Comparison{Expected: expected, Predicted: r.Label}
	er, es, err := ParseLabel(expected)
	if err != nil {
		return c
	}
	if r.Rank != nil && *r.Rank == er {
		c.RankCorrect = true
	}
	if r.Suit != nil && *r.Suit == es {
		c.SuitCorrect = true
	}
	c.Correct = r.Valid && c.RankCorrect && c.SuitCorrect
	return c
}

// BestMatch 在分数表中选出最高分
// 最高分不低于阈值时 ok 为 true，否则仍返回该分数但不给出标签
func BestMatch(scores []float64, threshold float64) (index int, score float64, ok bool) {
	index = -1
	for i, s := range scores {
		if index < 0 || s > score {
			index, score = i, s
		}
	}
	if index < 0 {
		return -1, 0, false
	}
	if score < threshold {
		return -1, score, false
	}
	return index, score, true
}

// BestRank 点数表中的最佳匹配
func (s *RankScores) BestRank(threshold float64) (*Rank, float64) {
	i, score, ok := BestMatch(s[:], threshold)
	if !ok {
		return nil, score
	}
	r := Rank(i)
	return &r, score
}

// BestSuit 花色表中的最佳匹配
func (s *SuitScores) BestSuit(threshold float64) (*Suit, float64) {
	i, score, ok := BestMatch(s[:], threshold)
	if !ok {
		return nil, score
	}
	v := Suit(i)
	return &v, score
}
