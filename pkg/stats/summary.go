package stats

import (
	"sort"
	"sync"
	"time"

	"github.com/zoeyai/cardvision/pkg/card"
)

// Summary 一组识别结果的汇总
type Summary struct {
	Total              int     `json:"total"`
	Valid              int     `json:"valid"`
	Invalid            int     `json:"invalid"`
	SuccessRate        float64 `json:"success_rate"`
	MeanRankConfidence float64 `json:"mean_rank_confidence"`
	MeanSuitConfidence float64 `json:"mean_suit_confidence"`
	// Unique 出现过的有效标签，按字母排序
	Unique []string `json:"unique"`
}

// Summarize 汇总识别结果，平均置信度只统计有效结果
func Summarize(results []card.Result) Summary {
	var a accumulator
	for _, r := range results {
		a.add(r)
	}
	return a.summary()
}

type accumulator struct {
	total, valid int
	rankSum      float64
	suitSum      float64
	seen         map[string]struct{}
}

func (a *accumulator) add(r card.Result) {
	a.total++
	if !r.Valid {
		return
	}
	a.valid++
	a.rankSum += r.RankConfidence
	a.suitSum += r.SuitConfidence
	if a.seen == nil {
		a.seen = make(map[string]struct{})
	}
	a.seen[r.Label] = struct{}{}
}

func (a *accumulator) summary() Summary {
	s := Summary{
		Total:   a.total,
		Valid:   a.valid,
		Invalid: a.total - a.valid,
		Unique:  make([]string, 0, len(a.seen)),
	}
	if a.total > 0 {
		s.SuccessRate = float64(a.valid) / float64(a.total)
	}
	if a.valid > 0 {
		s.MeanRankConfidence = a.rankSum / float64(a.valid)
		s.MeanSuitConfidence = a.suitSum / float64(a.valid)
	}
	for l := range a.seen {
		s.Unique = append(s.Unique, l)
	}
	sort.Strings(s.Unique)
	return s
}

// Session 运行期间的累计统计，可并发使用
type Session struct {
	mu      sync.Mutex
	started time.Time
	acc     accumulator
	history *History
}

// SessionSummary 带时间信息的汇总
type SessionSummary struct {
	Summary
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	// Smoothed 平滑窗口中的多数标签
	Smoothed string `json:"smoothed,omitempty"`
}

// NewSession 创建会话统计
func NewSession(historySize int) *Session {
	return &Session{started: time.Now(), history: NewHistory(historySize)}
}

// Add 记录一组结果，有效结果同时进入平滑窗口
func (s *Session) Add(results ...card.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range results {
		s.acc.add(r)
		if r.Valid {
			s.history.Add(r.Label)
		}
	}
}

// Smoothed 平滑后的标签
func (s *Session) Smoothed() (string, int) {
	return s.history.Majority()
}

// Summary 当前汇总
func (s *Session) Summary() SessionSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	label, _ := s.history.Majority()
	return SessionSummary{
		Summary:  s.acc.summary(),
		Started:  s.started,
		Duration: time.Since(s.started),
		Smoothed: label,
	}
}

// Reset 清空统计并重新计时
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acc = accumulator{}
	s.started = time.Now()
	s.history.Reset()
}
