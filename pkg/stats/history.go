// Package stats 提供识别结果的平滑、汇总与误判分析
package stats

import "sync"

// DefaultHistorySize 默认平滑窗口大小
const DefaultHistorySize = 5

// History 最近若干个有效标签的滑动窗口，用于显示平滑
type History struct {
	mu     sync.Mutex
	size   int
	labels []string
}

// NewHistory 创建滑动窗口，size 非正时使用 DefaultHistorySize
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{size: size, labels: make([]string, 0, size)}
}

// Add 追加标签，超出窗口时丢弃最旧的
func (h *History) Add(label string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.labels) == h.size {
		copy(h.labels, h.labels[1:])
		h.labels = h.labels[:h.size-1]
	}
	h.labels = append(h.labels, label)
}

// Majority 返回窗口中出现次数最多的标签
// 次数相同时取窗口中最先出现的；窗口为空时返回 ("", 0)
func (h *History) Majority() (string, int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	counts := make(map[string]int, len(h.labels))
	for _, l := range h.labels {
		counts[l]++
	}

	best, bestCount := "", 0
	for _, l := range h.labels {
		if counts[l] > bestCount {
			best, bestCount = l, counts[l]
		}
	}
	return best, bestCount
}

// Labels 窗口内容，从旧到新
func (h *History) Labels() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.labels))
	copy(out, h.labels)
	return out
}

// Len 窗口中的标签数
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.labels)
}

// Reset 清空窗口
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.labels = h.labels[:0]
}
