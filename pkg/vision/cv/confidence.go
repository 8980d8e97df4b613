package cv

import "math"

// ClampScore 将相关系数限制到 [0,1]，NaN 视为 0
func ClampScore(v float32) float64 {
	f := float64(v)
	switch {
	case math.IsNaN(f), f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
