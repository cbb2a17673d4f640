package summarizer

import "github.com/fachebot/text-digest/internal/config"

// AdaptiveBounds 按输入 token 数和压缩比计算输出长度范围，
// 两端分别限制在各自的上下限内，min >= max 时 max = min + Delta
func AdaptiveBounds(cfg config.Compression, inputTokens int) Bounds {
	minLen := clamp(int(float64(inputTokens)*cfg.Min), cfg.MinFloor, cfg.MinCeiling)
	maxLen := clamp(int(float64(inputTokens)*cfg.Max), cfg.MaxFloor, cfg.MaxCeiling)
	if minLen >= maxLen {
		maxLen = minLen + cfg.Delta
	}
	return Bounds{Min: minLen, Max: maxLen}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
