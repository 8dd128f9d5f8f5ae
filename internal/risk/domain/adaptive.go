package domain

import (
	"fmt"
	"math"

	"github.com/wyfcoding/indexoptions/internal/signal"
)

// AdaptivePolicy 自适应容量策略参数
// 阈值与缩放系数保持可配置，不把推导意图写死在代码里
type AdaptivePolicy struct {
	// 波动率档位边界（升序）
	CalmBelow     float64
	NormalBelow   float64
	ElevatedBelow float64
	// 各档位的每日建议上限
	CalmMax     int
	NormalMax   int
	ElevatedMax int
	ExtremeMax  int
	// 置信度阈值与缩放
	HighConfidence float64
	LowConfidence  float64
	HighScale      float64
	LowScale       float64
}

// DefaultAdaptivePolicy 缺省参数
func DefaultAdaptivePolicy() AdaptivePolicy {
	return AdaptivePolicy{
		CalmBelow:      15.0,
		NormalBelow:    20.0,
		ElevatedBelow:  30.0,
		CalmMax:        180,
		NormalMax:      135,
		ElevatedMax:    90,
		ExtremeMax:     90,
		HighConfidence: 0.80,
		LowConfidence:  0.50,
		HighScale:      1.2,
		LowScale:       0.7,
	}
}

// RecommendedMax 波动率档位的每日建议上限（阶跃函数）
func (p AdaptivePolicy) RecommendedMax(volatility float64) int {
	switch {
	case volatility < p.CalmBelow:
		return p.CalmMax
	case volatility < p.NormalBelow:
		return p.NormalMax
	case volatility < p.ElevatedBelow:
		return p.ElevatedMax
	default:
		return p.ExtremeMax
	}
}

// Capacity 计算自适应容量决策
// 建议上限按波动率取档，平均置信度高于阈值时放大并允许越权，
// 低于下限时收缩；越权从不作用于当日亏损熔断
func (p AdaptivePolicy) Capacity(currentTrades int, avgConfidence, volatility float64) *signal.AdaptiveCapacityInfo {
	recommended := p.RecommendedMax(volatility)
	adaptive := recommended
	shouldExceed := false
	reason := fmt.Sprintf("volatility %.2f tier allows %d trades/day", volatility, recommended)

	switch {
	case avgConfidence > p.HighConfidence:
		adaptive = int(math.Round(float64(recommended) * p.HighScale))
		shouldExceed = true
		reason = fmt.Sprintf("mean confidence %.2f above %.2f, capacity scaled to %d", avgConfidence, p.HighConfidence, adaptive)
	case avgConfidence < p.LowConfidence:
		adaptive = int(math.Round(float64(recommended) * p.LowScale))
		reason = fmt.Sprintf("mean confidence %.2f below %.2f, capacity reduced to %d", avgConfidence, p.LowConfidence, adaptive)
	}

	remaining := adaptive - currentTrades
	if remaining < 0 {
		remaining = 0
	}
	return &signal.AdaptiveCapacityInfo{
		RecommendedMax:    recommended,
		AdaptiveMax:       adaptive,
		ShouldExceed:      shouldExceed,
		Reason:            reason,
		RemainingCapacity: remaining,
	}
}
