// Package signal 定义外部 AI 信号源的窄契约
// 核心只消费信号，不关心其生成方式
package signal

import (
	"context"

	"github.com/shopspring/decimal"
)

// TradeSignal 外部信号，核心只读，不落库
type TradeSignal struct {
	Symbol     string          `json:"symbol"`
	Side       string          `json:"side"` // BUY / SELL
	Quantity   decimal.Decimal `json:"quantity"`
	Confidence float64         `json:"confidence"` // [0,1]
	Rationale  string          `json:"rationale"`
}

// AdaptiveCapacityInfo 自适应容量决策，由信号源计算并随信号下发
type AdaptiveCapacityInfo struct {
	// 波动率档位给出的每日建议上限
	RecommendedMax int `json:"recommended_max"`
	// 置信度缩放后的实际上限
	AdaptiveMax int `json:"adaptive_max"`
	// 是否允许超出基础持仓笔数上限（从不作用于当日亏损熔断）
	ShouldExceed bool `json:"should_exceed"`
	// 决策原因，用于软拒绝时回传
	Reason string `json:"reason"`
	// 当日剩余容量
	RemainingCapacity int `json:"remaining_capacity"`
}

// Source 信号源
type Source interface {
	GetSignals(ctx context.Context) ([]TradeSignal, error)
}

// AdaptiveSource 在基础信号源之上额外提供容量决策
type AdaptiveSource interface {
	Source
	GetAdaptiveCapacity(ctx context.Context, currentTrades int, avgConfidence, marketVolatility float64) (*AdaptiveCapacityInfo, error)
}
