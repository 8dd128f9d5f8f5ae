// Package simulated 模拟信号源
// 生成随机但形态合理的交易信号，容量决策复用风控侧的自适应策略参数，
// 与真实 AI 信号源的契约保持一致
package simulated

import (
	"context"
	"math/rand"
	"sync"

	"github.com/shopspring/decimal"
	riskdomain "github.com/wyfcoding/indexoptions/internal/risk/domain"
	"github.com/wyfcoding/indexoptions/internal/signal"
)

var symbols = []string{"NIFTY50", "BANKNIFTY", "FINNIFTY"}

var sides = []string{"BUY", "SELL"}

// Source 模拟信号源，实现 signal.AdaptiveSource
type Source struct {
	mu     sync.Mutex
	rng    *rand.Rand
	policy riskdomain.AdaptivePolicy
	// 波动率来源，驱动容量档位
	volatility func(ctx context.Context) float64
	// 单次拉取的最大信号条数
	maxPerPull int
}

// NewSource 创建模拟信号源
func NewSource(policy riskdomain.AdaptivePolicy, volatility func(ctx context.Context) float64, rngSeed int64) *Source {
	return &Source{
		rng:        rand.New(rand.NewSource(rngSeed)),
		policy:     policy,
		volatility: volatility,
		maxPerPull: 3,
	}
}

// GetSignals 返回 0 到 maxPerPull 条随机信号
func (s *Source) GetSignals(_ context.Context) ([]signal.TradeSignal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.rng.Intn(s.maxPerPull + 1)
	sigs := make([]signal.TradeSignal, 0, n)
	for i := 0; i < n; i++ {
		// 手数对齐 25 的倍数，贴近指数期权合约乘数
		lots := (s.rng.Intn(20) + 1) * 25
		sigs = append(sigs, signal.TradeSignal{
			Symbol:     symbols[s.rng.Intn(len(symbols))],
			Side:       sides[s.rng.Intn(len(sides))],
			Quantity:   decimal.NewFromInt(int64(lots)),
			Confidence: 0.30 + s.rng.Float64()*0.65,
			Rationale:  "simulated momentum signal",
		})
	}
	return sigs, nil
}

// GetAdaptiveCapacity 基于当前波动率与置信度给出容量决策
func (s *Source) GetAdaptiveCapacity(ctx context.Context, currentTrades int, avgConfidence, marketVolatility float64) (*signal.AdaptiveCapacityInfo, error) {
	vol := marketVolatility
	if vol <= 0 && s.volatility != nil {
		vol = s.volatility(ctx)
	}
	return s.policy.Capacity(currentTrades, avgConfidence, vol), nil
}
