package marketdata

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/shopspring/decimal"
)

// SimulatedSource 模拟报价源：以种子价为中心做有界随机游走
type SimulatedSource struct {
	mu     sync.Mutex
	prices map[string]decimal.Decimal
	rng    *rand.Rand
	// 单次游走的最大相对振幅，如 0.002 表示 ±0.2%
	maxStep float64
}

// NewSimulatedSource 创建模拟报价源
func NewSimulatedSource(seeds map[string]decimal.Decimal, rngSeed int64) *SimulatedSource {
	prices := make(map[string]decimal.Decimal, len(seeds))
	for sym, p := range seeds {
		prices[sym] = p
	}
	return &SimulatedSource{
		prices:  prices,
		rng:     rand.New(rand.NewSource(rngSeed)),
		maxStep: 0.002,
	}
}

// Quote 返回下一个游走价；未知标的报价不可得
func (s *SimulatedSource) Quote(_ context.Context, symbol string) (Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	last, ok := s.prices[symbol]
	if !ok {
		return Quote{}, fmt.Errorf("%w: %s", ErrPriceUnavailable, symbol)
	}

	step := (s.rng.Float64()*2 - 1) * s.maxStep
	next := last.Mul(decimal.NewFromFloat(1 + step)).Round(2)
	if !next.IsPositive() {
		next = last
	}
	s.prices[symbol] = next
	return Quote{Symbol: symbol, Price: next}, nil
}
