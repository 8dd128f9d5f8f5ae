// Package marketdata 提供执行适配器消费的报价源契约与实现
package marketdata

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrPriceUnavailable 报价不可得
var ErrPriceUnavailable = errors.New("price unavailable")

// Quote 单个标的的报价
type Quote struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
	// 是否来自降级缓存而非实时来源
	Degraded bool `json:"degraded"`
}

// PriceSource 报价源
type PriceSource interface {
	Quote(ctx context.Context, symbol string) (Quote, error)
}
