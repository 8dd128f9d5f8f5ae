package domain

import (
	"github.com/shopspring/decimal"
)

// closeTolerance 平仓容差，吸收小数舍入残留
var closeTolerance = decimal.NewFromFloat(0.01)

// Position 持仓
// 每个标的一条记录；数量带符号，正为多头，负为空头
type Position struct {
	UserID string `json:"user_id"`
	Symbol string `json:"symbol"`
	// 带符号数量
	Quantity decimal.Decimal `json:"quantity"`
	// 加权平均成本
	AveragePrice decimal.Decimal `json:"average_price"`
	// 最新标记价
	CurrentPrice decimal.Decimal `json:"current_price"`
}

// NewPosition 创建空持仓
func NewPosition(userID, symbol string) *Position {
	return &Position{
		UserID:       userID,
		Symbol:       symbol,
		Quantity:     decimal.Zero,
		AveragePrice: decimal.Zero,
	}
}

// ApplyFill 将一笔成交并入持仓，返回实现盈亏
// 同向加仓按加权平均重算成本；反向成交先按
// (成交价 − 均价) × min(旧仓, 成交量) 结算盈亏，穿仓后以成交价重建均价
func (p *Position) ApplyFill(side OrderSide, quantity, price decimal.Decimal) decimal.Decimal {
	signedQty := quantity
	if side == OrderSideSell {
		signedQty = quantity.Neg()
	}

	// 开新仓或同向加仓
	if p.Quantity.IsZero() || p.Quantity.Sign() == signedQty.Sign() {
		oldAbs := p.Quantity.Abs()
		newAbs := oldAbs.Add(quantity)
		totalCost := oldAbs.Mul(p.AveragePrice).Add(quantity.Mul(price))
		p.AveragePrice = totalCost.Div(newAbs)
		p.Quantity = p.Quantity.Add(signedQty)
		p.CurrentPrice = price
		return decimal.Zero
	}

	// 减仓 / 反手
	closing := decimal.Min(p.Quantity.Abs(), quantity)
	var realized decimal.Decimal
	if p.Quantity.Sign() > 0 {
		realized = price.Sub(p.AveragePrice).Mul(closing)
	} else {
		realized = p.AveragePrice.Sub(price).Mul(closing)
	}

	newQty := p.Quantity.Add(signedQty)
	if newQty.Sign() != 0 && newQty.Sign() != p.Quantity.Sign() {
		// 反手：剩余数量以成交价为新成本
		p.AveragePrice = price
	}
	p.Quantity = newQty
	p.CurrentPrice = price
	if p.IsFlat() {
		p.Quantity = decimal.Zero
		p.AveragePrice = decimal.Zero
	}
	return realized
}

// MarkPrice 更新标记价
func (p *Position) MarkPrice(price decimal.Decimal) {
	p.CurrentPrice = price
}

// UnrealizedPnL 未实现盈亏，按带符号数量计算
func (p *Position) UnrealizedPnL() decimal.Decimal {
	return p.CurrentPrice.Sub(p.AveragePrice).Mul(p.Quantity)
}

// MarketValue 持仓市值（绝对值）
func (p *Position) MarketValue() decimal.Decimal {
	return p.Quantity.Abs().Mul(p.CurrentPrice)
}

// IsFlat 数量是否已落在平仓容差内
func (p *Position) IsFlat() bool {
	return p.Quantity.Abs().LessThanOrEqual(closeTolerance)
}

// Clone 深拷贝
func (p *Position) Clone() *Position {
	cp := *p
	return &cp
}
