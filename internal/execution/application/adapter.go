// Package application 执行上下文应用层：模拟成交适配器与准入流水线
package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	ledger "github.com/wyfcoding/indexoptions/internal/ledger/domain"
	"github.com/wyfcoding/indexoptions/internal/marketdata"
	riskdomain "github.com/wyfcoding/indexoptions/internal/risk/domain"
	"github.com/wyfcoding/pkg/idgen"
	"github.com/wyfcoding/pkg/logging"
)

// 适配器侧拒绝规则名
const (
	RulePriceUnavailable    = "PRICE_UNAVAILABLE"
	RuleInsufficientBalance = "INSUFFICIENT_BALANCE"
)

// 降级报价写入订单元数据的键
const MetaPriceSource = "price_source"

// SubmitResult 提交结果
type SubmitResult struct {
	Order *ledger.Order
	// 本次成交的实现盈亏
	RealizedPnL decimal.Decimal
	// 本次成交是否把持仓了结
	PositionClosed bool
}

// SimulatedExecutionAdapter 模拟成交适配器
// 账本（账户、持仓、订单）的唯一共享可变资源，全部读写在
// 单个实例级互斥锁内完成；对外返回的快照一律深拷贝
type SimulatedExecutionAdapter struct {
	mu sync.Mutex

	account   *ledger.Account
	positions map[string]*ledger.Position
	orders    map[string]*ledger.Order

	prices marketdata.PriceSource
}

// NewSimulatedAdapter 创建模拟成交适配器
func NewSimulatedAdapter(account *ledger.Account, prices marketdata.PriceSource) *SimulatedExecutionAdapter {
	return &SimulatedExecutionAdapter{
		account:   account,
		positions: make(map[string]*ledger.Position),
		orders:    make(map[string]*ledger.Order),
		prices:    prices,
	}
}

// Submit 提交订单并立即模拟成交
// 市价单按报价成交；限价单报价可成交时按限价成交，否则留在 NEW；
// 报价不可得或买入余额不足时整单拒绝，账本零变更（全有或全无）
func (a *SimulatedExecutionAdapter) Submit(ctx context.Context, order *ledger.Order) (SubmitResult, error) {
	if order.Status != ledger.OrderStatusNew {
		return SubmitResult{}, fmt.Errorf("%w: cannot submit order in status %s", ledger.ErrInvalidTransition, order.Status)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	quote, err := a.prices.Quote(ctx, order.Symbol)
	if err != nil {
		_ = order.Reject(RulePriceUnavailable, err.Error())
		a.orders[order.OrderID] = order.Clone()
		logging.Warn(ctx, "order rejected: no price",
			"order_id", order.OrderID, "symbol", order.Symbol, "error", err)
		return SubmitResult{Order: order}, nil
	}
	if quote.Degraded {
		order.Metadata[MetaPriceSource] = "degraded_cache"
	}

	fillPrice := quote.Price
	if order.Type == ledger.OrderTypeLimit {
		if !limitMarketable(order.Side, quote.Price, order.LimitPrice) {
			// 不可成交的限价单留在账本中等待
			a.orders[order.OrderID] = order.Clone()
			return SubmitResult{Order: order}, nil
		}
		fillPrice = order.LimitPrice
	}

	notional := order.Quantity.Mul(fillPrice)
	if order.Side == ledger.OrderSideBuy {
		if err := a.account.Debit(notional); err != nil {
			_ = order.Reject(RuleInsufficientBalance, err.Error())
			a.orders[order.OrderID] = order.Clone()
			logging.Warn(ctx, "order rejected: insufficient balance",
				"order_id", order.OrderID, "required", notional.String(), "balance", a.account.Balance.String())
			return SubmitResult{Order: order}, nil
		}
	} else {
		a.account.Credit(notional)
	}

	pos, ok := a.positions[order.Symbol]
	if !ok {
		pos = ledger.NewPosition(order.UserID, order.Symbol)
		a.positions[order.Symbol] = pos
	}
	realized := pos.ApplyFill(order.Side, order.Quantity, fillPrice)

	closed := false
	if pos.IsFlat() {
		delete(a.positions, order.Symbol)
		closed = true
	}

	order.AssignBroker(fmt.Sprintf("SIM-%d", idgen.GenID()))
	if err := order.Fill(fillPrice); err != nil {
		return SubmitResult{}, err
	}
	a.orders[order.OrderID] = order.Clone()

	logging.Info(ctx, "order filled",
		"order_id", order.OrderID,
		"symbol", order.Symbol,
		"side", order.Side,
		"quantity", order.Quantity.String(),
		"fill_price", fillPrice.String(),
		"realized_pnl", realized.String(),
	)
	return SubmitResult{Order: order, RealizedPnL: realized, PositionClosed: closed}, nil
}

// Cancel 取消订单；仅 NEW 状态可取消，其余一律返回 false
func (a *SimulatedExecutionAdapter) Cancel(orderID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	order, ok := a.orders[orderID]
	if !ok {
		return false
	}
	return order.Cancel()
}

// Positions 持仓快照（深拷贝）
func (a *SimulatedExecutionAdapter) Positions() []*ledger.Position {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*ledger.Position, 0, len(a.positions))
	for _, p := range a.positions {
		out = append(out, p.Clone())
	}
	return out
}

// Balance 当前余额
func (a *SimulatedExecutionAdapter) Balance() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.account.Balance
}

// Account 账户快照（深拷贝）
func (a *SimulatedExecutionAdapter) Account() *ledger.Account {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.account.Clone()
}

// Exposure 标的 → 持仓市值快照，供风控门禁消费
func (a *SimulatedExecutionAdapter) Exposure() riskdomain.ExposureSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	snapshot := make(riskdomain.ExposureSnapshot, len(a.positions))
	for sym, p := range a.positions {
		snapshot[sym] = p.MarketValue()
	}
	return snapshot
}

// TotalExposure 全部持仓市值之和
func (a *SimulatedExecutionAdapter) TotalExposure() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	total := decimal.Zero
	for _, p := range a.positions {
		total = total.Add(p.MarketValue())
	}
	return total
}

// Orders 订单快照（深拷贝）
func (a *SimulatedExecutionAdapter) Orders() []*ledger.Order {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*ledger.Order, 0, len(a.orders))
	for _, o := range a.orders {
		out = append(out, o.Clone())
	}
	return out
}

// MarkToMarket 以最新报价刷新全部持仓的标记价
// 报价失败的标的保留旧标记价
func (a *SimulatedExecutionAdapter) MarkToMarket(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for sym, p := range a.positions {
		quote, err := a.prices.Quote(ctx, sym)
		if err != nil {
			logging.Warn(ctx, "mark-to-market skipped", "symbol", sym, "error", err)
			continue
		}
		p.MarkPrice(quote.Price)
	}
}

// limitMarketable 限价单是否可按当前报价成交
func limitMarketable(side ledger.OrderSide, market, limit decimal.Decimal) bool {
	if side == ledger.OrderSideBuy {
		return market.LessThanOrEqual(limit)
	}
	return market.GreaterThanOrEqual(limit)
}
