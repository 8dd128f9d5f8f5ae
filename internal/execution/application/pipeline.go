package application

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/indexoptions/internal/audit"
	compliance "github.com/wyfcoding/indexoptions/internal/compliance/domain"
	ledger "github.com/wyfcoding/indexoptions/internal/ledger/domain"
	"github.com/wyfcoding/indexoptions/internal/marketdata"
	riskdomain "github.com/wyfcoding/indexoptions/internal/risk/domain"
	"github.com/wyfcoding/indexoptions/internal/signal"
	"github.com/wyfcoding/indexoptions/pkg/metrics"
	"github.com/wyfcoding/pkg/logging"
)

// OrderArchiver 终态订单归档，失败不影响执行结论
type OrderArchiver interface {
	ArchiveOrder(ctx context.Context, order *ledger.Order) error
}

// Pipeline 准入流水线：合规 → 拆单 → 杠杆 → 风控 → 模拟成交
// 每一道门返回显式结果，结构上不存在绕过某道门的路径；
// 任何非通过都携带规则名与原因，从不静默丢弃
type Pipeline struct {
	compliance *compliance.Gate
	splitter   *compliance.Splitter
	leverage   *riskdomain.LeverageGate
	risk       *riskdomain.Gate
	adapter    *SimulatedExecutionAdapter
	prices     marketdata.PriceSource
	recorder   audit.Recorder
	archiver   OrderArchiver
	metrics    *metrics.Metrics
}

// NewPipeline 构造函数，全部协作方显式注入；archiver 可为 nil
func NewPipeline(
	complianceGate *compliance.Gate,
	splitter *compliance.Splitter,
	leverageGate *riskdomain.LeverageGate,
	riskGate *riskdomain.Gate,
	adapter *SimulatedExecutionAdapter,
	prices marketdata.PriceSource,
	recorder audit.Recorder,
	archiver OrderArchiver,
	m *metrics.Metrics,
) *Pipeline {
	return &Pipeline{
		compliance: complianceGate,
		splitter:   splitter,
		leverage:   leverageGate,
		risk:       riskGate,
		adapter:    adapter,
		prices:     prices,
		recorder:   recorder,
		archiver:   archiver,
		metrics:    m,
	}
}

// ExecuteSignal 将一条外部信号走完整条准入流水线
// 返回本次产生的全部订单（含被拒绝的），订单状态即执行结论；
// error 只用于边界校验失败（信号非法，未触达账本）
func (p *Pipeline) ExecuteSignal(ctx context.Context, sig signal.TradeSignal, adaptive *signal.AdaptiveCapacityInfo) ([]*ledger.Order, error) {
	account := p.adapter.Account()

	side := ledger.OrderSide(sig.Side)
	symbol := compliance.NormalizeSymbol(sig.Symbol)
	order, err := ledger.NewOrder(account.UserID, symbol, side, ledger.OrderTypeMarket, sig.Quantity, decimal.Zero, "")
	if err != nil {
		return nil, fmt.Errorf("invalid trade signal: %w", err)
	}

	// 合规与杠杆都需要订单价值，报价不可得视为资源拒绝
	quote, err := p.prices.Quote(ctx, symbol)
	if err != nil {
		_ = order.Reject(RulePriceUnavailable, err.Error())
		p.recordRejection(ctx, order)
		return []*ledger.Order{order}, nil
	}
	orderValue := order.NotionalValue(quote.Price)

	check := p.compliance.Check(ctx, account.UserID, sig.Symbol, sig.Quantity, orderValue, account.Category)
	p.recorder.Record(ctx, audit.NewEvent(audit.EventComplianceDecision, account.UserID, order.OrderID, map[string]string{
		"status": string(check.Status),
		"rule":   check.RuleName,
	}))
	if !check.IsApproved() {
		_ = order.Reject(check.RuleName, check.Message)
		p.recordRejection(ctx, order)
		return []*ledger.Order{order}, nil
	}

	split := p.splitter.SplitIfNeeded(ctx, order)
	if split.SplitCount > 1 {
		p.metrics.OrdersSplit.Inc()
	}

	out := make([]*ledger.Order, 0, split.SplitCount)
	for _, child := range split.Children {
		p.executeChild(ctx, child, sig, adaptive, account.Category, quote.Price)
		out = append(out, child)
	}
	return out, nil
}

// executeChild 单个子单走杠杆、风控与成交
func (p *Pipeline) executeChild(ctx context.Context, child *ledger.Order, sig signal.TradeSignal, adaptive *signal.AdaptiveCapacityInfo, category ledger.Category, refPrice decimal.Decimal) {
	childValue := child.NotionalValue(refPrice)
	projected := p.adapter.TotalExposure().Add(childValue)
	capital := p.adapter.Balance()
	if ok, msg := p.leverage.Validate(projected, capital, category); !ok {
		_ = child.Reject(riskdomain.RuleLeverageCeiling, msg)
		p.recordRejection(ctx, child)
		return
	}

	childSignal := signal.TradeSignal{
		Symbol:     child.Symbol,
		Side:       string(child.Side),
		Quantity:   child.Quantity,
		Confidence: sig.Confidence,
	}
	decision := p.risk.IsAllowed(ctx, childSignal, p.adapter.Exposure(), adaptive)
	p.recorder.Record(ctx, audit.NewEvent(audit.EventRiskDecision, child.UserID, child.OrderID, map[string]string{
		"allowed":  fmt.Sprintf("%t", decision.Allowed),
		"deferred": fmt.Sprintf("%t", decision.Deferred),
		"rule":     decision.RuleName,
	}))
	if !decision.Allowed {
		if decision.Deferred {
			p.metrics.RiskDeferred.Inc()
		}
		_ = child.Reject(decision.RuleName, decision.Reason)
		p.recordRejection(ctx, child)
		return
	}

	p.metrics.OrdersSubmitted.Inc()
	result, err := p.adapter.Submit(ctx, child)
	if err != nil {
		logging.Error(ctx, "order submission failed", "order_id", child.OrderID, "error", err)
		return
	}

	switch result.Order.Status {
	case ledger.OrderStatusFilled:
		p.metrics.OrdersFilled.Inc()
		switch {
		case result.PositionClosed:
			p.risk.OnOrderClosed(result.RealizedPnL)
		case result.RealizedPnL.IsZero():
			// 开仓或加仓
			p.risk.OnOrderPlaced()
		default:
			// 部分减仓：持仓仍在，只累计盈亏
			p.risk.RecordPnL(result.RealizedPnL)
		}
		pnl, _ := p.risk.Stats().DailyPnL.Float64()
		p.metrics.DailyPnL.Set(pnl)
		p.recorder.Record(ctx, audit.NewEvent(audit.EventOrderFill, child.UserID, child.OrderID, map[string]string{
			"symbol":       child.Symbol,
			"side":         string(child.Side),
			"quantity":     child.Quantity.String(),
			"fill_price":   child.FillPrice.String(),
			"realized_pnl": result.RealizedPnL.String(),
		}))
		p.archiveOrder(ctx, child)
	case ledger.OrderStatusRejected:
		p.recordRejection(ctx, result.Order)
	}
}

func (p *Pipeline) recordRejection(ctx context.Context, order *ledger.Order) {
	p.metrics.OrdersRejected.WithLabelValues(order.RejectRule).Inc()
	logging.Warn(ctx, "order rejected",
		"order_id", order.OrderID,
		"symbol", order.Symbol,
		"rule", order.RejectRule,
		"reason", order.RejectReason,
	)
	p.archiveOrder(ctx, order)
}

// archiveOrder 终态订单尽力归档
func (p *Pipeline) archiveOrder(ctx context.Context, order *ledger.Order) {
	if p.archiver == nil {
		return
	}
	if err := p.archiver.ArchiveOrder(ctx, order); err != nil {
		logging.Warn(ctx, "order archival failed", "order_id", order.OrderID, "error", err)
	}
}
