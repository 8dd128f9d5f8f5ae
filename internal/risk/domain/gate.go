package domain

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/indexoptions/internal/signal"
	"github.com/wyfcoding/pkg/logging"
)

// 规则名常量
const (
	RuleSignalInvalid   = "SIGNAL_INVALID"
	RuleDailyLossStop   = "DAILY_LOSS_STOP"
	RuleAdaptiveDefer   = "ADAPTIVE_CAPACITY_EXHAUSTED"
	RuleOpenTradeCap    = "OPEN_TRADE_CAP"
	RuleExposureCeiling = "POSITION_EXPOSURE_CEILING"
)

// Decision 准入决策
// 显式结果类型：任何门都不能被 try/catch 方式跳过
type Decision struct {
	Allowed bool `json:"allowed"`
	// 软拒绝：容量耗尽时延后而非终结
	Deferred bool   `json:"deferred"`
	RuleName string `json:"rule_name,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(rule, reason string) Decision {
	return Decision{Allowed: false, RuleName: rule, Reason: reason}
}

func deferred(rule, reason string) Decision {
	return Decision{Allowed: false, Deferred: true, RuleName: rule, Reason: reason}
}

// ExposureSnapshot 标的 → 当前持仓市值，由执行适配器在锁内拷贝生成
type ExposureSnapshot map[string]decimal.Decimal

// GateConfig 准入状态机配置
type GateConfig struct {
	// 当日最大亏损，触发后当日一律拒绝，不可越权
	MaxDailyLoss decimal.Decimal
	// 基础同时持仓笔数上限
	MaxOpenTrades int
	// 单一标的持仓市值上限
	MaxPositionValue decimal.Decimal
	// 自适应越权时的上限放大系数
	ExceedFactor float64
}

// Gate 风控准入状态机（按账户一实例）
// 每日状态在本地日历日切换时惰性重置，不依赖后台定时器，
// 进程跨午夜空闲也不会漏掉重置
type Gate struct {
	mu  sync.Mutex
	cfg GateConfig

	openTrades  int
	dailyPnL    decimal.Decimal
	dailyTrades int
	lastReset   time.Time

	now func() time.Time
}

// GateStats 状态快照，用于统计接口
type GateStats struct {
	OpenTrades  int             `json:"open_trades"`
	DailyPnL    decimal.Decimal `json:"daily_pnl"`
	DailyTrades int             `json:"daily_trades"`
	LastReset   time.Time       `json:"last_reset"`
}

// NewGate 创建风控门禁
func NewGate(cfg GateConfig) *Gate {
	if cfg.ExceedFactor <= 0 {
		cfg.ExceedFactor = 1.2
	}
	g := &Gate{cfg: cfg, now: time.Now}
	g.lastReset = g.today()
	return g
}

// IsAllowed 执行准入判定，检查顺序固定：
// 信号合法性 → 当日亏损熔断（硬停，不可越权）→ 自适应容量（软拒绝）
// → 持仓笔数上限（可被 ShouldExceed 放大）→ 单标的敞口上限
func (g *Gate) IsAllowed(ctx context.Context, sig signal.TradeSignal, exposure ExposureSnapshot, adaptive *signal.AdaptiveCapacityInfo) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resetIfNewDay(ctx)

	if sig.Symbol == "" || !sig.Quantity.IsPositive() {
		return deny(RuleSignalInvalid, "signal has empty symbol or non-positive quantity")
	}

	if g.dailyPnL.LessThanOrEqual(g.cfg.MaxDailyLoss.Neg()) {
		return deny(RuleDailyLossStop,
			fmt.Sprintf("daily loss %s breached kill switch %s", g.dailyPnL, g.cfg.MaxDailyLoss.Neg()))
	}

	if adaptive != nil && adaptive.RemainingCapacity <= 0 {
		reason := adaptive.Reason
		if reason == "" {
			reason = "adaptive capacity exhausted"
		}
		return deferred(RuleAdaptiveDefer, reason)
	}

	ceiling := g.cfg.MaxOpenTrades
	if adaptive != nil && adaptive.ShouldExceed {
		ceiling = int(math.Round(float64(ceiling) * g.cfg.ExceedFactor))
	}
	if g.openTrades >= ceiling {
		return deny(RuleOpenTradeCap,
			fmt.Sprintf("open trades %d at effective ceiling %d", g.openTrades, ceiling))
	}

	if exposure != nil {
		if value, ok := exposure[sig.Symbol]; ok && value.GreaterThanOrEqual(g.cfg.MaxPositionValue) {
			return deny(RuleExposureCeiling,
				fmt.Sprintf("symbol %s exposure %s at ceiling %s", sig.Symbol, value, g.cfg.MaxPositionValue))
		}
	}

	return allow()
}

// OnOrderPlaced 订单成交后计入持仓笔数与当日笔数
func (g *Gate) OnOrderPlaced() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resetIfNewDay(context.Background())
	g.openTrades++
	g.dailyTrades++
}

// OnOrderClosed 持仓了结，回收笔数并累计实现盈亏
func (g *Gate) OnOrderClosed(realizedPnL decimal.Decimal) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resetIfNewDay(context.Background())
	if g.openTrades > 0 {
		g.openTrades--
	}
	g.dailyPnL = g.dailyPnL.Add(realizedPnL)
}

// RecordPnL 累计实现盈亏（未了结持仓的部分平仓）
func (g *Gate) RecordPnL(realizedPnL decimal.Decimal) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resetIfNewDay(context.Background())
	g.dailyPnL = g.dailyPnL.Add(realizedPnL)
}

// Stats 返回状态快照
func (g *Gate) Stats() GateStats {
	g.mu.Lock()
	defer g.mu.Unlock()
	return GateStats{
		OpenTrades:  g.openTrades,
		DailyPnL:    g.dailyPnL,
		DailyTrades: g.dailyTrades,
		LastReset:   g.lastReset,
	}
}

func (g *Gate) today() time.Time {
	y, m, d := g.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

// resetIfNewDay 惰性日切：调用方持锁
func (g *Gate) resetIfNewDay(ctx context.Context) {
	today := g.today()
	if !today.After(g.lastReset) {
		return
	}
	logging.Info(ctx, "risk gate daily reset",
		"previous_day", g.lastReset.Format("2006-01-02"),
		"daily_pnl", g.dailyPnL.String(),
		"daily_trades", g.dailyTrades,
	)
	g.openTrades = 0
	g.dailyPnL = decimal.Zero
	g.dailyTrades = 0
	g.lastReset = today
}
