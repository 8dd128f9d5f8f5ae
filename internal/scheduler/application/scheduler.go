// Package application 周期调度应用层
package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	execution "github.com/wyfcoding/indexoptions/internal/execution/application"
	ledger "github.com/wyfcoding/indexoptions/internal/ledger/domain"
	riskdomain "github.com/wyfcoding/indexoptions/internal/risk/domain"
	"github.com/wyfcoding/indexoptions/internal/scheduler/domain"
	"github.com/wyfcoding/indexoptions/internal/signal"
	"github.com/wyfcoding/indexoptions/pkg/metrics"
	"github.com/wyfcoding/pkg/logging"
)

// Config 调度器配置
type Config struct {
	// 周期长度（15 分钟边界对齐）
	CycleInterval time.Duration
	// 信号拉取阶段长度
	SignalPhase time.Duration
	// 执行窗口长度（末窗被周期末尾截短）
	WindowLength time.Duration
	// 执行窗口数量
	Windows int
	// 每交易日周期数，用于把日配额折算到单周期
	CyclesPerSession int
	// 无自适应决策时的每日兜底上限
	DefaultDailyCeiling int
	// 周期故障后的退避
	FaultBackoff time.Duration
}

// CycleArchiver 周期归档，可为 nil（不归档）
type CycleArchiver interface {
	ArchiveCycle(ctx context.Context, cycle *domain.TradingCycle) error
}

// CycleScheduler 周期调度器
// 单个受监督的后台循环：周期起点严格对齐 15 分钟墙钟边界，
// 延迟的周期不会让全局节奏漂移；周期内全部准入调用串行执行
type CycleScheduler struct {
	cfg      Config
	source   signal.Source
	pipeline *execution.Pipeline
	adapter  *execution.SimulatedExecutionAdapter
	risk     *riskdomain.Gate
	archiver CycleArchiver
	metrics  *metrics.Metrics

	// 市场波动率来源，驱动自适应容量入参；nil 时不请求自适应决策
	volatility func(ctx context.Context) float64

	mu      sync.Mutex
	history []*domain.TradingCycle

	stop chan struct{}
	done chan struct{}
	once sync.Once

	now func() time.Time
}

// NewCycleScheduler 构造函数
func NewCycleScheduler(
	cfg Config,
	source signal.Source,
	pipeline *execution.Pipeline,
	adapter *execution.SimulatedExecutionAdapter,
	riskGate *riskdomain.Gate,
	archiver CycleArchiver,
	m *metrics.Metrics,
	volatility func(ctx context.Context) float64,
) *CycleScheduler {
	if cfg.Windows <= 0 {
		cfg.Windows = 3
	}
	if cfg.CyclesPerSession <= 0 {
		cfg.CyclesPerSession = 25
	}
	if cfg.DefaultDailyCeiling <= 0 {
		cfg.DefaultDailyCeiling = 90
	}
	return &CycleScheduler{
		cfg:        cfg,
		source:     source,
		pipeline:   pipeline,
		adapter:    adapter,
		risk:       riskGate,
		archiver:   archiver,
		metrics:    m,
		volatility: volatility,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		now:        time.Now,
	}
}

// Start 启动后台循环
func (s *CycleScheduler) Start(ctx context.Context) {
	go s.run(ctx)
}

// Stop 协作式停止：在途周期跑完当前窗口后退出
func (s *CycleScheduler) Stop() {
	s.once.Do(func() { close(s.stop) })
	<-s.done
}

// History 周期历史快照（只增，深拷贝）
func (s *CycleScheduler) History() []*domain.TradingCycle {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.TradingCycle, 0, len(s.history))
	for _, c := range s.history {
		out = append(out, c.Clone())
	}
	return out
}

func (s *CycleScheduler) run(ctx context.Context) {
	defer close(s.done)
	logging.Info(ctx, "cycle scheduler started",
		"cycle_interval", s.cfg.CycleInterval,
		"windows", s.cfg.Windows,
	)

	for {
		boundary := nextBoundary(s.now(), s.cfg.CycleInterval)
		if !s.waitUntil(ctx, boundary) {
			logging.Info(ctx, "cycle scheduler stopped")
			return
		}

		cycle := domain.NewCycle(boundary, s.cfg.CycleInterval)
		if err := s.runCycle(ctx, cycle); err != nil {
			// 单周期故障不终止循环：记录后退避再继续
			logging.Error(ctx, "trading cycle failed", "cycle_id", cycle.CycleID, "error", err)
			if !s.waitFor(ctx, s.cfg.FaultBackoff) {
				return
			}
		}

		select {
		case <-s.stop:
			logging.Info(ctx, "cycle scheduler stopped")
			return
		case <-ctx.Done():
			return
		default:
		}
	}
}

// runCycle 执行一个完整周期；阶段推进与空窗口无关，
// 没有信号的周期同样走完全部阶段并进入历史
func (s *CycleScheduler) runCycle(ctx context.Context, cycle *domain.TradingCycle) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cycle panicked: %v", r)
		}
	}()

	// SIGNAL_GEN：信号只拉取一次，原样存到周期上
	sigs, sigErr := s.source.GetSignals(ctx)
	if sigErr != nil {
		logging.Warn(ctx, "signal pull failed, running empty cycle",
			"cycle_id", cycle.CycleID, "error", sigErr)
		sigs = nil
	}
	cycle.Signals = sigs

	adaptive := s.fetchAdaptive(ctx, sigs)
	cycle.MaxTradesGuideline = s.cycleGuideline(adaptive)
	windowBudget := (cycle.MaxTradesGuideline + s.cfg.Windows - 1) / s.cfg.Windows

	logging.Info(ctx, "trading cycle started",
		"cycle_id", cycle.CycleID,
		"signals", len(sigs),
		"guideline", cycle.MaxTradesGuideline,
	)

	queue := sigs
	aborted := false
	for w := 1; w <= s.cfg.Windows; w++ {
		cycle.SetPhase(domain.WindowPhase(w))

		windowStart := cycle.StartTime.Add(s.cfg.SignalPhase + time.Duration(w-1)*s.cfg.WindowLength)
		windowEnd := windowStart.Add(s.cfg.WindowLength)
		if cycleEnd := cycle.StartTime.Add(s.cfg.CycleInterval); windowEnd.After(cycleEnd) {
			windowEnd = cycleEnd
		}
		if !s.waitUntil(ctx, windowStart) {
			aborted = true
			break
		}

		// 预算只属于本窗口，剩余不结转
		budget := windowBudget
		for len(queue) > 0 && budget > 0 && s.now().Before(windowEnd) {
			sig := queue[0]
			queue = queue[1:]

			orders, execErr := s.pipeline.ExecuteSignal(ctx, sig, adaptive)
			if execErr != nil {
				logging.Warn(ctx, "signal dropped at validation boundary",
					"cycle_id", cycle.CycleID, "symbol", sig.Symbol, "error", execErr)
				continue
			}
			for _, o := range orders {
				if o.Status == ledger.OrderStatusFilled {
					cycle.ExecutedCount++
					budget--
				} else {
					cycle.RejectedCount++
				}
			}
		}

		if !s.waitUntil(ctx, windowEnd) {
			aborted = true
			break
		}
	}

	// 被打断的周期以 ABORTED 入历史，不冒充完成
	if aborted {
		cycle.Abort(s.now())
	} else {
		cycle.Complete(s.now())
	}
	s.adapter.MarkToMarket(ctx)

	s.mu.Lock()
	s.history = append(s.history, cycle)
	s.mu.Unlock()

	if !aborted {
		s.metrics.CyclesCompleted.Inc()
	}
	s.metrics.CycleExecutions.Observe(float64(cycle.ExecutedCount))

	if s.archiver != nil {
		if archiveErr := s.archiver.ArchiveCycle(ctx, cycle); archiveErr != nil {
			logging.Error(ctx, "cycle archive failed", "cycle_id", cycle.CycleID, "error", archiveErr)
		}
	}

	logging.Info(ctx, "trading cycle finished",
		"cycle_id", cycle.CycleID,
		"phase", string(cycle.Phase),
		"executed", cycle.ExecutedCount,
		"rejected", cycle.RejectedCount,
	)
	return nil
}

// fetchAdaptive 请求自适应容量决策；来源不支持或出错时返回 nil
func (s *CycleScheduler) fetchAdaptive(ctx context.Context, sigs []signal.TradeSignal) *signal.AdaptiveCapacityInfo {
	adaptiveSource, ok := s.source.(signal.AdaptiveSource)
	if !ok || s.volatility == nil {
		return nil
	}

	avgConfidence := 0.0
	if len(sigs) > 0 {
		for _, sig := range sigs {
			avgConfidence += sig.Confidence
		}
		avgConfidence /= float64(len(sigs))
	}

	info, err := adaptiveSource.GetAdaptiveCapacity(ctx, s.risk.Stats().DailyTrades, avgConfidence, s.volatility(ctx))
	if err != nil {
		logging.Warn(ctx, "adaptive capacity unavailable", "error", err)
		return nil
	}
	return info
}

// cycleGuideline 把每日上限折算到单个周期
func (s *CycleScheduler) cycleGuideline(adaptive *signal.AdaptiveCapacityInfo) int {
	daily := s.cfg.DefaultDailyCeiling
	if adaptive != nil {
		daily = adaptive.AdaptiveMax
	}
	guideline := daily / s.cfg.CyclesPerSession
	if guideline < 1 {
		guideline = 1
	}
	return guideline
}

// waitUntil 等待到指定时刻；停止或上下文取消返回 false
func (s *CycleScheduler) waitUntil(ctx context.Context, t time.Time) bool {
	d := t.Sub(s.now())
	if d <= 0 {
		return true
	}
	return s.waitFor(ctx, d)
}

func (s *CycleScheduler) waitFor(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-s.stop:
		return false
	case <-ctx.Done():
		return false
	}
}

// nextBoundary 下一个周期边界：按墙钟对齐而非累计流逝时间
func nextBoundary(t time.Time, interval time.Duration) time.Time {
	return t.Truncate(interval).Add(interval)
}
