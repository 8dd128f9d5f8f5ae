package application

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/indexoptions/internal/audit"
	compliance "github.com/wyfcoding/indexoptions/internal/compliance/domain"
	execution "github.com/wyfcoding/indexoptions/internal/execution/application"
	ledger "github.com/wyfcoding/indexoptions/internal/ledger/domain"
	"github.com/wyfcoding/indexoptions/internal/marketdata"
	riskdomain "github.com/wyfcoding/indexoptions/internal/risk/domain"
	"github.com/wyfcoding/indexoptions/internal/scheduler/domain"
	"github.com/wyfcoding/indexoptions/internal/signal"
	"github.com/wyfcoding/indexoptions/pkg/metrics"
)

type stubSource struct {
	signals []signal.TradeSignal
}

func (s stubSource) GetSignals(context.Context) ([]signal.TradeSignal, error) {
	return s.signals, nil
}

type stubPrices struct{}

func (stubPrices) Quote(_ context.Context, symbol string) (marketdata.Quote, error) {
	return marketdata.Quote{Symbol: symbol, Price: decimal.NewFromInt(100)}, nil
}

type allowAllKYC struct{}

func (allowAllKYC) IsVerified(context.Context, string) bool { return true }

func newTestScheduler(t *testing.T, source signal.Source) *CycleScheduler {
	t.Helper()
	account := ledger.NewAccount("U1", ledger.CategoryRestricted, decimal.NewFromInt(1000000))
	adapter := execution.NewSimulatedAdapter(account, stubPrices{})
	riskGate := riskdomain.NewGate(riskdomain.GateConfig{
		MaxDailyLoss:     decimal.NewFromInt(50000),
		MaxOpenTrades:    10,
		MaxPositionValue: decimal.NewFromInt(100000),
		ExceedFactor:     1.2,
	})
	pipeline := execution.NewPipeline(
		compliance.NewGate(allowAllKYC{}),
		compliance.NewSplitter(),
		riskdomain.NewLeverageGate(),
		riskGate,
		adapter,
		stubPrices{},
		audit.NoopRecorder{},
		nil,
		metrics.New("scheduler_test"),
	)
	return NewCycleScheduler(
		Config{
			CycleInterval:       100 * time.Millisecond,
			SignalPhase:         10 * time.Millisecond,
			WindowLength:        30 * time.Millisecond,
			Windows:             3,
			CyclesPerSession:    25,
			DefaultDailyCeiling: 90,
			FaultBackoff:        10 * time.Millisecond,
		},
		source,
		pipeline,
		adapter,
		riskGate,
		nil,
		metrics.New("scheduler_test"),
		nil,
	)
}

func TestEmptyCycleTraversesAllPhases(t *testing.T) {
	s := newTestScheduler(t, stubSource{})

	cycle := domain.NewCycle(time.Now(), s.cfg.CycleInterval)
	if err := s.runCycle(context.Background(), cycle); err != nil {
		t.Fatal(err)
	}

	if cycle.Phase != domain.PhaseComplete {
		t.Errorf("phase = %s, want COMPLETE", cycle.Phase)
	}
	if cycle.ExecutedCount != 0 || cycle.RejectedCount != 0 {
		t.Errorf("empty cycle counts = %d/%d, want 0/0", cycle.ExecutedCount, cycle.RejectedCount)
	}
	if cycle.EndTime.IsZero() {
		t.Error("completed cycle should record its end time")
	}

	history := s.History()
	if len(history) != 1 {
		t.Fatalf("history = %d entries, want 1", len(history))
	}
	if history[0].CycleID != cycle.CycleID {
		t.Error("history should contain the completed cycle")
	}
}

func TestCycleExecutesSignals(t *testing.T) {
	source := stubSource{signals: []signal.TradeSignal{
		{Symbol: "NIFTY50", Side: "BUY", Quantity: decimal.NewFromInt(100), Confidence: 0.7},
		{Symbol: "NIFTY50", Side: "SELL", Quantity: decimal.NewFromInt(100), Confidence: 0.7},
	}}
	s := newTestScheduler(t, source)

	cycle := domain.NewCycle(time.Now(), s.cfg.CycleInterval)
	if err := s.runCycle(context.Background(), cycle); err != nil {
		t.Fatal(err)
	}

	if cycle.ExecutedCount != 2 {
		t.Errorf("executed = %d, want 2 (rejected %d)", cycle.ExecutedCount, cycle.RejectedCount)
	}
	if len(cycle.Signals) != 2 {
		t.Errorf("cycle should store the pulled signal list, got %d", len(cycle.Signals))
	}
	if cycle.MaxTradesGuideline < 1 {
		t.Errorf("guideline = %d, want at least 1", cycle.MaxTradesGuideline)
	}
}

func TestInterruptedCycleRecordedAsAborted(t *testing.T) {
	s := newTestScheduler(t, stubSource{})
	// 第一个窗口开始前就触发停止
	close(s.stop)

	cycle := domain.NewCycle(s.now().Add(50*time.Millisecond), s.cfg.CycleInterval)
	if err := s.runCycle(context.Background(), cycle); err != nil {
		t.Fatal(err)
	}

	if cycle.Phase != domain.PhaseAborted {
		t.Errorf("phase = %s, want %s", cycle.Phase, domain.PhaseAborted)
	}
	if cycle.EndTime.IsZero() {
		t.Error("aborted cycle should record its end time")
	}

	history := s.History()
	if len(history) != 1 || history[0].Phase != domain.PhaseAborted {
		t.Fatalf("history should contain the aborted cycle, got %d entries", len(history))
	}
}

func TestGuidelineDerivedFromDailyCeiling(t *testing.T) {
	s := newTestScheduler(t, stubSource{})

	// 兜底上限 90 / 25 周期 = 3
	if got := s.cycleGuideline(nil); got != 3 {
		t.Errorf("guideline = %d, want 3", got)
	}

	info := &signal.AdaptiveCapacityInfo{AdaptiveMax: 216}
	if got := s.cycleGuideline(info); got != 8 {
		t.Errorf("adaptive guideline = %d, want 8", got)
	}

	// 永不低于 1
	if got := s.cycleGuideline(&signal.AdaptiveCapacityInfo{AdaptiveMax: 10}); got != 1 {
		t.Errorf("small ceiling guideline = %d, want 1", got)
	}
}

func TestSchedulerStopIsCooperative(t *testing.T) {
	s := newTestScheduler(t, stubSource{})

	s.Start(context.Background())
	time.Sleep(150 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop() did not return after the in-flight cycle finished")
	}
}

func TestNextBoundaryAlignment(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 17, 30, 0, time.UTC)
	got := nextBoundary(base, 15*time.Minute)
	want := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("nextBoundary = %s, want %s", got, want)
	}

	// 正好落在边界上时取下一个边界
	onBoundary := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	got = nextBoundary(onBoundary, 15*time.Minute)
	want = time.Date(2026, 3, 10, 9, 45, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("nextBoundary on boundary = %s, want %s", got, want)
	}
}
