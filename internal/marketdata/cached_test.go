package marketdata

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
)

// flakySource 可开关的上游报价源
type flakySource struct {
	price decimal.Decimal
	down  bool
}

func (f *flakySource) Quote(_ context.Context, symbol string) (Quote, error) {
	if f.down {
		return Quote{}, ErrPriceUnavailable
	}
	return Quote{Symbol: symbol, Price: f.price}, nil
}

func TestCachedSourceFallsBackWhenUpstreamDown(t *testing.T) {
	upstream := &flakySource{price: decimal.NewFromInt(250)}
	source := NewCachedSource(upstream)
	ctx := context.Background()

	q, err := source.Quote(ctx, "NIFTY50")
	if err != nil {
		t.Fatal(err)
	}
	if q.Degraded {
		t.Error("live quote should not be degraded")
	}

	upstream.down = true
	q, err = source.Quote(ctx, "NIFTY50")
	if err != nil {
		t.Fatalf("cached fallback should succeed: %v", err)
	}
	if !q.Degraded {
		t.Error("fallback quote must be marked degraded")
	}
	if !q.Price.Equal(decimal.NewFromInt(250)) {
		t.Errorf("fallback price = %s, want last good 250", q.Price)
	}
}

func TestCachedSourceRefusesUnknownSymbol(t *testing.T) {
	upstream := &flakySource{price: decimal.NewFromInt(250), down: true}
	source := NewCachedSource(upstream)

	if _, err := source.Quote(context.Background(), "NEVER-SEEN"); err == nil {
		t.Error("never-quoted symbol must not be served from cache")
	}
}

func TestSimulatedSourceWalkIsBounded(t *testing.T) {
	source := NewSimulatedSource(map[string]decimal.Decimal{"NIFTY50": decimal.NewFromInt(10000)}, 42)
	ctx := context.Background()

	last := decimal.NewFromInt(10000)
	for i := 0; i < 100; i++ {
		q, err := source.Quote(ctx, "NIFTY50")
		if err != nil {
			t.Fatal(err)
		}
		step := q.Price.Sub(last).Abs().Div(last)
		if step.GreaterThan(decimal.NewFromFloat(0.0021)) {
			t.Fatalf("step %d moved %s, beyond the walk bound", i, step)
		}
		if !q.Price.IsPositive() {
			t.Fatal("price must stay positive")
		}
		last = q.Price
	}

	if _, err := source.Quote(ctx, "UNKNOWN"); err == nil {
		t.Error("unknown symbol should have no quote")
	}
}
