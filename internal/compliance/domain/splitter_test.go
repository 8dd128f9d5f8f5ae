package domain

import (
	"context"
	"strconv"
	"testing"

	"github.com/shopspring/decimal"
	ledger "github.com/wyfcoding/indexoptions/internal/ledger/domain"
)

func newTestOrder(t *testing.T, qty int64) *ledger.Order {
	t.Helper()
	order, err := ledger.NewOrder("U1", "NIFTY50", ledger.OrderSideBuy, ledger.OrderTypeMarket,
		decimal.NewFromInt(qty), decimal.Zero, "")
	if err != nil {
		t.Fatal(err)
	}
	return order
}

func TestSplitSmallOrderUntouched(t *testing.T) {
	splitter := NewSplitter()
	order := newTestOrder(t, 250)

	result := splitter.SplitIfNeeded(context.Background(), order)
	if result.SplitCount != 1 {
		t.Fatalf("split count = %d, want 1", result.SplitCount)
	}
	if result.Children[0] != order {
		t.Error("order at the lot limit should pass through unchanged")
	}
	if _, ok := order.Metadata[MetaParentOrderID]; ok {
		t.Error("unsplit order should carry no split metadata")
	}
}

func TestSplitLargeOrder(t *testing.T) {
	splitter := NewSplitter()
	order := newTestOrder(t, 620)

	result := splitter.SplitIfNeeded(context.Background(), order)
	if result.SplitCount != 3 {
		t.Fatalf("split count = %d, want 3", result.SplitCount)
	}

	total := decimal.Zero
	for i, child := range result.Children {
		total = total.Add(child.Quantity)

		if child.Quantity.GreaterThan(MaxLotSize) {
			t.Errorf("child %d quantity %s exceeds lot limit", i, child.Quantity)
		}
		if child.Symbol != order.Symbol || child.Side != order.Side || child.Type != order.Type {
			t.Errorf("child %d does not inherit parent attributes", i)
		}
		if child.Metadata[MetaParentOrderID] != order.OrderID {
			t.Errorf("child %d parent = %q, want %q", i, child.Metadata[MetaParentOrderID], order.OrderID)
		}
		if child.Metadata[MetaSplitIndex] != strconv.Itoa(i+1) {
			t.Errorf("child %d split index = %q", i, child.Metadata[MetaSplitIndex])
		}
		if child.Metadata[MetaSplitCount] != "3" {
			t.Errorf("child %d split count = %q", i, child.Metadata[MetaSplitCount])
		}
	}

	// 数量守恒：前两单满额，末单余数
	if !total.Equal(order.Quantity) {
		t.Errorf("children total %s, want %s", total, order.Quantity)
	}
	if !result.Children[0].Quantity.Equal(MaxLotSize) || !result.Children[1].Quantity.Equal(MaxLotSize) {
		t.Error("leading children should be exactly at the lot limit")
	}
	if !result.Children[2].Quantity.Equal(decimal.NewFromInt(120)) {
		t.Errorf("tail child quantity = %s, want 120", result.Children[2].Quantity)
	}
}

func TestSplitExactMultiple(t *testing.T) {
	splitter := NewSplitter()
	order := newTestOrder(t, 500)

	result := splitter.SplitIfNeeded(context.Background(), order)
	if result.SplitCount != 2 {
		t.Fatalf("split count = %d, want 2", result.SplitCount)
	}
	for i, child := range result.Children {
		if !child.Quantity.Equal(MaxLotSize) {
			t.Errorf("child %d quantity = %s, want 250", i, child.Quantity)
		}
	}
}
