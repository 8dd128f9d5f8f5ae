package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestNewOrderValidation(t *testing.T) {
	tests := []struct {
		name      string
		symbol    string
		side      OrderSide
		orderType OrderType
		quantity  decimal.Decimal
		limit     decimal.Decimal
		wantErr   error
	}{
		{
			name:      "valid market order",
			symbol:    "NIFTY50",
			side:      OrderSideBuy,
			orderType: OrderTypeMarket,
			quantity:  decimal.NewFromInt(100),
		},
		{
			name:      "valid limit order",
			symbol:    "BANKNIFTY",
			side:      OrderSideSell,
			orderType: OrderTypeLimit,
			quantity:  decimal.NewFromInt(50),
			limit:     decimal.NewFromInt(200),
		},
		{
			name:      "empty symbol",
			side:      OrderSideBuy,
			orderType: OrderTypeMarket,
			quantity:  decimal.NewFromInt(100),
			wantErr:   ErrInvalidSymbol,
		},
		{
			name:      "zero quantity",
			symbol:    "NIFTY50",
			side:      OrderSideBuy,
			orderType: OrderTypeMarket,
			quantity:  decimal.Zero,
			wantErr:   ErrInvalidQuantity,
		},
		{
			name:      "negative quantity",
			symbol:    "NIFTY50",
			side:      OrderSideBuy,
			orderType: OrderTypeMarket,
			quantity:  decimal.NewFromInt(-10),
			wantErr:   ErrInvalidQuantity,
		},
		{
			name:      "limit order without price",
			symbol:    "NIFTY50",
			side:      OrderSideBuy,
			orderType: OrderTypeLimit,
			quantity:  decimal.NewFromInt(100),
			wantErr:   ErrInvalidLimitPrice,
		},
		{
			name:      "bad side",
			symbol:    "NIFTY50",
			side:      OrderSide("HOLD"),
			orderType: OrderTypeMarket,
			quantity:  decimal.NewFromInt(100),
			wantErr:   ErrInvalidSide,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, err := NewOrder("U1", tt.symbol, tt.side, tt.orderType, tt.quantity, tt.limit, "")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("NewOrder() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewOrder() unexpected error: %v", err)
			}
			if order.Status != OrderStatusNew {
				t.Errorf("new order status = %s, want NEW", order.Status)
			}
			if order.OrderID == "" {
				t.Error("order ID should be generated when not provided")
			}
		})
	}
}

func TestOrderTransitionsAreMonotonic(t *testing.T) {
	order, err := NewOrder("U1", "NIFTY50", OrderSideBuy, OrderTypeMarket, decimal.NewFromInt(100), decimal.Zero, "")
	if err != nil {
		t.Fatal(err)
	}

	if err := order.Fill(decimal.NewFromInt(250)); err != nil {
		t.Fatalf("Fill() error: %v", err)
	}
	if order.Status != OrderStatusFilled {
		t.Fatalf("status = %s, want FILLED", order.Status)
	}
	if order.FilledAt == nil {
		t.Error("FilledAt should be set on fill")
	}

	// 终态不可再推进
	if err := order.Fill(decimal.NewFromInt(260)); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second Fill() error = %v, want ErrInvalidTransition", err)
	}
	if err := order.Reject("rule", "reason"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Reject() after fill error = %v, want ErrInvalidTransition", err)
	}
	if order.Cancel() {
		t.Error("Cancel() after fill should return false")
	}
}

func TestOrderRejectRecordsRule(t *testing.T) {
	order, err := NewOrder("U1", "NIFTY50", OrderSideSell, OrderTypeMarket, decimal.NewFromInt(100), decimal.Zero, "")
	if err != nil {
		t.Fatal(err)
	}
	if err := order.Reject("DAILY_LOSS_STOP", "daily loss limit reached"); err != nil {
		t.Fatal(err)
	}
	if order.Status != OrderStatusRejected {
		t.Fatalf("status = %s, want REJECTED", order.Status)
	}
	if order.RejectRule != "DAILY_LOSS_STOP" {
		t.Errorf("reject rule = %q", order.RejectRule)
	}
	if order.RejectReason == "" {
		t.Error("reject reason should be recorded")
	}
}

func TestOrderCloneIsDeep(t *testing.T) {
	order, err := NewOrder("U1", "NIFTY50", OrderSideBuy, OrderTypeMarket, decimal.NewFromInt(100), decimal.Zero, "ORD-X")
	if err != nil {
		t.Fatal(err)
	}
	order.Metadata["parent_order_id"] = "ORD-P"

	cp := order.Clone()
	cp.Metadata["parent_order_id"] = "ORD-OTHER"
	cp.Status = OrderStatusCancelled

	if order.Metadata["parent_order_id"] != "ORD-P" {
		t.Error("clone metadata mutation leaked into original")
	}
	if order.Status != OrderStatusNew {
		t.Error("clone status mutation leaked into original")
	}
}
