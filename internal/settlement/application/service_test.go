package application

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/indexoptions/internal/audit"
	"github.com/wyfcoding/indexoptions/internal/funding"
	ledger "github.com/wyfcoding/indexoptions/internal/ledger/domain"
	"github.com/wyfcoding/indexoptions/internal/settlement/domain"
	"github.com/wyfcoding/indexoptions/pkg/metrics"
)

type captureTransferor struct {
	requests []funding.TransferRequest
}

func (c *captureTransferor) Transfer(_ context.Context, req funding.TransferRequest) error {
	c.requests = append(c.requests, req)
	return nil
}

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestSettleEmitsTransfers(t *testing.T) {
	transferor := &captureTransferor{}
	svc := NewService(domain.DefaultPolicy(), transferor, audit.NoopRecorder{}, nil, nil, metrics.New("settlement_test"))

	result, err := svc.Settle(context.Background(), "U1", d("25000"), ledger.CategoryRestricted, d("10000"))
	if err != nil {
		t.Fatal(err)
	}
	if !result.NetToSavings.Equal(d("7000")) {
		t.Fatalf("net = %s, want 7000", result.NetToSavings)
	}

	if len(transferor.requests) != 2 {
		t.Fatalf("transfers = %d, want PUSH + PULL", len(transferor.requests))
	}

	push := transferor.requests[0]
	if push.Direction != funding.DirectionPush || !push.Amount.Equal(d("7000")) {
		t.Errorf("first transfer = %+v, want PUSH 7000", push)
	}
	pull := transferor.requests[1]
	if pull.Direction != funding.DirectionPull || !pull.Amount.Equal(d("40000")) {
		t.Errorf("second transfer = %+v, want PULL 40000", pull)
	}
}

func TestSettleSkipsEmptyTransfers(t *testing.T) {
	transferor := &captureTransferor{}
	svc := NewService(domain.DefaultPolicy(), transferor, audit.NoopRecorder{}, nil, nil, metrics.New("settlement_test"))

	// 亏损：无净入储蓄；顶档资金：无升档差额
	if _, err := svc.Settle(context.Background(), "U1", d("-5000"), ledger.CategoryRestricted, d("100000")); err != nil {
		t.Fatal(err)
	}
	if len(transferor.requests) != 0 {
		t.Errorf("loss settlement emitted %d transfers, want 0", len(transferor.requests))
	}
}
