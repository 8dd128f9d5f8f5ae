// Package application 结算应用服务
package application

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/indexoptions/internal/audit"
	"github.com/wyfcoding/indexoptions/internal/funding"
	ledger "github.com/wyfcoding/indexoptions/internal/ledger/domain"
	"github.com/wyfcoding/indexoptions/internal/notification"
	"github.com/wyfcoding/indexoptions/internal/settlement/domain"
	"github.com/wyfcoding/indexoptions/pkg/metrics"
	"github.com/wyfcoding/pkg/logging"
)

// SettlementArchiver 结算归档，可为 nil（不归档）
type SettlementArchiver interface {
	ArchiveSettlement(ctx context.Context, result *domain.SettlementResult) error
}

// Service 结算服务
// 计算本身同步且无副作用；划转、审计与通知是计算之外的发布动作
type Service struct {
	policy     domain.Policy
	transferor funding.Transferor
	recorder   audit.Recorder
	notifier   notification.Notifier
	archiver   SettlementArchiver
	metrics    *metrics.Metrics
}

// NewService 构造函数
func NewService(
	policy domain.Policy,
	transferor funding.Transferor,
	recorder audit.Recorder,
	notifier notification.Notifier,
	archiver SettlementArchiver,
	m *metrics.Metrics,
) *Service {
	return &Service{
		policy:     policy,
		transferor: transferor,
		recorder:   recorder,
		notifier:   notifier,
		archiver:   archiver,
		metrics:    m,
	}
}

// Settle 对一段毛利润执行结算并发布结果
func (s *Service) Settle(ctx context.Context, userID string, grossProfit decimal.Decimal, category ledger.Category, currentCapital decimal.Decimal) (*domain.SettlementResult, error) {
	result := s.policy.Settle(userID, grossProfit, category, currentCapital)

	logging.Info(ctx, "settlement computed",
		"settlement_id", result.SettlementID,
		"user_id", userID,
		"gross_profit", grossProfit.String(),
		"platform_fee", result.PlatformFee.String(),
		"tax_locked", result.TaxLocked.String(),
		"net_to_savings", result.NetToSavings.String(),
		"next_capital", result.NextCapitalLevel.String(),
	)

	if err := s.emitTransfers(ctx, result); err != nil {
		// 划转失败不撤销结算计算，留给外部系统对账
		logging.Error(ctx, "fund transfer failed",
			"settlement_id", result.SettlementID, "error", err)
	}

	s.recorder.Record(ctx, audit.NewEvent(audit.EventSettlement, userID, result.SettlementID, map[string]string{
		"gross_profit":    result.GrossProfit.String(),
		"platform_fee":    result.PlatformFee.String(),
		"tax_locked":      result.TaxLocked.String(),
		"net_to_savings":  result.NetToSavings.String(),
		"rounding_buffer": result.RoundingBufferRetained.String(),
		"current_capital": result.CurrentCapital.String(),
		"next_capital":    result.NextCapitalLevel.String(),
	}))

	if s.notifier != nil {
		s.notifier.Notify(ctx, userID, "settlement completed",
			fmt.Sprintf("gross %s, net to savings %s, next capital %s",
				result.GrossProfit.StringFixed(2),
				result.NetToSavings.StringFixed(2),
				result.NextCapitalLevel.StringFixed(2)))
	}

	if s.archiver != nil {
		if err := s.archiver.ArchiveSettlement(ctx, result); err != nil {
			logging.Error(ctx, "settlement archive failed",
				"settlement_id", result.SettlementID, "error", err)
		}
	}

	s.metrics.SettlementsTotal.Inc()
	return result, nil
}

// emitTransfers 按结算结果派生资金划转：
// 净入储蓄为 PUSH，资金升档差额为 PULL
func (s *Service) emitTransfers(ctx context.Context, result *domain.SettlementResult) error {
	if result.NetToSavings.IsPositive() {
		if err := s.transferor.Transfer(ctx, funding.TransferRequest{
			UserID:    result.UserID,
			Amount:    result.NetToSavings,
			Direction: funding.DirectionPush,
			Reason:    fmt.Sprintf("settlement %s net to savings", result.SettlementID),
		}); err != nil {
			return err
		}
	}

	if delta := result.CapitalDelta(); delta.IsPositive() {
		if err := s.transferor.Transfer(ctx, funding.TransferRequest{
			UserID:    result.UserID,
			Amount:    delta,
			Direction: funding.DirectionPull,
			Reason:    fmt.Sprintf("settlement %s capital increment", result.SettlementID),
		}); err != nil {
			return err
		}
	}
	return nil
}
