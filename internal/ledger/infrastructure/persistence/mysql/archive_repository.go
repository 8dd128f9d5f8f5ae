// Package mysql 归档仓储，基于 GORM
// 订单、周期与结算的持久化只做归档：内存台账是唯一运行时事实来源
package mysql

import (
	"context"

	ledger "github.com/wyfcoding/indexoptions/internal/ledger/domain"
	scheduler "github.com/wyfcoding/indexoptions/internal/scheduler/domain"
	settlement "github.com/wyfcoding/indexoptions/internal/settlement/domain"
	"gorm.io/gorm"
)

type ArchiveRepository struct {
	db *gorm.DB
}

// NewArchiveRepository 创建归档仓储
func NewArchiveRepository(db *gorm.DB) *ArchiveRepository {
	return &ArchiveRepository{db: db}
}

// AutoMigrate 建表
func (r *ArchiveRepository) AutoMigrate() error {
	return r.db.AutoMigrate(
		&ledger.Order{},
		&scheduler.TradingCycle{},
		&settlement.SettlementResult{},
	)
}

// ArchiveOrder 归档终态订单
func (r *ArchiveRepository) ArchiveOrder(ctx context.Context, order *ledger.Order) error {
	return r.db.WithContext(ctx).Save(order).Error
}

// ArchiveCycle 归档已完成周期
func (r *ArchiveRepository) ArchiveCycle(ctx context.Context, cycle *scheduler.TradingCycle) error {
	return r.db.WithContext(ctx).Save(cycle).Error
}

// ArchiveSettlement 归档结算结果
func (r *ArchiveRepository) ArchiveSettlement(ctx context.Context, result *settlement.SettlementResult) error {
	return r.db.WithContext(ctx).Save(result).Error
}

// FindOrderByID 按订单号查询归档订单
func (r *ArchiveRepository) FindOrderByID(ctx context.Context, orderID string) (*ledger.Order, error) {
	var order ledger.Order
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// ListCycles 按时间倒序列出归档周期
func (r *ArchiveRepository) ListCycles(ctx context.Context, limit int) ([]*scheduler.TradingCycle, error) {
	var cycles []*scheduler.TradingCycle
	if err := r.db.WithContext(ctx).Order("start_time DESC").Limit(limit).Find(&cycles).Error; err != nil {
		return nil, err
	}
	return cycles, nil
}
