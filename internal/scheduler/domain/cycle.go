// Package domain 周期调度领域层
package domain

import (
	"fmt"
	"time"

	"github.com/wyfcoding/indexoptions/internal/signal"
	"github.com/wyfcoding/pkg/idgen"
	"gorm.io/gorm"
)

// Phase 周期阶段
type Phase string

const (
	PhaseSignalGen Phase = "SIGNAL_GEN"
	PhaseWindow1   Phase = "WINDOW_1"
	PhaseWindow2   Phase = "WINDOW_2"
	PhaseWindow3   Phase = "WINDOW_3"
	PhaseComplete  Phase = "COMPLETE"
	// 周期在窗口间被停止/取消打断
	PhaseAborted Phase = "ABORTED"
)

// WindowPhase 第 n 个执行窗口对应的阶段（n 从 1 起）
func WindowPhase(n int) Phase {
	switch n {
	case 1:
		return PhaseWindow1
	case 2:
		return PhaseWindow2
	default:
		return PhaseWindow3
	}
}

// TradingCycle 交易周期
// 每个 15 分钟边界创建一个，完成后追加进只增历史
type TradingCycle struct {
	gorm.Model
	CycleID   string    `gorm:"column:cycle_id;type:varchar(32);uniqueIndex;not null" json:"cycle_id"`
	StartTime time.Time `gorm:"column:start_time;not null" json:"start_time"`
	EndTime   time.Time `gorm:"column:end_time" json:"end_time"`
	Phase     Phase     `gorm:"column:phase;type:varchar(20);not null" json:"phase"`
	// 本周期拉取到的信号，仅驻留内存
	Signals []signal.TradeSignal `gorm:"-" json:"signals,omitempty"`
	// 实际成交笔数
	ExecutedCount int `gorm:"column:executed_count" json:"executed_count"`
	// 被拒绝/延后笔数
	RejectedCount int `gorm:"column:rejected_count" json:"rejected_count"`
	// 自适应折算出的本周期建议交易上限
	MaxTradesGuideline int `gorm:"column:max_trades_guideline" json:"max_trades_guideline"`
}

// TableName 表名
func (TradingCycle) TableName() string {
	return "trading_cycles"
}

// NewCycle 创建周期
func NewCycle(start time.Time, length time.Duration) *TradingCycle {
	return &TradingCycle{
		CycleID:   fmt.Sprintf("CYC-%d", idgen.GenID()),
		StartTime: start,
		EndTime:   start.Add(length),
		Phase:     PhaseSignalGen,
	}
}

// SetPhase 推进阶段
func (c *TradingCycle) SetPhase(p Phase) {
	c.Phase = p
}

// Complete 完成周期
func (c *TradingCycle) Complete(endTime time.Time) {
	c.Phase = PhaseComplete
	c.EndTime = endTime
}

// Abort 周期被打断，已累计的执行计数保留
func (c *TradingCycle) Abort(endTime time.Time) {
	c.Phase = PhaseAborted
	c.EndTime = endTime
}

// Clone 拷贝（历史读出时防别名）
func (c *TradingCycle) Clone() *TradingCycle {
	cp := *c
	cp.Signals = append([]signal.TradeSignal(nil), c.Signals...)
	return &cp
}
