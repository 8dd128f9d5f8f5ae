// Package funding 资金划转协作方契约
package funding

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pkg/logging"
)

// Direction 划转方向
type Direction string

const (
	// DirectionPush 推送至储蓄账户
	DirectionPush Direction = "PUSH"
	// DirectionPull 从储蓄账户拉回
	DirectionPull Direction = "PULL"
)

// TransferRequest 资金划转请求
type TransferRequest struct {
	UserID    string          `json:"user_id"`
	Amount    decimal.Decimal `json:"amount"`
	Direction Direction       `json:"direction"`
	Reason    string          `json:"reason"`
}

// Transferor 资金划转接口，由外部系统实现
type Transferor interface {
	Transfer(ctx context.Context, req TransferRequest) error
}

// LoggingTransferor 仅记录日志的本地实现，用于未接入外部资金系统的部署
type LoggingTransferor struct{}

// NewLoggingTransferor 构造函数
func NewLoggingTransferor() *LoggingTransferor {
	return &LoggingTransferor{}
}

// Transfer 记录划转请求
func (t *LoggingTransferor) Transfer(ctx context.Context, req TransferRequest) error {
	logging.Info(ctx, "fund transfer requested",
		"user_id", req.UserID,
		"amount", req.Amount.String(),
		"direction", string(req.Direction),
		"reason", req.Reason,
	)
	return nil
}
