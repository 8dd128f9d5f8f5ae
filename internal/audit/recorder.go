// Package audit 审计事件下沉：每笔成交、合规决策与结算各产生一条结构化记录
// 下沉失败只记日志，绝不阻塞或失败源操作
package audit

import (
	"context"
	"time"
)

// EventType 审计事件类型
type EventType string

const (
	EventOrderFill          EventType = "ORDER_FILL"
	EventComplianceDecision EventType = "COMPLIANCE_DECISION"
	EventRiskDecision       EventType = "RISK_DECISION"
	EventSettlement         EventType = "SETTLEMENT"
)

// Event 审计记录
type Event struct {
	Type EventType `json:"type"`
	// 用户与关联对象（订单/结算）ID
	UserID      string            `json:"user_id"`
	ReferenceID string            `json:"reference_id"`
	OccurredAt  time.Time         `json:"occurred_at"`
	Details     map[string]string `json:"details,omitempty"`
}

// Recorder 审计下沉
type Recorder interface {
	Record(ctx context.Context, event Event)
}

// NewEvent 创建审计记录
func NewEvent(eventType EventType, userID, referenceID string, details map[string]string) Event {
	return Event{
		Type:        eventType,
		UserID:      userID,
		ReferenceID: referenceID,
		OccurredAt:  time.Now(),
		Details:     details,
	}
}

// NoopRecorder 未配置下游时的空实现
type NoopRecorder struct{}

// Record 丢弃事件
func (NoopRecorder) Record(context.Context, Event) {}
