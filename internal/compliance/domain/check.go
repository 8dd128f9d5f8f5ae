// Package domain 合规准入领域层：合规结论值对象、门禁与拆单器
package domain

// CheckStatus 合规结论状态
type CheckStatus string

const (
	CheckStatusApproved CheckStatus = "APPROVED"
	CheckStatusRejected CheckStatus = "REJECTED"
	CheckStatusWarning  CheckStatus = "WARNING"
)

// ComplianceCheck 合规结论，创建后不可变
// 每笔订单产生一条，仅用于记录与上抛，从不静默丢弃
type ComplianceCheck struct {
	Status   CheckStatus       `json:"status"`
	RuleName string            `json:"rule_name"`
	Message  string            `json:"message"`
	Details  map[string]string `json:"details,omitempty"`
}

// Approved 通过
func Approved(rule string) ComplianceCheck {
	return ComplianceCheck{Status: CheckStatusApproved, RuleName: rule, Message: "compliance check passed"}
}

// Rejected 拒绝，原因必须可机读
func Rejected(rule, message string, details map[string]string) ComplianceCheck {
	return ComplianceCheck{Status: CheckStatusRejected, RuleName: rule, Message: message, Details: details}
}

// IsApproved 是否通过
func (c ComplianceCheck) IsApproved() bool {
	return c.Status == CheckStatusApproved
}
