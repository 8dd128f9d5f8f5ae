// Package domain 风控领域层：杠杆门禁、准入状态机与自适应容量策略
package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
	ledger "github.com/wyfcoding/indexoptions/internal/ledger/domain"
)

// RuleLeverageCeiling 杠杆敞口超限的规则名
const RuleLeverageCeiling = "LEVERAGE_CEILING"

// LeverageGate 杠杆门禁
// 纯函数集合，无状态，可被任意数量的调用方并发读取
type LeverageGate struct{}

// NewLeverageGate 创建杠杆门禁
func NewLeverageGate() *LeverageGate {
	return &LeverageGate{}
}

// Multiplier 类别对应的风险敞口乘数
func (LeverageGate) Multiplier(category ledger.Category) decimal.Decimal {
	switch category {
	case ledger.CategoryNGD:
		return decimal.NewFromFloat(1.5)
	case ledger.CategoryRestricted, ledger.CategorySemi, ledger.CategoryAdmin:
		return decimal.NewFromFloat(3.0)
	default:
		// 未知类别不放大
		return decimal.NewFromInt(1)
	}
}

// MaxExposure 最大风险敞口 = 资金 × 类别乘数
func (g LeverageGate) MaxExposure(capital decimal.Decimal, category ledger.Category) decimal.Decimal {
	return capital.Mul(g.Multiplier(category))
}

// Validate 校验当前敞口
// 超出上限时拒绝；否则返回使用率说明
func (g LeverageGate) Validate(currentExposure, capital decimal.Decimal, category ledger.Category) (bool, string) {
	maxExposure := g.MaxExposure(capital, category)
	if currentExposure.GreaterThan(maxExposure) {
		return false, fmt.Sprintf("exposure %s exceeds leverage ceiling %s (category %s)",
			currentExposure, maxExposure, category)
	}
	utilization := decimal.Zero
	if maxExposure.IsPositive() {
		utilization = currentExposure.Div(maxExposure).Mul(decimal.NewFromInt(100)).Round(2)
	}
	return true, fmt.Sprintf("leverage utilization %s%%", utilization)
}
