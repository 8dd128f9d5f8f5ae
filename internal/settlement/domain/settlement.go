// Package domain 结算领域模型
// 把一段毛利润换算为平台费用、税金锁定与净入储蓄，
// 并按类别阶梯给出下一档资金水平
package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	ledger "github.com/wyfcoding/indexoptions/internal/ledger/domain"
	"github.com/wyfcoding/pkg/idgen"
	"gorm.io/gorm"
)

// Policy 结算参数：受益方分成与税金锁定比例
type Policy struct {
	// 主受益方（金库）占平台费用的分成
	TreasuryShare decimal.Decimal
	// 次受益方（合作方）占平台费用的分成
	PartnerShare decimal.Decimal
	// 毛利润的统一税金锁定比例
	TaxRate decimal.Decimal
}

// DefaultPolicy 70/30 分成，39% 税金锁定
func DefaultPolicy() Policy {
	return Policy{
		TreasuryShare: decimal.NewFromFloat(0.70),
		PartnerShare:  decimal.NewFromFloat(0.30),
		TaxRate:       decimal.NewFromFloat(0.39),
	}
}

// feeRates 各类别平台费率
var feeRates = map[ledger.Category]decimal.Decimal{
	ledger.CategoryNGD:        decimal.NewFromFloat(0.15),
	ledger.CategoryRestricted: decimal.NewFromFloat(0.30),
	ledger.CategorySemi:       decimal.NewFromFloat(0.125),
	ledger.CategoryAdmin:      decimal.NewFromFloat(0.30),
}

// capitalLadders 各类别资金阶梯，有序且封顶
// NGD 为单档循环水平，永不递增
var capitalLadders = map[ledger.Category][]decimal.Decimal{
	ledger.CategoryNGD: {
		decimal.NewFromInt(10000),
	},
	ledger.CategoryRestricted: {
		decimal.NewFromInt(10000),
		decimal.NewFromInt(50000),
		decimal.NewFromInt(100000),
	},
	ledger.CategorySemi: {
		decimal.NewFromInt(100000),
		decimal.NewFromInt(500000),
		decimal.NewFromInt(1000000),
	},
	ledger.CategoryAdmin: {
		decimal.NewFromInt(1000000),
		decimal.NewFromInt(5000000),
		decimal.NewFromInt(10000000),
	},
}

// roundingTiers 向下取整单位按净额量级选择，升序排列
var roundingTiers = []struct {
	below decimal.Decimal
	unit  decimal.Decimal
}{
	{decimal.NewFromInt(100000), decimal.NewFromInt(1000)},
	{decimal.NewFromInt(1000000), decimal.NewFromInt(10000)},
	{decimal.NewFromInt(10000000), decimal.NewFromInt(100000)},
}

// topRoundingUnit 最高量级的取整单位
var topRoundingUnit = decimal.NewFromInt(1000000)

// SettlementResult 结算结果，计算即定型
type SettlementResult struct {
	gorm.Model
	SettlementID           string          `gorm:"column:settlement_id;type:varchar(32);uniqueIndex" json:"settlement_id"`
	UserID                 string          `gorm:"column:user_id;type:varchar(64);index" json:"user_id"`
	Category               ledger.Category `gorm:"column:category;type:varchar(16)" json:"category"`
	GrossProfit            decimal.Decimal `gorm:"column:gross_profit;type:decimal(20,4)" json:"gross_profit"`
	PlatformFee            decimal.Decimal `gorm:"column:platform_fee;type:decimal(20,4)" json:"platform_fee"`
	TreasuryFee            decimal.Decimal `gorm:"column:treasury_fee;type:decimal(20,4)" json:"treasury_fee"`
	PartnerFee             decimal.Decimal `gorm:"column:partner_fee;type:decimal(20,4)" json:"partner_fee"`
	TaxLocked              decimal.Decimal `gorm:"column:tax_locked;type:decimal(20,4)" json:"tax_locked"`
	NetToSavings           decimal.Decimal `gorm:"column:net_to_savings;type:decimal(20,4)" json:"net_to_savings"`
	RoundingBufferRetained decimal.Decimal `gorm:"column:rounding_buffer;type:decimal(20,4)" json:"rounding_buffer_retained"`
	CurrentCapital         decimal.Decimal `gorm:"column:current_capital;type:decimal(20,4)" json:"current_capital"`
	NextCapitalLevel       decimal.Decimal `gorm:"column:next_capital;type:decimal(20,4)" json:"next_capital_level"`
	SettledAt              time.Time       `gorm:"column:settled_at" json:"settled_at"`
}

// TableName 指定表名
func (SettlementResult) TableName() string {
	return "settlement_results"
}

// FeeRate 返回类别费率
func FeeRate(category ledger.Category) decimal.Decimal {
	rate, ok := feeRates[category]
	if !ok {
		// 未知类别按最保守费率处理
		return feeRates[ledger.CategoryRestricted]
	}
	return rate
}

// Settle 按默认参数执行一次结算
func Settle(userID string, grossProfit decimal.Decimal, category ledger.Category, currentCapital decimal.Decimal) *SettlementResult {
	return DefaultPolicy().Settle(userID, grossProfit, category, currentCapital)
}

// Settle 执行一次结算
// 取整只向下，弃掉的余数作为缓冲显式保留并单独上报，不进入储蓄
func (p Policy) Settle(userID string, grossProfit decimal.Decimal, category ledger.Category, currentCapital decimal.Decimal) *SettlementResult {
	fee := grossProfit.Mul(FeeRate(category))
	tax := grossProfit.Mul(p.TaxRate)
	netBefore := grossProfit.Sub(fee).Sub(tax)

	unit := roundingUnit(netBefore)
	net := netBefore.Div(unit).Floor().Mul(unit)
	if net.IsNegative() {
		// 亏损期无净入储蓄，全部余数留在缓冲
		net = decimal.Zero
	}
	buffer := netBefore.Sub(net)

	return &SettlementResult{
		SettlementID:           fmt.Sprintf("STL-%d", idgen.GenID()),
		UserID:                 userID,
		Category:               category,
		GrossProfit:            grossProfit,
		PlatformFee:            fee,
		TreasuryFee:            fee.Mul(p.TreasuryShare),
		PartnerFee:             fee.Mul(p.PartnerShare),
		TaxLocked:              tax,
		NetToSavings:           net,
		RoundingBufferRetained: buffer,
		CurrentCapital:         currentCapital,
		NextCapitalLevel:       NextCapital(category, currentCapital),
		SettledAt:              time.Now(),
	}
}

// NextCapital 返回阶梯内 currentCapital 的后继档位
// 不在阶梯上的值原样返回，不视为错误；已达顶档不再递增
func NextCapital(category ledger.Category, currentCapital decimal.Decimal) decimal.Decimal {
	ladder, ok := capitalLadders[category]
	if !ok {
		return currentCapital
	}
	for i, level := range ladder {
		if level.Equal(currentCapital) {
			if i+1 < len(ladder) {
				return ladder[i+1]
			}
			return currentCapital
		}
	}
	return currentCapital
}

// CapitalDelta 下一档与当前档之间的差额
func (r *SettlementResult) CapitalDelta() decimal.Decimal {
	return r.NextCapitalLevel.Sub(r.CurrentCapital)
}

// roundingUnit 按净额量级选择取整单位
func roundingUnit(net decimal.Decimal) decimal.Decimal {
	abs := net.Abs()
	for _, tier := range roundingTiers {
		if abs.LessThan(tier.below) {
			return tier.unit
		}
	}
	return topRoundingUnit
}
