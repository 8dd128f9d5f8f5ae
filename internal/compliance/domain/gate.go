package domain

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	ledger "github.com/wyfcoding/indexoptions/internal/ledger/domain"
	"github.com/wyfcoding/pkg/logging"
)

// 规则名常量，贯穿日志、审计与指标
const (
	RuleKYC           = "KYC_REQUIRED"
	RulePositionValue = "POSITION_VALUE_CEILING"
	RuleSymbolAllow   = "SYMBOL_ALLOWLIST"
	// 全部规则通过时的聚合结论，审计里与单条规则名区分开
	RulePassed = "COMPLIANCE_PASSED"
)

// allowedSymbols 三个规范化标的，平台只做指数期权
var allowedSymbols = map[string]struct{}{
	"NIFTY50":   {},
	"BANKNIFTY": {},
	"FINNIFTY":  {},
}

// KYCVerifier 用户身份核验，由外部用户档案协作方提供
type KYCVerifier interface {
	IsVerified(ctx context.Context, userID string) bool
}

// Gate 合规门禁
// 只校验 KYC、订单价值上限与标的白名单，从不检查方向和价格
type Gate struct {
	kyc KYCVerifier
}

// NewGate 创建合规门禁
func NewGate(kyc KYCVerifier) *Gate {
	return &Gate{kyc: kyc}
}

// NormalizeSymbol 规范化标的：去除空格与连字符并转大写
// "NIFTY 50" 与 "NIFTY-50" 均匹配 "NIFTY50"
func NormalizeSymbol(symbol string) string {
	s := strings.ReplaceAll(symbol, " ", "")
	s = strings.ReplaceAll(s, "-", "")
	return strings.ToUpper(s)
}

// Check 执行合规检查
func (g *Gate) Check(ctx context.Context, userID, symbol string, quantity, orderValue decimal.Decimal, category ledger.Category) ComplianceCheck {
	if !g.kyc.IsVerified(ctx, userID) {
		result := Rejected(RuleKYC, "user has not completed KYC verification", map[string]string{"user_id": userID})
		g.log(ctx, userID, symbol, result)
		return result
	}

	ceiling := category.PositionValueCeiling()
	if orderValue.GreaterThan(ceiling) {
		result := Rejected(RulePositionValue,
			fmt.Sprintf("order value %s exceeds %s ceiling %s", orderValue, category, ceiling),
			map[string]string{
				"order_value": orderValue.String(),
				"ceiling":     ceiling.String(),
				"category":    string(category),
			})
		g.log(ctx, userID, symbol, result)
		return result
	}

	normalized := NormalizeSymbol(symbol)
	if _, ok := allowedSymbols[normalized]; !ok {
		result := Rejected(RuleSymbolAllow,
			fmt.Sprintf("symbol %q is not a permitted index instrument", symbol),
			map[string]string{"symbol": symbol, "normalized": normalized})
		g.log(ctx, userID, symbol, result)
		return result
	}

	return Approved(RulePassed)
}

func (g *Gate) log(ctx context.Context, userID, symbol string, c ComplianceCheck) {
	logging.Warn(ctx, "compliance check rejected",
		"user_id", userID,
		"symbol", symbol,
		"rule", c.RuleName,
		"message", c.Message,
	)
}
