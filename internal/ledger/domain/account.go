package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Category 用户类别
// 封闭枚举：新增类别必须同时扩展所有 switch，禁止字典兜底
type Category string

const (
	CategoryNGD        Category = "NGD"
	CategoryRestricted Category = "restricted"
	CategorySemi       Category = "semi"
	CategoryAdmin      Category = "admin"
)

// ParseCategory 解析类别，未知值显式报错
func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case CategoryNGD, CategoryRestricted, CategorySemi, CategoryAdmin:
		return Category(s), nil
	default:
		return "", fmt.Errorf("unknown account category: %q", s)
	}
}

// PositionValueCeiling 单笔订单价值上限
func (c Category) PositionValueCeiling() decimal.Decimal {
	switch c {
	case CategoryNGD:
		return decimal.NewFromInt(50_000)
	case CategoryRestricted:
		return decimal.NewFromInt(100_000)
	case CategorySemi:
		return decimal.NewFromInt(500_000)
	case CategoryAdmin:
		return decimal.NewFromInt(10_000_000)
	default:
		// 未知类别不给任何额度
		return decimal.Zero
	}
}

var ErrInsufficientBalance = errors.New("insufficient account balance")

// Account 资金账户
// 由执行适配器独占持有，全部读写在适配器锁内完成
type Account struct {
	UserID         string          `json:"user_id"`
	Category       Category        `json:"category"`
	Balance        decimal.Decimal `json:"balance"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

// NewAccount 创建账户
func NewAccount(userID string, category Category, initialBalance decimal.Decimal) *Account {
	return &Account{
		UserID:         userID,
		Category:       category,
		Balance:        initialBalance,
		InitialBalance: initialBalance,
	}
}

// Debit 扣减余额，余额不足时不发生任何变更
func (a *Account) Debit(amount decimal.Decimal) error {
	if a.Balance.LessThan(amount) {
		return fmt.Errorf("%w: balance=%s required=%s", ErrInsufficientBalance, a.Balance, amount)
	}
	a.Balance = a.Balance.Sub(amount)
	return nil
}

// Credit 增加余额
func (a *Account) Credit(amount decimal.Decimal) {
	a.Balance = a.Balance.Add(amount)
}

// Clone 深拷贝
func (a *Account) Clone() *Account {
	cp := *a
	return &cp
}
