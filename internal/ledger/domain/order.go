// Package domain 包含订单、持仓与账户的领域模型
package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pkg/idgen"
	"gorm.io/gorm"
)

// OrderStatus 订单状态
type OrderStatus string

const (
	OrderStatusNew       OrderStatus = "NEW"
	OrderStatusFilled    OrderStatus = "FILLED"
	OrderStatusRejected  OrderStatus = "REJECTED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// OrderSide 订单方向
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// OrderType 订单类型
type OrderType string

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

var (
	ErrInvalidQuantity   = errors.New("order quantity must be positive")
	ErrInvalidLimitPrice = errors.New("limit price must be positive for limit orders")
	ErrInvalidSymbol     = errors.New("order symbol must not be empty")
	ErrInvalidSide       = errors.New("order side must be BUY or SELL")
	ErrInvalidTransition = errors.New("invalid order status transition")
)

// Order 订单实体
// 提交后由账本独占持有，状态只能单向推进
type Order struct {
	gorm.Model
	// 客户端订单 ID（未提供时系统生成）
	OrderID string `gorm:"column:order_id;type:varchar(32);uniqueIndex;not null" json:"order_id"`
	// 用户 ID
	UserID string `gorm:"column:user_id;type:varchar(32);index;not null" json:"user_id"`
	// 标的符号
	Symbol string `gorm:"column:symbol;type:varchar(20);index;not null" json:"symbol"`
	// 买卖方向
	Side OrderSide `gorm:"column:side;type:varchar(10);not null" json:"side"`
	// 订单类型
	Type OrderType `gorm:"column:type;type:varchar(10);not null" json:"type"`
	// 数量
	Quantity decimal.Decimal `gorm:"column:quantity;type:decimal(20,4);not null" json:"quantity"`
	// 限价（仅 LIMIT 单）
	LimitPrice decimal.Decimal `gorm:"column:limit_price;type:decimal(18,4)" json:"limit_price"`
	// 成交价
	FillPrice decimal.Decimal `gorm:"column:fill_price;type:decimal(18,4)" json:"fill_price"`
	// 订单状态
	Status OrderStatus `gorm:"column:status;type:varchar(20);index;not null" json:"status"`
	// 券商侧订单 ID（提交时分配）
	BrokerID string `gorm:"column:broker_id;type:varchar(32)" json:"broker_id"`
	// 拒绝时的规则名与原因
	RejectRule   string `gorm:"column:reject_rule;type:varchar(64)" json:"reject_rule,omitempty"`
	RejectReason string `gorm:"column:reject_reason;type:varchar(255)" json:"reject_reason,omitempty"`
	// 附加元数据（拆单溯源、降级价格来源等）
	Metadata map[string]string `gorm:"column:metadata;serializer:json;type:text" json:"metadata,omitempty"`
	// 成交时间
	FilledAt *time.Time `gorm:"column:filled_at" json:"filled_at,omitempty"`
}

// TableName 表名
func (Order) TableName() string {
	return "orders"
}

// NewOrder 创建订单并完成边界校验，非法参数不会进入账本
func NewOrder(userID, symbol string, side OrderSide, orderType OrderType, quantity, limitPrice decimal.Decimal, clientOrderID string) (*Order, error) {
	if symbol == "" {
		return nil, ErrInvalidSymbol
	}
	if side != OrderSideBuy && side != OrderSideSell {
		return nil, ErrInvalidSide
	}
	if !quantity.IsPositive() {
		return nil, ErrInvalidQuantity
	}
	if orderType == OrderTypeLimit && !limitPrice.IsPositive() {
		return nil, ErrInvalidLimitPrice
	}
	if clientOrderID == "" {
		clientOrderID = fmt.Sprintf("ORD-%d", idgen.GenID())
	}
	return &Order{
		OrderID:    clientOrderID,
		UserID:     userID,
		Symbol:     symbol,
		Side:       side,
		Type:       orderType,
		Quantity:   quantity,
		LimitPrice: limitPrice,
		Status:     OrderStatusNew,
		Metadata:   map[string]string{},
	}, nil
}

// Fill 标记订单成交
func (o *Order) Fill(price decimal.Decimal) error {
	if o.Status != OrderStatusNew {
		return fmt.Errorf("%w: %s -> FILLED", ErrInvalidTransition, o.Status)
	}
	now := time.Now()
	o.Status = OrderStatusFilled
	o.FillPrice = price
	o.FilledAt = &now
	return nil
}

// Reject 标记订单被拒绝，规则名与原因必须可机读
func (o *Order) Reject(rule, reason string) error {
	if o.Status != OrderStatusNew {
		return fmt.Errorf("%w: %s -> REJECTED", ErrInvalidTransition, o.Status)
	}
	o.Status = OrderStatusRejected
	o.RejectRule = rule
	o.RejectReason = reason
	return nil
}

// Cancel 取消订单，仅 NEW 状态可取消
func (o *Order) Cancel() bool {
	if o.Status != OrderStatusNew {
		return false
	}
	o.Status = OrderStatusCancelled
	return true
}

// AssignBroker 记录券商侧订单 ID
func (o *Order) AssignBroker(brokerID string) {
	o.BrokerID = brokerID
}

// NotionalValue 名义价值：数量 × 参考价
func (o *Order) NotionalValue(price decimal.Decimal) decimal.Decimal {
	return o.Quantity.Mul(price)
}

// Clone 深拷贝，防止锁外别名
func (o *Order) Clone() *Order {
	cp := *o
	cp.Metadata = make(map[string]string, len(o.Metadata))
	for k, v := range o.Metadata {
		cp.Metadata[k] = v
	}
	if o.FilledAt != nil {
		t := *o.FilledAt
		cp.FilledAt = &t
	}
	return &cp
}
