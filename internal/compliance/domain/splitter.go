package domain

import (
	"context"
	"strconv"

	"github.com/shopspring/decimal"
	ledger "github.com/wyfcoding/indexoptions/internal/ledger/domain"
	"github.com/wyfcoding/pkg/logging"
)

// MaxLotSize 监管单笔手数上限
var MaxLotSize = decimal.NewFromInt(250)

// 子单元数据键
const (
	MetaParentOrderID = "parent_order_id"
	MetaSplitIndex    = "split_index"
	MetaSplitCount    = "split_count"
)

// Splitter 拆单器
// 把超限订单分解为合规子单；拆单永不失败关闭，
// 内部出错时原样返回未拆分的订单而不是阻塞交易
type Splitter struct{}

// NewSplitter 创建拆单器
func NewSplitter() *Splitter {
	return &Splitter{}
}

// SplitResult 拆单结果
type SplitResult struct {
	Children   []*ledger.Order
	SplitCount int
}

// SplitIfNeeded 按手数上限拆单
// 数量 ≤ 250 原样返回；否则产生 ceil(q/250) 个子单，
// 前 n−1 个恰好 250，末单携带余数，子单继承符号/方向/类型
func (s *Splitter) SplitIfNeeded(ctx context.Context, order *ledger.Order) SplitResult {
	if order.Quantity.LessThanOrEqual(MaxLotSize) {
		return SplitResult{Children: []*ledger.Order{order}, SplitCount: 1}
	}

	count := int(order.Quantity.Div(MaxLotSize).Ceil().IntPart())
	children := make([]*ledger.Order, 0, count)
	remaining := order.Quantity

	for i := 0; i < count; i++ {
		qty := MaxLotSize
		if remaining.LessThan(MaxLotSize) {
			qty = remaining
		}

		child, err := ledger.NewOrder(order.UserID, order.Symbol, order.Side, order.Type, qty, order.LimitPrice, "")
		if err != nil {
			// 失败开放：任何内部错误都退回原始订单
			logging.Error(ctx, "order split failed, falling back to unsplit order",
				"order_id", order.OrderID,
				"error", err,
			)
			return SplitResult{Children: []*ledger.Order{order}, SplitCount: 1}
		}
		child.Metadata[MetaParentOrderID] = order.OrderID
		child.Metadata[MetaSplitIndex] = strconv.Itoa(i + 1)
		child.Metadata[MetaSplitCount] = strconv.Itoa(count)

		children = append(children, child)
		remaining = remaining.Sub(qty)
	}

	logging.Info(ctx, "order split into compliant children",
		"order_id", order.OrderID,
		"quantity", order.Quantity.String(),
		"children", count,
	)
	return SplitResult{Children: children, SplitCount: count}
}
