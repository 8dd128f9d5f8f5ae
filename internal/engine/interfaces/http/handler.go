// Package http 执行引擎对外接口
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	execution "github.com/wyfcoding/indexoptions/internal/execution/application"
	scheduler "github.com/wyfcoding/indexoptions/internal/scheduler/application"
	settlement "github.com/wyfcoding/indexoptions/internal/settlement/application"
	"github.com/wyfcoding/indexoptions/internal/signal"
)

type Handler struct {
	pipeline   *execution.Pipeline
	adapter    *execution.SimulatedExecutionAdapter
	scheduler  *scheduler.CycleScheduler
	settlement *settlement.Service
}

func NewHandler(
	pipeline *execution.Pipeline,
	adapter *execution.SimulatedExecutionAdapter,
	sched *scheduler.CycleScheduler,
	settle *settlement.Service,
) *Handler {
	return &Handler{
		pipeline:   pipeline,
		adapter:    adapter,
		scheduler:  sched,
		settlement: settle,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/engine")
	{
		g.POST("/orders", h.PlaceOrder)
		g.GET("/orders", h.ListOrders)
		g.GET("/positions", h.GetPositions)
		g.GET("/balance", h.GetBalance)
		g.GET("/cycles", h.ListCycles)
		g.POST("/settlements", h.RunSettlement)
	}
}

type PlaceOrderReq struct {
	Symbol     string  `json:"symbol" binding:"required"`
	Side       string  `json:"side" binding:"required"`
	Quantity   string  `json:"quantity" binding:"required"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
}

// PlaceOrder 手工下单，与调度路径走同一条准入流水线
func (h *Handler) PlaceOrder(c *gin.Context) {
	var req PlaceOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	qty, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quantity"})
		return
	}

	sig := signal.TradeSignal{
		Symbol:     req.Symbol,
		Side:       req.Side,
		Quantity:   qty,
		Confidence: req.Confidence,
		Rationale:  req.Rationale,
	}

	orders, err := h.pipeline.ExecuteSignal(c.Request.Context(), sig, nil)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *Handler) ListOrders(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"orders": h.adapter.Orders()})
}

func (h *Handler) GetPositions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"positions": h.adapter.Positions()})
}

func (h *Handler) GetBalance(c *gin.Context) {
	account := h.adapter.Account()
	c.JSON(http.StatusOK, gin.H{
		"user_id":         account.UserID,
		"category":        account.Category,
		"balance":         account.Balance,
		"initial_balance": account.InitialBalance,
	})
}

func (h *Handler) ListCycles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"cycles": h.scheduler.History()})
}

type RunSettlementReq struct {
	GrossProfit    string `json:"gross_profit" binding:"required"`
	CurrentCapital string `json:"current_capital" binding:"required"`
}

// RunSettlement 对账户当前类别执行一次结算
func (h *Handler) RunSettlement(c *gin.Context) {
	var req RunSettlementReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	gross, err := decimal.NewFromString(req.GrossProfit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid gross_profit"})
		return
	}
	capital, err := decimal.NewFromString(req.CurrentCapital)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid current_capital"})
		return
	}

	account := h.adapter.Account()
	result, err := h.settlement.Settle(c.Request.Context(), account.UserID, gross, account.Category, capital)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
