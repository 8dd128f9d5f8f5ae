// Package notification 通知协作方
// 自带每用户每日上限，独立于核心流水线执行
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/wyfcoding/pkg/logging"
)

// DailyCapPerUser 每用户每日通知上限
const DailyCapPerUser = 5

// Notifier 通知接口
type Notifier interface {
	Notify(ctx context.Context, userID, subject, body string) bool
}

// CappedNotifier 带日上限的通知器
// 日切在每次调用时惰性检测，进程跨午夜空闲也不会漏重置
type CappedNotifier struct {
	mu        sync.Mutex
	counts    map[string]int
	lastReset time.Time

	now func() time.Time
}

// NewCappedNotifier 构造函数
func NewCappedNotifier() *CappedNotifier {
	n := &CappedNotifier{
		counts: make(map[string]int),
		now:    time.Now,
	}
	n.lastReset = n.today()
	return n
}

// Notify 发送一条通知，超出当日上限时丢弃并返回 false
func (n *CappedNotifier) Notify(ctx context.Context, userID, subject, body string) bool {
	n.mu.Lock()
	n.resetIfNewDay()
	if n.counts[userID] >= DailyCapPerUser {
		n.mu.Unlock()
		logging.Warn(ctx, "notification dropped, daily cap reached",
			"user_id", userID, "subject", subject)
		return false
	}
	n.counts[userID]++
	sent := n.counts[userID]
	n.mu.Unlock()

	logging.Info(ctx, "notification delivered",
		"user_id", userID,
		"subject", subject,
		"body", body,
		"sent_today", sent,
	)
	return true
}

func (n *CappedNotifier) today() time.Time {
	y, m, d := n.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

// resetIfNewDay 惰性日切，调用方持锁
func (n *CappedNotifier) resetIfNewDay() {
	if today := n.today(); today.After(n.lastReset) {
		n.counts = make(map[string]int)
		n.lastReset = today
	}
}
