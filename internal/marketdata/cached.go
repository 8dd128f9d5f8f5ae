package marketdata

import (
	"context"
	"sync"

	"github.com/wyfcoding/pkg/logging"
)

// CachedSource 缓存降级装饰器
// 底层来源瞬断时回放最近一次成功报价并打上降级标记，
// 从未见过的标的仍然拒绝报价
type CachedSource struct {
	upstream PriceSource

	mu   sync.RWMutex
	last map[string]Quote
}

// NewCachedSource 包装一个报价源
func NewCachedSource(upstream PriceSource) *CachedSource {
	return &CachedSource{
		upstream: upstream,
		last:     make(map[string]Quote),
	}
}

// Quote 优先取实时报价，失败时降级到缓存
func (c *CachedSource) Quote(ctx context.Context, symbol string) (Quote, error) {
	q, err := c.upstream.Quote(ctx, symbol)
	if err == nil {
		c.mu.Lock()
		c.last[symbol] = q
		c.mu.Unlock()
		return q, nil
	}

	c.mu.RLock()
	cached, ok := c.last[symbol]
	c.mu.RUnlock()
	if !ok {
		return Quote{}, err
	}

	logging.Warn(ctx, "price source degraded, serving cached quote",
		"symbol", symbol,
		"cached_price", cached.Price.String(),
		"error", err,
	)
	cached.Degraded = true
	return cached, nil
}
