package swr

import (
	"sync"
	"time"
)

// Cache 是一个命名空间级别的内存缓存，存储 key -> (value, storedAt)。
// 每个逻辑命名空间（省份列表、排行榜、用户统计等）各持有一个独立实例，
// 因此对一个命名空间的失效操作永远不会波及其他命名空间。
//
// 过期采用惰性策略：没有后台清扫协程，过期条目在下一次Get时被丢弃。
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry

	// now 允许测试注入时钟
	now func() time.Time
}

type cacheEntry struct {
	value    any
	storedAt time.Time
}

// NewCache 创建一个空的缓存命名空间。
func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Get 返回key对应的值，仅当 now - storedAt < ttl 时命中。
// 过期条目返回未命中但不被删除：stale-while-revalidate需要在重新获取
// 失败时继续展示旧值（通过Peek），条目只在Invalidate或覆盖写入时消亡。
// Get从不返回错误。
func (c *Cache) Get(key string, ttl time.Duration) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.storedAt) >= ttl {
		return nil, false
	}
	return e.value, true
}

// Peek 返回key对应的值而不检查TTL，用于“展示旧数据”的降级路径。
func (c *Cache) Peek(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Set 写入或覆盖一个条目，并记录写入时刻。
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: value, storedAt: c.now()}
}

// Invalidate 删除一个条目。对不存在的key调用是无害的no-op。
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Len 返回当前持有的条目数（含已过期但尚未被失效的条目）。
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
