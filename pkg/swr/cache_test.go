package swr

import (
	"testing"
	"time"
)

// TestCacheTTL 验证惰性过期语义：now - storedAt < ttl 时命中，否则未命中。
func TestCacheTTL(t *testing.T) {
	c := NewCache()
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Set("provinces", []string{"Aceh", "Bali"})

	if _, ok := c.Get("provinces", time.Hour); !ok {
		t.Fatal("新写入的条目应该在TTL内命中")
	}

	// 时钟前进到TTL边界上，条目应被视为过期
	now = now.Add(time.Hour)
	if _, ok := c.Get("provinces", time.Hour); ok {
		t.Fatal("超过TTL的条目不应命中")
	}

	// 过期条目保留给降级路径使用，但对不同的ttl参数仍按时间判定
	if _, ok := c.Get("provinces", 2*time.Hour); !ok {
		t.Fatal("同一条目在更长的ttl下应当命中")
	}
}

func TestCacheGetMissingKey(t *testing.T) {
	c := NewCache()
	if v, ok := c.Get("nope", time.Minute); ok || v != nil {
		t.Fatalf("不存在的key应返回(nil, false), got (%v, %v)", v, ok)
	}
}

// TestCacheInvalidateIdempotent 验证失效操作的幂等性：
// 对不存在或已失效的key重复调用不会出错。
func TestCacheInvalidateIdempotent(t *testing.T) {
	c := NewCache()
	c.Set("k", 1)
	c.Invalidate("k")
	c.Invalidate("k")
	c.Invalidate("never-existed")

	if _, ok := c.Get("k", time.Hour); ok {
		t.Fatal("已失效的key不应命中")
	}
}

func TestCachePeekIgnoresTTL(t *testing.T) {
	c := NewCache()
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Set("k", "stale-value")
	now = now.Add(24 * time.Hour)

	v, ok := c.Peek("k")
	if !ok || v.(string) != "stale-value" {
		t.Fatalf("Peek应无视TTL返回旧值, got (%v, %v)", v, ok)
	}
}

func TestCacheNamespaceIsolation(t *testing.T) {
	provinces := NewCache()
	leaderboard := NewCache()

	provinces.Set("list", "p")
	leaderboard.Set("list", "l")

	provinces.Invalidate("list")

	if _, ok := leaderboard.Get("list", time.Hour); !ok {
		t.Fatal("一个命名空间的失效不应影响另一个命名空间")
	}
}
