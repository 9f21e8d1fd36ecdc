package swr

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// TestDedupConcurrentCallers 验证去重属性：
// 去重窗口内对同一key的并发请求只发起一次网络请求，所有调用方得到同一个值。
func TestDedupConcurrentCallers(t *testing.T) {
	var fetchCount int32
	r := NewResource("leaderboard", Config{
		TTL:              time.Minute,
		DedupingInterval: time.Minute,
	}, nil, func(ctx context.Context, key string) (string, error) {
		atomic.AddInt32(&fetchCount, 1)
		time.Sleep(50 * time.Millisecond)
		return "rank-data", nil
	})

	const callers = 8
	results := make([]string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := r.Get(context.Background(), "users")
			if err != nil {
				t.Errorf("caller %d: %v", i, err)
			}
			results[i] = v
		}(i)
	}
	wg.Wait()

	if n := atomic.LoadInt32(&fetchCount); n != 1 {
		t.Fatalf("期望恰好1次网络请求, got %d", n)
	}
	for i, v := range results {
		if v != "rank-data" {
			t.Fatalf("caller %d 得到了不同的值: %q", i, v)
		}
	}
}

// TestStaleRequestDiscard 验证乱序完成的丢弃：
// R1先发起，R2（Mutate）后发起先完成，R1完成后不得覆盖R2写入的缓存。
func TestStaleRequestDiscard(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var call int32

	r := NewResource("stats", Config{
		TTL: time.Minute,
	}, nil, func(ctx context.Context, key string) (string, error) {
		if atomic.AddInt32(&call, 1) == 1 {
			close(started)
			<-release // R1挂起，直到测试放行
			return "r1-result", nil
		}
		return "r2-result", nil
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Get(context.Background(), "global")
	}()
	<-started

	// R2绕过去重窗口，先于R1完成并写入缓存
	v, err := r.Mutate(context.Background(), "global")
	if err != nil {
		t.Fatalf("Mutate失败: %v", err)
	}
	if v != "r2-result" {
		t.Fatalf("Mutate应返回R2的结果, got %q", v)
	}

	close(release)
	<-done

	cached, ok := r.Cache().Peek("global")
	if !ok {
		t.Fatal("缓存中应该有值")
	}
	if cached.(string) != "r2-result" {
		t.Fatalf("最终缓存值应为R2的结果, got %q", cached.(string))
	}
}

// TestErrorKeepsStaleValue 验证失败语义：
// 获取失败时error被填充，data保留上一次成功的值（stale-but-shown）。
func TestErrorKeepsStaleValue(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)

	r := NewResource("provinces", Config{
		TTL:              20 * time.Millisecond,
		DedupingInterval: 0,
	}, nil, func(ctx context.Context, key string) (string, error) {
		if healthy.Load() {
			return "fresh-list", nil
		}
		return "", &TransientError{Status: 502, Err: errors.New("bad gateway")}
	})

	if v, err := r.Get(context.Background(), "all"); err != nil || v != "fresh-list" {
		t.Fatalf("首次获取应成功, got (%q, %v)", v, err)
	}

	healthy.Store(false)
	time.Sleep(30 * time.Millisecond) // 等待TTL过期，强制重新获取

	v, err := r.Get(context.Background(), "all")
	if !IsTransient(err) {
		t.Fatalf("期望TransientError, got %v", err)
	}
	if v != "fresh-list" {
		t.Fatalf("失败时应保留旧值, got %q", v)
	}
}

// TestDisabledKey 验证空key是一等的禁用状态：不发请求、不报错。
func TestDisabledKey(t *testing.T) {
	var fetchCount int32
	r := NewResource("user-stats", Config{TTL: time.Minute}, nil,
		func(ctx context.Context, key string) (int, error) {
			atomic.AddInt32(&fetchCount, 1)
			return 42, nil
		})

	v, err := r.Get(context.Background(), "")
	if err != nil {
		t.Fatalf("禁用状态不应返回错误: %v", err)
	}
	if v != 0 {
		t.Fatalf("禁用状态应返回零值, got %d", v)
	}
	if atomic.LoadInt32(&fetchCount) != 0 {
		t.Fatal("禁用状态不应发起任何请求")
	}

	unsub := r.Subscribe("", func(Snapshot[int]) {})
	unsub()
	if atomic.LoadInt32(&fetchCount) != 0 {
		t.Fatal("订阅禁用key也不应发起请求")
	}
}

// TestRetryBounded 验证瞬时错误的有界重试：RetryCount=2时总共尝试3次。
func TestRetryBounded(t *testing.T) {
	var fetchCount int32
	r := NewResource("stats", Config{
		TTL:           time.Minute,
		RetryCount:    2,
		RetryInterval: time.Millisecond,
	}, nil, func(ctx context.Context, key string) (string, error) {
		atomic.AddInt32(&fetchCount, 1)
		return "", &TransientError{Err: errors.New("connection refused")}
	})

	_, err := r.Get(context.Background(), "global")
	if !IsTransient(err) {
		t.Fatalf("期望TransientError, got %v", err)
	}
	if n := atomic.LoadInt32(&fetchCount); n != 3 {
		t.Fatalf("RetryCount=2应该总共尝试3次, got %d", n)
	}
}

// TestNotFoundNotRetried 验证确定性失败（404）不触发重试。
func TestNotFoundNotRetried(t *testing.T) {
	var fetchCount int32
	r := NewResource("profile", Config{
		TTL:           time.Minute,
		RetryCount:    3,
		RetryInterval: time.Millisecond,
	}, nil, func(ctx context.Context, key string) (string, error) {
		atomic.AddInt32(&fetchCount, 1)
		return "", &NotFoundError{Resource: key}
	})

	_, err := r.Get(context.Background(), "u-404")
	if !IsNotFound(err) {
		t.Fatalf("期望NotFoundError, got %v", err)
	}
	if n := atomic.LoadInt32(&fetchCount); n != 1 {
		t.Fatalf("404不应重试, got %d 次尝试", n)
	}
}

// TestSubscribeReceivesUpdates 验证订阅接口：
// 缓存写入后订阅者收到新快照；取消订阅后不再收到。
func TestSubscribeReceivesUpdates(t *testing.T) {
	r := NewResource("leaderboard", Config{TTL: time.Minute}, nil,
		func(ctx context.Context, key string) (string, error) {
			return "v1", nil
		})

	var mu sync.Mutex
	var got []Snapshot[string]
	unsub := r.Subscribe("users", func(s Snapshot[string]) {
		mu.Lock()
		got = append(got, s)
		mu.Unlock()
	})

	if _, err := r.Mutate(context.Background(), "users"); err != nil {
		t.Fatalf("Mutate失败: %v", err)
	}

	mu.Lock()
	last := got[len(got)-1]
	mu.Unlock()
	if !last.HasData || last.Data != "v1" {
		t.Fatalf("订阅者应收到写入后的快照, got %+v", last)
	}

	// 取消订阅是幂等的
	unsub()
	unsub()

	mu.Lock()
	n := len(got)
	mu.Unlock()
	r.Mutate(context.Background(), "users")
	mu.Lock()
	defer mu.Unlock()
	if len(got) != n {
		t.Fatal("取消订阅后不应再收到通知")
	}
}

// TestDedupeWindowServesStale 验证去重窗口内的顺序调用直接复用上次结果。
func TestDedupeWindowServesStale(t *testing.T) {
	var fetchCount int32
	r := NewResource("provinces", Config{
		TTL:              time.Millisecond, // TTL先于去重窗口过期
		DedupingInterval: time.Minute,
	}, nil, func(ctx context.Context, key string) (string, error) {
		atomic.AddInt32(&fetchCount, 1)
		return "list", nil
	})

	if _, err := r.Get(context.Background(), "all"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)

	v, err := r.Get(context.Background(), "all")
	if err != nil || v != "list" {
		t.Fatalf("窗口内应返回旧值, got (%q, %v)", v, err)
	}
	if n := atomic.LoadInt32(&fetchCount); n != 1 {
		t.Fatalf("去重窗口内不应发起第二次请求, got %d", n)
	}
}

// TestMutateAlwaysWinsUnderRace 反复制造旧请求与Mutate的交错完成，
// 无论旧请求在哪个时刻写回，缓存的最终值必须是Mutate（更高序号）的结果。
// 这要求applied检查与缓存写入是一个原子步骤。
func TestMutateAlwaysWinsUnderRace(t *testing.T) {
	for i := 0; i < 300; i++ {
		var call int32
		started := make(chan struct{})
		r := NewResource("stats", Config{
			TTL: time.Minute,
		}, nil, func(ctx context.Context, key string) (string, error) {
			if atomic.AddInt32(&call, 1) == 1 {
				close(started)
				// 让旧请求的完成时刻落在Mutate生命周期的各个位置上
				time.Sleep(time.Duration(i%7) * 100 * time.Microsecond)
				return "old", nil
			}
			return "new", nil
		})

		done := make(chan struct{})
		go func() {
			defer close(done)
			r.Get(context.Background(), "global")
		}()
		<-started

		if _, err := r.Mutate(context.Background(), "global"); err != nil {
			t.Fatalf("第%d轮Mutate失败: %v", i, err)
		}
		<-done

		v, ok := r.Cache().Peek("global")
		if !ok {
			t.Fatalf("第%d轮缓存为空", i)
		}
		if v.(string) != "new" {
			t.Fatalf("第%d轮旧请求的结果覆盖了Mutate写入的新值", i)
		}
	}
}
