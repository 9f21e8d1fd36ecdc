package swr

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Config 定义了单个资源类型的stale-while-revalidate策略。
// 每种资源按自身的波动性选择参数：近乎静态的参照数据（省份列表）
// 使用小时级的窗口并关闭焦点重验证；高频数据（排行榜）使用秒级窗口。
type Config struct {
	// TTL 是缓存条目的新鲜期，超过后Get会触发重新获取。
	TTL time.Duration
	// DedupingInterval 是请求去重窗口，窗口内对同一key的重复请求被合并。
	DedupingInterval time.Duration
	// RefreshInterval 大于0时，对已订阅的key按此间隔后台刷新。
	RefreshInterval time.Duration
	// RevalidateOnFocus / RevalidateOnReconnect 控制相应事件是否触发重验证。
	RevalidateOnFocus     bool
	RevalidateOnReconnect bool
	// RetryCount 是瞬时错误的最大重试次数（不含首次尝试）。
	RetryCount int
	// RetryInterval 是两次重试之间的固定间隔。
	RetryInterval time.Duration
	// Timeout 是单次获取的超时上限，超过后返回TimeoutError而不是无限等待。
	Timeout time.Duration
}

// FetchFunc 是资源的获取函数，通常由Client的GetJSON封装而来。
type FetchFunc[T any] func(ctx context.Context, key string) (T, error)

// Snapshot 是暴露给订阅者的当前状态，对应 {data, error, isLoading}。
type Snapshot[T any] struct {
	Data      T
	Err       error
	IsLoading bool
	HasData   bool
}

// Resource 管理一种资源类型的获取、缓存与订阅。
// 空字符串key表示“禁用”状态（例如身份尚未就绪）：不发起任何请求，
// 这是一个合法的一等状态而不是错误。
type Resource[T any] struct {
	name  string
	cfg   Config
	fetch FetchFunc[T]
	cache *Cache
	group singleflight.Group

	mu   sync.Mutex
	keys map[string]*keyState[T]
}

// keyState 记录单个key的请求序号与订阅者。
type keyState[T any] struct {
	// issued 是单调递增的请求序号；applied 是最近一次成功写入缓存的序号。
	// 迟到的过期响应（issued序号小于applied）会被丢弃，保证last-write-wins
	// 以请求发起顺序为准。
	issued  uint64
	applied uint64

	lastStart time.Time
	inflight  int
	lastErr   error

	subs        map[int]func(Snapshot[T])
	nextSubID   int
	stopRefresh chan struct{}
}

// NewResource 创建一个资源。cache为nil时自动创建独立的命名空间缓存；
// 显式传入cache是为了让上层按命名空间注入和隔离（以及测试隔离）。
func NewResource[T any](name string, cfg Config, cache *Cache, fetch FetchFunc[T]) *Resource[T] {
	if cache == nil {
		cache = NewCache()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = time.Minute
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 500 * time.Millisecond
	}
	return &Resource[T]{
		name:  name,
		cfg:   cfg,
		fetch: fetch,
		cache: cache,
		keys:  make(map[string]*keyState[T]),
	}
}

// Cache 返回资源持有的命名空间缓存。
func (r *Resource[T]) Cache() *Cache {
	return r.cache
}

// state 返回key的状态，不存在时就地创建。调用方必须持有r.mu。
func (r *Resource[T]) state(key string) *keyState[T] {
	st, ok := r.keys[key]
	if !ok {
		st = &keyState[T]{subs: make(map[int]func(Snapshot[T]))}
		r.keys[key] = st
	}
	return st
}

// Get 返回key对应的数据。
// 命中新鲜缓存时直接返回；去重窗口内优先返回旧值（stale-while-revalidate）；
// 否则发起获取，并发的调用会被合并为一次网络请求。
func (r *Resource[T]) Get(ctx context.Context, key string) (T, error) {
	var zero T
	if key == "" {
		return zero, nil
	}

	if v, ok := r.cache.Get(key, r.cfg.TTL); ok {
		return v.(T), nil
	}

	r.mu.Lock()
	st := r.state(key)
	withinDedupe := !st.lastStart.IsZero() && time.Since(st.lastStart) < r.cfg.DedupingInterval
	lastErr := st.lastErr
	r.mu.Unlock()

	if withinDedupe {
		// 窗口内不再发起新请求：有旧值返回旧值（可能携带上次的错误），
		// 没有旧值则汇入在途请求。
		if v, ok := r.cache.Peek(key); ok {
			return v.(T), lastErr
		}
	}

	return r.revalidate(key, false)
}

// Mutate 绕过去重窗口，立即发起一次重验证。
// 失效协调器在状态变更后通过它强制刷新受影响的key。
func (r *Resource[T]) Mutate(ctx context.Context, key string) (T, error) {
	var zero T
	if key == "" {
		return zero, nil
	}
	return r.revalidate(key, true)
}

// Invalidate 丢弃key的缓存条目；如果该key有订阅者，异步触发一次重验证。
// 对已失效或不存在的key调用是幂等的no-op。
func (r *Resource[T]) Invalidate(key string) {
	if key == "" {
		return
	}
	r.cache.Invalidate(key)

	r.mu.Lock()
	st, ok := r.keys[key]
	hasSubs := ok && len(st.subs) > 0
	r.mu.Unlock()

	if hasSubs {
		go r.revalidate(key, true)
	}
}

// Subscribe 注册一个订阅回调，返回取消函数。
// 回调在每次该key的状态变化（缓存写入或错误）后被调用。
// 取消订阅不会中断在途请求：缓存写入仍会发生，
// 这保证了去重对其余并发订阅者依然正确。
func (r *Resource[T]) Subscribe(key string, fn func(Snapshot[T])) (unsubscribe func()) {
	if key == "" {
		return func() {}
	}

	r.mu.Lock()
	st := r.state(key)
	id := st.nextSubID
	st.nextSubID++
	st.subs[id] = fn
	if len(st.subs) == 1 && r.cfg.RefreshInterval > 0 {
		stop := make(chan struct{})
		st.stopRefresh = stop
		go r.refreshLoop(key, stop)
	}
	r.mu.Unlock()

	// 立即用当前快照回调一次，让订阅者拿到已有数据
	fn(r.SnapshotOf(key))

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		st, ok := r.keys[key]
		if !ok {
			return
		}
		if _, present := st.subs[id]; !present {
			return
		}
		delete(st.subs, id)
		if len(st.subs) == 0 && st.stopRefresh != nil {
			close(st.stopRefresh)
			st.stopRefresh = nil
		}
	}
}

// SnapshotOf 返回key的当前状态快照。
func (r *Resource[T]) SnapshotOf(key string) Snapshot[T] {
	var snap Snapshot[T]
	if key == "" {
		return snap
	}
	if v, ok := r.cache.Peek(key); ok {
		snap.Data = v.(T)
		snap.HasData = true
	}
	r.mu.Lock()
	if st, ok := r.keys[key]; ok {
		snap.Err = st.lastErr
		snap.IsLoading = st.inflight > 0 && !snap.HasData
	}
	r.mu.Unlock()
	return snap
}

// NotifyFocus 通知所有已订阅的key窗口重新获得焦点。
func (r *Resource[T]) NotifyFocus() {
	if !r.cfg.RevalidateOnFocus {
		return
	}
	r.revalidateSubscribed()
}

// NotifyReconnect 通知所有已订阅的key网络已恢复。
func (r *Resource[T]) NotifyReconnect() {
	if !r.cfg.RevalidateOnReconnect {
		return
	}
	r.revalidateSubscribed()
}

func (r *Resource[T]) revalidateSubscribed() {
	r.mu.Lock()
	keys := make([]string, 0, len(r.keys))
	for k, st := range r.keys {
		if len(st.subs) > 0 {
			keys = append(keys, k)
		}
	}
	r.mu.Unlock()

	for _, k := range keys {
		go r.Get(context.Background(), k)
	}
}

// revalidate 是所有网络请求的唯一入口。
// singleflight保证同一key同一时刻只有一个在途请求；bypassDedupe为真时
// （Mutate路径）先Forget再发起，新请求会获得更高的序号并取得写入权。
func (r *Resource[T]) revalidate(key string, bypassDedupe bool) (T, error) {
	var zero T
	if bypassDedupe {
		r.group.Forget(key)
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		r.mu.Lock()
		st := r.state(key)
		st.issued++
		seq := st.issued
		st.lastStart = time.Now()
		st.inflight++
		r.mu.Unlock()
		r.notify(key)

		val, ferr := r.fetchWithRetry(key)

		r.mu.Lock()
		st.inflight--
		if ferr != nil {
			st.lastErr = ferr
			r.mu.Unlock()
			r.notify(key)
			return nil, ferr
		}
		if seq < st.applied {
			// 过期响应：缓存已被更新的请求覆盖，直接丢弃本次结果
			r.mu.Unlock()
			return val, nil
		}
		st.applied = seq
		st.lastErr = nil
		// 缓存写入必须与applied的推进在同一临界区内完成：
		// 否则过期请求可能在通过检查后、写入前被更新的请求插队，
		// 最终让旧值覆盖新值
		r.cache.Set(key, val)
		r.mu.Unlock()

		r.notify(key)
		return val, nil
	})

	if err != nil {
		// 获取失败时保留上一次成功的值：旧数据与错误并存
		if old, ok := r.cache.Peek(key); ok {
			return old.(T), err
		}
		return zero, err
	}
	return v.(T), nil
}

// fetchWithRetry 执行一次获取，瞬时错误按配置做有界重试。
// 这里刻意使用独立于调用方的context：订阅者取消订阅不应阻止
// 请求完成和缓存写入。
func (r *Resource[T]) fetchWithRetry(key string) (T, error) {
	var zero T
	var lastErr error

	attempts := r.cfg.RetryCount + 1
	if attempts < 1 {
		attempts = 1
	}

	for i := 0; i < attempts; i++ {
		ctx := context.Background()
		cancel := context.CancelFunc(func() {})
		if r.cfg.Timeout > 0 {
			ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		}
		val, err := r.fetch(ctx, key)
		cancel()
		if err == nil {
			return val, nil
		}
		lastErr = err
		// 只有瞬时错误和超时值得重试；404等确定性失败立即返回
		if !IsTransient(err) && !IsTimeout(err) {
			break
		}
		if i < attempts-1 {
			time.Sleep(r.cfg.RetryInterval)
		}
	}
	return zero, lastErr
}

func (r *Resource[T]) refreshLoop(key string, stop chan struct{}) {
	ticker := time.NewTicker(r.cfg.RefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.revalidate(key, false)
		}
	}
}

// notify 在锁外把当前快照分发给所有订阅者。
func (r *Resource[T]) notify(key string) {
	r.mu.Lock()
	st, ok := r.keys[key]
	if !ok || len(st.subs) == 0 {
		r.mu.Unlock()
		return
	}
	fns := make([]func(Snapshot[T]), 0, len(st.subs))
	for _, fn := range st.subs {
		fns = append(fns, fn)
	}
	r.mu.Unlock()

	snap := r.SnapshotOf(key)
	for _, fn := range fns {
		fn(snap)
	}
}
