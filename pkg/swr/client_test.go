package swr

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// TestClientEnvelope 验证 {data, error, success} 响应包装的解码。
func TestClientEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": {"totalUsers": 12, "totalActivities": 40}, "success": true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)

	var out struct {
		TotalUsers      int `json:"totalUsers"`
		TotalActivities int `json:"totalActivities"`
	}
	if err := c.GetJSON(context.Background(), "/api/stats", &out); err != nil {
		t.Fatalf("GetJSON失败: %v", err)
	}
	if out.TotalUsers != 12 || out.TotalActivities != 40 {
		t.Fatalf("解码结果不正确: %+v", out)
	}
}

// TestClientErrorMapping 验证非2xx响应被归一化为类型化错误。
func TestClientErrorMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
		case "/broken":
			w.WriteHeader(http.StatusInternalServerError)
		case "/rejected":
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)

	err := c.GetJSON(context.Background(), "/missing", nil)
	if !IsNotFound(err) {
		t.Fatalf("404应映射为NotFoundError, got %v", err)
	}

	err = c.GetJSON(context.Background(), "/broken", nil)
	if !IsTransient(err) {
		t.Fatalf("500应映射为TransientError, got %v", err)
	}

	err = c.GetJSON(context.Background(), "/rejected", nil)
	if !IsValidation(err) {
		t.Fatalf("400应映射为ValidationError, got %v", err)
	}
	if IsTransient(err) {
		t.Fatal("400不应被归类为可重试的瞬时错误")
	}
}

// TestClientRejectionNotRetried 验证确定性的4xx拒绝不消耗重试配额：
// 服务端只会被命中一次。
func TestClientRejectionNotRetried(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	r := NewResource("stats", Config{
		TTL:           time.Minute,
		RetryCount:    2,
		RetryInterval: time.Millisecond,
	}, nil, func(ctx context.Context, key string) (string, error) {
		var out string
		if err := c.GetJSON(ctx, "/api/stats", &out); err != nil {
			return "", err
		}
		return out, nil
	})

	_, err := r.Get(context.Background(), "global")
	if !IsValidation(err) {
		t.Fatalf("期望ValidationError透传给调用方, got %v", err)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("4xx拒绝不应重试, 服务端被命中%d次", n)
	}
}

// TestClientTimeout 验证无响应的请求在限定时间内返回TimeoutError而不是挂起。
func TestClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 50*time.Millisecond)

	start := time.Now()
	err := c.GetJSON(context.Background(), "/slow", nil)
	if !IsTimeout(err) {
		t.Fatalf("期望TimeoutError, got %v", err)
	}
	if time.Since(start) > 300*time.Millisecond {
		t.Fatal("超时应当在限定时间附近返回")
	}
}

func TestClientPlainBody(t *testing.T) {
	// 不带envelope的接口直接整体解码
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"name":"Aceh"},{"name":"Bali"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	var out []struct {
		Name string `json:"name"`
	}
	if err := c.GetJSON(context.Background(), "/api/provinces", &out); err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 || out[0].Name != "Aceh" {
		t.Fatalf("解码结果不正确: %+v", out)
	}
}
