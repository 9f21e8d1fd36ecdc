package swr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client 是获取层使用的HTTP客户端。
// 它负责把后端统一的 {data, error, success} 响应包装解开，
// 并把非2xx的响应归一化为本包定义的类型化错误。
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Envelope 对应后端所有JSON接口共用的响应包装。
type Envelope struct {
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error,omitempty"`
	Success *bool           `json:"success,omitempty"`
}

// NewClient 创建一个带有限定超时的HTTP客户端。
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GetJSON 发起GET请求并把envelope中的data解码到out。
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// PostJSON 发起POST请求，body会被编码为JSON。
func (c *Client) PostJSON(ctx context.Context, path string, body any, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("无法编码请求体: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("无法构造请求: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// 超时与传输错误都不会让调用方崩溃，而是作为类型化错误返回
		if errors.Is(err, context.DeadlineExceeded) || isClientTimeout(err) {
			return &TimeoutError{Resource: path, Err: err}
		}
		return &TransientError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransientError{Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &NotFoundError{Resource: path}
	case resp.StatusCode >= 500:
		return &TransientError{Status: resp.StatusCode, Err: errors.New(snippet(raw))}
	case resp.StatusCode >= 400:
		// 4xx是确定性拒绝，归入不可重试的错误类别
		return &ValidationError{Status: resp.StatusCode, Err: errors.New(snippet(raw))}
	}

	if out == nil {
		return nil
	}

	// 优先按envelope解码；没有data字段的老接口直接整体解码
	var env Envelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Data != nil {
		if env.Error != "" {
			return &TransientError{Status: resp.StatusCode, Err: errors.New(env.Error)}
		}
		return json.Unmarshal(env.Data, out)
	}
	return json.Unmarshal(raw, out)
}

// isClientTimeout 识别 net/http 客户端超时错误。
func isClientTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

func snippet(raw []byte) string {
	const max = 200
	if len(raw) > max {
		raw = raw[:max]
	}
	return string(raw)
}
