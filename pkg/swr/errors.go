package swr

import (
	"errors"
	"fmt"
)

// 本文件定义了获取层的错误分类。
// 这些错误都以值的形式返回给调用方，不会越过包边界抛出panic。

// TransientError 表示一次可重试的瞬时失败（网络错误或5xx响应）。
// 调用方应继续展示上一次成功的数据。
type TransientError struct {
	Status int
	Err    error
}

func (e *TransientError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("瞬时获取失败 (HTTP %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("瞬时获取失败: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NotFoundError 表示资源确实不存在（404）。
// 它与瞬时错误严格区分，调用方应渲染空状态而不是无限重试。
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("资源不存在: %s", e.Resource)
}

// ValidationError 表示请求被服务端确定性拒绝（404以外的4xx，如参数校验失败）。
// 这类失败重试也不会成功，获取层应立即返回而不是消耗重试配额。
type ValidationError struct {
	Status int
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("请求被拒绝 (HTTP %d): %v", e.Status, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// TimeoutError 表示请求在限定时间内没有得到响应。
type TimeoutError struct {
	Resource string
	Err      error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("请求 %s 超时: %v", e.Resource, e.Err)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// IsTransient 判断一个错误是否为可重试的瞬时错误。
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsValidation 判断一个错误是否为确定性的客户端错误。
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound 判断一个错误是否为资源不存在。
func IsNotFound(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe)
}

// IsTimeout 判断一个错误是否为超时。
func IsTimeout(err error) bool {
	var toe *TimeoutError
	return errors.As(err, &toe)
}
