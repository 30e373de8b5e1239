package ragclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Kind 是错误分类的类别。
type Kind string

const (
	KindNetwork    Kind = "network"
	KindAuth       Kind = "auth"
	KindNotFound   Kind = "not_found"
	KindProcessing Kind = "processing"
	KindTimeout    Kind = "timeout"
	KindUnknown    Kind = "unknown"
)

// 每个类别对应一条固定的、可直接展示给用户的提示语。
// processing 类别例外：后端自身的 message 足够具体且安全，优先透传。
const (
	msgNetwork    = "Cannot connect to the server. Please check your network connection."
	msgAuth       = "Authentication failed. Please check your API key."
	msgNotFound   = "The requested resource was not found."
	msgProcessing = "Invalid request. Please check your input."
	msgTimeout    = "Request timed out. The server is taking too long to respond."
	msgUnknown    = "An unexpected error occurred."
)

// APIError 是在边界处一次性构造、之后不再修改的分类错误。
// Cause 保留原始错误用于诊断。
type APIError struct {
	Kind      Kind
	Message   string
	Retryable bool
	Cause     error
}

func (e *APIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Cause
}

// HTTPError 携带后端返回的非 2xx 状态码以及从错误响应体中解析出的消息。
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

// Classify 将一次失败的网络调用映射为带类别的 APIError。
// 规则按顺序匹配，命中即返回；纯函数，无副作用。
func Classify(err error) *APIError {
	if err == nil {
		return nil
	}

	// 已经分类过的错误原样返回，避免二次包装
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	// 1. 传输层失败，未收到任何响应（超时除外，见规则 5）
	var urlErr *url.Error
	if errors.As(err, &urlErr) && !urlErr.Timeout() {
		return &APIError{Kind: KindNetwork, Message: msgNetwork, Retryable: true, Cause: err}
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.Status {
		// 2. 认证失败
		case 401, 403:
			return &APIError{Kind: KindAuth, Message: msgAuth, Retryable: false, Cause: err}
		// 3. 资源不存在
		case 404:
			return &APIError{Kind: KindNotFound, Message: msgNotFound, Retryable: false, Cause: err}
		// 4. 请求内容问题（参数校验、文件格式等），透传服务端消息
		case 400, 422:
			msg := httpErr.Message
			if msg == "" {
				msg = msgProcessing
			}
			return &APIError{Kind: KindProcessing, Message: msg, Retryable: false, Cause: err}
		}
	}

	// 5. 超时
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) ||
		strings.Contains(strings.ToLower(err.Error()), "timeout") {
		return &APIError{Kind: KindTimeout, Message: msgTimeout, Retryable: true, Cause: err}
	}

	// 6. 其余情况
	return &APIError{Kind: KindUnknown, Message: msgUnknown, Retryable: true, Cause: err}
}
