// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/serabile/RagWebApp/internal/model"
	"github.com/serabile/RagWebApp/internal/repository"
	"github.com/serabile/RagWebApp/pkg/log"
	"github.com/serabile/RagWebApp/pkg/ragclient"
)

// 客户端通过这个 header 携带单次请求的后端地址覆盖。
const endpointHeader = "X-RAG-API-Endpoint"

// 旧版前端把设置以 JSON 形式写进这个 cookie，保留兼容。
const settingsCookie = "rag-app-settings"

// ResolveBackendURL 解析本次请求应使用的后端地址：
// header 覆盖 → cookie 中的 apiEndpoint → fallback（持久化设置或环境默认值）。
// 纯函数，所有转发接口统一使用。
func ResolveBackendURL(header, cookieValue, fallback string) string {
	if header != "" {
		return header
	}
	if cookieValue != "" {
		var settings model.Settings
		if err := json.Unmarshal([]byte(cookieValue), &settings); err != nil {
			log.Warnf("解析设置 cookie 失败: %v", err)
		} else if settings.APIEndpoint != "" {
			return settings.APIEndpoint
		}
	}
	return fallback
}

// requestContext 把解析出的后端地址挂到请求上下文，
// 供 ragclient 在本次调用中覆盖默认 base URL。
func requestContext(c *gin.Context, store repository.Store, defaultURL string) context.Context {
	fallback := defaultURL
	if settings, err := store.LoadSettings(c.Request.Context()); err == nil && settings.APIEndpoint != "" {
		fallback = settings.APIEndpoint
	}
	cookieValue, _ := c.Cookie(settingsCookie)
	url := ResolveBackendURL(c.GetHeader(endpointHeader), cookieValue, fallback)
	return ragclient.ContextWithBaseURL(c.Request.Context(), url)
}

// statusForError 把分类后的错误映射为 HTTP 状态码。
// 后端返回过状态码的错误原样透传，其余按类别给默认值。
func statusForError(err error) int {
	var httpErr *ragclient.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status
	}
	apiErr := ragclient.Classify(err)
	switch apiErr.Kind {
	case ragclient.KindNetwork:
		return http.StatusBadGateway
	case ragclient.KindAuth:
		return http.StatusUnauthorized
	case ragclient.KindNotFound:
		return http.StatusNotFound
	case ragclient.KindProcessing:
		return http.StatusBadRequest
	case ragclient.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage 返回适合展示给用户的错误文案。
func errorMessage(err error) string {
	return ragclient.Classify(err).Message
}
