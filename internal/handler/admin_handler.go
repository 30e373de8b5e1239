package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/serabile/RagWebApp/internal/repository"
	"github.com/serabile/RagWebApp/pkg/ragclient"
)

// AdminHandler 处理破坏性的管理操作。
type AdminHandler struct {
	client     ragclient.Client
	store      repository.Store
	defaultURL string
}

// NewAdminHandler 创建一个新的 AdminHandler。
func NewAdminHandler(client ragclient.Client, store repository.Store, defaultURL string) *AdminHandler {
	return &AdminHandler{client: client, store: store, defaultURL: defaultURL}
}

// ClearDatabase 处理 DELETE /api/database：清空服务端全部文档与向量数据。
// 绝不重试；任何失败立即返回，由用户决定是否重新发起。
func (h *AdminHandler) ClearDatabase(c *gin.Context) {
	ctx := requestContext(c, h.store, h.defaultURL)
	result, err := h.client.ClearDatabase(ctx)
	if err != nil {
		c.JSON(statusForError(err), gin.H{
			"status":  "error",
			"message": errorMessage(err),
		})
		return
	}
	c.JSON(http.StatusOK, result)
}
