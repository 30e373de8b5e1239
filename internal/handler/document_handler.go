package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/serabile/RagWebApp/internal/repository"
	"github.com/serabile/RagWebApp/internal/service"
)

// DocumentHandler 处理文档摄取相关的 API 请求。
type DocumentHandler struct {
	documentService service.DocumentService
	store           repository.Store
	defaultURL      string
}

// NewDocumentHandler 创建一个新的 DocumentHandler。
func NewDocumentHandler(documentService service.DocumentService, store repository.Store, defaultURL string) *DocumentHandler {
	return &DocumentHandler{documentService: documentService, store: store, defaultURL: defaultURL}
}

type processingRequest struct {
	File             string `json:"file"`
	ConversationName string `json:"conversation_name"`
}

// Process 处理 POST /api/processing：提交文档 URL 交由后端摄取。
// 校验失败与后端失败都以行内错误返回，不污染聊天记录。
func (h *DocumentHandler) Process(c *gin.Context) {
	var req processingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ctx := requestContext(c, h.store, h.defaultURL)
	result, err := h.documentService.ProcessDocument(ctx, req.File, req.ConversationName)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": "Failed to process document", "message": errorMessage(err)})
		return
	}
	c.JSON(http.StatusOK, result)
}
