package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/serabile/RagWebApp/internal/model"
	"github.com/serabile/RagWebApp/internal/repository"
	"github.com/serabile/RagWebApp/internal/service"
	"github.com/serabile/RagWebApp/pkg/ragclient"
)

// ConversationHandler 处理与会话相关的 API 请求。
type ConversationHandler struct {
	conversationService service.ConversationService
	client              ragclient.Client
	store               repository.Store
	defaultURL          string
}

// NewConversationHandler 创建一个新的 ConversationHandler。
func NewConversationHandler(conversationService service.ConversationService, client ragclient.Client, store repository.Store, defaultURL string) *ConversationHandler {
	return &ConversationHandler{
		conversationService: conversationService,
		client:              client,
		store:               store,
		defaultURL:          defaultURL,
	}
}

// List 处理 GET /api/conversations。
func (h *ConversationHandler) List(c *gin.Context) {
	ctx := requestContext(c, h.store, h.defaultURL)
	conversations, err := h.conversationService.List(ctx)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": "Failed to retrieve conversations", "message": errorMessage(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

type createConversationRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Create 处理 POST /api/conversations。创建操作不重试，失败立即返回。
func (h *ConversationHandler) Create(c *gin.Context) {
	var req createConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ctx := requestContext(c, h.store, h.defaultURL)
	conv, err := h.conversationService.Create(ctx, req.Name, req.Description)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": "Failed to create conversation", "message": errorMessage(err)})
		return
	}
	c.JSON(http.StatusOK, conv)
}

// Delete 处理 DELETE /api/conversations/:conversationId。
func (h *ConversationHandler) Delete(c *gin.Context) {
	id := c.Param("conversationId")

	ctx := requestContext(c, h.store, h.defaultURL)
	if err := h.conversationService.Delete(ctx, id); err != nil {
		c.JSON(statusForError(err), gin.H{"error": "Failed to delete conversation", "message": errorMessage(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// GetQA 处理 GET /api/conversations/:conversationId/qa，
// 错误时返回带空 qa_pairs 的信封，界面永远有内容可渲染。
func (h *ConversationHandler) GetQA(c *gin.Context) {
	id := c.Param("conversationId")

	ctx := requestContext(c, h.store, h.defaultURL)
	pairs, err := h.client.GetConversationQA(ctx, id)
	if err != nil {
		c.JSON(statusForError(err), gin.H{
			"status":          "error",
			"conversation_id": id,
			"qa_pairs":        []model.QuestionAnswer{},
			"message":         errorMessage(err),
		})
		return
	}
	if pairs == nil {
		pairs = []model.QuestionAnswer{}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":          "success",
		"conversation_id": id,
		"qa_pairs":        pairs,
	})
}

type switchConversationRequest struct {
	ConversationID string `json:"conversation_id"`
}

// SetCurrent 处理 PUT /api/conversations/current：切换当前会话，
// 返回消息与 QA 的完整快照。conversation_id 为空表示回到全局聊天模式。
func (h *ConversationHandler) SetCurrent(c *gin.Context) {
	var req switchConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "invalid request body",
			"data":    nil,
		})
		return
	}

	ctx := requestContext(c, h.store, h.defaultURL)
	view, err := h.conversationService.Switch(ctx, req.ConversationID)
	if err != nil {
		c.JSON(statusForError(err), gin.H{
			"code":    statusForError(err),
			"message": errorMessage(err),
			"data":    nil,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    view,
	})
}

// Current 处理 GET /api/conversations/current。
func (h *ConversationHandler) Current(c *gin.Context) {
	id, err := h.conversationService.Current(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "Failed to read current conversation",
			"data":    nil,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    gin.H{"conversation_id": id},
	})
}
