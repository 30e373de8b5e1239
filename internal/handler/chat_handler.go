package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/serabile/RagWebApp/internal/repository"
	"github.com/serabile/RagWebApp/internal/service"
	"github.com/serabile/RagWebApp/pkg/ragclient"
)

// ChatHandler 处理聊天相关的 API 请求：原样转发的 /answer 和编排后的聊天回合。
type ChatHandler struct {
	chatService service.ChatService
	client      ragclient.Client
	store       repository.Store
	defaultURL  string
}

// NewChatHandler 创建一个新的 ChatHandler。
func NewChatHandler(chatService service.ChatService, client ragclient.Client, store repository.Store, defaultURL string) *ChatHandler {
	return &ChatHandler{chatService: chatService, client: client, store: store, defaultURL: defaultURL}
}

type answerRequest struct {
	Query          string `json:"query" binding:"required"`
	Prompt         string `json:"prompt"`
	ConversationID string `json:"conversation_id"`
}

// Answer 处理 POST /api/answer：把提问转发给后端并原样返回响应体。
func (h *ChatHandler) Answer(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	ctx := requestContext(c, h.store, h.defaultURL)
	answer, err := h.client.GetAnswer(ctx, req.Query, req.Prompt, req.ConversationID)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": "Failed to get answer", "message": errorMessage(err)})
		return
	}
	c.JSON(http.StatusOK, answer)
}

type sendMessageRequest struct {
	Content string `json:"content" binding:"required"`
	Prompt  string `json:"prompt"`
}

// Send 处理 POST /api/chat：执行一个完整的聊天回合。
func (h *ChatHandler) Send(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "content is required",
			"data":    nil,
		})
		return
	}

	ctx := requestContext(c, h.store, h.defaultURL)
	messages, err := h.chatService.SendMessage(ctx, req.Content, req.Prompt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": err.Error(),
			"data":    nil,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    messages,
	})
}

// History 处理 GET /api/chat/history：返回当前会话（或全局）的消息序列。
func (h *ChatHandler) History(c *gin.Context) {
	messages, err := h.chatService.History(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "Failed to load chat history",
			"data":    nil,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    messages,
	})
}

// ClearHistory 处理 DELETE /api/chat/history：清空当前会话（或全局）的消息。
func (h *ChatHandler) ClearHistory(c *gin.Context) {
	if err := h.chatService.ClearHistory(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "Failed to clear chat history",
			"data":    nil,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    nil,
	})
}
