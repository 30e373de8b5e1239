package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/serabile/RagWebApp/internal/model"
	"github.com/serabile/RagWebApp/internal/repository"
	"github.com/serabile/RagWebApp/pkg/log"
)

// SettingsHandler 处理应用设置（后端 API 地址）的读写。
type SettingsHandler struct {
	store      repository.Store
	defaultURL string
}

// NewSettingsHandler 创建一个新的 SettingsHandler。
func NewSettingsHandler(store repository.Store, defaultURL string) *SettingsHandler {
	return &SettingsHandler{store: store, defaultURL: defaultURL}
}

// Get 处理 GET /api/settings：未设置时返回环境默认地址。
func (h *SettingsHandler) Get(c *gin.Context) {
	settings, err := h.store.LoadSettings(c.Request.Context())
	if err != nil {
		log.Warnf("读取设置失败: %v", err)
	}
	if settings.APIEndpoint == "" {
		settings.APIEndpoint = h.defaultURL
	}
	c.JSON(http.StatusOK, settings)
}

type updateSettingsRequest struct {
	APIEndpoint string `json:"apiEndpoint" binding:"required"`
}

// Update 处理 PUT /api/settings。
func (h *SettingsHandler) Update(c *gin.Context) {
	var req updateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "apiEndpoint is required"})
		return
	}

	settings := model.Settings{APIEndpoint: strings.TrimRight(strings.TrimSpace(req.APIEndpoint), "/")}
	if err := h.store.SaveSettings(c.Request.Context(), settings); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save settings"})
		return
	}
	c.JSON(http.StatusOK, settings)
}
