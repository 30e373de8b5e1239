// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/serabile/RagWebApp/internal/config"
	"github.com/serabile/RagWebApp/internal/handler"
	"github.com/serabile/RagWebApp/internal/middleware"
	"github.com/serabile/RagWebApp/internal/repository"
	"github.com/serabile/RagWebApp/internal/service"
	"github.com/serabile/RagWebApp/pkg/database"
	"github.com/serabile/RagWebApp/pkg/log"
	"github.com/serabile/RagWebApp/pkg/ragclient"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()
	log.Info("日志记录器初始化成功")

	// 3. 初始化本地持久化存储
	store := newStore(cfg.Storage)

	// 4. 初始化 RAG 服务客户端（基础地址显式注入，不走全局状态）
	client := ragclient.NewClient(cfg.RAG)

	// 5. 初始化 Service (依赖注入)
	chatService := service.NewChatService(client, store)
	conversationService := service.NewConversationService(client, store)
	documentService := service.NewDocumentService(client, store)

	// 6. 初始化 Handler
	chatHandler := handler.NewChatHandler(chatService, client, store, cfg.RAG.BaseURL)
	conversationHandler := handler.NewConversationHandler(conversationService, client, store, cfg.RAG.BaseURL)
	documentHandler := handler.NewDocumentHandler(documentService, store, cfg.RAG.BaseURL)
	adminHandler := handler.NewAdminHandler(client, store, cfg.RAG.BaseURL)
	settingsHandler := handler.NewSettingsHandler(store, cfg.RAG.BaseURL)

	// 7. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 8. 注册路由
	api := r.Group("/api")
	{
		api.POST("/answer", chatHandler.Answer)
		api.POST("/processing", documentHandler.Process)

		api.POST("/chat", chatHandler.Send)
		api.GET("/chat/history", chatHandler.History)
		api.DELETE("/chat/history", chatHandler.ClearHistory)

		conversations := api.Group("/conversations")
		{
			conversations.GET("", conversationHandler.List)
			conversations.POST("", conversationHandler.Create)
			conversations.GET("/current", conversationHandler.Current)
			conversations.PUT("/current", conversationHandler.SetCurrent)
			conversations.DELETE("/:conversationId", conversationHandler.Delete)
			conversations.GET("/:conversationId/qa", conversationHandler.GetQA)
		}

		api.DELETE("/database", adminHandler.ClearDatabase)

		api.GET("/settings", settingsHandler.Get)
		api.PUT("/settings", settingsHandler.Update)
	}

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}
	log.Info("服务已优雅关闭")
}

// newStore 按配置选择持久化介质；redis/mysql 初始化失败时回退到文件存储，
// 持久化问题绝不阻止服务启动。
func newStore(cfg config.StorageConfig) repository.Store {
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "./data"
	}

	switch cfg.Driver {
	case "redis":
		rdb, err := database.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Error("Redis 初始化失败，回退到文件存储", err)
			return repository.NewFileStore(dataDir)
		}
		log.Info("Redis 持久化已启用")
		return repository.NewRedisStore(rdb)
	case "mysql":
		db, err := database.NewMySQL(cfg.MySQL.DSN)
		if err != nil {
			log.Error("MySQL 初始化失败，回退到文件存储", err)
			return repository.NewFileStore(dataDir)
		}
		store, err := repository.NewMySQLStore(db)
		if err != nil {
			log.Error("MySQL 存储迁移失败，回退到文件存储", err)
			return repository.NewFileStore(dataDir)
		}
		log.Info("MySQL 持久化已启用")
		return store
	case "memory":
		return repository.NewMemoryStore()
	default:
		return repository.NewFileStore(dataDir)
	}
}
