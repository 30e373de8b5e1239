// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/serabile/RagWebApp/internal/model"
	"github.com/serabile/RagWebApp/internal/repository"
	"github.com/serabile/RagWebApp/pkg/log"
)

// loadTranscript 读取指定会话的消息序列；convID 为空时读取全局聊天记录。
func loadTranscript(ctx context.Context, store repository.Store, convID string) []model.Message {
	if convID == "" {
		messages, err := store.LoadMessages(ctx)
		if err != nil {
			log.Warnf("加载全局聊天记录失败: %v", err)
			return []model.Message{}
		}
		return messages
	}
	conversations, err := store.LoadConversations(ctx)
	if err != nil {
		log.Warnf("加载会话列表失败: %v", err)
		return []model.Message{}
	}
	for _, conv := range conversations {
		if conv.ID == convID {
			return conv.Messages
		}
	}
	return []model.Message{}
}

// saveTranscript 将一个会话的完整消息序列整体落盘；convID 为空时写全局聊天记录。
// 持久化是尽力而为的：失败只记日志，绝不向上抛出阻塞界面。
func saveTranscript(ctx context.Context, store repository.Store, convID string, messages []model.Message) {
	if convID == "" {
		if err := store.SaveMessages(ctx, messages); err != nil {
			log.Warnf("保存全局聊天记录失败: %v", err)
		}
		return
	}

	conversations, err := store.LoadConversations(ctx)
	if err != nil {
		log.Warnf("加载会话列表失败: %v", err)
	}
	target := model.Conversation{
		ID:        convID,
		Name:      autoConversationName(convID, time.Now()),
		CreatedAt: model.FlexTime(time.Now()),
	}
	for _, conv := range conversations {
		if conv.ID == convID {
			target = conv
			break
		}
	}
	target.Messages = messages
	if err := store.SaveConversation(ctx, target); err != nil {
		log.Warnf("保存会话 %s 失败: %v", convID, err)
	}
}

// autoConversationName 在用户未命名时根据截断的会话 ID 和时间戳生成显示名。
func autoConversationName(convID string, now time.Time) string {
	short := convID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("Conversation %s %s", short, now.Format("2006-01-02 15:04"))
}
