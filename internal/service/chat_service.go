package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/serabile/RagWebApp/internal/model"
	"github.com/serabile/RagWebApp/internal/repository"
	"github.com/serabile/RagWebApp/pkg/log"
	"github.com/serabile/RagWebApp/pkg/ragclient"
)

// 回答失败时追加的道歉消息，保证聊天记录始终连贯、输入框可以重新启用。
const apologyMessage = "Sorry, I had trouble processing your question. Please try again."

// ChatService 定义了聊天回合的业务逻辑接口。
type ChatService interface {
	// SendMessage 执行一个完整的聊天回合：先乐观追加用户消息，再向后端提问；
	// 成功则追加带指标的回答，失败则追加道歉消息。回答失败不作为 error 上抛，
	// 聊天记录的连贯性优先于错误传播。返回本回合追加的消息。
	SendMessage(ctx context.Context, content, prompt string) ([]model.Message, error)
	// History 返回当前会话（或无会话时全局）的消息序列。
	History(ctx context.Context) ([]model.Message, error)
	// ClearHistory 清空当前会话的消息；无会话选中时清空全局聊天记录。
	// 会话的元数据和 QA 缓存不受影响。
	ClearHistory(ctx context.Context) error
}

type chatService struct {
	client ragclient.Client
	store  repository.Store
}

// NewChatService 创建一个新的 ChatService。
func NewChatService(client ragclient.Client, store repository.Store) ChatService {
	return &chatService{client: client, store: store}
}

func (s *chatService) SendMessage(ctx context.Context, content, prompt string) ([]model.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errors.New("message content is required")
	}

	convID, err := s.store.CurrentConversation(ctx)
	if err != nil {
		log.Warnf("读取当前会话指针失败: %v", err)
		convID = ""
	}

	userMessage := model.Message{
		ID:        uuid.NewString(),
		Role:      model.RoleUser,
		Content:   content,
		Timestamp: time.Now(),
	}

	// 乐观追加：先落用户消息，无论后端是否可达
	transcript := loadTranscript(ctx, s.store, convID)
	transcript = append(transcript, userMessage)
	saveTranscript(ctx, s.store, convID, transcript)

	assistantMessage := model.Message{
		ID:        uuid.NewString(),
		Role:      model.RoleAssistant,
		Timestamp: time.Now(),
	}
	answer, err := s.client.GetAnswer(ctx, content, prompt, convID)
	if err != nil {
		log.Warnf("获取回答失败: %v", err)
		assistantMessage.Content = apologyMessage
	} else {
		assistantMessage.Content = answer.Answer
		assistantMessage.Metrics = answer.Metrics
		assistantMessage.Source = answer.Source
	}

	transcript = append(transcript, assistantMessage)
	saveTranscript(ctx, s.store, convID, transcript)

	return []model.Message{userMessage, assistantMessage}, nil
}

func (s *chatService) History(ctx context.Context) ([]model.Message, error) {
	convID, err := s.store.CurrentConversation(ctx)
	if err != nil {
		return nil, err
	}
	return loadTranscript(ctx, s.store, convID), nil
}

func (s *chatService) ClearHistory(ctx context.Context) error {
	convID, err := s.store.CurrentConversation(ctx)
	if err != nil {
		return err
	}
	if convID == "" {
		return s.store.ClearMessages(ctx)
	}
	saveTranscript(ctx, s.store, convID, []model.Message{})
	return nil
}
