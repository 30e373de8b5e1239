package service

import (
	"context"
	"strings"

	"github.com/serabile/RagWebApp/internal/model"
	"github.com/serabile/RagWebApp/internal/repository"
	"github.com/serabile/RagWebApp/pkg/log"
	"github.com/serabile/RagWebApp/pkg/ragclient"
)

// ConversationView 是一次会话切换产生的完整快照：消息与 QA 作为一个整体返回，
// 界面不会出现旧消息配新 QA（或反之）的中间状态。
type ConversationView struct {
	ConversationID string                 `json:"conversation_id"`
	Messages       []model.Message        `json:"messages"`
	QAPairs        []model.QuestionAnswer `json:"qa_pairs"`
}

// ConversationService 定义了会话管理的业务逻辑接口。
type ConversationService interface {
	// List 从服务端拉取会话列表，并用本地持久化的消息序列对齐每个条目
	// （消息以本地为准，服务端只负责会话注册表）。
	List(ctx context.Context) ([]model.Conversation, error)
	// Create 创建一个新会话。创建类操作不重试，失败立即上抛。
	Create(ctx context.Context, name, description string) (*model.Conversation, error)
	// Delete 先删除服务端会话，成功后清除本地条目与 QA 缓存；
	// 若被删会话是当前会话，同时复位当前会话指针。
	Delete(ctx context.Context, id string) error
	// Switch 切换当前会话，返回该会话的消息与刷新后的 QA 快照；
	// id 为空串表示回到全局聊天模式，此时 QA 集合清空。
	Switch(ctx context.Context, id string) (*ConversationView, error)
	// Current 返回当前会话 ID，空串表示未选中。
	Current(ctx context.Context) (string, error)
}

type conversationService struct {
	client ragclient.Client
	store  repository.Store
}

// NewConversationService 创建一个新的 ConversationService。
func NewConversationService(client ragclient.Client, store repository.Store) ConversationService {
	return &conversationService{client: client, store: store}
}

func (s *conversationService) List(ctx context.Context) ([]model.Conversation, error) {
	serverConvs, err := s.client.ListConversations(ctx)
	if err != nil {
		return nil, err
	}

	local, lerr := s.store.LoadConversations(ctx)
	if lerr != nil {
		log.Warnf("加载本地会话列表失败: %v", lerr)
	}
	localByID := make(map[string]model.Conversation, len(local))
	for _, conv := range local {
		localByID[conv.ID] = conv
	}

	// 消息序列以本地为准
	for i := range serverConvs {
		if cached, ok := localByID[serverConvs[i].ID]; ok {
			serverConvs[i].Messages = cached.Messages
			if serverConvs[i].Name == "" {
				serverConvs[i].Name = cached.Name
			}
		}
		if err := s.store.SaveConversation(ctx, serverConvs[i]); err != nil {
			log.Warnf("回写会话 %s 失败: %v", serverConvs[i].ID, err)
		}
	}
	return serverConvs, nil
}

func (s *conversationService) Create(ctx context.Context, name, description string) (*model.Conversation, error) {
	conv, err := s.client.CreateConversation(ctx, name, description)
	if err != nil {
		return nil, err
	}
	if conv.Name == "" {
		conv.Name = autoConversationName(conv.ID, conv.CreatedAt.Time())
	}
	if err := s.store.SaveConversation(ctx, *conv); err != nil {
		log.Warnf("保存新会话 %s 失败: %v", conv.ID, err)
	}
	return conv, nil
}

func (s *conversationService) Delete(ctx context.Context, id string) error {
	if err := s.client.DeleteConversation(ctx, id); err != nil {
		return err
	}
	if err := s.store.DeleteConversation(ctx, id); err != nil {
		log.Warnf("删除本地会话 %s 失败: %v", id, err)
	}
	if err := s.store.ClearQuestionAnswers(ctx); err != nil {
		log.Warnf("清空 QA 缓存失败: %v", err)
	}
	return nil
}

func (s *conversationService) Switch(ctx context.Context, id string) (*ConversationView, error) {
	view := &ConversationView{
		ConversationID: id,
		QAPairs:        []model.QuestionAnswer{},
	}

	if id == "" {
		// 回到全局聊天模式：QA 集合清空，绝不残留上一个会话的内容
		view.Messages = loadTranscript(ctx, s.store, "")
		if err := s.store.SetCurrentConversation(ctx, ""); err != nil {
			log.Warnf("复位当前会话指针失败: %v", err)
		}
		if err := s.store.ClearQuestionAnswers(ctx); err != nil {
			log.Warnf("清空 QA 缓存失败: %v", err)
		}
		return view, nil
	}

	view.Messages = loadTranscript(ctx, s.store, id)
	// QA 随会话切换从服务端重取；取不到不阻塞切换，展示空集合
	if pairs, err := s.client.GetConversationQA(ctx, id); err != nil {
		log.Warnf("拉取会话 %s 的 QA 失败: %v", id, err)
	} else if pairs != nil {
		view.QAPairs = pairs
	}

	if err := s.store.SetCurrentConversation(ctx, id); err != nil {
		log.Warnf("设置当前会话指针失败: %v", err)
	}
	if err := s.store.SaveQuestionAnswers(ctx, view.QAPairs); err != nil {
		log.Warnf("保存 QA 缓存失败: %v", err)
	}
	return view, nil
}

func (s *conversationService) Current(ctx context.Context) (string, error) {
	return s.store.CurrentConversation(ctx)
}

// MatchQuestionAnswer 把一条聊天回答匹配回推荐问答对：回答与答案互为子串，
// 或去掉结尾标点的问题出现在回答中即视为命中。近似启发式，允许误报漏报。
func MatchQuestionAnswer(answer string, pairs []model.QuestionAnswer) *model.QuestionAnswer {
	a := strings.ToLower(strings.TrimSpace(answer))
	if a == "" {
		return nil
	}
	for i := range pairs {
		pa := strings.ToLower(strings.TrimSpace(pairs[i].Answer))
		if pa != "" && (strings.Contains(a, pa) || strings.Contains(pa, a)) {
			return &pairs[i]
		}
		q := strings.ToLower(strings.TrimSpace(pairs[i].Question))
		q = strings.TrimRight(q, "?!.")
		if q != "" && strings.Contains(a, q) {
			return &pairs[i]
		}
	}
	return nil
}
