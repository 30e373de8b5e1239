package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/serabile/RagWebApp/internal/model"
	"github.com/serabile/RagWebApp/internal/repository"
	"github.com/serabile/RagWebApp/pkg/log"
	"github.com/serabile/RagWebApp/pkg/ragclient"
)

// 文档处理成功后追加到聊天记录的确认消息。
const documentProcessedMessage = "Document processed successfully. You can now ask questions about its content."

// ProcessResult 是一次文档处理的结果：后端响应加上追加的确认消息。
type ProcessResult struct {
	ConversationID string                    `json:"conversation_id"`
	ProcessingTime *ragclient.ProcessingTime `json:"processing_time,omitempty"`
	Confirmation   model.Message             `json:"confirmation"`
}

// DocumentService 定义了文档摄取的业务逻辑接口。
type DocumentService interface {
	// ProcessDocument 提交一个 PDF 文档 URL 交由后端摄取。
	// URL 必须非空且以 .pdf 结尾（不区分大小写），校验失败直接拒绝，不发起网络请求。
	// 成功后：若后端返回了会话 ID 且当前没有选中会话，则采纳它为当前会话并
	// 建立本地会话记录；随后刷新该会话的 QA 缓存，并追加一条确认消息。
	// 失败时错误原样上抛，不追加聊天消息。
	ProcessDocument(ctx context.Context, fileURL, conversationName string) (*ProcessResult, error)
}

type documentService struct {
	client ragclient.Client
	store  repository.Store
}

// NewDocumentService 创建一个新的 DocumentService。
func NewDocumentService(client ragclient.Client, store repository.Store) DocumentService {
	return &documentService{client: client, store: store}
}

func (s *documentService) ProcessDocument(ctx context.Context, fileURL, conversationName string) (*ProcessResult, error) {
	fileURL = strings.TrimSpace(fileURL)
	if fileURL == "" {
		return nil, &ragclient.APIError{
			Kind:    ragclient.KindProcessing,
			Message: "Document URL is required.",
		}
	}
	if !strings.HasSuffix(strings.ToLower(fileURL), ".pdf") {
		return nil, &ragclient.APIError{
			Kind:    ragclient.KindProcessing,
			Message: "Only PDF documents are supported. The URL must end with .pdf.",
		}
	}

	convID, err := s.store.CurrentConversation(ctx)
	if err != nil {
		log.Warnf("读取当前会话指针失败: %v", err)
		convID = ""
	}

	resp, err := s.client.ProcessDocument(ctx, fileURL, convID, conversationName)
	if err != nil {
		return nil, err
	}

	// 无会话时由文档处理隐式创建：采纳返回的会话 ID 并建立本地记录
	if resp.ConversationID != "" && convID == "" {
		convID = resp.ConversationID
		name := conversationName
		if name == "" {
			name = autoConversationName(convID, time.Now())
		}
		if err := s.store.SaveConversation(ctx, model.Conversation{
			ID:            convID,
			Name:          name,
			CreatedAt:     model.FlexTime(time.Now()),
			DocumentCount: 1,
		}); err != nil {
			log.Warnf("保存新会话 %s 失败: %v", convID, err)
		}
		if err := s.store.SetCurrentConversation(ctx, convID); err != nil {
			log.Warnf("设置当前会话指针失败: %v", err)
		}
	}

	// 刷新当前会话的 QA 缓存；失败不影响处理结果
	if convID != "" {
		if pairs, qaErr := s.client.GetConversationQA(ctx, convID); qaErr != nil {
			log.Warnf("刷新会话 %s 的 QA 失败: %v", convID, qaErr)
		} else if err := s.store.SaveQuestionAnswers(ctx, pairs); err != nil {
			log.Warnf("保存 QA 缓存失败: %v", err)
		}
	}

	confirmation := model.Message{
		ID:        uuid.NewString(),
		Role:      model.RoleAssistant,
		Content:   documentProcessedMessage,
		Timestamp: time.Now(),
	}
	transcript := loadTranscript(ctx, s.store, convID)
	transcript = append(transcript, confirmation)
	saveTranscript(ctx, s.store, convID, transcript)

	return &ProcessResult{
		ConversationID: resp.ConversationID,
		ProcessingTime: resp.ProcessingTime,
		Confirmation:   confirmation,
	}, nil
}
