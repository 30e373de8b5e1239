package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serabile/RagWebApp/internal/model"
	"github.com/serabile/RagWebApp/internal/repository"
	"github.com/serabile/RagWebApp/pkg/ragclient"
)

func TestSendMessageAppendsQuestionAndAnswer(t *testing.T) {
	store := repository.NewMemoryStore()
	client := &fakeClient{
		answer: &ragclient.AnswerResponse{
			Answer:  "Plants convert light into chemical energy.",
			Source:  "biology.pdf",
			Metrics: &model.AnswerMetrics{TotalTimeSec: 1.2},
		},
	}
	svc := NewChatService(client, store)
	ctx := context.Background()

	added, err := svc.SendMessage(ctx, "  what is photosynthesis  ", "")
	require.NoError(t, err)
	require.Len(t, added, 2)

	assert.Equal(t, model.RoleUser, added[0].Role)
	assert.Equal(t, "what is photosynthesis", added[0].Content)
	assert.NotEmpty(t, added[0].ID)
	assert.Nil(t, added[0].Metrics)

	assert.Equal(t, model.RoleAssistant, added[1].Role)
	assert.Equal(t, "Plants convert light into chemical energy.", added[1].Content)
	assert.Equal(t, "biology.pdf", added[1].Source)
	require.NotNil(t, added[1].Metrics)

	// 整个回合持久化到全局聊天记录
	history, err := svc.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 2)
}

func TestSendMessageRejectsEmptyContent(t *testing.T) {
	client := &fakeClient{}
	svc := NewChatService(client, repository.NewMemoryStore())

	_, err := svc.SendMessage(context.Background(), "   ", "")
	require.Error(t, err)
	assert.Zero(t, client.answerCalls)
}

func TestSendMessageAppendsApologyOnFailure(t *testing.T) {
	store := repository.NewMemoryStore()
	client := &fakeClient{
		answerErr: &ragclient.APIError{Kind: ragclient.KindNetwork, Message: "down", Retryable: true},
	}
	svc := NewChatService(client, store)
	ctx := context.Background()

	// 回答失败不作为 error 上抛
	added, err := svc.SendMessage(ctx, "hello", "")
	require.NoError(t, err)
	require.Len(t, added, 2)
	assert.Equal(t, "hello", added[0].Content)
	assert.Equal(t, apologyMessage, added[1].Content)
	assert.Nil(t, added[1].Metrics)

	// 用户消息与道歉都已持久化
	history, err := svc.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, apologyMessage, history[1].Content)
}

func TestSendMessageUsesCurrentConversationTranscript(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.SaveConversation(ctx, model.Conversation{
		ID:       "conv-1",
		Messages: []model.Message{{Role: model.RoleUser, Content: "earlier"}},
	}))
	require.NoError(t, store.SetCurrentConversation(ctx, "conv-1"))

	client := &fakeClient{answer: &ragclient.AnswerResponse{Answer: "sure"}}
	svc := NewChatService(client, store)

	_, err := svc.SendMessage(ctx, "next question", "")
	require.NoError(t, err)

	convs, err := store.LoadConversations(ctx)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	require.Len(t, convs[0].Messages, 3)
	assert.Equal(t, "earlier", convs[0].Messages[0].Content)
	assert.Equal(t, "next question", convs[0].Messages[1].Content)

	// 全局聊天记录不受会话消息影响
	global, err := store.LoadMessages(ctx)
	require.NoError(t, err)
	assert.Empty(t, global)
}

func TestClearHistoryGlobalMode(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.SaveMessages(ctx, []model.Message{{Role: model.RoleUser, Content: "hello"}}))

	svc := NewChatService(&fakeClient{}, store)
	require.NoError(t, svc.ClearHistory(ctx))

	got, err := store.LoadMessages(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestClearHistoryScopedToCurrentConversation(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.SaveMessages(ctx, []model.Message{{Role: model.RoleUser, Content: "global"}}))
	require.NoError(t, store.SaveConversation(ctx, model.Conversation{
		ID:       "conv-1",
		Name:     "Research",
		Messages: []model.Message{{Role: model.RoleUser, Content: "scoped"}},
	}))
	require.NoError(t, store.SetCurrentConversation(ctx, "conv-1"))

	svc := NewChatService(&fakeClient{}, store)
	require.NoError(t, svc.ClearHistory(ctx))

	// 会话消息被清空，但元数据保留
	convs, err := store.LoadConversations(ctx)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, "Research", convs[0].Name)
	assert.Empty(t, convs[0].Messages)

	// 全局聊天记录不受影响
	global, err := store.LoadMessages(ctx)
	require.NoError(t, err)
	require.Len(t, global, 1)
}
