package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serabile/RagWebApp/internal/model"
	"github.com/serabile/RagWebApp/internal/repository"
	"github.com/serabile/RagWebApp/pkg/ragclient"
)

func TestListMergesLocalMessages(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.SaveConversation(ctx, model.Conversation{
		ID:       "conv-1",
		Messages: []model.Message{{Role: model.RoleUser, Content: "cached locally"}},
	}))

	client := &fakeClient{listConvs: []model.Conversation{
		{ID: "conv-1", Name: "From Server"},
		{ID: "conv-2", Name: "Fresh"},
	}}
	svc := NewConversationService(client, store)

	got, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	// 消息以本地为准
	require.Len(t, got[0].Messages, 1)
	assert.Equal(t, "cached locally", got[0].Messages[0].Content)
	assert.Empty(t, got[1].Messages)

	// 服务端条目回写到本地
	local, err := store.LoadConversations(ctx)
	require.NoError(t, err)
	assert.Len(t, local, 2)
}

func TestCreateSavesLocallyWithoutChangingCurrent(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.SetCurrentConversation(ctx, "conv-old"))

	client := &fakeClient{createConv: &model.Conversation{ID: "conv-new", Name: "Research"}}
	svc := NewConversationService(client, store)

	conv, err := svc.Create(ctx, "Research", "")
	require.NoError(t, err)
	assert.Equal(t, "conv-new", conv.ID)

	local, err := store.LoadConversations(ctx)
	require.NoError(t, err)
	require.Len(t, local, 1)

	// 创建不切换当前会话
	current, err := store.CurrentConversation(ctx)
	require.NoError(t, err)
	assert.Equal(t, "conv-old", current)
}

func TestCreateGeneratesNameWhenServerOmitsIt(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	client := &fakeClient{createConv: &model.Conversation{ID: "abcdef123456", CreatedAt: model.FlexTime(created)}}
	svc := NewConversationService(client, repository.NewMemoryStore())

	conv, err := svc.Create(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, "Conversation abcdef12 2026-03-01 10:30", conv.Name)
}

func TestCreateFailurePropagates(t *testing.T) {
	client := &fakeClient{createErr: &ragclient.APIError{Kind: ragclient.KindUnknown, Message: "boom"}}
	store := repository.NewMemoryStore()
	svc := NewConversationService(client, store)

	_, err := svc.Create(context.Background(), "Research", "")
	require.Error(t, err)

	local, lerr := store.LoadConversations(context.Background())
	require.NoError(t, lerr)
	assert.Empty(t, local)
}

func TestDeletePurgesLocalState(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.SaveConversation(ctx, model.Conversation{ID: "conv-1"}))
	require.NoError(t, store.SetCurrentConversation(ctx, "conv-1"))
	require.NoError(t, store.SaveQuestionAnswers(ctx, []model.QuestionAnswer{{Question: "Q", Answer: "A"}}))

	client := &fakeClient{}
	svc := NewConversationService(client, store)

	require.NoError(t, svc.Delete(ctx, "conv-1"))
	assert.Equal(t, []string{"conv-1"}, client.deleteCalls)

	local, err := store.LoadConversations(ctx)
	require.NoError(t, err)
	assert.Empty(t, local)

	current, err := store.CurrentConversation(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", current)

	pairs, err := store.LoadQuestionAnswers(ctx)
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestDeleteServerFailureKeepsLocalState(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.SaveConversation(ctx, model.Conversation{ID: "conv-1"}))

	client := &fakeClient{deleteErr: &ragclient.APIError{Kind: ragclient.KindNetwork, Message: "down"}}
	svc := NewConversationService(client, store)

	require.Error(t, svc.Delete(ctx, "conv-1"))

	local, err := store.LoadConversations(ctx)
	require.NoError(t, err)
	require.Len(t, local, 1)
}

func TestSwitchReturnsSnapshotAndRefreshesQA(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.SaveConversation(ctx, model.Conversation{
		ID:       "conv-1",
		Messages: []model.Message{{Role: model.RoleUser, Content: "stored"}},
	}))

	client := &fakeClient{qaPairs: []model.QuestionAnswer{{Question: "Q1", Answer: "A1"}}}
	svc := NewConversationService(client, store)

	view, err := svc.Switch(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "conv-1", view.ConversationID)
	require.Len(t, view.Messages, 1)
	require.Len(t, view.QAPairs, 1)
	assert.Equal(t, []string{"conv-1"}, client.qaCalls)

	current, err := store.CurrentConversation(ctx)
	require.NoError(t, err)
	assert.Equal(t, "conv-1", current)

	cached, err := store.LoadQuestionAnswers(ctx)
	require.NoError(t, err)
	assert.Len(t, cached, 1)
}

func TestSwitchQAFailureDoesNotBlock(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()

	client := &fakeClient{qaErr: &ragclient.APIError{Kind: ragclient.KindTimeout, Message: "slow"}}
	svc := NewConversationService(client, store)

	view, err := svc.Switch(ctx, "conv-1")
	require.NoError(t, err)
	assert.Empty(t, view.QAPairs)

	current, err := store.CurrentConversation(ctx)
	require.NoError(t, err)
	assert.Equal(t, "conv-1", current)
}

func TestSwitchToGlobalModeClearsQA(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.SaveMessages(ctx, []model.Message{{Role: model.RoleUser, Content: "global"}}))
	require.NoError(t, store.SetCurrentConversation(ctx, "conv-1"))
	require.NoError(t, store.SaveQuestionAnswers(ctx, []model.QuestionAnswer{{Question: "Q", Answer: "A"}}))

	client := &fakeClient{}
	svc := NewConversationService(client, store)

	view, err := svc.Switch(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "", view.ConversationID)
	require.Len(t, view.Messages, 1)
	assert.Empty(t, view.QAPairs)
	// 全局模式不请求服务端 QA
	assert.Empty(t, client.qaCalls)

	current, err := store.CurrentConversation(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", current)

	pairs, err := store.LoadQuestionAnswers(ctx)
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestMatchQuestionAnswer(t *testing.T) {
	pairs := []model.QuestionAnswer{
		{Question: "What is photosynthesis?", Answer: "Plants convert light into chemical energy."},
		{Question: "Who wrote the paper?", Answer: "The paper was written by Dr. Chen."},
	}

	tests := []struct {
		name   string
		answer string
		want   string // 命中的问题，空串表示未命中
	}{
		{"answer contains the stored answer", "Here is what I found: plants convert light into chemical energy.", "What is photosynthesis?"},
		{"stored answer contains the reply", "The paper was written", "Who wrote the paper?"},
		{"question without trailing punctuation appears in the reply", "Regarding what is photosynthesis, see chapter 2.", "What is photosynthesis?"},
		{"no overlap", "Completely unrelated text.", ""},
		{"empty answer", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchQuestionAnswer(tt.answer, pairs)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Question)
		})
	}
}
