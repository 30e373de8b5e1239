package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serabile/RagWebApp/internal/model"
)

func TestMemoryStoreMessagesAreCopied(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	src := []model.Message{{ID: "m1", Role: model.RoleUser, Content: "hello"}}
	require.NoError(t, store.SaveMessages(ctx, src))

	// 调用方修改自己的切片不应影响存储内容
	src[0].Content = "mutated"

	got, err := store.LoadMessages(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "hello", got[0].Content)

	// 读出的切片同样是副本
	got[0].Content = "mutated again"
	got2, err := store.LoadMessages(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello", got2[0].Content)
}

func TestMemoryStoreConversationLifecycle(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.SaveConversation(ctx, model.Conversation{ID: "conv-1", Name: "First"}))
	require.NoError(t, store.SaveConversation(ctx, model.Conversation{ID: "conv-2", Name: "Second"}))
	require.NoError(t, store.SaveConversation(ctx, model.Conversation{ID: "conv-1", Name: "Renamed"}))

	got, err := store.LoadConversations(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Renamed", got[0].Name)

	require.NoError(t, store.SetCurrentConversation(ctx, "conv-1"))
	require.NoError(t, store.DeleteConversation(ctx, "conv-1"))

	got, err = store.LoadConversations(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "conv-2", got[0].ID)

	current, err := store.CurrentConversation(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", current)
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("conv-%d", n)
			_ = store.SaveConversation(ctx, model.Conversation{ID: id})
			_ = store.SaveMessages(ctx, []model.Message{{Role: model.RoleUser, Content: id}})
			_, _ = store.LoadConversations(ctx)
			_, _ = store.LoadMessages(ctx)
		}(i)
	}
	wg.Wait()

	got, err := store.LoadConversations(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 16)
}
