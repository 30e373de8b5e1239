package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/go-redis/redis/v8"

	"github.com/serabile/RagWebApp/internal/model"
	"github.com/serabile/RagWebApp/pkg/log"
)

// Redis 键集合，与文件适配器的键一一对应。
const (
	redisKeyMessages      = "rag:chat:messages"
	redisKeyConversations = "rag:conversations"
	redisKeyCurrent       = "rag:current_conversation"
	redisKeyQAPairs       = "rag:qa_pairs"
	redisKeySettings      = "rag:settings"
)

type redisStore struct {
	redisClient *redis.Client
}

// NewRedisStore 创建一个以 Redis 为介质的 Store。
// 会话列表保存在 hash 中（field 为会话 ID），其余键为整体 JSON 串。
func NewRedisStore(redisClient *redis.Client) Store {
	return &redisStore{redisClient: redisClient}
}

func (r *redisStore) SaveMessages(ctx context.Context, messages []model.Message) error {
	return r.setJSON(ctx, redisKeyMessages, messages)
}

func (r *redisStore) LoadMessages(ctx context.Context) ([]model.Message, error) {
	messages := []model.Message{}
	if err := r.getJSON(ctx, redisKeyMessages, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *redisStore) ClearMessages(ctx context.Context) error {
	return r.del(ctx, redisKeyMessages)
}

func (r *redisStore) SaveConversation(ctx context.Context, conv model.Conversation) error {
	data, err := json.Marshal(conv)
	if err != nil {
		log.Warnf("redis store: 序列化会话 %s 失败: %v", conv.ID, err)
		return nil
	}
	if err := r.redisClient.HSet(ctx, redisKeyConversations, conv.ID, data).Err(); err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}
	return nil
}

func (r *redisStore) LoadConversations(ctx context.Context) ([]model.Conversation, error) {
	fields, err := r.redisClient.HGetAll(ctx, redisKeyConversations).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load conversations: %w", err)
	}
	conversations := make([]model.Conversation, 0, len(fields))
	for id, raw := range fields {
		var conv model.Conversation
		if err := json.Unmarshal([]byte(raw), &conv); err != nil {
			log.Warnf("redis store: 会话 %s 内容损坏，已跳过: %v", id, err)
			continue
		}
		conversations = append(conversations, conv)
	}
	// hash 无序，按创建时间排序保证列表稳定
	sort.Slice(conversations, func(i, j int) bool {
		ti, tj := conversations[i].CreatedAt.Time(), conversations[j].CreatedAt.Time()
		if ti.Equal(tj) {
			return conversations[i].ID < conversations[j].ID
		}
		return ti.Before(tj)
	})
	return conversations, nil
}

func (r *redisStore) DeleteConversation(ctx context.Context, id string) error {
	if err := r.redisClient.HDel(ctx, redisKeyConversations, id).Err(); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	current, err := r.CurrentConversation(ctx)
	if err != nil {
		return err
	}
	if current == id {
		return r.SetCurrentConversation(ctx, "")
	}
	return nil
}

func (r *redisStore) SetCurrentConversation(ctx context.Context, id string) error {
	if id == "" {
		return r.del(ctx, redisKeyCurrent)
	}
	if err := r.redisClient.Set(ctx, redisKeyCurrent, id, 0).Err(); err != nil {
		return fmt.Errorf("failed to set current conversation: %w", err)
	}
	return nil
}

func (r *redisStore) CurrentConversation(ctx context.Context) (string, error) {
	id, err := r.redisClient.Get(ctx, redisKeyCurrent).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get current conversation: %w", err)
	}
	return id, nil
}

func (r *redisStore) SaveQuestionAnswers(ctx context.Context, pairs []model.QuestionAnswer) error {
	return r.setJSON(ctx, redisKeyQAPairs, pairs)
}

func (r *redisStore) LoadQuestionAnswers(ctx context.Context) ([]model.QuestionAnswer, error) {
	pairs := []model.QuestionAnswer{}
	if err := r.getJSON(ctx, redisKeyQAPairs, &pairs); err != nil {
		return nil, err
	}
	return pairs, nil
}

func (r *redisStore) ClearQuestionAnswers(ctx context.Context) error {
	return r.del(ctx, redisKeyQAPairs)
}

func (r *redisStore) SaveSettings(ctx context.Context, settings model.Settings) error {
	return r.setJSON(ctx, redisKeySettings, settings)
}

func (r *redisStore) LoadSettings(ctx context.Context) (model.Settings, error) {
	var settings model.Settings
	if err := r.getJSON(ctx, redisKeySettings, &settings); err != nil {
		return model.Settings{}, err
	}
	return settings, nil
}

func (r *redisStore) setJSON(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		log.Warnf("redis store: 序列化 %s 失败: %v", key, err)
		return nil
	}
	if err := r.redisClient.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// getJSON 读取并反序列化一个键；键不存在或内容损坏都按 "无数据" 处理。
func (r *redisStore) getJSON(ctx context.Context, key string, out interface{}) error {
	raw, err := r.redisClient.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		log.Warnf("redis store: %s 内容损坏，按空数据处理: %v", key, err)
	}
	return nil
}

func (r *redisStore) del(ctx context.Context, key string) error {
	if err := r.redisClient.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
