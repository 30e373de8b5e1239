package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/serabile/RagWebApp/internal/model"
	"github.com/serabile/RagWebApp/pkg/log"
)

// app_state 表保存非会话类的状态（全局聊天记录、当前会话指针、QA 缓存、设置），
// 每行一个键，值为 JSON 或纯文本。会话本身使用独立的 conversations 表。
type stateRow struct {
	Key   string `gorm:"primaryKey;size:64;column:state_key"`
	Value string `gorm:"type:longtext;column:state_value"`
}

func (stateRow) TableName() string {
	return "app_state"
}

const (
	stateKeyMessages = "chat_messages"
	stateKeyCurrent  = "current_conversation"
	stateKeyQAPairs  = "qa_pairs"
	stateKeySettings = "settings"
)

type mysqlStore struct {
	db *gorm.DB
}

// NewMySQLStore 创建一个以 MySQL 为介质的 Store，并自动迁移所需的表。
func NewMySQLStore(db *gorm.DB) (Store, error) {
	if err := db.AutoMigrate(&model.Conversation{}, &stateRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate storage tables: %w", err)
	}
	return &mysqlStore{db: db}, nil
}

func (m *mysqlStore) SaveMessages(ctx context.Context, messages []model.Message) error {
	return m.setState(ctx, stateKeyMessages, messages)
}

func (m *mysqlStore) LoadMessages(ctx context.Context) ([]model.Message, error) {
	messages := []model.Message{}
	if err := m.getState(ctx, stateKeyMessages, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (m *mysqlStore) ClearMessages(ctx context.Context) error {
	return m.deleteState(ctx, stateKeyMessages)
}

func (m *mysqlStore) SaveConversation(ctx context.Context, conv model.Conversation) error {
	// 按主键 upsert
	err := m.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&conv).Error
	if err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}
	return nil
}

func (m *mysqlStore) LoadConversations(ctx context.Context) ([]model.Conversation, error) {
	conversations := []model.Conversation{}
	err := m.db.WithContext(ctx).Order("created_at").Find(&conversations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load conversations: %w", err)
	}
	return conversations, nil
}

func (m *mysqlStore) DeleteConversation(ctx context.Context, id string) error {
	err := m.db.WithContext(ctx).Delete(&model.Conversation{}, "conversation_id = ?", id).Error
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	current, err := m.CurrentConversation(ctx)
	if err != nil {
		return err
	}
	if current == id {
		return m.SetCurrentConversation(ctx, "")
	}
	return nil
}

func (m *mysqlStore) SetCurrentConversation(ctx context.Context, id string) error {
	if id == "" {
		return m.deleteState(ctx, stateKeyCurrent)
	}
	return m.setRaw(ctx, stateKeyCurrent, id)
}

func (m *mysqlStore) CurrentConversation(ctx context.Context) (string, error) {
	var row stateRow
	err := m.db.WithContext(ctx).First(&row, "state_key = ?", stateKeyCurrent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get current conversation: %w", err)
	}
	return row.Value, nil
}

func (m *mysqlStore) SaveQuestionAnswers(ctx context.Context, pairs []model.QuestionAnswer) error {
	return m.setState(ctx, stateKeyQAPairs, pairs)
}

func (m *mysqlStore) LoadQuestionAnswers(ctx context.Context) ([]model.QuestionAnswer, error) {
	pairs := []model.QuestionAnswer{}
	if err := m.getState(ctx, stateKeyQAPairs, &pairs); err != nil {
		return nil, err
	}
	return pairs, nil
}

func (m *mysqlStore) ClearQuestionAnswers(ctx context.Context) error {
	return m.deleteState(ctx, stateKeyQAPairs)
}

func (m *mysqlStore) SaveSettings(ctx context.Context, settings model.Settings) error {
	return m.setState(ctx, stateKeySettings, settings)
}

func (m *mysqlStore) LoadSettings(ctx context.Context) (model.Settings, error) {
	var settings model.Settings
	if err := m.getState(ctx, stateKeySettings, &settings); err != nil {
		return model.Settings{}, err
	}
	return settings, nil
}

func (m *mysqlStore) setState(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		log.Warnf("mysql store: 序列化 %s 失败: %v", key, err)
		return nil
	}
	return m.setRaw(ctx, key, string(data))
}

func (m *mysqlStore) setRaw(ctx context.Context, key, value string) error {
	row := stateRow{Key: key, Value: value}
	err := m.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (m *mysqlStore) getState(ctx context.Context, key string, out interface{}) error {
	var row stateRow
	err := m.db.WithContext(ctx).First(&row, "state_key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(row.Value), out); err != nil {
		log.Warnf("mysql store: %s 内容损坏，按空数据处理: %v", key, err)
	}
	return nil
}

func (m *mysqlStore) deleteState(ctx context.Context, key string) error {
	err := m.db.WithContext(ctx).Delete(&stateRow{}, "state_key = ?", key).Error
	if err != nil {
		return fmt.Errorf("failed to clear %s: %w", key, err)
	}
	return nil
}
