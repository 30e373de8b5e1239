package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/serabile/RagWebApp/internal/model"
	"github.com/serabile/RagWebApp/pkg/log"
)

// 文件适配器使用的固定文件名，沿用浏览器版的 localStorage 键名。
const (
	fileMessages      = "rag-chat-history.json"
	fileConversations = "rag-conversations.json"
	fileCurrent       = "rag-current-conversation"
	fileQAPairs       = "rag-qa-pairs.json"
	fileSettings      = "rag-app-settings.json"
)

type fileStore struct {
	mu        sync.Mutex
	dir       string
	available bool
}

// NewFileStore 创建一个以 JSON 文件为介质的 Store。
// 目录无法创建时标记为不可用：所有写入变为 no-op、所有读取返回空默认值，
// 绝不让持久化问题阻塞上层。
func NewFileStore(dir string) Store {
	s := &fileStore{dir: dir}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Warnf("file store: 目录 %s 不可用，持久化降级为 no-op: %v", dir, err)
		return s
	}
	s.available = true
	return s
}

func (s *fileStore) SaveMessages(ctx context.Context, messages []model.Message) error {
	return s.writeJSON(fileMessages, messages)
}

func (s *fileStore) LoadMessages(ctx context.Context) ([]model.Message, error) {
	var messages []model.Message
	s.readJSON(fileMessages, &messages)
	if messages == nil {
		messages = []model.Message{}
	}
	return messages, nil
}

func (s *fileStore) ClearMessages(ctx context.Context) error {
	return s.remove(fileMessages)
}

func (s *fileStore) SaveConversation(ctx context.Context, conv model.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var conversations []model.Conversation
	s.readJSON(fileConversations, &conversations)
	replaced := false
	for i := range conversations {
		if conversations[i].ID == conv.ID {
			conversations[i] = conv
			replaced = true
			break
		}
	}
	if !replaced {
		conversations = append(conversations, conv)
	}
	return s.writeJSONLocked(fileConversations, conversations)
}

func (s *fileStore) LoadConversations(ctx context.Context) ([]model.Conversation, error) {
	var conversations []model.Conversation
	s.readJSON(fileConversations, &conversations)
	if conversations == nil {
		conversations = []model.Conversation{}
	}
	return conversations, nil
}

func (s *fileStore) DeleteConversation(ctx context.Context, id string) error {
	s.mu.Lock()

	var conversations []model.Conversation
	s.readJSON(fileConversations, &conversations)
	kept := conversations[:0]
	for _, conv := range conversations {
		if conv.ID != id {
			kept = append(kept, conv)
		}
	}
	err := s.writeJSONLocked(fileConversations, kept)
	s.mu.Unlock()

	current, _ := s.CurrentConversation(ctx)
	if current == id {
		if cerr := s.SetCurrentConversation(ctx, ""); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func (s *fileStore) SetCurrentConversation(ctx context.Context, id string) error {
	if id == "" {
		return s.remove(fileCurrent)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.available {
		return nil
	}
	if err := os.WriteFile(s.path(fileCurrent), []byte(id), 0o644); err != nil {
		return fmt.Errorf("failed to write current conversation: %w", err)
	}
	return nil
}

func (s *fileStore) CurrentConversation(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.available {
		return "", nil
	}
	data, err := os.ReadFile(s.path(fileCurrent))
	if err != nil {
		return "", nil
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *fileStore) SaveQuestionAnswers(ctx context.Context, pairs []model.QuestionAnswer) error {
	return s.writeJSON(fileQAPairs, pairs)
}

func (s *fileStore) LoadQuestionAnswers(ctx context.Context) ([]model.QuestionAnswer, error) {
	var pairs []model.QuestionAnswer
	s.readJSON(fileQAPairs, &pairs)
	if pairs == nil {
		pairs = []model.QuestionAnswer{}
	}
	return pairs, nil
}

func (s *fileStore) ClearQuestionAnswers(ctx context.Context) error {
	return s.remove(fileQAPairs)
}

func (s *fileStore) SaveSettings(ctx context.Context, settings model.Settings) error {
	return s.writeJSON(fileSettings, settings)
}

func (s *fileStore) LoadSettings(ctx context.Context) (model.Settings, error) {
	var settings model.Settings
	s.readJSON(fileSettings, &settings)
	return settings, nil
}

func (s *fileStore) path(name string) string {
	return filepath.Join(s.dir, name)
}

// readJSON 读取并反序列化一个键。文件不存在、无法读取或内容损坏都按
// "无数据" 处理：记一条日志，out 保持零值。
func (s *fileStore) readJSON(name string, out interface{}) {
	if !s.available {
		return
	}
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warnf("file store: 读取 %s 失败: %v", name, err)
		}
		return
	}
	if err := json.Unmarshal(data, out); err != nil {
		log.Warnf("file store: %s 内容损坏，按空数据处理: %v", name, err)
	}
}

func (s *fileStore) writeJSON(name string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeJSONLocked(name, value)
}

func (s *fileStore) writeJSONLocked(name string, value interface{}) error {
	if !s.available {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		log.Warnf("file store: 序列化 %s 失败: %v", name, err)
		return nil
	}
	if err := os.WriteFile(s.path(name), data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func (s *fileStore) remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.available {
		return nil
	}
	if err := os.Remove(s.path(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", name, err)
	}
	return nil
}
