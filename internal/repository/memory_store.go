package repository

import (
	"context"
	"sync"

	"github.com/serabile/RagWebApp/internal/model"
)

type memoryStore struct {
	mu            sync.Mutex
	messages      []model.Message
	conversations []model.Conversation
	current       string
	qaPairs       []model.QuestionAnswer
	settings      model.Settings
}

// NewMemoryStore 创建一个纯内存的 Store，用于测试以及不需要持久化的场景。
func NewMemoryStore() Store {
	return &memoryStore{
		messages:      make([]model.Message, 0, 64),
		conversations: make([]model.Conversation, 0, 8),
	}
}

func (s *memoryStore) SaveMessages(ctx context.Context, messages []model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages[:0:0], messages...)
	return nil
}

func (s *memoryStore) LoadMessages(ctx context.Context) ([]model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]model.Message, len(s.messages))
	copy(cp, s.messages)
	return cp, nil
}

func (s *memoryStore) ClearMessages(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = s.messages[:0]
	return nil
}

func (s *memoryStore) SaveConversation(ctx context.Context, conv model.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.conversations {
		if s.conversations[i].ID == conv.ID {
			s.conversations[i] = conv
			return nil
		}
	}
	s.conversations = append(s.conversations, conv)
	return nil
}

func (s *memoryStore) LoadConversations(ctx context.Context) ([]model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]model.Conversation, len(s.conversations))
	copy(cp, s.conversations)
	return cp, nil
}

func (s *memoryStore) DeleteConversation(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.conversations[:0]
	for _, conv := range s.conversations {
		if conv.ID != id {
			kept = append(kept, conv)
		}
	}
	s.conversations = kept
	if s.current == id {
		s.current = ""
	}
	return nil
}

func (s *memoryStore) SetCurrentConversation(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = id
	return nil
}

func (s *memoryStore) CurrentConversation(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, nil
}

func (s *memoryStore) SaveQuestionAnswers(ctx context.Context, pairs []model.QuestionAnswer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.qaPairs = append(s.qaPairs[:0:0], pairs...)
	return nil
}

func (s *memoryStore) LoadQuestionAnswers(ctx context.Context) ([]model.QuestionAnswer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]model.QuestionAnswer, len(s.qaPairs))
	copy(cp, s.qaPairs)
	return cp, nil
}

func (s *memoryStore) ClearQuestionAnswers(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.qaPairs = nil
	return nil
}

func (s *memoryStore) SaveSettings(ctx context.Context, settings model.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	return nil
}

func (s *memoryStore) LoadSettings(ctx context.Context) (model.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings, nil
}
