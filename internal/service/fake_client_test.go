package service

import (
	"context"

	"github.com/serabile/RagWebApp/internal/model"
	"github.com/serabile/RagWebApp/pkg/ragclient"
)

// fakeClient 按字段预设每个操作的返回值，并记录调用情况。
type fakeClient struct {
	answer      *ragclient.AnswerResponse
	answerErr   error
	answerCalls int

	processResp  *ragclient.ProcessingResponse
	processErr   error
	processCalls int

	createConv *model.Conversation
	createErr  error

	listConvs []model.Conversation
	listErr   error

	deleteErr   error
	deleteCalls []string

	qaPairs []model.QuestionAnswer
	qaErr   error
	qaCalls []string

	clearResp *ragclient.ClearDatabaseResponse
	clearErr  error
}

func (f *fakeClient) GetAnswer(ctx context.Context, query, prompt, conversationID string) (*ragclient.AnswerResponse, error) {
	f.answerCalls++
	if f.answerErr != nil {
		return nil, f.answerErr
	}
	return f.answer, nil
}

func (f *fakeClient) ProcessDocument(ctx context.Context, fileURL, conversationID, conversationName string) (*ragclient.ProcessingResponse, error) {
	f.processCalls++
	if f.processErr != nil {
		return nil, f.processErr
	}
	return f.processResp, nil
}

func (f *fakeClient) CreateConversation(ctx context.Context, name, description string) (*model.Conversation, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.createConv, nil
}

func (f *fakeClient) ListConversations(ctx context.Context) ([]model.Conversation, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listConvs, nil
}

func (f *fakeClient) DeleteConversation(ctx context.Context, id string) error {
	f.deleteCalls = append(f.deleteCalls, id)
	return f.deleteErr
}

func (f *fakeClient) GetConversationQA(ctx context.Context, id string) ([]model.QuestionAnswer, error) {
	f.qaCalls = append(f.qaCalls, id)
	if f.qaErr != nil {
		return nil, f.qaErr
	}
	return f.qaPairs, nil
}

func (f *fakeClient) ClearDatabase(ctx context.Context) (*ragclient.ClearDatabaseResponse, error) {
	if f.clearErr != nil {
		return nil, f.clearErr
	}
	return f.clearResp, nil
}
