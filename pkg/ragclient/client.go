// Package ragclient provides the HTTP client for the remote RAG service.
// 所有对后端的调用都经由这里：构造请求、解包响应、错误分类与重试策略
// 都集中在这一个包中。
package ragclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/serabile/RagWebApp/internal/config"
	"github.com/serabile/RagWebApp/internal/model"
)

// Client defines the interface for the RAG service client.
// 读取类与提问类操作幂等，失败后透明重试；创建与删除类操作绝不静默重试，
// 失败立即上抛，由用户决定是否重新发起。
type Client interface {
	// GetAnswer 针对已索引的内容提问。响应缺失 answer 字段时不报错，
	// 而是返回一条说明格式异常的合成回答，避免聊天界面卡在加载态。
	GetAnswer(ctx context.Context, query, prompt, conversationID string) (*AnswerResponse, error)
	// ProcessDocument 提交一个文档 URL 交由后端摄取。
	ProcessDocument(ctx context.Context, fileURL, conversationID, conversationName string) (*ProcessingResponse, error)
	// CreateConversation 创建一个新会话。即使 HTTP 返回 2xx，
	// 响应中缺失 conversation_id 也按失败处理。
	CreateConversation(ctx context.Context, name, description string) (*model.Conversation, error)
	ListConversations(ctx context.Context) ([]model.Conversation, error)
	DeleteConversation(ctx context.Context, id string) error
	GetConversationQA(ctx context.Context, id string) ([]model.QuestionAnswer, error)
	// ClearDatabase 清空服务端全部文档与向量数据，破坏性管理操作。
	ClearDatabase(ctx context.Context) (*ClearDatabaseResponse, error)
}

type httpClient struct {
	cfg    config.RAGConfig
	client *http.Client
}

// NewClient creates a new RAG service client with the given configuration.
func NewClient(cfg config.RAGConfig) Client {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialDelayMs <= 0 {
		cfg.InitialDelayMs = 1000
	}
	return &httpClient{
		cfg:    cfg,
		client: &http.Client{},
	}
}

type baseURLKey struct{}

// ContextWithBaseURL 在 ctx 上携带单次请求级别的后端地址覆盖，
// 供转发层按 header/cookie 解析出的地址使用。
func ContextWithBaseURL(ctx context.Context, baseURL string) context.Context {
	if baseURL == "" {
		return ctx
	}
	return context.WithValue(ctx, baseURLKey{}, baseURL)
}

func baseURLFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(baseURLKey{}).(string); ok {
		return v
	}
	return ""
}

// SyntheticAnswer 是 /answer 返回格式异常时展示给用户的兜底回答。
const SyntheticAnswer = "I received a response from the server, but it was in an unexpected format. Please try asking your question again."

type answerRequest struct {
	Query          string `json:"query"`
	Prompt         string `json:"prompt,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// AnswerResponse 是 /answer 的成功响应。
type AnswerResponse struct {
	Answer  string               `json:"answer"`
	Source  string               `json:"source,omitempty"`
	Metrics *model.AnswerMetrics `json:"metrics,omitempty"`
}

type processingRequest struct {
	File             string `json:"file"`
	ConversationID   string `json:"conversation_id,omitempty"`
	ConversationName string `json:"conversation_name,omitempty"`
}

// ProcessingTime 是文档摄取各阶段的耗时明细。
type ProcessingTime struct {
	LoadTime         float64 `json:"doc_processing_load_time"`
	LLMExtractTime   float64 `json:"doc_processing_llm_extract_time"`
	SaveResponseTime float64 `json:"doc_processing_save_response_in_database_time"`
	ResponseInfo     string  `json:"doc_processing_response_info"`
	TotalTime        float64 `json:"total_time"`
}

// ProcessingResponse 是 /processing 的成功响应。
type ProcessingResponse struct {
	ConversationID string          `json:"conversation_id"`
	DocumentID     string          `json:"document_id,omitempty"`
	ProcessingTime *ProcessingTime `json:"processing_time,omitempty"`
}

type createConversationRequest struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

type listConversationsResponse struct {
	Conversations []model.Conversation `json:"conversations"`
}

type qaResponse struct {
	Status  string                 `json:"status"`
	QAPairs []model.QuestionAnswer `json:"qa_pairs"`
	Message string                 `json:"message,omitempty"`
}

// ClearDatabaseResponse 是 DELETE /database 的响应。
type ClearDatabaseResponse struct {
	Status           string  `json:"status"`
	Message          string  `json:"message"`
	ExecutionTimeSec float64 `json:"execution_time_sec,omitempty"`
}

func (c *httpClient) GetAnswer(ctx context.Context, query, prompt, conversationID string) (*AnswerResponse, error) {
	var out AnswerResponse
	req := answerRequest{Query: query, Prompt: prompt, ConversationID: conversationID}
	if err := c.do(ctx, http.MethodPost, "/answer", req, &out, true); err != nil {
		return nil, err
	}
	// 200 但缺失 answer 字段：降级为合成回答而不是报错
	if out.Answer == "" {
		return &AnswerResponse{Answer: SyntheticAnswer}, nil
	}
	return &out, nil
}

func (c *httpClient) ProcessDocument(ctx context.Context, fileURL, conversationID, conversationName string) (*ProcessingResponse, error) {
	var out ProcessingResponse
	req := processingRequest{File: fileURL, ConversationID: conversationID, ConversationName: conversationName}
	if err := c.do(ctx, http.MethodPost, "/processing", req, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) CreateConversation(ctx context.Context, name, description string) (*model.Conversation, error) {
	var out model.Conversation
	req := createConversationRequest{Name: name, Description: description}
	if err := c.do(ctx, http.MethodPost, "/conversations", req, &out, false); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, Classify(errors.New("create conversation: empty conversation_id in response"))
	}
	return &out, nil
}

func (c *httpClient) ListConversations(ctx context.Context) ([]model.Conversation, error) {
	var out listConversationsResponse
	if err := c.do(ctx, http.MethodGet, "/conversations", nil, &out, true); err != nil {
		return nil, err
	}
	return out.Conversations, nil
}

func (c *httpClient) DeleteConversation(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/conversations/"+id, nil, nil, false)
}

func (c *httpClient) GetConversationQA(ctx context.Context, id string) ([]model.QuestionAnswer, error) {
	var out qaResponse
	if err := c.do(ctx, http.MethodGet, "/conversations/"+id+"/qa", nil, &out, true); err != nil {
		return nil, err
	}
	if out.Status == "error" {
		msg := out.Message
		if msg == "" {
			msg = "failed to fetch question/answer pairs"
		}
		return nil, Classify(errors.New(msg))
	}
	return out.QAPairs, nil
}

func (c *httpClient) ClearDatabase(ctx context.Context) (*ClearDatabaseResponse, error) {
	var out ClearDatabaseResponse
	if err := c.do(ctx, http.MethodDelete, "/database", nil, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// do 是所有后端调用的咽喉点。shouldRetry 为 true 时整个请求包在 WithRetry 中，
// 否则只执行一次；两条路径最终抛出的都是分类后的 *APIError。
func (c *httpClient) do(ctx context.Context, method, path string, body, out interface{}, shouldRetry bool) error {
	call := func() error {
		return c.doOnce(ctx, method, path, body, out)
	}
	if shouldRetry {
		return WithRetry(ctx, call, c.cfg.MaxAttempts, time.Duration(c.cfg.InitialDelayMs)*time.Millisecond)
	}
	if err := call(); err != nil {
		return Classify(err)
	}
	return nil
}

func (c *httpClient) doOnce(ctx context.Context, method, path string, body, out interface{}) error {
	base := c.cfg.BaseURL
	if override := baseURLFromContext(ctx); override != "" {
		base = override
	}

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(base, "/")+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		// 传输层失败，交给分类器判定 network/timeout
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{Status: resp.StatusCode, Message: errorMessageFromBody(data)}
	}

	// 2xx：按 JSON 解码，不做 schema 校验；空响应体保持零值，
	// 缺失字段由各操作的包装函数自行兜底。
	if out != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response body: %w", err)
		}
	}
	return nil
}

// errorMessageFromBody 尝试从错误响应体里取出 message 或 error 字段。
func errorMessageFromBody(data []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return ""
}
