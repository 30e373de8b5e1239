// Package repository 提供了本地持久化层的实现。
package repository

import (
	"context"

	"github.com/serabile/RagWebApp/internal/model"
)

// 持久化键集合：全局聊天记录、会话列表、当前会话指针、QA 缓存、应用设置。
// 各适配器用自己介质上的等价形式（文件名、Redis key、表）表达同一组键。

// Store 定义了本地持久化的操作接口，调用方通过它读写五类状态。
// 实现约定：介质不可用或数据损坏时记录日志并返回空默认值，读路径永不让
// 损坏的数据阻塞上层渲染；error 只用于真实的 I/O 失败，由上层吸收。
type Store interface {
	// 全局（无会话选中时的）聊天记录
	SaveMessages(ctx context.Context, messages []model.Message) error
	LoadMessages(ctx context.Context) ([]model.Message, error)
	ClearMessages(ctx context.Context) error

	// SaveConversation 按 ID upsert，是会话元数据及其内嵌消息列表的唯一写入口。
	SaveConversation(ctx context.Context, conv model.Conversation) error
	LoadConversations(ctx context.Context) ([]model.Conversation, error)
	// DeleteConversation 删除对应条目；若它恰好是当前会话，同时清空当前会话指针。
	DeleteConversation(ctx context.Context, id string) error

	// 当前会话指针，空字符串表示未选中任何会话（全局聊天模式）。
	SetCurrentConversation(ctx context.Context, id string) error
	CurrentConversation(ctx context.Context) (string, error)

	// QA 缓存整体替换/读取，从不逐条修改。
	SaveQuestionAnswers(ctx context.Context, pairs []model.QuestionAnswer) error
	LoadQuestionAnswers(ctx context.Context) ([]model.QuestionAnswer, error)
	ClearQuestionAnswers(ctx context.Context) error

	// 应用设置（后端 API 地址）
	SaveSettings(ctx context.Context, settings model.Settings) error
	LoadSettings(ctx context.Context) (model.Settings, error)
}
