// Package model 包含了应用的数据模型定义。
package model

import (
	"encoding/json"
	"time"
)

// Role 表示一条消息的发送方。
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// AnswerMetrics 是后端在回答问题时附带的耗时统计（单位：秒）。
// TotalTimeSec 不小于另外两项的最大值，但不一定等于二者之和。
type AnswerMetrics struct {
	SimilaritySearchSec float64 `json:"similarity_database_search_sec"`
	LLMResponseSec      float64 `json:"llm_response_sec"`
	TotalTimeSec        float64 `json:"total_time_sec"`
}

// Message 代表会话中的一条消息。Timestamp 在消息创建时由客户端赋值，之后不再修改。
// Metrics 与 Source 仅出现在真实回答产生的 assistant 消息上。
type Message struct {
	ID        string         `json:"id,omitempty"`
	Role      Role           `json:"role"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Metrics   *AnswerMetrics `json:"metrics,omitempty"`
	Source    string         `json:"source,omitempty"`
}

// QuestionAnswer 是文档处理后由后端给出的推荐问答对。
type QuestionAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// UnmarshalJSON 兼容两种字段名：后端 QA 接口返回 "answer"，
// 旧版本地缓存中保存的是 "response"。
func (qa *QuestionAnswer) UnmarshalJSON(data []byte) error {
	var raw struct {
		Question string `json:"question"`
		Answer   string `json:"answer"`
		Response string `json:"response"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	qa.Question = raw.Question
	qa.Answer = raw.Answer
	if qa.Answer == "" {
		qa.Answer = raw.Response
	}
	return nil
}

// Settings 是全局应用设置，目前只有后端 API 地址一项。
type Settings struct {
	APIEndpoint string `json:"apiEndpoint"`
}
