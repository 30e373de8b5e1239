package model

// Conversation 代表一个命名会话。ID 由服务端在创建时分配，
// 之后所有文档、问答、消息操作都以它作为外键。
// Messages 是该会话的完整消息序列，作为整体随会话一起持久化。
type Conversation struct {
	ID            string    `gorm:"primaryKey;size:64;column:conversation_id" json:"conversation_id"`
	Name          string    `gorm:"size:255" json:"name"`
	Description   string    `gorm:"type:text" json:"description,omitempty"`
	CreatedAt     FlexTime  `json:"created_at"`
	DocumentCount int       `json:"document_count,omitempty"`
	Messages      []Message `gorm:"serializer:json;type:longtext" json:"messages,omitempty"`
}

func (Conversation) TableName() string {
	return "conversations"
}
