package models

import (
	"time"

	"gorm.io/gorm"
)

// 消息角色
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

type Chat struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	UserID         uint           `json:"user_id" gorm:"not null;index"`
	Title          string         `json:"title" gorm:"size:200"`
	Summary        *string        `json:"summary" gorm:"type:text"`
	ContextSummary *string        `json:"context_summary" gorm:"type:text"`
	MessageCount   int            `json:"message_count" gorm:"default:0"`
	LastMessageAt  *time.Time     `json:"last_message_at"`
	CreatedAt      time.Time      `json:"created_at" gorm:"index"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`

	// 关联
	User     User          `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Messages []ChatMessage `json:"messages,omitempty" gorm:"foreignKey:ChatID;constraint:OnDelete:CASCADE"`
}

// 消息创建后不可变，没有更新和删除接口
type ChatMessage struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	ChatID     uint      `json:"chat_id" gorm:"not null;index"`
	Role       string    `json:"role" gorm:"size:20;not null"`
	Content    string    `json:"content" gorm:"type:text;not null"`
	Summary    *string   `json:"summary" gorm:"type:text"`
	TokensUsed int       `json:"tokens_used" gorm:"default:0"`
	CreatedAt  time.Time `json:"created_at" gorm:"index"`

	// 关联
	Chat Chat `json:"chat,omitempty" gorm:"foreignKey:ChatID"`
}

// EstimateTokens 粗略估算消息的 token 数（约 4 字符一个 token）
func (m *ChatMessage) EstimateTokens() int {
	return len(m.Content) / 4
}

// ContextMessage 发送给 AI 服务的上下文消息
type ContextMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCreateRequest struct {
	Title string `json:"title" validate:"omitempty,max=200"`
}

type AIResponseRequest struct {
	Message    string `json:"message" validate:"required,notblank"`
	UseContext *bool  `json:"use_context"`
}

type AIResponseResult struct {
	Response     string `json:"response"`
	ChatID       uint   `json:"chat_id"`
	MessageCount int    `json:"message_count"`
}

type ChatContextResponse struct {
	Context []ContextMessage `json:"context"`
	Summary *string          `json:"summary"`
}

type ChatStats struct {
	TotalMessages     int        `json:"total_messages"`
	UserMessages      int64      `json:"user_messages"`
	AssistantMessages int64      `json:"assistant_messages"`
	TotalTokens       int64      `json:"total_tokens"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	LastMessageAt     *time.Time `json:"last_message_at"`
}

type ChatListRequest struct {
	Page  int `form:"page" validate:"omitempty,min=1"`
	Limit int `form:"limit" validate:"omitempty,min=1,max=100"`
}
