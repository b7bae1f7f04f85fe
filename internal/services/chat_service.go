// internal/services/chat_service.go
package services

import (
	"context"
	"fmt"
	"math"
	"smartnotes-backend/internal/models"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	// 上下文窗口内保留的最近消息数，更早的消息只通过摘要参与
	maxContextMessages = 20
	// 每累计多少条消息触发一次对话摘要
	summarizeThreshold = 10
	// 单条消息摘要的词数预算
	messageSummaryLength = 50
)

type ChatService struct {
	db *gorm.DB
	ai AIClient
}

func NewChatService(db *gorm.DB, ai AIClient) *ChatService {
	return &ChatService{db: db, ai: ai}
}

func (s *ChatService) CreateChat(userID uint, req *models.ChatCreateRequest) (*models.Chat, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = fmt.Sprintf("Chat %s", time.Now().Format("2006-01-02 15:04"))
	}

	chat := models.Chat{
		UserID: userID,
		Title:  title,
	}

	if err := s.db.Create(&chat).Error; err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{"chat_id": chat.ID, "user_id": userID}).Info("创建对话")
	return &chat, nil
}

func (s *ChatService) GetChats(userID uint, req *models.ChatListRequest) ([]models.Chat, *models.Pagination, error) {
	var chats []models.Chat
	var total int64

	query := s.db.Model(&models.Chat{}).Where("user_id = ?", userID)

	if err := query.Count(&total).Error; err != nil {
		return nil, nil, err
	}

	offset := (req.Page - 1) * req.Limit
	pages := int(math.Ceil(float64(total) / float64(req.Limit)))

	err := query.Order("updated_at DESC").Limit(req.Limit).Offset(offset).Find(&chats).Error
	if err != nil {
		return nil, nil, err
	}

	pagination := &models.Pagination{
		Page:  req.Page,
		Limit: req.Limit,
		Total: int(total),
		Pages: pages,
	}

	return chats, pagination, nil
}

func (s *ChatService) GetChatByID(chatID, userID uint) (*models.Chat, error) {
	var chat models.Chat
	err := s.db.Where("id = ? AND user_id = ?", chatID, userID).First(&chat).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &chat, nil
}

func (s *ChatService) DeleteChat(chatID, userID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var chat models.Chat
		if err := tx.Where("id = ? AND user_id = ?", chatID, userID).First(&chat).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return models.ErrNotFound
			}
			return err
		}

		// 消息随对话一起删除
		if err := tx.Where("chat_id = ?", chatID).Delete(&models.ChatMessage{}).Error; err != nil {
			return err
		}

		return tx.Delete(&chat).Error
	})
}

// GetMessages 返回对话的完整消息历史，按创建时间排序
func (s *ChatService) GetMessages(chatID, userID uint) ([]models.ChatMessage, error) {
	if _, err := s.GetChatByID(chatID, userID); err != nil {
		return nil, err
	}

	var messages []models.ChatMessage
	err := s.db.Where("chat_id = ?", chatID).Order("created_at ASC, id ASC").Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// AddMessage 插入消息并在同一事务里累加 message_count，
// 达到阈值时同步更新对话摘要（失败只记日志，不影响消息写入）
func (s *ChatService) AddMessage(ctx context.Context, chat *models.Chat, role, content string, autoSummarize bool) (*models.ChatMessage, error) {
	message := models.ChatMessage{
		ChatID:  chat.ID,
		Role:    role,
		Content: content,
	}
	message.TokensUsed = message.EstimateTokens()

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&message).Error; err != nil {
			return err
		}

		return tx.Model(&models.Chat{}).Where("id = ?", chat.ID).
			Updates(map[string]interface{}{
				"message_count":   gorm.Expr("message_count + 1"),
				"last_message_at": message.CreatedAt,
			}).Error
	})
	if err != nil {
		return nil, err
	}

	// 重新读取计数后判断摘要阈值
	if err := s.db.First(chat, chat.ID).Error; err != nil {
		return nil, err
	}

	if autoSummarize && chat.MessageCount > 0 && chat.MessageCount%summarizeThreshold == 0 {
		if _, err := s.UpdateChatSummary(ctx, chat); err != nil {
			logrus.WithError(err).WithField("chat_id", chat.ID).Warn("对话摘要更新失败")
		}
	}

	return &message, nil
}

// GetChatContext 组装发送给 AI 的上下文：
// [摘要系统消息] + 最近 maxContextMessages 条消息（时间正序）
func (s *ChatService) GetChatContext(chat *models.Chat, includeSummary bool) ([]models.ContextMessage, error) {
	var context []models.ContextMessage

	if includeSummary && chat.ContextSummary != nil && *chat.ContextSummary != "" {
		context = append(context, models.ContextMessage{
			Role:    models.RoleSystem,
			Content: fmt.Sprintf("Previous conversation summary: %s", *chat.ContextSummary),
		})
	}

	var recent []models.ChatMessage
	err := s.db.Where("chat_id = ?", chat.ID).
		Order("created_at DESC, id DESC").
		Limit(maxContextMessages).
		Find(&recent).Error
	if err != nil {
		return nil, err
	}

	// 查询按时间倒序取最近 N 条，反转回正序
	for i := len(recent) - 1; i >= 0; i-- {
		context = append(context, models.ContextMessage{
			Role:    recent[i].Role,
			Content: recent[i].Content,
		})
	}

	return context, nil
}

// UpdateChatSummary 基于完整消息历史重新生成对话摘要和上下文摘要
func (s *ChatService) UpdateChatSummary(ctx context.Context, chat *models.Chat) (string, error) {
	var messages []models.ChatMessage
	err := s.db.Where("chat_id = ?", chat.ID).Order("created_at ASC, id ASC").Find(&messages).Error
	if err != nil {
		return "", err
	}

	if len(messages) == 0 {
		return "", nil
	}

	summary, err := s.ai.ChatSummary(ctx, buildConversationText(messages))
	if err != nil {
		return "", err
	}

	// 上下文摘要失败时退回完整摘要的截断
	contextSummary, err := s.ai.ContextSummary(ctx, summary)
	if err != nil {
		logrus.WithError(err).WithField("chat_id", chat.ID).Warn("上下文摘要生成失败，使用截断的完整摘要")
		contextSummary = truncateRunes(summary, 500)
	}

	err = s.db.Model(&models.Chat{}).Where("id = ?", chat.ID).
		Updates(map[string]interface{}{
			"summary":         summary,
			"context_summary": contextSummary,
		}).Error
	if err != nil {
		return "", err
	}

	chat.Summary = &summary
	chat.ContextSummary = &contextSummary

	logrus.WithField("chat_id", chat.ID).Info("对话摘要已更新")
	return summary, nil
}

// GetAIResponse 处理一轮对话：
// 先持久化用户消息，再调用 AI，成功后持久化助手回复。
// AI 调用失败时用户消息保留，错误向上传递。
func (s *ChatService) GetAIResponse(ctx context.Context, chat *models.Chat, userMessage string, useContext bool) (*models.AIResponseResult, error) {
	var context []models.ContextMessage
	if useContext {
		var err error
		context, err = s.GetChatContext(chat, true)
		if err != nil {
			return nil, err
		}
	}

	if _, err := s.AddMessage(ctx, chat, models.RoleUser, userMessage, false); err != nil {
		return nil, err
	}

	response, err := s.ai.ChatResponse(ctx, context, userMessage)
	if err != nil {
		return nil, err
	}

	if _, err := s.AddMessage(ctx, chat, models.RoleAssistant, response, true); err != nil {
		return nil, err
	}

	return &models.AIResponseResult{
		Response:     response,
		ChatID:       chat.ID,
		MessageCount: chat.MessageCount,
	}, nil
}

// SummarizeMessage 为单条消息生成摘要（显式操作，失败向上传递）
func (s *ChatService) SummarizeMessage(ctx context.Context, chatID, messageID, userID uint) (string, error) {
	if _, err := s.GetChatByID(chatID, userID); err != nil {
		return "", err
	}

	var message models.ChatMessage
	if err := s.db.Where("id = ? AND chat_id = ?", messageID, chatID).First(&message).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", models.ErrNotFound
		}
		return "", err
	}

	summary, err := s.ai.Summarize(ctx, message.Content, messageSummaryLength, FailurePropagate)
	if err != nil {
		return "", err
	}

	if err := s.db.Model(&message).Update("summary", summary).Error; err != nil {
		return "", err
	}

	return summary, nil
}

func (s *ChatService) SearchChats(userID uint, query string) ([]models.Chat, error) {
	var chats []models.Chat
	pattern := "%" + strings.ToLower(query) + "%"

	err := s.db.Model(&models.Chat{}).
		Distinct("chats.*").
		Joins("LEFT JOIN chat_messages ON chat_messages.chat_id = chats.id").
		Where("chats.user_id = ?", userID).
		Where("LOWER(chats.title) LIKE ? OR LOWER(chats.summary) LIKE ? OR LOWER(chat_messages.content) LIKE ?",
			pattern, pattern, pattern).
		Order("chats.updated_at DESC").
		Find(&chats).Error
	if err != nil {
		return nil, err
	}

	return chats, nil
}

func (s *ChatService) GetChatStats(chatID, userID uint) (*models.ChatStats, error) {
	chat, err := s.GetChatByID(chatID, userID)
	if err != nil {
		return nil, err
	}

	stats := &models.ChatStats{
		TotalMessages: chat.MessageCount,
		CreatedAt:     chat.CreatedAt,
		UpdatedAt:     chat.UpdatedAt,
		LastMessageAt: chat.LastMessageAt,
	}

	if err := s.db.Model(&models.ChatMessage{}).Where("chat_id = ? AND role = ?", chatID, models.RoleUser).
		Count(&stats.UserMessages).Error; err != nil {
		return nil, err
	}

	if err := s.db.Model(&models.ChatMessage{}).Where("chat_id = ? AND role = ?", chatID, models.RoleAssistant).
		Count(&stats.AssistantMessages).Error; err != nil {
		return nil, err
	}

	var totalTokens int64
	err = s.db.Model(&models.ChatMessage{}).Where("chat_id = ?", chatID).
		Select("COALESCE(SUM(tokens_used), 0)").Scan(&totalTokens).Error
	if err != nil {
		return nil, err
	}
	stats.TotalTokens = totalTokens

	return stats, nil
}

func buildConversationText(messages []models.ChatMessage) string {
	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		lines = append(lines, fmt.Sprintf("%s: %s", strings.ToUpper(msg.Role), msg.Content))
	}
	return strings.Join(lines, "\n\n")
}
