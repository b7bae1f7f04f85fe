package services

import (
	"context"
	"smartnotes-backend/internal/models"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB 内存 SQLite，限制单连接避免 :memory: 多连接各持一库
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Tag{},
		&models.Note{},
		&models.Chat{},
		&models.ChatMessage{},
	))

	return db
}

func createTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	user := models.User{
		Username:     "tester",
		Email:        "tester@example.com",
		PasswordHash: "x",
		IsActive:     true,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

// stubAI 可编程的 AIClient 测试替身
type stubAI struct {
	summarizeResult   string
	summarizeErr      error
	chatResult        string
	chatErr           error
	chatSummaryResult string
	chatSummaryErr    error
	contextResult     string
	contextErr        error

	summarizeCalls   int
	chatCalls        int
	chatSummaryCalls int

	// 最近一次 ChatResponse 收到的上下文
	lastContext    []models.ContextMessage
	lastNewMessage string
}

func (s *stubAI) Summarize(ctx context.Context, content string, maxLength int, policy FailurePolicy) (string, error) {
	s.summarizeCalls++
	if s.summarizeErr != nil {
		return "", s.summarizeErr
	}
	return s.summarizeResult, nil
}

func (s *stubAI) ChatResponse(ctx context.Context, contextMessages []models.ContextMessage, newMessage string) (string, error) {
	s.chatCalls++
	s.lastContext = contextMessages
	s.lastNewMessage = newMessage
	if s.chatErr != nil {
		return "", s.chatErr
	}
	return s.chatResult, nil
}

func (s *stubAI) ChatSummary(ctx context.Context, conversation string) (string, error) {
	s.chatSummaryCalls++
	if s.chatSummaryErr != nil {
		return "", s.chatSummaryErr
	}
	return s.chatSummaryResult, nil
}

func (s *stubAI) ContextSummary(ctx context.Context, fullSummary string) (string, error) {
	if s.contextErr != nil {
		return "", s.contextErr
	}
	return s.contextResult, nil
}

func (s *stubAI) Model() string {
	return "stub-model"
}
