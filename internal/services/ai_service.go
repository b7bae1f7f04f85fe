// internal/services/ai_service.go
package services

import (
	"context"
	"fmt"
	"net/http"
	"smartnotes-backend/internal/config"
	"smartnotes-backend/internal/models"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// FailurePolicy 重试耗尽后的处理方式
type FailurePolicy int

const (
	// FailureAbsorb 退化为抽取式摘要，不向调用方返回错误
	FailureAbsorb FailurePolicy = iota
	// FailurePropagate 失败向调用方返回 AIServiceError
	FailurePropagate
)

// 短文本直接截断返回，不调用 AI 服务
const shortContentWords = 20

// completionClient 抽象 openai 客户端，测试时可替换
type completionClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// AIClient 笔记和对话服务依赖的 AI 能力
type AIClient interface {
	Summarize(ctx context.Context, content string, maxLength int, policy FailurePolicy) (string, error)
	ChatResponse(ctx context.Context, contextMessages []models.ContextMessage, newMessage string) (string, error)
	ChatSummary(ctx context.Context, conversation string) (string, error)
	ContextSummary(ctx context.Context, fullSummary string) (string, error)
	Model() string
}

type AIService struct {
	client      completionClient
	cfg         config.AIConfig
	backoffBase time.Duration
}

func NewAIService(cfg config.AIConfig) *AIService {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.HTTPClient = &http.Client{
		Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
	}

	switch cfg.Provider {
	case "deepseek":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "https://api.deepseek.com"
		}
		clientConfig.BaseURL = baseURL

	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434/v1"
		}
		clientConfig.BaseURL = baseURL

	default:
		// openai 及其他兼容服务
		if cfg.BaseURL != "" {
			clientConfig.BaseURL = cfg.BaseURL
		}
	}

	return &AIService{
		client:      openai.NewClientWithConfig(clientConfig),
		cfg:         cfg,
		backoffBase: time.Second,
	}
}

// Summarize 生成摘要。空内容报错；短内容直接截断返回；
// 重试耗尽后按 policy 决定退化为抽取式摘要还是返回错误。
func (s *AIService) Summarize(ctx context.Context, content string, maxLength int, policy FailurePolicy) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", models.ErrContentEmpty
	}
	if maxLength <= 0 {
		maxLength = s.cfg.SummaryMaxLength
	}

	if len(strings.Fields(content)) <= shortContentWords {
		return truncateRunes(content, maxLength*5), nil
	}

	prompt := buildSummaryPrompt(content, maxLength)
	summary, err := s.completeWithRetry(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	})
	if err == nil {
		return summary, nil
	}

	if policy == FailureAbsorb {
		logrus.WithError(err).Warn("AI 摘要生成失败，退化为抽取式摘要")
		return extractiveSummary(content, maxLength), nil
	}

	return "", models.NewAIServiceError("摘要生成失败", err.Error())
}

// ChatResponse 基于上下文生成对话回复，失败不做抽取式退化
func (s *AIService) ChatResponse(ctx context.Context, contextMessages []models.ContextMessage, newMessage string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(contextMessages)+1)
	for _, m := range contextMessages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: newMessage,
	})

	response, err := s.completeWithRetry(ctx, messages)
	if err != nil {
		return "", models.NewAIServiceError("AI 回复生成失败", err.Error())
	}
	return response, nil
}

// ChatSummary 对整段对话生成 200-300 词的总结
func (s *AIService) ChatSummary(ctx context.Context, conversation string) (string, error) {
	if strings.TrimSpace(conversation) == "" {
		return "", models.ErrContentEmpty
	}

	prompt := fmt.Sprintf(`Summarize this entire conversation between a user and an AI assistant.
Capture the key topics discussed, important information shared, and the overall context.
Keep it concise but informative (around 200-300 words).

Conversation:
%s

Summary:`, conversation)

	summary, err := s.completeWithRetry(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	})
	if err != nil {
		return "", models.NewAIServiceError("对话摘要生成失败", err.Error())
	}
	return summary, nil
}

// ContextSummary 把完整摘要压缩成不超过 100 词的上下文摘要
func (s *AIService) ContextSummary(ctx context.Context, fullSummary string) (string, error) {
	prompt := fmt.Sprintf(`Create a very concise context summary (max 100 words) from this conversation summary.
Focus on key facts, topics, and user preferences that would be useful for continuing the conversation.

Full Summary:
%s

Concise Context:`, fullSummary)

	summary, err := s.completeWithRetry(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	})
	if err != nil {
		return "", models.NewAIServiceError("上下文摘要生成失败", err.Error())
	}
	return summary, nil
}

// Model 当前使用的模型名
func (s *AIService) Model() string {
	return s.cfg.Model
}

// completeWithRetry 带指数退避的重试调用，间隔 backoffBase * 2^attempt
func (s *AIService) completeWithRetry(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	var lastErr error

	for attempt := 0; attempt < s.cfg.MaxRetries; attempt++ {
		resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       s.cfg.Model,
			Messages:    messages,
			MaxTokens:   s.cfg.MaxTokens,
			Temperature: s.cfg.Temperature,
		})

		if err == nil {
			if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
				err = fmt.Errorf("empty response from AI provider")
			} else {
				return strings.TrimSpace(resp.Choices[0].Message.Content), nil
			}
		}

		lastErr = err
		logrus.WithError(err).WithFields(logrus.Fields{
			"attempt":     attempt + 1,
			"max_retries": s.cfg.MaxRetries,
		}).Warn("AI 请求失败")

		if attempt < s.cfg.MaxRetries-1 {
			select {
			case <-time.After(s.backoffBase << attempt):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}

	return "", fmt.Errorf("AI request failed after %d attempts: %w", s.cfg.MaxRetries, lastErr)
}

func buildSummaryPrompt(content string, maxLength int) string {
	return fmt.Sprintf(`Summarize the following note in approximately %d words or less.
Make it concise, clear, and capture the key points. Do not include any preamble or
explanation - just provide the summary.

Note content:
%s

Summary:`, maxLength, content)
}

// extractiveSummary 抽取式摘要：按词数预算从头拼接完整句子
func extractiveSummary(content string, maxLength int) string {
	var parts []string
	words := 0

	for _, sentence := range splitSentences(content) {
		n := len(strings.Fields(sentence))
		if words+n > maxLength {
			break
		}
		parts = append(parts, sentence)
		words += n
		if words >= maxLength {
			break
		}
	}

	summary := strings.Join(parts, " ")
	if summary == "" {
		// 首句就超出预算时退回纯词截断
		fields := strings.Fields(content)
		if len(fields) > maxLength {
			fields = fields[:maxLength]
		}
		summary = strings.Join(fields, " ")
	}

	if len(strings.Fields(content)) > len(strings.Fields(summary)) {
		summary += "..."
	}

	return summary
}

func splitSentences(text string) []string {
	var sentences []string
	var b strings.Builder

	for _, r := range text {
		b.WriteRune(r)
		switch r {
		case '.', '!', '?', '。', '！', '？':
			if s := strings.TrimSpace(b.String()); s != "" {
				sentences = append(sentences, s)
			}
			b.Reset()
		}
	}

	if s := strings.TrimSpace(b.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
