package models

import "errors"

// AIServiceError AI 服务不可用（重试耗尽后仍失败）
type AIServiceError struct {
	Message string
	Details string
}

func (e *AIServiceError) Error() string {
	if e.Message == "" {
		return "AI 服务当前不可用"
	}
	return e.Message
}

func NewAIServiceError(message, details string) *AIServiceError {
	return &AIServiceError{Message: message, Details: details}
}

// 内容为空，无法生成摘要
var ErrContentEmpty = errors.New("内容为空，无法生成摘要")

// 实体不存在或无权访问
var ErrNotFound = errors.New("资源不存在或无权限访问")
