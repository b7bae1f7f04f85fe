package handlers

import (
	"errors"
	"net/http"
	"smartnotes-backend/internal/models"
	"smartnotes-backend/internal/services"
	"smartnotes-backend/internal/utils"
	pkgvalidator "smartnotes-backend/pkg/validator"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type ChatHandler struct {
	chatService *services.ChatService
	validator   *validator.Validate
}

func NewChatHandler(chatService *services.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		validator:   pkgvalidator.GetValidator(),
	}
}

func (h *ChatHandler) GetChats(c *gin.Context) {
	userID, _ := c.Get("user_id")

	var req models.ChatListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "请求参数错误")
		return
	}

	if req.Page <= 0 {
		req.Page = 1
	}
	if req.Limit <= 0 {
		req.Limit = 20
	}
	if req.Limit > 100 {
		req.Limit = 100
	}

	chats, pagination, err := h.chatService.GetChats(userID.(uint), &req)
	if err != nil {
		utils.InternalError(c)
		return
	}

	utils.Success(c, gin.H{
		"chats":      chats,
		"pagination": pagination,
	})
}

func (h *ChatHandler) CreateChat(c *gin.Context) {
	userID, _ := c.Get("user_id")

	var req models.ChatCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "请求参数错误")
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationError(c, err.Error())
		return
	}

	chat, err := h.chatService.CreateChat(userID.(uint), &req)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	utils.Created(c, "创建成功", chat)
}

func (h *ChatHandler) GetChat(c *gin.Context) {
	userID, _ := c.Get("user_id")

	chatID, err := parseIDParam(c, "id")
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "无效的对话ID")
		return
	}

	chat, err := h.chatService.GetChatByID(chatID, userID.(uint))
	if err != nil {
		utils.NotFound(c, "对话不存在")
		return
	}

	utils.Success(c, chat)
}

func (h *ChatHandler) DeleteChat(c *gin.Context) {
	userID, _ := c.Get("user_id")

	chatID, err := parseIDParam(c, "id")
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "无效的对话ID")
		return
	}

	if err := h.chatService.DeleteChat(chatID, userID.(uint)); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			utils.NotFound(c, "对话不存在")
			return
		}
		utils.InternalError(c)
		return
	}

	utils.SuccessWithMessage(c, "删除成功", nil)
}

func (h *ChatHandler) GetMessages(c *gin.Context) {
	userID, _ := c.Get("user_id")

	chatID, err := parseIDParam(c, "id")
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "无效的对话ID")
		return
	}

	messages, err := h.chatService.GetMessages(chatID, userID.(uint))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			utils.NotFound(c, "对话不存在")
			return
		}
		utils.InternalError(c)
		return
	}

	utils.Success(c, messages)
}

// AIResponse 一轮对话：存用户消息、调 AI、存助手回复
func (h *ChatHandler) AIResponse(c *gin.Context) {
	userID, _ := c.Get("user_id")

	chatID, err := parseIDParam(c, "id")
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "无效的对话ID")
		return
	}

	var req models.AIResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "请求参数错误")
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationError(c, err.Error())
		return
	}

	chat, err := h.chatService.GetChatByID(chatID, userID.(uint))
	if err != nil {
		utils.NotFound(c, "对话不存在")
		return
	}

	useContext := true
	if req.UseContext != nil {
		useContext = *req.UseContext
	}

	result, err := h.chatService.GetAIResponse(c.Request.Context(), chat, req.Message, useContext)
	if err != nil {
		var aiErr *models.AIServiceError
		if errors.As(err, &aiErr) {
			utils.AIServiceUnavailable(c, aiErr.Message, aiErr.Details)
			return
		}
		utils.InternalError(c)
		return
	}

	c.JSON(http.StatusOK, result)
}

// UpdateSummary 显式刷新对话摘要，返回完整对话
func (h *ChatHandler) UpdateSummary(c *gin.Context) {
	userID, _ := c.Get("user_id")

	chatID, err := parseIDParam(c, "id")
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "无效的对话ID")
		return
	}

	chat, err := h.chatService.GetChatByID(chatID, userID.(uint))
	if err != nil {
		utils.NotFound(c, "对话不存在")
		return
	}

	if _, err := h.chatService.UpdateChatSummary(c.Request.Context(), chat); err != nil {
		var aiErr *models.AIServiceError
		if errors.As(err, &aiErr) {
			utils.AIServiceUnavailable(c, aiErr.Message, aiErr.Details)
			return
		}
		utils.InternalError(c)
		return
	}

	utils.SuccessWithMessage(c, "摘要已更新", chat)
}

// GetContext 返回将发送给 AI 的上下文消息列表，不调用 AI
func (h *ChatHandler) GetContext(c *gin.Context) {
	userID, _ := c.Get("user_id")

	chatID, err := parseIDParam(c, "id")
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "无效的对话ID")
		return
	}

	chat, err := h.chatService.GetChatByID(chatID, userID.(uint))
	if err != nil {
		utils.NotFound(c, "对话不存在")
		return
	}

	context, err := h.chatService.GetChatContext(chat, true)
	if err != nil {
		utils.InternalError(c)
		return
	}

	c.JSON(http.StatusOK, models.ChatContextResponse{
		Context: context,
		Summary: chat.Summary,
	})
}

func (h *ChatHandler) SummarizeMessage(c *gin.Context) {
	userID, _ := c.Get("user_id")

	chatID, err := parseIDParam(c, "id")
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "无效的对话ID")
		return
	}

	messageID, err := parseIDParam(c, "message_id")
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "无效的消息ID")
		return
	}

	summary, err := h.chatService.SummarizeMessage(c.Request.Context(), chatID, messageID, userID.(uint))
	if err != nil {
		var aiErr *models.AIServiceError
		switch {
		case errors.Is(err, models.ErrNotFound):
			utils.NotFound(c, "消息不存在")
		case errors.Is(err, models.ErrContentEmpty):
			utils.Error(c, http.StatusBadRequest, err.Error())
		case errors.As(err, &aiErr):
			utils.AIServiceUnavailable(c, aiErr.Message, aiErr.Details)
		default:
			utils.InternalError(c)
		}
		return
	}

	utils.Success(c, gin.H{"summary": summary})
}

func (h *ChatHandler) SearchChats(c *gin.Context) {
	userID, _ := c.Get("user_id")

	query := c.Query("q")
	if query == "" {
		utils.Error(c, http.StatusBadRequest, "缺少搜索关键词")
		return
	}

	chats, err := h.chatService.SearchChats(userID.(uint), query)
	if err != nil {
		utils.InternalError(c)
		return
	}

	utils.Success(c, chats)
}

func (h *ChatHandler) GetStats(c *gin.Context) {
	userID, _ := c.Get("user_id")

	chatID, err := parseIDParam(c, "id")
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "无效的对话ID")
		return
	}

	stats, err := h.chatService.GetChatStats(chatID, userID.(uint))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			utils.NotFound(c, "对话不存在")
			return
		}
		utils.InternalError(c)
		return
	}

	utils.Success(c, stats)
}
