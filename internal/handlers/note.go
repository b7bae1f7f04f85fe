package handlers

import (
	"errors"
	"net/http"
	"smartnotes-backend/internal/models"
	"smartnotes-backend/internal/services"
	"smartnotes-backend/internal/utils"
	pkgvalidator "smartnotes-backend/pkg/validator"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type NoteHandler struct {
	noteService *services.NoteService
	validator   *validator.Validate
}

func NewNoteHandler(noteService *services.NoteService) *NoteHandler {
	return &NoteHandler{
		noteService: noteService,
		validator:   pkgvalidator.GetValidator(),
	}
}

func (h *NoteHandler) GetNotes(c *gin.Context) {
	userID, _ := c.Get("user_id")

	var req models.NoteListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "请求参数错误")
		return
	}

	// 设置默认值
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.Limit <= 0 {
		req.Limit = 20
	}
	if req.Limit > 100 {
		req.Limit = 100
	}
	if req.Sort == "" {
		req.Sort = "created_at"
	}
	if req.Order == "" {
		req.Order = "desc"
	}

	notes, pagination, err := h.noteService.GetNotes(userID.(uint), &req)
	if err != nil {
		utils.InternalError(c)
		return
	}

	utils.Success(c, gin.H{
		"notes":      notes,
		"pagination": pagination,
	})
}

func (h *NoteHandler) GetNote(c *gin.Context) {
	userID, _ := c.Get("user_id")

	noteID, err := parseIDParam(c, "id")
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "无效的笔记ID")
		return
	}

	note, err := h.noteService.GetNoteByID(noteID, userID.(uint))
	if err != nil {
		utils.NotFound(c, "笔记不存在")
		return
	}

	utils.Success(c, note)
}

func (h *NoteHandler) CreateNote(c *gin.Context) {
	userID, _ := c.Get("user_id")

	var req models.NoteCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "请求参数错误")
		return
	}

	// 验证请求参数（空内容在调用 AI 之前就被拒绝）
	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationError(c, err.Error())
		return
	}

	note, err := h.noteService.CreateNote(c.Request.Context(), userID.(uint), &req)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	utils.Created(c, "创建成功", note)
}

func (h *NoteHandler) UpdateNote(c *gin.Context) {
	userID, _ := c.Get("user_id")

	noteID, err := parseIDParam(c, "id")
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "无效的笔记ID")
		return
	}

	var req models.NoteUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "请求参数错误")
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationError(c, err.Error())
		return
	}

	note, err := h.noteService.UpdateNote(noteID, userID.(uint), &req)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			utils.NotFound(c, "笔记不存在")
			return
		}
		utils.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	utils.SuccessWithMessage(c, "更新成功", note)
}

func (h *NoteHandler) DeleteNote(c *gin.Context) {
	userID, _ := c.Get("user_id")

	noteID, err := parseIDParam(c, "id")
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "无效的笔记ID")
		return
	}

	if err := h.noteService.DeleteNote(noteID, userID.(uint)); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			utils.NotFound(c, "笔记不存在")
			return
		}
		utils.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	utils.SuccessWithMessage(c, "删除成功", nil)
}

// SummarizeNote 显式生成摘要，AI 失败返回 503
func (h *NoteHandler) SummarizeNote(c *gin.Context) {
	userID, _ := c.Get("user_id")

	noteID, err := parseIDParam(c, "id")
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "无效的笔记ID")
		return
	}

	summary, err := h.noteService.SummarizeNote(c.Request.Context(), noteID, userID.(uint))
	if err != nil {
		var aiErr *models.AIServiceError
		switch {
		case errors.Is(err, models.ErrNotFound):
			utils.NotFound(c, "笔记不存在")
		case errors.Is(err, models.ErrContentEmpty):
			utils.Error(c, http.StatusBadRequest, err.Error())
		case errors.As(err, &aiErr):
			utils.AIServiceUnavailable(c, aiErr.Message, aiErr.Details)
		default:
			utils.InternalError(c)
		}
		return
	}

	c.JSON(http.StatusOK, models.NoteSummaryResponse{
		Summary: summary,
		Model:   h.noteService.AIModel(),
	})
}

func (h *NoteHandler) GetUserStats(c *gin.Context) {
	userID, _ := c.Get("user_id")

	stats, err := h.noteService.GetUserStats(userID.(uint))
	if err != nil {
		utils.InternalError(c)
		return
	}

	utils.Success(c, stats)
}

func parseIDParam(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
