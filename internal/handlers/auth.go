package handlers

import (
	"net/http"
	"smartnotes-backend/internal/config"
	"smartnotes-backend/internal/models"
	"smartnotes-backend/internal/services"
	"smartnotes-backend/internal/utils"
	pkgvalidator "smartnotes-backend/pkg/validator"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type AuthHandler struct {
	authService *services.AuthService
	config      *config.Config
	validator   *validator.Validate
}

func NewAuthHandler(authService *services.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		config:      cfg,
		validator:   pkgvalidator.GetValidator(),
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req models.UserRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "请求参数错误")
		return
	}

	// 验证请求参数
	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationError(c, err.Error())
		return
	}

	user, err := h.authService.Register(&req)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	// 生成 JWT Token
	token, err := utils.GenerateToken(
		user.ID, user.Username, user.Email,
		h.config.JWT.Secret, h.config.JWT.ExpireHours)
	if err != nil {
		utils.InternalError(c)
		return
	}

	utils.Created(c, "注册成功", models.UserResponse{
		User:  user,
		Token: token,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req models.UserLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "请求参数错误")
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationError(c, err.Error())
		return
	}

	user, err := h.authService.Login(&req)
	if err != nil {
		utils.Unauthorized(c, err.Error())
		return
	}

	token, err := utils.GenerateToken(
		user.ID, user.Username, user.Email,
		h.config.JWT.Secret, h.config.JWT.ExpireHours)
	if err != nil {
		utils.InternalError(c)
		return
	}

	utils.SuccessWithMessage(c, "登录成功", models.UserResponse{
		User:  user,
		Token: token,
	})
}

func (h *AuthHandler) GetMe(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.Unauthorized(c, "请先登录")
		return
	}

	user, err := h.authService.GetUserByID(userID.(uint))
	if err != nil {
		utils.InternalError(c)
		return
	}

	utils.Success(c, user)
}

func (h *AuthHandler) UpdateMe(c *gin.Context) {
	userID, _ := c.Get("user_id")

	var req models.UserUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "请求参数错误")
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationError(c, err.Error())
		return
	}

	user, err := h.authService.UpdateProfile(userID.(uint), &req)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	utils.SuccessWithMessage(c, "更新成功", user)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	// JWT 是无状态的，客户端删除 token 即可
	utils.SuccessWithMessage(c, "退出成功", nil)
}
