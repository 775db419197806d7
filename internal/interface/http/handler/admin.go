package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xiebiao/bookplus/internal/application/admin"
	"github.com/xiebiao/bookplus/internal/interface/http/dto"
	"github.com/xiebiao/bookplus/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/bookplus/pkg/errors"
	"github.com/xiebiao/bookplus/pkg/response"
)

// AdminHandler 管理后台会话处理器
type AdminHandler struct {
	loginUseCase  *admin.LoginUseCase
	logoutUseCase *admin.LogoutUseCase
}

// NewAdminHandler 创建管理后台会话处理器
func NewAdminHandler(loginUseCase *admin.LoginUseCase, logoutUseCase *admin.LogoutUseCase) *AdminHandler {
	return &AdminHandler{
		loginUseCase:  loginUseCase,
		logoutUseCase: logoutUseCase,
	}
}

// Login 管理员登录
// @Summary      管理员登录
// @Description  校验管理口令,返回24小时有效的JWT
// @Tags         管理后台
// @Accept       json
// @Produce      json
// @Param        request body dto.AdminLoginRequest true "管理口令"
// @Success      200 {object} response.Response{data=admin.LoginResponse} "登录成功"
// @Failure      400 {object} response.Response "参数错误"
// @Failure      401 {object} response.Response "口令错误"
// @Router       /api/v1/admin/login [post]
func (h *AdminHandler) Login(c *gin.Context) {
	var req dto.AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.loginUseCase.Execute(c.Request.Context(), req.Passcode)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Logout 管理员登出
// @Summary      管理员登出
// @Description  当前令牌加入黑名单直到过期
// @Tags         管理后台
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response
// @Failure      401 {object} response.Response "未登录"
// @Router       /api/v1/admin/logout [post]
func (h *AdminHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	if err := h.logoutUseCase.Execute(c.Request.Context(), claims); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
