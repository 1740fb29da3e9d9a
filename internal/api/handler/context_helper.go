package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"hyperzen/backend/internal/service"
	pkgerrors "hyperzen/backend/pkg/errors"
	"hyperzen/backend/pkg/jwt"
	"hyperzen/backend/pkg/response"
	"hyperzen/backend/pkg/validator"
)

// 上下文键，由 JWTAuth 中间件写入
const (
	ctxUserID = "user_id"
	ctxRole   = "role"
	ctxClaims = "claims"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	return mustGetString(c, ctxUserID)
}

// MustGetRole 从 Gin 上下文中安全提取 role。
func MustGetRole(c *gin.Context) (string, bool) {
	return mustGetString(c, ctxRole)
}

// MustGetClaims 提取当前 access token 的完整声明（注销时需要 jti 与过期时间）
func MustGetClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, exists := c.Get(ctxClaims)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	if !ok || claims == nil {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}
	return claims, true
}

func mustGetString(c *gin.Context, key string) (string, bool) {
	v, exists := c.Get(key)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// bindFailed 参数绑定失败，details 为字段级说明
func bindFailed(c *gin.Context, err error) {
	response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", validator.Describe(err))
}

// referenceDate 解析 ?date=，空则取当天
func referenceDate(c *gin.Context, raw string) (time.Time, bool) {
	ref, err := service.ReferenceDate(raw, time.Now())
	if err != nil {
		response.BadRequest(c, 10001, "日期格式应为 YYYY-MM-DD")
		return time.Time{}, false
	}
	return ref, true
}

// handleCommonError 跨模块共享的业务错误；未识别的错误返回 500
func handleCommonError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 10006, "数据已被其他操作修改，请刷新后重试")
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 10001, "日期格式应为 YYYY-MM-DD")
	case errors.Is(err, service.ErrSchoolYearNotFound):
		response.NotFound(c, 13001, "学年不存在")
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 14001, "学生不存在")
	case errors.Is(err, service.ErrDossierNotFound):
		response.NotFound(c, 15001, "缴费档案不存在")
	case errors.Is(err, service.ErrDossierClosed):
		response.Conflict(c, 15004, "档案已关闭")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 12001, "用户不存在")
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}
