package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"hyperzen/backend/internal/dto"
	"hyperzen/backend/internal/service"
	"hyperzen/backend/pkg/response"
)

// SchoolYearHandler 学年模块 HTTP 处理器
type SchoolYearHandler struct {
	schoolYearSvc service.SchoolYearService
}

// NewSchoolYearHandler 创建 SchoolYearHandler
func NewSchoolYearHandler(schoolYearSvc service.SchoolYearService) *SchoolYearHandler {
	return &SchoolYearHandler{schoolYearSvc: schoolYearSvc}
}

// ListSchoolYears 获取学年列表
// GET /api/v1/school-years
func (h *SchoolYearHandler) ListSchoolYears(c *gin.Context) {
	years, err := h.schoolYearSvc.List(c.Request.Context())
	if err != nil {
		h.handleSchoolYearError(c, err)
		return
	}

	response.OK(c, gin.H{"list": years})
}

// GetCurrentSchoolYear 获取当前学年
// GET /api/v1/school-years/current
func (h *SchoolYearHandler) GetCurrentSchoolYear(c *gin.Context) {
	year, err := h.schoolYearSvc.GetCurrent(c.Request.Context())
	if err != nil {
		h.handleSchoolYearError(c, err)
		return
	}

	response.OK(c, year)
}

// CreateSchoolYear 创建学年
// POST /api/v1/school-years
func (h *SchoolYearHandler) CreateSchoolYear(c *gin.Context) {
	var req dto.CreateSchoolYearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	year, err := h.schoolYearSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleSchoolYearError(c, err)
		return
	}

	response.Created(c, year)
}

// ActivateSchoolYear 激活学年（设为当前学年）
// PUT /api/v1/school-years/:id/activate
func (h *SchoolYearHandler) ActivateSchoolYear(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.schoolYearSvc.Activate(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.handleSchoolYearError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleSchoolYearError 统一处理学年模块业务错误
func (h *SchoolYearHandler) handleSchoolYearError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSchoolYearDateInvalid):
		response.BadRequest(c, 13002, "学年结束日期必须晚于开始日期")
	case errors.Is(err, service.ErrSchoolYearLabelInvalid):
		response.BadRequest(c, 13003, "学年标签格式应为 YYYY-YYYY")
	case errors.Is(err, service.ErrSchoolYearExists):
		response.Conflict(c, 13004, "学年标签已存在")
	default:
		handleCommonError(c, err)
	}
}
