package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"hyperzen/backend/internal/dto"
	"hyperzen/backend/internal/service"
	"hyperzen/backend/pkg/response"
)

// MigrationHandler 学年迁移向导 HTTP 处理器
type MigrationHandler struct {
	migrationSvc service.MigrationService
}

// NewMigrationHandler 创建 MigrationHandler
func NewMigrationHandler(migrationSvc service.MigrationService) *MigrationHandler {
	return &MigrationHandler{migrationSvc: migrationSvc}
}

// CreateMigration 创建迁移
// POST /api/v1/migrations
func (h *MigrationHandler) CreateMigration(c *gin.Context) {
	var req dto.CreateMigrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	run, err := h.migrationSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleMigrationError(c, err)
		return
	}

	response.Created(c, run)
}

// GetMigration 迁移详情
// GET /api/v1/migrations/:id
func (h *MigrationHandler) GetMigration(c *gin.Context) {
	run, err := h.migrationSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleMigrationError(c, err)
		return
	}

	response.OK(c, run)
}

// ListMigrations 迁移列表
// GET /api/v1/migrations
func (h *MigrationHandler) ListMigrations(c *gin.Context) {
	runs, err := h.migrationSvc.List(c.Request.Context())
	if err != nil {
		h.handleMigrationError(c, err)
		return
	}

	response.OK(c, gin.H{"list": runs})
}

// PreviewMigration 预览结转
// POST /api/v1/migrations/:id/preview?date=YYYY-MM-DD
func (h *MigrationHandler) PreviewMigration(c *gin.Context) {
	ref, callerID, ok := h.stepParams(c)
	if !ok {
		return
	}

	preview, err := h.migrationSvc.Preview(c.Request.Context(), c.Param("id"), ref, callerID)
	if err != nil {
		h.handleMigrationError(c, err)
		return
	}

	response.OK(c, preview)
}

// ApplyMigration 执行结转
// POST /api/v1/migrations/:id/apply?date=YYYY-MM-DD
func (h *MigrationHandler) ApplyMigration(c *gin.Context) {
	ref, callerID, ok := h.stepParams(c)
	if !ok {
		return
	}

	result, err := h.migrationSvc.Apply(c.Request.Context(), c.Param("id"), ref, callerID)
	if err != nil {
		h.handleMigrationError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *MigrationHandler) stepParams(c *gin.Context) (time.Time, string, bool) {
	var q dto.StatusQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return time.Time{}, "", false
	}
	ref, ok := referenceDate(c, q.Date)
	if !ok {
		return time.Time{}, "", false
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return time.Time{}, "", false
	}
	return ref, callerID, true
}

func (h *MigrationHandler) handleMigrationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMigrationNotFound):
		response.NotFound(c, 22001, "迁移记录不存在")
	case errors.Is(err, service.ErrMigrationApplied):
		response.Conflict(c, 22002, "迁移已执行")
	case errors.Is(err, service.ErrMigrationNotPreviewed):
		response.BadRequest(c, 22003, "请先预览再执行迁移")
	case errors.Is(err, service.ErrMigrationSameYear):
		response.BadRequest(c, 22004, "源学年与目标学年不能相同")
	case errors.Is(err, service.ErrMigrationTuitionInvalid):
		response.BadRequest(c, 22005, "新学费金额非法")
	default:
		handleCommonError(c, err)
	}
}
