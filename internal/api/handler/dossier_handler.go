package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"hyperzen/backend/internal/dto"
	"hyperzen/backend/internal/service"
	"hyperzen/backend/pkg/response"
)

// DossierHandler 缴费档案与付款状态 HTTP 处理器
type DossierHandler struct {
	dossierSvc service.DossierService
	statusSvc  service.PaymentStatusService
}

// NewDossierHandler 创建 DossierHandler
func NewDossierHandler(dossierSvc service.DossierService, statusSvc service.PaymentStatusService) *DossierHandler {
	return &DossierHandler{dossierSvc: dossierSvc, statusSvc: statusSvc}
}

// CreateDossier 创建档案
// POST /api/v1/dossiers
func (h *DossierHandler) CreateDossier(c *gin.Context) {
	var req dto.CreateDossierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	dossier, err := h.dossierSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleDossierError(c, err)
		return
	}

	response.Created(c, dossier)
}

// GetDossier 获取档案详情
// GET /api/v1/dossiers/:id
func (h *DossierHandler) GetDossier(c *gin.Context) {
	dossier, err := h.dossierSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleDossierError(c, err)
		return
	}

	response.OK(c, dossier)
}

// ListDossiers 档案列表
// GET /api/v1/dossiers
func (h *DossierHandler) ListDossiers(c *gin.Context) {
	var req dto.DossierListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	dossiers, total, err := h.dossierSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleDossierError(c, err)
		return
	}

	response.OKPage(c, dossiers, total, req.GetPage(), req.GetPageSize())
}

// UpdateDossier 修改档案金额（乐观锁）
// PUT /api/v1/dossiers/:id
func (h *DossierHandler) UpdateDossier(c *gin.Context) {
	var req dto.UpdateDossierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	dossier, err := h.dossierSvc.Update(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleDossierError(c, err)
		return
	}

	response.OK(c, dossier)
}

// CloseDossier 关闭档案
// PUT /api/v1/dossiers/:id/close
func (h *DossierHandler) CloseDossier(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.dossierSvc.Close(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.handleDossierError(c, err)
		return
	}

	response.OK(c, nil)
}

// GetStatus 单档案付款状态
// GET /api/v1/dossiers/:id/status?date=YYYY-MM-DD
func (h *DossierHandler) GetStatus(c *gin.Context) {
	var q dto.StatusQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}
	ref, ok := referenceDate(c, q.Date)
	if !ok {
		return
	}

	status, err := h.statusSvc.GetStatus(c.Request.Context(), c.Param("id"), ref)
	if err != nil {
		h.handleDossierError(c, err)
		return
	}

	response.OK(c, status)
}

// SummarizeStatuses 学年付款状态汇总
// GET /api/v1/statuses?school_year=2025-2026&date=&status=
func (h *DossierHandler) SummarizeStatuses(c *gin.Context) {
	var req dto.StatusListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}
	ref, ok := referenceDate(c, req.Date)
	if !ok {
		return
	}

	summary, err := h.statusSvc.Summarize(c.Request.Context(), &req, ref)
	if err != nil {
		h.handleDossierError(c, err)
		return
	}

	response.OK(c, summary)
}

func (h *DossierHandler) handleDossierError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDossierAmountInvalid):
		response.BadRequest(c, 15002, "金额必须为非负数，最多两位小数")
	case errors.Is(err, service.ErrDossierExists):
		response.Conflict(c, 15003, "该学生在此学年已有有效档案")
	default:
		handleCommonError(c, err)
	}
}
