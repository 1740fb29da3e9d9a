package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"hyperzen/backend/internal/dto"
	"hyperzen/backend/internal/service"
	"hyperzen/backend/pkg/response"
)

// PaymentHandler 付款与分期 HTTP 处理器
type PaymentHandler struct {
	paymentSvc     service.PaymentService
	installmentSvc service.InstallmentService
}

// NewPaymentHandler 创建 PaymentHandler
func NewPaymentHandler(paymentSvc service.PaymentService, installmentSvc service.InstallmentService) *PaymentHandler {
	return &PaymentHandler{paymentSvc: paymentSvc, installmentSvc: installmentSvc}
}

// RecordPayment 登记付款
// POST /api/v1/dossiers/:id/payments
func (h *PaymentHandler) RecordPayment(c *gin.Context) {
	var req dto.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	payment, err := h.paymentSvc.Record(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handlePaymentError(c, err)
		return
	}

	response.Created(c, payment)
}

// ListPayments 档案付款流水
// GET /api/v1/dossiers/:id/payments
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	payments, err := h.paymentSvc.ListByDossier(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handlePaymentError(c, err)
		return
	}

	response.OK(c, gin.H{"list": payments})
}

// VoidPayment 作废付款
// POST /api/v1/payments/:id/void
func (h *PaymentHandler) VoidPayment(c *gin.Context) {
	var req dto.VoidPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	payment, err := h.paymentSvc.Void(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handlePaymentError(c, err)
		return
	}

	response.OK(c, payment)
}

// GenerateSchedule 生成分期计划
// POST /api/v1/dossiers/:id/installments
func (h *PaymentHandler) GenerateSchedule(c *gin.Context) {
	var req dto.GenerateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	items, err := h.installmentSvc.GenerateSchedule(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handlePaymentError(c, err)
		return
	}

	response.Created(c, gin.H{"list": items})
}

// ListInstallments 档案分期计划
// GET /api/v1/dossiers/:id/installments
func (h *PaymentHandler) ListInstallments(c *gin.Context) {
	items, err := h.installmentSvc.ListByDossier(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handlePaymentError(c, err)
		return
	}

	response.OK(c, gin.H{"list": items})
}

// MarkOverdue 手动触发逾期扫描
// POST /api/v1/installments/mark-overdue?date=YYYY-MM-DD
func (h *PaymentHandler) MarkOverdue(c *gin.Context) {
	var q dto.StatusQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}
	ref, ok := referenceDate(c, q.Date)
	if !ok {
		return
	}

	n, err := h.installmentSvc.MarkOverdue(c.Request.Context(), ref)
	if err != nil {
		h.handlePaymentError(c, err)
		return
	}

	response.OK(c, dto.MarkOverdueResponse{Dossiers: n})
}

// handlePaymentError 付款与分期共用错误映射
func (h *PaymentHandler) handlePaymentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPaymentNotFound):
		response.NotFound(c, 16001, "付款记录不存在")
	case errors.Is(err, service.ErrPaymentAmountInvalid):
		response.BadRequest(c, 16002, "付款金额必须大于 0，最多两位小数")
	case errors.Is(err, service.ErrPaymentDateInFuture):
		response.BadRequest(c, 16003, "付款日期不能晚于今天")
	case errors.Is(err, service.ErrPaymentAlreadyVoided):
		response.Conflict(c, 16004, "付款已作废")
	case errors.Is(err, service.ErrInstallmentNotFound):
		response.NotFound(c, 17001, "分期不存在")
	case errors.Is(err, service.ErrInstallmentNotPayable):
		response.BadRequest(c, 17002, "分期已结清或已取消")
	case errors.Is(err, service.ErrInstallmentWrongDossier):
		response.BadRequest(c, 17003, "分期不属于该档案")
	case errors.Is(err, service.ErrScheduleExists):
		response.Conflict(c, 17004, "该档案已有分期计划")
	case errors.Is(err, service.ErrScheduleNothingDue):
		response.BadRequest(c, 17005, "应付总额为 0，无需生成分期")
	case errors.Is(err, service.ErrScheduleCountInvalid):
		response.BadRequest(c, 17006, "分期数必须在 1-24 之间")
	default:
		handleCommonError(c, err)
	}
}
