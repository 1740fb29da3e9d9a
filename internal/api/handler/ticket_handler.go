package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"hyperzen/backend/internal/dto"
	"hyperzen/backend/internal/service"
	"hyperzen/backend/pkg/response"
)

// TicketHandler 工单模块 HTTP 处理器
type TicketHandler struct {
	ticketSvc service.TicketService
}

// NewTicketHandler 创建 TicketHandler
func NewTicketHandler(ticketSvc service.TicketService) *TicketHandler {
	return &TicketHandler{ticketSvc: ticketSvc}
}

// CreateTicket 创建工单
// POST /api/v1/tickets
func (h *TicketHandler) CreateTicket(c *gin.Context) {
	var req dto.CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	ticket, err := h.ticketSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleTicketError(c, err)
		return
	}

	response.Created(c, ticket)
}

// GetTicket 获取工单详情
// GET /api/v1/tickets/:id
func (h *TicketHandler) GetTicket(c *gin.Context) {
	ticket, err := h.ticketSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleTicketError(c, err)
		return
	}

	response.OK(c, ticket)
}

// ListTickets 工单列表；mine=true 仅返回指派给自己的工单
// GET /api/v1/tickets
func (h *TicketHandler) ListTickets(c *gin.Context) {
	var req dto.TicketListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	tickets, total, err := h.ticketSvc.List(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleTicketError(c, err)
		return
	}

	response.OKPage(c, tickets, total, req.GetPage(), req.GetPageSize())
}

// UpdateTicketStatus 工单状态流转
// PUT /api/v1/tickets/:id/status
func (h *TicketHandler) UpdateTicketStatus(c *gin.Context) {
	var req dto.UpdateTicketStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	ticket, err := h.ticketSvc.UpdateStatus(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleTicketError(c, err)
		return
	}

	response.OK(c, ticket)
}

// AssignTicket 指派工单
// PUT /api/v1/tickets/:id/assign
func (h *TicketHandler) AssignTicket(c *gin.Context) {
	var req dto.AssignTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	ticket, err := h.ticketSvc.Assign(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleTicketError(c, err)
		return
	}

	response.OK(c, ticket)
}

func (h *TicketHandler) handleTicketError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTicketNotFound):
		response.NotFound(c, 19001, "工单不存在")
	case errors.Is(err, service.ErrTicketTransitionInvalid):
		response.BadRequest(c, 19002, "工单状态流转非法")
	case errors.Is(err, service.ErrTicketAssigneeInvalid):
		response.BadRequest(c, 19003, "指派对象不存在或已停用")
	case errors.Is(err, service.ErrTicketClosed):
		response.Conflict(c, 19004, "工单已关闭")
	default:
		handleCommonError(c, err)
	}
}
