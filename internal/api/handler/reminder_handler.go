package handler

import (
	"github.com/gin-gonic/gin"

	"hyperzen/backend/internal/dto"
	"hyperzen/backend/internal/service"
	"hyperzen/backend/pkg/response"
)

// ReminderHandler 催缴模块 HTTP 处理器
type ReminderHandler struct {
	reminderSvc service.ReminderService
}

// NewReminderHandler 创建 ReminderHandler
func NewReminderHandler(reminderSvc service.ReminderService) *ReminderHandler {
	return &ReminderHandler{reminderSvc: reminderSvc}
}

// RunReminders 手动触发一轮催缴；请求体可省略
// POST /api/v1/reminders/run
func (h *ReminderHandler) RunReminders(c *gin.Context) {
	var req dto.RunRemindersRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindFailed(c, err)
			return
		}
	}
	ref, ok := referenceDate(c, req.Date)
	if !ok {
		return
	}

	result, err := h.reminderSvc.RunReminders(c.Request.Context(), ref)
	if err != nil {
		handleCommonError(c, err)
		return
	}

	response.OK(c, result)
}

// ListReminders 档案催缴历史
// GET /api/v1/dossiers/:id/reminders
func (h *ReminderHandler) ListReminders(c *gin.Context) {
	reminders, err := h.reminderSvc.ListByDossier(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleCommonError(c, err)
		return
	}

	response.OK(c, gin.H{"list": reminders})
}
