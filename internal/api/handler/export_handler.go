package handler

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"hyperzen/backend/internal/dto"
	"hyperzen/backend/internal/service"
	"hyperzen/backend/pkg/response"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeICS  = "text/calendar; charset=utf-8"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportStatusReport 导出学年付款状态报表
// GET /api/v1/export/statuses?school_year=2025-2026&date=YYYY-MM-DD
func (h *ExportHandler) ExportStatusReport(c *gin.Context) {
	schoolYear := c.Query("school_year")
	if schoolYear == "" {
		response.BadRequest(c, 10001, "school_year 不能为空")
		return
	}
	var q dto.StatusQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}
	ref, ok := referenceDate(c, q.Date)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportStatusReport(c.Request.Context(), schoolYear, ref)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	sendFile(c, buf, filename, contentTypeXLSX)
}

// ExportInstallmentCalendar 导出档案分期日历
// GET /api/v1/export/dossiers/:id/calendar
func (h *ExportHandler) ExportInstallmentCalendar(c *gin.Context) {
	buf, filename, err := h.exportSvc.ExportInstallmentCalendar(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	sendFile(c, buf, filename, contentTypeICS)
}

// sendFile 设置下载响应头并写出文件
func sendFile(c *gin.Context, buf *bytes.Buffer, filename, contentType string) {
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoDossiers):
		response.NotFound(c, 23001, "该学年暂无有效档案")
	case errors.Is(err, service.ErrExportNoInstallments):
		response.NotFound(c, 23002, "该档案暂无分期计划")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		handleCommonError(c, err)
	}
}
