package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"hyperzen/backend/internal/service"
	"hyperzen/backend/pkg/response"
)

// ImportHandler CSV 批量导入 HTTP 处理器
type ImportHandler struct {
	importSvc    service.ImportService
	maxFileBytes int64
}

// NewImportHandler 创建 ImportHandler
func NewImportHandler(importSvc service.ImportService, maxFileBytes int64) *ImportHandler {
	return &ImportHandler{importSvc: importSvc, maxFileBytes: maxFileBytes}
}

// ImportStudents 上传 CSV 导入学生并建档
// POST /api/v1/imports/students  (multipart: file, school_year)
func (h *ImportHandler) ImportStudents(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, 21005, "请上传 CSV 文件")
		return
	}
	if h.maxFileBytes > 0 && fh.Size > h.maxFileBytes {
		response.Error(c, http.StatusRequestEntityTooLarge, 21006, "文件过大")
		return
	}

	f, err := fh.Open()
	if err != nil {
		response.BadRequest(c, 21005, "文件读取失败")
		return
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		response.BadRequest(c, 21005, "文件读取失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.importSvc.ImportStudents(c.Request.Context(), content, c.PostForm("school_year"), callerID)
	if err != nil {
		h.handleImportError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *ImportHandler) handleImportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrImportEmpty):
		response.BadRequest(c, 21001, "文件为空或没有数据行")
	case errors.Is(err, service.ErrImportHeaderInvalid):
		response.BadRequest(c, 21002, "表头缺少必需列")
	case errors.Is(err, service.ErrImportTooManyRows):
		response.BadRequest(c, 21003, "数据行数超过上限")
	case errors.Is(err, service.ErrImportYearRequired):
		response.BadRequest(c, 21004, "必须指定学年")
	default:
		handleCommonError(c, err)
	}
}
