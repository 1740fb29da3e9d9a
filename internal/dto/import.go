package dto

// ── CSV 导入 DTO ──

// ImportStudentsResponse 批量导入学生响应
type ImportStudentsResponse struct {
	Total      int           `json:"total"`
	Success    int           `json:"success"`
	Failed     int           `json:"failed"`
	Duplicates int           `json:"duplicates"`
	Errors     []ImportError `json:"errors,omitempty"`
}

// ImportError 导入错误详情（Row 为文件中的行号，表头为第 1 行）
type ImportError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}
