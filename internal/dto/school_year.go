package dto

// ── 学年模块 DTO ──

// CreateSchoolYearRequest 创建学年请求
type CreateSchoolYearRequest struct {
	Label     string `json:"label"      binding:"required,max=20"`
	StartDate string `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date"   binding:"required,datetime=2006-01-02"`
}

// SchoolYearResponse 学年响应
type SchoolYearResponse struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	IsActive  bool   `json:"is_active"`
	Status    string `json:"status"`
}
