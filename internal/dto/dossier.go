package dto

// ── 缴费档案模块 DTO ──
// 金额字段统一使用字符串传输，由 money 校验器保证格式

// CreateDossierRequest 创建档案请求
type CreateDossierRequest struct {
	StudentID     string `json:"student_id"     binding:"required,uuid"`
	SchoolYear    string `json:"school_year"    binding:"required,max=20"`
	TuitionAmount string `json:"tuition_amount" binding:"required,money"`
	PriorUnpaid   string `json:"prior_unpaid"   binding:"omitempty,money"`
	Notes         string `json:"notes"          binding:"omitempty,max=1000"`
}

// UpdateDossierRequest 更新档案金额（乐观锁）
type UpdateDossierRequest struct {
	Version       int     `json:"version"        binding:"required,min=1"`
	TuitionAmount *string `json:"tuition_amount" binding:"omitempty,money"`
	PriorUnpaid   *string `json:"prior_unpaid"   binding:"omitempty,money"`
	Notes         *string `json:"notes"          binding:"omitempty,max=1000"`
}

// DossierListRequest 档案列表查询参数
type DossierListRequest struct {
	PaginationRequest
	StudentID  string `form:"student_id"  binding:"omitempty,uuid"`
	SchoolYear string `form:"school_year" binding:"omitempty,max=20"`
	Status     string `form:"status"      binding:"omitempty,oneof=active closed"`
}

// DossierResponse 档案响应
type DossierResponse struct {
	ID            string           `json:"id"`
	StudentID     string           `json:"student_id"`
	Student       *StudentResponse `json:"student,omitempty"`
	SchoolYear    string           `json:"school_year"`
	TuitionAmount string           `json:"tuition_amount"`
	PriorUnpaid   string           `json:"prior_unpaid"`
	TotalDue      string           `json:"total_due"`
	Status        string           `json:"status"`
	Notes         string           `json:"notes"`
	Version       int              `json:"version"`
}
