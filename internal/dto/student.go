package dto

// ── 学生模块 DTO ──

// CreateStudentRequest 创建学生请求
type CreateStudentRequest struct {
	Matricule     string `json:"matricule"      binding:"required,max=30"`
	FirstName     string `json:"first_name"     binding:"required,max=100"`
	LastName      string `json:"last_name"      binding:"required,max=100"`
	BirthDate     string `json:"birth_date"     binding:"omitempty,datetime=2006-01-02"`
	ClassName     string `json:"class_name"     binding:"omitempty,max=50"`
	GuardianName  string `json:"guardian_name"  binding:"omitempty,max=150"`
	GuardianEmail string `json:"guardian_email" binding:"omitempty,email"`
	GuardianPhone string `json:"guardian_phone" binding:"omitempty,max=30"`
}

// UpdateStudentRequest 更新学生请求（乐观锁）
type UpdateStudentRequest struct {
	Version       int     `json:"version"        binding:"required,min=1"`
	FirstName     *string `json:"first_name"     binding:"omitempty,max=100"`
	LastName      *string `json:"last_name"      binding:"omitempty,max=100"`
	BirthDate     *string `json:"birth_date"     binding:"omitempty,datetime=2006-01-02"`
	ClassName     *string `json:"class_name"     binding:"omitempty,max=50"`
	GuardianName  *string `json:"guardian_name"  binding:"omitempty,max=150"`
	GuardianEmail *string `json:"guardian_email" binding:"omitempty,email"`
	GuardianPhone *string `json:"guardian_phone" binding:"omitempty,max=30"`
	Status        *string `json:"status"         binding:"omitempty,oneof=enrolled graduated withdrawn"`
}

// StudentListRequest 学生列表查询参数
type StudentListRequest struct {
	PaginationRequest
	Keyword   string `form:"keyword"    binding:"omitempty,max=50"`
	ClassName string `form:"class_name" binding:"omitempty,max=50"`
	Status    string `form:"status"     binding:"omitempty,oneof=enrolled graduated withdrawn"`
}

// StudentResponse 学生响应
type StudentResponse struct {
	ID            string `json:"id"`
	Matricule     string `json:"matricule"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	BirthDate     string `json:"birth_date,omitempty"`
	ClassName     string `json:"class_name"`
	GuardianName  string `json:"guardian_name"`
	GuardianEmail string `json:"guardian_email"`
	GuardianPhone string `json:"guardian_phone"`
	Status        string `json:"status"`
	Version       int    `json:"version"`
}
