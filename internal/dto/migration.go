package dto

// ── 学年迁移 DTO ──

// CreateMigrationRequest 创建迁移向导
type CreateMigrationRequest struct {
	FromYear   string `json:"from_year"   binding:"required,max=20"`
	ToYear     string `json:"to_year"     binding:"required,max=20,nefield=FromYear"`
	NewTuition string `json:"new_tuition" binding:"omitempty,money"`
}

// MigrationRunResponse 迁移记录响应
type MigrationRunResponse struct {
	ID         string                 `json:"id"`
	FromYear   string                 `json:"from_year"`
	ToYear     string                 `json:"to_year"`
	NewTuition string                 `json:"new_tuition,omitempty"`
	Status     string                 `json:"status"`
	Summary    map[string]interface{} `json:"summary,omitempty"`
	AppliedAt  string                 `json:"applied_at,omitempty"`
}

// MigrationPreviewItem 单个档案的迁移预览
type MigrationPreviewItem struct {
	DossierID   string `json:"dossier_id"`
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
	Matricule   string `json:"matricule"`
	Balance     string `json:"balance"`
	CarryOver   string `json:"carry_over"`
	Status      string `json:"status"`
	Tuition     string `json:"tuition"`
	Skip        bool   `json:"skip"`
	SkipReason  string `json:"skip_reason,omitempty"`
}

// MigrationPreviewResponse 迁移预览
type MigrationPreviewResponse struct {
	Run            MigrationRunResponse   `json:"run"`
	Items          []MigrationPreviewItem `json:"items"`
	TotalCarryOver string                 `json:"total_carry_over"`
}

// MigrationApplyResponse 迁移执行结果
type MigrationApplyResponse struct {
	Run      MigrationRunResponse `json:"run"`
	Migrated int                  `json:"migrated"`
	Skipped  int                  `json:"skipped"`
}
