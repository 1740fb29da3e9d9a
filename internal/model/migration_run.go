package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// 学年迁移状态
const (
	MigrationDraft     = "draft"
	MigrationPreviewed = "previewed"
	MigrationApplied   = "applied"
)

// MigrationRun 学年迁移向导记录：对应 migration_runs
// NewTuition 为空时沿用原档案学费
type MigrationRun struct {
	MigrationRunID string              `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"migration_run_id"`
	FromYear       string              `gorm:"type:varchar(20);not null"                      json:"from_year"`
	ToYear         string              `gorm:"type:varchar(20);not null"                      json:"to_year"`
	NewTuition     decimal.NullDecimal `gorm:"type:numeric(12,2)"                             json:"new_tuition"`
	Status         string              `gorm:"type:varchar(20);not null;default:'draft'"      json:"status"`
	Summary        datatypes.JSON      `gorm:"type:jsonb"                                     json:"summary,omitempty"`
	AppliedAt      *time.Time          `gorm:""                                               json:"applied_at,omitempty"`
	VersionedModel
}

// TableName 指定表名
func (MigrationRun) TableName() string { return "migration_runs" }
