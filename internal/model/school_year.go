package model

import "time"

// 学年状态
const (
	SchoolYearOpen     = "open"
	SchoolYearArchived = "archived"
)

// SchoolYear 学年表：对应 school_years
// Label 形如 "2025-2026"，作为档案的学年键
type SchoolYear struct {
	SchoolYearID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"school_year_id"`
	Label        string    `gorm:"type:varchar(20);not null"                      json:"label"`
	StartDate    time.Time `gorm:"type:date;not null"                             json:"start_date"`
	EndDate      time.Time `gorm:"type:date;not null"                             json:"end_date"`
	IsActive     bool      `gorm:"not null;default:false"                         json:"is_active"`
	Status       string    `gorm:"type:varchar(20);not null;default:'open'"       json:"status"` // open | archived
	VersionedModel
}

// TableName 指定表名
func (SchoolYear) TableName() string { return "school_years" }
