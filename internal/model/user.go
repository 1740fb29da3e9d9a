package model

import "time"

// 角色
const (
	RoleAdmin      = "admin"
	RoleAccountant = "accountant"
	RoleSecretary  = "secretary"
)

// User 后台用户表：对应 users
type User struct {
	UserID       string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name         string     `gorm:"type:varchar(100);not null"                     json:"name"`
	Email        string     `gorm:"type:varchar(255);not null"                     json:"email"`
	PasswordHash string     `gorm:"type:varchar(255);not null"                     json:"-"`
	Role         string     `gorm:"type:varchar(20);not null;default:'secretary'"  json:"role"`
	IsActive     bool       `gorm:"not null;default:true"                          json:"is_active"`
	LastLoginAt  *time.Time `gorm:""                                               json:"last_login_at,omitempty"`
	VersionedModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }
