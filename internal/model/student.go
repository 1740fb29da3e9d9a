package model

import "time"

// 学生状态
const (
	StudentEnrolled  = "enrolled"
	StudentGraduated = "graduated"
	StudentWithdrawn = "withdrawn"
)

// Student 学生表：对应 students
type Student struct {
	StudentID     string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"student_id"`
	Matricule     string     `gorm:"type:varchar(30);not null"                      json:"matricule"`
	FirstName     string     `gorm:"type:varchar(100);not null"                     json:"first_name"`
	LastName      string     `gorm:"type:varchar(100);not null"                     json:"last_name"`
	BirthDate     *time.Time `gorm:"type:date"                                      json:"birth_date,omitempty"`
	ClassName     string     `gorm:"type:varchar(50);not null;default:''"           json:"class_name"`
	GuardianName  string     `gorm:"type:varchar(150);not null;default:''"          json:"guardian_name"`
	GuardianEmail string     `gorm:"type:varchar(255);not null;default:''"          json:"guardian_email"`
	GuardianPhone string     `gorm:"type:varchar(30);not null;default:''"           json:"guardian_phone"`
	Status        string     `gorm:"type:varchar(20);not null;default:'enrolled'"   json:"status"`
	VersionedModel
}

// TableName 指定表名
func (Student) TableName() string { return "students" }

// FullName 展示用姓名
func (s *Student) FullName() string {
	return s.LastName + " " + s.FirstName
}
