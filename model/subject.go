package model

import (
	"time"

	"gorm.io/gorm"
)

// SubjectType categorizes how a subject is delivered
type SubjectType string

const (
	SubjectTheory    SubjectType = "Theory"
	SubjectPractical SubjectType = "Practical"
	SubjectProject   SubjectType = "Project"
)

// Subject represents an individual academic subject offered by a department
// in a given semester
type Subject struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	UniversityID uint           `gorm:"not null;uniqueIndex:idx_subjects_univ_code" json:"university_id"`
	SchoolID     uint           `gorm:"not null;index" json:"school_id"`
	DepartmentID uint           `gorm:"not null;index:idx_subjects_dept_sem" json:"department_id"`
	Semester     int            `gorm:"not null;index:idx_subjects_dept_sem" json:"semester"`
	Name         string         `gorm:"not null" json:"name"`
	Code         string         `gorm:"not null;uniqueIndex:idx_subjects_univ_code" json:"code"`
	Type         SubjectType    `gorm:"type:varchar(20);default:'Theory'" json:"type"`
	Credits      int            `gorm:"default:3" json:"credits"`

	// Relationships
	University University `gorm:"foreignKey:UniversityID;constraint:OnDelete:CASCADE" json:"-"`
	Department Department `gorm:"foreignKey:DepartmentID;constraint:OnDelete:CASCADE" json:"department,omitempty"`
}

// TableName specifies the table name for Subject
func (Subject) TableName() string {
	return "subjects"
}
