package model

import (
	"time"

	"gorm.io/gorm"
)

// ExamResult holds a student's marks for one subject in one semester.
// Results are written by the examinations surface and read-only to the
// finance and promotion engines.
type ExamResult struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	StudentID uint           `gorm:"not null;uniqueIndex:idx_results_student_subject" json:"student_id"`
	SubjectID uint           `gorm:"not null;uniqueIndex:idx_results_student_subject" json:"subject_id"`
	Semester  int            `gorm:"not null;index" json:"semester"`

	// Tenancy scoping for fast retrieval
	UniversityID uint `gorm:"index" json:"university_id"`
	SchoolID     uint `gorm:"index" json:"school_id"`
	DepartmentID uint `gorm:"index" json:"department_id"`

	Internal float64 `gorm:"default:0" json:"internal"`
	External float64 `gorm:"default:0" json:"external"`
	Total    float64 `gorm:"default:0" json:"total"` // out of 100
	Grade    string  `gorm:"type:varchar(2);default:'F'" json:"grade"`
	Credits  int     `gorm:"default:3" json:"credits"`

	// Relationships
	Student User    `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
	Subject Subject `gorm:"foreignKey:SubjectID;constraint:OnDelete:CASCADE" json:"subject,omitempty"`
}

// TableName specifies the table name for ExamResult
func (ExamResult) TableName() string {
	return "exam_results"
}
