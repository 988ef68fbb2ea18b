package model

import (
	"time"

	"gorm.io/gorm"
)

// University is the root node of the tenancy hierarchy
type University struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"not null;uniqueIndex" json:"name"`
	Code      string         `gorm:"uniqueIndex;not null" json:"code"` // e.g., "AKTU", "DU"
	Location  string         `gorm:"type:varchar(255)" json:"location"`
	Website   string         `gorm:"type:varchar(255)" json:"website"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Schools []School `gorm:"foreignKey:UniversityID;constraint:OnDelete:CASCADE" json:"schools,omitempty"`
}

// School represents a faculty/college under a university
type School struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	UniversityID uint           `gorm:"not null;index" json:"university_id"`
	Name         string         `gorm:"not null" json:"name"`
	Code         string         `gorm:"not null" json:"code"`

	// Relationships
	University  University   `gorm:"foreignKey:UniversityID;constraint:OnDelete:CASCADE" json:"university,omitempty"`
	Departments []Department `gorm:"foreignKey:SchoolID;constraint:OnDelete:CASCADE" json:"departments,omitempty"`
}

// Department represents an academic department within a school
type Department struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	SchoolID  uint           `gorm:"not null;index" json:"school_id"`
	Name      string         `gorm:"not null" json:"name"`
	Code      string         `gorm:"not null" json:"code"`

	// Relationships
	School   School    `gorm:"foreignKey:SchoolID;constraint:OnDelete:CASCADE" json:"school,omitempty"`
	Batches  []Batch   `gorm:"foreignKey:DepartmentID;constraint:OnDelete:CASCADE" json:"batches,omitempty"`
	Subjects []Subject `gorm:"foreignKey:DepartmentID;constraint:OnDelete:CASCADE" json:"-"`
}

// Batch represents an admission-year cohort within a department (e.g., "2023-2027")
type Batch struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	DepartmentID uint           `gorm:"not null;index" json:"department_id"`
	Name         string         `gorm:"not null" json:"name"`
	StartYear    int            `gorm:"not null" json:"start_year"`
	EndYear      int            `json:"end_year"`

	// Relationships
	Department Department `gorm:"foreignKey:DepartmentID;constraint:OnDelete:CASCADE" json:"department,omitempty"`
}

// TableName specifies the table name for University
func (University) TableName() string {
	return "universities"
}
