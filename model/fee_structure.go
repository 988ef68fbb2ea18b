package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// FeeComponent is one labelled line item inside a fee structure. Components
// are informational; BaseAmount is the billed figure.
type FeeComponent struct {
	Label    string  `json:"label"`
	Amount   float64 `json:"amount"`
	Optional bool    `json:"optional"`
}

// FeeStructure is the finance-staff-owned fee template for a scope and
// semester. Read-only to the progression engine; released records snapshot
// its amounts so later edits never touch history.
//
// Scope columns use 0 for "whole school" / "all batches" rather than NULL so
// the unique index actually compares them (Postgres treats NULLs as distinct).
// The index is partial on is_active: exactly one active structure per scope
// and semester, while retired structures never block their replacement.
type FeeStructure struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
	UniversityID   uint           `gorm:"not null;index:idx_fee_structures_scope,unique,where:is_active = true" json:"university_id"`
	SchoolID       uint           `gorm:"not null;index:idx_fee_structures_scope,unique" json:"school_id"`
	DepartmentID   uint           `gorm:"not null;default:0;index:idx_fee_structures_scope,unique" json:"department_id"` // 0 = school-wide
	BatchID        uint           `gorm:"not null;default:0;index:idx_fee_structures_scope,unique" json:"batch_id"`      // 0 = batch-independent
	SemesterNumber int            `gorm:"not null;index:idx_fee_structures_scope,unique" json:"semester_number"`
	BaseAmount     float64        `gorm:"not null" json:"base_amount"`
	Components     datatypes.JSON `gorm:"type:jsonb" json:"components,omitempty"` // []FeeComponent
	IsActive       bool           `gorm:"default:true" json:"is_active"`

	// Relationships
	University University `gorm:"foreignKey:UniversityID;constraint:OnDelete:CASCADE" json:"-"`
	School     School     `gorm:"foreignKey:SchoolID;constraint:OnDelete:CASCADE" json:"school,omitempty"`
}

// TableName specifies the table name for FeeStructure
func (FeeStructure) TableName() string {
	return "fee_structures"
}
