package model

import (
	"time"

	"gorm.io/gorm"
)

// ScholarshipRule maps a prior-semester performance bracket to a fee discount.
// Rules are matched at release time; records keep the matched snapshot, so
// later rule edits never re-resolve history.
type ScholarshipRule struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
	UniversityID       uint           `gorm:"not null;index:idx_scholarship_rules_scope,unique,where:is_active = true" json:"university_id"`
	SchoolID           uint           `gorm:"not null;default:0;index:idx_scholarship_rules_scope,unique" json:"school_id"` // 0 = university-wide
	Name               string         `gorm:"not null" json:"name"`
	MinPercentage      float64        `gorm:"not null;index:idx_scholarship_rules_scope,unique" json:"min_percentage"`
	MaxPercentage      float64        `gorm:"not null" json:"max_percentage"`
	DiscountPercentage float64        `gorm:"not null" json:"discount_percentage"` // e.g., 50 for 50%
	IsActive           bool           `gorm:"default:true" json:"is_active"`

	// Relationships
	University University `gorm:"foreignKey:UniversityID;constraint:OnDelete:CASCADE" json:"-"`
}

// Matches reports whether pct falls inside this rule's bracket.
func (r *ScholarshipRule) Matches(pct float64) bool {
	return r.IsActive && r.MinPercentage <= pct && pct <= r.MaxPercentage
}

// TableName specifies the table name for ScholarshipRule
func (ScholarshipRule) TableName() string {
	return "scholarship_rules"
}
