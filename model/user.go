package model

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// User roles. Registrar is the super-role that bypasses every scope check.
const (
	RoleRegistrar = "registrar"
	RoleDean      = "dean"
	RoleAdmin     = "admin"
	RoleCOE       = "coe"
	RoleTeacher   = "teacher"
	RoleStudent   = "student"
	RoleFinance   = "finance"
	RoleHR        = "hr"
	RolePending   = "pending"
)

// PromotionState is the per-semester-cycle progression state of a student.
// Payment processing is the only writer of PromotionEligible; promotion is
// the only writer back to PromotionAwaitingPayment.
type PromotionState string

const (
	PromotionAwaitingPayment PromotionState = "awaiting_payment"
	PromotionEligible        PromotionState = "eligible"
)

// User represents a registered user in the system
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"` // Never expose password in JSON
	Name         string         `gorm:"not null" json:"name"`
	Role         string         `gorm:"type:varchar(20);default:'student'" json:"role"`
	TokenVersion int            `gorm:"default:0" json:"-"` // Increment to invalidate all user tokens

	// Tenancy scoping
	UniversityID uint `gorm:"index" json:"university_id"`
	SchoolID     uint `gorm:"index" json:"school_id"`
	DepartmentID uint `gorm:"index" json:"department_id"`
	BatchID      uint `gorm:"index" json:"batch_id"`

	RollNo     string `gorm:"type:varchar(50)" json:"roll_no,omitempty"`
	EmployeeID string `gorm:"type:varchar(50)" json:"employee_id,omitempty"`

	// Academic progression
	CurrentSemester int            `gorm:"default:1" json:"current_semester"`
	PromotionState  PromotionState `gorm:"type:varchar(20);default:'awaiting_payment'" json:"promotion_state"`
	Backlogs        pq.Int64Array  `gorm:"type:bigint[]" json:"backlogs"` // Subject IDs failed and not yet cleared

	// Relationships
	University     University           `gorm:"foreignKey:UniversityID" json:"university,omitempty"`
	School         School               `gorm:"foreignKey:SchoolID" json:"school,omitempty"`
	Department     Department           `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
	Batch          Batch                `gorm:"foreignKey:BatchID" json:"batch,omitempty"`
	FeeRecords     []StudentFeeRecord   `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
	Payments       []PaymentTransaction `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
	TokenBlacklist []JWTTokenBlacklist  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// IsEligibleForNextSemester reports whether financial clearance has been
// granted for progression to the next semester.
func (u *User) IsEligibleForNextSemester() bool {
	return u.PromotionState == PromotionEligible
}

// AddBacklogs unions subject IDs into the backlog set. Prior backlogs persist;
// duplicates are dropped.
func (u *User) AddBacklogs(subjectIDs []int64) {
	seen := make(map[int64]bool, len(u.Backlogs))
	for _, id := range u.Backlogs {
		seen[id] = true
	}
	for _, id := range subjectIDs {
		if !seen[id] {
			u.Backlogs = append(u.Backlogs, id)
			seen[id] = true
		}
	}
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}
