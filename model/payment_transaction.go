package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PaymentMethod enumerates accepted payment channels
type PaymentMethod string

const (
	MethodCard       PaymentMethod = "Card"
	MethodUPI        PaymentMethod = "UPI"
	MethodNetBanking PaymentMethod = "Net Banking"
	MethodCash       PaymentMethod = "Cash"
)

// PaymentStatus is the gateway-side outcome of a transaction
type PaymentStatus string

const (
	PaymentSuccess PaymentStatus = "Success"
	PaymentFailed  PaymentStatus = "Failed"
	PaymentPending PaymentStatus = "Pending"
)

// PaymentTransaction is one append-only ledger entry against a fee record.
// Rows are never updated or deleted once written.
type PaymentTransaction struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	FeeRecordID uint           `gorm:"not null;index" json:"fee_record_id"`
	StudentID   uint           `gorm:"not null;index" json:"student_id"`
	Amount      float64        `gorm:"not null" json:"amount"`
	Method      PaymentMethod  `gorm:"type:varchar(20);not null" json:"method"`

	// Identifier issued by the (stubbed) external gateway
	TransactionID   string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"transaction_id"`
	GatewayResponse datatypes.JSON `gorm:"type:jsonb" json:"gateway_response,omitempty"`

	Status PaymentStatus `gorm:"type:varchar(20);default:'Pending'" json:"status"`
	PaidAt time.Time     `json:"paid_at"`

	// Audit trail scoping
	UniversityID uint `gorm:"index" json:"university_id"`
	SchoolID     uint `gorm:"index" json:"school_id"`

	// Relationships
	FeeRecord StudentFeeRecord `gorm:"foreignKey:FeeRecordID;constraint:OnDelete:CASCADE" json:"-"`
	Student   User             `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for PaymentTransaction
func (PaymentTransaction) TableName() string {
	return "payment_transactions"
}
