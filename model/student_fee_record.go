package model

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// FeeRecordStatus is the one-way payment lifecycle of a fee record:
// Pending → PartiallyPaid → Paid. Release is the creation event, so records
// are born Pending. No operation moves a record backwards; there is no refund
// or void path.
type FeeRecordStatus string

const (
	FeeStatusPending       FeeRecordStatus = "Pending"
	FeeStatusPartiallyPaid FeeRecordStatus = "Partially Paid"
	FeeStatusPaid          FeeRecordStatus = "Paid"
)

var (
	// ErrOverpayment is returned when a payment exceeds the outstanding due.
	ErrOverpayment = errors.New("payment amount exceeds due amount")
	// ErrNonPositiveAmount is returned for zero or negative payment amounts.
	ErrNonPositiveAmount = errors.New("payment amount must be positive")
)

// StudentFeeRecord is the mutable ledger header for one (student, semester)
// billing cycle. Snapshot fields (TotalBaseAmount, scholarship figures,
// NetPayable) are fixed at release time; PaidAmount/DueAmount/Status move
// only through ApplyPayment. Invariant: PaidAmount + DueAmount == NetPayable.
type StudentFeeRecord struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
	StudentID      uint           `gorm:"not null;uniqueIndex:idx_fee_records_student_semester" json:"student_id"`
	SemesterNumber int            `gorm:"not null;uniqueIndex:idx_fee_records_student_semester" json:"semester_number"`
	FeeStructureID uint           `gorm:"not null;index" json:"fee_structure_id"`

	// Financial snapshot, immutable once released
	TotalBaseAmount       float64 `gorm:"not null" json:"total_base_amount"`
	ScholarshipPercentage float64 `gorm:"default:0" json:"scholarship_percentage"`
	ScholarshipAmount     float64 `gorm:"default:0" json:"scholarship_amount"`
	NetPayable            float64 `gorm:"not null" json:"net_payable"`

	// Payment tracking
	PaidAmount float64         `gorm:"default:0" json:"paid_amount"`
	DueAmount  float64         `gorm:"not null" json:"due_amount"`
	Status     FeeRecordStatus `gorm:"type:varchar(20);default:'Pending'" json:"status"`

	// Overdue is set by the scheduled sweep once DueDate passes with dues
	// outstanding; orthogonal to the status machine, which never regresses.
	Overdue bool `gorm:"default:false" json:"overdue"`

	ReleasedAt    *time.Time `json:"released_at"`
	DueDate       *time.Time `json:"due_date"`
	LastPaymentAt *time.Time `json:"last_payment_at"`

	// Relationships
	Student      User                 `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"student,omitempty"`
	FeeStructure FeeStructure         `gorm:"foreignKey:FeeStructureID" json:"fee_structure,omitempty"`
	Transactions []PaymentTransaction `gorm:"foreignKey:FeeRecordID;constraint:OnDelete:CASCADE" json:"transactions,omitempty"`
}

// ApplyPayment moves amount from due to paid and advances the status machine.
// The caller persists the record inside the payment transaction boundary.
func (r *StudentFeeRecord) ApplyPayment(amount float64, at time.Time) error {
	if amount <= 0 {
		return ErrNonPositiveAmount
	}
	if amount > r.DueAmount {
		return ErrOverpayment
	}

	r.PaidAmount += amount
	r.DueAmount -= amount
	if r.DueAmount <= 0 {
		r.DueAmount = 0
		r.Status = FeeStatusPaid
		r.Overdue = false
	} else {
		r.Status = FeeStatusPartiallyPaid
	}
	r.LastPaymentAt = &at
	return nil
}

// IsSettled reports whether the record is fully paid.
func (r *StudentFeeRecord) IsSettled() bool {
	return r.Status == FeeStatusPaid
}

// TableName specifies the table name for StudentFeeRecord
func (StudentFeeRecord) TableName() string {
	return "student_fee_records"
}
