package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/campusgate/campusgate-api/model"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// defaultGraceDays is the payment window granted at release when
// FEE_DUE_GRACE_DAYS is not configured.
const defaultGraceDays = 30

// FinanceService owns the academic-financial ledger: scholarship resolution,
// fee record release and the atomic payment path.
type FinanceService struct {
	db          *gorm.DB
	receipts    *ReceiptService // optional, nil when storage is not configured
	graceWindow time.Duration   // release-to-due-date window
}

// NewFinanceService creates a new finance service
func NewFinanceService(db *gorm.DB, receipts *ReceiptService) *FinanceService {
	graceDays := defaultGraceDays
	if v := os.Getenv("FEE_DUE_GRACE_DAYS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			graceDays = parsed
		}
	}

	return &FinanceService{
		db:          db,
		receipts:    receipts,
		graceWindow: time.Duration(graceDays) * 24 * time.Hour,
	}
}

// PaymentResult bundles the updated record with its new ledger entry
type PaymentResult struct {
	Record      *model.StudentFeeRecord   `json:"record"`
	Transaction *model.PaymentTransaction `json:"transaction"`
}

// ReleaseResult reports the outcome of one student in a batch release
type ReleaseResult struct {
	StudentID uint   `json:"student_id"`
	Status    string `json:"status"` // Success, Failed
	Error     string `json:"error,omitempty"`
}

// averagePercentage computes the overall percentage for a result set,
// assuming each subject is scored out of 100.
func averagePercentage(results []model.ExamResult) float64 {
	if len(results) == 0 {
		return 0
	}
	var earned float64
	for _, r := range results {
		earned += r.Total
	}
	return earned / (float64(len(results)) * 100) * 100
}

// pickScholarshipRule selects the matching rule with the highest
// MinPercentage: when brackets overlap, the more selective tier wins.
func pickScholarshipRule(rules []model.ScholarshipRule, pct float64) *model.ScholarshipRule {
	var best *model.ScholarshipRule
	for i := range rules {
		r := &rules[i]
		if !r.Matches(pct) {
			continue
		}
		if best == nil || r.MinPercentage > best.MinPercentage {
			best = r
		}
	}
	return best
}

// CalculateScholarship resolves the discount percentage earned by the
// student's results in the given semester. A student with no results (e.g., a
// first-semester entrant) earns 0; so does a percentage no rule covers.
// No side effects; deterministic for a fixed result set.
func (s *FinanceService) CalculateScholarship(ctx context.Context, studentID uint, semester int) (float64, error) {
	var results []model.ExamResult
	if err := s.db.WithContext(ctx).
		Where("student_id = ? AND semester = ?", studentID, semester).
		Find(&results).Error; err != nil {
		return 0, fmt.Errorf("fetch exam results: %w", err)
	}
	if len(results) == 0 {
		return 0, nil
	}

	percentage := averagePercentage(results)

	var student model.User
	if err := s.db.WithContext(ctx).First(&student, studentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, ErrStudentNotFound
		}
		return 0, fmt.Errorf("fetch student: %w", err)
	}

	var rules []model.ScholarshipRule
	if err := s.db.WithContext(ctx).
		Where("university_id = ? AND is_active = ? AND min_percentage <= ? AND max_percentage >= ?",
			student.UniversityID, true, percentage, percentage).
		Order("min_percentage DESC").
		Find(&rules).Error; err != nil {
		return 0, fmt.Errorf("fetch scholarship rules: %w", err)
	}

	rule := pickScholarshipRule(rules, percentage)
	if rule == nil {
		return 0, nil
	}
	return rule.DiscountPercentage, nil
}

// GenerateFeeRecord releases (or re-releases) the fee record for a student's
// upcoming semester. The upsert is keyed on (student, semester); snapshot
// fields are overwritten from the current structure and rules, while payment
// progress on an already-partially-paid record is preserved and the due
// amount recomputed against the fresh net payable.
func (s *FinanceService) GenerateFeeRecord(ctx context.Context, studentID uint, targetSemester int) (*model.StudentFeeRecord, error) {
	var student model.User
	if err := s.db.WithContext(ctx).First(&student, studentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("fetch student: %w", err)
	}

	// Most specific active structure wins: a department- or batch-scoped
	// template overrides the school-wide one (scope column 0 = unscoped).
	var structure model.FeeStructure
	if err := s.db.WithContext(ctx).
		Where("school_id = ? AND semester_number = ? AND is_active = ?", student.SchoolID, targetSemester, true).
		Where("department_id IN ?", []uint{0, student.DepartmentID}).
		Where("batch_id IN ?", []uint{0, student.BatchID}).
		Order("department_id DESC, batch_id DESC").
		First(&structure).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w for semester %d", ErrFeeStructureNotFound, targetSemester)
		}
		return nil, fmt.Errorf("fetch fee structure: %w", err)
	}

	// Scholarship is earned by the previous semester's results
	scholarshipPercent, err := s.CalculateScholarship(ctx, studentID, targetSemester-1)
	if err != nil {
		return nil, err
	}

	scholarshipAmount := structure.BaseAmount * scholarshipPercent / 100
	netPayable := structure.BaseAmount - scholarshipAmount
	now := time.Now()
	due := now.Add(s.graceWindow)

	var record model.StudentFeeRecord
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		findErr := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("student_id = ? AND semester_number = ?", studentID, targetSemester).
			First(&record).Error

		switch findErr {
		case nil:
			// Re-release: refresh the snapshot, keep paid progress
			record.FeeStructureID = structure.ID
			record.TotalBaseAmount = structure.BaseAmount
			record.ScholarshipPercentage = scholarshipPercent
			record.ScholarshipAmount = scholarshipAmount
			record.NetPayable = netPayable
			record.DueAmount = netPayable - record.PaidAmount
			record.ReleasedAt = &now
			record.DueDate = &due
			record.Overdue = false // fresh grace window on re-release
			switch {
			case record.DueAmount <= 0:
				record.DueAmount = 0
				record.Status = model.FeeStatusPaid
			case record.PaidAmount > 0:
				record.Status = model.FeeStatusPartiallyPaid
			default:
				record.Status = model.FeeStatusPending
			}
			return tx.Save(&record).Error
		case gorm.ErrRecordNotFound:
			record = model.StudentFeeRecord{
				StudentID:             studentID,
				SemesterNumber:        targetSemester,
				FeeStructureID:        structure.ID,
				TotalBaseAmount:       structure.BaseAmount,
				ScholarshipPercentage: scholarshipPercent,
				ScholarshipAmount:     scholarshipAmount,
				NetPayable:            netPayable,
				PaidAmount:            0,
				DueAmount:             netPayable,
				Status:                model.FeeStatusPending,
				ReleasedAt:            &now,
				DueDate:               &due,
			}
			return tx.Create(&record).Error
		default:
			return findErr
		}
	})
	if err != nil {
		return nil, fmt.Errorf("release fee record: %w", err)
	}

	return &record, nil
}

// ReleaseBatch generates fee records for many students. Failures are isolated
// per student; one missing structure never aborts the rest of the batch.
func (s *FinanceService) ReleaseBatch(ctx context.Context, studentIDs []uint, targetSemester int) []ReleaseResult {
	results := make([]ReleaseResult, 0, len(studentIDs))
	for _, sid := range studentIDs {
		if _, err := s.GenerateFeeRecord(ctx, sid, targetSemester); err != nil {
			results = append(results, ReleaseResult{StudentID: sid, Status: "Failed", Error: err.Error()})
			continue
		}
		results = append(results, ReleaseResult{StudentID: sid, Status: "Success"})
	}
	return results
}

// ProcessPayment records a payment against a fee record. The three writes —
// ledger append, balance/status update, eligibility flip on full settlement —
// commit in a single database transaction; a failure anywhere rolls back all
// of them. The record row is locked for the duration, so concurrent payments
// against the same record serialize instead of working from stale balances.
func (s *FinanceService) ProcessPayment(ctx context.Context, feeRecordID uint, amount float64, method model.PaymentMethod, externalTxnID string) (*PaymentResult, error) {
	var (
		record model.StudentFeeRecord
		txn    model.PaymentTransaction
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&record, feeRecordID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrFeeRecordNotFound
			}
			return fmt.Errorf("fetch fee record: %w", err)
		}

		var student model.User
		if err := tx.Select("id", "university_id", "school_id").
			First(&student, record.StudentID).Error; err != nil {
			return fmt.Errorf("fetch student: %w", err)
		}

		now := time.Now()

		gatewayBlob, _ := json.Marshal(GatewayCharge{
			TransactionID: externalTxnID,
			Amount:        amount,
			Method:        method,
			Status:        "Success",
			ProcessedAt:   now,
		})

		txn = model.PaymentTransaction{
			FeeRecordID:     record.ID,
			StudentID:       record.StudentID,
			Amount:          amount,
			Method:          method,
			TransactionID:   externalTxnID,
			GatewayResponse: datatypes.JSON(gatewayBlob),
			Status:          model.PaymentSuccess,
			PaidAt:          now,
			UniversityID:    student.UniversityID,
			SchoolID:        student.SchoolID,
		}
		if err := tx.Create(&txn).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateTransaction
			}
			return fmt.Errorf("append payment transaction: %w", err)
		}

		if err := record.ApplyPayment(amount, now); err != nil {
			return err
		}
		if err := tx.Save(&record).Error; err != nil {
			return fmt.Errorf("update fee record: %w", err)
		}

		// Full settlement unlocks promotion; this is the only writer of the
		// eligible state.
		if record.IsSettled() {
			if err := tx.Model(&model.User{}).
				Where("id = ?", record.StudentID).
				Update("promotion_state", model.PromotionEligible).Error; err != nil {
				return fmt.Errorf("update promotion state: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		if isSerializationFailure(err) {
			return nil, fmt.Errorf("%w: %v", ErrTransactionConflict, err)
		}
		return nil, err
	}

	// Receipt archival is best-effort and happens outside the transaction
	// boundary; the ledger is already durable at this point.
	if s.receipts != nil {
		if _, err := s.receipts.StoreReceipt(ctx, &txn, &record); err != nil {
			log.Println("Warning: failed to archive payment receipt:", err)
		}
	}

	return &PaymentResult{Record: &record, Transaction: &txn}, nil
}

// GetBill returns the student's most recently released fee record.
func (s *FinanceService) GetBill(ctx context.Context, studentID uint) (*model.StudentFeeRecord, error) {
	var record model.StudentFeeRecord
	if err := s.db.WithContext(ctx).
		Preload("FeeStructure").
		Where("student_id = ?", studentID).
		Order("semester_number DESC").
		First(&record).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrFeeRecordNotFound
		}
		return nil, fmt.Errorf("fetch bill: %w", err)
	}
	return &record, nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// isSerializationFailure reports whether err is a Postgres serialization
// failure or deadlock abort (SQLSTATE 40001 / 40P01).
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
