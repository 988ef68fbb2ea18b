package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/campusgate/campusgate-api/model"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestAveragePercentage(t *testing.T) {
	results := []model.ExamResult{
		{Total: 95},
		{Total: 90},
		{Total: 91},
		{Total: 92},
	}

	assert.InDelta(t, 92.0, averagePercentage(results), 0.001)
}

func TestAveragePercentageEmpty(t *testing.T) {
	assert.Equal(t, 0.0, averagePercentage(nil))
}

func TestPickScholarshipRuleHighestBracketWins(t *testing.T) {
	rules := []model.ScholarshipRule{
		{MinPercentage: 80, MaxPercentage: 100, DiscountPercentage: 25, IsActive: true},
		{MinPercentage: 90, MaxPercentage: 100, DiscountPercentage: 50, IsActive: true},
	}

	// 92% matches both brackets; the more selective tier applies
	rule := pickScholarshipRule(rules, 92)
	require.NotNil(t, rule)
	assert.Equal(t, 50.0, rule.DiscountPercentage)

	// 85% only matches the lower tier
	rule = pickScholarshipRule(rules, 85)
	require.NotNil(t, rule)
	assert.Equal(t, 25.0, rule.DiscountPercentage)
}

func TestPickScholarshipRuleNoMatch(t *testing.T) {
	rules := []model.ScholarshipRule{
		{MinPercentage: 80, MaxPercentage: 89.99, DiscountPercentage: 25, IsActive: true},
	}

	assert.Nil(t, pickScholarshipRule(rules, 79.99))
	assert.Nil(t, pickScholarshipRule(nil, 92))
}

func TestPickScholarshipRuleIgnoresInactive(t *testing.T) {
	rules := []model.ScholarshipRule{
		{MinPercentage: 90, MaxPercentage: 100, DiscountPercentage: 50, IsActive: false},
		{MinPercentage: 80, MaxPercentage: 100, DiscountPercentage: 25, IsActive: true},
	}

	rule := pickScholarshipRule(rules, 95)
	require.NotNil(t, rule)
	assert.Equal(t, 25.0, rule.DiscountPercentage)
}

func TestIsUniqueViolation(t *testing.T) {
	uniqueErr := &pgconn.PgError{Code: "23505", ConstraintName: "idx_payment_transactions_transaction_id"}

	assert.True(t, isUniqueViolation(uniqueErr))
	// Helpers see errors after wrapping, not the bare driver error
	assert.True(t, isUniqueViolation(fmt.Errorf("append payment transaction: %w", uniqueErr)))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "40001"}))
	// A message that merely mentions the code is not a driver error
	assert.False(t, isUniqueViolation(errors.New("duplicate key value (SQLSTATE 23505)")))
	assert.False(t, isUniqueViolation(nil))
}

func TestIsSerializationFailure(t *testing.T) {
	serialErr := &pgconn.PgError{Code: "40001"}
	deadlockErr := &pgconn.PgError{Code: "40P01"}

	assert.True(t, isSerializationFailure(serialErr))
	assert.True(t, isSerializationFailure(deadlockErr))
	assert.True(t, isSerializationFailure(fmt.Errorf("update fee record: %w", deadlockErr)))
	assert.False(t, isSerializationFailure(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isSerializationFailure(errors.New("could not serialize access (SQLSTATE 40001)")))
	assert.False(t, isSerializationFailure(nil))
}

// ==================== Integration tests ====================

// setupIntegrationDB connects to the database named by TEST_DATABASE_URL and
// migrates a clean schema. Tests using it are skipped unless
// RUN_INTEGRATION_TESTS=true.
func setupIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	if os.Getenv("RUN_INTEGRATION_TESTS") != "true" {
		t.Skip("Skipping integration test. Set RUN_INTEGRATION_TESTS=true to run")
	}

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	err = db.Migrator().DropTable(
		&model.PaymentTransaction{}, &model.StudentFeeRecord{},
		&model.ExamResult{}, &model.ScholarshipRule{}, &model.FeeStructure{},
		&model.Subject{}, &model.User{},
		&model.Batch{}, &model.Department{}, &model.School{}, &model.University{},
	)
	require.NoError(t, err)

	err = db.AutoMigrate(
		&model.University{}, &model.School{}, &model.Department{}, &model.Batch{},
		&model.User{}, &model.Subject{}, &model.ExamResult{},
		&model.FeeStructure{}, &model.ScholarshipRule{},
		&model.StudentFeeRecord{}, &model.PaymentTransaction{},
	)
	require.NoError(t, err)

	return db
}

func seedFinanceFixture(t *testing.T, db *gorm.DB) (student model.User, structure model.FeeStructure) {
	t.Helper()

	university := model.University{Name: "Test University", Code: "TU", IsActive: true}
	require.NoError(t, db.Create(&university).Error)

	school := model.School{UniversityID: university.ID, Name: "School of Engineering", Code: "SOE"}
	require.NoError(t, db.Create(&school).Error)

	department := model.Department{SchoolID: school.ID, Name: "CSE", Code: "CSE"}
	require.NoError(t, db.Create(&department).Error)

	student = model.User{
		Email:           "student@test.edu",
		PasswordHash:    "x",
		Name:            "Test Student",
		Role:            model.RoleStudent,
		UniversityID:    university.ID,
		SchoolID:        school.ID,
		DepartmentID:    department.ID,
		CurrentSemester: 1,
		PromotionState:  model.PromotionAwaitingPayment,
	}
	require.NoError(t, db.Create(&student).Error)

	structure = model.FeeStructure{
		UniversityID:   university.ID,
		SchoolID:       school.ID,
		SemesterNumber: 2,
		BaseAmount:     100000,
		IsActive:       true,
	}
	require.NoError(t, db.Create(&structure).Error)

	rules := []model.ScholarshipRule{
		{UniversityID: university.ID, Name: "Merit", MinPercentage: 80, MaxPercentage: 89.99, DiscountPercentage: 25, IsActive: true},
		{UniversityID: university.ID, Name: "Excellence", MinPercentage: 90, MaxPercentage: 100, DiscountPercentage: 50, IsActive: true},
	}
	require.NoError(t, db.Create(&rules).Error)

	subject := model.Subject{
		UniversityID: university.ID, SchoolID: school.ID, DepartmentID: department.ID,
		Semester: 1, Name: "Programming", Code: "CSE101", Credits: 4,
	}
	require.NoError(t, db.Create(&subject).Error)

	result := model.ExamResult{
		StudentID: student.ID, SubjectID: subject.ID, Semester: 1,
		Total: 92, Grade: "A", Credits: 4,
	}
	require.NoError(t, db.Create(&result).Error)

	return student, structure
}

func TestGenerateFeeRecordAppliesScholarship(t *testing.T) {
	db := setupIntegrationDB(t)
	student, _ := seedFinanceFixture(t, db)

	svc := NewFinanceService(db, nil)
	record, err := svc.GenerateFeeRecord(context.Background(), student.ID, 2)
	require.NoError(t, err)

	assert.Equal(t, 100000.0, record.TotalBaseAmount)
	assert.Equal(t, 50.0, record.ScholarshipPercentage)
	assert.Equal(t, 50000.0, record.ScholarshipAmount)
	assert.Equal(t, 50000.0, record.NetPayable)
	assert.Equal(t, 50000.0, record.DueAmount)
	assert.Equal(t, model.FeeStatusPending, record.Status)
}

func TestGenerateFeeRecordSetsDueDate(t *testing.T) {
	db := setupIntegrationDB(t)
	student, _ := seedFinanceFixture(t, db)

	svc := NewFinanceService(db, nil)
	record, err := svc.GenerateFeeRecord(context.Background(), student.ID, 2)
	require.NoError(t, err)

	require.NotNil(t, record.ReleasedAt)
	require.NotNil(t, record.DueDate)
	assert.False(t, record.Overdue)

	// Due date trails release by the configured grace window
	gap := record.DueDate.Sub(*record.ReleasedAt)
	assert.Equal(t, svc.graceWindow, gap.Round(time.Second))
}

func TestGenerateFeeRecordRegenerationResetsOverdue(t *testing.T) {
	db := setupIntegrationDB(t)
	student, _ := seedFinanceFixture(t, db)

	svc := NewFinanceService(db, nil)
	ctx := context.Background()

	record, err := svc.GenerateFeeRecord(ctx, student.ID, 2)
	require.NoError(t, err)

	// Simulate a breached due date flagged by the scheduled sweep
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, db.Model(&model.StudentFeeRecord{}).Where("id = ?", record.ID).
		Updates(map[string]interface{}{"due_date": past, "overdue": true}).Error)

	regenerated, err := svc.GenerateFeeRecord(ctx, student.ID, 2)
	require.NoError(t, err)

	assert.False(t, regenerated.Overdue)
	require.NotNil(t, regenerated.DueDate)
	assert.True(t, regenerated.DueDate.After(time.Now()))
}

func TestGenerateFeeRecordRegenerationPreservesPayments(t *testing.T) {
	db := setupIntegrationDB(t)
	student, _ := seedFinanceFixture(t, db)

	svc := NewFinanceService(db, nil)
	ctx := context.Background()

	record, err := svc.GenerateFeeRecord(ctx, student.ID, 2)
	require.NoError(t, err)

	_, err = svc.ProcessPayment(ctx, record.ID, 20000, model.MethodUPI, "TXN_REGEN000001")
	require.NoError(t, err)

	// Re-release: same (student, semester) row, paid progress kept
	regenerated, err := svc.GenerateFeeRecord(ctx, student.ID, 2)
	require.NoError(t, err)

	assert.Equal(t, record.ID, regenerated.ID)
	assert.Equal(t, 20000.0, regenerated.PaidAmount)
	assert.Equal(t, 30000.0, regenerated.DueAmount)
	assert.Equal(t, model.FeeStatusPartiallyPaid, regenerated.Status)
}

func TestProcessPaymentFullSettlementFlipsEligibility(t *testing.T) {
	db := setupIntegrationDB(t)
	student, _ := seedFinanceFixture(t, db)

	svc := NewFinanceService(db, nil)
	ctx := context.Background()

	record, err := svc.GenerateFeeRecord(ctx, student.ID, 2)
	require.NoError(t, err)

	result, err := svc.ProcessPayment(ctx, record.ID, record.NetPayable, model.MethodCard, "TXN_SETTLE000001")
	require.NoError(t, err)
	assert.Equal(t, model.FeeStatusPaid, result.Record.Status)

	var updated model.User
	require.NoError(t, db.First(&updated, student.ID).Error)
	assert.Equal(t, model.PromotionEligible, updated.PromotionState)

	// The ledger has exactly one entry
	var count int64
	require.NoError(t, db.Model(&model.PaymentTransaction{}).Where("fee_record_id = ?", record.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestProcessPaymentDuplicateTransactionID(t *testing.T) {
	db := setupIntegrationDB(t)
	student, _ := seedFinanceFixture(t, db)

	svc := NewFinanceService(db, nil)
	ctx := context.Background()

	record, err := svc.GenerateFeeRecord(ctx, student.ID, 2)
	require.NoError(t, err)

	_, err = svc.ProcessPayment(ctx, record.ID, 10000, model.MethodUPI, "TXN_DUP000000001")
	require.NoError(t, err)

	_, err = svc.ProcessPayment(ctx, record.ID, 10000, model.MethodUPI, "TXN_DUP000000001")
	require.ErrorIs(t, err, ErrDuplicateTransaction)

	// The failed attempt left no partial state behind
	var record2 model.StudentFeeRecord
	require.NoError(t, db.First(&record2, record.ID).Error)
	assert.Equal(t, 10000.0, record2.PaidAmount)
}

func TestProcessPaymentOverpaymentRollsBack(t *testing.T) {
	db := setupIntegrationDB(t)
	student, _ := seedFinanceFixture(t, db)

	svc := NewFinanceService(db, nil)
	ctx := context.Background()

	record, err := svc.GenerateFeeRecord(ctx, student.ID, 2)
	require.NoError(t, err)

	_, err = svc.ProcessPayment(ctx, record.ID, record.NetPayable+1, model.MethodCard, "TXN_OVER00000001")
	require.ErrorIs(t, err, model.ErrOverpayment)

	// Nothing committed: no ledger entry, record untouched, student ineligible
	var count int64
	require.NoError(t, db.Model(&model.PaymentTransaction{}).Where("fee_record_id = ?", record.ID).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	var unchanged model.StudentFeeRecord
	require.NoError(t, db.First(&unchanged, record.ID).Error)
	assert.Equal(t, 0.0, unchanged.PaidAmount)
	assert.Equal(t, model.FeeStatusPending, unchanged.Status)

	var user model.User
	require.NoError(t, db.First(&user, student.ID).Error)
	assert.Equal(t, model.PromotionAwaitingPayment, user.PromotionState)
}

func TestGenerateFeeRecordNoStructure(t *testing.T) {
	db := setupIntegrationDB(t)
	student, _ := seedFinanceFixture(t, db)

	svc := NewFinanceService(db, nil)
	_, err := svc.GenerateFeeRecord(context.Background(), student.ID, 7)
	require.ErrorIs(t, err, ErrFeeStructureNotFound)
}

func TestGenerateFeeRecordPrefersScopedStructure(t *testing.T) {
	db := setupIntegrationDB(t)
	student, structure := seedFinanceFixture(t, db)

	// A department-scoped structure for the same semester must win over the
	// school-wide one
	scoped := model.FeeStructure{
		UniversityID:   structure.UniversityID,
		SchoolID:       structure.SchoolID,
		DepartmentID:   student.DepartmentID,
		SemesterNumber: structure.SemesterNumber,
		BaseAmount:     80000,
		IsActive:       true,
	}
	require.NoError(t, db.Create(&scoped).Error)

	svc := NewFinanceService(db, nil)
	record, err := svc.GenerateFeeRecord(context.Background(), student.ID, 2)
	require.NoError(t, err)

	assert.Equal(t, scoped.ID, record.FeeStructureID)
	assert.Equal(t, 80000.0, record.TotalBaseAmount)
}

func TestFeeStructureUniquePerActiveScope(t *testing.T) {
	db := setupIntegrationDB(t)
	_, structure := seedFinanceFixture(t, db)

	// A second active structure in the same scope and semester is rejected
	duplicate := model.FeeStructure{
		UniversityID:   structure.UniversityID,
		SchoolID:       structure.SchoolID,
		DepartmentID:   structure.DepartmentID,
		BatchID:        structure.BatchID,
		SemesterNumber: structure.SemesterNumber,
		BaseAmount:     120000,
		IsActive:       true,
	}
	err := db.Create(&duplicate).Error
	require.Error(t, err)
	assert.True(t, isUniqueViolation(err))

	// Retiring the original frees the scope for a replacement
	require.NoError(t, db.Model(&model.FeeStructure{}).
		Where("id = ?", structure.ID).Update("is_active", false).Error)
	require.NoError(t, db.Create(&duplicate).Error)
}
