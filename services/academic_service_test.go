package services

import (
	"context"
	"testing"

	"github.com/campusgate/campusgate-api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromoteStudentRequiresEligibility(t *testing.T) {
	db := setupIntegrationDB(t)
	student, _ := seedFinanceFixture(t, db)

	svc := NewAcademicService(db, nil)
	_, err := svc.PromoteStudent(context.Background(), student.ID)
	require.ErrorIs(t, err, ErrNotEligible)

	// Progression state is untouched by the refused attempt
	var unchanged model.User
	require.NoError(t, db.First(&unchanged, student.ID).Error)
	assert.Equal(t, 1, unchanged.CurrentSemester)
}

func TestPromoteStudentAdvancesAndResets(t *testing.T) {
	db := setupIntegrationDB(t)
	student, _ := seedFinanceFixture(t, db)

	ctx := context.Background()

	// Settle the fees first
	finance := NewFinanceService(db, nil)
	record, err := finance.GenerateFeeRecord(ctx, student.ID, 2)
	require.NoError(t, err)
	_, err = finance.ProcessPayment(ctx, record.ID, record.NetPayable, model.MethodCard, "TXN_PROMO0000001")
	require.NoError(t, err)

	svc := NewAcademicService(db, nil)
	result, err := svc.PromoteStudent(ctx, student.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Student.CurrentSemester)
	assert.Equal(t, model.PromotionAwaitingPayment, result.Student.PromotionState)

	// A second promotion without a fresh payment cycle is refused
	_, err = svc.PromoteStudent(ctx, student.ID)
	require.ErrorIs(t, err, ErrNotEligible)
}

func TestPromoteStudentCollectsBacklogs(t *testing.T) {
	db := setupIntegrationDB(t)
	student, _ := seedFinanceFixture(t, db)

	ctx := context.Background()

	// Add a failed subject in the closing semester
	var department model.Department
	require.NoError(t, db.First(&department).Error)

	failedSubject := model.Subject{
		UniversityID: student.UniversityID, SchoolID: student.SchoolID,
		DepartmentID: department.ID, Semester: 1,
		Name: "Digital Logic", Code: "CSE102", Credits: 3,
	}
	require.NoError(t, db.Create(&failedSubject).Error)
	require.NoError(t, db.Create(&model.ExamResult{
		StudentID: student.ID, SubjectID: failedSubject.ID, Semester: 1,
		Total: 28, Grade: "F", Credits: 3,
	}).Error)

	finance := NewFinanceService(db, nil)
	record, err := finance.GenerateFeeRecord(ctx, student.ID, 2)
	require.NoError(t, err)
	_, err = finance.ProcessPayment(ctx, record.ID, record.NetPayable, model.MethodCard, "TXN_BACKLOG00001")
	require.NoError(t, err)

	svc := NewAcademicService(db, nil)
	result, err := svc.PromoteStudent(ctx, student.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, result.BacklogCount)
	assert.Contains(t, []int64(result.Student.Backlogs), int64(failedSubject.ID))
}

func TestProcessResultsIdempotentBacklogUnion(t *testing.T) {
	db := setupIntegrationDB(t)
	student, _ := seedFinanceFixture(t, db)

	ctx := context.Background()

	var department model.Department
	require.NoError(t, db.First(&department).Error)

	failedSubject := model.Subject{
		UniversityID: student.UniversityID, SchoolID: student.SchoolID,
		DepartmentID: department.ID, Semester: 1,
		Name: "Computer Organization", Code: "CSE202X", Credits: 3,
	}
	require.NoError(t, db.Create(&failedSubject).Error)
	require.NoError(t, db.Create(&model.ExamResult{
		StudentID: student.ID, SubjectID: failedSubject.ID, Semester: 1,
		Total: 20, Grade: "F", Credits: 3,
	}).Error)

	svc := NewAcademicService(db, nil)
	require.NoError(t, svc.ProcessResults(ctx, student.ID, 1))
	require.NoError(t, svc.ProcessResults(ctx, student.ID, 1))

	var updated model.User
	require.NoError(t, db.First(&updated, student.ID).Error)
	assert.Len(t, []int64(updated.Backlogs), 1)
}
