package cron

import (
	"os"
	"testing"
	"time"

	"github.com/campusgate/campusgate-api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupCronTestDB(t *testing.T) *gorm.DB {
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
		&model.StudentFeeRecord{}, &model.FeeStructure{}, &model.User{},
		&model.School{}, &model.University{}, &model.CronJobLog{},
	)
	require.NoError(t, err)

	err = db.AutoMigrate(
		&model.University{}, &model.School{}, &model.User{},
		&model.FeeStructure{}, &model.StudentFeeRecord{}, &model.CronJobLog{},
	)
	require.NoError(t, err)

	return db
}

func seedFeeRecord(t *testing.T, db *gorm.DB, status model.FeeRecordStatus, dueDate time.Time) model.StudentFeeRecord {
	t.Helper()

	university := model.University{Name: "Test University", Code: "TU", IsActive: true}
	require.NoError(t, db.Create(&university).Error)

	school := model.School{UniversityID: university.ID, Name: "SOE", Code: "SOE"}
	require.NoError(t, db.Create(&school).Error)

	student := model.User{
		Email: "cron-student@test.edu", PasswordHash: "x", Name: "Cron Student",
		Role: model.RoleStudent, UniversityID: university.ID, SchoolID: school.ID,
	}
	require.NoError(t, db.Create(&student).Error)

	structure := model.FeeStructure{
		UniversityID: university.ID, SchoolID: school.ID,
		SemesterNumber: 2, BaseAmount: 100000, IsActive: true,
	}
	require.NoError(t, db.Create(&structure).Error)

	record := model.StudentFeeRecord{
		StudentID:       student.ID,
		SemesterNumber:  2,
		FeeStructureID:  structure.ID,
		TotalBaseAmount: 100000,
		NetPayable:      100000,
		DueAmount:       100000,
		Status:          status,
		DueDate:         &dueDate,
	}
	require.NoError(t, db.Create(&record).Error)
	return record
}

func TestMarkOverdueFeeRecordsFlagsPastDue(t *testing.T) {
	db := setupCronTestDB(t)
	record := seedFeeRecord(t, db, model.FeeStatusPending, time.Now().Add(-24*time.Hour))

	manager := NewCronManager(db)
	message, err := manager.MarkOverdueFeeRecords()
	require.NoError(t, err)
	assert.Equal(t, "1 records flagged overdue", message)

	var updated model.StudentFeeRecord
	require.NoError(t, db.First(&updated, record.ID).Error)
	assert.True(t, updated.Overdue)

	// The sweep is idempotent: already-flagged records are not re-counted
	message, err = manager.MarkOverdueFeeRecords()
	require.NoError(t, err)
	assert.Equal(t, "0 records flagged overdue", message)
}

func TestMarkOverdueFeeRecordsIgnoresSettledAndFuture(t *testing.T) {
	db := setupCronTestDB(t)
	record := seedFeeRecord(t, db, model.FeeStatusPaid, time.Now().Add(-24*time.Hour))

	manager := NewCronManager(db)
	_, err := manager.MarkOverdueFeeRecords()
	require.NoError(t, err)

	var settled model.StudentFeeRecord
	require.NoError(t, db.First(&settled, record.ID).Error)
	assert.False(t, settled.Overdue)

	// A record still inside its grace window is left alone too
	future := time.Now().Add(24 * time.Hour)
	require.NoError(t, db.Model(&model.StudentFeeRecord{}).Where("id = ?", record.ID).
		Updates(map[string]interface{}{"status": model.FeeStatusPending, "due_date": future}).Error)

	_, err = manager.MarkOverdueFeeRecords()
	require.NoError(t, err)

	var pending model.StudentFeeRecord
	require.NoError(t, db.First(&pending, record.ID).Error)
	assert.False(t, pending.Overdue)
}
