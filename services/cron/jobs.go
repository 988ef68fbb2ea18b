package cron

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/campusgate/campusgate-api/model"
	"github.com/campusgate/campusgate-api/utils/auth"
)

const jobLogRetention = 30 * 24 * time.Hour

// runJob executes a job function and records its outcome in cron_job_logs.
func (m *CronManager) runJob(name string, fn func() (string, error)) {
	started := time.Now()
	entry := model.CronJobLog{
		JobName:   name,
		Status:    "started",
		StartedAt: started,
	}
	if err := m.db.Create(&entry).Error; err != nil {
		log.Printf("Cron [%s]: failed to write job log: %v", name, err)
	}

	message, err := fn()
	completed := time.Now()
	entry.CompletedAt = &completed
	entry.Duration = int(completed.Sub(started).Milliseconds())
	entry.Message = message

	if err != nil {
		entry.Status = "failed"
		entry.ErrorMsg = err.Error()
		log.Printf("Cron [%s]: failed: %v", name, err)
	} else {
		entry.Status = "completed"
	}

	if entry.ID != 0 {
		if err := m.db.Save(&entry).Error; err != nil {
			log.Printf("Cron [%s]: failed to update job log: %v", name, err)
		}
	}
}

// MarkOverdueFeeRecords flags unpaid records whose due date has passed. The
// status machine itself never regresses; the flag only surfaces overdue
// records for the finance staff views, and settlement clears it.
func (m *CronManager) MarkOverdueFeeRecords() (string, error) {
	result := m.db.Model(&model.StudentFeeRecord{}).
		Where("due_date IS NOT NULL AND due_date < ? AND overdue = ? AND status IN ?",
			time.Now(), false,
			[]model.FeeRecordStatus{model.FeeStatusPending, model.FeeStatusPartiallyPaid}).
		Update("overdue", true)
	if result.Error != nil {
		return "", result.Error
	}

	if result.RowsAffected > 0 {
		log.Printf("Cron [mark_overdue_fee_records]: flagged %d records past due", result.RowsAffected)
	}
	return fmt.Sprintf("%d records flagged overdue", result.RowsAffected), nil
}

// CleanupExpiredTokens removes blacklist entries whose tokens have expired
// anyway.
func (m *CronManager) CleanupExpiredTokens() (string, error) {
	blacklist := auth.NewBlacklistService(m.db)
	if err := blacklist.CleanupExpiredTokens(context.Background()); err != nil {
		return "", err
	}
	return "expired blacklist entries removed", nil
}

// CleanupJobLogs trims cron job logs older than the retention window.
func (m *CronManager) CleanupJobLogs() (string, error) {
	cutoff := time.Now().Add(-jobLogRetention)
	result := m.db.Unscoped().
		Where("created_at < ?", cutoff).
		Delete(&model.CronJobLog{})
	if result.Error != nil {
		return "", result.Error
	}
	return "old job logs removed", nil
}
