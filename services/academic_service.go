package services

import (
	"context"
	"fmt"
	"time"

	"github.com/campusgate/campusgate-api/model"
	"github.com/campusgate/campusgate-api/utils/cache"
	"gorm.io/gorm"
)

const subjectCatalogTTL = 10 * time.Minute

// AcademicService owns semester progression: eligibility-gated promotion and
// backlog accounting.
type AcademicService struct {
	db    *gorm.DB
	cache *cache.RedisCache // optional, nil disables catalog caching
}

// NewAcademicService creates a new academic service
func NewAcademicService(db *gorm.DB, redisCache *cache.RedisCache) *AcademicService {
	return &AcademicService{
		db:    db,
		cache: redisCache,
	}
}

// PromotionResult reports the outcome of a successful promotion
type PromotionResult struct {
	Student          *model.User     `json:"student"`
	AssignedSubjects []model.Subject `json:"assigned_subjects"`
	BacklogCount     int             `json:"backlog_count"`
}

// SubjectsFor lists the department's curriculum for a semester, with a short
// Redis-backed cache in front of the catalog table.
func (s *AcademicService) SubjectsFor(ctx context.Context, departmentID uint, semester int) ([]model.Subject, error) {
	cacheKey := fmt.Sprintf("subjects:dept:%d:sem:%d", departmentID, semester)

	if s.cache != nil {
		var cached []model.Subject
		if err := s.cache.GetJSON(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	var subjects []model.Subject
	if err := s.db.WithContext(ctx).
		Where("department_id = ? AND semester = ?", departmentID, semester).
		Order("code ASC").
		Find(&subjects).Error; err != nil {
		return nil, fmt.Errorf("fetch subjects: %w", err)
	}

	if s.cache != nil {
		s.cache.SetJSON(ctx, cacheKey, subjects, subjectCatalogTTL)
	}

	return subjects, nil
}

// PromoteStudent moves an eligible student to the next semester. Grade-F
// results of the closing semester are unioned into the backlog set, the
// next semester's curriculum is resolved, and the promotion state resets to
// awaiting payment so each transition needs a fresh release + payment cycle.
//
// Calling this twice while still eligible would double-increment the
// semester; the state reset inside the same write prevents that.
func (s *AcademicService) PromoteStudent(ctx context.Context, studentID uint) (*PromotionResult, error) {
	var student model.User
	if err := s.db.WithContext(ctx).First(&student, studentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("fetch student: %w", err)
	}

	if !student.IsEligibleForNextSemester() {
		return nil, ErrNotEligible
	}

	nextSemester := student.CurrentSemester + 1

	// Backlogs from the semester being closed
	var failed []model.ExamResult
	if err := s.db.WithContext(ctx).
		Where("student_id = ? AND semester = ? AND grade = ?", studentID, student.CurrentSemester, "F").
		Find(&failed).Error; err != nil {
		return nil, fmt.Errorf("fetch failed results: %w", err)
	}
	failedSubjects := make([]int64, 0, len(failed))
	for _, r := range failed {
		failedSubjects = append(failedSubjects, int64(r.SubjectID))
	}
	student.AddBacklogs(failedSubjects)

	// Next semester curriculum; informational, enrollment records are out of
	// scope here
	subjects, err := s.SubjectsFor(ctx, student.DepartmentID, nextSemester)
	if err != nil {
		return nil, err
	}

	student.CurrentSemester = nextSemester
	student.PromotionState = model.PromotionAwaitingPayment

	if err := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", student.ID).
		Updates(map[string]interface{}{
			"current_semester": student.CurrentSemester,
			"promotion_state":  student.PromotionState,
			"backlogs":         student.Backlogs,
		}).Error; err != nil {
		return nil, fmt.Errorf("update student: %w", err)
	}

	return &PromotionResult{
		Student:          &student,
		AssignedSubjects: subjects,
		BacklogCount:     len(student.Backlogs),
	}, nil
}

// ProcessResults folds any grade-F results for the semester into the
// student's backlog set without touching progression state.
func (s *AcademicService) ProcessResults(ctx context.Context, studentID uint, semester int) error {
	var failed []model.ExamResult
	if err := s.db.WithContext(ctx).
		Where("student_id = ? AND semester = ? AND grade = ?", studentID, semester, "F").
		Find(&failed).Error; err != nil {
		return fmt.Errorf("fetch failed results: %w", err)
	}
	if len(failed) == 0 {
		return nil
	}

	var student model.User
	if err := s.db.WithContext(ctx).First(&student, studentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrStudentNotFound
		}
		return fmt.Errorf("fetch student: %w", err)
	}

	failedSubjects := make([]int64, 0, len(failed))
	for _, r := range failed {
		failedSubjects = append(failedSubjects, int64(r.SubjectID))
	}
	student.AddBacklogs(failedSubjects)

	return s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", student.ID).
		Update("backlogs", student.Backlogs).Error
}
