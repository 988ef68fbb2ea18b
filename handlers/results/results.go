package results

import (
	"errors"

	"github.com/campusgate/campusgate-api/model"
	"github.com/campusgate/campusgate-api/services"
	"github.com/campusgate/campusgate-api/utils/middleware"
	"github.com/campusgate/campusgate-api/utils/response"
	"github.com/campusgate/campusgate-api/utils/validation"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ResultsHandler exposes exam result entry and retrieval
type ResultsHandler struct {
	db              *gorm.DB
	academicService *services.AcademicService
	validator       *validation.Validator
}

// NewResultsHandler creates a new results handler
func NewResultsHandler(db *gorm.DB, academicService *services.AcademicService) *ResultsHandler {
	return &ResultsHandler{
		db:              db,
		academicService: academicService,
		validator:       validation.NewValidator(),
	}
}

// ResultEntry is one subject's marks in a publish request
type ResultEntry struct {
	SubjectID uint    `json:"subject_id" validate:"required"`
	Internal  float64 `json:"internal" validate:"gte=0,lte=30"`
	External  float64 `json:"external" validate:"gte=0,lte=70"`
	Grade     string  `json:"grade" validate:"required,oneof=A+ A B+ B C D F"`
}

// PublishRequest publishes a student's marks for one semester
type PublishRequest struct {
	StudentID uint          `json:"student_id" validate:"required"`
	Semester  int           `json:"semester" validate:"required,min=1"`
	Results   []ResultEntry `json:"results" validate:"required,min=1,dive"`
}

// Publish upserts a student's semester results and folds failures into the
// backlog set.
func (h *ResultsHandler) Publish(c *fiber.Ctx) error {
	var req PublishRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var student model.User
	if err := h.db.First(&student, req.StudentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Student not found")
		}
		return response.InternalServerError(c, "Failed to fetch student")
	}

	records := make([]model.ExamResult, 0, len(req.Results))
	for _, entry := range req.Results {
		var subject model.Subject
		if err := h.db.First(&subject, entry.SubjectID).Error; err != nil {
			return response.BadRequest(c, "Unknown subject in result sheet")
		}

		records = append(records, model.ExamResult{
			StudentID:    req.StudentID,
			SubjectID:    entry.SubjectID,
			Semester:     req.Semester,
			UniversityID: student.UniversityID,
			SchoolID:     student.SchoolID,
			DepartmentID: student.DepartmentID,
			Internal:     entry.Internal,
			External:     entry.External,
			Total:        entry.Internal + entry.External,
			Grade:        entry.Grade,
			Credits:      subject.Credits,
		})
	}

	// Re-publishing replaces the semester's sheet
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().
			Where("student_id = ? AND semester = ?", req.StudentID, req.Semester).
			Delete(&model.ExamResult{}).Error; err != nil {
			return err
		}
		return tx.Create(&records).Error
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to publish results")
	}

	if err := h.academicService.ProcessResults(c.Context(), req.StudentID, req.Semester); err != nil {
		if errors.Is(err, services.ErrStudentNotFound) {
			return response.NotFound(c, "Student not found")
		}
		return response.InternalServerError(c, "Failed to process backlogs")
	}

	return response.Created(c, fiber.Map{"published": len(records)})
}

// MyResults returns the caller's results, optionally filtered by semester
func (h *ResultsHandler) MyResults(c *fiber.Ctx) error {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	return h.listResults(c, p.UserID)
}

// StudentResults returns a student's results for staff views
func (h *ResultsHandler) StudentResults(c *fiber.Ctx) error {
	studentID, err := c.ParamsInt("student_id")
	if err != nil || studentID < 1 {
		return response.BadRequest(c, "Invalid student id")
	}

	return h.listResults(c, uint(studentID))
}

func (h *ResultsHandler) listResults(c *fiber.Ctx, studentID uint) error {
	query := h.db.Preload("Subject").Where("student_id = ?", studentID)

	if semester := c.QueryInt("semester"); semester > 0 {
		query = query.Where("semester = ?", semester)
	}

	var results []model.ExamResult
	if err := query.Order("semester ASC, subject_id ASC").Find(&results).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch results")
	}

	return response.Success(c, fiber.Map{"results": results})
}
