package academic

import (
	"errors"

	"github.com/campusgate/campusgate-api/model"
	"github.com/campusgate/campusgate-api/services"
	"github.com/campusgate/campusgate-api/utils/response"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AcademicHandler exposes promotion and curriculum endpoints
type AcademicHandler struct {
	db              *gorm.DB
	academicService *services.AcademicService
}

// NewAcademicHandler creates a new academic handler
func NewAcademicHandler(db *gorm.DB, academicService *services.AcademicService) *AcademicHandler {
	return &AcademicHandler{
		db:              db,
		academicService: academicService,
	}
}

// ListSubjects returns a department's curriculum for a semester
func (h *AcademicHandler) ListSubjects(c *fiber.Ctx) error {
	departmentID, err := c.ParamsInt("department_id")
	if err != nil || departmentID < 1 {
		return response.BadRequest(c, "Invalid department id")
	}

	semester := c.QueryInt("semester", 1)
	if semester < 1 {
		return response.BadRequest(c, "Invalid semester")
	}

	subjects, err := h.academicService.SubjectsFor(c.Context(), uint(departmentID), semester)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch subjects")
	}

	return response.Success(c, fiber.Map{"subjects": subjects})
}

// Promote moves an eligible student to the next semester
func (h *AcademicHandler) Promote(c *fiber.Ctx) error {
	studentID, err := c.ParamsInt("student_id")
	if err != nil || studentID < 1 {
		return response.BadRequest(c, "Invalid student id")
	}

	result, err := h.academicService.PromoteStudent(c.Context(), uint(studentID))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrStudentNotFound):
			return response.NotFound(c, "Student not found")
		case errors.Is(err, services.ErrNotEligible):
			return response.Conflict(c, "Student has not cleared fees for the current semester")
		default:
			return response.InternalServerError(c, "Failed to promote student")
		}
	}

	return response.SuccessWithMessage(c, "Student promoted successfully", result)
}

// GetProgression returns a student's progression snapshot
func (h *AcademicHandler) GetProgression(c *fiber.Ctx) error {
	studentID, err := c.ParamsInt("student_id")
	if err != nil || studentID < 1 {
		return response.BadRequest(c, "Invalid student id")
	}

	var student model.User
	if err := h.db.First(&student, studentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Student not found")
		}
		return response.InternalServerError(c, "Failed to fetch student")
	}

	var backlogSubjects []model.Subject
	if len(student.Backlogs) > 0 {
		ids := make([]uint, 0, len(student.Backlogs))
		for _, id := range student.Backlogs {
			ids = append(ids, uint(id))
		}
		if err := h.db.Where("id IN ?", ids).Find(&backlogSubjects).Error; err != nil {
			return response.InternalServerError(c, "Failed to fetch backlog subjects")
		}
	}

	return response.Success(c, fiber.Map{
		"student_id":       student.ID,
		"current_semester": student.CurrentSemester,
		"promotion_state":  student.PromotionState,
		"eligible":         student.IsEligibleForNextSemester(),
		"backlogs":         backlogSubjects,
	})
}
