package institution

import (
	"github.com/campusgate/campusgate-api/model"
	"github.com/campusgate/campusgate-api/utils/response"
	"github.com/campusgate/campusgate-api/utils/validation"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// InstitutionHandler manages the university > school > department > batch
// hierarchy
type InstitutionHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewInstitutionHandler creates a new institution handler
func NewInstitutionHandler(db *gorm.DB) *InstitutionHandler {
	return &InstitutionHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// ==================== Universities ====================

// UniversityRequest creates or updates a university
type UniversityRequest struct {
	Name     string `json:"name" validate:"required,min=3"`
	Code     string `json:"code" validate:"required,min=2,max=20"`
	Location string `json:"location"`
	Website  string `json:"website"`
}

// ListUniversities returns all active universities
func (h *InstitutionHandler) ListUniversities(c *fiber.Ctx) error {
	var universities []model.University
	if err := h.db.Where("is_active = ?", true).Order("name ASC").Find(&universities).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch universities")
	}
	return response.Success(c, fiber.Map{"universities": universities})
}

// GetUniversity returns one university with its schools
func (h *InstitutionHandler) GetUniversity(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid university id")
	}

	var university model.University
	if err := h.db.Preload("Schools").First(&university, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "University not found")
		}
		return response.InternalServerError(c, "Failed to fetch university")
	}

	return response.Success(c, university)
}

// CreateUniversity creates a new university
func (h *InstitutionHandler) CreateUniversity(c *fiber.Ctx) error {
	var req UniversityRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	university := model.University{
		Name:     validation.SanitizeString(req.Name),
		Code:     validation.SanitizeString(req.Code),
		Location: validation.SanitizeString(req.Location),
		Website:  validation.SanitizeString(req.Website),
		IsActive: true,
	}

	if err := h.db.Create(&university).Error; err != nil {
		return response.Conflict(c, "University with this name or code already exists")
	}

	return response.Created(c, university)
}

// ==================== Schools ====================

// SchoolRequest creates a school under a university
type SchoolRequest struct {
	UniversityID uint   `json:"university_id" validate:"required"`
	Name         string `json:"name" validate:"required,min=3"`
	Code         string `json:"code" validate:"required,min=2,max=20"`
}

// ListSchools returns all schools of a university
func (h *InstitutionHandler) ListSchools(c *fiber.Ctx) error {
	universityID, err := c.ParamsInt("id")
	if err != nil || universityID < 1 {
		return response.BadRequest(c, "Invalid university id")
	}

	var schools []model.School
	if err := h.db.Where("university_id = ?", universityID).Order("name ASC").Find(&schools).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch schools")
	}
	return response.Success(c, fiber.Map{"schools": schools})
}

// CreateSchool creates a school
func (h *InstitutionHandler) CreateSchool(c *fiber.Ctx) error {
	var req SchoolRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var university model.University
	if err := h.db.First(&university, req.UniversityID).Error; err != nil {
		return response.NotFound(c, "University not found")
	}

	school := model.School{
		UniversityID: req.UniversityID,
		Name:         validation.SanitizeString(req.Name),
		Code:         validation.SanitizeString(req.Code),
	}

	if err := h.db.Create(&school).Error; err != nil {
		return response.InternalServerError(c, "Failed to create school")
	}

	return response.Created(c, school)
}

// ==================== Departments ====================

// DepartmentRequest creates a department under a school
type DepartmentRequest struct {
	SchoolID uint   `json:"school_id" validate:"required"`
	Name     string `json:"name" validate:"required,min=3"`
	Code     string `json:"code" validate:"required,min=2,max=20"`
}

// ListDepartments returns all departments of a school
func (h *InstitutionHandler) ListDepartments(c *fiber.Ctx) error {
	schoolID, err := c.ParamsInt("school_id")
	if err != nil || schoolID < 1 {
		return response.BadRequest(c, "Invalid school id")
	}

	var departments []model.Department
	if err := h.db.Where("school_id = ?", schoolID).Order("name ASC").Find(&departments).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch departments")
	}
	return response.Success(c, fiber.Map{"departments": departments})
}

// CreateDepartment creates a department
func (h *InstitutionHandler) CreateDepartment(c *fiber.Ctx) error {
	var req DepartmentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var school model.School
	if err := h.db.First(&school, req.SchoolID).Error; err != nil {
		return response.NotFound(c, "School not found")
	}

	department := model.Department{
		SchoolID: req.SchoolID,
		Name:     validation.SanitizeString(req.Name),
		Code:     validation.SanitizeString(req.Code),
	}

	if err := h.db.Create(&department).Error; err != nil {
		return response.InternalServerError(c, "Failed to create department")
	}

	return response.Created(c, department)
}

// ==================== Batches ====================

// BatchRequest creates an admission-year cohort
type BatchRequest struct {
	DepartmentID uint   `json:"department_id" validate:"required"`
	Name         string `json:"name" validate:"required"`
	StartYear    int    `json:"start_year" validate:"required,min=2000"`
	EndYear      int    `json:"end_year"`
}

// CreateBatch creates a batch
func (h *InstitutionHandler) CreateBatch(c *fiber.Ctx) error {
	var req BatchRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var department model.Department
	if err := h.db.First(&department, req.DepartmentID).Error; err != nil {
		return response.NotFound(c, "Department not found")
	}

	batch := model.Batch{
		DepartmentID: req.DepartmentID,
		Name:         validation.SanitizeString(req.Name),
		StartYear:    req.StartYear,
		EndYear:      req.EndYear,
	}

	if err := h.db.Create(&batch).Error; err != nil {
		return response.InternalServerError(c, "Failed to create batch")
	}

	return response.Created(c, batch)
}

// ==================== Role assignment ====================

// AssignRoleRequest moves a pending account into an operational role
type AssignRoleRequest struct {
	UserID uint   `json:"user_id" validate:"required"`
	Role   string `json:"role" validate:"required,oneof=dean admin coe teacher student finance hr"`
}

// AssignRole sets a user's role. Registrar-only; the registrar role itself can
// never be granted through this endpoint.
func (h *InstitutionHandler) AssignRole(c *fiber.Ctx) error {
	var req AssignRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var user model.User
	if err := h.db.First(&user, req.UserID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	if user.Role == model.RoleRegistrar {
		return response.Forbidden(c, "Registrar role cannot be reassigned")
	}

	if err := h.db.Model(&user).Update("role", req.Role).Error; err != nil {
		return response.InternalServerError(c, "Failed to assign role")
	}

	return response.SuccessWithMessage(c, "Role assigned successfully", fiber.Map{
		"user_id": user.ID,
		"role":    req.Role,
	})
}
