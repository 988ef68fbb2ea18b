package finance

import (
	"errors"

	"github.com/campusgate/campusgate-api/model"
	"github.com/campusgate/campusgate-api/services"
	"github.com/campusgate/campusgate-api/utils/middleware"
	"github.com/campusgate/campusgate-api/utils/response"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// FinanceHandler exposes fee release, billing and payment endpoints
type FinanceHandler struct {
	db             *gorm.DB
	financeService *services.FinanceService
	gateway        services.PaymentGateway
}

// NewFinanceHandler creates a new finance handler
func NewFinanceHandler(db *gorm.DB, financeService *services.FinanceService, gateway services.PaymentGateway) *FinanceHandler {
	return &FinanceHandler{
		db:             db,
		financeService: financeService,
		gateway:        gateway,
	}
}

// ReleaseRequest requests fee record generation for a set of students
type ReleaseRequest struct {
	StudentIDs     []uint `json:"student_ids" validate:"required,min=1"`
	TargetSemester int    `json:"target_semester" validate:"required,min=1"`
}

// ReleaseBatch generates fee records for the given students. Failures are
// reported per student.
func (h *FinanceHandler) ReleaseBatch(c *fiber.Ctx) error {
	var req ReleaseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if len(req.StudentIDs) == 0 {
		return response.BadRequest(c, "At least one student id is required")
	}
	if req.TargetSemester < 1 {
		return response.BadRequest(c, "Target semester must be positive")
	}

	results := h.financeService.ReleaseBatch(c.Context(), req.StudentIDs, req.TargetSemester)
	return response.Success(c, fiber.Map{"results": results})
}

// ReleaseOne generates the fee record for a single student
func (h *FinanceHandler) ReleaseOne(c *fiber.Ctx) error {
	studentID, err := c.ParamsInt("student_id")
	if err != nil || studentID < 1 {
		return response.BadRequest(c, "Invalid student id")
	}

	semester := c.QueryInt("semester")
	if semester < 1 {
		// Default to the student's current semester
		var student model.User
		if err := h.db.First(&student, studentID).Error; err != nil {
			return response.NotFound(c, "Student not found")
		}
		semester = student.CurrentSemester
	}

	record, err := h.financeService.GenerateFeeRecord(c.Context(), uint(studentID), semester)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrStudentNotFound):
			return response.NotFound(c, "Student not found")
		case errors.Is(err, services.ErrFeeStructureNotFound):
			return response.NotFound(c, "No active fee structure for this semester")
		default:
			return response.InternalServerError(c, "Failed to release fee record")
		}
	}

	return response.Created(c, record)
}

// GetBill returns the caller's latest fee record
func (h *FinanceHandler) GetBill(c *fiber.Ctx) error {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	record, err := h.financeService.GetBill(c.Context(), p.UserID)
	if err != nil {
		if errors.Is(err, services.ErrFeeRecordNotFound) {
			return response.NotFound(c, "No fee record has been released yet")
		}
		return response.InternalServerError(c, "Failed to fetch bill")
	}

	return response.Success(c, record)
}

// GetStudentBill returns a student's latest fee record for staff views
func (h *FinanceHandler) GetStudentBill(c *fiber.Ctx) error {
	studentID, err := c.ParamsInt("student_id")
	if err != nil || studentID < 1 {
		return response.BadRequest(c, "Invalid student id")
	}

	record, err := h.financeService.GetBill(c.Context(), uint(studentID))
	if err != nil {
		if errors.Is(err, services.ErrFeeRecordNotFound) {
			return response.NotFound(c, "No fee record has been released yet")
		}
		return response.InternalServerError(c, "Failed to fetch bill")
	}

	return response.Success(c, record)
}

// PayRequest is a payment against the caller's released fee record
type PayRequest struct {
	FeeRecordID uint    `json:"fee_record_id" validate:"required"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Method      string  `json:"method" validate:"required"`
}

var acceptedMethods = map[model.PaymentMethod]bool{
	model.MethodCard:       true,
	model.MethodUPI:        true,
	model.MethodNetBanking: true,
	model.MethodCash:       true,
}

// Pay charges the gateway and records the payment atomically
func (h *FinanceHandler) Pay(c *fiber.Ctx) error {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req PayRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.Amount <= 0 {
		return response.BadRequest(c, "Payment amount must be positive")
	}

	method := model.PaymentMethod(req.Method)
	if !acceptedMethods[method] {
		return response.BadRequest(c, "Unsupported payment method")
	}

	// Students can only pay their own record
	var record model.StudentFeeRecord
	if err := h.db.First(&record, req.FeeRecordID).Error; err != nil {
		return response.NotFound(c, "Fee record not found")
	}
	if p.Role == model.RoleStudent && record.StudentID != p.UserID {
		return response.Forbidden(c, "You can only pay your own fee record")
	}

	charge, err := h.gateway.Charge(c.Context(), req.Amount, method)
	if err != nil {
		return response.InternalServerError(c, "Payment gateway unavailable")
	}

	result, err := h.financeService.ProcessPayment(c.Context(), req.FeeRecordID, req.Amount, method, charge.TransactionID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrFeeRecordNotFound):
			return response.NotFound(c, "Fee record not found")
		case errors.Is(err, model.ErrOverpayment):
			return response.BadRequest(c, "Payment amount exceeds due amount")
		case errors.Is(err, model.ErrNonPositiveAmount):
			return response.BadRequest(c, "Payment amount must be positive")
		case errors.Is(err, services.ErrDuplicateTransaction):
			return response.Conflict(c, "This transaction has already been recorded")
		case errors.Is(err, services.ErrTransactionConflict):
			return response.Conflict(c, "Concurrent payment detected, please retry")
		default:
			return response.InternalServerError(c, "Failed to process payment")
		}
	}

	return response.Created(c, result)
}

// ListTransactions returns the ledger for a fee record, newest first
func (h *FinanceHandler) ListTransactions(c *fiber.Ctx) error {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	feeRecordID, err := c.ParamsInt("id")
	if err != nil || feeRecordID < 1 {
		return response.BadRequest(c, "Invalid fee record id")
	}

	var record model.StudentFeeRecord
	if err := h.db.First(&record, feeRecordID).Error; err != nil {
		return response.NotFound(c, "Fee record not found")
	}
	if p.Role == model.RoleStudent && record.StudentID != p.UserID {
		return response.Forbidden(c, "You can only view your own transactions")
	}

	var transactions []model.PaymentTransaction
	if err := h.db.Where("fee_record_id = ?", feeRecordID).
		Order("paid_at DESC").
		Find(&transactions).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch transactions")
	}

	return response.Success(c, fiber.Map{"transactions": transactions})
}

// PreviewScholarship resolves the discount a student's results currently earn
func (h *FinanceHandler) PreviewScholarship(c *fiber.Ctx) error {
	studentID, err := c.ParamsInt("student_id")
	if err != nil || studentID < 1 {
		return response.BadRequest(c, "Invalid student id")
	}

	semester := c.QueryInt("semester")
	if semester < 1 {
		var student model.User
		if err := h.db.First(&student, studentID).Error; err != nil {
			return response.NotFound(c, "Student not found")
		}
		semester = student.CurrentSemester
	}

	discount, err := h.financeService.CalculateScholarship(c.Context(), uint(studentID), semester)
	if err != nil {
		if errors.Is(err, services.ErrStudentNotFound) {
			return response.NotFound(c, "Student not found")
		}
		return response.InternalServerError(c, "Failed to calculate scholarship")
	}

	return response.Success(c, fiber.Map{
		"student_id":          studentID,
		"semester":            semester,
		"discount_percentage": discount,
	})
}
