package handlers

import (
	"errors"
	"strconv"
	"time"

	"chitfund-ledger/internal/core/domain"
	"chitfund-ledger/internal/core/services"
	"chitfund-ledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// LoanHandler handles loan lifecycle endpoints
type LoanHandler struct {
	loanService *services.LoanService
}

// NewLoanHandler creates a new loan handler
func NewLoanHandler(loanService *services.LoanService) *LoanHandler {
	return &LoanHandler{
		loanService: loanService,
	}
}

// CreateLoan handles a member's loan request
func (h *LoanHandler) CreateLoan(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req services.CreateLoanInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	loan, err := h.loanService.CreateLoan(c.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrReasonRequired):
			return response.BadRequest(c, "Loan reason is required")
		case errors.Is(err, domain.ErrInvalidAmount):
			return response.BadRequest(c, "Invalid loan amount")
		case errors.Is(err, domain.ErrTierNotFound):
			return response.BadRequest(c, "Amount does not match any loan tier")
		case errors.Is(err, domain.ErrOpenLoanExists):
			return response.Conflict(c, "You already have an open loan")
		case errors.Is(err, domain.ErrInsufficientTenure):
			return response.UnprocessableEntity(c, "Membership tenure below tier requirement")
		case errors.Is(err, domain.ErrGuarantorRequired):
			return response.BadRequest(c, "A guarantor is required for this tier")
		case errors.Is(err, services.ErrSecondGuarantorRequired):
			return response.BadRequest(c, "A second guarantor is required for the top tier")
		case errors.Is(err, domain.ErrUserInactive):
			return response.Forbidden(c, "User account is inactive")
		default:
			return response.InternalServerError(c, "Failed to create loan request")
		}
	}

	return response.Created(c, "Loan request submitted", fiber.Map{
		"loan": loan.ToResponse(),
	})
}

// GetMyLoans handles listing the member's own loans
func (h *LoanHandler) GetMyLoans(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	loans, err := h.loanService.GetMyLoans(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list loans")
	}

	return response.Success(c, "Loans retrieved successfully", fiber.Map{
		"loans": loans,
	})
}

// ListLoans handles listing loans with optional status filter (Admin only)
func (h *LoanHandler) ListLoans(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))

	input := &services.ListLoansInput{
		Status: c.Query("status"),
		Page:   page,
		Limit:  limit,
	}

	result, err := h.loanService.ListLoans(c.Context(), input)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidLoanStatus) {
			return response.BadRequest(c, "Invalid status filter")
		}
		return response.InternalServerError(c, "Failed to list loans")
	}

	return response.Success(c, "Loans retrieved successfully", result)
}

// ListFinishedLoans handles listing closed and rejected loans (Admin only)
func (h *LoanHandler) ListFinishedLoans(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))

	result, err := h.loanService.ListFinishedLoans(c.Context(), page, limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list loan history")
	}

	return response.Success(c, "Loan history retrieved successfully", result)
}

// GetLoan handles getting one loan (Admin only)
func (h *LoanHandler) GetLoan(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid loan ID")
	}

	loan, err := h.loanService.GetLoanByID(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			return response.NotFound(c, "Loan not found")
		}
		return response.InternalServerError(c, "Failed to get loan")
	}

	return response.Success(c, "Loan retrieved successfully", fiber.Map{
		"loan": loan.ToResponse(),
	})
}

// ApproveLoan handles approving a pending loan (Admin only)
func (h *LoanHandler) ApproveLoan(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid loan ID")
	}

	adminID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	loan, err := h.loanService.ApproveLoan(c.Context(), adminID, uint(id))
	if err != nil {
		return h.transitionError(c, err, "Loan is not pending", "Failed to approve loan")
	}

	return response.Success(c, "Loan approved", fiber.Map{
		"loan": loan.ToResponse(),
	})
}

// RejectLoanRequest represents the rejection request body
type RejectLoanRequest struct {
	Reason string `json:"reason"`
}

// RejectLoan handles rejecting a pending loan (Admin only)
func (h *LoanHandler) RejectLoan(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid loan ID")
	}

	adminID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req RejectLoanRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	loan, err := h.loanService.RejectLoan(c.Context(), adminID, uint(id), req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrLoanNotFound):
			return response.NotFound(c, "Loan not found")
		case errors.Is(err, domain.ErrNotesRequired):
			return response.BadRequest(c, "A rejection reason is required")
		case errors.Is(err, domain.ErrInvalidLoanStatus):
			return response.UnprocessableEntity(c, "Loan is not pending")
		default:
			return response.InternalServerError(c, "Failed to reject loan")
		}
	}

	return response.Success(c, "Loan rejected", fiber.Map{
		"loan": loan.ToResponse(),
	})
}

// DisburseLoan handles paying out an approved loan (Admin only)
func (h *LoanHandler) DisburseLoan(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid loan ID")
	}

	adminID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	loan, err := h.loanService.DisburseLoan(c.Context(), adminID, uint(id))
	if err != nil {
		return h.transitionError(c, err, "Loan is not approved", "Failed to disburse loan")
	}

	return response.Success(c, "Loan disbursed", fiber.Map{
		"loan": loan.ToResponse(),
	})
}

// CloseLoan handles closing an in-process loan (Admin only)
func (h *LoanHandler) CloseLoan(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid loan ID")
	}

	adminID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	loan, err := h.loanService.CloseLoan(c.Context(), adminID, uint(id))
	if err != nil {
		return h.transitionError(c, err, "Loan is not in process", "Failed to close loan")
	}

	return response.Success(c, "Loan closed", fiber.Map{
		"loan": loan.ToResponse(),
	})
}

// UpdateLoan handles an admin's corrective edit (Admin only)
func (h *LoanHandler) UpdateLoan(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid loan ID")
	}

	var req services.UpdateLoanInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	loan, err := h.loanService.UpdateLoan(c.Context(), uint(id), &req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrLoanNotFound):
			return response.NotFound(c, "Loan not found")
		case errors.Is(err, domain.ErrInvalidLoanStatus):
			return response.BadRequest(c, "Invalid loan status")
		default:
			return response.InternalServerError(c, "Failed to update loan")
		}
	}

	return response.Success(c, "Loan updated successfully", fiber.Map{
		"loan": loan.ToResponse(),
	})
}

// DeleteLoan handles removing a loan row (Admin only)
func (h *LoanHandler) DeleteLoan(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid loan ID")
	}

	if err := h.loanService.DeleteLoan(c.Context(), uint(id)); err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			return response.NotFound(c, "Loan not found")
		}
		return response.InternalServerError(c, "Failed to delete loan")
	}

	return response.Success(c, "Loan deleted successfully", nil)
}

// CreateHistoricalLoan handles backfilling a loan from the paper ledger (Admin only)
func (h *LoanHandler) CreateHistoricalLoan(c *fiber.Ctx) error {
	adminID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req services.HistoricalLoanInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	loan, err := h.loanService.CreateHistoricalLoan(c.Context(), adminID, &req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidLoanStatus):
			return response.BadRequest(c, "Invalid loan status")
		case errors.Is(err, domain.ErrInvalidAmount):
			return response.BadRequest(c, "Invalid loan amount")
		case errors.Is(err, domain.ErrUserNotFound):
			return response.NotFound(c, "User not found")
		case errors.Is(err, domain.ErrTierNotFound):
			return response.BadRequest(c, "Amount does not match any loan tier")
		default:
			return response.InternalServerError(c, "Failed to create historical loan")
		}
	}

	return response.Created(c, "Historical loan recorded", fiber.Map{
		"loan": loan.ToResponse(),
	})
}

// MonthlyRepaymentList handles listing loans due in a month (Admin only)
func (h *LoanHandler) MonthlyRepaymentList(c *fiber.Ctx) error {
	month, err := parseMonth(c.Query("month"))
	if err != nil {
		return response.BadRequest(c, "Invalid month, expected YYYY-MM")
	}

	loans, err := h.loanService.MonthlyRepaymentList(c.Context(), month)
	if err != nil {
		return response.InternalServerError(c, "Failed to build repayment list")
	}

	return response.Success(c, "Repayment list retrieved successfully", fiber.Map{
		"month": month.Format("2006-01"),
		"loans": loans,
	})
}

// transitionError maps the shared transition failures to responses
func (h *LoanHandler) transitionError(c *fiber.Ctx, err error, statusMessage, fallback string) error {
	switch {
	case errors.Is(err, domain.ErrLoanNotFound):
		return response.NotFound(c, "Loan not found")
	case errors.Is(err, domain.ErrInvalidLoanStatus):
		return response.UnprocessableEntity(c, statusMessage)
	case errors.Is(err, domain.ErrTierNotFound):
		return response.InternalServerError(c, "Loan tier missing")
	default:
		return response.InternalServerError(c, fallback)
	}
}

// parseMonth parses a YYYY-MM query value, defaulting to the current month
func parseMonth(value string) (time.Time, error) {
	if value == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse("2006-01", value)
}
