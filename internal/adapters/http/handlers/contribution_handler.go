package handlers

import (
	"errors"
	"strconv"

	"chitfund-ledger/internal/core/domain"
	"chitfund-ledger/internal/core/services"
	"chitfund-ledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ContributionHandler handles contribution proof endpoints
type ContributionHandler struct {
	contributionService *services.ContributionService
}

// NewContributionHandler creates a new contribution handler
func NewContributionHandler(contributionService *services.ContributionService) *ContributionHandler {
	return &ContributionHandler{
		contributionService: contributionService,
	}
}

// SubmitProof handles a member's proof upload (multipart form:
// "image" file plus "month" as YYYY-MM)
func (h *ContributionHandler) SubmitProof(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	month, err := parseMonth(c.FormValue("month"))
	if err != nil {
		return response.BadRequest(c, "Invalid month, expected YYYY-MM")
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return response.BadRequest(c, "Proof image is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return response.BadRequest(c, "Failed to read proof image")
	}
	defer file.Close()

	input := &services.SubmitProofInput{
		Month: month,
		File:  file,
	}

	proof, err := h.contributionService.SubmitProof(c.Context(), userID, input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrProofFileRequired):
			return response.BadRequest(c, "Proof image is required")
		case errors.Is(err, services.ErrInvalidMonth):
			return response.BadRequest(c, "Invalid contribution month")
		case errors.Is(err, domain.ErrUserInactive):
			return response.Forbidden(c, "User account is inactive")
		default:
			return response.InternalServerError(c, "Failed to submit proof")
		}
	}

	return response.Created(c, "Proof submitted successfully", fiber.Map{
		"proof": proof,
	})
}

// GetMyProofs handles listing the member's own proofs
func (h *ContributionHandler) GetMyProofs(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	proofs, err := h.contributionService.GetMyProofs(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list proofs")
	}

	return response.Success(c, "Proofs retrieved successfully", fiber.Map{
		"proofs": proofs,
	})
}

// ListProofs handles listing proofs with a status filter (Admin only)
func (h *ContributionHandler) ListProofs(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))

	input := &services.ListProofsInput{
		Status: c.Query("status"),
		Page:   page,
		Limit:  limit,
	}

	result, err := h.contributionService.ListProofs(c.Context(), input)
	if err != nil {
		return response.InternalServerError(c, "Failed to list proofs")
	}

	return response.Success(c, "Proofs retrieved successfully", result)
}

// ApproveProof handles approving a pending proof (Admin only)
func (h *ContributionHandler) ApproveProof(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid proof ID")
	}

	adminID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	proof, err := h.contributionService.ApproveProof(c.Context(), adminID, uint(id))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrProofNotFound):
			return response.NotFound(c, "Proof not found")
		case errors.Is(err, domain.ErrProofNotPending):
			return response.UnprocessableEntity(c, "Proof already processed")
		default:
			return response.InternalServerError(c, "Failed to approve proof")
		}
	}

	return response.Success(c, "Proof approved", fiber.Map{
		"proof": proof,
	})
}

// RejectProofRequest represents the rejection request body
type RejectProofRequest struct {
	Notes string `json:"notes"`
}

// RejectProof handles rejecting a pending proof (Admin only)
func (h *ContributionHandler) RejectProof(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid proof ID")
	}

	adminID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req RejectProofRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	proof, err := h.contributionService.RejectProof(c.Context(), adminID, uint(id), req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrProofNotFound):
			return response.NotFound(c, "Proof not found")
		case errors.Is(err, domain.ErrProofNotPending):
			return response.UnprocessableEntity(c, "Proof already processed")
		case errors.Is(err, domain.ErrNotesRequired):
			return response.BadRequest(c, "Rejection notes are required")
		default:
			return response.InternalServerError(c, "Failed to reject proof")
		}
	}

	return response.Success(c, "Proof rejected", fiber.Map{
		"proof": proof,
	})
}

// DeleteProof handles removing a proof and its image (Admin only)
func (h *ContributionHandler) DeleteProof(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid proof ID")
	}

	if err := h.contributionService.DeleteProof(c.Context(), uint(id)); err != nil {
		if errors.Is(err, domain.ErrProofNotFound) {
			return response.NotFound(c, "Proof not found")
		}
		return response.InternalServerError(c, "Failed to delete proof")
	}

	return response.Success(c, "Proof deleted successfully", nil)
}

// MonthlyContributionList handles the per-member contribution report (Admin only)
func (h *ContributionHandler) MonthlyContributionList(c *fiber.Ctx) error {
	month, err := parseMonth(c.Query("month"))
	if err != nil {
		return response.BadRequest(c, "Invalid month, expected YYYY-MM")
	}

	rows, err := h.contributionService.MonthlyContributionList(c.Context(), month)
	if err != nil {
		return response.InternalServerError(c, "Failed to build contribution list")
	}

	return response.Success(c, "Contribution list retrieved successfully", fiber.Map{
		"month":   month.Format("2006-01"),
		"members": rows,
	})
}
