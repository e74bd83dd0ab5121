package handlers

import (
	"errors"
	"strconv"

	"chitfund-ledger/internal/core/domain"
	"chitfund-ledger/internal/core/services"
	"chitfund-ledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// TierHandler handles loan tier master data endpoints
type TierHandler struct {
	tierService *services.TierService
}

// NewTierHandler creates a new tier handler
func NewTierHandler(tierService *services.TierService) *TierHandler {
	return &TierHandler{
		tierService: tierService,
	}
}

// ListTiers handles listing all tiers
func (h *TierHandler) ListTiers(c *fiber.Ctx) error {
	tiers, err := h.tierService.ListTiers(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to list tiers")
	}

	return response.Success(c, "Tiers retrieved successfully", fiber.Map{
		"tiers": tiers,
	})
}

// GetTier handles getting one tier
func (h *TierHandler) GetTier(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid tier ID")
	}

	tier, err := h.tierService.GetTierByID(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, domain.ErrTierNotFound) {
			return response.NotFound(c, "Tier not found")
		}
		return response.InternalServerError(c, "Failed to get tier")
	}

	return response.Success(c, "Tier retrieved successfully", fiber.Map{
		"tier": tier,
	})
}

// CreateTier handles creating a tier (Admin only)
func (h *TierHandler) CreateTier(c *fiber.Ctx) error {
	var req services.TierInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	tier, err := h.tierService.CreateTier(c.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidAmount):
			return response.BadRequest(c, "Invalid amount")
		case errors.Is(err, services.ErrTierAmountExists):
			return response.Conflict(c, "A tier with this amount already exists")
		default:
			return response.InternalServerError(c, "Failed to create tier")
		}
	}

	return response.Created(c, "Tier created successfully", fiber.Map{
		"tier": tier,
	})
}

// UpdateTier handles updating a tier (Admin only)
func (h *TierHandler) UpdateTier(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid tier ID")
	}

	var req services.TierInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	tier, err := h.tierService.UpdateTier(c.Context(), uint(id), &req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTierNotFound):
			return response.NotFound(c, "Tier not found")
		case errors.Is(err, domain.ErrInvalidAmount):
			return response.BadRequest(c, "Invalid amount")
		case errors.Is(err, services.ErrTierAmountExists):
			return response.Conflict(c, "A tier with this amount already exists")
		default:
			return response.InternalServerError(c, "Failed to update tier")
		}
	}

	return response.Success(c, "Tier updated successfully", fiber.Map{
		"tier": tier,
	})
}

// DeleteTier handles deleting a tier (Admin only)
func (h *TierHandler) DeleteTier(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid tier ID")
	}

	if err := h.tierService.DeleteTier(c.Context(), uint(id)); err != nil {
		if errors.Is(err, domain.ErrTierNotFound) {
			return response.NotFound(c, "Tier not found")
		}
		return response.InternalServerError(c, "Failed to delete tier")
	}

	return response.Success(c, "Tier deleted successfully", nil)
}
