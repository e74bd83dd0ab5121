package handlers

import (
	"chitfund-ledger/internal/core/services"
	"chitfund-ledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// DashboardHandler handles dashboard endpoints
type DashboardHandler struct {
	dashboardService *services.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
	}
}

// MemberDashboard handles the member home screen summary
func (h *DashboardHandler) MemberDashboard(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	dashboard, err := h.dashboardService.GetMemberDashboard(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to build dashboard")
	}

	return response.Success(c, "Dashboard retrieved successfully", dashboard)
}

// AdminDashboard handles the admin home screen summary (Admin only)
func (h *DashboardHandler) AdminDashboard(c *fiber.Ctx) error {
	dashboard, err := h.dashboardService.GetAdminDashboard(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to build dashboard")
	}

	return response.Success(c, "Dashboard retrieved successfully", dashboard)
}
