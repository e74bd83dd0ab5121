package handlers

import (
	"bytes"
	"fmt"
	"time"

	"chitfund-ledger/internal/core/services"
	"chitfund-ledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ExportHandler handles CSV export endpoints (Admin only)
type ExportHandler struct {
	exportService *services.ExportService
}

// NewExportHandler creates a new export handler
func NewExportHandler(exportService *services.ExportService) *ExportHandler {
	return &ExportHandler{
		exportService: exportService,
	}
}

// ExportUsers streams the member list as CSV
func (h *ExportHandler) ExportUsers(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := h.exportService.ExportUsers(c.Context(), &buf); err != nil {
		return response.InternalServerError(c, "Failed to export users")
	}
	return sendCSV(c, "members", &buf)
}

// ExportTransactions streams the full ledger as CSV
func (h *ExportHandler) ExportTransactions(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := h.exportService.ExportTransactions(c.Context(), &buf); err != nil {
		return response.InternalServerError(c, "Failed to export transactions")
	}
	return sendCSV(c, "transactions", &buf)
}

// ExportLoans streams loans as CSV, optionally filtered by status
func (h *ExportHandler) ExportLoans(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := h.exportService.ExportLoans(c.Context(), &buf, c.Query("status")); err != nil {
		return response.InternalServerError(c, "Failed to export loans")
	}
	return sendCSV(c, "loans", &buf)
}

// ExportLoanHistory streams closed and rejected loans as CSV
func (h *ExportHandler) ExportLoanHistory(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := h.exportService.ExportLoanHistory(c.Context(), &buf); err != nil {
		return response.InternalServerError(c, "Failed to export loan history")
	}
	return sendCSV(c, "loan-history", &buf)
}

func sendCSV(c *fiber.Ctx, name string, buf *bytes.Buffer) error {
	filename := fmt.Sprintf("%s-%s.csv", name, time.Now().Format("2006-01-02"))
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))
	return c.Send(buf.Bytes())
}
