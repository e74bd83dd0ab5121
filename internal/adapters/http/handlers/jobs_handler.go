package handlers

import (
	"time"

	"chitfund-ledger/internal/core/services"
	"chitfund-ledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// JobsHandler exposes the periodic jobs as admin endpoints so a run can
// be triggered outside its cron schedule.
type JobsHandler struct {
	jobsService *services.JobsService
}

// NewJobsHandler creates a new jobs handler
func NewJobsHandler(jobsService *services.JobsService) *JobsHandler {
	return &JobsHandler{
		jobsService: jobsService,
	}
}

// RunMonthlyDues handles triggering the monthly dues job
func (h *JobsHandler) RunMonthlyDues(c *fiber.Ctx) error {
	result, err := h.jobsService.RunMonthlyDues(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to run monthly dues")
	}

	return response.Success(c, "Monthly dues applied", result)
}

// RunNotifications handles triggering the daily notification job
func (h *JobsHandler) RunNotifications(c *fiber.Ctx) error {
	result, err := h.jobsService.RunDailyNotifications(c.Context(), time.Now())
	if err != nil {
		return response.InternalServerError(c, "Failed to run notification job")
	}

	return response.Success(c, "Notification job complete", result)
}

// RunLateFees handles the late fee job placeholder
func (h *JobsHandler) RunLateFees(c *fiber.Ctx) error {
	if err := h.jobsService.RunLateFees(c.Context()); err != nil {
		return response.NotImplemented(c, "Late fee processing is not implemented yet")
	}
	return response.Success(c, "Late fees applied", nil)
}
