package handlers

import (
	"errors"
	"strconv"

	"chitfund-ledger/internal/core/domain"
	"chitfund-ledger/internal/core/services"
	"chitfund-ledger/internal/pkg/pagination"
	"chitfund-ledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// LedgerHandler handles ledger endpoints
type LedgerHandler struct {
	ledgerService *services.LedgerService
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(ledgerService *services.LedgerService) *LedgerHandler {
	return &LedgerHandler{
		ledgerService: ledgerService,
	}
}

// CreateTransaction handles recording a manual entry (Admin only)
func (h *LedgerHandler) CreateTransaction(c *fiber.Ctx) error {
	var req services.ManualTransactionInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	entry, err := h.ledgerService.CreateManualTransaction(c.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidTxType):
			return response.BadRequest(c, "Type must be deposit or withdrawal")
		case errors.Is(err, domain.ErrInvalidAmount):
			return response.BadRequest(c, "Invalid amount")
		case errors.Is(err, domain.ErrUserNotFound):
			return response.NotFound(c, "Member not found")
		default:
			return response.InternalServerError(c, "Failed to create transaction")
		}
	}

	return response.Created(c, "Transaction recorded", fiber.Map{
		"transaction": entry,
	})
}

// ReverseTransaction handles undoing a manual entry (Admin only)
func (h *LedgerHandler) ReverseTransaction(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid transaction ID")
	}

	if err := h.ledgerService.ReverseTransaction(c.Context(), uint(id)); err != nil {
		switch {
		case errors.Is(err, domain.ErrTransactionNotFound):
			return response.NotFound(c, "Transaction not found")
		case errors.Is(err, domain.ErrNotReversible):
			return response.UnprocessableEntity(c, "Only manual transactions can be reversed")
		default:
			return response.InternalServerError(c, "Failed to reverse transaction")
		}
	}

	return response.Success(c, "Transaction reversed", nil)
}

// DeleteTransaction handles removing an entry without balance changes (Admin only)
func (h *LedgerHandler) DeleteTransaction(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid transaction ID")
	}

	if err := h.ledgerService.DeleteTransaction(c.Context(), uint(id)); err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			return response.NotFound(c, "Transaction not found")
		}
		return response.InternalServerError(c, "Failed to delete transaction")
	}

	return response.Success(c, "Transaction deleted", nil)
}

// BackfillRequest represents the backfill request body
type BackfillRequest struct {
	UserID    uint   `json:"user_id"`
	FromMonth string `json:"from_month"`
	ToMonth   string `json:"to_month"`
}

// BackfillContributions handles bulk contribution backfill (Admin only)
func (h *LedgerHandler) BackfillContributions(c *fiber.Ctx) error {
	var req BackfillRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	from, err := parseMonth(req.FromMonth)
	if err != nil {
		return response.BadRequest(c, "Invalid from_month, expected YYYY-MM")
	}
	to, err := parseMonth(req.ToMonth)
	if err != nil {
		return response.BadRequest(c, "Invalid to_month, expected YYYY-MM")
	}

	input := &services.BackfillInput{
		UserID:    req.UserID,
		FromMonth: from,
		ToMonth:   to,
	}

	entries, err := h.ledgerService.BackfillContributions(c.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidDateSpan):
			return response.BadRequest(c, "from_month must not be after to_month")
		case errors.Is(err, domain.ErrUserNotFound):
			return response.NotFound(c, "Member not found")
		default:
			return response.InternalServerError(c, "Failed to backfill contributions")
		}
	}

	return response.Created(c, "Contributions backfilled", fiber.Map{
		"transactions": entries,
		"count":        len(entries),
	})
}

// ListTransactions handles listing entries (Admin only)
func (h *LedgerHandler) ListTransactions(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	input := &services.ListTransactionsInput{
		Page:  params.Page,
		Limit: params.Limit,
	}

	if owner := c.Query("owner_id"); owner != "" {
		id, err := strconv.ParseUint(owner, 10, 32)
		if err != nil {
			return response.BadRequest(c, "Invalid owner_id")
		}
		ownerID := uint(id)
		input.OwnerID = &ownerID
	}

	result, err := h.ledgerService.ListTransactions(c.Context(), input)
	if err != nil {
		return response.InternalServerError(c, "Failed to list transactions")
	}

	return response.Success(c, "Transactions retrieved successfully", result)
}

// GetMyTransactions handles listing the member's own entries
func (h *LedgerHandler) GetMyTransactions(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	params := pagination.GetParams(c)

	input := &services.ListTransactionsInput{
		OwnerID: &userID,
		Page:    params.Page,
		Limit:   params.Limit,
	}

	result, err := h.ledgerService.ListTransactions(c.Context(), input)
	if err != nil {
		return response.InternalServerError(c, "Failed to list transactions")
	}

	return response.Success(c, "Transactions retrieved successfully", result)
}

// GetMainBalance handles reading the shared pool balance
func (h *LedgerHandler) GetMainBalance(c *fiber.Ctx) error {
	account, err := h.ledgerService.GetMainBalance(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to get main balance")
	}

	return response.Success(c, "Main balance retrieved successfully", fiber.Map{
		"balance":    account.Balance,
		"updated_at": account.UpdatedAt,
	})
}

// Reconcile handles the drift report; ?repair=true overwrites stored
// balances with the derived ones (Admin only)
func (h *LedgerHandler) Reconcile(c *fiber.Ctx) error {
	repair := c.Query("repair") == "true"

	report, err := h.ledgerService.Reconcile(c.Context(), repair)
	if err != nil {
		return response.InternalServerError(c, "Failed to reconcile balances")
	}

	return response.Success(c, "Reconciliation complete", report)
}
