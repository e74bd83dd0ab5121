package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"chitfund-ledger/internal/adapters/persistence/models"
	"chitfund-ledger/internal/adapters/persistence/repositories"
	"chitfund-ledger/internal/core/domain"
)

// Loan service errors
var (
	ErrReasonRequired          = errors.New("loan reason is required")
	ErrSecondGuarantorRequired = errors.New("the top tier requires a second guarantor")
)

// LoanService handles the loan request lifecycle
type LoanService struct {
	loanRepo  repositories.LoanRepository
	tierRepo  repositories.TierRepository
	userRepo  repositories.UserRepository
	notifRepo repositories.NotificationRepository
	uow       repositories.UnitOfWork
}

// NewLoanService creates a new loan service
func NewLoanService(
	loanRepo repositories.LoanRepository,
	tierRepo repositories.TierRepository,
	userRepo repositories.UserRepository,
	notifRepo repositories.NotificationRepository,
	uow repositories.UnitOfWork,
) *LoanService {
	return &LoanService{
		loanRepo:  loanRepo,
		tierRepo:  tierRepo,
		userRepo:  userRepo,
		notifRepo: notifRepo,
		uow:       uow,
	}
}

// CreateLoanInput represents a member's loan request
type CreateLoanInput struct {
	Amount     string `json:"amount"`
	Reason     string `json:"reason"`
	Guarantor  string `json:"guarantor"`
	Guarantor2 string `json:"guarantor2"`
}

// HistoricalLoanInput represents an admin backfilling a loan from the
// paper ledger. Status may be any lifecycle state; entering at
// in-process or closed applies the disbursement side effects.
type HistoricalLoanInput struct {
	UserID     uint       `json:"user_id"`
	Amount     string     `json:"amount"`
	Reason     string     `json:"reason"`
	Guarantor  string     `json:"guarantor"`
	Guarantor2 string     `json:"guarantor2"`
	Status     string     `json:"status"`
	IssueDate  *time.Time `json:"issue_date"`
}

// UpdateLoanInput represents an admin's corrective edit. No transition
// rules apply here; it exists to fix clerical mistakes.
type UpdateLoanInput struct {
	Reason     *string    `json:"reason"`
	Guarantor  *string    `json:"guarantor"`
	Guarantor2 *string    `json:"guarantor2"`
	Status     *string    `json:"status"`
	IssueDate  *time.Time `json:"issue_date"`
	DueDate    *time.Time `json:"due_date"`
}

// ListLoansInput represents list loans input
type ListLoansInput struct {
	Status string
	Page   int
	Limit  int
}

// ListLoansOutput represents list loans output
type ListLoansOutput struct {
	Loans      []*models.LoanResponse `json:"loans"`
	Total      int64                  `json:"total"`
	Page       int                    `json:"page"`
	Limit      int                    `json:"limit"`
	TotalPages int                    `json:"total_pages"`
}

// CreateLoan creates a pending loan request for a member.
// The amount must match an active tier, the member's tenure must reach
// the tier's minimum, and guarantor rules depend on the tier:
// the tenure-0 starter tier needs none, the largest tier needs two,
// every other tier needs one. A member can hold one open loan at a time.
func (s *LoanService) CreateLoan(ctx context.Context, userID uint, input *CreateLoanInput) (*models.LoanRequest, error) {
	// 1. Validate basic input
	if strings.TrimSpace(input.Reason) == "" {
		return nil, ErrReasonRequired
	}

	amount, err := decimal.NewFromString(input.Amount)
	if err != nil || !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	// 2. Resolve requesting member
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}

	// 3. One open loan per member
	if _, err := s.loanRepo.GetOpenByUserID(ctx, userID); err == nil {
		return nil, domain.ErrOpenLoanExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 4. Amount must match an active tier
	tier, err := s.tierRepo.GetByAmount(ctx, amount)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTierNotFound
		}
		return nil, err
	}

	// 5. Tenure gate
	if user.TenureMonths(time.Now()) < tier.TenureMonths {
		return nil, domain.ErrInsufficientTenure
	}

	// 6. Guarantor rules
	if err := s.checkGuarantors(ctx, tier, input.Guarantor, input.Guarantor2); err != nil {
		return nil, err
	}

	loan := &models.LoanRequest{
		UserID:     userID,
		TierID:     tier.ID,
		Amount:     amount,
		Reason:     input.Reason,
		Guarantor:  input.Guarantor,
		Guarantor2: input.Guarantor2,
		Status:     models.LoanStatusPending,
	}

	if err := s.loanRepo.Create(ctx, loan); err != nil {
		return nil, fmt.Errorf("failed to create loan request: %w", err)
	}

	// 7. Let admins know a request is waiting
	s.notifyAdmins(ctx,
		"New loan request",
		fmt.Sprintf("%s %s requested a loan of %s", user.FirstName, user.LastName, amount.StringFixed(2)),
		fmt.Sprintf("/loans/%d", loan.ID),
	)

	return s.loanRepo.GetByID(ctx, loan.ID)
}

// ApproveLoan moves a pending loan to approved and fixes its schedule:
// the issue date is the approval date, the due date follows from the
// tier's repayment months.
func (s *LoanService) ApproveLoan(ctx context.Context, adminID, loanID uint) (*models.LoanRequest, error) {
	loan, err := s.getLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	if loan.Status != models.LoanStatusPending {
		return nil, domain.ErrInvalidLoanStatus
	}

	tier, err := s.tierRepo.GetByID(ctx, loan.TierID)
	if err != nil {
		return nil, domain.ErrTierNotFound
	}

	now := time.Now()
	issue := now
	due := issue.AddDate(0, tier.RepaymentMonths, 0)

	loan.Status = models.LoanStatusApproved
	loan.IssueDate = &issue
	loan.DueDate = &due
	loan.ProcessedBy = &adminID
	loan.ProcessedAt = &now

	if err := s.loanRepo.Update(ctx, loan); err != nil {
		return nil, fmt.Errorf("failed to approve loan: %w", err)
	}

	s.notifyMember(ctx, loan.UserID,
		"Loan approved",
		fmt.Sprintf("Your loan request of %s has been approved. Due date: %s.", loan.Amount.StringFixed(2), due.Format("2006-01-02")),
		fmt.Sprintf("/loans/%d", loan.ID),
	)

	return s.getLoan(ctx, loanID)
}

// RejectLoan terminally rejects a pending loan. A reason is mandatory.
func (s *LoanService) RejectLoan(ctx context.Context, adminID, loanID uint, reason string) (*models.LoanRequest, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, domain.ErrNotesRequired
	}

	loan, err := s.getLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	if loan.Status != models.LoanStatusPending {
		return nil, domain.ErrInvalidLoanStatus
	}

	now := time.Now()
	loan.Status = models.LoanStatusRejected
	loan.RejectionReason = reason
	loan.ProcessedBy = &adminID
	loan.ProcessedAt = &now

	if err := s.loanRepo.Update(ctx, loan); err != nil {
		return nil, fmt.Errorf("failed to reject loan: %w", err)
	}

	s.notifyMember(ctx, loan.UserID,
		"Loan rejected",
		fmt.Sprintf("Your loan request of %s was rejected: %s", loan.Amount.StringFixed(2), reason),
		fmt.Sprintf("/loans/%d", loan.ID),
	)

	return s.getLoan(ctx, loanID)
}

// DisburseLoan pays out an approved loan. In one transaction:
// the member's outstanding grows by amount plus the tier fine, a
// personal and a public withdrawal entry of the amount are recorded,
// and the main account balance drops by the amount.
func (s *LoanService) DisburseLoan(ctx context.Context, adminID, loanID uint) (*models.LoanRequest, error) {
	loan, err := s.getLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	if loan.Status != models.LoanStatusApproved {
		return nil, domain.ErrInvalidLoanStatus
	}

	tier, err := s.tierRepo.GetByID(ctx, loan.TierID)
	if err != nil {
		return nil, domain.ErrTierNotFound
	}

	now := time.Now()

	err = s.uow.WithinTx(ctx, func(r repositories.Repos) error {
		user, err := r.Users.GetByID(ctx, loan.UserID)
		if err != nil {
			return err
		}

		// 1. Outstanding grows by principal plus the fixed fine
		user.OutstandingAmount = user.OutstandingAmount.Add(loan.Amount).Add(tier.Fine)
		if err := r.Users.Update(ctx, user); err != nil {
			return err
		}

		// 2. Personal withdrawal entry
		ownerID := loan.UserID
		personal := &models.Transaction{
			Type:        models.TxTypeWithdrawal,
			Amount:      loan.Amount,
			Description: fmt.Sprintf("Loan disbursement #%d", loan.ID),
			OwnerID:     &ownerID,
			Source:      models.TxSourceLoan,
			EntryDate:   now,
		}
		if err := r.Transactions.Create(ctx, personal); err != nil {
			return err
		}

		// 3. Public withdrawal entry and main balance
		public := &models.Transaction{
			Type:        models.TxTypeWithdrawal,
			Amount:      loan.Amount,
			Description: fmt.Sprintf("Loan disbursement #%d to %s", loan.ID, user.MembNo),
			Source:      models.TxSourceLoan,
			EntryDate:   now,
		}
		if err := r.Transactions.Create(ctx, public); err != nil {
			return err
		}

		account, err := r.MainAccount.Get(ctx)
		if err != nil {
			return err
		}
		account.Balance = account.Balance.Sub(loan.Amount)
		if err := r.MainAccount.Update(ctx, account); err != nil {
			return err
		}

		// 4. Status transition
		loan.Status = models.LoanStatusInProcess
		loan.ProcessedBy = &adminID
		loan.ProcessedAt = &now
		return r.Loans.Update(ctx, loan)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to disburse loan: %w", err)
	}

	s.notifyMember(ctx, loan.UserID,
		"Loan disbursed",
		fmt.Sprintf("Your loan of %s has been disbursed.", loan.Amount.StringFixed(2)),
		fmt.Sprintf("/loans/%d", loan.ID),
	)

	return s.getLoan(ctx, loanID)
}

// CloseLoan closes a fully repaid in-process loan. Repayments arrive as
// separate manual entries, so closing itself moves no money.
func (s *LoanService) CloseLoan(ctx context.Context, adminID, loanID uint) (*models.LoanRequest, error) {
	loan, err := s.getLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	if loan.Status != models.LoanStatusInProcess {
		return nil, domain.ErrInvalidLoanStatus
	}

	now := time.Now()
	loan.Status = models.LoanStatusClosed
	loan.ProcessedBy = &adminID
	loan.ProcessedAt = &now

	if err := s.loanRepo.Update(ctx, loan); err != nil {
		return nil, fmt.Errorf("failed to close loan: %w", err)
	}

	s.notifyMember(ctx, loan.UserID,
		"Loan closed",
		fmt.Sprintf("Your loan of %s is fully settled and closed.", loan.Amount.StringFixed(2)),
		fmt.Sprintf("/loans/%d", loan.ID),
	)

	return s.getLoan(ctx, loanID)
}

// UpdateLoan applies an admin's corrective edit in any status.
func (s *LoanService) UpdateLoan(ctx context.Context, loanID uint, input *UpdateLoanInput) (*models.LoanRequest, error) {
	loan, err := s.getLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	if input.Reason != nil {
		loan.Reason = *input.Reason
	}
	if input.Guarantor != nil {
		loan.Guarantor = *input.Guarantor
	}
	if input.Guarantor2 != nil {
		loan.Guarantor2 = *input.Guarantor2
	}
	if input.Status != nil {
		if !validLoanStatus(*input.Status) {
			return nil, domain.ErrInvalidLoanStatus
		}
		loan.Status = *input.Status
	}
	if input.IssueDate != nil {
		loan.IssueDate = input.IssueDate
	}
	if input.DueDate != nil {
		loan.DueDate = input.DueDate
	}

	if err := s.loanRepo.Update(ctx, loan); err != nil {
		return nil, fmt.Errorf("failed to update loan: %w", err)
	}
	return s.getLoan(ctx, loanID)
}

// DeleteLoan removes a loan row. Financial effects already applied stay
// on the ledger; the reconcile operation reports any resulting drift.
func (s *LoanService) DeleteLoan(ctx context.Context, loanID uint) error {
	if _, err := s.getLoan(ctx, loanID); err != nil {
		return err
	}
	return s.loanRepo.Delete(ctx, loanID)
}

// CreateHistoricalLoan inserts a loan directly at a given status. When
// the status is in-process or closed the disbursement side effects run
// in the same transaction, so a migrated loan leaves the same ledger
// trace a live one would.
func (s *LoanService) CreateHistoricalLoan(ctx context.Context, adminID uint, input *HistoricalLoanInput) (*models.LoanRequest, error) {
	if !validLoanStatus(input.Status) {
		return nil, domain.ErrInvalidLoanStatus
	}

	amount, err := decimal.NewFromString(input.Amount)
	if err != nil || !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	user, err := s.userRepo.GetByID(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	tier, err := s.tierRepo.GetByAmount(ctx, amount)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTierNotFound
		}
		return nil, err
	}

	now := time.Now()
	issue := now
	if input.IssueDate != nil {
		issue = *input.IssueDate
	}
	due := issue.AddDate(0, tier.RepaymentMonths, 0)

	loan := &models.LoanRequest{
		UserID:     input.UserID,
		TierID:     tier.ID,
		Amount:     amount,
		Reason:     input.Reason,
		Guarantor:  input.Guarantor,
		Guarantor2: input.Guarantor2,
		Status:     input.Status,
	}
	if input.Status != models.LoanStatusPending {
		loan.IssueDate = &issue
		loan.DueDate = &due
		loan.ProcessedBy = &adminID
		loan.ProcessedAt = &now
	}

	disbursed := input.Status == models.LoanStatusInProcess || input.Status == models.LoanStatusClosed

	err = s.uow.WithinTx(ctx, func(r repositories.Repos) error {
		if err := r.Loans.Create(ctx, loan); err != nil {
			return err
		}
		if !disbursed {
			return nil
		}

		user.OutstandingAmount = user.OutstandingAmount.Add(amount).Add(tier.Fine)
		if err := r.Users.Update(ctx, user); err != nil {
			return err
		}

		ownerID := input.UserID
		personal := &models.Transaction{
			Type:        models.TxTypeWithdrawal,
			Amount:      amount,
			Description: fmt.Sprintf("Loan disbursement #%d", loan.ID),
			OwnerID:     &ownerID,
			Source:      models.TxSourceLoan,
			EntryDate:   issue,
		}
		if err := r.Transactions.Create(ctx, personal); err != nil {
			return err
		}

		public := &models.Transaction{
			Type:        models.TxTypeWithdrawal,
			Amount:      amount,
			Description: fmt.Sprintf("Loan disbursement #%d to %s", loan.ID, user.MembNo),
			Source:      models.TxSourceLoan,
			EntryDate:   issue,
		}
		if err := r.Transactions.Create(ctx, public); err != nil {
			return err
		}

		account, err := r.MainAccount.Get(ctx)
		if err != nil {
			return err
		}
		account.Balance = account.Balance.Sub(amount)
		return r.MainAccount.Update(ctx, account)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create historical loan: %w", err)
	}

	return s.getLoan(ctx, loan.ID)
}

// ListLoans lists loans with an optional status filter
func (s *LoanService) ListLoans(ctx context.Context, input *ListLoansInput) (*ListLoansOutput, error) {
	if input.Page < 1 {
		input.Page = 1
	}
	if input.Limit < 1 {
		input.Limit = 10
	}
	if input.Limit > 100 {
		input.Limit = 100
	}

	if input.Status != "" && !validLoanStatus(input.Status) {
		return nil, domain.ErrInvalidLoanStatus
	}

	offset := (input.Page - 1) * input.Limit

	loans, total, err := s.loanRepo.List(ctx, input.Status, offset, input.Limit)
	if err != nil {
		return nil, err
	}

	return s.buildListOutput(loans, total, input.Page, input.Limit), nil
}

// ListFinishedLoans lists closed and rejected loans
func (s *LoanService) ListFinishedLoans(ctx context.Context, page, limit int) (*ListLoansOutput, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	loans, total, err := s.loanRepo.ListFinished(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	return s.buildListOutput(loans, total, page, limit), nil
}

// GetMyLoans lists the member's own loans
func (s *LoanService) GetMyLoans(ctx context.Context, userID uint) ([]*models.LoanResponse, error) {
	loans, err := s.loanRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	responses := make([]*models.LoanResponse, len(loans))
	for i, loan := range loans {
		responses[i] = loan.ToResponse()
	}
	return responses, nil
}

// GetLoanByID returns one loan with relations loaded
func (s *LoanService) GetLoanByID(ctx context.Context, loanID uint) (*models.LoanRequest, error) {
	return s.getLoan(ctx, loanID)
}

// MonthlyRepaymentList lists loans whose due date falls in the month
func (s *LoanService) MonthlyRepaymentList(ctx context.Context, month time.Time) ([]*models.LoanResponse, error) {
	loans, err := s.loanRepo.ListDueInMonth(ctx, month)
	if err != nil {
		return nil, err
	}

	responses := make([]*models.LoanResponse, len(loans))
	for i, loan := range loans {
		responses[i] = loan.ToResponse()
	}
	return responses, nil
}

func (s *LoanService) getLoan(ctx context.Context, loanID uint) (*models.LoanRequest, error) {
	loan, err := s.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}
	return loan, nil
}

func (s *LoanService) checkGuarantors(ctx context.Context, tier *models.LoanTier, g1, g2 string) error {
	// Starter tier: open to brand new members, no guarantor needed
	if tier.TenureMonths == 0 {
		return nil
	}

	top, err := s.tierRepo.GetTopTier(ctx)
	if err != nil {
		return err
	}

	if strings.TrimSpace(g1) == "" {
		return domain.ErrGuarantorRequired
	}
	if tier.ID == top.ID && strings.TrimSpace(g2) == "" {
		return ErrSecondGuarantorRequired
	}
	return nil
}

func (s *LoanService) buildListOutput(loans []*models.LoanRequest, total int64, page, limit int) *ListLoansOutput {
	responses := make([]*models.LoanResponse, len(loans))
	for i, loan := range loans {
		responses[i] = loan.ToResponse()
	}

	totalPages := int(total) / limit
	if int(total)%limit > 0 {
		totalPages++
	}

	return &ListLoansOutput{
		Loans:      responses,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}
}

// notifyMember creates a notification, swallowing errors so a failed
// insert never fails the business operation it decorates.
func (s *LoanService) notifyMember(ctx context.Context, userID uint, title, message, link string) {
	n := &models.Notification{
		OwnerID: userID,
		Title:   title,
		Message: message,
		Link:    link,
	}
	_ = s.notifRepo.Create(ctx, n)
}

func (s *LoanService) notifyAdmins(ctx context.Context, title, message, link string) {
	admins, err := s.userRepo.ListAdmins(ctx)
	if err != nil {
		return
	}
	for _, admin := range admins {
		_ = s.notifRepo.Create(ctx, &models.Notification{
			OwnerID: admin.ID,
			Title:   title,
			Message: message,
			Link:    link,
		})
	}
}

func validLoanStatus(status string) bool {
	switch status {
	case models.LoanStatusPending, models.LoanStatusApproved, models.LoanStatusInProcess,
		models.LoanStatusRejected, models.LoanStatusClosed:
		return true
	}
	return false
}
