package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"chitfund-ledger/internal/adapters/persistence/models"
	"chitfund-ledger/internal/adapters/persistence/repositories"
	"chitfund-ledger/internal/core/domain"
)

// DashboardService aggregates summary views for the member and admin
// home screens.
type DashboardService struct {
	userRepo        repositories.UserRepository
	loanRepo        repositories.LoanRepository
	txRepo          repositories.TransactionRepository
	proofRepo       repositories.ProofRepository
	notifRepo       repositories.NotificationRepository
	mainAccountRepo repositories.MainAccountRepository
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(
	userRepo repositories.UserRepository,
	loanRepo repositories.LoanRepository,
	txRepo repositories.TransactionRepository,
	proofRepo repositories.ProofRepository,
	notifRepo repositories.NotificationRepository,
	mainAccountRepo repositories.MainAccountRepository,
) *DashboardService {
	return &DashboardService{
		userRepo:        userRepo,
		loanRepo:        loanRepo,
		txRepo:          txRepo,
		proofRepo:       proofRepo,
		notifRepo:       notifRepo,
		mainAccountRepo: mainAccountRepo,
	}
}

// MemberDashboard is the member home screen summary
type MemberDashboard struct {
	Outstanding        decimal.Decimal       `json:"outstanding"`
	ActiveLoan         *models.LoanResponse  `json:"active_loan"`
	LatestTransactions []*models.Transaction `json:"latest_transactions"`
	UnreadCount        int64                 `json:"unread_count"`
}

// AdminDashboard is the admin home screen summary
type AdminDashboard struct {
	MainBalance        decimal.Decimal `json:"main_balance"`
	MemberCount        int             `json:"member_count"`
	PendingLoans       int64           `json:"pending_loans"`
	PendingProofs      int64           `json:"pending_proofs"`
	MonthlyDeposits    decimal.Decimal `json:"monthly_deposits"`
	MonthlyWithdrawals decimal.Decimal `json:"monthly_withdrawals"`
}

// GetMemberDashboard builds the member summary
func (s *DashboardService) GetMemberDashboard(ctx context.Context, userID uint) (*MemberDashboard, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	dashboard := &MemberDashboard{
		Outstanding: user.OutstandingAmount,
	}

	if loan, err := s.loanRepo.GetOpenByUserID(ctx, userID); err == nil {
		dashboard.ActiveLoan = loan.ToResponse()
	}

	transactions, _, err := s.txRepo.GetByOwnerID(ctx, userID, 0, 5)
	if err != nil {
		return nil, err
	}
	dashboard.LatestTransactions = transactions

	unread, err := s.notifRepo.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}
	dashboard.UnreadCount = unread

	return dashboard, nil
}

// GetAdminDashboard builds the admin summary for the current month
func (s *DashboardService) GetAdminDashboard(ctx context.Context) (*AdminDashboard, error) {
	account, err := s.mainAccountRepo.Get(ctx)
	if err != nil {
		return nil, err
	}

	members, err := s.userRepo.ListActiveMembers(ctx)
	if err != nil {
		return nil, err
	}

	_, pendingLoans, err := s.loanRepo.List(ctx, models.LoanStatusPending, 0, 1)
	if err != nil {
		return nil, err
	}

	_, pendingProofs, err := s.proofRepo.List(ctx, models.ProofStatusPending, 0, 1)
	if err != nil {
		return nil, err
	}

	entries, err := s.txRepo.ListByMonth(ctx, time.Now())
	if err != nil {
		return nil, err
	}

	deposits, withdrawals := decimal.Zero, decimal.Zero
	for _, e := range entries {
		if e.Type == models.TxTypeDeposit {
			deposits = deposits.Add(e.Amount)
		} else {
			withdrawals = withdrawals.Add(e.Amount)
		}
	}

	return &AdminDashboard{
		MainBalance:        account.Balance,
		MemberCount:        len(members),
		PendingLoans:       pendingLoans,
		PendingProofs:      pendingProofs,
		MonthlyDeposits:    deposits,
		MonthlyWithdrawals: withdrawals,
	}, nil
}
