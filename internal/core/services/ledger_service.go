package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"chitfund-ledger/internal/adapters/persistence/models"
	"chitfund-ledger/internal/adapters/persistence/repositories"
	"chitfund-ledger/internal/config"
	"chitfund-ledger/internal/core/domain"
)

// Ledger service errors
var (
	ErrInvalidTxType   = errors.New("transaction type must be deposit or withdrawal")
	ErrInvalidDateSpan = errors.New("from month must not be after to month")
)

// LedgerService handles manual ledger entries, backfills and
// reconciliation of derived balances against the transaction log.
type LedgerService struct {
	txRepo          repositories.TransactionRepository
	userRepo        repositories.UserRepository
	mainAccountRepo repositories.MainAccountRepository
	uow             repositories.UnitOfWork
	fund            config.FundConfig
}

// NewLedgerService creates a new ledger service
func NewLedgerService(
	txRepo repositories.TransactionRepository,
	userRepo repositories.UserRepository,
	mainAccountRepo repositories.MainAccountRepository,
	uow repositories.UnitOfWork,
	fund config.FundConfig,
) *LedgerService {
	return &LedgerService{
		txRepo:          txRepo,
		userRepo:        userRepo,
		mainAccountRepo: mainAccountRepo,
		uow:             uow,
		fund:            fund,
	}
}

// ManualTransactionInput represents an admin's manual ledger entry.
// OwnerID nil targets the shared main account.
type ManualTransactionInput struct {
	Type        string     `json:"type"`
	Amount      string     `json:"amount"`
	Description string     `json:"description"`
	OwnerID     *uint      `json:"owner_id"`
	EntryDate   *time.Time `json:"entry_date"`
}

// BackfillInput represents a bulk contribution backfill over an
// inclusive month range.
type BackfillInput struct {
	UserID    uint      `json:"user_id"`
	FromMonth time.Time `json:"from_month"`
	ToMonth   time.Time `json:"to_month"`
}

// ListTransactionsInput represents list transactions input
type ListTransactionsInput struct {
	OwnerID *uint
	Page    int
	Limit   int
}

// ListTransactionsOutput represents list transactions output
type ListTransactionsOutput struct {
	Transactions []*models.Transaction `json:"transactions"`
	Total        int64                 `json:"total"`
	Page         int                   `json:"page"`
	Limit        int                   `json:"limit"`
	TotalPages   int                   `json:"total_pages"`
}

// MemberDrift is one member's reconciliation result
type MemberDrift struct {
	UserID   uint            `json:"user_id"`
	MembNo   string          `json:"memb_no"`
	Stored   decimal.Decimal `json:"stored"`
	Derived  decimal.Decimal `json:"derived"`
	Drift    decimal.Decimal `json:"drift"`
	Repaired bool            `json:"repaired"`
}

// ReconcileReport summarizes drift between stored balances and the
// balances derived from the transaction log.
type ReconcileReport struct {
	Members          []*MemberDrift  `json:"members"`
	MainStored       decimal.Decimal `json:"main_stored"`
	MainDerived      decimal.Decimal `json:"main_derived"`
	MainDrift        decimal.Decimal `json:"main_drift"`
	MainRepaired     bool            `json:"main_repaired"`
	TotalWithDrift   int             `json:"total_with_drift"`
	CheckedAt        time.Time       `json:"checked_at"`
	RepairsRequested bool            `json:"repairs_requested"`
}

// CreateManualTransaction records a manual entry and applies the sign
// convention to the targeted balance in one transaction. A member
// deposit reduces outstanding; a main account deposit grows the pool.
func (s *LedgerService) CreateManualTransaction(ctx context.Context, input *ManualTransactionInput) (*models.Transaction, error) {
	if input.Type != models.TxTypeDeposit && input.Type != models.TxTypeWithdrawal {
		return nil, ErrInvalidTxType
	}

	amount, err := decimal.NewFromString(input.Amount)
	if err != nil || !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	entryDate := time.Now()
	if input.EntryDate != nil {
		entryDate = *input.EntryDate
	}

	entry := &models.Transaction{
		Type:        input.Type,
		Amount:      amount,
		Description: input.Description,
		OwnerID:     input.OwnerID,
		Source:      models.TxSourceManual,
		EntryDate:   entryDate,
	}

	err = s.uow.WithinTx(ctx, func(r repositories.Repos) error {
		if err := s.applyToBalance(ctx, r, entry, false); err != nil {
			return err
		}
		return r.Transactions.Create(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ReverseTransaction undoes a manual entry: the inverse balance
// adjustment is applied and the row deleted, atomically. Loan and
// contribution entries belong to their lifecycle operations and cannot
// be reversed here.
func (s *LedgerService) ReverseTransaction(ctx context.Context, txID uint) error {
	entry, err := s.getTransaction(ctx, txID)
	if err != nil {
		return err
	}

	if entry.Source != models.TxSourceManual {
		return domain.ErrNotReversible
	}

	return s.uow.WithinTx(ctx, func(r repositories.Repos) error {
		if err := s.applyToBalance(ctx, r, entry, true); err != nil {
			return err
		}
		return r.Transactions.Delete(ctx, entry.ID)
	})
}

// DeleteTransaction removes a row without touching balances. Reserved
// for cleaning up rows whose effects were already corrected by hand;
// reconcile reports any drift it leaves.
func (s *LedgerService) DeleteTransaction(ctx context.Context, txID uint) error {
	if _, err := s.getTransaction(ctx, txID); err != nil {
		return err
	}
	return s.txRepo.Delete(ctx, txID)
}

// BackfillContributions records one contribution deposit per month of
// an inclusive range, each dated to that month's first day, all in a
// single transaction.
func (s *LedgerService) BackfillContributions(ctx context.Context, input *BackfillInput) ([]*models.Transaction, error) {
	from := monthStart(input.FromMonth)
	to := monthStart(input.ToMonth)
	if from.After(to) {
		return nil, ErrInvalidDateSpan
	}

	user, err := s.userRepo.GetByID(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	amount := s.fund.MonthlyContribution
	var entries []*models.Transaction

	err = s.uow.WithinTx(ctx, func(r repositories.Repos) error {
		total := decimal.Zero
		for m := from; !m.After(to); m = m.AddDate(0, 1, 0) {
			ownerID := input.UserID
			entry := &models.Transaction{
				Type:        models.TxTypeDeposit,
				Amount:      amount,
				Description: fmt.Sprintf("Monthly contribution %s (backfill)", m.Format("2006-01")),
				OwnerID:     &ownerID,
				Source:      models.TxSourceContribution,
				EntryDate:   m,
			}
			if err := r.Transactions.Create(ctx, entry); err != nil {
				return err
			}
			entries = append(entries, entry)
			total = total.Add(amount)
		}

		user.OutstandingAmount = user.OutstandingAmount.Sub(total)
		return r.Users.Update(ctx, user)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to backfill contributions: %w", err)
	}

	return entries, nil
}

// ListTransactions lists entries, optionally scoped to one owner
func (s *LedgerService) ListTransactions(ctx context.Context, input *ListTransactionsInput) (*ListTransactionsOutput, error) {
	if input.Page < 1 {
		input.Page = 1
	}
	if input.Limit < 1 {
		input.Limit = 10
	}
	if input.Limit > 100 {
		input.Limit = 100
	}

	offset := (input.Page - 1) * input.Limit

	var (
		entries []*models.Transaction
		total   int64
		err     error
	)
	if input.OwnerID != nil {
		entries, total, err = s.txRepo.GetByOwnerID(ctx, *input.OwnerID, offset, input.Limit)
	} else {
		entries, total, err = s.txRepo.List(ctx, offset, input.Limit)
	}
	if err != nil {
		return nil, err
	}

	totalPages := int(total) / input.Limit
	if int(total)%input.Limit > 0 {
		totalPages++
	}

	return &ListTransactionsOutput{
		Transactions: entries,
		Total:        total,
		Page:         input.Page,
		Limit:        input.Limit,
		TotalPages:   totalPages,
	}, nil
}

// GetTransactionByID returns one entry
func (s *LedgerService) GetTransactionByID(ctx context.Context, txID uint) (*models.Transaction, error) {
	return s.getTransaction(ctx, txID)
}

// GetMainBalance returns the shared pool balance
func (s *LedgerService) GetMainBalance(ctx context.Context) (*models.MainAccount, error) {
	return s.mainAccountRepo.Get(ctx)
}

// ListByMonth lists all entries dated in the month
func (s *LedgerService) ListByMonth(ctx context.Context, month time.Time) ([]*models.Transaction, error) {
	return s.txRepo.ListByMonth(ctx, month)
}

// Reconcile recomputes every balance from the transaction log and
// reports drift against the stored values. With repair=true the stored
// values are overwritten by the derived ones, atomically.
//
// Member derived balance: sum of withdrawals minus deposits (what the
// member still owes). Main derived balance: deposits minus withdrawals
// over public entries. Operations that move balances without writing
// entries, such as monthly dues, show up here as expected drift.
func (s *LedgerService) Reconcile(ctx context.Context, repair bool) (*ReconcileReport, error) {
	report := &ReconcileReport{
		CheckedAt:        time.Now(),
		RepairsRequested: repair,
	}

	err := s.uow.WithinTx(ctx, func(r repositories.Repos) error {
		entries, err := r.Transactions.ListAll(ctx)
		if err != nil {
			return err
		}

		memberDerived := make(map[uint]decimal.Decimal)
		mainDerived := decimal.Zero
		for _, e := range entries {
			if e.IsPublic() {
				mainDerived = mainDerived.Add(e.SignedAmount())
				continue
			}
			// outstanding moves opposite to the entry's sign: a
			// deposit pays debt down, a withdrawal adds to it
			memberDerived[*e.OwnerID] = memberDerived[*e.OwnerID].Sub(e.SignedAmount())
		}

		members, err := r.Users.ListActiveMembers(ctx)
		if err != nil {
			return err
		}

		for _, member := range members {
			derived := memberDerived[member.ID]
			drift := member.OutstandingAmount.Sub(derived)
			if drift.IsZero() {
				continue
			}

			row := &MemberDrift{
				UserID:  member.ID,
				MembNo:  member.MembNo,
				Stored:  member.OutstandingAmount,
				Derived: derived,
				Drift:   drift,
			}
			if repair {
				member.OutstandingAmount = derived
				if err := r.Users.Update(ctx, member); err != nil {
					return err
				}
				row.Repaired = true
			}
			report.Members = append(report.Members, row)
		}

		account, err := r.MainAccount.Get(ctx)
		if err != nil {
			return err
		}
		report.MainStored = account.Balance
		report.MainDerived = mainDerived
		report.MainDrift = account.Balance.Sub(mainDerived)
		if repair && !report.MainDrift.IsZero() {
			account.Balance = mainDerived
			if err := r.MainAccount.Update(ctx, account); err != nil {
				return err
			}
			report.MainRepaired = true
		}

		report.TotalWithDrift = len(report.Members)
		if !report.MainDrift.IsZero() {
			report.TotalWithDrift++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile: %w", err)
	}

	return report, nil
}

// applyToBalance moves the balance the entry targets. reverse applies
// the opposite adjustment (used when undoing an entry).
func (s *LedgerService) applyToBalance(ctx context.Context, r repositories.Repos, entry *models.Transaction, reverse bool) error {
	signed := entry.SignedAmount()
	if reverse {
		signed = signed.Neg()
	}

	if entry.IsPublic() {
		account, err := r.MainAccount.Get(ctx)
		if err != nil {
			return err
		}
		account.Balance = account.Balance.Add(signed)
		return r.MainAccount.Update(ctx, account)
	}

	user, err := r.Users.GetByID(ctx, *entry.OwnerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}
	// deposits pay outstanding down, withdrawals add to it
	user.OutstandingAmount = user.OutstandingAmount.Sub(signed)
	return r.Users.Update(ctx, user)
}

func (s *LedgerService) getTransaction(ctx context.Context, txID uint) (*models.Transaction, error) {
	entry, err := s.txRepo.GetByID(ctx, txID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return entry, nil
}
