package repositories

import (
	"context"

	"gorm.io/gorm"
)

// Repos bundles transaction-scoped repositories handed to a unit of work.
type Repos struct {
	Users         UserRepository
	Loans         LoanRepository
	Tiers         TierRepository
	Transactions  TransactionRepository
	MainAccount   MainAccountRepository
	Proofs        ProofRepository
	Notifications NotificationRepository
}

// UnitOfWork runs a function against repositories bound to one database
// transaction. Every multi-write ledger operation goes through this so a
// failure rolls back all of its effects.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(r Repos) error) error
}

// GormUoW implements UnitOfWork on a gorm DB
type GormUoW struct {
	db *gorm.DB
}

// NewGormUoW creates a new unit of work
func NewGormUoW(db *gorm.DB) *GormUoW {
	return &GormUoW{db: db}
}

// WithinTx opens a transaction and passes tx-bound repositories to fn.
// fn returning an error rolls everything back.
func (u *GormUoW) WithinTx(ctx context.Context, fn func(r Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := Repos{
			Users:         NewUserRepository(tx),
			Loans:         NewLoanRepository(tx),
			Tiers:         NewTierRepository(tx),
			Transactions:  NewTransactionRepository(tx),
			MainAccount:   NewMainAccountRepository(tx),
			Proofs:        NewProofRepository(tx),
			Notifications: NewNotificationRepository(tx),
		}
		return fn(r)
	})
}
