package repositories

import (
	"context"
	"time"

	"chitfund-ledger/internal/adapters/persistence/models"

	"github.com/shopspring/decimal"
)

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByMembNo(ctx context.Context, membNo string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, offset, limit int) ([]*models.User, int64, error)
	ListActiveMembers(ctx context.Context) ([]*models.User, error)
	ListAdmins(ctx context.Context) ([]*models.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByMembNo(ctx context.Context, membNo string) (bool, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	GetByUserID(ctx context.Context, userID uint) ([]*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) error
	CountActiveByUserID(ctx context.Context, userID uint) (int64, error)
}

// LoanRepository defines loan request repository interface
type LoanRepository interface {
	Create(ctx context.Context, loan *models.LoanRequest) error
	GetByID(ctx context.Context, id uint) (*models.LoanRequest, error)
	GetByUserID(ctx context.Context, userID uint) ([]*models.LoanRequest, error)
	GetOpenByUserID(ctx context.Context, userID uint) (*models.LoanRequest, error)
	List(ctx context.Context, status string, offset, limit int) ([]*models.LoanRequest, int64, error)
	ListDueBetween(ctx context.Context, from, to time.Time) ([]*models.LoanRequest, error)
	ListDueInMonth(ctx context.Context, month time.Time) ([]*models.LoanRequest, error)
	ListFinished(ctx context.Context, offset, limit int) ([]*models.LoanRequest, int64, error)
	Update(ctx context.Context, loan *models.LoanRequest) error
	Delete(ctx context.Context, id uint) error
}

// TierRepository defines loan tier repository interface
type TierRepository interface {
	Create(ctx context.Context, tier *models.LoanTier) error
	GetByID(ctx context.Context, id uint) (*models.LoanTier, error)
	GetByAmount(ctx context.Context, amount decimal.Decimal) (*models.LoanTier, error)
	GetTopTier(ctx context.Context) (*models.LoanTier, error)
	List(ctx context.Context) ([]*models.LoanTier, error)
	Update(ctx context.Context, tier *models.LoanTier) error
	Delete(ctx context.Context, id uint) error
}

// TransactionRepository defines ledger entry repository interface
type TransactionRepository interface {
	Create(ctx context.Context, tx *models.Transaction) error
	GetByID(ctx context.Context, id uint) (*models.Transaction, error)
	GetByOwnerID(ctx context.Context, ownerID uint, offset, limit int) ([]*models.Transaction, int64, error)
	List(ctx context.Context, offset, limit int) ([]*models.Transaction, int64, error)
	ListAll(ctx context.Context) ([]*models.Transaction, error)
	ListByMonth(ctx context.Context, month time.Time) ([]*models.Transaction, error)
	Delete(ctx context.Context, id uint) error
	ExistsContributionForMonth(ctx context.Context, ownerID uint, month time.Time) (bool, error)
}

// MainAccountRepository defines shared-balance repository interface
type MainAccountRepository interface {
	Get(ctx context.Context) (*models.MainAccount, error)
	Update(ctx context.Context, account *models.MainAccount) error
}

// ProofRepository defines payment proof repository interface
type ProofRepository interface {
	Create(ctx context.Context, proof *models.PaymentProof) error
	GetByID(ctx context.Context, id uint) (*models.PaymentProof, error)
	GetByOwnerID(ctx context.Context, ownerID uint) ([]*models.PaymentProof, error)
	List(ctx context.Context, status string, offset, limit int) ([]*models.PaymentProof, int64, error)
	HasApprovedForMonth(ctx context.Context, ownerID uint, month time.Time) (bool, error)
	Update(ctx context.Context, proof *models.PaymentProof) error
	Delete(ctx context.Context, id uint) error
}

// NotificationRepository defines notification repository interface
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	CreateIfAbsent(ctx context.Context, n *models.Notification) (bool, error)
	GetByOwnerID(ctx context.Context, ownerID uint, offset, limit int) ([]*models.Notification, int64, error)
	CountUnread(ctx context.Context, ownerID uint) (int64, error)
	MarkRead(ctx context.Context, ownerID, id uint) error
	MarkAllRead(ctx context.Context, ownerID uint) error
}
