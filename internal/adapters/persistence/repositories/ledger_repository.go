package repositories

import (
	"context"
	"time"

	"chitfund-ledger/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// transactionRepository implements TransactionRepository interface
type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

// Create creates a new ledger entry
func (r *transactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

// GetByID gets a ledger entry by ID
func (r *transactionRepository) GetByID(ctx context.Context, id uint) (*models.Transaction, error) {
	var tx models.Transaction
	err := r.db.WithContext(ctx).First(&tx, id).Error
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// GetByOwnerID gets a member's ledger entries with pagination
func (r *transactionRepository) GetByOwnerID(ctx context.Context, ownerID uint, offset, limit int) ([]*models.Transaction, int64, error) {
	var txs []*models.Transaction
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Transaction{}).Where("owner_id = ?", ownerID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("entry_date DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&txs).Error

	return txs, total, err
}

// List lists all ledger entries with pagination
func (r *transactionRepository) List(ctx context.Context, offset, limit int) ([]*models.Transaction, int64, error) {
	var txs []*models.Transaction
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Transaction{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Preload("Owner").
		Order("entry_date DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&txs).Error

	return txs, total, err
}

// ListAll lists every ledger entry (reconciliation and export)
func (r *transactionRepository) ListAll(ctx context.Context) ([]*models.Transaction, error) {
	var txs []*models.Transaction
	err := r.db.WithContext(ctx).
		Preload("Owner").
		Order("entry_date ASC, id ASC").
		Find(&txs).Error
	return txs, err
}

// ListByMonth lists ledger entries dated inside the given month
func (r *transactionRepository) ListByMonth(ctx context.Context, month time.Time) ([]*models.Transaction, error) {
	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	end := start.AddDate(0, 1, 0).Add(-time.Second)
	var txs []*models.Transaction
	err := r.db.WithContext(ctx).
		Preload("Owner").
		Where("entry_date BETWEEN ? AND ?", start, end).
		Order("entry_date ASC, id ASC").
		Find(&txs).Error
	return txs, err
}

// Delete removes a ledger entry row
func (r *transactionRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Transaction{}, id).Error
}

// ExistsContributionForMonth checks for a contribution entry in the given month
func (r *transactionRepository) ExistsContributionForMonth(ctx context.Context, ownerID uint, month time.Time) (bool, error) {
	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	end := start.AddDate(0, 1, 0).Add(-time.Second)
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("owner_id = ?", ownerID).
		Where("source = ?", models.TxSourceContribution).
		Where("entry_date BETWEEN ? AND ?", start, end).
		Count(&count).Error
	return count > 0, err
}

// mainAccountRepository implements MainAccountRepository interface
type mainAccountRepository struct {
	db *gorm.DB
}

// NewMainAccountRepository creates a new main account repository
func NewMainAccountRepository(db *gorm.DB) MainAccountRepository {
	return &mainAccountRepository{db: db}
}

// Get returns the singleton shared-balance row
func (r *mainAccountRepository) Get(ctx context.Context) (*models.MainAccount, error) {
	var account models.MainAccount
	err := r.db.WithContext(ctx).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// Update saves the shared-balance row
func (r *mainAccountRepository) Update(ctx context.Context, account *models.MainAccount) error {
	return r.db.WithContext(ctx).Save(account).Error
}
