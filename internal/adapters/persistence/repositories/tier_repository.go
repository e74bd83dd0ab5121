package repositories

import (
	"context"

	"chitfund-ledger/internal/adapters/persistence/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// tierRepository implements TierRepository interface
type tierRepository struct {
	db *gorm.DB
}

// NewTierRepository creates a new loan tier repository
func NewTierRepository(db *gorm.DB) TierRepository {
	return &tierRepository{db: db}
}

// Create creates a new loan tier
func (r *tierRepository) Create(ctx context.Context, tier *models.LoanTier) error {
	return r.db.WithContext(ctx).Create(tier).Error
}

// GetByID gets a loan tier by ID
func (r *tierRepository) GetByID(ctx context.Context, id uint) (*models.LoanTier, error) {
	var tier models.LoanTier
	err := r.db.WithContext(ctx).First(&tier, id).Error
	if err != nil {
		return nil, err
	}
	return &tier, nil
}

// GetByAmount gets the active tier matching the requested amount
func (r *tierRepository) GetByAmount(ctx context.Context, amount decimal.Decimal) (*models.LoanTier, error) {
	var tier models.LoanTier
	err := r.db.WithContext(ctx).
		Where("amount = ?", amount).
		Where("is_active = ?", true).
		First(&tier).Error
	if err != nil {
		return nil, err
	}
	return &tier, nil
}

// GetTopTier gets the active tier with the largest amount
func (r *tierRepository) GetTopTier(ctx context.Context) (*models.LoanTier, error) {
	var tier models.LoanTier
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("amount DESC").
		First(&tier).Error
	if err != nil {
		return nil, err
	}
	return &tier, nil
}

// List lists all active loan tiers, smallest first
func (r *tierRepository) List(ctx context.Context) ([]*models.LoanTier, error) {
	var tiers []*models.LoanTier
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("amount ASC").
		Find(&tiers).Error
	return tiers, err
}

// Update updates a loan tier
func (r *tierRepository) Update(ctx context.Context, tier *models.LoanTier) error {
	return r.db.WithContext(ctx).Save(tier).Error
}

// Delete soft deletes a loan tier
func (r *tierRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.LoanTier{}, id).Error
}
