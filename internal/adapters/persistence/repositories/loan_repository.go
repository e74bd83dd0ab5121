package repositories

import (
	"context"
	"time"

	"chitfund-ledger/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// loanRepository implements LoanRepository interface
type loanRepository struct {
	db *gorm.DB
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db *gorm.DB) LoanRepository {
	return &loanRepository{db: db}
}

// Create creates a new loan request
func (r *loanRepository) Create(ctx context.Context, loan *models.LoanRequest) error {
	return r.db.WithContext(ctx).Create(loan).Error
}

// GetByID gets a loan request by ID with relations
func (r *loanRepository) GetByID(ctx context.Context, id uint) (*models.LoanRequest, error) {
	var loan models.LoanRequest
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Tier").
		Preload("Processor").
		First(&loan, id).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// GetByUserID gets loan requests owned by a member
func (r *loanRepository) GetByUserID(ctx context.Context, userID uint) ([]*models.LoanRequest, error) {
	var loans []*models.LoanRequest
	err := r.db.WithContext(ctx).
		Preload("Tier").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&loans).Error
	return loans, err
}

// GetOpenByUserID gets the member's open loan, if any
func (r *loanRepository) GetOpenByUserID(ctx context.Context, userID uint) (*models.LoanRequest, error) {
	var loan models.LoanRequest
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("status IN ?", []string{models.LoanStatusPending, models.LoanStatusApproved, models.LoanStatusInProcess}).
		Order("created_at DESC").
		First(&loan).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// List lists loan requests with optional status filter and pagination
func (r *loanRepository) List(ctx context.Context, status string, offset, limit int) ([]*models.LoanRequest, int64, error) {
	var loans []*models.LoanRequest
	var total int64

	query := r.db.WithContext(ctx).Model(&models.LoanRequest{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("User").
		Preload("Tier").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&loans).Error

	return loans, total, err
}

// ListDueBetween lists in-process loans due inside the inclusive date range
func (r *loanRepository) ListDueBetween(ctx context.Context, from, to time.Time) ([]*models.LoanRequest, error) {
	var loans []*models.LoanRequest
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("status = ?", models.LoanStatusInProcess).
		Where("due_date BETWEEN ? AND ?", from, to).
		Find(&loans).Error
	return loans, err
}

// ListDueInMonth lists in-process loans with a due date inside the given month
func (r *loanRepository) ListDueInMonth(ctx context.Context, month time.Time) ([]*models.LoanRequest, error) {
	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	end := start.AddDate(0, 1, 0).Add(-time.Second)
	var loans []*models.LoanRequest
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Tier").
		Where("status = ?", models.LoanStatusInProcess).
		Where("due_date BETWEEN ? AND ?", start, end).
		Order("due_date ASC").
		Find(&loans).Error
	return loans, err
}

// ListFinished lists closed and rejected loans with pagination (history export)
func (r *loanRepository) ListFinished(ctx context.Context, offset, limit int) ([]*models.LoanRequest, int64, error) {
	var loans []*models.LoanRequest
	var total int64

	query := r.db.WithContext(ctx).Model(&models.LoanRequest{}).
		Where("status IN ?", []string{models.LoanStatusClosed, models.LoanStatusRejected})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("User").
		Preload("Tier").
		Order("updated_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&loans).Error

	return loans, total, err
}

// Update updates a loan request
func (r *loanRepository) Update(ctx context.Context, loan *models.LoanRequest) error {
	return r.db.WithContext(ctx).Save(loan).Error
}

// Delete removes a loan request outright
func (r *loanRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.LoanRequest{}, id).Error
}
