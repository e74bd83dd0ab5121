package repositories

import (
	"context"
	"time"

	"chitfund-ledger/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// proofRepository implements ProofRepository interface
type proofRepository struct {
	db *gorm.DB
}

// NewProofRepository creates a new payment proof repository
func NewProofRepository(db *gorm.DB) ProofRepository {
	return &proofRepository{db: db}
}

// Create creates a new payment proof
func (r *proofRepository) Create(ctx context.Context, proof *models.PaymentProof) error {
	return r.db.WithContext(ctx).Create(proof).Error
}

// GetByID gets a payment proof by ID with its owner
func (r *proofRepository) GetByID(ctx context.Context, id uint) (*models.PaymentProof, error) {
	var proof models.PaymentProof
	err := r.db.WithContext(ctx).
		Preload("Owner").
		First(&proof, id).Error
	if err != nil {
		return nil, err
	}
	return &proof, nil
}

// GetByOwnerID gets a member's payment proofs
func (r *proofRepository) GetByOwnerID(ctx context.Context, ownerID uint) ([]*models.PaymentProof, error) {
	var proofs []*models.PaymentProof
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("month DESC").
		Find(&proofs).Error
	return proofs, err
}

// List lists payment proofs with optional status filter and pagination
func (r *proofRepository) List(ctx context.Context, status string, offset, limit int) ([]*models.PaymentProof, int64, error) {
	var proofs []*models.PaymentProof
	var total int64

	query := r.db.WithContext(ctx).Model(&models.PaymentProof{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Owner").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&proofs).Error

	return proofs, total, err
}

// HasApprovedForMonth checks for an approved proof in the given month
func (r *proofRepository) HasApprovedForMonth(ctx context.Context, ownerID uint, month time.Time) (bool, error) {
	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	end := start.AddDate(0, 1, 0).Add(-time.Second)
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PaymentProof{}).
		Where("owner_id = ?", ownerID).
		Where("status = ?", models.ProofStatusApproved).
		Where("month BETWEEN ? AND ?", start, end).
		Count(&count).Error
	return count > 0, err
}

// Update updates a payment proof
func (r *proofRepository) Update(ctx context.Context, proof *models.PaymentProof) error {
	return r.db.WithContext(ctx).Save(proof).Error
}

// Delete permanently removes a payment proof row
func (r *proofRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.PaymentProof{}, id).Error
}
