package services

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"chitfund-ledger/internal/adapters/persistence/models"
	"chitfund-ledger/internal/adapters/persistence/repositories"
	"chitfund-ledger/internal/core/domain"
)

var ErrTierAmountExists = errors.New("a tier with this amount already exists")

// TierService manages the fixed loan tier table
type TierService struct {
	tierRepo repositories.TierRepository
}

// NewTierService creates a new tier service
func NewTierService(tierRepo repositories.TierRepository) *TierService {
	return &TierService{tierRepo: tierRepo}
}

// TierInput represents create/update tier input
type TierInput struct {
	Amount          string `json:"amount"`
	TenureMonths    *int   `json:"tenure_months"`
	Fine            string `json:"fine"`
	RepaymentMonths *int   `json:"repayment_months"`
	RepaymentInfo   string `json:"repayment_info"`
	IsActive        *bool  `json:"is_active"`
}

// ListTiers lists all tiers
func (s *TierService) ListTiers(ctx context.Context) ([]*models.LoanTier, error) {
	return s.tierRepo.List(ctx)
}

// GetTierByID returns one tier
func (s *TierService) GetTierByID(ctx context.Context, id uint) (*models.LoanTier, error) {
	tier, err := s.tierRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTierNotFound
		}
		return nil, err
	}
	return tier, nil
}

// CreateTier creates a tier; amounts are unique across tiers
func (s *TierService) CreateTier(ctx context.Context, input *TierInput) (*models.LoanTier, error) {
	amount, err := decimal.NewFromString(input.Amount)
	if err != nil || !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	fine := decimal.Zero
	if input.Fine != "" {
		fine, err = decimal.NewFromString(input.Fine)
		if err != nil || fine.IsNegative() {
			return nil, domain.ErrInvalidAmount
		}
	}

	if _, err := s.tierRepo.GetByAmount(ctx, amount); err == nil {
		return nil, ErrTierAmountExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	tier := &models.LoanTier{
		Amount:        amount,
		Fine:          fine,
		RepaymentInfo: input.RepaymentInfo,
		IsActive:      true,
	}
	if input.TenureMonths != nil {
		tier.TenureMonths = *input.TenureMonths
	}
	if input.RepaymentMonths != nil {
		tier.RepaymentMonths = *input.RepaymentMonths
	}
	if input.IsActive != nil {
		tier.IsActive = *input.IsActive
	}

	if err := s.tierRepo.Create(ctx, tier); err != nil {
		return nil, err
	}
	return tier, nil
}

// UpdateTier updates a tier's fields
func (s *TierService) UpdateTier(ctx context.Context, id uint, input *TierInput) (*models.LoanTier, error) {
	tier, err := s.GetTierByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Amount != "" {
		amount, err := decimal.NewFromString(input.Amount)
		if err != nil || !amount.IsPositive() {
			return nil, domain.ErrInvalidAmount
		}
		if !amount.Equal(tier.Amount) {
			if _, err := s.tierRepo.GetByAmount(ctx, amount); err == nil {
				return nil, ErrTierAmountExists
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
			tier.Amount = amount
		}
	}
	if input.Fine != "" {
		fine, err := decimal.NewFromString(input.Fine)
		if err != nil || fine.IsNegative() {
			return nil, domain.ErrInvalidAmount
		}
		tier.Fine = fine
	}
	if input.TenureMonths != nil {
		tier.TenureMonths = *input.TenureMonths
	}
	if input.RepaymentMonths != nil {
		tier.RepaymentMonths = *input.RepaymentMonths
	}
	if input.RepaymentInfo != "" {
		tier.RepaymentInfo = input.RepaymentInfo
	}
	if input.IsActive != nil {
		tier.IsActive = *input.IsActive
	}

	if err := s.tierRepo.Update(ctx, tier); err != nil {
		return nil, err
	}
	return tier, nil
}

// DeleteTier soft-deletes a tier. Existing loans keep their TierID.
func (s *TierService) DeleteTier(ctx context.Context, id uint) error {
	if _, err := s.GetTierByID(ctx, id); err != nil {
		return err
	}
	return s.tierRepo.Delete(ctx, id)
}
