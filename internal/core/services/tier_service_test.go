package services

import (
	"context"
	"errors"
	"testing"

	"chitfund-ledger/internal/adapters/persistence/repositories"
	"chitfund-ledger/internal/core/domain"
)

func intPtr(n int) *int { return &n }

func TestCreateTier(t *testing.T) {
	db := openTestDB(t)
	svc := NewTierService(repositories.NewTierRepository(db))
	ctx := context.Background()

	tier, err := svc.CreateTier(ctx, &TierInput{
		Amount:          "5000",
		TenureMonths:    intPtr(0),
		Fine:            "100",
		RepaymentMonths: intPtr(6),
		RepaymentInfo:   "6 monthly installments",
	})
	if err != nil {
		t.Fatalf("CreateTier: %v", err)
	}
	if !tier.IsActive {
		t.Errorf("new tiers default to active")
	}

	// Amounts are unique across tiers
	_, err = svc.CreateTier(ctx, &TierInput{
		Amount:          "5000",
		TenureMonths:    intPtr(3),
		Fine:            "200",
		RepaymentMonths: intPtr(8),
	})
	if !errors.Is(err, ErrTierAmountExists) {
		t.Errorf("duplicate amount err = %v, want ErrTierAmountExists", err)
	}

	_, err = svc.CreateTier(ctx, &TierInput{Amount: "-10"})
	if !errors.Is(err, domain.ErrInvalidAmount) {
		t.Errorf("negative amount err = %v, want ErrInvalidAmount", err)
	}
}

func TestUpdateTier(t *testing.T) {
	db := openTestDB(t)
	svc := NewTierService(repositories.NewTierRepository(db))
	ctx := context.Background()

	a := seedTier(t, db, 5000, 0, 100, 6)
	seedTier(t, db, 10000, 6, 200, 10)

	// Moving a tier onto another tier's amount is rejected
	if _, err := svc.UpdateTier(ctx, a.ID, &TierInput{Amount: "10000"}); !errors.Is(err, ErrTierAmountExists) {
		t.Errorf("err = %v, want ErrTierAmountExists", err)
	}

	updated, err := svc.UpdateTier(ctx, a.ID, &TierInput{Fine: "150", TenureMonths: intPtr(1)})
	if err != nil {
		t.Fatalf("UpdateTier: %v", err)
	}
	if !updated.Fine.Equal(dec(t, "150")) || updated.TenureMonths != 1 {
		t.Errorf("updated tier = fine %s tenure %d", updated.Fine, updated.TenureMonths)
	}
}

func TestDeleteTier(t *testing.T) {
	db := openTestDB(t)
	svc := NewTierService(repositories.NewTierRepository(db))
	ctx := context.Background()

	tier := seedTier(t, db, 5000, 0, 100, 6)

	if err := svc.DeleteTier(ctx, tier.ID); err != nil {
		t.Fatalf("DeleteTier: %v", err)
	}
	if _, err := svc.GetTierByID(ctx, tier.ID); !errors.Is(err, domain.ErrTierNotFound) {
		t.Errorf("err after delete = %v, want ErrTierNotFound", err)
	}
}
