package config

import (
	"log"
	"time"

	"chitfund-ledger/internal/adapters/persistence/models"
	"chitfund-ledger/internal/pkg/password"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// Run executes all seeders
func (s *Seeder) Run() error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedMainAccount(); err != nil {
		return err
	}

	if err := s.seedLoanTiers(); err != nil {
		return err
	}

	if err := s.seedAdminUser(); err != nil {
		log.Printf("⚠️ Admin seeder skipped: %v", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedMainAccount ensures the singleton shared-balance row exists
func (s *Seeder) seedMainAccount() error {
	var count int64
	s.db.Model(&models.MainAccount{}).Count(&count)
	if count > 0 {
		return nil
	}

	account := &models.MainAccount{Balance: decimal.Zero}
	if err := s.db.Create(account).Error; err != nil {
		return err
	}
	log.Println("   Created main account")
	return nil
}

// seedLoanTiers seeds the fixed loan tier ladder.
// The tenure-0 tier is the "starter" tier (no guarantor needed); the largest
// amount is the top tier (two guarantors needed).
func (s *Seeder) seedLoanTiers() error {
	tiers := []models.LoanTier{
		{
			Amount:          decimal.NewFromInt(5000),
			TenureMonths:    0,
			Fine:            decimal.NewFromInt(250),
			RepaymentMonths: 2,
			RepaymentInfo:   "2 Months",
			IsActive:        true,
		},
		{
			Amount:          decimal.NewFromInt(10000),
			TenureMonths:    6,
			Fine:            decimal.NewFromInt(500),
			RepaymentMonths: 3,
			RepaymentInfo:   "3 Months",
			IsActive:        true,
		},
		{
			Amount:          decimal.NewFromInt(20000),
			TenureMonths:    12,
			Fine:            decimal.NewFromInt(1000),
			RepaymentMonths: 4,
			RepaymentInfo:   "4 Months",
			IsActive:        true,
		},
		{
			Amount:          decimal.NewFromInt(50000),
			TenureMonths:    24,
			Fine:            decimal.NewFromInt(2500),
			RepaymentMonths: 6,
			RepaymentInfo:   "6 Months",
			IsActive:        true,
		},
	}

	for _, tier := range tiers {
		var existing models.LoanTier
		if err := s.db.Where("amount = ?", tier.Amount).First(&existing).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				if err := s.db.Create(&tier).Error; err != nil {
					return err
				}
				log.Printf("   Created loan_tier: %s", tier.Amount.StringFixed(2))
			}
		}
	}
	return nil
}

// seedAdminUser seeds default admin user
// This is for development/testing only
// In production, create admin through secure process
func (s *Seeder) seedAdminUser() error {
	var count int64
	s.db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count)
	if count > 0 {
		return nil // Admin already exists
	}

	hashedPassword, err := password.Hash("admin123456")
	if err != nil {
		return err
	}

	admin := &models.User{
		MembNo:              "ADMIN001",
		Username:            "admin",
		Email:               "admin@chitfund.local",
		Password:            hashedPassword,
		FirstName:           "Fund",
		LastName:            "Admin",
		Role:                models.RoleAdmin,
		OutstandingAmount:   decimal.Zero,
		MembershipStartDate: time.Now(),
		IsActive:            true,
	}

	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	log.Println("   Created default admin user (username: admin)")
	return nil
}
