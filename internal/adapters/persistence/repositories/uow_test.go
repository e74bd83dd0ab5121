package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"chitfund-ledger/internal/adapters/persistence/models"
)

var testDBSeq atomic.Int64

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"), testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

func seedTestUser(t *testing.T, db *gorm.DB, membNo string) *models.User {
	t.Helper()

	user := &models.User{
		MembNo:              membNo,
		Username:            strings.ToLower(membNo),
		Email:               strings.ToLower(membNo) + "@chitfund.local",
		Password:            "hashed",
		Role:                models.RoleMember,
		OutstandingAmount:   decimal.Zero,
		MembershipStartDate: time.Now().AddDate(-1, 0, 0),
		IsActive:            true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func TestWithinTx_CommitsAllWrites(t *testing.T) {
	db := openTestDB(t)
	uow := NewGormUoW(db)
	ctx := context.Background()

	user := seedTestUser(t, db, "M001")

	err := uow.WithinTx(ctx, func(r Repos) error {
		user.OutstandingAmount = decimal.NewFromInt(700)
		if err := r.Users.Update(ctx, user); err != nil {
			return err
		}
		return r.Transactions.Create(ctx, &models.Transaction{
			Type:      models.TxTypeWithdrawal,
			Amount:    decimal.NewFromInt(700),
			OwnerID:   &user.ID,
			Source:    models.TxSourceManual,
			EntryDate: time.Now(),
		})
	})
	if err != nil {
		t.Fatalf("WithinTx: %v", err)
	}

	got, err := NewUserRepository(db).GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.OutstandingAmount.Equal(decimal.NewFromInt(700)) {
		t.Errorf("outstanding = %s, want 700", got.OutstandingAmount)
	}

	var count int64
	if err := db.Model(&models.Transaction{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("transaction count = %d, want 1", count)
	}
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	db := openTestDB(t)
	uow := NewGormUoW(db)
	ctx := context.Background()

	user := seedTestUser(t, db, "M001")
	boom := errors.New("boom")

	err := uow.WithinTx(ctx, func(r Repos) error {
		user.OutstandingAmount = decimal.NewFromInt(9999)
		if err := r.Users.Update(ctx, user); err != nil {
			return err
		}
		if err := r.Transactions.Create(ctx, &models.Transaction{
			Type:      models.TxTypeDeposit,
			Amount:    decimal.NewFromInt(9999),
			OwnerID:   &user.ID,
			Source:    models.TxSourceManual,
			EntryDate: time.Now(),
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	// Neither write survives
	got, err := NewUserRepository(db).GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.OutstandingAmount.IsZero() {
		t.Errorf("outstanding = %s, want 0 after rollback", got.OutstandingAmount)
	}

	var count int64
	if err := db.Model(&models.Transaction{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("transaction count = %d, want 0 after rollback", count)
	}
}
