package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"chitfund-ledger/internal/adapters/persistence/models"
	"chitfund-ledger/internal/adapters/persistence/repositories"
	"chitfund-ledger/internal/config"
)

var testDBSeq atomic.Int64

// openTestDB creates an in-memory sqlite DB migrated with the full schema
// and a zeroed main account row. Each call gets its own named memory DB so
// tests never share state.
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

	account := &models.MainAccount{Balance: decimal.Zero}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("seed main account: %v", err)
	}

	return db
}

func testFund() config.FundConfig {
	return config.FundConfig{
		MonthlyContribution: decimal.NewFromInt(500),
		MonthlyDues:         decimal.NewFromInt(50),
	}
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return d
}

// seedMember inserts an active member whose membership started the given
// number of months ago.
func seedMember(t *testing.T, db *gorm.DB, membNo string, tenureMonths int) *models.User {
	t.Helper()

	user := &models.User{
		MembNo:              membNo,
		Username:            strings.ToLower(membNo),
		Email:               strings.ToLower(membNo) + "@chitfund.local",
		Password:            "hashed",
		FirstName:           "Member",
		LastName:            membNo,
		Role:                models.RoleMember,
		OutstandingAmount:   decimal.Zero,
		MembershipStartDate: time.Now().AddDate(0, -tenureMonths, -1),
		IsActive:            true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed member %s: %v", membNo, err)
	}
	return user
}

func seedAdmin(t *testing.T, db *gorm.DB, membNo string) *models.User {
	t.Helper()

	admin := &models.User{
		MembNo:              membNo,
		Username:            strings.ToLower(membNo),
		Email:               strings.ToLower(membNo) + "@chitfund.local",
		Password:            "hashed",
		FirstName:           "Admin",
		LastName:            membNo,
		Role:                models.RoleAdmin,
		OutstandingAmount:   decimal.Zero,
		MembershipStartDate: time.Now().AddDate(-5, 0, 0),
		IsActive:            true,
	}
	if err := db.Create(admin).Error; err != nil {
		t.Fatalf("seed admin %s: %v", membNo, err)
	}
	return admin
}

func seedTier(t *testing.T, db *gorm.DB, amount int64, tenureMonths int, fine int64, repaymentMonths int) *models.LoanTier {
	t.Helper()

	tier := &models.LoanTier{
		Amount:          decimal.NewFromInt(amount),
		TenureMonths:    tenureMonths,
		Fine:            decimal.NewFromInt(fine),
		RepaymentMonths: repaymentMonths,
		IsActive:        true,
	}
	if err := db.Create(tier).Error; err != nil {
		t.Fatalf("seed tier %d: %v", amount, err)
	}
	return tier
}

func mainBalance(t *testing.T, db *gorm.DB) decimal.Decimal {
	t.Helper()

	account, err := repositories.NewMainAccountRepository(db).Get(context.Background())
	if err != nil {
		t.Fatalf("get main account: %v", err)
	}
	return account.Balance
}

func setMainBalance(t *testing.T, db *gorm.DB, balance decimal.Decimal) {
	t.Helper()

	repo := repositories.NewMainAccountRepository(db)
	account, err := repo.Get(context.Background())
	if err != nil {
		t.Fatalf("get main account: %v", err)
	}
	account.Balance = balance
	if err := repo.Update(context.Background(), account); err != nil {
		t.Fatalf("set main balance: %v", err)
	}
}

func reloadUser(t *testing.T, db *gorm.DB, id uint) *models.User {
	t.Helper()

	user, err := repositories.NewUserRepository(db).GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("reload user %d: %v", id, err)
	}
	return user
}

func countTransactions(t *testing.T, db *gorm.DB) int64 {
	t.Helper()

	var count int64
	if err := db.Model(&models.Transaction{}).Count(&count).Error; err != nil {
		t.Fatalf("count transactions: %v", err)
	}
	return count
}

// memStore is an in-memory ObjectStore for contribution tests
type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte)}
}

func (m *memStore) Save(ctx context.Context, key string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return "http://test.local/" + key, nil
}

func (m *memStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

func proofImage() io.Reader {
	return bytes.NewReader([]byte("fake-image-bytes"))
}
