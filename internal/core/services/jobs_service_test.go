package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"chitfund-ledger/internal/adapters/persistence/models"
	"chitfund-ledger/internal/adapters/persistence/repositories"
	"chitfund-ledger/internal/core/domain"
)

func newTestJobsService(db *gorm.DB) *JobsService {
	return NewJobsService(
		repositories.NewUserRepository(db),
		repositories.NewLoanRepository(db),
		repositories.NewProofRepository(db),
		repositories.NewTransactionRepository(db),
		repositories.NewNotificationRepository(db),
		repositories.NewGormUoW(db),
		testFund(),
	)
}

func seedInProcessLoan(t *testing.T, db *gorm.DB, userID, tierID uint, due time.Time) *models.LoanRequest {
	t.Helper()

	issue := due.AddDate(0, -6, 0)
	loan := &models.LoanRequest{
		UserID:    userID,
		TierID:    tierID,
		Amount:    decimal.NewFromInt(5000),
		Reason:    "seeded",
		Status:    models.LoanStatusInProcess,
		IssueDate: &issue,
		DueDate:   &due,
	}
	if err := db.Create(loan).Error; err != nil {
		t.Fatalf("seed loan: %v", err)
	}
	return loan
}

func countNotifications(t *testing.T, db *gorm.DB) int64 {
	t.Helper()

	var count int64
	if err := db.Model(&models.Notification{}).Count(&count).Error; err != nil {
		t.Fatalf("count notifications: %v", err)
	}
	return count
}

func TestRunMonthlyDues(t *testing.T) {
	db := openTestDB(t)
	svc := newTestJobsService(db)
	ctx := context.Background()

	m1 := seedMember(t, db, "M001", 3)
	m2 := seedMember(t, db, "M002", 3)
	m2.OutstandingAmount = dec(t, "1000")
	if err := db.Save(m2).Error; err != nil {
		t.Fatalf("set outstanding: %v", err)
	}
	admin := seedAdmin(t, db, "A001")

	inactive := seedMember(t, db, "M003", 3)
	inactive.IsActive = false
	if err := db.Save(inactive).Error; err != nil {
		t.Fatalf("deactivate member: %v", err)
	}

	result, err := svc.RunMonthlyDues(ctx)
	if err != nil {
		t.Fatalf("RunMonthlyDues: %v", err)
	}
	if result.MembersCharged != 2 {
		t.Errorf("MembersCharged = %d, want 2", result.MembersCharged)
	}

	if got := reloadUser(t, db, m1.ID).OutstandingAmount; !got.Equal(dec(t, "50")) {
		t.Errorf("m1 outstanding = %s, want 50", got)
	}
	if got := reloadUser(t, db, m2.ID).OutstandingAmount; !got.Equal(dec(t, "1050")) {
		t.Errorf("m2 outstanding = %s, want 1050", got)
	}
	// Admins and inactive members are not charged
	if got := reloadUser(t, db, admin.ID).OutstandingAmount; !got.IsZero() {
		t.Errorf("admin outstanding = %s, want 0", got)
	}
	if got := reloadUser(t, db, inactive.ID).OutstandingAmount; !got.IsZero() {
		t.Errorf("inactive outstanding = %s, want 0", got)
	}

	// Dues write no ledger entries; reconcile is where the drift shows
	if n := countTransactions(t, db); n != 0 {
		t.Errorf("transaction count = %d, want 0", n)
	}
}

func TestRunDailyNotifications_DueRemindersAtMostOnce(t *testing.T) {
	db := openTestDB(t)
	svc := newTestJobsService(db)
	ctx := context.Background()

	tier := seedTier(t, db, 5000, 0, 100, 6)
	member := seedMember(t, db, "M001", 12)
	seedAdmin(t, db, "A001")

	now := time.Date(2025, 8, 10, 9, 0, 0, 0, time.UTC)
	seedInProcessLoan(t, db, member.ID, tier.ID, now.AddDate(0, 0, 7))

	result, err := svc.RunDailyNotifications(ctx, now)
	if err != nil {
		t.Fatalf("RunDailyNotifications: %v", err)
	}
	if result.DueReminders != 1 {
		t.Errorf("DueReminders = %d, want 1", result.DueReminders)
	}

	// Borrower plus one admin
	after := countNotifications(t, db)
	if after != 2 {
		t.Errorf("notification count = %d, want 2", after)
	}

	// Re-running the job on the same day inserts nothing
	result, err = svc.RunDailyNotifications(ctx, now)
	if err != nil {
		t.Fatalf("second RunDailyNotifications: %v", err)
	}
	if result.DueReminders != 0 {
		t.Errorf("second run DueReminders = %d, want 0", result.DueReminders)
	}
	if got := countNotifications(t, db); got != after {
		t.Errorf("notification count after re-run = %d, want %d", got, after)
	}
}

func TestRunDailyNotifications_ContributionReminderOnFirst(t *testing.T) {
	db := openTestDB(t)
	svc := newTestJobsService(db)
	ctx := context.Background()

	seedMember(t, db, "M001", 3)
	seedMember(t, db, "M002", 3)

	first := time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)
	result, err := svc.RunDailyNotifications(ctx, first)
	if err != nil {
		t.Fatalf("RunDailyNotifications: %v", err)
	}
	if result.ContributionReminders != 2 {
		t.Errorf("ContributionReminders = %d, want 2", result.ContributionReminders)
	}

	// Mid-month days stay quiet
	db2 := openTestDB(t)
	svc2 := newTestJobsService(db2)
	seedMember(t, db2, "M001", 3)

	mid := time.Date(2025, 8, 15, 9, 0, 0, 0, time.UTC)
	result, err = svc2.RunDailyNotifications(ctx, mid)
	if err != nil {
		t.Fatalf("mid-month RunDailyNotifications: %v", err)
	}
	if result.ContributionReminders != 0 {
		t.Errorf("mid-month ContributionReminders = %d, want 0", result.ContributionReminders)
	}
}

func TestRunDailyNotifications_MissedSummaryOnFourth(t *testing.T) {
	db := openTestDB(t)
	svc := newTestJobsService(db)
	ctx := context.Background()

	payer := seedMember(t, db, "M001", 12)
	seedMember(t, db, "M002", 12)
	seedAdmin(t, db, "A001")

	// July contribution for the payer only
	july := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	entry := &models.Transaction{
		Type:      models.TxTypeDeposit,
		Amount:    dec(t, "500"),
		OwnerID:   &payer.ID,
		Source:    models.TxSourceContribution,
		EntryDate: july,
	}
	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("seed contribution: %v", err)
	}

	fourth := time.Date(2025, 8, 4, 9, 0, 0, 0, time.UTC)
	result, err := svc.RunDailyNotifications(ctx, fourth)
	if err != nil {
		t.Fatalf("RunDailyNotifications: %v", err)
	}
	if result.MissedSummaries != 1 {
		t.Errorf("MissedSummaries = %d, want 1", result.MissedSummaries)
	}

	// Same day re-run stays silent
	result, err = svc.RunDailyNotifications(ctx, fourth)
	if err != nil {
		t.Fatalf("second RunDailyNotifications: %v", err)
	}
	if result.MissedSummaries != 0 {
		t.Errorf("second run MissedSummaries = %d, want 0", result.MissedSummaries)
	}
}

func TestRunLateFees_NotImplemented(t *testing.T) {
	db := openTestDB(t)
	svc := newTestJobsService(db)

	if err := svc.RunLateFees(context.Background()); !errors.Is(err, domain.ErrNotImplemented) {
		t.Errorf("err = %v, want ErrNotImplemented", err)
	}
}

func TestRunDailyNotifications_SevenDayAndOneDayRemindersBothFire(t *testing.T) {
	db := openTestDB(t)
	svc := newTestJobsService(db)
	ctx := context.Background()

	tier := seedTier(t, db, 5000, 0, 100, 6)
	member := seedMember(t, db, "M001", 12)
	seedAdmin(t, db, "A001")

	due := time.Date(2025, 8, 17, 0, 0, 0, 0, time.UTC)
	seedInProcessLoan(t, db, member.ID, tier.ID, due)

	sevenDayMark := time.Date(2025, 8, 10, 9, 0, 0, 0, time.UTC)
	result, err := svc.RunDailyNotifications(ctx, sevenDayMark)
	if err != nil {
		t.Fatalf("7-day run: %v", err)
	}
	if result.DueReminders != 1 {
		t.Errorf("7-day run DueReminders = %d, want 1", result.DueReminders)
	}

	// The 1-day reminder for the same loan is its own condition
	oneDayMark := time.Date(2025, 8, 16, 9, 0, 0, 0, time.UTC)
	result, err = svc.RunDailyNotifications(ctx, oneDayMark)
	if err != nil {
		t.Fatalf("1-day run: %v", err)
	}
	if result.DueReminders != 1 {
		t.Errorf("1-day run DueReminders = %d, want 1", result.DueReminders)
	}

	// Two reminders each for the borrower and the admin
	if got := countNotifications(t, db); got != 4 {
		t.Errorf("notification count = %d, want 4", got)
	}
}

func TestRunDailyNotifications_GuarantorsAreNotified(t *testing.T) {
	db := openTestDB(t)
	svc := newTestJobsService(db)
	ctx := context.Background()

	tier := seedTier(t, db, 5000, 0, 100, 6)
	borrower := seedMember(t, db, "M001", 12)
	guarantor := seedMember(t, db, "M002", 24)
	seedAdmin(t, db, "A001")

	now := time.Date(2025, 8, 10, 9, 0, 0, 0, time.UTC)
	loan := seedInProcessLoan(t, db, borrower.ID, tier.ID, now.AddDate(0, 0, 7))
	loan.Guarantor = guarantor.MembNo
	loan.Guarantor2 = "someone outside the fund"
	if err := db.Save(loan).Error; err != nil {
		t.Fatalf("set guarantors: %v", err)
	}

	if _, err := svc.RunDailyNotifications(ctx, now); err != nil {
		t.Fatalf("RunDailyNotifications: %v", err)
	}

	var count int64
	if err := db.Model(&models.Notification{}).Where("owner_id = ?", guarantor.ID).Count(&count).Error; err != nil {
		t.Fatalf("count guarantor notifications: %v", err)
	}
	if count != 1 {
		t.Errorf("guarantor notifications = %d, want 1", count)
	}

	// Borrower, guarantor, admin; the free-text guarantor resolves to nobody
	if got := countNotifications(t, db); got != 3 {
		t.Errorf("notification count = %d, want 3", got)
	}
}
