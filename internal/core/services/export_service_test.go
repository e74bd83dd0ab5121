package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"gorm.io/gorm"

	"chitfund-ledger/internal/adapters/persistence/models"
	"chitfund-ledger/internal/adapters/persistence/repositories"
)

func newTestExportService(db *gorm.DB) *ExportService {
	return NewExportService(
		repositories.NewUserRepository(db),
		repositories.NewLoanRepository(db),
		repositories.NewTransactionRepository(db),
	)
}

func TestExportTransactions_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	svc := newTestExportService(db)
	ctx := context.Background()

	member := seedMember(t, db, "M001", 3)

	// Descriptions with the characters that break naive CSV writers
	tricky := `repayment, cash; teller said "paid in full"`
	entries := []*models.Transaction{
		{
			Type:        models.TxTypeDeposit,
			Amount:      dec(t, "500.50"),
			Description: tricky,
			OwnerID:     &member.ID,
			Source:      models.TxSourceManual,
			EntryDate:   time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			Type:        models.TxTypeWithdrawal,
			Amount:      dec(t, "1200"),
			Description: "bank charges\nsecond line",
			Source:      models.TxSourceManual,
			EntryDate:   time.Date(2025, 5, 3, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, e := range entries {
		if err := db.Create(e).Error; err != nil {
			t.Fatalf("seed entry: %v", err)
		}
	}

	var buf bytes.Buffer
	if err := svc.ExportTransactions(ctx, &buf); err != nil {
		t.Fatalf("ExportTransactions: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse exported CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("record count = %d, want header + 2 rows", len(records))
	}
	if records[0][0] != "ID" || records[0][6] != "Description" {
		t.Errorf("unexpected header: %v", records[0])
	}

	first := records[1]
	if first[2] != models.TxTypeDeposit {
		t.Errorf("type = %q, want deposit", first[2])
	}
	if first[3] != "500.50" {
		t.Errorf("amount = %q, want 500.50", first[3])
	}
	if first[4] != member.MembNo {
		t.Errorf("account = %q, want %q", first[4], member.MembNo)
	}
	// The tricky description survives the round trip untouched
	if first[6] != tricky {
		t.Errorf("description = %q, want %q", first[6], tricky)
	}

	second := records[2]
	if second[4] != "Main Account" {
		t.Errorf("public entry account = %q, want Main Account", second[4])
	}
	if second[6] != "bank charges\nsecond line" {
		t.Errorf("multiline description = %q", second[6])
	}
}

func TestExportUsers(t *testing.T) {
	db := openTestDB(t)
	svc := newTestExportService(db)
	ctx := context.Background()

	member := seedMember(t, db, "M001", 3)
	member.OutstandingAmount = dec(t, "1234.56")
	member.LastName = `O'Brien, Jr.`
	if err := db.Save(member).Error; err != nil {
		t.Fatalf("update member: %v", err)
	}
	seedAdmin(t, db, "A001")

	var buf bytes.Buffer
	if err := svc.ExportUsers(ctx, &buf); err != nil {
		t.Fatalf("ExportUsers: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse exported CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("record count = %d, want header + 2 rows", len(records))
	}

	// Rows come out ordered by member number
	if records[1][0] != "A001" || records[2][0] != "M001" {
		t.Errorf("row order: %q then %q", records[1][0], records[2][0])
	}
	row := records[2]
	if row[4] != `O'Brien, Jr.` {
		t.Errorf("last name = %q", row[4])
	}
	if row[6] != "1234.56" {
		t.Errorf("outstanding = %q, want 1234.56", row[6])
	}
}

func TestExportLoans(t *testing.T) {
	db := openTestDB(t)
	svc := newTestExportService(db)
	ctx := context.Background()

	tier := seedTier(t, db, 5000, 0, 100, 6)
	member := seedMember(t, db, "M001", 3)

	due := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	seedInProcessLoan(t, db, member.ID, tier.ID, due)

	closedLoan := &models.LoanRequest{
		UserID: member.ID,
		TierID: tier.ID,
		Amount: dec(t, "5000"),
		Reason: "already settled",
		Status: models.LoanStatusClosed,
	}
	if err := db.Create(closedLoan).Error; err != nil {
		t.Fatalf("seed closed loan: %v", err)
	}

	var buf bytes.Buffer
	if err := svc.ExportLoans(ctx, &buf, models.LoanStatusInProcess); err != nil {
		t.Fatalf("ExportLoans: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse exported CSV: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("record count = %d, want header + 1 filtered row", len(records))
	}
	row := records[1]
	if row[1] != member.MembNo {
		t.Errorf("member no = %q, want %q", row[1], member.MembNo)
	}
	if row[4] != models.LoanStatusInProcess {
		t.Errorf("status = %q, want in-process", row[4])
	}
	if row[9] != "2025-12-01" {
		t.Errorf("due date = %q, want 2025-12-01", row[9])
	}

	// History export picks up the closed loan
	buf.Reset()
	if err := svc.ExportLoanHistory(ctx, &buf); err != nil {
		t.Fatalf("ExportLoanHistory: %v", err)
	}
	records, err = csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse history CSV: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("history record count = %d, want header + 1 row", len(records))
	}
	if records[1][4] != models.LoanStatusClosed {
		t.Errorf("history status = %q, want closed", records[1][4])
	}
}
