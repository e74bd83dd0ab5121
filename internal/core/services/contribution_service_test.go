package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"chitfund-ledger/internal/adapters/persistence/models"
	"chitfund-ledger/internal/adapters/persistence/repositories"
	"chitfund-ledger/internal/core/domain"
)

func newTestContributionService(db *gorm.DB, store *memStore) *ContributionService {
	return NewContributionService(
		repositories.NewProofRepository(db),
		repositories.NewTransactionRepository(db),
		repositories.NewUserRepository(db),
		repositories.NewNotificationRepository(db),
		repositories.NewGormUoW(db),
		store,
		testFund(),
	)
}

func TestSubmitProof(t *testing.T) {
	db := openTestDB(t)
	store := newMemStore()
	svc := newTestContributionService(db, store)
	ctx := context.Background()

	member := seedMember(t, db, "M001", 3)

	claimed := time.Date(2025, 6, 20, 14, 30, 0, 0, time.UTC)
	proof, err := svc.SubmitProof(ctx, member.ID, &SubmitProofInput{
		Month: claimed,
		File:  proofImage(),
	})
	if err != nil {
		t.Fatalf("SubmitProof: %v", err)
	}

	if proof.Status != models.ProofStatusPending {
		t.Errorf("status = %q, want pending", proof.Status)
	}
	// The claimed month normalizes to its first day
	want := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	if !proof.Month.Equal(want) {
		t.Errorf("month = %v, want %v", proof.Month, want)
	}
	if store.Len() != 1 {
		t.Errorf("stored objects = %d, want 1", store.Len())
	}
	if proof.FileURL == "" {
		t.Errorf("FileURL should be set")
	}
}

func TestSubmitProof_FileRequired(t *testing.T) {
	db := openTestDB(t)
	svc := newTestContributionService(db, newMemStore())

	member := seedMember(t, db, "M001", 3)

	_, err := svc.SubmitProof(context.Background(), member.ID, &SubmitProofInput{
		Month: time.Now(),
	})
	if !errors.Is(err, ErrProofFileRequired) {
		t.Errorf("err = %v, want ErrProofFileRequired", err)
	}
}

func TestApproveProof(t *testing.T) {
	db := openTestDB(t)
	store := newMemStore()
	svc := newTestContributionService(db, store)
	ctx := context.Background()

	member := seedMember(t, db, "M001", 3)
	admin := seedAdmin(t, db, "A001")

	// Member owes something so the contribution visibly pays it down
	member.OutstandingAmount = dec(t, "800")
	if err := db.Save(member).Error; err != nil {
		t.Fatalf("set outstanding: %v", err)
	}

	claimed := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	proof, err := svc.SubmitProof(ctx, member.ID, &SubmitProofInput{Month: claimed, File: proofImage()})
	if err != nil {
		t.Fatalf("SubmitProof: %v", err)
	}

	approved, err := svc.ApproveProof(ctx, admin.ID, proof.ID)
	if err != nil {
		t.Fatalf("ApproveProof: %v", err)
	}
	if approved.Status != models.ProofStatusApproved {
		t.Errorf("status = %q, want approved", approved.Status)
	}

	// One contribution deposit, dated to the claimed month
	var entries []*models.Transaction
	if err := db.Find(&entries).Error; err != nil {
		t.Fatalf("load transactions: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("transaction count = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.Type != models.TxTypeDeposit || e.Source != models.TxSourceContribution {
		t.Errorf("entry type=%q source=%q, want deposit/contribution", e.Type, e.Source)
	}
	if !e.Amount.Equal(dec(t, "500")) {
		t.Errorf("amount = %s, want 500", e.Amount)
	}
	if e.EntryDate.Month() != time.June || e.EntryDate.Day() != 1 {
		t.Errorf("entry date = %v, want first of June", e.EntryDate)
	}
	if e.OwnerID == nil || *e.OwnerID != member.ID {
		t.Errorf("owner = %v, want %d", e.OwnerID, member.ID)
	}

	// Outstanding drops by the contribution
	if got := reloadUser(t, db, member.ID).OutstandingAmount; !got.Equal(dec(t, "300")) {
		t.Errorf("outstanding = %s, want 300", got)
	}

	// Image is gone once the ledger entry exists
	if store.Len() != 0 {
		t.Errorf("stored objects = %d, want 0", store.Len())
	}
}

func TestApproveProof_OnlyPending(t *testing.T) {
	db := openTestDB(t)
	svc := newTestContributionService(db, newMemStore())
	ctx := context.Background()

	member := seedMember(t, db, "M001", 3)
	admin := seedAdmin(t, db, "A001")

	proof, err := svc.SubmitProof(ctx, member.ID, &SubmitProofInput{Month: time.Now(), File: proofImage()})
	if err != nil {
		t.Fatalf("SubmitProof: %v", err)
	}
	if _, err := svc.ApproveProof(ctx, admin.ID, proof.ID); err != nil {
		t.Fatalf("ApproveProof: %v", err)
	}

	if _, err := svc.ApproveProof(ctx, admin.ID, proof.ID); !errors.Is(err, domain.ErrProofNotPending) {
		t.Errorf("second approve err = %v, want ErrProofNotPending", err)
	}
	// A double approval must not double-count the contribution
	if n := countTransactions(t, db); n != 1 {
		t.Errorf("transaction count = %d, want 1", n)
	}
}

func TestRejectProof(t *testing.T) {
	db := openTestDB(t)
	store := newMemStore()
	svc := newTestContributionService(db, store)
	ctx := context.Background()

	member := seedMember(t, db, "M001", 3)
	admin := seedAdmin(t, db, "A001")

	proof, err := svc.SubmitProof(ctx, member.ID, &SubmitProofInput{Month: time.Now(), File: proofImage()})
	if err != nil {
		t.Fatalf("SubmitProof: %v", err)
	}

	if _, err := svc.RejectProof(ctx, admin.ID, proof.ID, "  "); !errors.Is(err, domain.ErrNotesRequired) {
		t.Errorf("blank notes err = %v, want ErrNotesRequired", err)
	}

	rejected, err := svc.RejectProof(ctx, admin.ID, proof.ID, "image is unreadable")
	if err != nil {
		t.Fatalf("RejectProof: %v", err)
	}
	if rejected.Status != models.ProofStatusRejected {
		t.Errorf("status = %q, want rejected", rejected.Status)
	}
	if rejected.Notes != "image is unreadable" {
		t.Errorf("notes = %q", rejected.Notes)
	}

	// No ledger entry, no balance change
	if n := countTransactions(t, db); n != 0 {
		t.Errorf("transaction count = %d, want 0", n)
	}
	if got := reloadUser(t, db, member.ID).OutstandingAmount; !got.IsZero() {
		t.Errorf("outstanding = %s, want 0", got)
	}
	if store.Len() != 0 {
		t.Errorf("stored objects = %d, want 0", store.Len())
	}
}

func TestMonthlyContributionList(t *testing.T) {
	db := openTestDB(t)
	svc := newTestContributionService(db, newMemStore())
	ctx := context.Background()

	paid := seedMember(t, db, "M001", 3)
	unpaid := seedMember(t, db, "M002", 3)
	admin := seedAdmin(t, db, "A001")

	month := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	proof, err := svc.SubmitProof(ctx, paid.ID, &SubmitProofInput{Month: month, File: proofImage()})
	if err != nil {
		t.Fatalf("SubmitProof: %v", err)
	}
	if _, err := svc.ApproveProof(ctx, admin.ID, proof.ID); err != nil {
		t.Fatalf("ApproveProof: %v", err)
	}

	list, err := svc.MonthlyContributionList(ctx, month)
	if err != nil {
		t.Fatalf("MonthlyContributionList: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("list length = %d, want 2 (admins excluded)", len(list))
	}

	byMembNo := make(map[string]*MemberContributionStatus)
	for _, row := range list {
		byMembNo[row.MembNo] = row
	}
	if !byMembNo[paid.MembNo].Contributed {
		t.Errorf("%s should be marked contributed", paid.MembNo)
	}
	if byMembNo[unpaid.MembNo].Contributed {
		t.Errorf("%s should not be marked contributed", unpaid.MembNo)
	}
}
