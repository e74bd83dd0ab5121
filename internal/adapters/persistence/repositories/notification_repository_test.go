package repositories

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"chitfund-ledger/internal/adapters/persistence/models"
)

func TestCreateIfAbsent_Deduplicates(t *testing.T) {
	db := openTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	user := seedTestUser(t, db, "M001")
	other := seedTestUser(t, db, "M002")

	key := "loan-due:1:2025-08-17"
	created, err := repo.CreateIfAbsent(ctx, &models.Notification{
		OwnerID:  user.ID,
		Title:    "Loan due in 7 day(s)",
		DedupKey: &key,
	})
	if err != nil {
		t.Fatalf("CreateIfAbsent: %v", err)
	}
	if !created {
		t.Fatalf("first insert should create a row")
	}

	created, err = repo.CreateIfAbsent(ctx, &models.Notification{
		OwnerID:  user.ID,
		Title:    "Loan due in 7 day(s)",
		DedupKey: &key,
	})
	if err != nil {
		t.Fatalf("repeat CreateIfAbsent: %v", err)
	}
	if created {
		t.Errorf("same owner and key must not insert twice")
	}

	// The same key for a different owner is a different condition
	created, err = repo.CreateIfAbsent(ctx, &models.Notification{
		OwnerID:  other.ID,
		Title:    "Loan due in 7 day(s)",
		DedupKey: &key,
	})
	if err != nil {
		t.Fatalf("other owner CreateIfAbsent: %v", err)
	}
	if !created {
		t.Errorf("same key for another owner should insert")
	}
}

func TestCreate_AllowsDuplicateKeylessNotifications(t *testing.T) {
	db := openTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	user := seedTestUser(t, db, "M001")

	// Lifecycle notifications carry no dedup key and may repeat freely
	for i := 0; i < 2; i++ {
		if err := repo.Create(ctx, &models.Notification{
			OwnerID: user.ID,
			Title:   "Loan approved",
		}); err != nil {
			t.Fatalf("Create #%d: %v", i, err)
		}
	}

	count, err := repo.CountUnread(ctx, user.ID)
	if err != nil {
		t.Fatalf("CountUnread: %v", err)
	}
	if count != 2 {
		t.Errorf("unread count = %d, want 2", count)
	}
}

func TestMarkRead_ScopedToOwner(t *testing.T) {
	db := openTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	owner := seedTestUser(t, db, "M001")
	stranger := seedTestUser(t, db, "M002")

	n := &models.Notification{OwnerID: owner.ID, Title: "Contribution approved"}
	if err := repo.Create(ctx, n); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Someone else's ID cannot mark it read
	if err := repo.MarkRead(ctx, stranger.ID, n.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("cross-owner MarkRead err = %v, want ErrRecordNotFound", err)
	}

	if err := repo.MarkRead(ctx, owner.ID, n.ID); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	count, err := repo.CountUnread(ctx, owner.ID)
	if err != nil {
		t.Fatalf("CountUnread: %v", err)
	}
	if count != 0 {
		t.Errorf("unread count = %d, want 0", count)
	}
}
