package services

import (
	"context"
	"errors"
	"testing"

	"chitfund-ledger/internal/adapters/persistence/models"
	"chitfund-ledger/internal/adapters/persistence/repositories"
	"chitfund-ledger/internal/core/domain"
)

func TestNotificationService_MarkRead(t *testing.T) {
	db := openTestDB(t)
	repo := repositories.NewNotificationRepository(db)
	svc := NewNotificationService(repo)
	ctx := context.Background()

	member := seedMember(t, db, "M001", 3)

	n := &models.Notification{OwnerID: member.ID, Title: "Loan approved"}
	if err := repo.Create(ctx, n); err != nil {
		t.Fatalf("seed notification: %v", err)
	}

	if err := svc.MarkRead(ctx, member.ID, 9999); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown id err = %v, want ErrNotFound", err)
	}

	if err := svc.MarkRead(ctx, member.ID, n.ID); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	count, err := svc.UnreadCount(ctx, member.ID)
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if count != 0 {
		t.Errorf("unread = %d, want 0", count)
	}
}

func TestNotificationService_ListMine(t *testing.T) {
	db := openTestDB(t)
	repo := repositories.NewNotificationRepository(db)
	svc := NewNotificationService(repo)
	ctx := context.Background()

	member := seedMember(t, db, "M001", 3)
	other := seedMember(t, db, "M002", 3)

	for i := 0; i < 3; i++ {
		if err := repo.Create(ctx, &models.Notification{OwnerID: member.ID, Title: "mine"}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	if err := repo.Create(ctx, &models.Notification{OwnerID: other.ID, Title: "not mine"}); err != nil {
		t.Fatalf("seed other: %v", err)
	}

	out, err := svc.ListMine(ctx, member.ID, 1, 20)
	if err != nil {
		t.Fatalf("ListMine: %v", err)
	}
	if out.Total != 3 || out.Unread != 3 {
		t.Errorf("total=%d unread=%d, want 3/3", out.Total, out.Unread)
	}
	for _, n := range out.Notifications {
		if n.OwnerID != member.ID {
			t.Errorf("listing leaked another member's notification")
		}
	}

	if err := svc.MarkAllRead(ctx, member.ID); err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	count, err := svc.UnreadCount(ctx, member.ID)
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if count != 0 {
		t.Errorf("unread after MarkAllRead = %d, want 0", count)
	}
	// The other member's notification is untouched
	count, err = svc.UnreadCount(ctx, other.ID)
	if err != nil {
		t.Fatalf("UnreadCount other: %v", err)
	}
	if count != 1 {
		t.Errorf("other unread = %d, want 1", count)
	}
}
