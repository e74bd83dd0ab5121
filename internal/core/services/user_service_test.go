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

func newTestUserService(db *gorm.DB) *UserService {
	return NewUserService(repositories.NewUserRepository(db), repositories.NewGormUoW(db))
}

func strPtr(s string) *string { return &s }

func TestCreateUser_MigratedMemberKeepsBalance(t *testing.T) {
	db := openTestDB(t)
	svc := newTestUserService(db)
	ctx := context.Background()

	start := time.Date(2019, 4, 1, 0, 0, 0, 0, time.UTC)
	user, err := svc.CreateUser(ctx, &CreateUserInput{
		MembNo:              "M010",
		Username:            "somsak",
		Email:               "somsak@chitfund.local",
		Password:            "a-strong-password",
		FirstName:           "Somsak",
		OutstandingAmount:   strPtr("2450.75"),
		MembershipStartDate: &start,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	if !user.OutstandingAmount.Equal(dec(t, "2450.75")) {
		t.Errorf("outstanding = %s, want 2450.75", user.OutstandingAmount)
	}
	if !user.MembershipStartDate.Equal(start) {
		t.Errorf("start date = %v, want %v", user.MembershipStartDate, start)
	}
	// Long tenure carries over for loan eligibility
	if got := user.TenureMonths(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)); got != 72 {
		t.Errorf("tenure = %d months, want 72", got)
	}
}

func TestCreateUser_RoleValidation(t *testing.T) {
	db := openTestDB(t)
	svc := newTestUserService(db)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, &CreateUserInput{
		MembNo:   "M011",
		Username: "x",
		Email:    "x@chitfund.local",
		Password: "a-strong-password",
		Role:     strPtr("SUPERUSER"),
	})
	if !errors.Is(err, ErrInvalidRole) {
		t.Errorf("err = %v, want ErrInvalidRole", err)
	}

	admin, err := svc.CreateUser(ctx, &CreateUserInput{
		MembNo:   "A010",
		Username: "treasurer",
		Email:    "treasurer@chitfund.local",
		Password: "a-strong-password",
		Role:     strPtr(models.RoleAdmin),
	})
	if err != nil {
		t.Fatalf("CreateUser admin: %v", err)
	}
	if !admin.IsAdmin() {
		t.Errorf("role = %q, want ADMIN", admin.Role)
	}
}

func TestUpdateUserByAdmin_SelfGuards(t *testing.T) {
	db := openTestDB(t)
	svc := newTestUserService(db)
	ctx := context.Background()

	admin := seedAdmin(t, db, "A001")
	member := seedMember(t, db, "M001", 3)

	// An admin cannot demote themselves
	_, err := svc.UpdateUserByAdmin(ctx, admin.ID, admin.ID, &UpdateUserByAdminInput{
		Role: strPtr(models.RoleMember),
	})
	if !errors.Is(err, ErrCannotChangeOwnRole) {
		t.Errorf("self role change err = %v, want ErrCannotChangeOwnRole", err)
	}

	// Promoting someone else works
	updated, err := svc.UpdateUserByAdmin(ctx, admin.ID, member.ID, &UpdateUserByAdminInput{
		Role: strPtr(models.RoleAdmin),
	})
	if err != nil {
		t.Fatalf("UpdateUserByAdmin: %v", err)
	}
	if !updated.IsAdmin() {
		t.Errorf("role = %q, want ADMIN", updated.Role)
	}
}

func TestDeleteUser_SelfGuard(t *testing.T) {
	db := openTestDB(t)
	svc := newTestUserService(db)
	ctx := context.Background()

	admin := seedAdmin(t, db, "A001")
	member := seedMember(t, db, "M001", 3)

	if err := svc.DeleteUser(ctx, admin.ID, admin.ID); !errors.Is(err, ErrCannotDeleteSelf) {
		t.Errorf("self delete err = %v, want ErrCannotDeleteSelf", err)
	}

	if err := svc.DeleteUser(ctx, admin.ID, member.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, err := svc.GetUserByID(ctx, member.ID); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("err after delete = %v, want ErrUserNotFound", err)
	}
}

func TestChangePassword(t *testing.T) {
	db := openTestDB(t)
	userSvc := newTestUserService(db)
	authSvc := newTestAuthService(db)
	ctx := context.Background()

	resp, err := authSvc.Register(ctx, registerInput("M001"))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	userID := resp.User.ID

	err = userSvc.ChangePassword(ctx, userID, &ChangePasswordInput{
		OldPassword: "not-the-password",
		NewPassword: "a-new-strong-password",
	})
	if !errors.Is(err, ErrOldPasswordWrong) {
		t.Errorf("wrong old password err = %v, want ErrOldPasswordWrong", err)
	}

	err = userSvc.ChangePassword(ctx, userID, &ChangePasswordInput{
		OldPassword: "a-strong-password",
		NewPassword: "a-new-strong-password",
	})
	if err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}

	if _, err := authSvc.Login(ctx, LoginInput{Username: "somchai", Password: "a-strong-password"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("old password should no longer log in")
	}
	if _, err := authSvc.Login(ctx, LoginInput{Username: "somchai", Password: "a-new-strong-password"}); err != nil {
		t.Errorf("new password login: %v", err)
	}
}

func TestListUsers_ClampsPagination(t *testing.T) {
	db := openTestDB(t)
	svc := newTestUserService(db)
	ctx := context.Background()

	for _, membNo := range []string{"M001", "M002", "M003"} {
		seedMember(t, db, membNo, 3)
	}

	out, err := svc.ListUsers(ctx, &ListUsersInput{Page: 0, Limit: -5})
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if out.Page != 1 || out.Limit != 10 {
		t.Errorf("page=%d limit=%d, want defaults 1/10", out.Page, out.Limit)
	}
	if out.Total != 3 || len(out.Users) != 3 {
		t.Errorf("total=%d rows=%d, want 3/3", out.Total, len(out.Users))
	}

	out, err = svc.ListUsers(ctx, &ListUsersInput{Page: 2, Limit: 2})
	if err != nil {
		t.Fatalf("ListUsers page 2: %v", err)
	}
	if len(out.Users) != 1 {
		t.Errorf("page 2 rows = %d, want 1", len(out.Users))
	}
	if out.TotalPages != 2 {
		t.Errorf("total pages = %d, want 2", out.TotalPages)
	}
}

func TestBulkCreateUsers_AllOrNothing(t *testing.T) {
	db := openTestDB(t)
	svc := newTestUserService(db)
	ctx := context.Background()

	batch := []*CreateUserInput{
		{MembNo: "M020", Username: "kanya", Email: "kanya@chitfund.local", Password: "a-strong-password"},
		{MembNo: "M021", Username: "prasit", Email: "prasit@chitfund.local", Password: "a-strong-password", OutstandingAmount: strPtr("500.00")},
	}
	users, err := svc.BulkCreateUsers(ctx, batch)
	if err != nil {
		t.Fatalf("BulkCreateUsers: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("created %d users, want 2", len(users))
	}
	if !users[1].OutstandingAmount.Equal(dec(t, "500.00")) {
		t.Errorf("migrated outstanding = %s, want 500.00", users[1].OutstandingAmount)
	}

	// A bad row anywhere rolls back the whole batch
	_, err = svc.BulkCreateUsers(ctx, []*CreateUserInput{
		{MembNo: "M022", Username: "wirat", Email: "wirat@chitfund.local", Password: "a-strong-password"},
		{MembNo: "M020", Username: "dup", Email: "dup@chitfund.local", Password: "a-strong-password"},
	})
	if !errors.Is(err, ErrUserAlreadyExists) {
		t.Fatalf("err = %v, want ErrUserAlreadyExists", err)
	}
	var count int64
	if err := db.Model(&models.User{}).Where("memb_no = ?", "M022").Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("first row of failed batch persisted")
	}

	if _, err := svc.BulkCreateUsers(ctx, nil); !errors.Is(err, ErrEmptyBatch) {
		t.Errorf("empty batch err = %v, want ErrEmptyBatch", err)
	}
}
