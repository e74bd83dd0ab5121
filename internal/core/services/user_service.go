package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"chitfund-ledger/internal/adapters/persistence/models"
	"chitfund-ledger/internal/adapters/persistence/repositories"
	"chitfund-ledger/internal/core/domain"
	"chitfund-ledger/internal/pkg/password"
)

// User service errors
var (
	ErrEmailAlreadyExists  = errors.New("email already exists")
	ErrOldPasswordWrong    = errors.New("old password is incorrect")
	ErrCannotDeleteSelf    = errors.New("cannot delete your own account")
	ErrCannotChangeOwnRole = errors.New("cannot change your own role")
	ErrInvalidRole         = errors.New("invalid role")
	ErrEmptyBatch          = errors.New("batch contains no members")
)

// UserService handles user management business logic
type UserService struct {
	userRepo repositories.UserRepository
	uow      repositories.UnitOfWork
}

// NewUserService creates a new user service
func NewUserService(userRepo repositories.UserRepository, uow repositories.UnitOfWork) *UserService {
	return &UserService{userRepo: userRepo, uow: uow}
}

// ListUsersInput represents list users input
type ListUsersInput struct {
	Page  int
	Limit int
}

// ListUsersOutput represents list users output
type ListUsersOutput struct {
	Users      []*models.UserResponse `json:"users"`
	Total      int64                  `json:"total"`
	Page       int                    `json:"page"`
	Limit      int                    `json:"limit"`
	TotalPages int                    `json:"total_pages"`
}

// CreateUserInput represents an admin creating a member account
type CreateUserInput struct {
	MembNo              string     `json:"memb_no"`
	Username            string     `json:"username"`
	Email               string     `json:"email"`
	Password            string     `json:"password"`
	FirstName           string     `json:"first_name"`
	LastName            string     `json:"last_name"`
	Role                *string    `json:"role"`
	OutstandingAmount   *string    `json:"outstanding_amount"`
	MembershipStartDate *time.Time `json:"membership_start_date"`
}

// UpdateUserByAdminInput represents update user input (for admin)
type UpdateUserByAdminInput struct {
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Role      *string `json:"role"`
	IsActive  *bool   `json:"is_active"`
}

// UpdateProfileInput represents update profile input (for self)
type UpdateProfileInput struct {
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

// ChangePasswordInput represents change password input
type ChangePasswordInput struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ListUsers lists all users with pagination
func (s *UserService) ListUsers(ctx context.Context, input *ListUsersInput) (*ListUsersOutput, error) {
	if input.Page < 1 {
		input.Page = 1
	}
	if input.Limit < 1 {
		input.Limit = 10
	}
	if input.Limit > 100 {
		input.Limit = 100
	}

	offset := (input.Page - 1) * input.Limit

	users, total, err := s.userRepo.List(ctx, offset, input.Limit)
	if err != nil {
		return nil, err
	}

	userResponses := make([]*models.UserResponse, len(users))
	for i, user := range users {
		userResponses[i] = user.ToResponse()
	}

	totalPages := int(total) / input.Limit
	if int(total)%input.Limit > 0 {
		totalPages++
	}

	return &ListUsersOutput{
		Users:      userResponses,
		Total:      total,
		Page:       input.Page,
		Limit:      input.Limit,
		TotalPages: totalPages,
	}, nil
}

// GetUserByID gets a single user by ID
func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// CreateUser creates a member account on behalf of an admin. Unlike
// self-registration it can backfill membership start date and an
// existing outstanding balance for members migrated from the paper
// ledger.
func (s *UserService) CreateUser(ctx context.Context, input *CreateUserInput) (*models.User, error) {
	user, err := buildUser(ctx, s.userRepo, input)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// BulkCreateUsers imports a batch of member accounts, typically migrated
// from the paper ledger, as one all-or-nothing transaction.
func (s *UserService) BulkCreateUsers(ctx context.Context, inputs []*CreateUserInput) ([]*models.User, error) {
	if len(inputs) == 0 {
		return nil, ErrEmptyBatch
	}

	seenMembNo := make(map[string]bool, len(inputs))
	seenUsername := make(map[string]bool, len(inputs))
	seenEmail := make(map[string]bool, len(inputs))
	for _, input := range inputs {
		if seenMembNo[input.MembNo] || seenUsername[input.Username] {
			return nil, ErrUserAlreadyExists
		}
		if seenEmail[input.Email] {
			return nil, ErrEmailAlreadyExists
		}
		seenMembNo[input.MembNo] = true
		seenUsername[input.Username] = true
		seenEmail[input.Email] = true
	}

	users := make([]*models.User, 0, len(inputs))
	err := s.uow.WithinTx(ctx, func(r repositories.Repos) error {
		for _, input := range inputs {
			user, err := buildUser(ctx, r.Users, input)
			if err != nil {
				return fmt.Errorf("member %s: %w", input.MembNo, err)
			}
			if err := r.Users.Create(ctx, user); err != nil {
				return fmt.Errorf("member %s: %w", input.MembNo, err)
			}
			users = append(users, user)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

// buildUser validates a create input against the given repository and
// returns the unsaved user row.
func buildUser(ctx context.Context, repo repositories.UserRepository, input *CreateUserInput) (*models.User, error) {
	if !password.ValidatePassword(input.Password) {
		return nil, ErrWeakPassword
	}

	if exists, err := repo.ExistsByUsername(ctx, input.Username); err != nil {
		return nil, err
	} else if exists {
		return nil, ErrUserAlreadyExists
	}
	if exists, err := repo.ExistsByEmail(ctx, input.Email); err != nil {
		return nil, err
	} else if exists {
		return nil, ErrEmailAlreadyExists
	}
	if exists, err := repo.ExistsByMembNo(ctx, input.MembNo); err != nil {
		return nil, err
	} else if exists {
		return nil, ErrUserAlreadyExists
	}

	hashed, err := password.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := models.RoleMember
	if input.Role != nil {
		role = *input.Role
		if role != models.RoleMember && role != models.RoleAdmin {
			return nil, ErrInvalidRole
		}
	}

	outstanding := decimal.Zero
	if input.OutstandingAmount != nil {
		outstanding, err = decimal.NewFromString(*input.OutstandingAmount)
		if err != nil {
			return nil, domain.ErrInvalidAmount
		}
	}

	startDate := time.Now()
	if input.MembershipStartDate != nil {
		startDate = *input.MembershipStartDate
	}

	return &models.User{
		MembNo:              input.MembNo,
		Username:            input.Username,
		Email:               input.Email,
		Password:            hashed,
		FirstName:           input.FirstName,
		LastName:            input.LastName,
		Role:                role,
		OutstandingAmount:   outstanding,
		MembershipStartDate: startDate,
		IsActive:            true,
	}, nil
}

// UpdateUserByAdmin updates a user's account as an admin
func (s *UserService) UpdateUserByAdmin(ctx context.Context, adminID, userID uint, input *UpdateUserByAdminInput) (*models.User, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Email != nil && *input.Email != user.Email {
		if exists, err := s.userRepo.ExistsByEmail(ctx, *input.Email); err != nil {
			return nil, err
		} else if exists {
			return nil, ErrEmailAlreadyExists
		}
		user.Email = *input.Email
	}

	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}

	if input.Role != nil && *input.Role != user.Role {
		if adminID == userID {
			return nil, ErrCannotChangeOwnRole
		}
		if *input.Role != models.RoleMember && *input.Role != models.RoleAdmin {
			return nil, ErrInvalidRole
		}
		user.Role = *input.Role
	}

	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetPassword resets a user's password as an admin, no old password needed
func (s *UserService) SetPassword(ctx context.Context, userID uint, newPassword string) error {
	if !password.ValidatePassword(newPassword) {
		return ErrWeakPassword
	}

	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	hashed, err := password.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.Password = hashed
	return s.userRepo.Update(ctx, user)
}

// DeleteUser soft-deletes a user account
func (s *UserService) DeleteUser(ctx context.Context, adminID, userID uint) error {
	if adminID == userID {
		return ErrCannotDeleteSelf
	}

	if _, err := s.GetUserByID(ctx, userID); err != nil {
		return err
	}

	return s.userRepo.Delete(ctx, userID)
}

// GetProfile gets the current user's profile
func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.User, error) {
	return s.GetUserByID(ctx, userID)
}

// UpdateProfile updates the current user's own profile
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, input *UpdateProfileInput) (*models.User, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Email != nil && *input.Email != user.Email {
		if exists, err := s.userRepo.ExistsByEmail(ctx, *input.Email); err != nil {
			return nil, err
		} else if exists {
			return nil, ErrEmailAlreadyExists
		}
		user.Email = *input.Email
	}
	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword changes the current user's password after verifying the old one
func (s *UserService) ChangePassword(ctx context.Context, userID uint, input *ChangePasswordInput) error {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if !password.Verify(input.OldPassword, user.Password) {
		return ErrOldPasswordWrong
	}

	if !password.ValidatePassword(input.NewPassword) {
		return ErrWeakPassword
	}

	hashed, err := password.Hash(input.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.Password = hashed
	return s.userRepo.Update(ctx, user)
}
