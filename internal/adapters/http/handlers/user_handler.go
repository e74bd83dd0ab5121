package handlers

import (
	"errors"
	"strconv"

	"chitfund-ledger/internal/core/domain"
	"chitfund-ledger/internal/core/services"
	"chitfund-ledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// UserHandler handles user management endpoints
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// ListUsers handles listing all users (Admin only)
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))

	input := &services.ListUsersInput{
		Page:  page,
		Limit: limit,
	}

	result, err := h.userService.ListUsers(c.Context(), input)
	if err != nil {
		return response.InternalServerError(c, "Failed to list users")
	}

	return response.Success(c, "Users retrieved successfully", result)
}

// GetUser handles getting a user by ID (Admin only)
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	user, err := h.userService.GetUserByID(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to get user")
	}

	return response.Success(c, "User retrieved successfully", fiber.Map{
		"user": user.ToResponse(),
	})
}

// CreateUser handles creating a member account (Admin only)
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var req services.CreateUserInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.MembNo == "" || req.Username == "" || req.Email == "" || req.Password == "" {
		return response.BadRequest(c, "Member number, username, email and password are required")
	}

	user, err := h.userService.CreateUser(c.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserAlreadyExists), errors.Is(err, services.ErrEmailAlreadyExists):
			return response.Conflict(c, "Username, email or member number already exists")
		case errors.Is(err, services.ErrWeakPassword):
			return response.BadRequest(c, "Password does not meet requirements")
		case errors.Is(err, services.ErrInvalidRole):
			return response.BadRequest(c, "Role must be MEMBER or ADMIN")
		case errors.Is(err, domain.ErrInvalidAmount):
			return response.BadRequest(c, "Invalid outstanding amount")
		default:
			return response.InternalServerError(c, "Failed to create user")
		}
	}

	return response.Created(c, "User created successfully", fiber.Map{
		"user": user.ToResponse(),
	})
}

// BulkCreateUsers handles importing a batch of member accounts (Admin only)
func (h *UserHandler) BulkCreateUsers(c *fiber.Ctx) error {
	var req struct {
		Users []*services.CreateUserInput `json:"users"`
	}
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	for _, u := range req.Users {
		if u.MembNo == "" || u.Username == "" || u.Email == "" || u.Password == "" {
			return response.BadRequest(c, "Member number, username, email and password are required for every member")
		}
	}

	users, err := h.userService.BulkCreateUsers(c.Context(), req.Users)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyBatch):
			return response.BadRequest(c, "Batch contains no members")
		case errors.Is(err, services.ErrUserAlreadyExists), errors.Is(err, services.ErrEmailAlreadyExists):
			return response.Conflict(c, "A username, email or member number in the batch already exists")
		case errors.Is(err, services.ErrWeakPassword):
			return response.BadRequest(c, "A password in the batch does not meet requirements")
		case errors.Is(err, services.ErrInvalidRole):
			return response.BadRequest(c, "Role must be MEMBER or ADMIN")
		case errors.Is(err, domain.ErrInvalidAmount):
			return response.BadRequest(c, "Invalid outstanding amount in batch")
		default:
			return response.InternalServerError(c, "Failed to import members")
		}
	}

	responses := make([]interface{}, len(users))
	for i, u := range users {
		responses[i] = u.ToResponse()
	}
	return response.Created(c, "Members imported successfully", fiber.Map{
		"users": responses,
	})
}

// UpdateUser handles updating a user (Admin only)
func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	adminID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req services.UpdateUserByAdminInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	user, err := h.userService.UpdateUserByAdmin(c.Context(), adminID, uint(id), &req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			return response.NotFound(c, "User not found")
		case errors.Is(err, services.ErrEmailAlreadyExists):
			return response.Conflict(c, "Email already exists")
		case errors.Is(err, services.ErrCannotChangeOwnRole):
			return response.BadRequest(c, "Cannot change your own role")
		case errors.Is(err, services.ErrInvalidRole):
			return response.BadRequest(c, "Role must be MEMBER or ADMIN")
		default:
			return response.InternalServerError(c, "Failed to update user")
		}
	}

	return response.Success(c, "User updated successfully", fiber.Map{
		"user": user.ToResponse(),
	})
}

// SetPasswordRequest represents admin password reset request body
type SetPasswordRequest struct {
	Password string `json:"password"`
}

// SetPassword handles resetting a user's password (Admin only)
func (h *UserHandler) SetPassword(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	var req SetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.userService.SetPassword(c.Context(), uint(id), req.Password); err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			return response.NotFound(c, "User not found")
		case errors.Is(err, services.ErrWeakPassword):
			return response.BadRequest(c, "Password does not meet requirements")
		default:
			return response.InternalServerError(c, "Failed to set password")
		}
	}

	return response.Success(c, "Password updated successfully", nil)
}

// DeleteUser handles deleting a user (Admin only)
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	adminID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	if err := h.userService.DeleteUser(c.Context(), adminID, uint(id)); err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			return response.NotFound(c, "User not found")
		case errors.Is(err, services.ErrCannotDeleteSelf):
			return response.BadRequest(c, "Cannot delete your own account")
		default:
			return response.InternalServerError(c, "Failed to delete user")
		}
	}

	return response.Success(c, "User deleted successfully", nil)
}

// GetProfile handles getting the current user's profile
func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	user, err := h.userService.GetProfile(c.Context(), userID)
	if err != nil {
		return response.NotFound(c, "User not found")
	}

	return response.Success(c, "Profile retrieved successfully", fiber.Map{
		"user": user.ToResponse(),
	})
}

// UpdateProfile handles updating the current user's profile
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req services.UpdateProfileInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	user, err := h.userService.UpdateProfile(c.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmailAlreadyExists):
			return response.Conflict(c, "Email already exists")
		default:
			return response.InternalServerError(c, "Failed to update profile")
		}
	}

	return response.Success(c, "Profile updated successfully", fiber.Map{
		"user": user.ToResponse(),
	})
}

// ChangePassword handles changing the current user's password
func (h *UserHandler) ChangePassword(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req services.ChangePasswordInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.OldPassword == "" || req.NewPassword == "" {
		return response.BadRequest(c, "Old and new passwords are required")
	}

	if err := h.userService.ChangePassword(c.Context(), userID, &req); err != nil {
		switch {
		case errors.Is(err, services.ErrOldPasswordWrong):
			return response.BadRequest(c, "Old password is incorrect")
		case errors.Is(err, services.ErrWeakPassword):
			return response.BadRequest(c, "Password does not meet requirements")
		default:
			return response.InternalServerError(c, "Failed to change password")
		}
	}

	return response.Success(c, "Password changed successfully", nil)
}
