package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"chitfund-ledger/internal/adapters/persistence/models"
	"chitfund-ledger/internal/adapters/persistence/repositories"
	"chitfund-ledger/internal/config"
	"chitfund-ledger/internal/core/domain"
	"chitfund-ledger/internal/pkg/jwt"
	"chitfund-ledger/internal/pkg/password"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrTokenRevoked       = errors.New("token has been revoked")
	ErrWeakPassword       = errors.New("password does not meet requirements")
)

// AuthService handles registration, login and refresh token rotation.
type AuthService struct {
	userRepo         repositories.UserRepository
	refreshTokenRepo repositories.RefreshTokenRepository
	cfg              *config.Config
}

func NewAuthService(
	userRepo repositories.UserRepository,
	refreshTokenRepo repositories.RefreshTokenRepository,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		cfg:              cfg,
	}
}

type RegisterInput struct {
	MembNo    string `json:"memb_no"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	User         *models.UserResponse `json:"user"`
	AccessToken  string               `json:"access_token"`
	RefreshToken string               `json:"refresh_token"`
}

// Register creates a new member account. New accounts always start as
// members with zero outstanding balance; admins are promoted separately.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResponse, error) {
	// 1. Validate password strength
	if !password.ValidatePassword(input.Password) {
		return nil, ErrWeakPassword
	}

	// 2. Check uniqueness
	if exists, err := s.userRepo.ExistsByUsername(ctx, input.Username); err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	} else if exists {
		return nil, ErrUserAlreadyExists
	}

	if exists, err := s.userRepo.ExistsByEmail(ctx, input.Email); err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	} else if exists {
		return nil, ErrUserAlreadyExists
	}

	if exists, err := s.userRepo.ExistsByMembNo(ctx, input.MembNo); err != nil {
		return nil, fmt.Errorf("failed to check member number: %w", err)
	} else if exists {
		return nil, ErrUserAlreadyExists
	}

	// 3. Hash password
	hashed, err := password.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// 4. Create user
	user := &models.User{
		MembNo:              input.MembNo,
		Username:            input.Username,
		Email:               input.Email,
		Password:            hashed,
		FirstName:           input.FirstName,
		LastName:            input.LastName,
		Role:                models.RoleMember,
		OutstandingAmount:   decimal.Zero,
		MembershipStartDate: time.Now(),
		IsActive:            true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// 5. Issue token pair
	return s.buildAuthResponse(ctx, user)
}

// Login authenticates a user and returns a fresh token pair.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResponse, error) {
	user, err := s.userRepo.GetByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}

	if !password.Verify(input.Password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	return s.buildAuthResponse(ctx, user)
}

// RefreshToken validates a refresh token, revokes it, and issues a new
// pair. A reused (already revoked) token revokes the whole family.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	// 1. Validate signature and claims
	claims, err := jwt.ValidateRefreshToken(refreshToken, s.cfg.JWT.RefreshSecret)
	if err != nil {
		return nil, ErrInvalidToken
	}

	// 2. Look up the stored hash
	tokenHash := password.HashToken(refreshToken)
	stored, err := s.refreshTokenRepo.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	// 3. Reuse detection: a revoked token means the family is compromised
	if stored.IsRevoked() {
		if err := s.refreshTokenRepo.RevokeAllByUserID(ctx, stored.UserID); err != nil {
			return nil, fmt.Errorf("failed to revoke token family: %w", err)
		}
		return nil, ErrTokenRevoked
	}

	if stored.IsExpired() {
		return nil, ErrInvalidToken
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}

	// 4. Rotate: revoke the used token, issue a new pair
	if err := s.refreshTokenRepo.Revoke(ctx, stored.ID); err != nil {
		return nil, fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	return s.buildAuthResponse(ctx, user)
}

// Logout revokes a single refresh token.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	tokenHash := password.HashToken(refreshToken)
	if err := s.refreshTokenRepo.RevokeByTokenHash(ctx, tokenHash); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil // already gone, nothing to do
		}
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// LogoutAll revokes every refresh token the user holds.
func (s *AuthService) LogoutAll(ctx context.Context, userID uint) error {
	return s.refreshTokenRepo.RevokeAllByUserID(ctx, userID)
}

// ValidateAccessToken validates an access token and returns its claims.
func (s *AuthService) ValidateAccessToken(accessToken string) (*jwt.Claims, error) {
	return jwt.ValidateAccessToken(accessToken, s.cfg.JWT.Secret)
}

func (s *AuthService) buildAuthResponse(ctx context.Context, user *models.User) (*AuthResponse, error) {
	tokens, err := s.generateTokens(user)
	if err != nil {
		return nil, err
	}

	if err := s.storeRefreshToken(ctx, user.ID, tokens.RefreshToken); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &AuthResponse{
		User:         user.ToResponse(),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, nil
}

// generateTokens generates access and refresh tokens
func (s *AuthService) generateTokens(user *models.User) (*domain.TokenPair, error) {
	accessToken, err := jwt.GenerateAccessToken(
		user.ID,
		user.MembNo,
		user.Username,
		user.Role,
		s.cfg.JWT.Secret,
		s.cfg.JWT.AccessTokenMins,
	)
	if err != nil {
		return nil, err
	}

	tokenID := uuid.New().String()

	refreshToken, err := jwt.GenerateRefreshToken(
		user.ID,
		tokenID,
		s.cfg.JWT.RefreshSecret,
		s.cfg.JWT.RefreshTokenDays,
	)
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// storeRefreshToken stores a refresh token hash in the database
func (s *AuthService) storeRefreshToken(ctx context.Context, userID uint, refreshToken string) error {
	token := &models.RefreshToken{
		UserID:    userID,
		TokenHash: password.HashToken(refreshToken),
		ExpiresAt: jwt.GetExpiryTime(s.cfg.JWT.RefreshTokenDays),
	}
	return s.refreshTokenRepo.Create(ctx, token)
}
