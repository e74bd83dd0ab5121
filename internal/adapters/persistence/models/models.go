package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ============================================================
// Auth & Member Tables
// ============================================================

// User represents users table (one row per fund member)
type User struct {
	ID                  uint            `gorm:"primaryKey" json:"id"`
	MembNo              string          `gorm:"uniqueIndex;size:20;not null" json:"memb_no"`
	Username            string          `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email               string          `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password            string          `gorm:"size:255;not null" json:"-"`
	FirstName           string          `gorm:"size:50" json:"first_name"`
	LastName            string          `gorm:"size:50" json:"last_name"`
	Role                string          `gorm:"size:20;default:'MEMBER'" json:"role"`
	OutstandingAmount   decimal.Decimal `gorm:"type:decimal(15,2);default:0" json:"outstanding_amount"`
	MembershipStartDate time.Time       `gorm:"type:date;not null" json:"membership_start_date"`
	IsActive            bool            `gorm:"default:true" json:"is_active"`
	CreatedAt           time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt           gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// User roles
const (
	RoleMember = "MEMBER"
	RoleAdmin  = "ADMIN"
)

// IsAdmin reports whether the user has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// TenureMonths returns whole months of membership as of now
func (u *User) TenureMonths(now time.Time) int {
	months := (now.Year()-u.MembershipStartDate.Year())*12 + int(now.Month()) - int(u.MembershipStartDate.Month())
	if now.Day() < u.MembershipStartDate.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// UserResponse DTO
type UserResponse struct {
	ID                  uint            `json:"id"`
	MembNo              string          `json:"memb_no"`
	Username            string          `json:"username"`
	Email               string          `json:"email"`
	FirstName           string          `json:"first_name"`
	LastName            string          `json:"last_name"`
	Role                string          `json:"role"`
	OutstandingAmount   decimal.Decimal `json:"outstanding_amount"`
	MembershipStartDate time.Time       `json:"membership_start_date"`
	IsActive            bool            `json:"is_active"`
	CreatedAt           time.Time       `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:                  u.ID,
		MembNo:              u.MembNo,
		Username:            u.Username,
		Email:               u.Email,
		FirstName:           u.FirstName,
		LastName:            u.LastName,
		Role:                u.Role,
		OutstandingAmount:   u.OutstandingAmount,
		MembershipStartDate: u.MembershipStartDate,
		IsActive:            u.IsActive,
		CreatedAt:           u.CreatedAt,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Master Tables
// ============================================================

// LoanTier is a fixed loan configuration row (Master)
type LoanTier struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	Amount          decimal.Decimal `gorm:"type:decimal(15,2);not null;uniqueIndex" json:"amount"`
	TenureMonths    int             `gorm:"not null" json:"tenure_months"`
	Fine            decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"fine"`
	RepaymentMonths int             `gorm:"not null" json:"repayment_months"`
	RepaymentInfo   string          `gorm:"size:100" json:"repayment_info"`
	IsActive        bool            `gorm:"default:true" json:"is_active"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (LoanTier) TableName() string {
	return "loan_tiers"
}

// ============================================================
// Main Tables
// ============================================================

// Loan statuses
const (
	LoanStatusPending   = "pending"
	LoanStatusApproved  = "approved"
	LoanStatusInProcess = "in-process"
	LoanStatusRejected  = "rejected"
	LoanStatusClosed    = "closed"
)

// LoanRequest represents one loan lifecycle instance
type LoanRequest struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	UserID          uint            `gorm:"not null;index" json:"user_id"`
	TierID          uint            `gorm:"not null" json:"tier_id"`
	Amount          decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Reason          string          `gorm:"type:text" json:"reason"`
	Guarantor       string          `gorm:"size:100" json:"guarantor"`
	Guarantor2      string          `gorm:"size:100" json:"guarantor2"`
	Status          string          `gorm:"size:20;not null;default:'pending';index" json:"status"`
	IssueDate       *time.Time      `gorm:"type:date" json:"issue_date"`
	DueDate         *time.Time      `gorm:"type:date;index" json:"due_date"`
	ProcessedBy     *uint           `json:"processed_by"`
	ProcessedAt     *time.Time      `json:"processed_at"`
	RejectionReason string          `gorm:"type:text" json:"rejection_reason"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Tier      *LoanTier `gorm:"foreignKey:TierID" json:"tier,omitempty"`
	Processor *User     `gorm:"foreignKey:ProcessedBy" json:"processor,omitempty"`
}

func (LoanRequest) TableName() string {
	return "loan_requests"
}

// IsOpen reports whether the loan still occupies the member's single slot
func (l *LoanRequest) IsOpen() bool {
	return l.Status == LoanStatusPending || l.Status == LoanStatusApproved || l.Status == LoanStatusInProcess
}

// LoanResponse DTO
type LoanResponse struct {
	ID              uint            `json:"id"`
	UserID          uint            `json:"user_id"`
	MemberName      string          `json:"member_name,omitempty"`
	MembNo          string          `json:"memb_no,omitempty"`
	TierID          uint            `json:"tier_id"`
	Amount          decimal.Decimal `json:"amount"`
	Fine            decimal.Decimal `json:"fine"`
	Reason          string          `json:"reason"`
	Guarantor       string          `json:"guarantor"`
	Guarantor2      string          `json:"guarantor2,omitempty"`
	Status          string          `json:"status"`
	IssueDate       *time.Time      `json:"issue_date"`
	DueDate         *time.Time      `json:"due_date"`
	ProcessedBy     *uint           `json:"processed_by"`
	ProcessedAt     *time.Time      `json:"processed_at"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

func (l *LoanRequest) ToResponse() *LoanResponse {
	resp := &LoanResponse{
		ID:              l.ID,
		UserID:          l.UserID,
		TierID:          l.TierID,
		Amount:          l.Amount,
		Reason:          l.Reason,
		Guarantor:       l.Guarantor,
		Guarantor2:      l.Guarantor2,
		Status:          l.Status,
		IssueDate:       l.IssueDate,
		DueDate:         l.DueDate,
		ProcessedBy:     l.ProcessedBy,
		ProcessedAt:     l.ProcessedAt,
		RejectionReason: l.RejectionReason,
		CreatedAt:       l.CreatedAt,
	}

	if l.User != nil {
		resp.MemberName = l.User.FirstName + " " + l.User.LastName
		resp.MembNo = l.User.MembNo
	}
	if l.Tier != nil {
		resp.Fine = l.Tier.Fine
	}

	return resp
}

// Transaction types
const (
	TxTypeDeposit    = "deposit"
	TxTypeWithdrawal = "withdrawal"
)

// Transaction sources
const (
	TxSourceLoan         = "loan"
	TxSourceContribution = "contribution"
	TxSourceManual       = "manual"
)

// Transaction is an immutable ledger entry. OwnerID nil means the entry
// belongs to the shared main account ("public" entry).
type Transaction struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Type        string          `gorm:"size:20;not null" json:"type"`
	Amount      decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Description string          `gorm:"type:text" json:"description"`
	OwnerID     *uint           `gorm:"index" json:"owner_id"`
	Source      string          `gorm:"size:20;not null;default:'manual';index" json:"source"`
	EntryDate   time.Time       `gorm:"type:date;not null;index" json:"entry_date"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Owner *User `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// IsPublic reports whether the entry belongs to the main account
func (t *Transaction) IsPublic() bool {
	return t.OwnerID == nil
}

// SignedAmount is the entry's contribution to the balance it belongs to.
// Member ledger: deposit credits (reduces outstanding), withdrawal debits.
// Main account: deposit adds to the pool, withdrawal takes from it.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TxTypeDeposit {
		return t.Amount
	}
	return t.Amount.Neg()
}

// Proof statuses
const (
	ProofStatusPending  = "pending"
	ProofStatusApproved = "approved"
	ProofStatusRejected = "rejected"
)

// PaymentProof is a pending contribution claim
type PaymentProof struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OwnerID   uint      `gorm:"not null;index" json:"owner_id"`
	Month     time.Time `gorm:"type:date;not null;index" json:"month"`
	FileKey   string    `gorm:"size:255;not null" json:"-"`
	FileURL   string    `gorm:"size:500" json:"file_url"`
	Status    string    `gorm:"size:20;not null;default:'pending';index" json:"status"`
	Notes     string    `gorm:"type:text" json:"notes"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Owner *User `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
}

func (PaymentProof) TableName() string {
	return "payment_proofs"
}

// MainAccount is the singleton shared balance row
type MainAccount struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Balance   decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"balance"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (MainAccount) TableName() string {
	return "main_account"
}

// Notification represents notifications table.
// DedupKey makes cron-emitted reminders at-most-once per condition per day.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OwnerID   uint      `gorm:"not null;index;uniqueIndex:ux_notif_owner_dedup" json:"owner_id"`
	Title     string    `gorm:"size:200;not null" json:"title"`
	Message   string    `gorm:"type:text" json:"message"`
	Link      string    `gorm:"size:255" json:"link"`
	IsRead    bool      `gorm:"default:false;index" json:"is_read"`
	DedupKey  *string   `gorm:"size:100;uniqueIndex:ux_notif_owner_dedup" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Owner *User `gorm:"foreignKey:OwnerID" json:"-"`
}

func (Notification) TableName() string {
	return "notifications"
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&LoanTier{},
		&LoanRequest{},
		&Transaction{},
		&PaymentProof{},
		&MainAccount{},
		&Notification{},
	)
}
