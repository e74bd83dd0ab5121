package domain

import "errors"

// Common domain errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInternalServer     = errors.New("internal server error")
	ErrDuplicateEntry     = errors.New("duplicate entry")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")
	ErrNotImplemented     = errors.New("not implemented")
)

// UserErrors
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrInvalidPassword   = errors.New("invalid password")
	ErrUserInactive      = errors.New("user is inactive")
)

// LoanErrors
var (
	ErrLoanNotFound       = errors.New("loan not found")
	ErrInvalidLoanStatus  = errors.New("invalid loan status")
	ErrTierNotFound       = errors.New("loan tier not found")
	ErrOpenLoanExists     = errors.New("member already has an open loan")
	ErrInsufficientTenure = errors.New("membership tenure below tier requirement")
	ErrGuarantorRequired  = errors.New("guarantor required for this tier")
)

// LedgerErrors
var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrNotReversible       = errors.New("only manual transactions can be reversed")
	ErrProofNotFound       = errors.New("payment proof not found")
	ErrProofNotPending     = errors.New("payment proof already processed")
	ErrNotesRequired       = errors.New("rejection notes are required")
)
