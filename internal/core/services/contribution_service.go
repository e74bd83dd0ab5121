package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"gorm.io/gorm"

	"chitfund-ledger/internal/adapters/persistence/models"
	"chitfund-ledger/internal/adapters/persistence/repositories"
	"chitfund-ledger/internal/config"
	"chitfund-ledger/internal/core/domain"
	"chitfund-ledger/internal/storage"
)

// Contribution service errors
var (
	ErrProofFileRequired = errors.New("proof image is required")
	ErrInvalidMonth      = errors.New("invalid contribution month")
)

// ContributionService handles monthly contribution proofs
type ContributionService struct {
	proofRepo repositories.ProofRepository
	txRepo    repositories.TransactionRepository
	userRepo  repositories.UserRepository
	notifRepo repositories.NotificationRepository
	uow       repositories.UnitOfWork
	store     storage.ObjectStore
	fund      config.FundConfig
}

// NewContributionService creates a new contribution service
func NewContributionService(
	proofRepo repositories.ProofRepository,
	txRepo repositories.TransactionRepository,
	userRepo repositories.UserRepository,
	notifRepo repositories.NotificationRepository,
	uow repositories.UnitOfWork,
	store storage.ObjectStore,
	fund config.FundConfig,
) *ContributionService {
	return &ContributionService{
		proofRepo: proofRepo,
		txRepo:    txRepo,
		userRepo:  userRepo,
		notifRepo: notifRepo,
		uow:       uow,
		store:     store,
		fund:      fund,
	}
}

// SubmitProofInput represents a member's proof upload
type SubmitProofInput struct {
	Month time.Time // claimed contribution month
	File  io.Reader
}

// MemberContributionStatus is one row of the monthly contribution list
type MemberContributionStatus struct {
	UserID      uint   `json:"user_id"`
	MembNo      string `json:"memb_no"`
	MemberName  string `json:"member_name"`
	Contributed bool   `json:"contributed"`
	ProofStatus string `json:"proof_status,omitempty"`
}

// ListProofsInput represents list proofs input
type ListProofsInput struct {
	Status string
	Page   int
	Limit  int
}

// ListProofsOutput represents list proofs output
type ListProofsOutput struct {
	Proofs     []*models.PaymentProof `json:"proofs"`
	Total      int64                  `json:"total"`
	Page       int                    `json:"page"`
	Limit      int                    `json:"limit"`
	TotalPages int                    `json:"total_pages"`
}

// SubmitProof stores the uploaded image and records a pending proof
// tagged to the claimed contribution month.
func (s *ContributionService) SubmitProof(ctx context.Context, userID uint, input *SubmitProofInput) (*models.PaymentProof, error) {
	if input.File == nil {
		return nil, ErrProofFileRequired
	}
	if input.Month.IsZero() {
		return nil, ErrInvalidMonth
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}

	key := storage.ProofKey(userID, time.Now())
	url, err := s.store.Save(ctx, key, input.File)
	if err != nil {
		return nil, fmt.Errorf("failed to store proof image: %w", err)
	}

	proof := &models.PaymentProof{
		OwnerID: userID,
		Month:   monthStart(input.Month),
		FileKey: key,
		FileURL: url,
		Status:  models.ProofStatusPending,
	}

	if err := s.proofRepo.Create(ctx, proof); err != nil {
		// keep storage consistent with the table
		_ = s.store.Delete(ctx, key)
		return nil, fmt.Errorf("failed to create payment proof: %w", err)
	}

	return proof, nil
}

// ApproveProof accepts a pending proof. In one transaction it records a
// member deposit of the configured monthly contribution dated to the
// claimed month and reduces the member's outstanding by the same
// amount. The stored image is deleted afterwards.
func (s *ContributionService) ApproveProof(ctx context.Context, adminID, proofID uint) (*models.PaymentProof, error) {
	proof, err := s.getProof(ctx, proofID)
	if err != nil {
		return nil, err
	}

	if proof.Status != models.ProofStatusPending {
		return nil, domain.ErrProofNotPending
	}

	amount := s.fund.MonthlyContribution

	err = s.uow.WithinTx(ctx, func(r repositories.Repos) error {
		user, err := r.Users.GetByID(ctx, proof.OwnerID)
		if err != nil {
			return err
		}

		// 1. Contribution entry dated to the claimed month
		ownerID := proof.OwnerID
		entry := &models.Transaction{
			Type:        models.TxTypeDeposit,
			Amount:      amount,
			Description: fmt.Sprintf("Monthly contribution %s", proof.Month.Format("2006-01")),
			OwnerID:     &ownerID,
			Source:      models.TxSourceContribution,
			EntryDate:   proof.Month,
		}
		if err := r.Transactions.Create(ctx, entry); err != nil {
			return err
		}

		// 2. Deposit reduces what the member owes
		user.OutstandingAmount = user.OutstandingAmount.Sub(amount)
		if err := r.Users.Update(ctx, user); err != nil {
			return err
		}

		// 3. Status transition
		proof.Status = models.ProofStatusApproved
		return r.Proofs.Update(ctx, proof)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to approve proof: %w", err)
	}

	// Image served its purpose once the ledger entry exists
	_ = s.store.Delete(ctx, proof.FileKey)

	s.notify(ctx, proof.OwnerID,
		"Contribution approved",
		fmt.Sprintf("Your contribution for %s has been approved.", proof.Month.Format("January 2006")),
	)

	return proof, nil
}

// RejectProof declines a pending proof with mandatory notes. No ledger
// entry is written.
func (s *ContributionService) RejectProof(ctx context.Context, adminID, proofID uint, notes string) (*models.PaymentProof, error) {
	if strings.TrimSpace(notes) == "" {
		return nil, domain.ErrNotesRequired
	}

	proof, err := s.getProof(ctx, proofID)
	if err != nil {
		return nil, err
	}

	if proof.Status != models.ProofStatusPending {
		return nil, domain.ErrProofNotPending
	}

	proof.Status = models.ProofStatusRejected
	proof.Notes = notes
	if err := s.proofRepo.Update(ctx, proof); err != nil {
		return nil, fmt.Errorf("failed to reject proof: %w", err)
	}

	_ = s.store.Delete(ctx, proof.FileKey)

	s.notify(ctx, proof.OwnerID,
		"Contribution rejected",
		fmt.Sprintf("Your contribution for %s was rejected: %s", proof.Month.Format("January 2006"), notes),
	)

	return proof, nil
}

// DeleteProof removes a proof row and its stored image. No notification.
func (s *ContributionService) DeleteProof(ctx context.Context, proofID uint) error {
	proof, err := s.getProof(ctx, proofID)
	if err != nil {
		return err
	}

	if err := s.proofRepo.Delete(ctx, proofID); err != nil {
		return err
	}

	_ = s.store.Delete(ctx, proof.FileKey)
	return nil
}

// ListProofs lists proofs with an optional status filter
func (s *ContributionService) ListProofs(ctx context.Context, input *ListProofsInput) (*ListProofsOutput, error) {
	if input.Page < 1 {
		input.Page = 1
	}
	if input.Limit < 1 {
		input.Limit = 10
	}
	if input.Limit > 100 {
		input.Limit = 100
	}

	proofs, total, err := s.proofRepo.List(ctx, input.Status, (input.Page-1)*input.Limit, input.Limit)
	if err != nil {
		return nil, err
	}

	totalPages := int(total) / input.Limit
	if int(total)%input.Limit > 0 {
		totalPages++
	}

	return &ListProofsOutput{
		Proofs:     proofs,
		Total:      total,
		Page:       input.Page,
		Limit:      input.Limit,
		TotalPages: totalPages,
	}, nil
}

// GetMyProofs lists the member's own proofs
func (s *ContributionService) GetMyProofs(ctx context.Context, userID uint) ([]*models.PaymentProof, error) {
	return s.proofRepo.GetByOwnerID(ctx, userID)
}

// MonthlyContributionList reports, for every active member, whether a
// contribution for the month is on record (approved proof or
// contribution ledger entry).
func (s *ContributionService) MonthlyContributionList(ctx context.Context, month time.Time) ([]*MemberContributionStatus, error) {
	members, err := s.userRepo.ListActiveMembers(ctx)
	if err != nil {
		return nil, err
	}

	m := monthStart(month)
	result := make([]*MemberContributionStatus, 0, len(members))
	for _, member := range members {
		status := &MemberContributionStatus{
			UserID:     member.ID,
			MembNo:     member.MembNo,
			MemberName: member.FirstName + " " + member.LastName,
		}

		approved, err := s.proofRepo.HasApprovedForMonth(ctx, member.ID, m)
		if err != nil {
			return nil, err
		}
		contributed, err := s.txRepo.ExistsContributionForMonth(ctx, member.ID, m)
		if err != nil {
			return nil, err
		}

		status.Contributed = approved || contributed
		if approved {
			status.ProofStatus = models.ProofStatusApproved
		}
		result = append(result, status)
	}

	return result, nil
}

func (s *ContributionService) getProof(ctx context.Context, proofID uint) (*models.PaymentProof, error) {
	proof, err := s.proofRepo.GetByID(ctx, proofID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProofNotFound
		}
		return nil, err
	}
	return proof, nil
}

func (s *ContributionService) notify(ctx context.Context, userID uint, title, message string) {
	_ = s.notifRepo.Create(ctx, &models.Notification{
		OwnerID: userID,
		Title:   title,
		Message: message,
		Link:    "/contributions",
	})
}

// monthStart normalizes any date in a month to its first day
func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
