package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"chitfund-ledger/internal/adapters/persistence/models"
	"chitfund-ledger/internal/adapters/persistence/repositories"
)

// ExportService writes admin CSV exports. encoding/csv handles RFC 4180
// quoting, so embedded commas, quotes and newlines survive a round trip
// through any spreadsheet tool.
type ExportService struct {
	userRepo repositories.UserRepository
	loanRepo repositories.LoanRepository
	txRepo   repositories.TransactionRepository
}

// NewExportService creates a new export service
func NewExportService(
	userRepo repositories.UserRepository,
	loanRepo repositories.LoanRepository,
	txRepo repositories.TransactionRepository,
) *ExportService {
	return &ExportService{
		userRepo: userRepo,
		loanRepo: loanRepo,
		txRepo:   txRepo,
	}
}

// ExportUsers writes every member as a CSV row
func (s *ExportService) ExportUsers(ctx context.Context, w io.Writer) error {
	users, _, err := s.userRepo.List(ctx, 0, -1)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"Member No", "Username", "Email", "First Name", "Last Name",
		"Role", "Outstanding Amount", "Membership Start", "Active",
	}); err != nil {
		return err
	}

	for _, u := range users {
		record := []string{
			u.MembNo,
			u.Username,
			u.Email,
			u.FirstName,
			u.LastName,
			u.Role,
			u.OutstandingAmount.StringFixed(2),
			u.MembershipStartDate.Format("2006-01-02"),
			fmt.Sprintf("%t", u.IsActive),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ExportTransactions writes the full ledger as CSV
func (s *ExportService) ExportTransactions(ctx context.Context, w io.Writer) error {
	entries, err := s.txRepo.ListAll(ctx)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"ID", "Entry Date", "Type", "Amount", "Account", "Source", "Description",
	}); err != nil {
		return err
	}

	for _, e := range entries {
		account := "Main Account"
		if e.OwnerID != nil {
			if e.Owner != nil {
				account = e.Owner.MembNo
			} else {
				account = fmt.Sprintf("member #%d", *e.OwnerID)
			}
		}
		record := []string{
			fmt.Sprintf("%d", e.ID),
			e.EntryDate.Format("2006-01-02"),
			e.Type,
			e.Amount.StringFixed(2),
			account,
			e.Source,
			e.Description,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ExportLoans writes loans as CSV, optionally filtered by status
func (s *ExportService) ExportLoans(ctx context.Context, w io.Writer, status string) error {
	loans, _, err := s.loanRepo.List(ctx, status, 0, -1)
	if err != nil {
		return err
	}
	return writeLoanCSV(w, loans)
}

// ExportLoanHistory writes closed and rejected loans as CSV
func (s *ExportService) ExportLoanHistory(ctx context.Context, w io.Writer) error {
	loans, _, err := s.loanRepo.ListFinished(ctx, 0, -1)
	if err != nil {
		return err
	}
	return writeLoanCSV(w, loans)
}

func writeLoanCSV(w io.Writer, loans []*models.LoanRequest) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"ID", "Member No", "Member Name", "Amount", "Status", "Reason",
		"Guarantor", "Second Guarantor", "Issue Date", "Due Date", "Rejection Reason",
	}); err != nil {
		return err
	}

	for _, l := range loans {
		membNo, memberName := "", ""
		if l.User != nil {
			membNo = l.User.MembNo
			memberName = l.User.FirstName + " " + l.User.LastName
		}
		record := []string{
			fmt.Sprintf("%d", l.ID),
			membNo,
			memberName,
			l.Amount.StringFixed(2),
			l.Status,
			l.Reason,
			l.Guarantor,
			l.Guarantor2,
			formatDate(l.IssueDate),
			formatDate(l.DueDate),
			l.RejectionReason,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
