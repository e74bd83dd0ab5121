package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"chitfund-ledger/internal/adapters/persistence/models"
	"chitfund-ledger/internal/adapters/persistence/repositories"
	"chitfund-ledger/internal/config"
	"chitfund-ledger/internal/core/domain"
)

// JobsService runs the periodic fund jobs. Every reminder it emits
// carries a dedup key, so re-running a job on the same day inserts
// nothing new.
type JobsService struct {
	userRepo  repositories.UserRepository
	loanRepo  repositories.LoanRepository
	proofRepo repositories.ProofRepository
	txRepo    repositories.TransactionRepository
	notifRepo repositories.NotificationRepository
	uow       repositories.UnitOfWork
	fund      config.FundConfig
}

// NewJobsService creates a new jobs service
func NewJobsService(
	userRepo repositories.UserRepository,
	loanRepo repositories.LoanRepository,
	proofRepo repositories.ProofRepository,
	txRepo repositories.TransactionRepository,
	notifRepo repositories.NotificationRepository,
	uow repositories.UnitOfWork,
	fund config.FundConfig,
) *JobsService {
	return &JobsService{
		userRepo:  userRepo,
		loanRepo:  loanRepo,
		proofRepo: proofRepo,
		txRepo:    txRepo,
		notifRepo: notifRepo,
		uow:       uow,
		fund:      fund,
	}
}

// MonthlyDuesResult reports a dues run
type MonthlyDuesResult struct {
	MembersCharged int       `json:"members_charged"`
	Amount         string    `json:"amount"`
	RanAt          time.Time `json:"ran_at"`
}

// NotificationRunResult reports a notification cron run
type NotificationRunResult struct {
	DueReminders          int       `json:"due_reminders"`
	ContributionReminders int       `json:"contribution_reminders"`
	MissedSummaries       int       `json:"missed_summaries"`
	RanAt                 time.Time `json:"ran_at"`
}

// RunMonthlyDues adds the configured dues to every active member's
// outstanding, all in one transaction. It writes no ledger entries;
// the reconcile operation reports the resulting drift against the log.
func (s *JobsService) RunMonthlyDues(ctx context.Context) (*MonthlyDuesResult, error) {
	dues := s.fund.MonthlyDues
	result := &MonthlyDuesResult{
		Amount: dues.StringFixed(2),
		RanAt:  time.Now(),
	}

	err := s.uow.WithinTx(ctx, func(r repositories.Repos) error {
		members, err := r.Users.ListActiveMembers(ctx)
		if err != nil {
			return err
		}

		for _, member := range members {
			member.OutstandingAmount = member.OutstandingAmount.Add(dues)
			if err := r.Users.Update(ctx, member); err != nil {
				return err
			}
			result.MembersCharged++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to run monthly dues: %w", err)
	}

	log.Printf("💰 Monthly dues applied to %d members", result.MembersCharged)
	return result, nil
}

// RunDailyNotifications evaluates the day's reminder conditions:
// loans due in exactly 7 days or 1 day, contribution reminders on the
// first and last day of the month, and a missed-contribution summary
// for admins on the 4th.
func (s *JobsService) RunDailyNotifications(ctx context.Context, now time.Time) (*NotificationRunResult, error) {
	result := &NotificationRunResult{RanAt: now}

	admins, err := s.userRepo.ListAdmins(ctx)
	if err != nil {
		return nil, err
	}

	// 1. Due date reminders
	for _, daysAhead := range []int{7, 1} {
		target := now.AddDate(0, 0, daysAhead)
		from := dayStart(target)
		to := from.AddDate(0, 0, 1).Add(-time.Second)

		loans, err := s.loanRepo.ListDueBetween(ctx, from, to)
		if err != nil {
			return nil, err
		}

		for _, loan := range loans {
			// The key carries the lead time so the 1-day reminder is
			// not swallowed by the 7-day one for the same loan.
			key := fmt.Sprintf("loan-due:%d:%dd:%s", loan.ID, daysAhead, from.Format("2006-01-02"))
			title := fmt.Sprintf("Loan due in %d day(s)", daysAhead)
			message := fmt.Sprintf("Loan #%d of %s is due on %s.", loan.ID, loan.Amount.StringFixed(2), from.Format("2006-01-02"))
			link := fmt.Sprintf("/loans/%d", loan.ID)

			created, err := s.emit(ctx, loan.UserID, key, title, message, link)
			if err != nil {
				return nil, err
			}
			if created {
				result.DueReminders++
			}

			for _, guarantor := range s.resolveGuarantors(ctx, loan) {
				if _, err := s.emit(ctx, guarantor.ID, key, title, message, link); err != nil {
					return nil, err
				}
			}

			for _, admin := range admins {
				if _, err := s.emit(ctx, admin.ID, key, title, message, link); err != nil {
					return nil, err
				}
			}
		}
	}

	// 2. Contribution reminders on the first and last day of the month
	if isFirstOfMonth(now) || isLastOfMonth(now) {
		members, err := s.userRepo.ListActiveMembers(ctx)
		if err != nil {
			return nil, err
		}

		key := fmt.Sprintf("contrib-reminder:%s", now.Format("2006-01-02"))
		message := fmt.Sprintf("Please submit your contribution of %s for %s.",
			s.fund.MonthlyContribution.StringFixed(2), now.Format("January 2006"))

		for _, member := range members {
			created, err := s.emit(ctx, member.ID, key, "Contribution reminder", message, "/contributions")
			if err != nil {
				return nil, err
			}
			if created {
				result.ContributionReminders++
			}
		}
	}

	// 3. Missed-contribution summary for admins on the 4th
	if now.Day() == 4 {
		missing, err := s.missedContributors(ctx, now.AddDate(0, -1, 0))
		if err != nil {
			return nil, err
		}

		if len(missing) > 0 {
			key := fmt.Sprintf("missed-contrib:%s", monthStart(now.AddDate(0, -1, 0)).Format("2006-01"))
			message := fmt.Sprintf("%d member(s) have no contribution on record for %s.",
				len(missing), now.AddDate(0, -1, 0).Format("January 2006"))

			for _, admin := range admins {
				created, err := s.emit(ctx, admin.ID, key, "Missed contributions", message, "/contributions/monthly")
				if err != nil {
					return nil, err
				}
				if created {
					result.MissedSummaries++
				}
			}
		}
	}

	return result, nil
}

// RunLateFees is a named placeholder; the fee schedule is still being
// decided by the fund committee.
func (s *JobsService) RunLateFees(ctx context.Context) error {
	return domain.ErrNotImplemented
}

// missedContributors returns active members with neither an approved
// proof nor a contribution ledger entry for the month.
func (s *JobsService) missedContributors(ctx context.Context, month time.Time) ([]*models.User, error) {
	members, err := s.userRepo.ListActiveMembers(ctx)
	if err != nil {
		return nil, err
	}

	m := monthStart(month)
	var missing []*models.User
	for _, member := range members {
		approved, err := s.proofRepo.HasApprovedForMonth(ctx, member.ID, m)
		if err != nil {
			return nil, err
		}
		if approved {
			continue
		}
		contributed, err := s.txRepo.ExistsContributionForMonth(ctx, member.ID, m)
		if err != nil {
			return nil, err
		}
		if !contributed {
			missing = append(missing, member)
		}
	}
	return missing, nil
}

// resolveGuarantors maps a loan's guarantor fields to member accounts.
// Guarantors are recorded as free text; a value matching a member
// number or username resolves to that user, anything else is skipped.
func (s *JobsService) resolveGuarantors(ctx context.Context, loan *models.LoanRequest) []*models.User {
	var users []*models.User
	for _, name := range []string{loan.Guarantor, loan.Guarantor2} {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		user, err := s.userRepo.GetByMembNo(ctx, name)
		if err != nil {
			user, err = s.userRepo.GetByUsername(ctx, name)
		}
		if err != nil || !user.IsActive {
			continue
		}
		users = append(users, user)
	}
	return users
}

// emit inserts a deduplicated notification; false means the condition
// already fired for this key.
func (s *JobsService) emit(ctx context.Context, userID uint, dedupKey, title, message, link string) (bool, error) {
	return s.notifRepo.CreateIfAbsent(ctx, &models.Notification{
		OwnerID:  userID,
		Title:    title,
		Message:  message,
		Link:     link,
		DedupKey: &dedupKey,
	})
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func isFirstOfMonth(t time.Time) bool {
	return t.Day() == 1
}

func isLastOfMonth(t time.Time) bool {
	return t.AddDate(0, 0, 1).Day() == 1
}
