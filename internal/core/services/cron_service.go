package services

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// CronService schedules the recurring fund jobs. The notification job
// is idempotent per day, so an overlapping manual run does no harm.
type CronService struct {
	cron *cron.Cron
	jobs *JobsService
}

// NewCronService creates a new cron service
func NewCronService(jobs *JobsService) *CronService {
	return &CronService{
		cron: cron.New(),
		jobs: jobs,
	}
}

// Start registers the schedules and starts the scheduler:
// daily reminders at 08:00, monthly dues on the 1st at 00:30.
func (s *CronService) Start() error {
	if _, err := s.cron.AddFunc("0 8 * * *", s.runNotifications); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("30 0 1 * *", s.runMonthlyDues); err != nil {
		return err
	}

	s.cron.Start()
	log.Println("⏰ Cron scheduler started")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("⏰ Cron scheduler stopped")
}

func (s *CronService) runNotifications() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	result, err := s.jobs.RunDailyNotifications(ctx, time.Now())
	if err != nil {
		log.Printf("❌ Daily notification job failed: %v", err)
		return
	}
	log.Printf("🔔 Daily notifications: %d due reminders, %d contribution reminders, %d missed summaries",
		result.DueReminders, result.ContributionReminders, result.MissedSummaries)
}

func (s *CronService) runMonthlyDues() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	result, err := s.jobs.RunMonthlyDues(ctx)
	if err != nil {
		log.Printf("❌ Monthly dues job failed: %v", err)
		return
	}
	log.Printf("💰 Monthly dues of %s applied to %d members", result.Amount, result.MembersCharged)
}
