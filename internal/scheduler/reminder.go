package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron"

	"github.com/rentfold/rentfold/internal/logging"
	"github.com/rentfold/rentfold/internal/models"
	"github.com/rentfold/rentfold/internal/services"
)

// ReminderScheduler periodically re-notifies tenants holding unaccepted,
// still-valid invites. Each run is independent; overlapping runs and
// duplicate service instances are tolerated because reminder bookkeeping
// only advances through a guarded update that no-ops once another run
// has claimed the invite.
type ReminderScheduler struct {
	invites     services.InviteServiceInterface
	emails      services.EmailServiceInterface
	logger      *logging.Logger
	batchSize   int
	sendTimeout time.Duration
	cron        *cron.Cron
}

func New(invites services.InviteServiceInterface, emails services.EmailServiceInterface, logger *logging.Logger, batchSize int, sendTimeout time.Duration) *ReminderScheduler {
	if batchSize <= 0 {
		batchSize = 100
	}
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}
	return &ReminderScheduler{
		invites:     invites,
		emails:      emails,
		logger:      logger,
		batchSize:   batchSize,
		sendTimeout: sendTimeout,
	}
}

// Start begins running batches on the given cron schedule
// (e.g. "@every 15m").
func (s *ReminderScheduler) Start(schedule string) error {
	c := cron.New()
	err := c.AddFunc(schedule, func() {
		if _, err := s.Run(context.Background()); err != nil {
			s.logger.Error("Reminder run failed", map[string]interface{}{"error": err.Error()})
		}
	})
	if err != nil {
		return fmt.Errorf("scheduling reminders: %w", err)
	}
	c.Start()
	s.cron = c
	s.logger.Info("Reminder scheduler started", map[string]interface{}{"schedule": schedule})
	return nil
}

// Stop halts the cron. In-flight runs are not interrupted.
func (s *ReminderScheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// Run executes one reminder batch and returns how many reminders were
// dispatched and recorded. A failed send leaves the invite's bookkeeping
// untouched, so it stays eligible for the next run.
func (s *ReminderScheduler) Run(ctx context.Context) (int, error) {
	invites, err := s.invites.GetPendingInvitesForReminder(ctx, s.batchSize)
	if err != nil {
		return 0, fmt.Errorf("selecting invites for reminder: %w", err)
	}

	sent := 0
	for i := range invites {
		invite := &invites[i]
		if err := s.remind(ctx, invite); err != nil {
			s.logger.Warn("Reminder skipped", map[string]interface{}{
				"invite_id": invite.ID.String(),
				"error":     err.Error(),
			})
			continue
		}
		sent++
	}

	if len(invites) > 0 {
		s.logger.Info("Reminder run complete", map[string]interface{}{
			"eligible": len(invites),
			"sent":     sent,
		})
	}
	return sent, nil
}

func (s *ReminderScheduler) remind(ctx context.Context, invite *models.Invite) error {
	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()

	firstName := ""
	if invite.FirstName != nil {
		firstName = *invite.FirstName
	}
	if err := s.emails.SendReminderEmail(sendCtx, invite.Email, firstName, invite.InviteCode, invite.ExpiresAt); err != nil {
		return fmt.Errorf("sending reminder: %w", err)
	}

	advanced, err := s.invites.MarkReminderSent(ctx, invite.ID)
	if err != nil {
		return fmt.Errorf("marking reminder sent: %w", err)
	}
	if !advanced {
		// Another run got here first; the guard kept the count honest.
		s.logger.Debug("Reminder already recorded by a concurrent run", map[string]interface{}{
			"invite_id": invite.ID.String(),
		})
	}
	return nil
}
