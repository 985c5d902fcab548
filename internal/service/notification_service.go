package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medora-hq/roster-api/internal/models"
	"github.com/medora-hq/roster-api/pkg/config"
	"github.com/medora-hq/roster-api/pkg/jobs"
)

const jobTypePublishNotice = "schedule.published"

// Mailer delivers a notification message to a set of recipients.
type Mailer interface {
	Send(ctx context.Context, to []string, subject, body string) error
}

// LogMailer writes notifications to the log instead of sending mail.
// Used in development and as the default when no SMTP relay is wired.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer constructs a log-backed mailer.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{logger: logger}
}

// Send logs the message instead of delivering it.
func (m *LogMailer) Send(_ context.Context, to []string, subject, body string) error {
	m.logger.Info("notification delivered",
		zap.Strings("to", to),
		zap.String("subject", subject),
		zap.String("body", body))
	return nil
}

type recipientLister interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
}

type publishNotice struct {
	ScheduleID  string
	Year        int
	Month       int
	PublishedBy string
}

// NotificationService delivers publish notices to active users through
// a background worker queue so the publish request never waits on mail
// delivery.
type NotificationService struct {
	queue   *jobs.Queue
	users   recipientLister
	mailer  Mailer
	enabled bool
	from    string
	logger  *zap.Logger
}

// NewNotificationService constructs the notification service and its
// worker queue. Call Start before enqueueing and Stop on shutdown.
func NewNotificationService(users recipientLister, mailer Mailer, cfg config.NotifyConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if mailer == nil {
		mailer = NewLogMailer(logger)
	}

	s := &NotificationService{
		users:   users,
		mailer:  mailer,
		enabled: cfg.Enabled,
		from:    cfg.FromAddress,
		logger:  logger,
	}
	s.queue = jobs.NewQueue("notifications", s.handle, jobs.QueueConfig{
		Workers:    cfg.WorkerConcurrency,
		MaxRetries: cfg.WorkerRetries,
		Logger:     logger,
	})
	return s
}

// Start launches the notification workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the notification workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// SchedulePublished queues a publish notice for the given schedule.
// Delivery failures never surface to the publishing request.
func (s *NotificationService) SchedulePublished(ctx context.Context, schedule *models.Schedule, publishedBy string) {
	if !s.enabled {
		return
	}

	job := jobs.Job{
		ID:   uuid.NewString(),
		Type: jobTypePublishNotice,
		Payload: publishNotice{
			ScheduleID:  schedule.ID,
			Year:        schedule.Year,
			Month:       schedule.Month,
			PublishedBy: publishedBy,
		},
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("publish notice enqueue failed",
			zap.String("schedule_id", schedule.ID),
			zap.Error(err))
	}
}

func (s *NotificationService) handle(ctx context.Context, job jobs.Job) error {
	notice, ok := job.Payload.(publishNotice)
	if !ok {
		s.logger.Error("unexpected notification payload", zap.String("job_id", job.ID), zap.String("type", job.Type))
		return nil
	}

	active := true
	users, _, err := s.users.List(ctx, models.UserFilter{Active: &active, PageSize: 100})
	if err != nil {
		return fmt.Errorf("list notification recipients: %w", err)
	}

	recipients := make([]string, 0, len(users))
	for _, u := range users {
		recipients = append(recipients, u.Email)
	}
	if len(recipients) == 0 {
		return nil
	}

	subject := fmt.Sprintf("Schedule %04d-%02d published", notice.Year, notice.Month)
	body := fmt.Sprintf("The duty roster for %04d-%02d has been published. Log in to review your assignments.", notice.Year, notice.Month)
	if err := s.mailer.Send(ctx, recipients, subject, body); err != nil {
		return fmt.Errorf("send publish notice: %w", err)
	}

	s.logger.Info("publish notice sent",
		zap.String("schedule_id", notice.ScheduleID),
		zap.Int("recipients", len(recipients)))
	return nil
}
