package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/salontakip/reminderd/services/reminder-service/internal/model"
	"github.com/salontakip/reminderd/services/reminder-service/internal/notify"
	"github.com/salontakip/reminderd/services/reminder-service/internal/outbox"
)

// ErrCycleInFlight is returned when a scan cycle is invoked while the
// previous one is still running. The tick is dropped, never queued.
var ErrCycleInFlight = errors.New("scan cycle already in flight")

type AppointmentStore interface {
	FindReminderCandidates(ctx context.Context, now time.Time) ([]model.ReminderCandidate, error)
	RecordReminderAttempt(ctx context.Context, appointmentID int64, sentAt time.Time) (bool, error)
}

type Notifier interface {
	SendEmail(ctx context.Context, to string, subject string, body string) notify.Outcome
	SendSMS(ctx context.Context, to string, message string) notify.Outcome
}

type SettingsSource interface {
	NotificationSettings(ctx context.Context) (model.NotificationSettings, error)
}

type OutboxWriter interface {
	Insert(ctx context.Context, evt outbox.Event) error
}

// CycleLock serializes scan cycles across service replicas. TryAcquire
// reports false when another replica holds the lock.
type CycleLock interface {
	TryAcquire(ctx context.Context, ttl time.Duration) (release func(), acquired bool, err error)
}

type Config struct {
	CronSpec        string
	MinInterval     time.Duration
	DispatchTimeout time.Duration
	LockTTL         time.Duration
	// SMSReminders enables the SMS dispatch path. Off by default: reminders
	// go out by email, SMS is reserved for the booking confirmation flow.
	SMSReminders bool
	TimeLocation *time.Location
}

type Scheduler struct {
	store    AppointmentStore
	settings SettingsSource
	notifier Notifier
	outbox   OutboxWriter
	lock     CycleLock
	logger   *slog.Logger
	cfg      Config

	inFlight atomic.Bool
	cron     *cron.Cron
	rootCtx  context.Context
}

func NewScheduler(store AppointmentStore, settings SettingsSource, notifier Notifier, outboxRepo OutboxWriter, lock CycleLock, logger *slog.Logger, cfg Config) *Scheduler {
	if cfg.CronSpec == "" {
		cfg.CronSpec = "* * * * *"
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 10 * time.Minute
	}
	if cfg.DispatchTimeout <= 0 {
		cfg.DispatchTimeout = 15 * time.Second
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 50 * time.Second
	}
	if cfg.TimeLocation == nil {
		cfg.TimeLocation = time.UTC
	}
	return &Scheduler{
		store:    store,
		settings: settings,
		notifier: notifier,
		outbox:   outboxRepo,
		lock:     lock,
		logger:   logger,
		cfg:      cfg,
		cron:     cron.New(),
	}
}

// Start registers the scan cycle with the cron runner and begins ticking.
// Cycles triggered after ctx is cancelled abort on their first store call.
func (s *Scheduler) Start(ctx context.Context) error {
	s.rootCtx = ctx
	_, err := s.cron.AddFunc(s.cfg.CronSpec, s.tick)
	if err != nil {
		return fmt.Errorf("register scan cycle: %w", err)
	}
	s.cron.Start()
	s.logger.Info("reminder scheduler started", "cron", s.cfg.CronSpec)
	return nil
}

// Stop halts the cron runner and waits for a running cycle to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("reminder scheduler stopped")
}

func (s *Scheduler) tick() {
	err := s.RunScanCycle(s.rootCtx, time.Now().UTC())
	switch {
	case errors.Is(err, ErrCycleInFlight):
		s.logger.Warn("previous scan cycle still running, tick dropped")
	case err != nil:
		s.logger.Error("scan cycle failed", "err", err)
	}
}

// RunScanCycle selects candidate appointments around now, dispatches at most
// one reminder per appointment and advances each appointment's reminder
// state. One appointment's failure never blocks the rest of the batch.
func (s *Scheduler) RunScanCycle(ctx context.Context, now time.Time) error {
	if !s.inFlight.CompareAndSwap(false, true) {
		return ErrCycleInFlight
	}
	defer s.inFlight.Store(false)

	if s.lock != nil {
		release, acquired, err := s.lock.TryAcquire(ctx, s.cfg.LockTTL)
		if err != nil {
			// Lock backend outage must not stop reminders on a
			// single-replica deployment; the local guard still holds.
			s.logger.Warn("cycle lock unavailable, proceeding unlocked", "err", err)
		} else if !acquired {
			return ErrCycleInFlight
		} else {
			defer release()
		}
	}

	ctx, span := otel.Tracer("reminder").Start(ctx, "reminder.scan_cycle")
	defer span.End()

	candidates, err := s.store.FindReminderCandidates(ctx, now)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("find reminder candidates: %w", err)
	}
	span.SetAttributes(attribute.Int("reminder.candidates", len(candidates)))
	if len(candidates) == 0 {
		return nil
	}
	s.logger.Info("scan cycle found candidates", "count", len(candidates))

	settings, err := s.settings.NotificationSettings(ctx)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("load notification settings: %w", err)
	}

	for _, cand := range candidates {
		s.processCandidate(ctx, now, settings, cand)
	}
	return nil
}

func (s *Scheduler) processCandidate(ctx context.Context, now time.Time, settings model.NotificationSettings, cand model.ReminderCandidate) {
	appt := cand.Appointment
	cust := cand.Customer

	if last := appt.LastReminderSentAt; last != nil && now.Sub(*last) < s.cfg.MinInterval {
		s.logger.Debug("reminder spacing not elapsed, skipping",
			"appointment_id", appt.ID,
			"since_last", now.Sub(*last).Round(time.Second).String(),
		)
		return
	}

	// Claim the slot before dispatching. The claim is a conditional update,
	// so an overlapping cycle or a second replica can never dispatch twice
	// for the same appointment. A failed delivery still consumes the slot:
	// three attempts means three attempts, not three successes.
	claimed, err := s.store.RecordReminderAttempt(ctx, appt.ID, now)
	if err != nil {
		s.logger.Error("record reminder attempt failed", "err", err, "appointment_id", appt.ID)
		return
	}
	if !claimed {
		return
	}

	attempt := appt.ReminderCount + 1
	s.logger.Info("dispatching reminder",
		"appointment_id", appt.ID,
		"customer_id", cust.ID,
		"attempt", attempt,
	)

	body := ComposeReminder(cust.FullName, appt.AppointmentTime, s.cfg.TimeLocation)

	dispatchCtx, cancel := context.WithTimeout(ctx, s.cfg.DispatchTimeout)
	defer cancel()

	var outcomes []notify.Outcome
	if settings.EmailEnabled && cust.Email != "" {
		outcomes = append(outcomes, s.notifier.SendEmail(dispatchCtx, cust.Email, ReminderSubject, body))
	}
	if s.cfg.SMSReminders && cust.PhoneNumber != "" {
		outcomes = append(outcomes, s.notifier.SendSMS(dispatchCtx, cust.PhoneNumber, body))
	}

	s.recordEvent(ctx, appt, cust, attempt, outcomes)
}

func (s *Scheduler) recordEvent(ctx context.Context, appt model.Appointment, cust model.Customer, attempt int, outcomes []notify.Outcome) {
	if s.outbox == nil {
		return
	}

	delivered := false
	dispositions := make([]string, 0, len(outcomes))
	reasons := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Delivered {
			delivered = true
		}
		dispositions = append(dispositions, string(o.Disposition))
		if o.Reason != "" {
			reasons = append(reasons, o.Reason)
		}
	}

	eventType := "reminder.failed.v1"
	if delivered {
		eventType = "reminder.sent.v1"
	}
	payload, err := json.Marshal(map[string]any{
		"appointment_id":   appt.ID,
		"customer_id":      cust.ID,
		"appointment_time": appt.AppointmentTime.UTC().Format(time.RFC3339),
		"attempt":          attempt,
		"dispositions":     dispositions,
		"reasons":          reasons,
	})
	if err != nil {
		s.logger.Error("reminder event marshal failed", "err", err, "appointment_id", appt.ID)
		return
	}
	if err := s.outbox.Insert(ctx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   fmt.Sprintf("%d", appt.ID),
		EventType:     eventType,
		Payload:       payload,
	}); err != nil {
		s.logger.Error("reminder event insert failed", "err", err, "appointment_id", appt.ID)
	}
}
