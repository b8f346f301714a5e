package storage

import (
	"context"
	"time"

	"github.com/salontakip/reminderd/libs/db"
	"github.com/salontakip/reminderd/services/reminder-service/internal/model"
)

type AppointmentsRepository struct {
	pool         *db.Pool
	windowAhead  time.Duration
	minInterval  time.Duration
	maxReminders int
}

type AppointmentsConfig struct {
	WindowAhead  time.Duration
	MinInterval  time.Duration
	MaxReminders int
}

func NewAppointmentsRepository(pool *db.Pool, cfg AppointmentsConfig) *AppointmentsRepository {
	if cfg.WindowAhead <= 0 {
		cfg.WindowAhead = 30 * time.Minute
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 10 * time.Minute
	}
	if cfg.MaxReminders <= 0 {
		cfg.MaxReminders = 3
	}
	return &AppointmentsRepository{
		pool:         pool,
		windowAhead:  cfg.WindowAhead,
		minInterval:  cfg.MinInterval,
		maxReminders: cfg.MaxReminders,
	}
}

// FindReminderCandidates returns scheduled appointments starting within
// [now, now+window], still under the reminder cap, joined with the owning
// customer. Both window bounds are inclusive.
func (r *AppointmentsRepository) FindReminderCandidates(ctx context.Context, now time.Time) ([]model.ReminderCandidate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.customer_id, a.service_type, a.appointment_time, a.status,
			a.notification_sent, a.reminder_count, a.last_reminder_sent_at,
			c.id, c.full_name, c.phone_number, COALESCE(c.email, '')
		FROM appointments a
		INNER JOIN customers c ON c.id = a.customer_id
		WHERE a.status = $1
		  AND a.appointment_time >= $2
		  AND a.appointment_time <= $3
		  AND a.reminder_count < $4
		ORDER BY a.appointment_time
	`, model.StatusScheduled, now, now.Add(r.windowAhead), r.maxReminders)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []model.ReminderCandidate
	for rows.Next() {
		var c model.ReminderCandidate
		if err := rows.Scan(
			&c.Appointment.ID,
			&c.Appointment.CustomerID,
			&c.Appointment.ServiceType,
			&c.Appointment.AppointmentTime,
			&c.Appointment.Status,
			&c.Appointment.NotificationSent,
			&c.Appointment.ReminderCount,
			&c.Appointment.LastReminderSentAt,
			&c.Customer.ID,
			&c.Customer.FullName,
			&c.Customer.PhoneNumber,
			&c.Customer.Email,
		); err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return candidates, nil
}

// RecordReminderAttempt consumes one reminder slot for the appointment:
// reminder_count += 1, last_reminder_sent_at = sentAt. The cap, status and
// minimum-spacing checks live in the WHERE clause so that the read-then-write
// is a single atomic statement; a zero-row update means another cycle already
// claimed the slot (or the spacing window has not elapsed) and the caller
// must not dispatch.
func (r *AppointmentsRepository) RecordReminderAttempt(ctx context.Context, appointmentID int64, sentAt time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments
		SET reminder_count = reminder_count + 1,
		    last_reminder_sent_at = $2,
		    notification_sent = TRUE
		WHERE id = $1
		  AND status = $3
		  AND reminder_count < $4
		  AND (last_reminder_sent_at IS NULL OR last_reminder_sent_at <= $5)
	`, appointmentID, sentAt, model.StatusScheduled, r.maxReminders, sentAt.Add(-r.minInterval))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
