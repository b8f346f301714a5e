package storage

import (
	"context"
	"time"

	"github.com/salontakip/reminderd/libs/db"
)

type NotificationLog struct {
	Type         string
	Recipient    string
	Subject      string
	Status       string
	ErrorMessage string
	SentAt       time.Time
}

type LogsRepository struct {
	pool *db.Pool
}

func NewLogsRepository(pool *db.Pool) *LogsRepository {
	return &LogsRepository{pool: pool}
}

func (r *LogsRepository) Insert(ctx context.Context, entry NotificationLog) error {
	var errMsg *string
	if entry.ErrorMessage != "" {
		errMsg = &entry.ErrorMessage
	}
	if entry.SentAt.IsZero() {
		entry.SentAt = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notification_logs (type, recipient, subject, status, error_message, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, entry.Type, entry.Recipient, entry.Subject, entry.Status, errMsg, entry.SentAt)
	return err
}
