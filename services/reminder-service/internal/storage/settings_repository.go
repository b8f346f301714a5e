package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/salontakip/reminderd/libs/db"
	"github.com/salontakip/reminderd/services/reminder-service/internal/model"
)

type SettingsRepository struct {
	pool *db.Pool
}

func NewSettingsRepository(pool *db.Pool) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

// NotificationSettings loads the singleton settings row. A missing row is
// not an error: it behaves as all channels disabled, which is also the
// web app's default before the salon configures anything.
func (r *SettingsRepository) NotificationSettings(ctx context.Context) (model.NotificationSettings, error) {
	var s model.NotificationSettings
	err := r.pool.QueryRow(ctx, `
		SELECT id,
			sms_enabled, COALESCE(netgsm_user, ''), COALESCE(netgsm_password, ''), COALESCE(netgsm_header, ''),
			email_enabled, COALESCE(smtp_host, ''), COALESCE(smtp_port, 587), COALESCE(smtp_user, ''), COALESCE(smtp_pass, '')
		FROM notification_settings
		ORDER BY id
		LIMIT 1
	`).Scan(
		&s.ID,
		&s.SMSEnabled,
		&s.NetgsmUser,
		&s.NetgsmPassword,
		&s.NetgsmHeader,
		&s.EmailEnabled,
		&s.SMTPHost,
		&s.SMTPPort,
		&s.SMTPUser,
		&s.SMTPPass,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.NotificationSettings{}, nil
	}
	if err != nil {
		return model.NotificationSettings{}, err
	}
	return s, nil
}
