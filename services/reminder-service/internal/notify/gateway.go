package notify

import (
	"context"
	"log/slog"

	"github.com/salontakip/reminderd/services/reminder-service/internal/model"
	"github.com/salontakip/reminderd/services/reminder-service/internal/storage"
)

type Disposition string

const (
	DispositionSent    Disposition = "sent"
	DispositionFailed  Disposition = "failed"
	DispositionSkipped Disposition = "skipped"
)

// Outcome is the result of one dispatch. Delivered is true only for a real,
// accepted provider call. Skipped means the channel was disabled or not
// configured; no provider call happened and no log row was written.
type Outcome struct {
	Disposition Disposition
	Delivered   bool
	Reason      string
}

func (o Outcome) Attempted() bool {
	return o.Disposition != DispositionSkipped
}

type SettingsSource interface {
	NotificationSettings(ctx context.Context) (model.NotificationSettings, error)
}

type LogWriter interface {
	Insert(ctx context.Context, entry storage.NotificationLog) error
}

// Gateway attempts exactly one delivery per call and records an audit row
// per real attempt. It never returns an error to the caller: provider
// failures become a failed Outcome.
type Gateway struct {
	settings  SettingsSource
	logs      LogWriter
	email     EmailSender
	sms       SMSSender
	emailFrom string
	logger    *slog.Logger
}

func NewGateway(settings SettingsSource, logs LogWriter, email EmailSender, sms SMSSender, emailFrom string, logger *slog.Logger) *Gateway {
	return &Gateway{
		settings:  settings,
		logs:      logs,
		email:     email,
		sms:       sms,
		emailFrom: emailFrom,
		logger:    logger,
	}
}

func (g *Gateway) SendEmail(ctx context.Context, to string, subject string, body string) Outcome {
	settings, err := g.settings.NotificationSettings(ctx)
	if err != nil {
		g.logger.Error("notification settings load failed", "err", err)
		return Outcome{Disposition: DispositionFailed, Reason: "settings unavailable: " + err.Error()}
	}
	if !settings.EmailEnabled {
		g.logger.Info("email channel disabled, skipping", "recipient", to)
		return Outcome{Disposition: DispositionSkipped, Reason: "email disabled"}
	}
	if !settings.EmailConfigured() {
		g.logger.Info("smtp credentials missing, skipping", "recipient", to)
		return Outcome{Disposition: DispositionSkipped, Reason: "smtp not configured"}
	}

	cfg := SMTPConfig{
		Host: settings.SMTPHost,
		Port: settings.SMTPPort,
		User: settings.SMTPUser,
		Pass: settings.SMTPPass,
		From: g.emailFrom,
	}
	sendErr := g.email.Send(ctx, cfg, to, subject, body)
	g.writeLog(ctx, storage.NotificationLog{
		Type:         "email",
		Recipient:    to,
		Subject:      subject,
		Status:       logStatus(sendErr),
		ErrorMessage: errString(sendErr),
	})
	if sendErr != nil {
		g.logger.Error("email send failed", "err", sendErr, "recipient", to)
		return Outcome{Disposition: DispositionFailed, Reason: sendErr.Error()}
	}
	return Outcome{Disposition: DispositionSent, Delivered: true}
}

func (g *Gateway) SendSMS(ctx context.Context, to string, message string) Outcome {
	settings, err := g.settings.NotificationSettings(ctx)
	if err != nil {
		g.logger.Error("notification settings load failed", "err", err)
		return Outcome{Disposition: DispositionFailed, Reason: "settings unavailable: " + err.Error()}
	}
	if !settings.SMSEnabled {
		g.logger.Info("sms channel disabled, skipping", "recipient", to)
		return Outcome{Disposition: DispositionSkipped, Reason: "sms disabled"}
	}
	if !settings.SMSConfigured() {
		g.logger.Info("netgsm credentials missing, skipping", "recipient", to)
		return Outcome{Disposition: DispositionSkipped, Reason: "netgsm not configured"}
	}

	cfg := NetgsmConfig{
		User:     settings.NetgsmUser,
		Password: settings.NetgsmPassword,
		Header:   settings.NetgsmHeader,
	}
	sendErr := g.sms.Send(ctx, cfg, to, message)
	g.writeLog(ctx, storage.NotificationLog{
		Type:         "sms",
		Recipient:    to,
		Subject:      "SMS Notification",
		Status:       logStatus(sendErr),
		ErrorMessage: errString(sendErr),
	})
	if sendErr != nil {
		g.logger.Error("sms send failed", "err", sendErr, "recipient", to)
		return Outcome{Disposition: DispositionFailed, Reason: sendErr.Error()}
	}
	return Outcome{Disposition: DispositionSent, Delivered: true}
}

func (g *Gateway) writeLog(ctx context.Context, entry storage.NotificationLog) {
	if err := g.logs.Insert(ctx, entry); err != nil {
		// The audit trail is best-effort: a log insert failure must not turn
		// a delivered notification into a failed one.
		g.logger.Error("notification log insert failed", "err", err, "recipient", entry.Recipient)
	}
}

func logStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func errString(err error) string {
	if err != nil {
		return err.Error()
	}
	return ""
}
