package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/salontakip/reminderd/services/reminder-service/internal/model"
	"github.com/salontakip/reminderd/services/reminder-service/internal/storage"
)

type staticSettings struct {
	settings model.NotificationSettings
	err      error
}

func (s *staticSettings) NotificationSettings(context.Context) (model.NotificationSettings, error) {
	return s.settings, s.err
}

type recordingLog struct {
	entries []storage.NotificationLog
	err     error
}

func (l *recordingLog) Insert(_ context.Context, entry storage.NotificationLog) error {
	if l.err != nil {
		return l.err
	}
	l.entries = append(l.entries, entry)
	return nil
}

type stubEmailSender struct {
	err   error
	calls int
}

func (s *stubEmailSender) Send(context.Context, SMTPConfig, string, string, string) error {
	s.calls++
	return s.err
}

type stubSMSSender struct {
	err   error
	calls int
}

func (s *stubSMSSender) Send(context.Context, NetgsmConfig, string, string) error {
	s.calls++
	return s.err
}

func (s *stubSMSSender) ProviderID() string { return "stub" }

func configuredSettings() model.NotificationSettings {
	return model.NotificationSettings{
		EmailEnabled:   true,
		SMTPHost:       "smtp.example.com",
		SMTPPort:       587,
		SMTPUser:       "salon",
		SMTPPass:       "secret",
		SMSEnabled:     true,
		NetgsmUser:     "salon",
		NetgsmPassword: "secret",
		NetgsmHeader:   "SALONTAKIP",
	}
}

func newTestGateway(settings *staticSettings, logs *recordingLog, email *stubEmailSender, sms *stubSMSSender) *Gateway {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewGateway(settings, logs, email, sms, "Salon Takip", logger)
}

func TestSendEmail_Success(t *testing.T) {
	logs := &recordingLog{}
	email := &stubEmailSender{}
	g := newTestGateway(&staticSettings{settings: configuredSettings()}, logs, email, &stubSMSSender{})

	out := g.SendEmail(context.Background(), "ayse@example.com", "Randevu Hatırlatması", "merhaba")
	if out.Disposition != DispositionSent || !out.Delivered {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if email.calls != 1 {
		t.Fatalf("expected 1 provider call, got %d", email.calls)
	}
	if len(logs.entries) != 1 {
		t.Fatalf("expected 1 log row, got %d", len(logs.entries))
	}
	entry := logs.entries[0]
	if entry.Type != "email" || entry.Status != "success" || entry.Recipient != "ayse@example.com" {
		t.Fatalf("unexpected log entry %+v", entry)
	}
	if entry.ErrorMessage != "" {
		t.Fatalf("success row must carry no error message, got %q", entry.ErrorMessage)
	}
}

func TestSendEmail_ProviderFailureLogsError(t *testing.T) {
	logs := &recordingLog{}
	email := &stubEmailSender{err: errors.New("smtp dial: connection refused")}
	g := newTestGateway(&staticSettings{settings: configuredSettings()}, logs, email, &stubSMSSender{})

	out := g.SendEmail(context.Background(), "ayse@example.com", "Randevu Hatırlatması", "merhaba")
	if out.Disposition != DispositionFailed || out.Delivered {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if !out.Attempted() {
		t.Fatal("a provider failure is still an attempt")
	}
	if len(logs.entries) != 1 {
		t.Fatalf("expected 1 log row, got %d", len(logs.entries))
	}
	if logs.entries[0].Status != "error" || logs.entries[0].ErrorMessage == "" {
		t.Fatalf("expected error log row, got %+v", logs.entries[0])
	}
}

func TestSendEmail_DisabledChannelSkipsWithoutLog(t *testing.T) {
	settings := configuredSettings()
	settings.EmailEnabled = false
	logs := &recordingLog{}
	email := &stubEmailSender{}
	g := newTestGateway(&staticSettings{settings: settings}, logs, email, &stubSMSSender{})

	out := g.SendEmail(context.Background(), "ayse@example.com", "s", "b")
	if out.Disposition != DispositionSkipped {
		t.Fatalf("expected skipped, got %+v", out)
	}
	if out.Attempted() {
		t.Fatal("a skip is not an attempt")
	}
	if email.calls != 0 {
		t.Fatalf("expected no provider call, got %d", email.calls)
	}
	if len(logs.entries) != 0 {
		t.Fatalf("skips must not write log rows, got %d", len(logs.entries))
	}
}

func TestSendEmail_MissingCredentialsSkips(t *testing.T) {
	settings := configuredSettings()
	settings.SMTPPass = ""
	logs := &recordingLog{}
	email := &stubEmailSender{}
	g := newTestGateway(&staticSettings{settings: settings}, logs, email, &stubSMSSender{})

	out := g.SendEmail(context.Background(), "ayse@example.com", "s", "b")
	if out.Disposition != DispositionSkipped {
		t.Fatalf("expected skipped, got %+v", out)
	}
	if email.calls != 0 || len(logs.entries) != 0 {
		t.Fatalf("expected short-circuit, calls=%d logs=%d", email.calls, len(logs.entries))
	}
}

func TestSendSMS_Dispositions(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*model.NotificationSettings)
		smsErr  error
		want    Disposition
		calls   int
		logRows int
	}{
		{"success", func(*model.NotificationSettings) {}, nil, DispositionSent, 1, 1},
		{"provider error", func(*model.NotificationSettings) {}, errors.New("netgsm error: 30"), DispositionFailed, 1, 1},
		{"disabled", func(s *model.NotificationSettings) { s.SMSEnabled = false }, nil, DispositionSkipped, 0, 0},
		{"unconfigured", func(s *model.NotificationSettings) { s.NetgsmHeader = "" }, nil, DispositionSkipped, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			settings := configuredSettings()
			tc.mutate(&settings)
			logs := &recordingLog{}
			sms := &stubSMSSender{err: tc.smsErr}
			g := newTestGateway(&staticSettings{settings: settings}, logs, &stubEmailSender{}, sms)

			out := g.SendSMS(context.Background(), "+905551112233", "merhaba")
			if out.Disposition != tc.want {
				t.Fatalf("disposition = %s, want %s", out.Disposition, tc.want)
			}
			if sms.calls != tc.calls {
				t.Fatalf("provider calls = %d, want %d", sms.calls, tc.calls)
			}
			if len(logs.entries) != tc.logRows {
				t.Fatalf("log rows = %d, want %d", len(logs.entries), tc.logRows)
			}
		})
	}
}

func TestSendEmail_SettingsLoadFailure(t *testing.T) {
	logs := &recordingLog{}
	email := &stubEmailSender{}
	g := newTestGateway(&staticSettings{err: errors.New("connection reset")}, logs, email, &stubSMSSender{})

	out := g.SendEmail(context.Background(), "ayse@example.com", "s", "b")
	if out.Disposition != DispositionFailed {
		t.Fatalf("expected failed outcome, got %+v", out)
	}
	if email.calls != 0 || len(logs.entries) != 0 {
		t.Fatalf("expected no attempt, calls=%d logs=%d", email.calls, len(logs.entries))
	}
}

func TestSendEmail_LogInsertFailureDoesNotFlipOutcome(t *testing.T) {
	logs := &recordingLog{err: errors.New("disk full")}
	g := newTestGateway(&staticSettings{settings: configuredSettings()}, logs, &stubEmailSender{}, &stubSMSSender{})

	out := g.SendEmail(context.Background(), "ayse@example.com", "s", "b")
	if out.Disposition != DispositionSent || !out.Delivered {
		t.Fatalf("delivered send must stay delivered, got %+v", out)
	}
}
