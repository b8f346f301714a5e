package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/salontakip/reminderd/libs/config"
	"github.com/salontakip/reminderd/libs/db"
	"github.com/salontakip/reminderd/libs/httpx"
	"github.com/salontakip/reminderd/libs/kafkax"
	otelx "github.com/salontakip/reminderd/libs/otel"
	"github.com/salontakip/reminderd/libs/runtime"
	"github.com/salontakip/reminderd/services/reminder-service/internal/lock"
	"github.com/salontakip/reminderd/services/reminder-service/internal/notify"
	"github.com/salontakip/reminderd/services/reminder-service/internal/outbox"
	"github.com/salontakip/reminderd/services/reminder-service/internal/reminder"
	"github.com/salontakip/reminderd/services/reminder-service/internal/storage"
)

func main() {
	_ = godotenv.Load()

	service := config.String("SERVICE_NAME", "reminder-service")
	port, err := config.Port("PORT", "8086")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}

	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	appointmentsRepo := storage.NewAppointmentsRepository(pool, storage.AppointmentsConfig{
		WindowAhead:  config.Duration("REMINDER_WINDOW", 30*time.Minute),
		MinInterval:  config.Duration("REMINDER_MIN_INTERVAL", 10*time.Minute),
		MaxReminders: config.Int("REMINDER_MAX_ATTEMPTS", 3),
	})
	settingsRepo := storage.NewSettingsRepository(pool)
	logsRepo := storage.NewLogsRepository(pool)
	outboxRepo := outbox.NewRepository(pool)

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	emailFrom := config.String("EMAIL_FROM", "Salon Takip")
	smsProvider := strings.ToLower(config.String("SMS_PROVIDER", "netgsm"))
	var smsSender notify.SMSSender
	switch smsProvider {
	case "noop":
		smsSender = notify.NewNoopSMSSender()
	default:
		smsSender = notify.NewNetgsmSender(config.String("NETGSM_URL", ""))
	}
	gateway := notify.NewGateway(settingsRepo, logsRepo, notify.NewSMTPSender(), smsSender, emailFrom, logger)

	loc, err := time.LoadLocation(config.String("SALON_TIMEZONE", "Europe/Istanbul"))
	if err != nil {
		logger.Warn("invalid salon timezone, using UTC", "err", err)
		loc = time.UTC
	}

	var cycleLock reminder.CycleLock
	var rdb *redis.Client
	if addr := config.String("REDIS_ADDR", ""); addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: addr})
		defer rdb.Close()
		cycleLock = lock.NewRedisCycleLock(rdb, config.String("REMINDER_LOCK_KEY", ""))
	}

	scheduler := reminder.NewScheduler(appointmentsRepo, settingsRepo, gateway, outboxRepo, cycleLock, logger, reminder.Config{
		CronSpec:        config.String("REMINDER_CRON", "* * * * *"),
		MinInterval:     config.Duration("REMINDER_MIN_INTERVAL", 10*time.Minute),
		DispatchTimeout: config.Duration("DISPATCH_TIMEOUT", 15*time.Second),
		SMSReminders:    config.Bool("SMS_REMINDERS", false),
		TimeLocation:    loc,
	})
	if err := scheduler.Start(ctx); err != nil {
		logger.Error("scheduler start failed", "err", err)
		panic(err)
	}
	defer scheduler.Stop()

	checks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
	}
	if brokers := config.String("KAFKA_BROKERS", ""); brokers != "" {
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
	}
	if rdb != nil {
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: lock.ReadyCheck(rdb)})
	}

	mux := runtime.NewBaseMuxWithReady(checks...)
	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	handler = otelhttp.NewHandler(handler, "reminder")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
