package cmd

import (
	"context"
	stderrors "errors"
	"os"
	"os/signal"
	"syscall"

	"ikonwatch/config"
	"ikonwatch/internal/ikon"
	"ikonwatch/logger"
	"ikonwatch/services/availability"
	"ikonwatch/services/notify"
	"ikonwatch/services/session"
	"ikonwatch/services/store"
	"ikonwatch/services/worker"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run the availability watch loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			godotenv.Load()
			logger.Init()
			log := logger.Default

			cfg := config.LoadConfig()
			if err := cfg.Validate(); err != nil {
				return err
			}

			log.Info().
				Str("environment", cfg.Environment).
				Dur("poll_interval", cfg.PollInterval).
				Str("state_backend", cfg.StateBackend).
				Msg("Starting ikonwatch")

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st := newStore(cfg)
			defer st.Close()

			desired := availability.NewDateSet(cfg.DesiredDates...)

			gate := notify.NewGate(newNotifiers(cfg), st, desired, cfg.NotifyMaxRetries, cfg.NotifyBackoffBase)
			if err := gate.Restore(ctx); err != nil {
				// a cold dedup set only risks one repeat alert, not worth dying for
				log.Warn().Err(err).Msg("Could not restore notified dates, starting empty")
			}

			client := ikon.NewClient(cfg.LoginURL, ikon.Credentials{
				Email:    cfg.LoginEmail,
				Password: cfg.LoginPassword,
			})
			guard := session.NewGuard(
				session.LoginFunc(func(ctx context.Context) (availability.Session, error) {
					return client.Login(ctx)
				}),
				session.Policy{
					MaxAge:      cfg.SessionMaxAge,
					MaxAttempts: cfg.LoginMaxAttempts,
					BackoffBase: cfg.LoginBackoffBase,
					BackoffMax:  cfg.LoginBackoffMax,
				},
			)

			fetcher := availability.NewFetcher(cfg.FetchURL, cfg.DesiredDates, cfg.FetchMaxRetries, cfg.FetchBackoffBase)

			w := worker.NewWorker(guard, fetcher, gate, desired, cfg.PollInterval)
			err := w.Run(ctx)
			if err == nil || stderrors.Is(err, context.Canceled) {
				log.Info().Msg("Shutting down gracefully")
				return nil
			}
			return err
		},
	}
}

func newStore(cfg *config.Config) store.Store {
	switch cfg.StateBackend {
	case config.StateBackendRedis:
		logger.Info("Persisting notified dates to Redis at %s (DB: %d)", cfg.RedisAddr, cfg.RedisDB)
		return store.NewRedisStore(cfg.RedisAddr, cfg.RedisDB, cfg.StateKey)
	case config.StateBackendMemcache:
		logger.Info("Persisting notified dates to Memcache at %s", cfg.MemcacheAddr)
		return store.NewMemcacheStore(cfg.MemcacheAddr, cfg.StateKey)
	default:
		return store.NewMemoryStore()
	}
}

func newNotifiers(cfg *config.Config) []notify.Notifier {
	notifiers := []notify.Notifier{
		notify.NewSinchNotifier(notify.SinchConfig{
			KeyID:      cfg.SinchKeyID,
			KeySecret:  cfg.SinchKeySecret,
			ProjectID:  cfg.SinchProjectID,
			FromNumber: cfg.SinchFromNumber,
			ToNumbers:  cfg.SinchToNumbers,
			Region:     cfg.SinchRegion,
		}),
	}
	if cfg.EmailEnabled() {
		notifiers = append(notifiers, notify.NewEmailNotifier(notify.EmailConfig{
			Addr:     cfg.SMTPAddr,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			To:       cfg.SMTPTo,
		}))
	}
	return notifiers
}
