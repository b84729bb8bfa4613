package app

import (
	"time"

	"promobot/internal/config"
	"promobot/internal/notifier/broadcast"
	"promobot/internal/observability/liveness"
	"promobot/internal/promo"
	"promobot/internal/session"
	"promobot/internal/storage"
	"promobot/internal/task/scheduler"
	logx "promobot/pkg/logx"
)

func mapLogging(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
		Telegram: logx.TelegramConfig{
			Enabled:    cfg.Logging.Telegram.Enabled,
			MinLevel:   cfg.Logging.Telegram.MinLevel,
			RatePerSec: cfg.Logging.Telegram.RatePerSec,
		},
	}
}

func mapPollTimeout(cfg *config.Config) (time.Duration, error) {
	return config.ParseDurationOrDefault("telegram.poll_timeout", cfg.Telegram.PollTimeout, 10*time.Second)
}

func mapStorageConfig(cfg *config.Config) (storage.Config, error) {
	sc := storage.Config{
		Driver: cfg.Storage.Driver,
		Path:   cfg.Storage.Path,
		DSN:    cfg.Storage.DSN,
	}
	if sc.Driver == "sqlite" {
		busy, err := config.ParseDurationOrDefault("storage.busy_timeout", cfg.Storage.BusyTimeout, time.Second)
		if err != nil {
			return storage.Config{}, err
		}
		sc.BusyTimeout = busy
	}
	return sc, nil
}

func mapSessions(cfg *config.Config) (session.Config, error) {
	ttl, err := config.ParseDurationOrDefault("sessions.ttl", cfg.Sessions.TTL, session.DefaultTTL)
	if err != nil {
		return session.Config{}, err
	}
	return session.Config{Driver: cfg.Sessions.Driver, RedisURL: cfg.Sessions.RedisURL, TTL: ttl}, nil
}

func mapScheduler(cfg *config.Config) scheduler.Config {
	return scheduler.Config{Timezone: cfg.Scheduler.Timezone}
}

func mapBroadcast(cfg *config.Config) (broadcast.Config, error) {
	timeout, err := config.ParseDurationField("broadcast.timeout", cfg.Broadcast.Timeout)
	if err != nil {
		return broadcast.Config{}, err
	}
	rps := cfg.Broadcast.RatePerSec
	if rps <= 0 {
		rps = broadcast.DefaultRatePerSec
	}
	return broadcast.Config{RatePerSec: rps, Timeout: timeout}, nil
}

func mapPromo(cfg *config.Config) (promo.Config, error) {
	timeout, err := config.ParseDurationField("broadcast.timeout", cfg.Broadcast.Timeout)
	if err != nil {
		return promo.Config{}, err
	}
	return promo.Config{MinMembers: cfg.Registration.MinMembers, BroadcastTimeout: timeout}, nil
}

func mapLiveness(cfg *config.Config) (liveness.Config, error) {
	rt, err := config.ParseDurationOrDefault("liveness.read_timeout", cfg.Liveness.ReadTimeout, 5*time.Second)
	if err != nil {
		return liveness.Config{}, err
	}
	wt, err := config.ParseDurationOrDefault("liveness.write_timeout", cfg.Liveness.WriteTimeout, 5*time.Second)
	if err != nil {
		return liveness.Config{}, err
	}
	return liveness.Config{
		Enabled:      cfg.Liveness.Enabled,
		Addr:         cfg.Liveness.Addr,
		ReadTimeout:  rt,
		WriteTimeout: wt,
		IdleTimeout:  60 * time.Second,
	}, nil
}

// validateReload rejects a reloaded config that any live component would
// refuse to apply.
func validateReload(cfg *config.Config) error {
	if _, err := mapBroadcast(cfg); err != nil {
		return err
	}
	if _, err := mapPromo(cfg); err != nil {
		return err
	}
	if _, err := mapLiveness(cfg); err != nil {
		return err
	}
	_, err := mapStorageConfig(cfg)
	return err
}
