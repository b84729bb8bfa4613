package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Validate normalizes enum fields and checks values that would fail later.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	var errs []error

	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		errs = append(errs, errors.New("telegram.token is empty (set it or BOT_TOKEN)"))
	}

	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	switch cfg.Storage.Driver {
	case "", "file":
		cfg.Storage.Driver = "file"
		if strings.TrimSpace(cfg.Storage.Path) == "" {
			cfg.Storage.Path = DefaultStoragePath
		}
	case "sqlite", "sqlite3":
		cfg.Storage.Driver = "sqlite"
		if strings.TrimSpace(cfg.Storage.Path) == "" {
			errs = append(errs, errors.New("storage.path is required when storage.driver=sqlite"))
		}
	case "postgres", "postgresql":
		cfg.Storage.Driver = "postgres"
		if strings.TrimSpace(cfg.Storage.DSN) == "" {
			errs = append(errs, errors.New("storage.dsn is required when storage.driver=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver: %s", cfg.Storage.Driver))
	}

	cfg.Sessions.Driver = strings.ToLower(strings.TrimSpace(cfg.Sessions.Driver))
	switch cfg.Sessions.Driver {
	case "", "memory":
		cfg.Sessions.Driver = "memory"
	case "redis":
		if strings.TrimSpace(cfg.Sessions.RedisURL) == "" {
			errs = append(errs, errors.New("sessions.redis_url is required when sessions.driver=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown sessions.driver: %s", cfg.Sessions.Driver))
	}

	if tz := strings.TrimSpace(cfg.Scheduler.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			errs = append(errs, fmt.Errorf("scheduler.timezone: %w", err))
		}
	}
	if cfg.Registration.MinMembers < 0 {
		errs = append(errs, errors.New("registration.min_members must be >= 0"))
	}
	if cfg.Broadcast.RatePerSec < 0 {
		errs = append(errs, errors.New("broadcast.rate_per_sec must be >= 0"))
	}

	for path, raw := range map[string]string{
		"telegram.poll_timeout":  cfg.Telegram.PollTimeout,
		"storage.busy_timeout":   cfg.Storage.BusyTimeout,
		"sessions.ttl":           cfg.Sessions.TTL,
		"broadcast.timeout":      cfg.Broadcast.Timeout,
		"liveness.read_timeout":  cfg.Liveness.ReadTimeout,
		"liveness.write_timeout": cfg.Liveness.WriteTimeout,
	} {
		if _, err := ParseDurationField(path, raw); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
