package config

import (
	logx "promobot/pkg/logx"
)

// SummarizeConfigChange lists changed sections and safe log fields.
// Secrets (token, dsn, redis url) are never included.
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}
	var changed []string
	var attrs []logx.Field

	if oldCfg.Telegram != newCfg.Telegram {
		changed = append(changed, "telegram")
	}
	if oldCfg.Logging != newCfg.Logging {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.telegram", newCfg.Logging.Telegram.Enabled),
		)
	}
	if oldCfg.Scheduler != newCfg.Scheduler {
		changed = append(changed, "scheduler")
		attrs = append(attrs, logx.String("scheduler.timezone", newCfg.Scheduler.Timezone))
	}
	if oldCfg.Storage != newCfg.Storage {
		changed = append(changed, "storage")
		attrs = append(attrs, logx.String("storage.driver", newCfg.Storage.Driver))
	}
	if oldCfg.Sessions != newCfg.Sessions {
		changed = append(changed, "sessions")
	}
	if oldCfg.Registration != newCfg.Registration {
		changed = append(changed, "registration")
		attrs = append(attrs, logx.Int("registration.min_members", newCfg.Registration.MinMembers))
	}
	if oldCfg.Broadcast != newCfg.Broadcast {
		changed = append(changed, "broadcast")
		attrs = append(attrs, logx.Any("broadcast.rate_per_sec", newCfg.Broadcast.RatePerSec))
	}
	if oldCfg.Liveness != newCfg.Liveness {
		changed = append(changed, "liveness")
		attrs = append(attrs, logx.Bool("liveness.enabled", newCfg.Liveness.Enabled))
	}
	return changed, attrs
}

// RestartRequired lists changed sections that only take effect after a restart.
func RestartRequired(oldCfg, newCfg *Config) []string {
	var out []string
	if oldCfg == nil || newCfg == nil {
		return out
	}
	if oldCfg.Telegram != newCfg.Telegram {
		out = append(out, "telegram")
	}
	if oldCfg.Storage != newCfg.Storage {
		out = append(out, "storage")
	}
	if oldCfg.Sessions != newCfg.Sessions {
		out = append(out, "sessions")
	}
	return out
}
