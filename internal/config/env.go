package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// Variables already set win. A missing file is ignored.
func LoadDotEnv(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg from the deployment environment.
//
//	BOT_TOKEN     telegram.token
//	PORT          liveness.addr (":PORT")
//	TZ            scheduler.timezone
//	DATA_FILE     storage.path (file driver)
//	DATABASE_URL  storage.driver=postgres, storage.dsn
//	REDIS_URL     sessions.driver=redis, sessions.redis_url
func ApplyEnv(cfg *Config, getenv func(string) string) {
	get := func(k string) string { return strings.TrimSpace(getenv(k)) }

	if v := get("BOT_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := get("PORT"); v != "" {
		cfg.Liveness.Addr = ":" + strings.TrimPrefix(v, ":")
	}
	if v := get("TZ"); v != "" {
		cfg.Scheduler.Timezone = v
	}
	if v := get("DATA_FILE"); v != "" && (cfg.Storage.Driver == "" || cfg.Storage.Driver == "file") {
		cfg.Storage.Driver = "file"
		cfg.Storage.Path = v
	}
	if v := get("DATABASE_URL"); v != "" {
		cfg.Storage.Driver = "postgres"
		cfg.Storage.DSN = v
	}
	if v := get("REDIS_URL"); v != "" {
		cfg.Sessions.Driver = "redis"
		cfg.Sessions.RedisURL = v
	}
}
