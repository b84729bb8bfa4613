package config

// Config is the full bot configuration. Durations are Go duration strings
// (e.g. "10s", "2m") parsed with ParseDurationField.
type Config struct {
	Telegram     TelegramConfig     `json:"telegram"`
	Logging      LoggingConfig      `json:"logging"`
	Scheduler    SchedulerConfig    `json:"scheduler"`
	Storage      StorageConfig      `json:"storage"`
	Sessions     SessionsConfig     `json:"sessions"`
	Registration RegistrationConfig `json:"registration"`
	Broadcast    BroadcastConfig    `json:"broadcast"`
	Liveness     LivenessConfig     `json:"liveness"`
}

type TelegramConfig struct {
	Token       string `json:"token"`
	PollTimeout string `json:"poll_timeout,omitempty"`
}

type LoggingConfig struct {
	Level    string          `json:"level"`
	Console  bool            `json:"console"`
	File     LoggingFile     `json:"file"`
	Telegram LoggingTelegram `json:"telegram"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// LoggingTelegram forwards records >= MinLevel to the admin chat.
type LoggingTelegram struct {
	Enabled    bool   `json:"enabled"`
	MinLevel   string `json:"min_level,omitempty"`
	RatePerSec int    `json:"rate_per_sec,omitempty"`
}

type SchedulerConfig struct {
	// Timezone is an IANA name; empty means the server's local zone.
	Timezone string `json:"timezone,omitempty"`
}

// StorageConfig selects the persistence driver.
//
// Example:
//
//	"storage": { "driver": "sqlite", "path": "./promobot.db" }
type StorageConfig struct {
	Driver      string `json:"driver,omitempty"` // file (default) | sqlite | postgres
	Path        string `json:"path,omitempty"`
	DSN         string `json:"dsn,omitempty"` // postgres; never logged
	BusyTimeout string `json:"busy_timeout,omitempty"`
}

type SessionsConfig struct {
	Driver   string `json:"driver,omitempty"` // memory (default) | redis
	RedisURL string `json:"redis_url,omitempty"`
	TTL      string `json:"ttl,omitempty"`
}

type RegistrationConfig struct {
	MinMembers int `json:"min_members,omitempty"`
}

type BroadcastConfig struct {
	RatePerSec float64 `json:"rate_per_sec,omitempty"`
	Timeout    string  `json:"timeout,omitempty"`
}

// LivenessConfig controls the keep-alive HTTP endpoint polled by uptime monitors.
type LivenessConfig struct {
	Enabled      bool   `json:"enabled"`
	Addr         string `json:"addr,omitempty"`
	ReadTimeout  string `json:"read_timeout,omitempty"`
	WriteTimeout string `json:"write_timeout,omitempty"`
}

const (
	DefaultMinMembers   = 50
	DefaultStoragePath  = "bot_data.json"
	DefaultLivenessAddr = ":8080"
	DefaultBroadcastRPS = 20
)

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		Logging:      LoggingConfig{Level: "INFO", Console: true},
		Storage:      StorageConfig{Driver: "file", Path: DefaultStoragePath},
		Sessions:     SessionsConfig{Driver: "memory"},
		Registration: RegistrationConfig{MinMembers: DefaultMinMembers},
		Broadcast:    BroadcastConfig{RatePerSec: DefaultBroadcastRPS, Timeout: "10m"},
		Liveness:     LivenessConfig{Enabled: true, Addr: DefaultLivenessAddr},
	}
}
