package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	logx "promobot/pkg/logx"
)

// Store keeps sessions by user id. Get on an unknown user returns an idle session.
type Store interface {
	Get(ctx context.Context, userID int64) (Session, error)
	Put(ctx context.Context, s Session) error
	Delete(ctx context.Context, userID int64) error
	Close() error
}

type Config struct {
	Driver   string // memory | redis
	RedisURL string
	TTL      time.Duration
}

const DefaultTTL = 24 * time.Hour

func Open(cfg Config, log logx.Logger) (Store, error) {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "memory":
		return NewMemory(ttl), nil
	case "redis":
		return OpenRedis(cfg.RedisURL, ttl, log)
	default:
		return nil, fmt.Errorf("unknown sessions driver: %s", cfg.Driver)
	}
}

// Save stores s, or deletes it when it is idle.
func Save(ctx context.Context, st Store, s Session) error {
	if s.State == Idle {
		return st.Delete(ctx, s.UserID)
	}
	return st.Put(ctx, s)
}
