package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	logx "promobot/pkg/logx"
)

const redisKeyPrefix = "promobot:session:"

// Redis stores sessions as JSON values with a TTL so pending flows survive
// restarts.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	log    logx.Logger
}

func OpenRedis(url string, ttl time.Duration, log logx.Logger) (*Redis, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("sessions.redis_url is required for redis driver")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	log.Info("session store ready", logx.String("driver", "redis"), logx.Duration("ttl", ttl))
	return &Redis{client: client, ttl: ttl, log: log}, nil
}

func redisKey(userID int64) string {
	return redisKeyPrefix + strconv.FormatInt(userID, 10)
}

func (r *Redis) Get(ctx context.Context, userID int64) (Session, error) {
	data, err := r.client.Get(ctx, redisKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{UserID: userID}, nil
	}
	if err != nil {
		return Session{}, fmt.Errorf("get session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		r.log.Warn("dropping unreadable session", logx.Int64("user_id", userID), logx.Err(err))
		_ = r.client.Del(ctx, redisKey(userID)).Err()
		return Session{UserID: userID}, nil
	}
	return s, nil
}

func (r *Redis) Put(ctx context.Context, s Session) error {
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = time.Now()
	}
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, redisKey(s.UserID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, userID int64) error {
	return r.client.Del(ctx, redisKey(userID)).Err()
}

func (r *Redis) Close() error { return r.client.Close() }
