package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"hireflow/internal/logger"
)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	TTL          time.Duration
	PollInterval time.Duration
}

// RedisLocker holds locks across server instances with SET NX PX and
// token-checked release. Local waiters are queued in-process first so a
// single instance does not hammer Redis.
type RedisLocker struct {
	client *redis.Client
	local  *LocalLocker
	ttl    time.Duration
	poll   time.Duration
}

// NewLocker returns a RedisLocker when Redis answers a ping, otherwise a
// LocalLocker.
func NewLocker(ctx context.Context, cfg RedisConfig) Locker {
	if cfg.Addr == "" {
		logger.Info("Redis address not configured, using in-process locks")
		return NewLocalLocker()
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	logger.ExternalServiceCall("redis", "PING", "addr", cfg.Addr)
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.ExternalServiceResult("redis", "PING", err, "addr", cfg.Addr)
		logger.Warn("Redis unavailable, using in-process locks", "addr", cfg.Addr)
		_ = client.Close()
		return NewLocalLocker()
	}
	return NewRedisLocker(client, cfg.TTL, cfg.PollInterval)
}

func NewRedisLocker(client *redis.Client, ttl, poll time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if poll <= 0 {
		poll = 25 * time.Millisecond
	}
	return &RedisLocker{client: client, local: NewLocalLocker(), ttl: ttl, poll: poll}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	releaseLocal, err := l.local.Lock(ctx, key)
	if err != nil {
		return nil, err
	}

	redisKey := "hireflow:lock:" + key
	token := uuid.NewString()
	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()
	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			releaseLocal()
			return nil, err
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			releaseLocal()
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{redisKey}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			logger.Warn("Failed to release lock", "key", key, "error", err)
		}
		releaseLocal()
	}, nil
}

func (l *RedisLocker) Close() error {
	return l.client.Close()
}
