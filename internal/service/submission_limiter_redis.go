package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Ventana deslizante sobre un sorted set: score = ms del envio.
// ARGV: ahora (ms), ventana (ms), maximo, miembro unico.
const slidingWindowScript = `
redis.call("ZREMRANGEBYSCORE", KEYS[1], "-inf", ARGV[1] - ARGV[2])
local count = redis.call("ZCARD", KEYS[1])
if count >= tonumber(ARGV[3]) then
  return 0
end
redis.call("ZADD", KEYS[1], ARGV[1], ARGV[4])
redis.call("PEXPIRE", KEYS[1], ARGV[2])
return 1
`

const limiterKeyPrefix = "kanji:answers:window:"

type scriptRunner interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

type redisSubmissionLimiter struct {
	client scriptRunner
	logger *zap.Logger
	window time.Duration
	max    int
	now    func() time.Time
}

// NewRedisSubmissionLimiter comparte la ventana entre instancias de la API.
// Si Redis falla se deja pasar el envio.
func NewRedisSubmissionLimiter(client *redis.Client, logger *zap.Logger, window time.Duration, max int) SubmissionLimiter {
	if client == nil {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	window, max = limiterDefaults(window, max)
	return &redisSubmissionLimiter{
		client: client,
		logger: logger,
		window: window,
		max:    max,
		now:    time.Now,
	}
}

func (l *redisSubmissionLimiter) Allow(ctx context.Context, sessionID string) bool {
	if l == nil || l.client == nil {
		return true
	}
	sessionID = strings.ToLower(strings.TrimSpace(sessionID))
	if sessionID == "" {
		return false
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	allowed, err := l.client.Eval(ctx, slidingWindowScript,
		[]string{limiterKeyPrefix + sessionID},
		l.now().UnixMilli(), l.window.Milliseconds(), l.max, uuid.NewString(),
	).Int()
	if err != nil {
		l.logger.Warn("redis limiter unavailable", zap.String("session_id", sessionID), zap.Error(err))
		return true
	}
	return allowed == 1
}
