package service

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"kanji-quiz/internal/domain"
)

// ResultCache guarda resultados ya persistidos para lecturas repetidas.
// Un fallo de cache nunca es fatal: el store sigue siendo la fuente de verdad.
type ResultCache interface {
	Get(ctx context.Context, sessionID string) (domain.Result, bool)
	Set(ctx context.Context, result domain.Result)
}

type redisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

type redisResultCache struct {
	client redisKV
	ttl    time.Duration
	prefix string
	logger *zap.Logger
}

// NewRedisResultCache codifica resultados con msgpack bajo quiz:result:<session>.
func NewRedisResultCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) ResultCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &redisResultCache{
		client: client,
		ttl:    ttl,
		prefix: "quiz:result:",
		logger: logger,
	}
}

func (c *redisResultCache) Get(ctx context.Context, sessionID string) (domain.Result, bool) {
	raw, err := c.client.Get(ctx, c.prefix+sessionID).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("result cache get failed", zap.Error(err), zap.String("session_id", sessionID))
		}
		return domain.Result{}, false
	}
	var result domain.Result
	if err := msgpack.Unmarshal(raw, &result); err != nil {
		c.logger.Warn("result cache decode failed", zap.Error(err), zap.String("session_id", sessionID))
		return domain.Result{}, false
	}
	return result, true
}

func (c *redisResultCache) Set(ctx context.Context, result domain.Result) {
	raw, err := msgpack.Marshal(result)
	if err != nil {
		c.logger.Warn("result cache encode failed", zap.Error(err), zap.String("session_id", result.SessionID))
		return
	}
	if err := c.client.Set(ctx, c.prefix+result.SessionID, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("result cache set failed", zap.Error(err), zap.String("session_id", result.SessionID))
	}
}
