package service

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"kanji-quiz/internal/domain"
)

type mockRedisKV struct {
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
}

func newMockRedisKV() *mockRedisKV {
	return &mockRedisKV{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *mockRedisKV) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	if m.getErr != nil {
		cmd.SetErr(m.getErr)
		return cmd
	}
	raw, ok := m.data[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(string(raw))
	return cmd
}

func (m *mockRedisKV) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	m.data[key] = value.([]byte)
	m.ttls[key] = expiration
	cmd.SetVal("OK")
	return cmd
}

func TestRedisResultCacheRoundTrip(t *testing.T) {
	kv := newMockRedisKV()
	cache := &redisResultCache{client: kv, ttl: time.Hour, prefix: "quiz:result:", logger: zap.NewNop()}
	ctx := context.Background()

	if _, ok := cache.Get(ctx, "s1"); ok {
		t.Fatalf("expected miss on empty cache")
	}

	result := domain.Result{
		SessionID:   "s1",
		CandidateID: "onwa",
		Subtype:     "peace_rest",
		Labels:      domain.Labels{"motivation": "stability"},
		Traits:      domain.TraitVector{"stability": 9},
		Kanji:       "穏和",
		Meaning:     domain.LocalizedText{"en": "calm harmony"},
		GeneratedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	cache.Set(ctx, result)
	if kv.ttls["quiz:result:s1"] != time.Hour {
		t.Fatalf("expected ttl to be applied, got %v", kv.ttls)
	}

	got, ok := cache.Get(ctx, "s1")
	if !ok {
		t.Fatalf("expected hit after set")
	}
	if got.Kanji != result.Kanji || got.Subtype != result.Subtype || !got.GeneratedAt.Equal(result.GeneratedAt) {
		t.Fatalf("unexpected cached result %+v", got)
	}
	if !reflect.DeepEqual(got.Traits, result.Traits) || !reflect.DeepEqual(got.Labels, result.Labels) {
		t.Fatalf("expected maps to survive encoding, got %+v", got)
	}
}

func TestRedisResultCacheErrorsAreMisses(t *testing.T) {
	kv := newMockRedisKV()
	kv.getErr = errors.New("redis down")
	cache := &redisResultCache{client: kv, ttl: time.Hour, prefix: "quiz:result:", logger: zap.NewNop()}
	if _, ok := cache.Get(context.Background(), "s1"); ok {
		t.Fatalf("expected miss on redis error")
	}

	kv.getErr = nil
	kv.data["quiz:result:s2"] = []byte("not msgpack")
	if _, ok := cache.Get(context.Background(), "s2"); ok {
		t.Fatalf("expected miss on undecodable payload")
	}
}
