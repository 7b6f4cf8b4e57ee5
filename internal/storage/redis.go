package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"Loremaster/server/internal/config"
	"Loremaster/server/internal/interfaces"
)

const (
	historyKeyPrefix  = "loremaster:history:"
	historyMaxEntries = 200
	historyTTL        = 24 * time.Hour
)

// RedisCache keeps a hot copy of each session's recent message history so
// prompt composition does not hit MySQL on every turn. It is strictly a
// cache: the durable history lives in the GameStore and a cache miss falls
// back to it.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(cfg config.RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisCache{client: client}, nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func historyKey(sessionID string) string {
	return historyKeyPrefix + sessionID
}

// CacheMessage appends one message to the session's cached history
func (c *RedisCache) CacheMessage(ctx context.Context, sessionID string, msg interfaces.ChatMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	key := historyKey(sessionID)
	if err := c.client.RPush(ctx, key, data).Err(); err != nil {
		return fmt.Errorf("failed to cache message: %w", err)
	}
	if err := c.client.LTrim(ctx, key, -int64(historyMaxEntries), -1).Err(); err != nil {
		return fmt.Errorf("failed to trim history: %w", err)
	}
	return c.client.Expire(ctx, key, historyTTL).Err()
}

// RecentMessages returns up to limit cached messages, oldest first. A nil
// slice with no error means the cache has nothing for this session.
func (c *RedisCache) RecentMessages(ctx context.Context, sessionID string, limit int) ([]interfaces.ChatMessage, error) {
	if limit <= 0 {
		limit = 20
	}

	// Newest entries sit at the tail of the list
	results, err := c.client.LRange(ctx, historyKey(sessionID), -int64(limit), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read cached history: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	messages := make([]interfaces.ChatMessage, 0, len(results))
	for _, result := range results {
		var msg interfaces.ChatMessage
		if err := json.Unmarshal([]byte(result), &msg); err != nil {
			continue // skip invalid entries
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// InvalidateSession drops the session's cached history
func (c *RedisCache) InvalidateSession(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, historyKey(sessionID)).Err()
}
