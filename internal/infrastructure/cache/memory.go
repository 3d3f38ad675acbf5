// Package cache 提供 Redis 关闭时使用的进程内实现
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"bookforge-ai-api/internal/domain/entity"
	"bookforge-ai-api/pkg/metrics"
)

// MemoryCache 基于 go-cache 的读穿缓存
type MemoryCache struct {
	cache *gocache.Cache
	group singleflight.Group
}

// NewMemoryCache 创建进程内缓存
func NewMemoryCache(defaultTTL, cleanupInterval time.Duration) *MemoryCache {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	if cleanupInterval <= 0 {
		cleanupInterval = 10 * time.Minute
	}
	return &MemoryCache{cache: gocache.New(defaultTTL, cleanupInterval)}
}

// GetOrLoad 未命中时加载并缓存 JSON 编码结果
func (c *MemoryCache) GetOrLoad(_ context.Context, key string, ttl time.Duration, loader func() (interface{}, error)) ([]byte, error) {
	if v, ok := c.cache.Get(key); ok {
		metrics.CacheLookups.WithLabelValues("memory", "hit").Inc()
		return v.([]byte), nil
	}
	metrics.CacheLookups.WithLabelValues("memory", "miss").Inc()

	result, err, _ := c.group.Do(key, func() (interface{}, error) {
		if v, ok := c.cache.Get(key); ok {
			return v, nil
		}
		data, err := loader()
		if err != nil {
			return nil, err
		}
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal data: %w", err)
		}
		c.cache.Set(key, bytes, expiration(ttl))
		return bytes, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

// Delete 删除缓存
func (c *MemoryCache) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		c.cache.Delete(key)
	}
	return nil
}

// ConversationStore 进程内会话快照存储
type ConversationStore struct {
	cache *gocache.Cache
}

// NewConversationStore 创建进程内会话快照存储
func NewConversationStore(ttl time.Duration) *ConversationStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ConversationStore{cache: gocache.New(ttl, 10*time.Minute)}
}

// Save 保存快照副本
func (s *ConversationStore) Save(_ context.Context, snapshot *entity.ConversationSnapshot) error {
	cp := *snapshot
	cp.Entries = append([]entity.ConversationEntry(nil), snapshot.Entries...)
	s.cache.Set(snapshot.SessionKey, &cp, gocache.DefaultExpiration)
	return nil
}

// Get 读取快照，不存在时返回 nil
func (s *ConversationStore) Get(_ context.Context, sessionKey string) (*entity.ConversationSnapshot, error) {
	if x, found := s.cache.Get(sessionKey); found {
		return x.(*entity.ConversationSnapshot), nil
	}
	return nil, nil
}

// Delete 删除快照
func (s *ConversationStore) Delete(_ context.Context, sessionKey string) error {
	s.cache.Delete(sessionKey)
	return nil
}

func expiration(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return gocache.DefaultExpiration
	}
	return ttl
}
