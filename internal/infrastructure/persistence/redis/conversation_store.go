package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bookforge-ai-api/internal/domain/entity"
)

const conversationKeyPrefix = "conv:"

// ConversationStore 以 JSON 保存会话快照，键为 conv:{sessionKey}
type ConversationStore struct {
	client *Client
	ttl    time.Duration
}

// NewConversationStore 创建会话快照存储
func NewConversationStore(client *Client, ttl time.Duration) *ConversationStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ConversationStore{client: client, ttl: ttl}
}

// ConversationKey 快照键
func ConversationKey(sessionKey string) string {
	return conversationKeyPrefix + sessionKey
}

// Save 覆盖保存快照并刷新过期时间
func (s *ConversationStore) Save(ctx context.Context, snapshot *entity.ConversationSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation snapshot: %w", err)
	}
	return s.client.Set(ctx, ConversationKey(snapshot.SessionKey), data, s.ttl)
}

// Get 读取快照，不存在时返回 nil
func (s *ConversationStore) Get(ctx context.Context, sessionKey string) (*entity.ConversationSnapshot, error) {
	data, found, err := s.client.Get(ctx, ConversationKey(sessionKey))
	if err != nil || !found {
		return nil, err
	}
	return decodeSnapshot(data)
}

// Delete 删除快照
func (s *ConversationStore) Delete(ctx context.Context, sessionKey string) error {
	return s.client.Del(ctx, ConversationKey(sessionKey))
}

func decodeSnapshot(data []byte) (*entity.ConversationSnapshot, error) {
	var snap entity.ConversationSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation snapshot: %w", err)
	}
	return &snap, nil
}
