package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookforge-ai-api/internal/config"
	"bookforge-ai-api/internal/domain/entity"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "conv:u1:cats", ConversationKey("u1:cats"))
	assert.Equal(t, "ratelimit:u1:generate", BuildRateLimitKey("u1", "generate"))
}

func TestDecodeSnapshot(t *testing.T) {
	snap, err := decodeSnapshot([]byte(`{"session_key":"u1:cats","job_id":"j1","entries":[{"role":"user","content":"hi"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "u1:cats", snap.SessionKey)
	require.Len(t, snap.Entries, 1)
	assert.Equal(t, entity.RoleUser, snap.Entries[0].Role)

	_, err = decodeSnapshot([]byte("{"))
	assert.Error(t, err)
}

func TestIsNil(t *testing.T) {
	assert.False(t, IsNil(nil))
}

func TestOptions(t *testing.T) {
	opts := options(&config.RedisConfig{Host: "cache", Port: 6380, DB: 2})
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, defaultPoolSize, opts.PoolSize)
	assert.Equal(t, clientName, opts.ClientName)

	opts = options(&config.RedisConfig{Host: "cache", Port: 6379, PoolSize: 50})
	assert.Equal(t, 50, opts.PoolSize)
}
