package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookforge-ai-api/internal/domain/entity"
)

func TestMemoryCacheGetOrLoad(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	ctx := context.Background()
	loads := 0
	loader := func() (interface{}, error) {
		loads++
		return map[string]string{"id": "d1"}, nil
	}

	first, err := c.GetOrLoad(ctx, "share:t1", time.Minute, loader)
	require.NoError(t, err)
	second, err := c.GetOrLoad(ctx, "share:t1", time.Minute, loader)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"d1"}`, string(first))
	assert.Equal(t, first, second)
	assert.Equal(t, 1, loads)

	require.NoError(t, c.Delete(ctx, "share:t1"))
	_, err = c.GetOrLoad(ctx, "share:t1", time.Minute, loader)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
}

func TestMemoryCacheLoaderError(t *testing.T) {
	c := NewMemoryCache(0, 0)
	boom := errors.New("boom")
	_, err := c.GetOrLoad(context.Background(), "k", 0, func() (interface{}, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
}

func TestConversationStore(t *testing.T) {
	s := NewConversationStore(time.Minute)
	ctx := context.Background()

	entries := []entity.ConversationEntry{{Role: entity.RoleUser, Content: "hi"}}
	require.NoError(t, s.Save(ctx, &entity.ConversationSnapshot{SessionKey: "u1:cats", Entries: entries}))
	entries[0].Content = "mutated"

	got, err := s.Get(ctx, "u1:cats")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "hi", got.Entries[0].Content)

	require.NoError(t, s.Delete(ctx, "u1:cats"))
	got, err = s.Get(ctx, "u1:cats")
	require.NoError(t, err)
	assert.Nil(t, got)
}
