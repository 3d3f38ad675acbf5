package artifact

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkspaceLifecycle(t *testing.T) {
	store := NewMemStore()
	ws, err := store.Open("job-1")
	require.NoError(t, err)

	require.NoError(t, ws.WriteFile("section-01.md", []byte("# One")))
	assert.True(t, ws.Exists("section-01.md"))

	data, err := ws.ReadFile("section-01.md")
	require.NoError(t, err)
	assert.Equal(t, "# One", string(data))

	size, err := ws.Size("section-01.md")
	require.NoError(t, err)
	assert.EqualValues(t, 5, size)

	var buf bytes.Buffer
	n, err := ws.Copy(&buf, "section-01.md")
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)

	require.NoError(t, ws.Remove("section-01.md"))
	assert.False(t, ws.Exists("section-01.md"))
	require.NoError(t, ws.Remove("section-01.md"), "removing a missing file is not an error")

	require.NoError(t, ws.WriteFile("combined.md", []byte("x")))
	require.NoError(t, ws.Destroy())
	assert.False(t, ws.Exists("combined.md"))
}

func TestWorkspacePathStaysInside(t *testing.T) {
	ws, err := NewMemStore().Open("job")
	require.NoError(t, err)
	assert.Equal(t, ws.Dir()+"/passwd", ws.Path("../../etc/passwd"))
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "user_1_the_history_of_cats", SafeName("user/1:the history of cats"))
	assert.Equal(t, "", SafeName("  ../ "))
	_, err := NewMemStore().Open("../")
	assert.Error(t, err)
}
