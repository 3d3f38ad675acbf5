package book

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPromptsShape(t *testing.T) {
	for _, profile := range Profiles() {
		t.Run(profile.Name, func(t *testing.T) {
			prompts, err := BuildPrompts(context.Background(), "the history of cats", profile)
			require.NoError(t, err)
			require.Len(t, prompts, profile.ChapterCount+2)

			assert.Equal(t, PromptKindTOC, prompts[0].Kind)
			assert.False(t, prompts[0].IncludeTOC)
			assert.Contains(t, prompts[0].Text, "Table of Contents")

			last := prompts[len(prompts)-1]
			assert.Equal(t, PromptKindClosing, last.Kind)
			assert.Contains(t, last.Text, "References")

			for i, p := range prompts {
				assert.Equal(t, i, p.Index)
			}
			for i := 1; i <= profile.ChapterCount; i++ {
				p := prompts[i]
				assert.Equal(t, PromptKindChapter, p.Kind)
				assert.Equal(t, i, p.Chapter)
				assert.True(t, p.IncludeTOC)
				assert.Contains(t, p.Text, "the history of cats")
			}
		})
	}
}

func TestBuildPromptsProfileParameters(t *testing.T) {
	prompts, err := BuildPrompts(context.Background(), "cats", MustProfile(ProfileBookLong))
	require.NoError(t, err)
	assert.Contains(t, prompts[0].Text, "exactly 10 chapters")
	assert.Contains(t, prompts[0].Text, "at least 1200 words")

	research, err := BuildPrompts(context.Background(), "cats", MustProfile(ProfileResearchPaper))
	require.NoError(t, err)
	assert.Contains(t, research[1].Text, "Section 1 of 5")
	assert.Contains(t, research[len(research)-1].Text, "bibliography")
}

func TestBuildPromptsRejectsEmptyTopic(t *testing.T) {
	_, err := BuildPrompts(context.Background(), "   ", MustProfile(ProfileBookSmall))
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestBuiltinProfiles(t *testing.T) {
	expected := map[string][2]int{
		ProfileBookSmall:         {5, 400},
		ProfileBookMedium:        {10, 600},
		ProfileBookLong:          {10, 1200},
		ProfileResearchPaper:     {5, 500},
		ProfileResearchPaperLong: {10, 1000},
	}
	require.Len(t, Profiles(), len(expected))
	for name, want := range expected {
		p, ok := LookupProfile(name)
		require.True(t, ok, name)
		assert.NoError(t, p.Validate())
		assert.Equal(t, want[0], p.ChapterCount, name)
		assert.Equal(t, want[1], p.MinWordsPerChapter, name)
	}
	_, ok := LookupProfile("novel")
	assert.False(t, ok)
}
