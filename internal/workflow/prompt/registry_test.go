package prompt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleVars() map[string]any {
	return map[string]any{
		"topic":          "the history of cats",
		"chapter_count":  5,
		"chapter_number": 2,
		"subtopics":      3,
		"min_words":      400,
		"audience":       "general readers",
		"tone":           "friendly",
	}
}

func TestRegistryRenderAllTemplates(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	for _, set := range []TemplateSet{TemplateSetBook, TemplateSetResearch} {
		for _, id := range []PromptID{PromptTOC, PromptChapter, PromptClosing} {
			text, err := r.Render(ctx, set, id, sampleVars())
			require.NoError(t, err, "%s/%s", set, id)
			assert.Contains(t, text, "the history of cats", "%s/%s", set, id)
			assert.NotContains(t, text, "{topic}")
		}
	}
}

func TestRegistryChapterNumber(t *testing.T) {
	text, err := NewRegistry().Render(context.Background(), TemplateSetBook, PromptChapter, sampleVars())
	require.NoError(t, err)
	assert.Contains(t, text, "Chapter 2 of 5")
}

func TestRegistryCachesTemplates(t *testing.T) {
	r := NewRegistry()
	a, err := r.ChatTemplate(TemplateSetBook, PromptTOC)
	require.NoError(t, err)
	b, err := r.ChatTemplate(TemplateSetBook, PromptTOC)
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestRegistryUnknownTemplate(t *testing.T) {
	r := NewRegistry()
	_, err := r.ChatTemplate("poetry", PromptTOC)
	assert.Error(t, err)
	_, err = r.ChatTemplate(TemplateSetBook, "epilogue")
	assert.Error(t, err)
}

func TestPersona(t *testing.T) {
	assert.Contains(t, Persona(), "Table of Contents")
}
