package book

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookforge-ai-api/internal/domain/entity"
)

func TestCompleteAppendsOnSuccess(t *testing.T) {
	m := &scriptedModel{reply: func(int, []*schema.Message) (string, error) {
		return "<think>hmm</think>Sure, here is the text:\nCats sleep a lot.", nil
	}}
	client := NewCompletionClient(staticFactory{model: m}, "fake", nil)
	conv := NewConversation("persona")

	reply, err := client.Complete(context.Background(), CompletionCall{
		Conversation: conv,
		Topic:        "cats",
		Prompt:       "write about cats",
		Stage:        PromptKindChapter,
		Profile:      MustProfile(ProfileBookSmall),
	})
	require.NoError(t, err)
	assert.Equal(t, "Cats sleep a lot.", reply)

	entries := conv.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, entity.RoleUser, entries[0].Role)
	assert.Equal(t, "write about cats", entries[0].Content)
	assert.Equal(t, entity.RoleAssistant, entries[1].Role)
	assert.Equal(t, "Cats sleep a lot.", entries[1].Content)
}

func TestCompleteLeavesConversationOnFailure(t *testing.T) {
	cases := []struct {
		name  string
		reply func(int, []*schema.Message) (string, error)
		want  error
	}{
		{"upstream", func(int, []*schema.Message) (string, error) { return "", errors.New("timeout") }, ErrUpstream},
		{"off topic", func(int, []*schema.Message) (string, error) { return "Dogs bark.", nil }, ErrIrrelevantReply},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := NewCompletionClient(staticFactory{model: &scriptedModel{reply: tc.reply}}, "fake", nil)
			conv := NewConversation("")
			_, err := client.Complete(context.Background(), CompletionCall{
				Conversation: conv, Topic: "cats", Prompt: "p", Stage: PromptKindChapter,
			})
			assert.ErrorIs(t, err, tc.want)
			assert.Zero(t, conv.Len())
		})
	}
}

func TestCompleteFactoryError(t *testing.T) {
	client := NewCompletionClient(staticFactory{err: errors.New("unknown provider")}, "missing", nil)
	_, err := client.Complete(context.Background(), CompletionCall{Conversation: NewConversation(""), Topic: "cats"})
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestCustomRelevance(t *testing.T) {
	m := &scriptedModel{reply: func(int, []*schema.Message) (string, error) { return "anything", nil }}
	always := RelevanceFunc(func(context.Context, string, string) bool { return true })
	client := NewCompletionClient(staticFactory{model: m}, "fake", always)

	reply, err := client.Complete(context.Background(), CompletionCall{Conversation: NewConversation(""), Topic: "cats", Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "anything", reply)
}
