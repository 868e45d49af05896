package entities

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversation_AppendAndRender(t *testing.T) {
	conv := NewConversation(3)

	conv.Append(RoleUser, "can i bring my cat")
	conv.Append(RoleBot, "Yes, small pets fly in the cabin.")

	want := "User: can i bring my cat\nBot: Yes, small pets fly in the cabin.\n"
	assert.Equal(t, want, conv.Render())
	assert.Equal(t, 2, conv.Len())
}

func TestConversation_EmptyRendersEmpty(t *testing.T) {
	conv := NewConversation(3)
	assert.Equal(t, "", conv.Render())
}

func TestConversation_EvictsOldestPairs(t *testing.T) {
	// Window of N pairs: after 2N+2 turns only the last N pairs remain.
	const pairs = 3
	conv := NewConversation(pairs)

	for i := 0; i < pairs+1; i++ {
		conv.Append(RoleUser, fmt.Sprintf("question %d", i))
		conv.Append(RoleBot, fmt.Sprintf("answer %d", i))
	}

	require.Equal(t, pairs*2, conv.Len())

	rendered := conv.Render()
	assert.NotContains(t, rendered, "question 0")
	assert.NotContains(t, rendered, "answer 0")
	for i := 1; i <= pairs; i++ {
		assert.Contains(t, rendered, fmt.Sprintf("question %d", i))
	}

	// Oldest first, never reordered.
	first := strings.Index(rendered, "question 1")
	last := strings.Index(rendered, "question 3")
	assert.Less(t, first, last)
}

func TestConversation_ClearResets(t *testing.T) {
	conv := NewConversation(2)
	conv.Append(RoleUser, "hello")
	conv.Append(RoleBot, "hi")

	conv.Clear()

	assert.Equal(t, 0, conv.Len())
	assert.Equal(t, "", conv.Render())
}

func TestConversation_SequenceMonotonic(t *testing.T) {
	conv := NewConversation(2)
	a := conv.Append(RoleUser, "one")
	conv.Clear()
	b := conv.Append(RoleUser, "two")

	// Clearing must not recycle logical timestamps.
	assert.Greater(t, b.Seq, a.Seq)
}

func TestConversation_TurnsReturnsCopy(t *testing.T) {
	conv := NewConversation(2)
	conv.Append(RoleUser, "original")

	turns := conv.Turns()
	turns[0].Text = "mutated"

	assert.Equal(t, "original", conv.Turns()[0].Text)
}

func TestConversation_DefaultCapacity(t *testing.T) {
	conv := NewConversation(0)
	for i := 0; i < DefaultMaxExchanges*2+4; i++ {
		conv.Append(RoleUser, "q")
		conv.Append(RoleBot, "a")
	}
	assert.Equal(t, DefaultMaxExchanges*2, conv.Len())
}
