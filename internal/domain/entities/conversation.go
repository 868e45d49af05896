package entities

import "strings"

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Turn is one user message or one bot response.
// Immutable once created; Seq is a logical monotonic timestamp.
type Turn struct {
	Role Role
	Text string
	Seq  uint64
}

// DefaultMaxExchanges is the default context window in user+bot pairs.
const DefaultMaxExchanges = 5

// Conversation is the bounded, ordered log of the most recent turns.
// Capacity is counted in exchange pairs: at most maxExchanges*2 turns are
// retained, evicted FIFO from the head. A Conversation belongs to exactly
// one session and is not safe for concurrent use.
type Conversation struct {
	maxTurns int
	seq      uint64
	turns    []Turn
}

// NewConversation creates an empty conversation window holding up to
// maxExchanges user+bot pairs.
func NewConversation(maxExchanges int) *Conversation {
	if maxExchanges <= 0 {
		maxExchanges = DefaultMaxExchanges
	}
	return &Conversation{maxTurns: maxExchanges * 2}
}

// Append adds a turn at the tail, evicting from the head once the window
// is exceeded. Returns the created turn.
func (c *Conversation) Append(role Role, text string) Turn {
	c.seq++
	turn := Turn{Role: role, Text: text, Seq: c.seq}
	c.turns = append(c.turns, turn)
	for len(c.turns) > c.maxTurns {
		c.turns = c.turns[1:]
	}
	return turn
}

// Render produces the deterministic textual form of the current window,
// oldest first, for prompt inclusion. An empty conversation renders to "".
func (c *Conversation) Render() string {
	var sb strings.Builder
	for _, t := range c.turns {
		switch t.Role {
		case RoleUser:
			sb.WriteString("User: ")
		case RoleBot:
			sb.WriteString("Bot: ")
		}
		sb.WriteString(t.Text)
		sb.WriteString("\n")
	}
	return sb.String()
}

// Clear resets the window to empty. The sequence counter keeps advancing
// so turns created after a reset still order after earlier ones.
func (c *Conversation) Clear() {
	c.turns = nil
}

// Len returns the number of retained turns.
func (c *Conversation) Len() int {
	return len(c.turns)
}

// Turns returns a copy of the retained turns, oldest first.
func (c *Conversation) Turns() []Turn {
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}
