package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skydesk/policyrag-go/internal/domain/entities"
	"github.com/skydesk/policyrag-go/internal/domain/ports"
)

// State is the orchestrator's position in a turn.
type State int

const (
	StateIdle State = iota
	StateEmbedding
	StateRetrieving
	StateFiltering
	StateRejecting
	StateAssembling
	StateGenerating
	StateRecording
)

// String returns the state name for logs and diagnostics.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateEmbedding:
		return "embedding"
	case StateRetrieving:
		return "retrieving"
	case StateFiltering:
		return "filtering"
	case StateRejecting:
		return "rejecting"
	case StateAssembling:
		return "assembling"
	case StateGenerating:
		return "generating"
	case StateRecording:
		return "recording"
	default:
		return "unknown"
	}
}

// RejectionMessage is the fixed reply for off-topic queries. Deliberately
// not produced by the generator, so scope enforcement is consistent
// regardless of model behavior.
const RejectionMessage = "I'm an airline customer support assistant. I can only help with flight bookings, baggage, cancellations, pets, fares, and other airline-related questions. Please ask something related to air travel."

// FallbackMessage is the reply recorded when generation fails; the
// conversation must not silently lose the turn.
const FallbackMessage = "Sorry, I wasn't able to put together an answer just now. Please ask your question again."

const systemInstruction = `You are a helpful airline customer support assistant. Answer questions using ONLY the policy information provided below.

IMPORTANT INSTRUCTIONS:
- Keep answers SHORT and DIRECT (2-4 sentences maximum)
- Only include the most relevant information
- Use bullet points only if listing multiple items
- Don't repeat information
- Be conversational but concise`

// ChatConfig holds the per-session tunables.
type ChatConfig struct {
	TopK              int
	DistanceThreshold float64
	MinAcceptable     int
	MaxExchanges      int
	EmbedTimeout      time.Duration
	GenerateTimeout   time.Duration
}

func (c ChatConfig) withDefaults() ChatConfig {
	if c.TopK <= 0 {
		c.TopK = 3
	}
	if c.DistanceThreshold <= 0 {
		c.DistanceThreshold = DefaultDistanceThreshold
	}
	if c.MinAcceptable <= 0 {
		c.MinAcceptable = DefaultMinAcceptable
	}
	if c.MaxExchanges <= 0 {
		c.MaxExchanges = entities.DefaultMaxExchanges
	}
	if c.EmbedTimeout <= 0 {
		c.EmbedTimeout = 30 * time.Second
	}
	if c.GenerateTimeout <= 0 {
		c.GenerateTimeout = 120 * time.Second
	}
	return c
}

// ChatSession drives one conversation through the per-turn state machine:
// Idle -> Embedding -> Retrieving -> Filtering -> {Rejecting | Assembling
// -> Generating -> Recording} -> Idle. Turns are single-flight: a second
// Ask blocks until the previous turn reaches Idle. Each session owns its
// Conversation and shares the read-mostly index handle.
type ChatSession struct {
	id        string
	embedder  ports.EmbeddingService
	generator ports.GeneratorService
	index     *ports.IndexHandle
	conv      *entities.Conversation
	cfg       ChatConfig
	logger    *zap.Logger

	mu    sync.Mutex
	state State
}

// NewChatSession creates a session with injected capabilities.
func NewChatSession(
	embedder ports.EmbeddingService,
	generator ports.GeneratorService,
	index *ports.IndexHandle,
	cfg ChatConfig,
	logger *zap.Logger,
) *ChatSession {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.NewString()
	return &ChatSession{
		id:        id,
		embedder:  embedder,
		generator: generator,
		index:     index,
		conv:      entities.NewConversation(cfg.MaxExchanges),
		cfg:       cfg,
		logger:    logger.With(zap.String("session", id)),
	}
}

// ID returns the session identifier.
func (s *ChatSession) ID() string {
	return s.id
}

// State reports the current machine state for diagnostics.
func (s *ChatSession) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// History returns a copy of the retained conversation turns.
func (s *ChatSession) History() []entities.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.Turns()
}

// Reset clears the conversation window.
func (s *ChatSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conv.Clear()
}

// Ask runs one full turn. Embedding and index failures return an error
// and leave the conversation untouched; an off-topic query or a
// generation failure still records exactly one user+bot pair. Per turn
// there is at most one index search, one generation call, and one
// context mutation.
func (s *ChatSession) Ask(ctx context.Context, query string) (*entities.TurnResult, error) {
	s.mu.Lock()
	defer func() {
		s.state = StateIdle
		s.mu.Unlock()
	}()

	cleaned := NormalizeQuery(query)
	if cleaned == "" {
		return nil, fmt.Errorf("empty query")
	}

	// Embedding
	s.state = StateEmbedding
	vector, err := s.embedQuery(ctx, cleaned)
	if err != nil {
		s.logger.Warn("query embedding failed", zap.Error(err))
		return nil, errors.Join(entities.ErrEmbedding, err)
	}

	// Retrieving
	s.state = StateRetrieving
	index := s.index.Load()
	if index == nil {
		return nil, entities.ErrIndexUnavailable
	}
	matches, err := index.Search(ctx, vector, s.cfg.TopK)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}
	s.logMatches(matches)

	// Filtering
	s.state = StateFiltering
	if !IsOnTopic(matches, s.cfg.DistanceThreshold, s.cfg.MinAcceptable) {
		s.state = StateRejecting
		s.record(cleaned, RejectionMessage)
		return &entities.TurnResult{Answer: RejectionMessage, Rejected: true, Matches: matches}, nil
	}

	// Assembling
	s.state = StateAssembling
	prompt := s.buildPrompt(cleaned, matches)

	// Generating
	s.state = StateGenerating
	answer, err := s.generate(ctx, prompt)
	if err != nil {
		s.logger.Warn("generation failed, recording fallback", zap.Error(err))
		s.state = StateRecording
		s.record(cleaned, FallbackMessage)
		return &entities.TurnResult{Answer: FallbackMessage, Matches: matches}, nil
	}

	// Recording
	s.state = StateRecording
	s.record(cleaned, answer)
	return &entities.TurnResult{Answer: answer, Matches: matches}, nil
}

func (s *ChatSession) embedQuery(ctx context.Context, cleaned string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.EmbedTimeout)
	defer cancel()

	vector, err := s.embedder.Embed(ctx, queryPrefix+cleaned)
	if err != nil {
		return nil, err
	}
	return normalizeVector(vector), nil
}

func (s *ChatSession) generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.GenerateTimeout)
	defer cancel()

	answer, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return "", errors.Join(entities.ErrGeneration, err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", fmt.Errorf("%w: generator returned empty text", entities.ErrGeneration)
	}
	return answer, nil
}

// record appends the user+bot pair - the single context mutation of a turn.
func (s *ChatSession) record(userText, botText string) {
	s.conv.Append(entities.RoleUser, userText)
	s.conv.Append(entities.RoleBot, botText)
}

// buildPrompt assembles the ephemeral prompt package: system instruction,
// accepted retrieved entries as bulleted Q/A context, rendered
// conversation, current query.
func (s *ChatSession) buildPrompt(query string, matches []entities.Match) string {
	var sb strings.Builder
	sb.WriteString(systemInstruction)
	sb.WriteString("\n\nRelevant Airline Policies:\n")
	for _, m := range matches {
		if m.Distance >= s.cfg.DistanceThreshold {
			continue
		}
		sb.WriteString("- Q: ")
		sb.WriteString(m.Entry.Question)
		sb.WriteString("\n  A: ")
		sb.WriteString(m.Entry.Answer)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(s.conv.Render())
	sb.WriteString("User: ")
	sb.WriteString(query)
	sb.WriteString("\nBot:")
	return sb.String()
}

func (s *ChatSession) logMatches(matches []entities.Match) {
	if ce := s.logger.Check(zap.DebugLevel, "retrieved policy matches"); ce != nil {
		sections := make([]string, len(matches))
		distances := make([]float64, len(matches))
		for i, m := range matches {
			sections[i] = m.Entry.Section
			distances[i] = m.Distance
		}
		ce.Write(zap.Strings("sections", sections), zap.Float64s("distances", distances))
	}
}
