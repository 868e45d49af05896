// Package console provides the interactive terminal session loop.
// Clean Architecture: Framework/driver layer - outermost circle.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/skydesk/policyrag-go/internal/domain/entities"
	"github.com/skydesk/policyrag-go/internal/domain/usecases"
)

// ErrorMessage is shown when a turn fails before anything could be
// recorded (embedding or index failure). The session stays alive.
const ErrorMessage = "Sorry, something went wrong on my side. Please try again in a moment."

// Console runs a read-answer loop over one chat session.
type Console struct {
	session *usecases.ChatSession
	in      io.Reader
	out     io.Writer
	verbose bool
	logger  *zap.Logger
}

// New creates a console bound to the given session and streams.
func New(session *usecases.ChatSession, in io.Reader, out io.Writer, verbose bool, logger *zap.Logger) *Console {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Console{
		session: session,
		in:      in,
		out:     out,
		verbose: verbose,
		logger:  logger,
	}
}

// Run processes queries until EOF, "exit", or ctx cancellation.
// "reset" clears the conversation window.
func (c *Console) Run(ctx context.Context) error {
	fmt.Fprintln(c.out, "Airline Support Bot (type 'exit' to quit, 'reset' to clear context)")
	fmt.Fprintln(c.out)

	scanner := bufio.NewScanner(c.in)
	for {
		fmt.Fprint(c.out, "You: ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		input := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(input) {
		case "":
			continue
		case "exit":
			return nil
		case "reset":
			c.session.Reset()
			fmt.Fprintln(c.out, "Context cleared.")
			fmt.Fprintln(c.out)
			continue
		}

		result, err := c.session.Ask(ctx, input)
		if err != nil {
			c.logger.Warn("turn failed", zap.Error(err))
			if errors.Is(err, entities.ErrIndexUnavailable) {
				fmt.Fprintln(c.out, "Bot: The policy knowledge base is not loaded yet. Please try again shortly.")
			} else {
				fmt.Fprintln(c.out, "Bot: "+ErrorMessage)
			}
			fmt.Fprintln(c.out)
			continue
		}

		if c.verbose && len(result.Matches) > 0 {
			c.printMatches(result.Matches)
		}
		fmt.Fprintf(c.out, "Bot: %s\n\n", result.Answer)
	}
}

func (c *Console) printMatches(matches []entities.Match) {
	fmt.Fprintf(c.out, "Retrieved %d policy matches:\n", len(matches))
	for _, m := range matches {
		fmt.Fprintf(c.out, "  [%s] distance %.3f - %s\n", m.Entry.Section, m.Distance, m.Entry.Question)
	}
}
