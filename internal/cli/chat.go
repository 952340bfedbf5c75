package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/term"

	"github.com/parley-ai/parley"
	"github.com/parley-ai/parley/internal/presentation/tui"
	"github.com/parley-ai/parley/pkg/domain"
)

// ChatOptions configures the interactive chat loop.
type ChatOptions struct {
	ThreadID string
	UserID   string
	// Plain disables markdown rendering and chunked output, printing raw
	// response text. Implied when stdout is not a terminal.
	Plain bool
}

// RunChat drives a terminal conversation against the agent until EOF, /quit,
// or an interrupt.
func RunChat(ctx context.Context, agent *parley.Agent, opts ChatOptions) error {
	interactive := term.IsTerminal(int(os.Stdout.Fd())) && !opts.Plain

	if opts.ThreadID == "" {
		opts.ThreadID = uuid.NewString()
	}

	if interactive {
		tui.PrintBanner(parley.Version)
		printSystemMessage("Thread %s", opts.ThreadID)
	}

	render := func(s string) (string, error) { return s + "\n", nil }
	if interactive {
		render = tui.NewRenderer()
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		if interactive {
			fmt.Print("> ")
		}
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/quit" || input == "/exit" {
			break
		}

		turnOpts := []parley.TurnOption{parley.WithThread(opts.ThreadID)}
		if opts.UserID != "" {
			turnOpts = append(turnOpts, parley.WithUser(opts.UserID))
		}

		if interactive {
			// Collect the full response, then render it as markdown. Chunks
			// still arrive incrementally for hosts that want them; the
			// terminal UI prefers one well-formatted block.
			var sb strings.Builder
			failed := false
			for ev := range agent.Stream(ctx, input, turnOpts...) {
				switch ev.Type {
				case domain.EventQuestionChunk, domain.EventCompletionChunk:
					sb.WriteString(ev.Content)
				case domain.EventError:
					printSystemMessage("Error: %s", ev.Message)
					failed = true
				}
			}
			if failed {
				continue
			}
			out, err := render(sb.String())
			if err != nil {
				out = sb.String() + "\n"
			}
			fmt.Print(out)
		} else {
			result := agent.Run(ctx, input, turnOpts...)
			if !result.Success {
				fmt.Fprintf(os.Stderr, "error: %s\n", result.Error)
				continue
			}
			fmt.Println(result.Response)
		}

		if ctx.Err() != nil {
			break
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("input error: %w", err)
	}
	return nil
}
