package dialogue

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/parley-ai/parley/internal/runtime"
	"github.com/parley-ai/parley/pkg/domain"
)

// RecordConversation appends the turn's user input to the audit log. The log
// is best-effort: a write failure is logged and the turn continues. The node
// writes no state and emits no streaming events, so it can run concurrently
// with classification.
func (c *Controller) RecordConversation(ctx context.Context, state *domain.State, cfg runtime.Config) (domain.Update, error) {
	if c.log == nil {
		return domain.Update{}, nil
	}

	var input string
	for i := len(state.Messages) - 1; i >= 0; i-- {
		if state.Messages[i].Role == domain.RoleUser {
			input = state.Messages[i].Content
			break
		}
	}
	if input == "" {
		return domain.Update{}, nil
	}

	entry := domain.LogEntry{
		ID:        uuid.NewString(),
		ThreadID:  cfg.ThreadID,
		UserID:    cfg.UserID,
		SessionID: cfg.SessionID,
		UserInput: input,
		Timestamp: time.Now().UTC(),
		Metadata:  cfg.Metadata,
	}
	if err := c.log.Append(ctx, entry); err != nil {
		c.logger.Warn("conversation log append failed",
			"thread_id", cfg.ThreadID,
			"err", err,
		)
	}
	return domain.Update{}, nil
}
