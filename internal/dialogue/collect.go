package dialogue

import (
	"context"

	"github.com/parley-ai/parley/internal/runtime"
	"github.com/parley-ai/parley/pkg/domain"
)

// CollectInfo drives the slot-filling state machine for one turn: it tries to
// extract newly-mentioned slot values from the recent conversation, merges
// them, then either asks for the first missing field or declares the intent
// complete. Extraction failure is non-fatal; the turn proceeds with the slots
// it already has.
func (c *Controller) CollectInfo(ctx context.Context, state *domain.State, cfg runtime.Config) (domain.Update, error) {
	intent := domain.IntentGeneralInquiry
	if state.Intent != nil {
		intent = state.Intent.Intent
	}
	lang := state.Language()

	slots := make(map[string]any, len(state.Slots))
	for k, v := range state.Slots {
		slots[k] = v
	}

	missing := c.registry.Missing(intent, slots)
	if len(missing) > 0 {
		extracted, err := c.classifier.ExtractSlots(ctx, slots, missing, state.RecentContext(contextWindow))
		if err != nil {
			c.logger.Warn("slot extraction failed, keeping current slots",
				"thread_id", cfg.ThreadID,
				"intent", intent,
				"err", err,
			)
		} else {
			for k, v := range c.registry.Filter(intent, extracted) {
				slots[k] = v
			}
		}
		missing = c.registry.Missing(intent, slots)
	}

	if len(missing) > 0 {
		// Ask for exactly one field per turn: the first missing one in the
		// schema's declared order.
		field := missing[0]
		question := c.registry.Question(field, lang)
		c.emitChunks(cfg, domain.EventQuestionChunk, question)

		update := domain.Update{
			Slots:    slots,
			Step:     domain.StepCollecting,
			Response: question,
			Messages: []domain.Message{domain.AssistantMessage(question)},
		}
		if widget := c.registry.Widget(field); widget != "" && widget != domain.WidgetText {
			update.Action = &domain.Action{Field: field, Widget: widget, Show: true}
		}
		return update, nil
	}

	done := c.registry.Completion(lang)
	c.emitChunks(cfg, domain.EventCompletionChunk, done)
	return domain.Update{
		Slots:       slots,
		Step:        domain.StepComplete,
		Response:    done,
		Messages:    []domain.Message{domain.AssistantMessage(done)},
		ClearAction: true,
	}, nil
}

// emitChunks streams text in fixed-size rune chunks. Under Invoke the emit is
// a no-op. Splitting on runes keeps multi-byte text intact.
func (c *Controller) emitChunks(cfg runtime.Config, typ domain.EventType, text string) {
	if !cfg.Streaming() || text == "" {
		return
	}
	runes := []rune(text)
	for i := 0; i < len(runes); i += c.chunkSize {
		end := i + c.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		cfg.Emit(domain.Event{Type: typ, Content: string(runes[i:end])})
	}
}
