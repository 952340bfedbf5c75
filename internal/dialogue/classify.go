package dialogue

import (
	"context"

	"github.com/parley-ai/parley/internal/runtime"
	"github.com/parley-ai/parley/pkg/domain"
)

// ClassifyIntent classifies the recent conversation window against the intent
// taxonomy. Any port failure or out-of-taxonomy result substitutes the
// fallback classification; classification failure is never fatal to a turn.
// The node reads history but never appends to it.
func (c *Controller) ClassifyIntent(ctx context.Context, state *domain.State, cfg runtime.Config) (domain.Update, error) {
	result, err := c.classifier.ClassifyIntent(ctx, state.RecentContext(contextWindow))
	if err != nil || result == nil || !result.Intent.Known() {
		c.logger.Warn("intent classification failed, using fallback",
			"thread_id", cfg.ThreadID,
			"err", err,
		)
		if c.onFallback != nil {
			c.onFallback()
		}
		return domain.Update{Intent: domain.FallbackClassification()}, nil
	}

	c.logger.Debug("intent classified",
		"thread_id", cfg.ThreadID,
		"intent", result.Intent,
		"confidence", result.Confidence,
		"language", result.Language,
	)
	return domain.Update{Intent: result}, nil
}
