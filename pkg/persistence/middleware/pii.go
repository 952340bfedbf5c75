package middleware

import (
	"context"
	"regexp"

	"github.com/parley-ai/parley/pkg/domain"
	"github.com/parley-ai/parley/pkg/ports"
)

type piiMiddleware struct {
	next     ports.CheckpointStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks slot values whose keys
// match the patterns before they reach the underlying store. The in-memory
// state the engine works with is untouched; only the persisted copy is
// masked.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.CheckpointStore) ports.CheckpointStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, threadID string, state *domain.State) error {
	cloned := state.Clone()
	maskMap(cloned.Slots, m.patterns)
	return m.next.Save(ctx, threadID, cloned)
}

func (m *piiMiddleware) Load(ctx context.Context, threadID string) (*domain.State, error) {
	return m.next.Load(ctx, threadID)
}

func (m *piiMiddleware) Delete(ctx context.Context, threadID string) error {
	return m.next.Delete(ctx, threadID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		for _, p := range patterns {
			if p.MatchString(k) {
				m[k] = "***"
				break
			}
		}

		if subMap, ok := v.(map[string]any); ok {
			maskMap(subMap, patterns)
		}
	}
}
