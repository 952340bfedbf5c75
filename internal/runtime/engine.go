package runtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/parley-ai/parley/pkg/domain"
)

// Invoke runs the graph from the start marker to the end marker and returns
// the final merged state. An unhandled node error aborts the invocation; by
// convention nodes absorb recoverable failures themselves.
func (g *Graph) Invoke(ctx context.Context, state *domain.State, cfg Config) (*domain.State, error) {
	return g.run(ctx, state, cfg)
}

func (g *Graph) run(ctx context.Context, state *domain.State, cfg Config) (*domain.State, error) {
	working := state.Clone()
	frontier := g.edges[Start]

	for len(frontier) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		updates, err := g.runLayer(ctx, frontier, working, cfg)
		if err != nil {
			return nil, err
		}

		// Merge in frontier order. For last-write-wins fields the order
		// among concurrently finished nodes is an explicit non-determinism
		// boundary; well-behaved graphs do not race on the same scalar.
		for _, u := range updates {
			working.Apply(u)
		}

		next, err := g.resolve(frontier, working)
		if err != nil {
			return nil, err
		}
		frontier = next
	}

	return working, nil
}

// runLayer executes the frontier's nodes, concurrently when there is more
// than one. Each node observes the same merged snapshot.
func (g *Graph) runLayer(ctx context.Context, frontier []string, state *domain.State, cfg Config) ([]domain.Update, error) {
	if len(frontier) == 1 {
		u, err := g.exec(ctx, frontier[0], state.Clone(), cfg)
		if err != nil {
			return nil, err
		}
		return []domain.Update{u}, nil
	}

	updates := make([]domain.Update, len(frontier))
	errs := make([]error, len(frontier))
	var wg sync.WaitGroup
	for i, name := range frontier {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			updates[i], errs[i] = g.exec(ctx, name, state.Clone(), cfg)
		}(i, name)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return updates, nil
}

func (g *Graph) exec(ctx context.Context, name string, state *domain.State, cfg Config) (domain.Update, error) {
	fn, ok := g.nodes[name]
	if !ok {
		return domain.Update{}, fmt.Errorf("node %q not registered", name)
	}

	started := time.Now()
	if g.hooks.OnNodeEnter != nil {
		g.hooks.OnNodeEnter(ctx, &domain.NodeEvent{
			Timestamp: started,
			ThreadID:  cfg.ThreadID,
			Node:      name,
		})
	}

	update, err := fn(ctx, state, cfg)

	if g.hooks.OnNodeLeave != nil {
		g.hooks.OnNodeLeave(ctx, &domain.NodeEvent{
			Timestamp: time.Now(),
			ThreadID:  cfg.ThreadID,
			Node:      name,
			Duration:  time.Since(started),
			Err:       err,
		})
	}
	if err != nil {
		return domain.Update{}, fmt.Errorf("node %q: %w", name, err)
	}

	g.logger.Debug("node executed",
		"node", name,
		"thread_id", cfg.ThreadID,
		"duration", time.Since(started),
	)
	return update, nil
}

// resolve computes the next frontier from the merged state. Routers read only
// the merged state, never a node's private partial update.
func (g *Graph) resolve(frontier []string, state *domain.State) ([]string, error) {
	var next []string
	seen := make(map[string]bool)

	add := func(target string) {
		if target == End || seen[target] {
			return
		}
		seen[target] = true
		next = append(next, target)
	}

	for _, name := range frontier {
		if cond, ok := g.conditionals[name]; ok {
			label := cond.router(state)
			target, ok := cond.routes[label]
			if !ok {
				return nil, fmt.Errorf("%w: router for %q returned %q", domain.ErrUnknownRoute, name, label)
			}
			add(target)
			continue
		}
		for _, target := range g.edges[name] {
			add(target)
		}
	}
	return next, nil
}
