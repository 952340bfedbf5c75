package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/parley-ai/parley/internal/logging"
	"github.com/parley-ai/parley/pkg/domain"
)

// Graph boundary markers. Start may fan out to several nodes; reaching End
// terminates the invocation.
const (
	Start = "__start__"
	End   = "__end__"
)

// NodeFunc is the node contract: a function of (state, config) returning a
// partial state update. Nodes must not mutate the state they receive; they
// communicate exclusively through the returned Update.
type NodeFunc func(ctx context.Context, state *domain.State, cfg Config) (domain.Update, error)

// RouterFunc selects the label of the next edge from merged state. It must be
// a pure function of state and return one of the labels declared for its
// conditional edge.
type RouterFunc func(state *domain.State) string

type conditional struct {
	router RouterFunc
	routes map[string]string
}

// Builder accumulates topology and validates it on Compile.
type Builder struct {
	nodes        map[string]NodeFunc
	order        []string
	edges        map[string][]string
	conditionals map[string]*conditional
}

// NewBuilder creates an empty graph builder.
func NewBuilder() *Builder {
	return &Builder{
		nodes:        make(map[string]NodeFunc),
		edges:        make(map[string][]string),
		conditionals: make(map[string]*conditional),
	}
}

// AddNode registers a named node. Registering the same name twice is a build
// error, reported here rather than at run time.
func (b *Builder) AddNode(name string, fn NodeFunc) error {
	if name == Start || name == End {
		return fmt.Errorf("node name %q is reserved", name)
	}
	if _, exists := b.nodes[name]; exists {
		return fmt.Errorf("%w: %q", domain.ErrDuplicateNode, name)
	}
	if fn == nil {
		return fmt.Errorf("node %q: nil function", name)
	}
	b.nodes[name] = fn
	b.order = append(b.order, name)
	return nil
}

// AddEdge declares an unconditional edge. Start may have multiple outgoing
// edges (those nodes execute concurrently); any other node may have one.
func (b *Builder) AddEdge(from, to string) error {
	if from != Start && len(b.edges[from]) > 0 {
		return fmt.Errorf("node %q already has an outgoing edge", from)
	}
	if _, ok := b.conditionals[from]; ok {
		return fmt.Errorf("node %q already has a conditional edge", from)
	}
	b.edges[from] = append(b.edges[from], to)
	return nil
}

// AddConditionalEdge declares a router-driven branch from a node. The router
// is evaluated strictly after the source node's update is merged and must
// return one of the declared labels.
func (b *Builder) AddConditionalEdge(from string, router RouterFunc, routes map[string]string) error {
	if len(b.edges[from]) > 0 {
		return fmt.Errorf("node %q already has an outgoing edge", from)
	}
	if _, ok := b.conditionals[from]; ok {
		return fmt.Errorf("node %q already has a conditional edge", from)
	}
	if router == nil || len(routes) == 0 {
		return fmt.Errorf("conditional edge from %q: router and routes are required", from)
	}
	b.conditionals[from] = &conditional{router: router, routes: routes}
	return nil
}

// Option configures a compiled Graph.
type Option func(*Graph)

// WithLogger sets a structured logger for node execution.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Graph) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithHooks registers observability callbacks around node execution.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(g *Graph) {
		g.hooks = hooks
	}
}

// Compile validates the topology and returns an immutable Graph.
func (b *Builder) Compile(opts ...Option) (*Graph, error) {
	if len(b.edges[Start]) == 0 {
		return nil, fmt.Errorf("graph has no entry edge from start")
	}

	check := func(from, to string) error {
		if to == End {
			return nil
		}
		if _, ok := b.nodes[to]; !ok {
			return fmt.Errorf("edge from %q targets unknown node %q", from, to)
		}
		return nil
	}
	for from, targets := range b.edges {
		if from != Start {
			if _, ok := b.nodes[from]; !ok {
				return nil, fmt.Errorf("edge from unknown node %q", from)
			}
		}
		for _, to := range targets {
			if err := check(from, to); err != nil {
				return nil, err
			}
		}
	}
	for from, cond := range b.conditionals {
		if _, ok := b.nodes[from]; !ok {
			return nil, fmt.Errorf("conditional edge from unknown node %q", from)
		}
		for label, to := range cond.routes {
			if err := check(from, to); err != nil {
				return nil, fmt.Errorf("route %q: %w", label, err)
			}
		}
	}

	g := &Graph{
		nodes:        b.nodes,
		order:        append([]string(nil), b.order...),
		edges:        b.edges,
		conditionals: b.conditionals,
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Graph is a compiled, immutable node/edge topology ready for invocation.
type Graph struct {
	nodes        map[string]NodeFunc
	order        []string
	edges        map[string][]string
	conditionals map[string]*conditional
	logger       *slog.Logger
	hooks        domain.LifecycleHooks
}

// Nodes returns the registered node names in registration order.
func (g *Graph) Nodes() []string {
	return append([]string(nil), g.order...)
}

// Mermaid renders the topology as a Mermaid flowchart for introspection tools.
func (g *Graph) Mermaid() string {
	out := "graph TD\n"
	out += fmt.Sprintf("    %s([start])\n", mermaidID(Start))
	out += fmt.Sprintf("    %s([end])\n", mermaidID(End))
	for _, name := range g.order {
		out += fmt.Sprintf("    %s[%s]\n", mermaidID(name), name)
	}
	for _, from := range append([]string{Start}, g.order...) {
		for _, to := range g.edges[from] {
			out += fmt.Sprintf("    %s --> %s\n", mermaidID(from), mermaidID(to))
		}
		if cond, ok := g.conditionals[from]; ok {
			labels := make([]string, 0, len(cond.routes))
			for label := range cond.routes {
				labels = append(labels, label)
			}
			sort.Strings(labels)
			for _, label := range labels {
				out += fmt.Sprintf("    %s -->|%s| %s\n", mermaidID(from), label, mermaidID(cond.routes[label]))
			}
		}
	}
	return out
}

func mermaidID(name string) string {
	switch name {
	case Start:
		return "START"
	case End:
		return "END"
	default:
		return name
	}
}
