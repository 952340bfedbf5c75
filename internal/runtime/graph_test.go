package runtime

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/parley-ai/parley/pkg/domain"
)

func noopNode(ctx context.Context, state *domain.State, cfg Config) (domain.Update, error) {
	return domain.Update{}, nil
}

func TestBuilder_DuplicateNodeName(t *testing.T) {
	b := NewBuilder()
	if err := b.AddNode("classify", noopNode); err != nil {
		t.Fatalf("first AddNode failed: %v", err)
	}
	err := b.AddNode("classify", noopNode)
	if !errors.Is(err, domain.ErrDuplicateNode) {
		t.Errorf("expected ErrDuplicateNode, got %v", err)
	}
}

func TestBuilder_ReservedNames(t *testing.T) {
	b := NewBuilder()
	if err := b.AddNode(Start, noopNode); err == nil {
		t.Error("expected error registering reserved start name")
	}
	if err := b.AddNode(End, noopNode); err == nil {
		t.Error("expected error registering reserved end name")
	}
}

func TestCompile_Validation(t *testing.T) {
	t.Run("no entry edge", func(t *testing.T) {
		b := NewBuilder()
		_ = b.AddNode("a", noopNode)
		if _, err := b.Compile(); err == nil {
			t.Error("expected error for graph without start edge")
		}
	})

	t.Run("edge to unknown node", func(t *testing.T) {
		b := NewBuilder()
		_ = b.AddNode("a", noopNode)
		_ = b.AddEdge(Start, "a")
		_ = b.AddEdge("a", "ghost")
		if _, err := b.Compile(); err == nil {
			t.Error("expected error for edge to unknown node")
		}
	})

	t.Run("conditional route to unknown node", func(t *testing.T) {
		b := NewBuilder()
		_ = b.AddNode("a", noopNode)
		_ = b.AddEdge(Start, "a")
		_ = b.AddConditionalEdge("a", func(*domain.State) string { return "x" }, map[string]string{"x": "ghost"})
		if _, err := b.Compile(); err == nil {
			t.Error("expected error for route to unknown node")
		}
	})

	t.Run("valid graph", func(t *testing.T) {
		b := NewBuilder()
		_ = b.AddNode("a", noopNode)
		_ = b.AddNode("b", noopNode)
		_ = b.AddEdge(Start, "a")
		_ = b.AddConditionalEdge("a", func(*domain.State) string { return "go" }, map[string]string{"go": "b", "stop": End})
		_ = b.AddEdge("b", End)
		g, err := b.Compile()
		if err != nil {
			t.Fatalf("compile failed: %v", err)
		}
		if len(g.Nodes()) != 2 {
			t.Errorf("expected 2 nodes, got %v", g.Nodes())
		}
	})
}

func TestBuilder_SingleOutgoingEdge(t *testing.T) {
	b := NewBuilder()
	_ = b.AddNode("a", noopNode)
	_ = b.AddNode("b", noopNode)
	_ = b.AddEdge("a", "b")
	if err := b.AddEdge("a", End); err == nil {
		t.Error("expected error adding second edge from non-start node")
	}
	if err := b.AddConditionalEdge("a", func(*domain.State) string { return "" }, map[string]string{"x": End}); err == nil {
		t.Error("expected error adding conditional edge over plain edge")
	}
}

func TestGraph_Mermaid(t *testing.T) {
	b := NewBuilder()
	_ = b.AddNode("classify", noopNode)
	_ = b.AddEdge(Start, "classify")
	_ = b.AddConditionalEdge("classify", func(*domain.State) string { return "done" }, map[string]string{"done": End})
	g, err := b.Compile()
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}

	out := g.Mermaid()
	for _, want := range []string{"graph TD", "START --> classify", "classify -->|done| END"} {
		if !strings.Contains(out, want) {
			t.Errorf("mermaid output missing %q:\n%s", want, out)
		}
	}
}
