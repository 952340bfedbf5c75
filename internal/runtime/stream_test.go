package runtime

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/parley-ai/parley/pkg/domain"
)

func collect(t *testing.T, events <-chan domain.Event, results <-chan Result) ([]domain.Event, Result) {
	t.Helper()
	var got []domain.Event
	for ev := range events {
		got = append(got, ev)
	}
	select {
	case res := <-results:
		return got, res
	case <-time.After(2 * time.Second):
		t.Fatal("result channel did not deliver")
		return nil, Result{}
	}
}

func TestStream_EmitsInOrder(t *testing.T) {
	b := NewBuilder()
	_ = b.AddNode("talk", func(ctx context.Context, s *domain.State, cfg Config) (domain.Update, error) {
		if !cfg.Streaming() {
			t.Error("node did not observe streaming mode")
		}
		cfg.Emit(domain.Event{Type: domain.EventQuestionChunk, Content: "Where "})
		cfg.Emit(domain.Event{Type: domain.EventQuestionChunk, Content: "to?"})
		return domain.Update{Response: "Where to?"}, nil
	})
	_ = b.AddEdge(Start, "talk")
	_ = b.AddEdge("talk", End)
	g := mustGraph(t, b)

	events, results := g.Stream(context.Background(), domain.NewState("t1", "u1"), Config{ThreadID: "t1"})
	got, res := collect(t, events, results)

	if res.Err != nil {
		t.Fatalf("stream failed: %v", res.Err)
	}
	if res.State == nil || res.State.Response != "Where to?" {
		t.Errorf("unexpected final state: %+v", res.State)
	}
	if len(got) != 2 || got[0].Content != "Where " || got[1].Content != "to?" {
		t.Errorf("unexpected event sequence: %+v", got)
	}
}

func TestStream_NodeErrorInResult(t *testing.T) {
	boom := errors.New("boom")
	b := NewBuilder()
	_ = b.AddNode("bad", func(ctx context.Context, s *domain.State, cfg Config) (domain.Update, error) {
		cfg.Emit(domain.Event{Type: domain.EventQuestionChunk, Content: "partial"})
		return domain.Update{}, boom
	})
	_ = b.AddEdge(Start, "bad")
	_ = b.AddEdge("bad", End)
	g := mustGraph(t, b)

	events, results := g.Stream(context.Background(), domain.NewState("t1", "u1"), Config{})
	got, res := collect(t, events, results)

	if !errors.Is(res.Err, boom) {
		t.Fatalf("expected node error in result, got %v", res.Err)
	}
	// Events emitted before the failure still arrive; the channel then closes.
	if len(got) != 1 || got[0].Content != "partial" {
		t.Errorf("expected the partial chunk before close, got %+v", got)
	}
}

func TestStream_InvokeEmitIsNoop(t *testing.T) {
	b := NewBuilder()
	_ = b.AddNode("talk", func(ctx context.Context, s *domain.State, cfg Config) (domain.Update, error) {
		if cfg.Streaming() {
			t.Error("Invoke reported streaming mode")
		}
		cfg.Emit(domain.Event{Type: domain.EventQuestionChunk, Content: "ignored"})
		return domain.Update{}, nil
	})
	_ = b.AddEdge(Start, "talk")
	_ = b.AddEdge("talk", End)
	g := mustGraph(t, b)

	if _, err := g.Invoke(context.Background(), domain.NewState("t1", "u1"), Config{}); err != nil {
		t.Fatalf("invoke failed: %v", err)
	}
}

func TestStream_CancelUnblocksEmitter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	b := NewBuilder()
	_ = b.AddNode("flood", func(ctx context.Context, s *domain.State, cfg Config) (domain.Update, error) {
		// More emissions than the channel buffer with no consumer.
		for i := 0; i < streamBuffer*4; i++ {
			cfg.Emit(domain.Event{Type: domain.EventQuestionChunk, Content: "x"})
		}
		return domain.Update{}, nil
	})
	_ = b.AddEdge(Start, "flood")
	_ = b.AddEdge("flood", End)
	g := mustGraph(t, b)

	events, results := g.Stream(ctx, domain.NewState("t1", "u1"), Config{})
	cancel()

	done := make(chan struct{})
	go func() {
		for range events {
		}
		<-results
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not terminate after cancellation")
	}
}
