package domain

import (
	"strings"
	"testing"
)

func TestApply_SlotUpsert(t *testing.T) {
	s := NewState("t1", "u1")
	s.Slots["a"] = 1

	s.Apply(Update{Slots: map[string]any{"b": 2}})

	if s.Slots["a"] != 1 || s.Slots["b"] != 2 {
		t.Errorf("expected {a:1, b:2}, got %v", s.Slots)
	}

	// Overwriting a key replaces it fully, no duplication.
	s.Apply(Update{Slots: map[string]any{"a": 3}})
	if s.Slots["a"] != 3 {
		t.Errorf("expected a=3 after upsert, got %v", s.Slots["a"])
	}
	if len(s.Slots) != 2 {
		t.Errorf("expected 2 keys, got %d", len(s.Slots))
	}
}

func TestApply_MessagesAppendOnly(t *testing.T) {
	s := NewState("t1", "u1")
	s.Apply(Update{Messages: []Message{UserMessage("hi")}})
	s.Apply(Update{Messages: []Message{AssistantMessage("hello")}})

	if len(s.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(s.Messages))
	}
	if s.Messages[0].Content != "hi" || s.Messages[1].Content != "hello" {
		t.Errorf("messages out of order: %v", s.Messages)
	}
}

func TestApply_LastWriteWins(t *testing.T) {
	s := NewState("t1", "u1")
	s.Apply(Update{Step: StepCollecting, Response: "first"})
	s.Apply(Update{Step: StepComplete, Response: "second"})

	if s.Step != StepComplete {
		t.Errorf("expected step %q, got %q", StepComplete, s.Step)
	}
	if s.Response != "second" {
		t.Errorf("expected response 'second', got %q", s.Response)
	}

	// Zero values do not overwrite.
	s.Apply(Update{})
	if s.Step != StepComplete || s.Response != "second" {
		t.Errorf("empty update must not clear fields: %v", s)
	}
}

func TestApply_ActionClear(t *testing.T) {
	s := NewState("t1", "u1")
	s.Apply(Update{Action: &Action{Field: "date", Widget: WidgetDate, Show: true}})
	if s.Action == nil || s.Action.Field != "date" {
		t.Fatalf("action not set: %v", s.Action)
	}

	// nil Action means "not written".
	s.Apply(Update{Step: StepComplete})
	if s.Action == nil {
		t.Fatal("action cleared by unrelated update")
	}

	s.Apply(Update{ClearAction: true})
	if s.Action != nil {
		t.Errorf("expected action cleared, got %v", s.Action)
	}
}

func TestClone_Isolation(t *testing.T) {
	s := NewState("t1", "u1")
	s.Slots["city"] = "Paris"
	s.Intent = FallbackClassification()
	s.Messages = append(s.Messages, UserMessage("hi"))

	c := s.Clone()
	c.Slots["city"] = "London"
	c.Intent.Confidence = 0.9
	c.Messages[0].Content = "bye"

	if s.Slots["city"] != "Paris" {
		t.Error("clone shares slot map")
	}
	if s.Intent.Confidence != 0.5 {
		t.Error("clone shares intent pointer")
	}
	if s.Messages[0].Content != "hi" {
		t.Error("clone shares message backing array")
	}
}

func TestRecentContext_Window(t *testing.T) {
	s := NewState("t1", "u1")
	for i := 0; i < 12; i++ {
		s.Apply(Update{Messages: []Message{UserMessage(string(rune('a' + i)))}})
	}

	ctx := s.RecentContext(10)
	// Oldest two messages (a, b) must fall outside the window.
	for _, excluded := range []string{"user: a\n", "user: b\n"} {
		if strings.Contains(ctx, excluded) {
			t.Errorf("context contains excluded message %q", excluded)
		}
	}
	if !strings.Contains(ctx, "user: l") {
		t.Errorf("context missing most recent message: %q", ctx)
	}
}
