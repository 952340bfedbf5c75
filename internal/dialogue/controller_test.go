package dialogue

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-ai/parley/internal/runtime"
	"github.com/parley-ai/parley/pkg/domain"
	"github.com/parley-ai/parley/pkg/schema"
)

type fakeClassifier struct {
	classification *domain.Classification
	classifyErr    error
	extracted      map[string]any
	extractErr     error
	gotMissing     []string
}

func (f *fakeClassifier) ClassifyIntent(ctx context.Context, contextText string) (*domain.Classification, error) {
	if f.classifyErr != nil {
		return nil, f.classifyErr
	}
	return f.classification, nil
}

func (f *fakeClassifier) ExtractSlots(ctx context.Context, current map[string]any, missing []string, contextText string) (map[string]any, error) {
	f.gotMissing = append([]string(nil), missing...)
	if f.extractErr != nil {
		return nil, f.extractErr
	}
	return f.extracted, nil
}

func classified(intent domain.Intent, confidence float64) *domain.Classification {
	return &domain.Classification{Intent: intent, Confidence: confidence, Language: "en"}
}

func TestClassifyIntent_Fallback(t *testing.T) {
	cases := []struct {
		name string
		fake *fakeClassifier
	}{
		{"port error", &fakeClassifier{classifyErr: errors.New("timeout")}},
		{"nil result", &fakeClassifier{}},
		{"unknown intent", &fakeClassifier{classification: classified("order_pizza", 0.9)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewController(tc.fake)
			state := domain.NewState("t1", "u1")
			state.Apply(domain.Update{Messages: []domain.Message{domain.UserMessage("hello")}})

			update, err := c.ClassifyIntent(context.Background(), state, runtime.Config{ThreadID: "t1"})
			require.NoError(t, err)
			require.NotNil(t, update.Intent)
			assert.Equal(t, domain.IntentGeneralInquiry, update.Intent.Intent)
			assert.Equal(t, 0.5, update.Intent.Confidence)
			assert.Equal(t, "classification failed", update.Intent.Reasoning)
			assert.Equal(t, "en", update.Intent.Language)
			assert.Empty(t, update.Messages)
		})
	}
}

func TestClassifyIntent_Success(t *testing.T) {
	fake := &fakeClassifier{classification: classified(domain.IntentBookFlight, 0.92)}
	c := NewController(fake)
	state := domain.NewState("t1", "u1")

	update, err := c.ClassifyIntent(context.Background(), state, runtime.Config{})
	require.NoError(t, err)
	require.NotNil(t, update.Intent)
	assert.Equal(t, domain.IntentBookFlight, update.Intent.Intent)
}

func TestRouteAfterClassification(t *testing.T) {
	c := NewController(&fakeClassifier{})

	mk := func(intent domain.Intent, confidence float64) *domain.State {
		s := domain.NewState("t1", "u1")
		s.Intent = classified(intent, confidence)
		return s
	}

	t.Run("slot filling intent with missing fields", func(t *testing.T) {
		assert.Equal(t, routeCollect, c.RouteAfterClassification(mk(domain.IntentBookFlight, 0.9)))
		assert.Equal(t, routeCollect, c.RouteAfterClassification(mk(domain.IntentSearchFlights, 0.9)))
	})

	t.Run("non slot-filling intents regardless of confidence", func(t *testing.T) {
		for _, intent := range []domain.Intent{
			domain.IntentCheckWeather, domain.IntentFlightStatus, domain.IntentBookingInfo,
			domain.IntentCancelBooking, domain.IntentGeneralInquiry, domain.IntentGreeting,
		} {
			assert.Equal(t, routeRespond, c.RouteAfterClassification(mk(intent, 0.99)), "intent %s", intent)
		}
	})

	t.Run("low confidence defers to response generation", func(t *testing.T) {
		assert.Equal(t, routeRespond, c.RouteAfterClassification(mk(domain.IntentBookFlight, 0.3)))
	})

	t.Run("already complete", func(t *testing.T) {
		s := mk(domain.IntentBookFlight, 0.9)
		s.Step = domain.StepComplete
		assert.Equal(t, routeRespond, c.RouteAfterClassification(s))
	})

	t.Run("nothing missing", func(t *testing.T) {
		s := mk(domain.IntentCheckWeather, 0.9)
		s.Intent = classified(domain.IntentFlightStatus, 0.9)
		s.Slots[schema.FieldFlightNumber] = "VN123"
		assert.Equal(t, routeRespond, c.RouteAfterClassification(s))
	})

	t.Run("unclassified state", func(t *testing.T) {
		assert.Equal(t, routeRespond, c.RouteAfterClassification(domain.NewState("t1", "u1")))
	})
}

func TestRouteAfterCollectInfo(t *testing.T) {
	c := NewController(&fakeClassifier{})

	s := domain.NewState("t1", "u1")
	s.Step = domain.StepCollecting
	assert.Equal(t, routeEnd, c.RouteAfterCollectInfo(s))

	s.Step = domain.StepComplete
	assert.Equal(t, routeRespond, c.RouteAfterCollectInfo(s))

	s.Step = ""
	assert.Equal(t, routeRespond, c.RouteAfterCollectInfo(s))
}

func TestCollectInfo_AsksFirstMissingField(t *testing.T) {
	fake := &fakeClassifier{extracted: map[string]any{}}
	c := NewController(fake)

	state := domain.NewState("t1", "u1")
	state.Intent = classified(domain.IntentBookFlight, 0.9)

	update, err := c.CollectInfo(context.Background(), state, runtime.Config{})
	require.NoError(t, err)
	assert.Equal(t, domain.StepCollecting, update.Step)
	assert.Equal(t, "Which city are you departing from?", update.Response)
	require.Len(t, update.Messages, 1)
	assert.Equal(t, domain.RoleAssistant, update.Messages[0].Role)
	assert.Equal(t, schema.FieldDepartureCity, fake.gotMissing[0])
}

func TestCollectInfo_MergesExtractedSlots(t *testing.T) {
	fake := &fakeClassifier{extracted: map[string]any{
		schema.FieldDepartureCity: "Hanoi",
		schema.FieldArrivalCity:   "Tokyo",
		"not_a_field":             "dropped",
	}}
	c := NewController(fake)

	state := domain.NewState("t1", "u1")
	state.Intent = classified(domain.IntentSearchFlights, 0.9)
	state.Slots[schema.FieldDate] = "2026-09-15"

	update, err := c.CollectInfo(context.Background(), state, runtime.Config{})
	require.NoError(t, err)
	assert.Equal(t, "Hanoi", update.Slots[schema.FieldDepartureCity])
	assert.Equal(t, "Tokyo", update.Slots[schema.FieldArrivalCity])
	assert.Equal(t, "2026-09-15", update.Slots[schema.FieldDate])
	assert.NotContains(t, update.Slots, "not_a_field")
	// Next missing by declared order is round_trip.
	assert.Equal(t, "Is this a round trip?", update.Response)
	require.NotNil(t, update.Action)
	assert.Equal(t, schema.FieldRoundTrip, update.Action.Field)
	assert.Equal(t, domain.WidgetBoolean, update.Action.Widget)
	assert.True(t, update.Action.Show)
}

func TestCollectInfo_ExtractionFailureIsNonFatal(t *testing.T) {
	fake := &fakeClassifier{extractErr: errors.New("malformed json")}
	c := NewController(fake)

	state := domain.NewState("t1", "u1")
	state.Intent = classified(domain.IntentBookFlight, 0.9)
	state.Slots[schema.FieldDepartureCity] = "Hanoi"

	update, err := c.CollectInfo(context.Background(), state, runtime.Config{})
	require.NoError(t, err)
	assert.Equal(t, "Hanoi", update.Slots[schema.FieldDepartureCity])
	assert.Equal(t, domain.StepCollecting, update.Step)
	// Slots unchanged, so the question targets the next field in order.
	assert.Equal(t, "Which city are you flying to?", update.Response)
}

func TestCollectInfo_ReturnDateRule(t *testing.T) {
	base := map[string]any{
		schema.FieldDepartureCity: "Hanoi",
		schema.FieldArrivalCity:   "Tokyo",
		schema.FieldDate:          "2026-09-15",
	}

	t.Run("one-way trip completes without return date", func(t *testing.T) {
		fake := &fakeClassifier{extracted: map[string]any{}}
		c := NewController(fake)
		state := domain.NewState("t1", "u1")
		state.Intent = classified(domain.IntentSearchFlights, 0.9)
		for k, v := range base {
			state.Slots[k] = v
		}
		state.Slots[schema.FieldRoundTrip] = false

		update, err := c.CollectInfo(context.Background(), state, runtime.Config{})
		require.NoError(t, err)
		assert.Equal(t, domain.StepComplete, update.Step)
		assert.True(t, update.ClearAction)
	})

	t.Run("round trip asks for return date", func(t *testing.T) {
		fake := &fakeClassifier{extracted: map[string]any{}}
		c := NewController(fake)
		state := domain.NewState("t1", "u1")
		state.Intent = classified(domain.IntentSearchFlights, 0.9)
		for k, v := range base {
			state.Slots[k] = v
		}
		state.Slots[schema.FieldRoundTrip] = true

		update, err := c.CollectInfo(context.Background(), state, runtime.Config{})
		require.NoError(t, err)
		assert.Equal(t, domain.StepCollecting, update.Step)
		assert.Equal(t, "What date would you like to return?", update.Response)
	})
}

func TestCollectInfo_CompletionIsLocalized(t *testing.T) {
	fake := &fakeClassifier{extracted: map[string]any{}}
	c := NewController(fake)

	state := domain.NewState("t1", "u1")
	state.Intent = &domain.Classification{Intent: domain.IntentFlightStatus, Confidence: 0.9, Language: "vi"}
	state.Slots[schema.FieldFlightNumber] = "VN123"

	update, err := c.CollectInfo(context.Background(), state, runtime.Config{})
	require.NoError(t, err)
	assert.Equal(t, domain.StepComplete, update.Step)
	assert.Contains(t, update.Response, "Tuyệt vời")
}

func TestRespond_TemplateFallback(t *testing.T) {
	c := NewController(&fakeClassifier{})

	state := domain.NewState("t1", "u1")
	state.Intent = classified(domain.IntentGreeting, 0.95)

	update, err := c.Respond(context.Background(), state, runtime.Config{})
	require.NoError(t, err)
	assert.Equal(t, domain.StepCompleted, update.Step)
	assert.True(t, update.ClearAction)
	assert.Contains(t, update.Response, "Hello")
	require.Len(t, update.Messages, 1)
}

type fakeResponder struct {
	text string
	err  error
}

func (f *fakeResponder) Respond(ctx context.Context, state *domain.State) (string, error) {
	return f.text, f.err
}

func TestRespond_Responder(t *testing.T) {
	t.Run("uses generated text", func(t *testing.T) {
		c := NewController(&fakeClassifier{}, WithResponder(&fakeResponder{text: "Booked!"}))
		state := domain.NewState("t1", "u1")
		state.Intent = classified(domain.IntentBookFlight, 0.9)

		update, err := c.Respond(context.Background(), state, runtime.Config{})
		require.NoError(t, err)
		assert.Equal(t, "Booked!", update.Response)
	})

	t.Run("falls back on error", func(t *testing.T) {
		c := NewController(&fakeClassifier{}, WithResponder(&fakeResponder{err: errors.New("llm down")}))
		state := domain.NewState("t1", "u1")
		state.Intent = classified(domain.IntentBookFlight, 0.9)
		state.Slots[schema.FieldDepartureCity] = "Hanoi"

		update, err := c.Respond(context.Background(), state, runtime.Config{})
		require.NoError(t, err)
		assert.Equal(t, domain.StepCompleted, update.Step)
		assert.Contains(t, update.Response, "Hanoi")
	})
}

type captureLog struct {
	entries []domain.LogEntry
	err     error
}

func (l *captureLog) Append(ctx context.Context, entry domain.LogEntry) error {
	if l.err != nil {
		return l.err
	}
	l.entries = append(l.entries, entry)
	return nil
}

// appendOnly satisfies ports.ConversationLog for tests that only exercise
// Append.
type appendOnly struct {
	*captureLog
}

func (appendOnly) Entries(context.Context, string, int) ([]domain.LogEntry, error) { return nil, nil }
func (appendOnly) Threads(context.Context, string, int) ([]domain.ThreadInfo, error) {
	return nil, nil
}
func (appendOnly) Delete(context.Context, string) error              { return nil }
func (appendOnly) Purge(context.Context, time.Time) (int, error)     { return 0, nil }
func (appendOnly) Search(context.Context, string, int) ([]domain.LogEntry, error) {
	return nil, nil
}

func TestRecordConversation(t *testing.T) {
	t.Run("appends latest user input", func(t *testing.T) {
		log := &captureLog{}
		c := NewController(&fakeClassifier{}, WithConversationLog(appendOnly{log}))
		state := domain.NewState("t1", "u1")
		state.Apply(domain.Update{Messages: []domain.Message{
			domain.UserMessage("older"),
			domain.AssistantMessage("a reply"),
			domain.UserMessage("newest"),
		}})

		update, err := c.RecordConversation(context.Background(), state, runtime.Config{
			ThreadID: "t1", UserID: "u1", SessionID: "s1",
			Metadata: map[string]string{"channel": "web"},
		})
		require.NoError(t, err)
		assert.True(t, update.Empty())
		require.Len(t, log.entries, 1)
		entry := log.entries[0]
		assert.Equal(t, "newest", entry.UserInput)
		assert.Equal(t, "t1", entry.ThreadID)
		assert.Equal(t, "u1", entry.UserID)
		assert.Equal(t, "s1", entry.SessionID)
		assert.NotEmpty(t, entry.ID)
		assert.Equal(t, "web", entry.Metadata["channel"])
	})

	t.Run("append failure is non-fatal", func(t *testing.T) {
		c := NewController(&fakeClassifier{}, WithConversationLog(appendOnly{&captureLog{err: errors.New("disk full")}}))
		state := domain.NewState("t1", "u1")
		state.Apply(domain.Update{Messages: []domain.Message{domain.UserMessage("hi")}})

		_, err := c.RecordConversation(context.Background(), state, runtime.Config{ThreadID: "t1"})
		assert.NoError(t, err)
	})
}

func TestBuildGraph_FullTurn(t *testing.T) {
	fake := &fakeClassifier{
		classification: classified(domain.IntentBookFlight, 0.9),
		extracted:      map[string]any{},
	}
	c := NewController(fake)
	g, err := c.BuildGraph()
	require.NoError(t, err)

	state := domain.NewState("t1", "u1")
	state.Apply(domain.Update{Messages: []domain.Message{domain.UserMessage("I want to book a flight")}})

	final, err := g.Invoke(context.Background(), state, runtime.Config{ThreadID: "t1", UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, domain.IntentBookFlight, final.Intent.Intent)
	assert.Equal(t, domain.StepCollecting, final.Step)
	assert.Equal(t, "Which city are you departing from?", final.Response)
}

func TestBuildGraph_StreamsQuestionChunks(t *testing.T) {
	fake := &fakeClassifier{
		classification: classified(domain.IntentBookFlight, 0.9),
		extracted:      map[string]any{},
	}
	c := NewController(fake, WithChunkSize(5))
	g, err := c.BuildGraph()
	require.NoError(t, err)

	state := domain.NewState("t1", "u1")
	state.Apply(domain.Update{Messages: []domain.Message{domain.UserMessage("book a flight")}})

	events, results := g.Stream(context.Background(), state, runtime.Config{ThreadID: "t1"})
	var reassembled strings.Builder
	for ev := range events {
		require.Equal(t, domain.EventQuestionChunk, ev.Type)
		assert.LessOrEqual(t, len([]rune(ev.Content)), 5)
		reassembled.WriteString(ev.Content)
	}
	res := <-results
	require.NoError(t, res.Err)
	assert.Equal(t, "Which city are you departing from?", reassembled.String())
	assert.Equal(t, res.State.Response, reassembled.String())
}
