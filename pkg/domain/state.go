package domain

// Step tags where the slot-filling state machine currently is.
//
// Transitions: "" -> collecting_info (slots missing), ""|collecting_info ->
// info_complete (slots satisfied), info_complete|skipped -> completed
// (response generated). A fresh turn resumes from whatever Step the previous
// turn persisted; there is no reset at turn start.
type Step string

const (
	StepCollecting Step = "collecting_info"
	StepComplete   Step = "info_complete"
	StepCompleted  Step = "completed"
)

// Action is a UI hint attached while a slot is being collected, telling the
// host which input widget to show for the asked field.
type Action struct {
	Field  string `json:"field"`
	Widget string `json:"widget"`
	Show   bool   `json:"show"`
}

// Widget kinds for Action hints.
const (
	WidgetDate    = "date"
	WidgetNumber  = "number"
	WidgetBoolean = "boolean"
	WidgetText    = "text"
)

// State is the mutable working state threaded through the graph for one
// invocation, and the unit of checkpoint persistence.
type State struct {
	// ThreadID and UserID are propagated from the invocation config and are
	// immutable within a turn.
	ThreadID string `json:"thread_id"`
	UserID   string `json:"user_id"`

	// Messages is the ordered, append-only conversation history.
	Messages []Message `json:"messages"`

	// Intent is the most recent classification result. Last-write-wins.
	Intent *Classification `json:"intent,omitempty"`

	// Slots maps slot name to collected value. Merge policy is key-wise
	// upsert: an update touches only the keys it names.
	Slots map[string]any `json:"slots"`

	// Step marks the slot-filling progress. Last-write-wins.
	Step Step `json:"step,omitempty"`

	// Action is the UI hint for the field currently being asked. Present only
	// while slots are being collected.
	Action *Action `json:"action,omitempty"`

	// Response is the turn's final response text. Last-write-wins.
	Response string `json:"response,omitempty"`
}

// NewState creates a clean state for a thread.
func NewState(threadID, userID string) *State {
	return &State{
		ThreadID: threadID,
		UserID:   userID,
		Slots:    make(map[string]any),
	}
}

// Clone returns a deep copy, so stores and concurrent readers cannot mutate
// the engine's working state through shared maps or slices.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := *s
	out.Messages = append([]Message(nil), s.Messages...)
	out.Slots = make(map[string]any, len(s.Slots))
	for k, v := range s.Slots {
		out.Slots[k] = v
	}
	if s.Intent != nil {
		intent := *s.Intent
		out.Intent = &intent
	}
	if s.Action != nil {
		action := *s.Action
		out.Action = &action
	}
	return &out
}

// Language returns the classified language, defaulting to English before any
// classification has happened.
func (s *State) Language() string {
	if s.Intent == nil || s.Intent.Language == "" {
		return "en"
	}
	return s.Intent.Language
}

// RecentContext concatenates the last max messages into one context string
// for classification. Older messages are deliberately ignored; this bounds
// prompt size with a recency window.
func (s *State) RecentContext(max int) string {
	msgs := s.Messages
	if len(msgs) > max {
		msgs = msgs[len(msgs)-max:]
	}
	var out string
	for i, m := range msgs {
		if i > 0 {
			out += "\n"
		}
		out += m.Role + ": " + m.Content
	}
	return out
}
