package domain

// Update is the partial state a node returns. Zero-valued fields mean "not
// written". Apply merges an Update into a State field-by-field:
//
//   - Messages: append, never overwrite.
//   - Slots: key-wise upsert; only the named keys change.
//   - Intent, Step, Action, Response: last-write-wins when set.
//
// Merge order among concurrently finished nodes is unspecified for the
// last-write-wins fields; conflicting concurrent writers to the same scalar
// must not both rely on winning.
type Update struct {
	Messages []Message
	Intent   *Classification
	Slots    map[string]any
	Step     Step
	Action   *Action
	Response string

	// ClearAction removes any pending UI hint. Needed because a nil Action
	// means "not written", not "unset".
	ClearAction bool
}

// Apply merges the update into the state in place.
func (s *State) Apply(u Update) {
	if len(u.Messages) > 0 {
		s.Messages = append(s.Messages, u.Messages...)
	}
	if len(u.Slots) > 0 {
		if s.Slots == nil {
			s.Slots = make(map[string]any, len(u.Slots))
		}
		for k, v := range u.Slots {
			s.Slots[k] = v
		}
	}
	if u.Intent != nil {
		intent := *u.Intent
		s.Intent = &intent
	}
	if u.Step != "" {
		s.Step = u.Step
	}
	if u.ClearAction {
		s.Action = nil
	} else if u.Action != nil {
		action := *u.Action
		s.Action = &action
	}
	if u.Response != "" {
		s.Response = u.Response
	}
}

// Empty reports whether the update writes nothing.
func (u Update) Empty() bool {
	return len(u.Messages) == 0 &&
		len(u.Slots) == 0 &&
		u.Intent == nil &&
		u.Step == "" &&
		u.Action == nil &&
		!u.ClearAction &&
		u.Response == ""
}
