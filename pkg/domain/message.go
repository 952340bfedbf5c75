package domain

// Message roles. The engine only ever appends messages; history is immutable.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is a single role-tagged utterance in the conversation history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UserMessage is a convenience constructor for a user utterance.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage is a convenience constructor for an agent reply.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}
