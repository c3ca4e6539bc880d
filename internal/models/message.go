package models

// Message roles. The completion API also knows a "system" role, but stored
// conversations only ever contain user and assistant turns.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single role-tagged entry in a user's chat log. The JSON shape
// doubles as the wire format for the completion API.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
