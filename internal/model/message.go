package model

// Role is the author role of a thread message.
//
// Operator replies are persisted under RoleAssistant: the widget renders one
// "support" side of the thread whether the text came from the agent or from a
// human. Any consumer that branches on role to mean "bot or human" must be
// updated before a third role is introduced.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// SendMessageRequest is the widget request to submit a message. The contact
// session id authenticates the caller; the thread id selects the conversation.
type SendMessageRequest struct {
	Prompt           string `json:"prompt"`
	ThreadID         string `json:"thread_id"`
	ContactSessionID string `json:"contact_session_id"`
}

// OperatorMessageRequest is the dashboard request to reply to a conversation.
type OperatorMessageRequest struct {
	Prompt         string `json:"prompt"`
	ConversationID string `json:"conversation_id"`
}

// EnhanceRequest asks for an AI rewrite of free operator text.
type EnhanceRequest struct {
	Prompt string `json:"prompt"`
}

// EnhanceResponse carries the rewritten text. No state is touched.
type EnhanceResponse struct {
	Text string `json:"text"`
}
