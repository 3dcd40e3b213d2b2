package types

// MessageRole identifies the author of a chat message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// ImageData is an inline image attachment for providers that accept vision
// input. Data is base64-encoded raw image bytes.
type ImageData struct {
	MimeType string
	Data     string
}

// Message is a single chat message exchanged with an answer provider.
type Message struct {
	Role    MessageRole
	Content string

	// Image is an optional inline image. Providers without vision support
	// ignore it.
	Image *ImageData
}

// NewSystemMessage creates a system-role message.
func NewSystemMessage(content string) *Message {
	return &Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a user-role message.
func NewUserMessage(content string) *Message {
	return &Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant-role message.
func NewAssistantMessage(content string) *Message {
	return &Message{Role: RoleAssistant, Content: content}
}
