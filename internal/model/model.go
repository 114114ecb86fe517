package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Visibility controls who besides the owner may read a chat.
type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Part types.
const (
	PartText      = "text"
	PartReasoning = "reasoning"
	PartFile      = "file"
	// Tool parts are typed "tool-<name>", e.g. "tool-getWeather".
	PartToolPrefix = "tool-"
)

// Chat stores metadata about a conversation.
type Chat struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userId"`
	Title      string     `json:"title"`
	Visibility Visibility `json:"visibility"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// Part is one typed element of a message's content.
type Part struct {
	Type       string          `json:"type"`
	Text       string          `json:"text,omitempty"`
	MediaType  string          `json:"mediaType,omitempty"`
	Name       string          `json:"name,omitempty"`
	URL        string          `json:"url,omitempty"`
	ToolCallID string          `json:"toolCallId,omitempty"`
	Input      json.RawMessage `json:"input,omitempty"`
	Output     json.RawMessage `json:"output,omitempty"`
}

// IsTool reports whether the part records a tool invocation.
func (p Part) IsTool() bool {
	return strings.HasPrefix(p.Type, PartToolPrefix)
}

// ToolName returns the tool name of a tool part.
func (p Part) ToolName() string {
	return strings.TrimPrefix(p.Type, PartToolPrefix)
}

// Attachment is a file the user attached to a message.
type Attachment struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
}

// Message stores a single message in a chat.
type Message struct {
	ID          string       `json:"id"`
	ChatID      string       `json:"chatId"`
	Role        string       `json:"role"`
	Parts       []Part       `json:"parts"`
	Attachments []Attachment `json:"attachments"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// Text concatenates the message's text parts.
func (m Message) Text() string {
	var sb strings.Builder
	for _, p := range m.Parts {
		if p.Type == PartText {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

// FirstText returns the text of the first part when it is a text part.
func (m Message) FirstText() string {
	if len(m.Parts) == 0 || m.Parts[0].Type != PartText {
		return ""
	}
	return m.Parts[0].Text
}

// StreamSession correlates a resumable stream with the chat it belongs to.
type StreamSession struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chatId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Stream event types sent to the client, one JSON object per SSE frame.
const (
	EventStart               = "start"
	EventStartStep           = "start-step"
	EventTextStart           = "text-start"
	EventTextDelta           = "text-delta"
	EventTextEnd             = "text-end"
	EventReasoningStart      = "reasoning-start"
	EventReasoningDelta      = "reasoning-delta"
	EventReasoningEnd        = "reasoning-end"
	EventToolInputAvailable  = "tool-input-available"
	EventToolOutputAvailable = "tool-output-available"
	EventFinishStep          = "finish-step"
	EventFinish              = "finish"
	EventError               = "error"
)

// StreamEvent is the structure for a single frame of a chat response stream.
type StreamEvent struct {
	Type       string          `json:"type"`
	ID         string          `json:"id,omitempty"`
	MessageID  string          `json:"messageId,omitempty"`
	Delta      string          `json:"delta,omitempty"`
	ToolCallID string          `json:"toolCallId,omitempty"`
	ToolName   string          `json:"toolName,omitempty"`
	Input      json.RawMessage `json:"input,omitempty"`
	Output     json.RawMessage `json:"output,omitempty"`
	ErrorText  string          `json:"errorText,omitempty"`
}
