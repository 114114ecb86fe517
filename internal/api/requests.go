package api

import (
	"bible-chat/backend/internal/model"
)

// PostChatRequest is the body of POST /api/chat.
type PostChatRequest struct {
	ID                     string      `json:"id" validate:"required,uuid"`
	Message                ChatMessage `json:"message"`
	SelectedChatModel      string      `json:"selectedChatModel" validate:"required,oneof=chat-model chat-model-reasoning" example:"chat-model"`
	SelectedVisibilityType string      `json:"selectedVisibilityType" validate:"required,oneof=private public" example:"private"`
	SelectedPersonaID      string      `json:"selectedPersonaId,omitempty" validate:"omitempty,max=64" example:"moses"`
}

// ChatMessage is the user message of a chat request.
type ChatMessage struct {
	ID    string        `json:"id" validate:"required,uuid"`
	Role  string        `json:"role" validate:"required,eq=user"`
	Parts []MessagePart `json:"parts" validate:"required,min=1,dive"`
}

// MessagePart is a text part or an image attachment.
type MessagePart struct {
	Type      string `json:"type" validate:"required,oneof=text file"`
	Text      string `json:"text,omitempty" validate:"required_if=Type text,max=2000"`
	MediaType string `json:"mediaType,omitempty" validate:"required_if=Type file,omitempty,oneof=image/jpeg image/png"`
	Name      string `json:"name,omitempty" validate:"required_if=Type file,max=100"`
	URL       string `json:"url,omitempty" validate:"required_if=Type file,omitempty,url"`
}

func (m ChatMessage) toModel() model.Message {
	parts := make([]model.Part, 0, len(m.Parts))
	for _, p := range m.Parts {
		switch p.Type {
		case model.PartText:
			parts = append(parts, model.Part{Type: model.PartText, Text: p.Text})
		case model.PartFile:
			parts = append(parts, model.Part{Type: model.PartFile, MediaType: p.MediaType, Name: p.Name, URL: p.URL})
		}
	}
	return model.Message{ID: m.ID, Role: model.RoleUser, Parts: parts}
}
