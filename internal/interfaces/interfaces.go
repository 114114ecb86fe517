package interfaces

import (
	"context"

	"bible-chat/backend/internal/auth"
	"bible-chat/backend/internal/model"
	"bible-chat/backend/internal/persona"
	"bible-chat/backend/internal/service"
)

// This file defines the interfaces for our core services.
// The API layer depends on these rather than on concrete implementations so
// handlers can be tested against mocks.

// ChatService defines the contract for chat-related business logic.
type ChatService interface {
	StartChat(ctx context.Context, session *auth.Session, req *service.ChatRequest) (*service.ChatStream, error)
	DeleteChat(ctx context.Context, session *auth.Session, id string) (*model.Chat, error)
	ListChats(ctx context.Context, session *auth.Session, limit int) ([]*model.Chat, error)
	GetChatMessages(ctx context.Context, session *auth.Session, id string) ([]model.Message, error)
	ResumeStream(ctx context.Context, session *auth.Session, chatID string) (*service.ChatStream, error)
	Personas() []persona.Persona
}

var _ ChatService = (*service.ChatService)(nil)
