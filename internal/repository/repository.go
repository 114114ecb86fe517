package repository

import (
	"context"
	"time"

	"bible-chat/backend/internal/model"
)

// Repository defines the interface for data storage operations.
type Repository interface {
	// GetChatByID returns ErrNotFound when the chat does not exist.
	GetChatByID(ctx context.Context, id string) (*model.Chat, error)
	SaveChat(ctx context.Context, chat *model.Chat) error
	// DeleteChatByID deletes a chat with its messages and streams and returns
	// the deleted chat.
	DeleteChatByID(ctx context.Context, id string) (*model.Chat, error)
	// GetChatsByUserID lists a user's chats, newest first.
	GetChatsByUserID(ctx context.Context, userID string, limit int) ([]*model.Chat, error)

	// GetMessageCountByUserID counts the user-role messages a user sent in
	// the trailing window.
	GetMessageCountByUserID(ctx context.Context, userID string, window time.Duration) (int, error)
	GetMessagesByChatID(ctx context.Context, chatID string) ([]model.Message, error)
	SaveMessages(ctx context.Context, messages []model.Message) error

	CreateStreamID(ctx context.Context, streamID, chatID string) error
	// GetStreamIDsByChatID returns stream ids oldest first.
	GetStreamIDsByChatID(ctx context.Context, chatID string) ([]string, error)
}
