package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bible-chat/backend/internal/model"
)

// timeLayout is fixed-width so stored timestamps compare correctly as text.
const timeLayout = "2006-01-02 15:04:05.000"

func timestamp(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

type sqliteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRepository creates a repository on db.
func NewSQLiteRepository(db *sql.DB) Repository {
	return &sqliteRepository{db: db, now: time.Now}
}

func (r *sqliteRepository) GetChatByID(ctx context.Context, id string) (*model.Chat, error) {
	query := "SELECT id, user_id, title, visibility, created_at FROM chats WHERE id = ?"
	row := r.db.QueryRowContext(ctx, query, id)

	var chat model.Chat
	err := row.Scan(&chat.ID, &chat.UserID, &chat.Title, &chat.Visibility, &chat.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("could not get chat %s: %w", id, err)
	}
	return &chat, nil
}

func (r *sqliteRepository) SaveChat(ctx context.Context, chat *model.Chat) error {
	query := "INSERT INTO chats (id, user_id, title, visibility, created_at) VALUES (?, ?, ?, ?, ?)"
	_, err := r.db.ExecContext(ctx, query, chat.ID, chat.UserID, chat.Title, string(chat.Visibility), timestamp(chat.CreatedAt))
	if err != nil {
		return fmt.Errorf("could not save chat %s: %w", chat.ID, err)
	}
	return nil
}

func (r *sqliteRepository) DeleteChatByID(ctx context.Context, id string) (*model.Chat, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("could not begin transaction: %w", err)
	}
	// Ensure transaction is rolled back on error
	defer func() { _ = tx.Rollback() }()

	var chat model.Chat
	err = tx.QueryRowContext(ctx, "SELECT id, user_id, title, visibility, created_at FROM chats WHERE id = ?", id).
		Scan(&chat.ID, &chat.UserID, &chat.Title, &chat.Visibility, &chat.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("could not get chat %s: %w", id, err)
	}

	// Messages and streams go with the chat through ON DELETE CASCADE.
	if _, err := tx.ExecContext(ctx, "DELETE FROM chats WHERE id = ?", id); err != nil {
		return nil, fmt.Errorf("could not delete chat %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("could not commit chat deletion: %w", err)
	}
	return &chat, nil
}

func (r *sqliteRepository) GetChatsByUserID(ctx context.Context, userID string, limit int) ([]*model.Chat, error) {
	query := "SELECT id, user_id, title, visibility, created_at FROM chats WHERE user_id = ? ORDER BY created_at DESC LIMIT ?"
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("could not list chats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	chats := make([]*model.Chat, 0)
	for rows.Next() {
		var chat model.Chat
		if err := rows.Scan(&chat.ID, &chat.UserID, &chat.Title, &chat.Visibility, &chat.CreatedAt); err != nil {
			return nil, fmt.Errorf("could not scan chat: %w", err)
		}
		chats = append(chats, &chat)
	}
	return chats, rows.Err()
}

func (r *sqliteRepository) GetMessageCountByUserID(ctx context.Context, userID string, window time.Duration) (int, error) {
	query := `
		SELECT COUNT(*) FROM messages m
		JOIN chats c ON c.id = m.chat_id
		WHERE c.user_id = ? AND m.role = 'user' AND m.created_at >= ?
	`
	var count int
	if err := r.db.QueryRowContext(ctx, query, userID, timestamp(r.now().Add(-window))).Scan(&count); err != nil {
		return 0, fmt.Errorf("could not count messages: %w", err)
	}
	return count, nil
}

func (r *sqliteRepository) GetMessagesByChatID(ctx context.Context, chatID string) ([]model.Message, error) {
	query := `
		SELECT id, chat_id, role, parts, attachments, created_at
		FROM messages
		WHERE chat_id = ?
		ORDER BY created_at ASC, rowid ASC
	`
	rows, err := r.db.QueryContext(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("could not get messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	messages := make([]model.Message, 0)
	for rows.Next() {
		var (
			msg                model.Message
			parts, attachments string
		)
		if err := rows.Scan(&msg.ID, &msg.ChatID, &msg.Role, &parts, &attachments, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("could not scan message: %w", err)
		}
		if err := json.Unmarshal([]byte(parts), &msg.Parts); err != nil {
			return nil, fmt.Errorf("could not decode parts of message %s: %w", msg.ID, err)
		}
		if err := json.Unmarshal([]byte(attachments), &msg.Attachments); err != nil {
			return nil, fmt.Errorf("could not decode attachments of message %s: %w", msg.ID, err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// SaveMessages inserts all messages in one transaction.
func (r *sqliteRepository) SaveMessages(ctx context.Context, messages []model.Message) error {
	if len(messages) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := "INSERT INTO messages (id, chat_id, role, parts, attachments, created_at) VALUES (?, ?, ?, ?, ?, ?)"
	for _, msg := range messages {
		parts, err := json.Marshal(nonNil(msg.Parts))
		if err != nil {
			return fmt.Errorf("could not encode parts of message %s: %w", msg.ID, err)
		}
		attachments, err := json.Marshal(nonNil(msg.Attachments))
		if err != nil {
			return fmt.Errorf("could not encode attachments of message %s: %w", msg.ID, err)
		}
		if _, err := tx.ExecContext(ctx, query, msg.ID, msg.ChatID, msg.Role, string(parts), string(attachments), timestamp(msg.CreatedAt)); err != nil {
			return fmt.Errorf("could not insert message %s: %w", msg.ID, err)
		}
	}

	return tx.Commit()
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func (r *sqliteRepository) CreateStreamID(ctx context.Context, streamID, chatID string) error {
	query := "INSERT INTO streams (id, chat_id, created_at) VALUES (?, ?, ?)"
	if _, err := r.db.ExecContext(ctx, query, streamID, chatID, timestamp(r.now())); err != nil {
		return fmt.Errorf("could not create stream id: %w", err)
	}
	return nil
}

func (r *sqliteRepository) GetStreamIDsByChatID(ctx context.Context, chatID string) ([]string, error) {
	query := "SELECT id FROM streams WHERE chat_id = ? ORDER BY created_at ASC, rowid ASC"
	rows, err := r.db.QueryContext(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("could not get stream ids: %w", err)
	}
	defer func() { _ = rows.Close() }()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("could not scan stream id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
