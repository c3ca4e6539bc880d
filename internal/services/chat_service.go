package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rpineda/aichat-be/internal/completion"
	"github.com/rpineda/aichat-be/internal/models"
)

// ChatServiceProvider defines the interface for chat services.
type ChatServiceProvider interface {
	AppendAndComplete(ctx context.Context, userID, content string) ([]models.Message, error)
	ListChats(ctx context.Context, userID string) ([]models.Message, error)
	ClearChats(ctx context.Context, userID string) error
}

// ChatService orchestrates the append-and-complete transaction over a user's
// chat log.
type ChatService struct {
	db       *sql.DB
	provider completion.Provider
}

// NewChatService creates a new ChatService.
func NewChatService(db *sql.DB, provider completion.Provider) *ChatService {
	return &ChatService{db: db, provider: provider}
}

// AppendAndComplete sends the stored history plus the new user message to the
// completion provider, then persists the user message and the reply in a
// single transaction. A provider failure leaves the stored history untouched,
// so no user turn is ever recorded without an assistant reply.
func (s *ChatService) AppendAndComplete(ctx context.Context, userID, content string) ([]models.Message, error) {
	if err := s.checkUser(ctx, userID); err != nil {
		return nil, err
	}

	history, err := s.loadChats(ctx, userID)
	if err != nil {
		return nil, err
	}

	userMsg := models.Message{Role: models.RoleUser, Content: content}
	outbound := append(history, userMsg)

	reply, err := s.provider.Complete(ctx, outbound)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	const insert = "INSERT INTO messages(user_id, role, content) VALUES(?, ?, ?)"
	if _, err := tx.ExecContext(ctx, insert, userID, userMsg.Role, userMsg.Content); err != nil {
		return nil, fmt.Errorf("failed to store user message: %w", err)
	}
	if _, err := tx.ExecContext(ctx, insert, userID, reply.Role, reply.Content); err != nil {
		return nil, fmt.Errorf("failed to store assistant message: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit chat transaction: %w", err)
	}

	return append(outbound, reply), nil
}

// ListChats returns the stored chat history in insertion order.
func (s *ChatService) ListChats(ctx context.Context, userID string) ([]models.Message, error) {
	if err := s.checkUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.loadChats(ctx, userID)
}

// ClearChats atomically replaces the user's chat log with an empty one.
func (s *ChatService) ClearChats(ctx context.Context, userID string) error {
	if err := s.checkUser(ctx, userID); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM messages WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("failed to clear chats: %w", err)
	}
	return nil
}

func (s *ChatService) checkUser(ctx context.Context, userID string) error {
	var exists bool
	err := s.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)", userID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if !exists {
		return ErrUnauthorized
	}
	return nil
}

func (s *ChatService) loadChats(ctx context.Context, userID string) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT role, content FROM messages WHERE user_id = ? ORDER BY id", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chats: %w", err)
	}
	defer rows.Close()

	chats := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.Role, &m.Content); err != nil {
			return nil, err
		}
		chats = append(chats, m)
	}
	return chats, rows.Err()
}
