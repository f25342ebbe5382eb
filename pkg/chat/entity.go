package chat

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Message roles accepted on a conversation.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleTool      = "tool"
)

var (
	// ErrNotFound is returned when a conversation id has no record.
	ErrNotFound = errors.New("conversation not found")
	// ErrNotOwner is returned when the requester does not own the conversation.
	ErrNotOwner = errors.New("requester does not own conversation")
	// ErrEmptyConversation is returned when no message carries any content.
	ErrEmptyConversation = errors.New("conversation has no non-empty messages")
)

// Message is a single turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation is an ordered message sequence owned by the user who first
// saved it. The id is client-supplied, so it stays an opaque string.
type Conversation struct {
	ID        string
	UserID    uuid.UUID
	Messages  []Message
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository abstracts conversation persistence from the domain layer.
// Save creates the record on first use and replaces the transcript afterwards.
type Repository interface {
	Save(ctx context.Context, conv Conversation) error
	GetByID(ctx context.Context, id string) (Conversation, error)
	DeleteByID(ctx context.Context, id string) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Conversation, error)
}
