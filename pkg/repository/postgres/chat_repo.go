package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/greenswap/greenswap/pkg/chat"
)

// ChatRepository implements chat.Repository backed by PostgreSQL (pgx).
// The transcript is kept as one JSONB document per conversation; nothing in
// the domain queries individual messages.
type ChatRepository struct {
	pool *pgxpool.Pool
}

func NewChatRepository(pool *pgxpool.Pool) (*ChatRepository, error) {
	r := &ChatRepository{pool: pool}
	if err := r.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *ChatRepository) ensureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS chats (
	id TEXT PRIMARY KEY,
	user_id UUID NOT NULL,
	messages JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chats_user ON chats(user_id);
`)
	return err
}

// Save upserts the conversation: first save creates the record, later saves
// replace the transcript and bump updated_at while created_at stays put.
func (r *ChatRepository) Save(ctx context.Context, conv chat.Conversation) error {
	payload, err := json.Marshal(conv.Messages)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err = r.pool.Exec(ctx, `
INSERT INTO chats (id, user_id, messages, created_at, updated_at)
VALUES ($1, $2, $3, $4, $4)
ON CONFLICT (id) DO UPDATE SET
	messages = EXCLUDED.messages,
	updated_at = EXCLUDED.updated_at
`, conv.ID, conv.UserID, payload, now)
	return err
}

func (r *ChatRepository) GetByID(ctx context.Context, id string) (chat.Conversation, error) {
	row := r.pool.QueryRow(ctx, `
SELECT id, user_id, messages, created_at, updated_at FROM chats WHERE id = $1
`, id)
	var conv chat.Conversation
	var payload []byte
	var created, updated time.Time
	if err := row.Scan(&conv.ID, &conv.UserID, &payload, &created, &updated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return chat.Conversation{}, chat.ErrNotFound
		}
		return chat.Conversation{}, err
	}
	if err := json.Unmarshal(payload, &conv.Messages); err != nil {
		return chat.Conversation{}, err
	}
	conv.CreatedAt = created.UTC()
	conv.UpdatedAt = updated.UTC()
	return conv, nil
}

func (r *ChatRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]chat.Conversation, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
SELECT id, user_id, messages, created_at, updated_at FROM chats
WHERE user_id = $1
ORDER BY updated_at DESC
LIMIT $2 OFFSET $3
`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []chat.Conversation
	for rows.Next() {
		var conv chat.Conversation
		var payload []byte
		var created, updated time.Time
		if err := rows.Scan(&conv.ID, &conv.UserID, &payload, &created, &updated); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(payload, &conv.Messages); err != nil {
			return nil, err
		}
		conv.CreatedAt = created.UTC()
		conv.UpdatedAt = updated.UTC()
		res = append(res, conv)
	}
	return res, rows.Err()
}

func (r *ChatRepository) DeleteByID(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM chats WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return chat.ErrNotFound
	}
	return nil
}
