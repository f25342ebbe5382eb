package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/greenswap/greenswap/pkg/llm"
)

// UseCase drives a chat turn end to end: prompt augmentation, streaming
// generation and transcript persistence, plus owner-guarded deletion.
type UseCase interface {
	StreamTurn(ctx context.Context, userID uuid.UUID, convID string, messages []Message) (<-chan llm.StreamChunk, error)
	Delete(ctx context.Context, requesterID uuid.UUID, convID string) error
	History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Summary, error)
}

// Summary is the sidebar view of a conversation: its id, a title derived from
// the first user message, and the last activity time.
type Summary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type service struct {
	model  llm.StreamingModel
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService returns the default orchestrator implementation.
func NewService(model llm.StreamingModel, repo Repository) UseCase {
	return &service{
		model:  model,
		repo:   repo,
		logger: slog.Default(),
		now:    time.Now,
	}
}

// Normalize drops messages with empty content, preserving order.
func Normalize(messages []Message) []Message {
	out := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Content == "" {
			continue
		}
		out = append(out, m)
	}
	return out
}

// AugmentQuery rewrites the raw user query into the sustainability-biased
// form sent to the model.
func AugmentQuery(raw string) string {
	return fmt.Sprintf("What are some sustainable alternatives to %s?", raw)
}

// systemPrompt fixes the assistant persona. The augmented query appears here
// verbatim and again as a trailing user message; the repetition is deliberate
// so the bias holds regardless of which part of the prompt the model weighs.
func systemPrompt(augmented string, today time.Time) string {
	var b strings.Builder
	b.WriteString("- You help users find sustainable alternatives to products.\n")
	b.WriteString("- Keep your responses limited to a sentence.\n")
	b.WriteString("- DO NOT output lists.\n")
	fmt.Fprintf(&b, "- Today's date is %s.\n", today.Format("1/2/2006"))
	b.WriteString("- Ask follow-up questions to nudge the user into the optimal flow.\n")
	b.WriteString("- Ask for any details you don't know, like product specifications, etc.\n")
	fmt.Fprintf(&b, "- Here is the modified prompt: %s\n", augmented)
	return b.String()
}

// StreamTurn normalizes the incoming history, augments the latest user query
// and forwards provider chunks in order. Once the provider stream completes
// cleanly the full transcript is saved; a save failure is logged and swallowed
// because the response has already been delivered. If ctx is cancelled
// mid-stream (client gone) persistence is skipped entirely.
func (s *service) StreamTurn(ctx context.Context, userID uuid.UUID, convID string, messages []Message) (<-chan llm.StreamChunk, error) {
	normalized := Normalize(messages)
	if len(normalized) == 0 {
		return nil, ErrEmptyConversation
	}
	augmented := AugmentQuery(normalized[len(normalized)-1].Content)

	history := make([]llm.Message, 0, len(normalized)+1)
	for _, m := range normalized {
		history = append(history, llm.Message{Role: m.Role, Content: m.Content})
	}
	history = append(history, llm.Message{Role: RoleUser, Content: augmented})

	upstream, err := s.model.Stream(ctx, systemPrompt(augmented, s.now()), history)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", llm.ErrGeneration, err)
	}

	out := make(chan llm.StreamChunk, 8)
	go func() {
		defer close(out)
		var reply strings.Builder
		failed := false
		for chunk := range upstream {
			if chunk.Err != nil {
				failed = true
			} else {
				reply.WriteString(chunk.Text)
			}
			select {
			case out <- chunk:
			case <-ctx.Done():
				return
			}
		}
		if failed || ctx.Err() != nil {
			return
		}
		s.persist(userID, convID, normalized, reply.String())
	}()
	return out, nil
}

func (s *service) persist(userID uuid.UUID, convID string, normalized []Message, reply string) {
	// The request context may already be done once streaming finishes,
	// so the save runs under its own deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	now := s.now().UTC()
	conv := Conversation{
		ID:        convID,
		UserID:    userID,
		Messages:  append(append([]Message{}, normalized...), Message{Role: RoleAssistant, Content: reply}),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Save(ctx, conv); err != nil {
		s.logger.Error("failed to save chat", "conversation_id", convID, "error", err)
	}
}

// History lists the requester's conversations, most recently updated first.
func (s *service) History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Summary, error) {
	convs, err := s.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	summaries := make([]Summary, 0, len(convs))
	for _, conv := range convs {
		summaries = append(summaries, Summary{
			ID:        conv.ID,
			Title:     title(conv.Messages),
			UpdatedAt: conv.UpdatedAt,
		})
	}
	return summaries, nil
}

func title(messages []Message) string {
	const maxLen = 80
	for _, m := range messages {
		if m.Role != RoleUser || m.Content == "" {
			continue
		}
		if len(m.Content) > maxLen {
			cut := maxLen
			for cut > 0 && !utf8.RuneStart(m.Content[cut]) {
				cut--
			}
			return m.Content[:cut]
		}
		return m.Content
	}
	return "New conversation"
}

// Delete removes a conversation after verifying the requester owns it.
func (s *service) Delete(ctx context.Context, requesterID uuid.UUID, convID string) error {
	conv, err := s.repo.GetByID(ctx, convID)
	if err != nil {
		return err
	}
	if conv.UserID != requesterID {
		return ErrNotOwner
	}
	if err := s.repo.DeleteByID(ctx, convID); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}
