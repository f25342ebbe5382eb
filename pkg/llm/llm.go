package llm

import (
	"context"
	"errors"
)

// ErrGeneration is returned when the provider fails to produce usable output,
// including output that does not conform to a requested schema.
var ErrGeneration = errors.New("generation failed")

// Message is a single turn in a chat exchange.
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system", "tool"
	Content string `json:"content"`
}

// StreamChunk is one piece of a streaming completion. Err is set on the final
// chunk when the stream terminated abnormally.
type StreamChunk struct {
	Text string
	Err  error
}

// ChatModel is a minimal abstraction for chat-based LLMs used by the domain.
// It intentionally hides concrete providers to preserve dependency direction.
type ChatModel interface {
	Ask(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// StreamingModel produces a completion incrementally. The returned channel is
// closed when the provider finishes; chunks arrive in provider order.
type StreamingModel interface {
	Stream(ctx context.Context, systemPrompt string, messages []Message) (<-chan StreamChunk, error)
}

// StructuredModel generates a value conforming to a declared schema and
// unmarshals it into out (a pointer to a struct, or to a slice when the schema
// is array-shaped). A non-conforming provider reply yields ErrGeneration.
type StructuredModel interface {
	GenerateObject(ctx context.Context, prompt string, schema Schema, out any) error
}
