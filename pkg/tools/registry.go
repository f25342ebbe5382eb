// Package tools is the extension surface for operations the chat model could
// eventually invoke. Tools are registered with a name, a human description and
// an argument schema; nothing forwards them to the generation provider yet.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/greenswap/greenswap/pkg/llm"
)

// ErrUnknownTool is returned when invoking a name that was never registered.
var ErrUnknownTool = errors.New("unknown tool")

// Definition describes a callable operation to whoever lists the registry.
type Definition struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  []llm.Field `json:"parameters"`
}

// InvokeFunc executes a tool with raw JSON arguments.
type InvokeFunc func(ctx context.Context, args json.RawMessage) (any, error)

// Tool pairs a definition with its implementation.
type Tool struct {
	Definition
	Invoke InvokeFunc
}

// Registry holds the registered tools. Registration happens at wiring time;
// lookups may run concurrently with it, hence the lock.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool; a duplicate name is a wiring bug and reported as such.
func (r *Registry) Register(t Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name]; exists {
		return fmt.Errorf("tool %q already registered", t.Name)
	}
	r.tools[t.Name] = t
	r.order = append(r.order, t.Name)
	return nil
}

// Definitions lists registered tools in registration order.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition)
	}
	return defs
}

// Invoke runs a registered tool by name.
func (r *Registry) Invoke(ctx context.Context, name string, args json.RawMessage) (any, error) {
	r.mu.RLock()
	t, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return t.Invoke(ctx, args)
}
