package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/greenswap/greenswap/pkg/llm"
)

const structuredSystemPrompt = "You are a structured data generator. " +
	"Reply with STRICTLY the requested JSON and nothing else: no markdown, no code fences, no explanations. " +
	"Every declared field must be present. Do not invent extra fields."

// GenerateObject asks the model for schema-conforming JSON and decodes it into
// out. The reply is verified against the declared schema (all fields present,
// no unknown fields, types as decoded) before being handed back; any mismatch
// is reported as llm.ErrGeneration.
func (c *Client) GenerateObject(ctx context.Context, prompt string, schema llm.Schema, out any) error {
	user := prompt + "\n\n" + schema.Instruction()
	raw, err := c.Ask(ctx, structuredSystemPrompt, user)
	if err != nil {
		return fmt.Errorf("%w: %v", llm.ErrGeneration, err)
	}
	payload := extractJSON(raw, schema.Array)
	if payload == "" {
		return fmt.Errorf("%w: no JSON in model reply", llm.ErrGeneration)
	}
	if err := verifyFields([]byte(payload), schema); err != nil {
		return fmt.Errorf("%w: %v", llm.ErrGeneration, err)
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(payload)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: decode reply: %v", llm.ErrGeneration, err)
	}
	return nil
}

// extractJSON slices the outermost JSON value out of a possibly chatty
// reply, recovering from models that wrap output in prose or fences despite
// instructions.
func extractJSON(raw string, array bool) string {
	raw = strings.TrimSpace(raw)
	opener, closer := "{", "}"
	if array {
		opener, closer = "[", "]"
	}
	if strings.HasPrefix(raw, opener) && strings.HasSuffix(raw, closer) {
		return raw
	}
	i := strings.Index(raw, opener)
	j := strings.LastIndex(raw, closer)
	if i >= 0 && j > i {
		return raw[i : j+1]
	}
	return ""
}

func verifyFields(payload []byte, schema llm.Schema) error {
	if schema.Array {
		var items []map[string]json.RawMessage
		if err := json.Unmarshal(payload, &items); err != nil {
			return fmt.Errorf("reply is not a JSON array of objects: %v", err)
		}
		for idx, item := range items {
			if err := checkObject(item, schema); err != nil {
				return fmt.Errorf("element %d: %v", idx, err)
			}
		}
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(payload, &obj); err != nil {
		return fmt.Errorf("reply is not a JSON object: %v", err)
	}
	return checkObject(obj, schema)
}

func checkObject(obj map[string]json.RawMessage, schema llm.Schema) error {
	for _, name := range schema.FieldNames() {
		if _, ok := obj[name]; !ok {
			return fmt.Errorf("missing field %q", name)
		}
	}
	if len(obj) > len(schema.Fields) {
		for key := range obj {
			known := false
			for _, name := range schema.FieldNames() {
				if key == name {
					known = true
					break
				}
			}
			if !known {
				return fmt.Errorf("unexpected field %q", key)
			}
		}
	}
	return nil
}
