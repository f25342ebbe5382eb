package llm

import (
	"fmt"
	"strings"
)

// Field describes one property of a generated object.
type Field struct {
	Name        string
	Type        string // "string" or "number"
	Description string
}

// Schema declares the shape of a structured generation result: a single
// object, or an array of such objects when Array is set.
type Schema struct {
	Array  bool
	Fields []Field
}

// Object builds a single-object schema.
func Object(fields ...Field) Schema {
	return Schema{Fields: fields}
}

// ArrayOf builds an array-of-objects schema.
func ArrayOf(fields ...Field) Schema {
	return Schema{Array: true, Fields: fields}
}

// Instruction renders the schema as a strict-JSON instruction block suitable
// for appending to a generation prompt.
func (s Schema) Instruction() string {
	var b strings.Builder
	if s.Array {
		b.WriteString("Return STRICTLY one JSON array of objects, each matching this shape:\n")
	} else {
		b.WriteString("Return STRICTLY one JSON object matching this shape:\n")
	}
	b.WriteString("{\n")
	for i, f := range s.Fields {
		fmt.Fprintf(&b, "  %q: %s", f.Name, f.Type)
		if i < len(s.Fields)-1 {
			b.WriteString(",")
		}
		if f.Description != "" {
			fmt.Fprintf(&b, " // %s", f.Description)
		}
		b.WriteString("\n")
	}
	b.WriteString("}\n")
	b.WriteString("Rules:\n- No additional fields\n- No markdown, code fences or commentary\n- Every declared field must be present\n")
	return b.String()
}

// FieldNames lists the declared field names, used to verify provider output.
func (s Schema) FieldNames() []string {
	names := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		names = append(names, f.Name)
	}
	return names
}
