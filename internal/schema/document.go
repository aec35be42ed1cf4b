package schema

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNoRootContext is returned by Check when the root node lacks @context.
	ErrNoRootContext = errors.New("root node does not declare @context")
	// ErrNestedContext is returned by Check when a nested node declares @context.
	ErrNestedContext = errors.New("nested node declares @context")
)

// Marshal serializes root as a pretty-printed JSON-LD document.
//
// Slashes and non-ASCII text are written as-is. <, > and & are escaped so
// the document can be placed inside a script element unchanged.
func Marshal(root Entity) ([]byte, error) {
	if !root.HasContext() {
		return nil, fmt.Errorf("failed to marshal %s: %w", root.EntityType(), ErrNoRootContext)
	}
	data, err := json.MarshalIndent(root, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", root.EntityType(), err)
	}
	return data, nil
}

// Check verifies that data is a JSON object whose root, and only its root,
// declares the schema.org context.
func Check(data []byte) error {
	var root map[string]any
	if err := json.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("invalid JSON-LD document: %w", err)
	}
	if root["@context"] != Context {
		return ErrNoRootContext
	}
	for key, v := range root {
		if key == "@context" {
			continue
		}
		if hasContext(v) {
			return fmt.Errorf("%w: under %q", ErrNestedContext, key)
		}
	}
	return nil
}

func hasContext(v any) bool {
	switch t := v.(type) {
	case map[string]any:
		if _, ok := t["@context"]; ok {
			return true
		}
		for _, child := range t {
			if hasContext(child) {
				return true
			}
		}
	case []any:
		for _, child := range t {
			if hasContext(child) {
				return true
			}
		}
	}
	return false
}
