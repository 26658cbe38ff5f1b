// Package engine defines the consumed interface of the external analysis
// engine: the collaborator that turns a (subject, date) pair into a raw
// result state plus a decision.
package engine

import (
	"context"
	"fmt"
	"strings"
)

// State is the engine's raw output. Values may be arbitrarily nested
// (strings, numbers, maps, sequences, structured records); the report layer
// is responsible for making it JSON-safe before persisting.
type State map[string]any

// StringField returns the named top-level field coerced to trimmed text.
// Missing and empty fields both return "".
func (s State) StringField(key string) string {
	return coerceString(s[key])
}

// NestedField returns key2 inside the map held at key1, coerced to text.
func (s State) NestedField(key1, key2 string) string {
	switch inner := s[key1].(type) {
	case State:
		return inner.StringField(key2)
	case map[string]any:
		return State(inner).StringField(key2)
	}
	return ""
}

// Engine produces an analysis for one subject on one calendar date.
//
// There is no timeout here by contract: bounding the call is the caller's
// choice (see engine.Config.Timeout for the HTTP client).
type Engine interface {
	Analyze(ctx context.Context, subject, date string) (State, string, error)
}

// Func adapts a plain function to the Engine interface.
type Func func(ctx context.Context, subject, date string) (State, string, error)

func (f Func) Analyze(ctx context.Context, subject, date string) (State, string, error) {
	return f(ctx, subject, date)
}

func coerceString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}
