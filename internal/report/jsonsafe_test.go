package report

import (
	"encoding/json"
	"testing"
	"time"
)

type message struct {
	Type    string
	Content string
}

type payload struct {
	Name  string
	Count int
	When  time.Time

	hidden string
}

func TestSanitizePrimitivesPassThrough(t *testing.T) {
	t.Parallel()
	for _, v := range []any{nil, true, "text", 42, int64(-7), 3.14} {
		if got := Sanitize(v); got != v {
			t.Fatalf("Sanitize(%v) = %v", v, got)
		}
	}
}

func TestSanitizeTimeAndDuration(t *testing.T) {
	t.Parallel()
	when := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	if got := Sanitize(when); got != "2025-03-10T09:30:00Z" {
		t.Fatalf("time = %v", got)
	}
	if got := Sanitize(&when); got != "2025-03-10T09:30:00Z" {
		t.Fatalf("*time = %v", got)
	}
	if got := Sanitize(90 * time.Second); got != "1m30s" {
		t.Fatalf("duration = %v", got)
	}
}

func TestSanitizeNestedShapes(t *testing.T) {
	t.Parallel()
	in := map[string]any{
		"messages": []any{
			message{Type: "human", Content: "analyze CL=F"},
			message{Type: "ai", Content: "done"},
		},
		"meta": map[string]int{"retries": 2},
		"raw":  []byte("bytes"),
	}

	out := Sanitize(in)
	b, err := json.Marshal(out)
	if err != nil {
		t.Fatalf("result not marshalable: %v", err)
	}

	m, ok := out.(map[string]any)
	if !ok {
		t.Fatalf("expected map, got %T", out)
	}
	msgs, ok := m["messages"].([]any)
	if !ok || len(msgs) != 2 {
		t.Fatalf("messages = %v", m["messages"])
	}
	first, ok := msgs[0].(map[string]any)
	if !ok || first["type"] != "human" || first["content"] != "analyze CL=F" {
		t.Fatalf("message collapsed wrong: %v", msgs[0])
	}
	if m["raw"] != "bytes" {
		t.Fatalf("raw = %v", m["raw"])
	}
	_ = b
}

func TestSanitizeStructExportedFieldsOnly(t *testing.T) {
	t.Parallel()
	out := Sanitize(payload{Name: "x", Count: 3, When: time.Unix(0, 0).UTC(), hidden: "no"})
	m, ok := out.(map[string]any)
	if !ok {
		t.Fatalf("expected map, got %T", out)
	}
	if m["Name"] != "x" || m["Count"] != 3 {
		t.Fatalf("unexpected fields: %v", m)
	}
	if _, found := m["hidden"]; found {
		t.Fatal("unexported field leaked")
	}
	if _, err := json.Marshal(out); err != nil {
		t.Fatalf("marshal: %v", err)
	}
}

func TestSanitizeDepthCap(t *testing.T) {
	t.Parallel()
	deep := map[string]any{}
	cur := deep
	for i := 0; i < maxDepth+10; i++ {
		next := map[string]any{}
		cur["inner"] = next
		cur = next
	}
	cur["leaf"] = func() {}

	out := Sanitize(deep)
	if _, err := json.Marshal(out); err != nil {
		t.Fatalf("deep structure not marshalable: %v", err)
	}
}

func TestSanitizeUnmarshalableFallsBackToText(t *testing.T) {
	t.Parallel()
	in := map[string]any{
		"fn": func() {},
		"ch": make(chan int),
	}
	out := Sanitize(in)
	if _, err := json.Marshal(out); err != nil {
		t.Fatalf("fallback not marshalable: %v", err)
	}
}

func TestSanitizeIdempotentOnSafeInput(t *testing.T) {
	t.Parallel()
	in := map[string]any{"a": "b", "n": 1.0, "list": []any{"x", 2.0}}
	once := Sanitize(in)
	twice := Sanitize(once)

	b1, _ := json.Marshal(once)
	b2, _ := json.Marshal(twice)
	if string(b1) != string(b2) {
		t.Fatalf("not idempotent: %s vs %s", b1, b2)
	}
}
