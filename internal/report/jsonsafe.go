package report

import (
	"fmt"
	"reflect"
	"time"
)

// maxDepth bounds recursion so cyclic-looking nested values degrade to text
// instead of recursing forever.
const maxDepth = 32

// Sanitize converts an arbitrary engine value into a JSON-marshalable shape:
//
//   - primitives pass through unchanged
//   - time values become RFC 3339 text, durations their string form
//   - maps become string-keyed maps with sanitized values
//   - slices, arrays become sequences of sanitized values
//   - structs become maps of their exported fields; structs exposing a
//     Type+Content pair become {"type", "content"}
//   - anything else falls back to its textual representation
//
// Sanitize never panics and never returns an unmarshalable value.
func Sanitize(v any) any {
	return sanitize(v, 0)
}

func sanitize(v any, depth int) (out any) {
	defer func() {
		if r := recover(); r != nil {
			out = fmt.Sprint(v)
		}
	}()

	if depth > maxDepth {
		return fmt.Sprint(v)
	}

	switch x := v.(type) {
	case nil:
		return nil
	case bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return x
	case time.Time:
		return x.Format(time.RFC3339)
	case *time.Time:
		if x == nil {
			return nil
		}
		return x.Format(time.RFC3339)
	case time.Duration:
		return x.String()
	case error:
		return x.Error()
	case []byte:
		return string(x)
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, val := range x {
			m[k] = sanitize(val, depth+1)
		}
		return m
	case []any:
		s := make([]any, len(x))
		for i, val := range x {
			s[i] = sanitize(val, depth+1)
		}
		return s
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		if str, ok := v.(fmt.Stringer); ok {
			return str.String()
		}
		return sanitize(rv.Elem().Interface(), depth+1)
	case reflect.Map:
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[fmt.Sprint(iter.Key().Interface())] = sanitize(iter.Value().Interface(), depth+1)
		}
		return m
	case reflect.Slice, reflect.Array:
		s := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			s[i] = sanitize(rv.Index(i).Interface(), depth+1)
		}
		return s
	case reflect.Struct:
		if str, ok := v.(fmt.Stringer); ok {
			return str.String()
		}
		return sanitizeStruct(rv, depth)
	}

	if str, ok := v.(fmt.Stringer); ok {
		return str.String()
	}
	return fmt.Sprint(v)
}

func sanitizeStruct(rv reflect.Value, depth int) any {
	t := rv.Type()

	// Message-like records carrying a role/content shape collapse to
	// {type, content}.
	typeField, hasType := t.FieldByName("Type")
	contentField, hasContent := t.FieldByName("Content")
	if hasType && hasContent && typeField.IsExported() && contentField.IsExported() {
		return map[string]any{
			"type":    fmt.Sprint(rv.FieldByIndex(typeField.Index).Interface()),
			"content": sanitize(rv.FieldByIndex(contentField.Index).Interface(), depth+1),
		}
	}

	m := make(map[string]any)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		m[f.Name] = sanitize(rv.Field(i).Interface(), depth+1)
	}
	if len(m) == 0 {
		return fmt.Sprint(rv.Interface())
	}
	return m
}
