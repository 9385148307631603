package normalize

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Field aliases the backend has used over time, in lookup order.
var (
	TitleKeys = []string{"title", "text", "name", "Task", "todo", "TITLE"}
	IDKeys    = []string{"id", "todoId", "pk", "ID", "pk_id", "uuid"}
)

// Lookup returns the value of the first key in keys that is present in
// rec with a non-null value.
func Lookup(rec map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := rec[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// Title returns the display title of a record. Records without a known
// title field, and non-record values, render as their JSON encoding.
func Title(v any) string {
	if rec, ok := v.(map[string]any); ok {
		if t, ok := Lookup(rec, TitleKeys); ok {
			return Stringify(t)
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// ID returns the identifier of a record, or false when none of IDKeys
// is set.
func ID(v any) (string, bool) {
	rec, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	id, ok := Lookup(rec, IDKeys)
	if !ok {
		return "", false
	}
	return Stringify(id), true
}

// Stringify renders a scalar the way string concatenation would:
// integers without a fraction, other values as JSON.
func Stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
