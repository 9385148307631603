// Package normalize converts the response shapes returned by the todo
// backend into a flat sequence of plain task records.
//
// The backend has answered with bare arrays, API-gateway wrappers,
// attribute-typed storage records and JSON strings nested inside JSON.
// Normalize absorbs all of them so callers never need to know which one
// arrived. Input is the generic value produced by encoding/json
// (map[string]any, []any, string, float64, bool, nil).
package normalize

import (
	"encoding/json"
)

// Shape is one recognized input shape. Shapes are tried in declaration
// order; the first match wins.
type Shape int

const (
	// ShapeEmpty is nil or a JSON-falsy scalar.
	ShapeEmpty Shape = iota
	// ShapeList is a bare array.
	ShapeList
	// ShapeItems is an object with an array-valued "Items" field.
	ShapeItems
	// ShapeItem is an object with a single "Item" record.
	ShapeItem
	// ShapeStringBody is an object whose "body" is a JSON string.
	ShapeStringBody
	// ShapeString is a JSON document encoded as a string.
	ShapeString
	// ShapeFallback is an object carrying an array under a well-known key.
	ShapeFallback
	// ShapePassthrough is anything else.
	ShapePassthrough
)

var shapeNames = [...]string{
	ShapeEmpty:       "empty",
	ShapeList:        "list",
	ShapeItems:       "items",
	ShapeItem:        "item",
	ShapeStringBody:  "string-body",
	ShapeString:      "string",
	ShapeFallback:    "fallback",
	ShapePassthrough: "passthrough",
}

func (s Shape) String() string {
	if int(s) < len(shapeNames) {
		return shapeNames[s]
	}
	return "unknown"
}

// FallbackKeys are probed in order for an array when no other shape matches.
var FallbackKeys = []string{"todos", "data", "items", "body"}

// Classify reports which shape raw has.
func Classify(raw any) Shape {
	if !Truthy(raw) {
		return ShapeEmpty
	}

	switch v := raw.(type) {
	case []any:
		return ShapeList
	case string:
		return ShapeString
	case map[string]any:
		if _, ok := v["Items"].([]any); ok {
			return ShapeItems
		}
		if Truthy(v["Item"]) {
			return ShapeItem
		}
		if body, ok := v["body"].(string); ok && body != "" {
			return ShapeStringBody
		}
		if _, ok := fallbackArray(v); ok {
			return ShapeFallback
		}
	}
	return ShapePassthrough
}

// Normalize returns the task records contained in raw, in response order.
// It never fails: unrecognized input degrades to a one-element sequence
// holding raw itself, and undecodable JSON strings yield an empty sequence.
func Normalize(raw any) []any {
	switch Classify(raw) {
	case ShapeEmpty:
		return []any{}

	case ShapeList:
		list := raw.([]any)
		if len(list) == 0 {
			return list
		}
		if first, ok := list[0].(map[string]any); ok && hasNestedValue(first) {
			return decodeAll(list)
		}
		return list

	case ShapeItems:
		return decodeAll(raw.(map[string]any)["Items"].([]any))

	case ShapeItem:
		item := raw.(map[string]any)["Item"]
		if rec, ok := item.(map[string]any); ok {
			return []any{DecodeItem(rec)}
		}
		return []any{item}

	case ShapeStringBody:
		return normalizeJSON(raw.(map[string]any)["body"].(string))

	case ShapeString:
		return normalizeJSON(raw.(string))

	case ShapeFallback:
		list, _ := fallbackArray(raw.(map[string]any))
		return list
	}

	return []any{raw}
}

func normalizeJSON(s string) []any {
	var parsed any
	if err := json.Unmarshal([]byte(s), &parsed); err != nil {
		return []any{}
	}
	return Normalize(parsed)
}

// hasNestedValue reports whether any value of rec is an object, an array
// or null. It is the hint that rec is attribute-typed.
func hasNestedValue(rec map[string]any) bool {
	for _, v := range rec {
		switch v.(type) {
		case nil, map[string]any, []any:
			return true
		}
	}
	return false
}

// decodeAll decodes every object element and keeps the others as they are.
func decodeAll(list []any) []any {
	out := make([]any, len(list))
	for i, el := range list {
		if rec, ok := el.(map[string]any); ok {
			out[i] = DecodeItem(rec)
			continue
		}
		out[i] = el
	}
	return out
}

func fallbackArray(rec map[string]any) ([]any, bool) {
	for _, k := range FallbackKeys {
		if list, ok := rec[k].([]any); ok {
			return list, true
		}
	}
	return nil, false
}
