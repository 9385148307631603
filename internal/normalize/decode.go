package normalize

import (
	"math"
	"strconv"
	"strings"
)

// Attribute type tags of a typed-storage record.
const (
	tagString = "S"
	tagNumber = "N"
	tagBool   = "BOOL"
	tagMap    = "M"
	tagList   = "L"
)

// DecodeItem converts an attribute-typed record such as
// {"title":{"S":"x"},"done":{"BOOL":false}} into {"title":"x","done":false}.
// Values that are not typed wrappers are copied unchanged.
func DecodeItem(rec map[string]any) map[string]any {
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		wrapper, ok := v.(map[string]any)
		if !ok {
			out[k] = v
			continue
		}
		if decoded, ok := decodeTyped(wrapper); ok {
			out[k] = decoded
			continue
		}
		out[k] = v
	}
	return out
}

// decodeTyped unwraps a single typed value. The tags are checked in a
// fixed order; ok is false when none is present or the payload of L is
// not a list.
func decodeTyped(w map[string]any) (any, bool) {
	if v, ok := w[tagString]; ok {
		return v, true
	}
	if v, ok := w[tagNumber]; ok {
		return toNumber(v), true
	}
	if v, ok := w[tagBool]; ok {
		return Truthy(v), true
	}
	if v, ok := w[tagMap]; ok {
		rec, _ := v.(map[string]any)
		return DecodeItem(rec), true
	}
	if v, ok := w[tagList]; ok {
		list, isList := v.([]any)
		if !isList {
			return nil, false
		}
		return decodeList(list), true
	}
	return nil, false
}

func decodeList(list []any) []any {
	out := make([]any, len(list))
	for i, el := range list {
		w, ok := el.(map[string]any)
		if !ok {
			out[i] = el
			continue
		}
		if decoded, ok := decodeTyped(w); ok {
			out[i] = decoded
			continue
		}
		out[i] = el
	}
	return out
}

// toNumber follows JavaScript Number() conversion. A value that is not a
// number yields nil, which is how NaN renders as JSON.
func toNumber(v any) any {
	switch n := v.(type) {
	case nil:
		return float64(0)
	case float64:
		return n
	case bool:
		if n {
			return float64(1)
		}
		return float64(0)
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return float64(0)
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) {
			return nil
		}
		return f
	}
	return nil
}

// Truthy reports JavaScript truthiness of a JSON value.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case string:
		return x != ""
	}
	return true
}
