// Package series turns heterogeneous upstream price payloads into a canonical,
// chronologically ordered chart series and reduces large series for rendering.
package series

import (
	"bytes"
	"encoding/json"
)

// ShapeKind identifies which upstream payload layout a raw value uses
type ShapeKind int

const (
	// ShapeUnknown is anything the normalizer does not recognize
	ShapeUnknown ShapeKind = iota
	// ShapeBars is an array of bar-like objects with date/open/high/low/close/volume
	ShapeBars
	// ShapeTimestampArrays is a timestamp[] array plus parallel indicator arrays
	ShapeTimestampArrays
	// ShapeQuotes is an object carrying a quotes[] array of bar-like objects
	ShapeQuotes
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeBars:
		return "bars"
	case ShapeTimestampArrays:
		return "timestamp_arrays"
	case ShapeQuotes:
		return "quotes"
	default:
		return "unknown"
	}
}

// DetectShape classifies a decoded JSON value (or an equivalent Go value built
// from maps and slices).
func DetectShape(raw any) ShapeKind {
	switch v := raw.(type) {
	case []any, []map[string]any:
		return ShapeBars
	case map[string]any:
		if isList(v["quotes"]) {
			return ShapeQuotes
		}
		if isList(v["timestamp"]) {
			return ShapeTimestampArrays
		}
	}
	return ShapeUnknown
}

// Decode parses an upstream JSON document, keeping numbers as json.Number so
// large volumes survive intact. Invalid documents decode to nil.
func Decode(data []byte) any {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil
	}
	return raw
}

func isList(v any) bool {
	switch v.(type) {
	case []any, []map[string]any:
		return true
	}
	return false
}

// objects yields each element of a list that is a JSON object
func objects(v any) []map[string]any {
	switch list := v.(type) {
	case []map[string]any:
		return list
	case []any:
		out := make([]map[string]any, 0, len(list))
		for _, item := range list {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}

func list(v any) []any {
	if l, ok := v.([]any); ok {
		return l
	}
	return nil
}
