package search

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
)

// Cursor is the decoded form of a pagination token.
//
// Tokens are base64url JSON. They are not signed or encrypted and must not
// be used for access control.
type Cursor struct {
	EntityType   EntityType
	LastID       string
	SortValue    any
	SortProperty string
}

type cursorPayload struct {
	EntityType   string `json:"t"`
	LastID       string `json:"id"`
	SortValue    any    `json:"sv,omitempty"`
	SortProperty string `json:"sp,omitempty"`
}

// EncodeCursor renders c as an opaque token.
func EncodeCursor(c Cursor) string {
	raw, err := json.Marshal(cursorPayload{
		EntityType:   string(c.EntityType),
		LastID:       c.LastID,
		SortValue:    c.SortValue,
		SortProperty: c.SortProperty,
	})
	if err != nil {
		// Only unmarshalable sort values get here; drop the sort key so the
		// token still continues by id.
		raw, _ = json.Marshal(cursorPayload{EntityType: string(c.EntityType), LastID: c.LastID})
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursor parses a token produced by EncodeCursor.
// Malformed input yields ok=false, never an error.
// Integral numeric sort values come back as int64, other numbers as float64.
func DecodeCursor(token string) (Cursor, bool) {
	if token == "" {
		return Cursor{}, false
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, false
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var p cursorPayload
	if err := dec.Decode(&p); err != nil {
		return Cursor{}, false
	}
	if p.EntityType == "" || p.LastID == "" {
		return Cursor{}, false
	}

	value, ok := normalizeCursorValue(p.SortValue)
	if !ok {
		return Cursor{}, false
	}

	return Cursor{
		EntityType:   EntityType(p.EntityType),
		LastID:       p.LastID,
		SortValue:    value,
		SortProperty: p.SortProperty,
	}, true
}

func normalizeCursorValue(v any) (any, bool) {
	switch t := v.(type) {
	case nil, string, bool:
		return t, true
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, true
		}
		f, err := t.Float64()
		if err != nil {
			return nil, false
		}
		return f, true
	default:
		// objects and arrays never come from a row value
		return nil, false
	}
}
