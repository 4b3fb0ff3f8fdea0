package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// Time is a timestamp that survives the formats seen in persisted
// check-in data: RFC3339 strings, unix seconds or milliseconds, or
// garbage written by old app versions. Parsing fails open: an unreadable
// value yields the zero time but keeps the raw JSON so re-persisting a
// record does not destroy whatever was stored.
type Time struct {
	time.Time

	raw json.RawMessage
}

// NewTime wraps a time.Time.
func NewTime(t time.Time) Time {
	return Time{Time: t}
}

// Valid reports whether the timestamp was parseable.
func (t Time) Valid() bool {
	return !t.Time.IsZero()
}

// IsZero reports whether there is nothing to serialize: no parsed time
// and no preserved raw value. Used by encoding/json for omitzero.
func (t Time) IsZero() bool {
	return !t.Valid() && len(t.raw) == 0
}

func (t Time) MarshalJSON() ([]byte, error) {
	if !t.Valid() {
		if len(t.raw) > 0 {
			return t.raw, nil
		}
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.UTC().Format(time.RFC3339Nano))
}

func (t *Time) UnmarshalJSON(b []byte) error {
	t.Time = time.Time{}
	t.raw = nil

	if bytes.Equal(b, []byte("null")) {
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
			if parsed, perr := time.Parse(layout, s); perr == nil {
				t.Time = parsed
				return nil
			}
		}
		t.raw = append(json.RawMessage(nil), b...)
		return nil
	}

	var n float64
	if err := json.Unmarshal(b, &n); err == nil && n > 0 {
		ms := int64(n)
		// Anything above ~5138 AD in seconds is really milliseconds.
		if ms > 1e11 {
			t.Time = time.UnixMilli(ms).UTC()
		} else {
			t.Time = time.Unix(ms, 0).UTC()
		}
		return nil
	}

	t.raw = append(json.RawMessage(nil), b...)
	return nil
}
