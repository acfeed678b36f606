package models

import (
	"bytes"
	"fmt"
	"time"
)

// WireLayout is the timestamp layout the API writes: ISO 8601 without a
// zone, always UTC.
const WireLayout = "2006-01-02T15:04:05.999999"

// timeLayouts are tried in order when decoding. Values without a zone are UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	WireLayout,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999",
	"2006-01-02",
}

// Time is a timestamp as exchanged with the API.
type Time struct {
	time.Time
}

// NewTime wraps t.
func NewTime(t time.Time) Time {
	return Time{Time: t}
}

// ParseTime accepts RFC 3339 as well as the zone-less forms the API emits.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse time %q: unsupported layout", s)
}

// UnmarshalJSON decodes a JSON string or null.
func (t *Time) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return fmt.Errorf("parse time: not a string: %s", b)
	}
	if len(b) == 2 {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := ParseTime(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// MarshalJSON encodes in WireLayout, or null for the zero time.
func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.UTC().Format(WireLayout) + `"`), nil
}
