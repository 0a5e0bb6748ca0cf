package model

import (
	"encoding/json"
	"strings"
	"time"
)

// DisplayLayout is the layout used when showing instants to the operator.
const DisplayLayout = "2006-01-02 15:04:05"

// Producers emit ISO-8601 in several shapes; naive values are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z0700",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Timestamp is an ISO-8601 instant that keeps the producer's original text.
type Timestamp struct {
	Time time.Time
	Raw  string
}

// ParseTimestamp parses raw; an unparseable value yields an invalid Timestamp
// that still carries the raw text.
func ParseTimestamp(raw string) Timestamp {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return Timestamp{Time: t, Raw: raw}
		}
	}
	return Timestamp{Raw: raw}
}

// NewTimestamp wraps an already parsed instant.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t, Raw: t.Format(time.RFC3339Nano)}
}

// Valid reports whether the raw text was a recognizable instant.
func (t Timestamp) Valid() bool {
	return !t.Time.IsZero()
}

// Display renders the instant in local time, or the raw text when invalid.
func (t Timestamp) Display() string {
	if !t.Valid() {
		if t.Raw == "" {
			return "-"
		}
		return t.Raw
	}
	return t.Time.Local().Format(DisplayLayout)
}

// CompareTimestamps orders instants chronologically. Invalid timestamps sort
// before every valid one and compare equal to each other.
func CompareTimestamps(a, b Timestamp) int {
	switch {
	case !a.Valid() && !b.Valid():
		return 0
	case !a.Valid():
		return -1
	case !b.Valid():
		return 1
	}
	return a.Time.Compare(b.Time)
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = Timestamp{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = ParseTimestamp(raw)
	return nil
}

// MarshalJSON writes the producer's original text back out.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.Raw == "" && t.Valid() {
		return json.Marshal(t.Time.Format(time.RFC3339Nano))
	}
	return json.Marshal(t.Raw)
}

func (t Timestamp) String() string {
	return t.Raw
}
