package timeslot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrEmptySectionData = errors.New("empty section data")

// TimeSlot is one weekly meeting pattern of a course section as published by the catalog.
type TimeSlot struct {
	Days       []string `json:"days"`
	Time       string   `json:"time"`
	Professor  string   `json:"professor"`
	Location   string   `json:"location"`
	Capacity   int      `json:"capacity"`
	Enrollment int      `json:"enrollment"`
}

// Meeting is the normalized form of a TimeSlot: the canonical days it meets on and its time range.
type Meeting struct {
	Days  []time.Weekday
	Range TimeRange
}

// Clone returns a copy that shares no memory with t.
func (t TimeSlot) Clone() TimeSlot {
	c := t
	if t.Days != nil {
		c.Days = make([]string, len(t.Days))
		copy(c.Days, t.Days)
	}
	return c
}

// IsFull reports whether the section has no free seats. Enrollment above capacity
// happens in catalog data and counts as full.
func (t TimeSlot) IsFull() bool {
	return t.Capacity > 0 && t.Enrollment >= t.Capacity
}

// Meeting normalizes days and time. It returns false when the slot has no usable
// time range or no recognized day, so the caller renders nothing for it.
func (t TimeSlot) Meeting() (Meeting, bool) {
	r, ok := ParseTimeRange(t.Time)
	if !ok || r.Duration() <= 0 {
		return Meeting{}, false
	}
	days := ParseDays(t.Days)
	if len(days) == 0 {
		return Meeting{}, false
	}
	return Meeting{Days: days, Range: r}, true
}

// Encode produces the text form section data is persisted in.
func Encode(t TimeSlot) (string, error) {
	if t.Days == nil {
		t.Days = []string{}
	}
	b, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("could not encode section data: %w", err)
	}
	return string(b), nil
}

// Decode accepts either the structural JSON object or the same object encoded
// as a JSON string, which is how some stores hand back persisted text.
func Decode(raw []byte) (TimeSlot, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return TimeSlot{}, ErrEmptySectionData
	}
	if raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return TimeSlot{}, fmt.Errorf("could not decode section data text: %w", err)
		}
		return Decode([]byte(text))
	}
	var t TimeSlot
	if err := json.Unmarshal(raw, &t); err != nil {
		return TimeSlot{}, fmt.Errorf("could not decode section data: %w", err)
	}
	return t, nil
}

// DecodeString is Decode for persisted text columns.
func DecodeString(text string) (TimeSlot, error) {
	return Decode([]byte(text))
}
