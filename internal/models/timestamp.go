package models

import (
	"fmt"
)

// Timestamp is a partner time value kept exactly as it was received: an RFC 3339 string, some other
// date string, or a number such as epoch millis. It is written back out unchanged.
type Timestamp string

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	text := string(b)
	if text == "null" || text == `""` {
		*t = ""
		return nil
	}
	if len(b) == 0 || !(b[0] == '"' || b[0] == '-' || (b[0] >= '0' && b[0] <= '9')) {
		return fmt.Errorf("timestamp must be a string or a number, got %s", text)
	}
	*t = Timestamp(text)
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t == "" {
		return []byte("null"), nil
	}
	return []byte(t), nil
}
