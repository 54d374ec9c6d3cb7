package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of an event.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether the role is one of the recognized values.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Source identifies the front-end surface an event originated from.
type Source string

const (
	SourceEDrive   Source = "edrive"
	SourceOracle   Source = "oracle"
	SourceRedVerse Source = "redverse"
)

// Valid reports whether the source is one of the recognized surfaces.
func (s Source) Valid() bool {
	switch s {
	case SourceEDrive, SourceOracle, SourceRedVerse:
		return true
	}
	return false
}

// EmotionState carries the dominant emotion detected for one event.
// Intensity is normalized to [0, 1].
type EmotionState struct {
	Primary   string  `json:"primary"`
	Intensity float64 `json:"intensity"`
}

// Event is one immutable record in a thread's ledger.
//
// The JSON field names are the persisted wire format; they are load-bearing
// because existing thread files use them. Timestamp is RFC 3339 UTC.
type Event struct {
	ID        string         `json:"event_id"`
	Timestamp time.Time      `json:"timestamp"`
	Source    Source         `json:"source"`
	Role      Role           `json:"role"`
	Content   string         `json:"content"`
	Emotion   *EmotionState  `json:"emotion_state,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Validate checks the enum fields and emotion bounds.
// ID and Timestamp may be empty; Append assigns them.
func (e *Event) Validate() error {
	if !e.Role.Valid() {
		return fmt.Errorf("invalid role %q", e.Role)
	}
	if !e.Source.Valid() {
		return fmt.Errorf("invalid source %q", e.Source)
	}
	if e.Emotion != nil {
		if e.Emotion.Primary == "" {
			return fmt.Errorf("emotion_state requires a primary label")
		}
		if e.Emotion.Intensity < 0 || e.Emotion.Intensity > 1 {
			return fmt.Errorf("emotion intensity %v out of [0,1]", e.Emotion.Intensity)
		}
	}
	return nil
}

// stamp assigns the event identity and timestamp if absent.
func (e *Event) stamp(now time.Time) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = now.UTC()
	} else {
		e.Timestamp = e.Timestamp.UTC()
	}
}

// NewThreadID mints an opaque thread identifier.
// Thread IDs are immutable for the life of a member once assigned.
func NewThreadID() string {
	return uuid.NewString()
}

// ValidThreadID reports whether id is a well-formed thread identifier.
// Thread IDs become file names, so path separators and dot-escapes are
// rejected outright.
func ValidThreadID(id string) bool {
	if id == "" || len(id) > 128 {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_':
		default:
			return false
		}
	}
	return true
}
