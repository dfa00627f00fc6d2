package session

import (
	"time"

	"github.com/google/uuid"

	"StudyChat/internal/catalog"
	"StudyChat/internal/classify"
)

// Greeting is the assistant message every new session starts with
const Greeting = "Hello! I'm your AI Study Assistant. How can I help you today? Select a subject or use one of the quick actions to get started."

// Role identifies the author of a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Status is the request lifecycle state of a session
type Status string

const (
	StatusIdle    Status = "idle"
	StatusSending Status = "sending"
	StatusFailed  Status = "failed"
)

// Message represents a single chat message
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Sequence  int       `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`
}

// Session represents a chat session. It is not safe for concurrent use; the
// owning controller serialises access.
type Session struct {
	ID            string
	StartTime     time.Time
	PendingInput  string
	ActiveSubject catalog.Subject
	Status        Status
	LastError     *classify.Result

	transcript []Message
}

// Snapshot is an immutable copy of session state for presentation.
type Snapshot struct {
	ID            string
	Transcript    []Message
	PendingInput  string
	ActiveSubject catalog.Subject
	Status        Status
	LastError     *classify.Result
}

// New creates an idle session seeded with the greeting
func New() *Session {
	s := &Session{
		ID:        uuid.NewString(),
		StartTime: time.Now(),
		Status:    StatusIdle,
	}
	s.Append(RoleAssistant, Greeting)
	return s
}

// Append adds a message with the next sequence number and returns it.
func (s *Session) Append(role Role, content string) Message {
	msg := Message{
		Role:      role,
		Content:   content,
		Sequence:  len(s.transcript) + 1,
		Timestamp: time.Now(),
	}
	s.transcript = append(s.transcript, msg)
	return msg
}

// Len returns the transcript length
func (s *Session) Len() int {
	return len(s.transcript)
}

// Snapshot copies the current state.
func (s *Session) Snapshot() Snapshot {
	transcript := make([]Message, len(s.transcript))
	copy(transcript, s.transcript)

	var lastErr *classify.Result
	if s.LastError != nil {
		e := *s.LastError
		lastErr = &e
	}

	return Snapshot{
		ID:            s.ID,
		Transcript:    transcript,
		PendingInput:  s.PendingInput,
		ActiveSubject: s.ActiveSubject,
		Status:        s.Status,
		LastError:     lastErr,
	}
}
