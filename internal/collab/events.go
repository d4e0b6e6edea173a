package collab

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Inbound event names.
const (
	EventJoinDocument   = "join-document"
	EventTextChange     = "text-change"
	EventTitleChange    = "title-change"
	EventCursorPosition = "cursor-position"
	EventUserTyping     = "user-typing"
	EventFormatText     = "format-text"
	EventLeaveDocument  = "leave-document"
)

// Outbound event names.
const (
	EventDocumentLoaded  = "document-loaded"
	EventUserJoined      = "user-joined"
	EventTextUpdated     = "text-updated"
	EventTitleUpdated    = "title-updated"
	EventCursorMoved     = "cursor-moved"
	EventTypingIndicator = "typing-indicator"
	EventFormatApplied   = "format-applied"
	EventUserLeft        = "user-left"
	EventError           = "error"
)

// ValidationError marks an event rejected at the boundary.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "invalid event: " + e.Reason }

func invalid(reason string) error { return &ValidationError{Reason: reason} }

// IsValidation reports whether err came from event validation.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Envelope is the wire frame in both directions: {"event": "...", "data": {...}}.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Inbound is the closed set of client events. Every variant names the document it targets.
type Inbound interface {
	Name() string
	Document() string
	validate() error
}

type JoinDocument struct {
	DocumentID string `json:"documentId"`
	User       *User  `json:"user"`
}

type TextChange struct {
	DocumentID string  `json:"documentId"`
	Content    *string `json:"content"`
}

type TitleChange struct {
	DocumentID string  `json:"documentId"`
	Title      *string `json:"title"`
}

// CursorPosition carries an editor-defined position object that is relayed verbatim.
type CursorPosition struct {
	DocumentID string          `json:"documentId"`
	Position   json.RawMessage `json:"position"`
}

type UserTyping struct {
	DocumentID string `json:"documentId"`
	IsTyping   *bool  `json:"isTyping"`
}

// FormatText is informational: the sender's editor already applied the format.
type FormatText struct {
	DocumentID  string          `json:"documentId"`
	FormatType  string          `json:"formatType"`
	FormatValue json.RawMessage `json:"formatValue,omitempty"`
}

type LeaveDocument struct {
	DocumentID string `json:"documentId"`
}

func (e *JoinDocument) Name() string   { return EventJoinDocument }
func (e *TextChange) Name() string     { return EventTextChange }
func (e *TitleChange) Name() string    { return EventTitleChange }
func (e *CursorPosition) Name() string { return EventCursorPosition }
func (e *UserTyping) Name() string     { return EventUserTyping }
func (e *FormatText) Name() string     { return EventFormatText }
func (e *LeaveDocument) Name() string  { return EventLeaveDocument }

func (e *JoinDocument) Document() string   { return e.DocumentID }
func (e *TextChange) Document() string     { return e.DocumentID }
func (e *TitleChange) Document() string    { return e.DocumentID }
func (e *CursorPosition) Document() string { return e.DocumentID }
func (e *UserTyping) Document() string     { return e.DocumentID }
func (e *FormatText) Document() string     { return e.DocumentID }
func (e *LeaveDocument) Document() string  { return e.DocumentID }

func requireDocument(id string) error {
	if id == "" {
		return invalid("documentId is required")
	}
	return nil
}

func (e *JoinDocument) validate() error {
	if err := requireDocument(e.DocumentID); err != nil {
		return err
	}
	if e.User == nil {
		return invalid("user is required")
	}
	return validateUser(*e.User)
}

func (e *TextChange) validate() error {
	if err := requireDocument(e.DocumentID); err != nil {
		return err
	}
	if e.Content == nil {
		return invalid("content is required")
	}
	return nil
}

func (e *TitleChange) validate() error {
	if err := requireDocument(e.DocumentID); err != nil {
		return err
	}
	if e.Title == nil {
		return invalid("title is required")
	}
	return nil
}

func (e *CursorPosition) validate() error {
	if err := requireDocument(e.DocumentID); err != nil {
		return err
	}
	if len(e.Position) == 0 || bytes.Equal(e.Position, []byte("null")) {
		return invalid("position is required")
	}
	return nil
}

func (e *UserTyping) validate() error {
	if err := requireDocument(e.DocumentID); err != nil {
		return err
	}
	if e.IsTyping == nil {
		return invalid("isTyping is required")
	}
	return nil
}

func (e *FormatText) validate() error {
	if err := requireDocument(e.DocumentID); err != nil {
		return err
	}
	if e.FormatType == "" {
		return invalid("formatType is required")
	}
	return nil
}

func (e *LeaveDocument) validate() error {
	return requireDocument(e.DocumentID)
}

// Decode parses one wire frame into a validated Inbound event.
func Decode(raw []byte) (Inbound, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, invalid(fmt.Sprintf("malformed frame: %v", err))
	}
	var ev Inbound
	switch env.Event {
	case EventJoinDocument:
		ev = &JoinDocument{}
	case EventTextChange:
		ev = &TextChange{}
	case EventTitleChange:
		ev = &TitleChange{}
	case EventCursorPosition:
		ev = &CursorPosition{}
	case EventUserTyping:
		ev = &UserTyping{}
	case EventFormatText:
		ev = &FormatText{}
	case EventLeaveDocument:
		ev = &LeaveDocument{}
	case "":
		return nil, invalid("event name is required")
	default:
		return nil, invalid(fmt.Sprintf("unknown event %q", env.Event))
	}
	if len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return nil, invalid("data is required")
	}
	if err := json.Unmarshal(env.Data, ev); err != nil {
		return nil, invalid(fmt.Sprintf("malformed %s payload: %v", env.Event, err))
	}
	if err := ev.validate(); err != nil {
		return nil, err
	}
	return ev, nil
}

// Outbound is a server event addressed to one connection.
type Outbound struct {
	Event string
	Data  any
}

func (o Outbound) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(o.Data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: o.Event, Data: data})
}

// DocumentView is the document shape sent in document-loaded.
type DocumentView struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	LastModified time.Time `json:"lastModified"`
}

type DocumentLoaded struct {
	Document DocumentView `json:"document"`
	Users    []User       `json:"users"`
}

// Presence is the payload of user-joined and user-left.
type Presence struct {
	User  User   `json:"user"`
	Users []User `json:"users"`
}

type TextUpdated struct {
	Content   string `json:"content"`
	User      User   `json:"user"`
	Timestamp string `json:"timestamp"`
}

type TitleUpdated struct {
	Title string `json:"title"`
	User  User   `json:"user"`
}

type CursorMoved struct {
	User     User            `json:"user"`
	Position json.RawMessage `json:"position"`
}

type TypingIndicator struct {
	User     User `json:"user"`
	IsTyping bool `json:"isTyping"`
}

type FormatApplied struct {
	FormatType  string          `json:"formatType"`
	FormatValue json.RawMessage `json:"formatValue,omitempty"`
	User        User            `json:"user"`
}

type ErrorMessage struct {
	Message string `json:"message"`
}

// isoMillis matches the timestamp format browsers produce with Date.toISOString.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(isoMillis)
}
