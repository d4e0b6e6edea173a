package collab

import (
	"hash/fnv"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	minUsernameLength = 2
	maxUsernameLength = 20
)

// User is a participant for the lifetime of one connection. Only the informational
// collaborator record outlives it.
type User struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Color    string    `json:"color"`
	JoinedAt time.Time `json:"joinedAt"`
	IsTyping bool      `json:"isTyping"`
}

// Connection is what the ConnectionRegistry stores per live transport connection.
// DocumentID is empty after the connection left its room without disconnecting.
type Connection struct {
	ConnID     string
	User       User
	DocumentID string
}

var palette = []string{
	"#e6194b", "#3cb44b", "#4363d8", "#f58231", "#911eb4",
	"#46f0f0", "#f032e6", "#bcf60c", "#008080", "#9a6324",
}

func validateUser(u User) error {
	name := strings.TrimSpace(u.Username)
	if name == "" {
		return invalid("user.username is required")
	}
	if n := utf8.RuneCountInString(name); n < minUsernameLength || n > maxUsernameLength {
		return invalid("user.username must be between 2 and 20 characters")
	}
	return nil
}

// normalizeUser fills server-owned fields. Client-supplied ids and colors are kept when present.
func normalizeUser(u User, connID string, now time.Time) User {
	u.Username = strings.TrimSpace(u.Username)
	if u.ID == "" {
		u.ID = connID
	}
	if u.Color == "" {
		h := fnv.New32a()
		_, _ = h.Write([]byte(u.ID))
		u.Color = palette[h.Sum32()%uint32(len(palette))]
	}
	u.JoinedAt = now
	u.IsTyping = false
	return u
}
