package api

import (
	"strings"
	"time"
)

// ImagePathPrefix marks message content that refers to an uploaded image
// rather than plain text. The server stores image messages as their upload
// path.
const ImagePathPrefix = "/static/uploads/"

// User is an account known to the server.
type User struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// UserRef is a participant reference embedded in chat summaries and info.
type UserRef struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar"`
	IsOnline bool   `json:"is_online"`
	LastSeen string `json:"last_seen,omitempty"`
}

// GroupInfo describes group membership for a group chat.
type GroupInfo struct {
	Participants     []UserRef `json:"participants"`
	ParticipantCount int       `json:"participant_count"`
}

// MessagePreview is the single-line last-message preview carried by chat
// summaries. Its timestamp is a server-formatted clock string, not a full
// datetime.
type MessagePreview struct {
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	UserName  string `json:"user_name"`
}

// ChatSummary is one sidebar entry. Summaries are immutable snapshots:
// each directory refresh replaces them wholesale, never field by field.
type ChatSummary struct {
	ID        int              `json:"id"`
	Name      string           `json:"name"`
	IsGroup   bool             `json:"is_group"`
	OtherUser *UserRef         `json:"other_user"`
	GroupInfo *GroupInfo       `json:"group_info"`
	Messages  []MessagePreview `json:"messages"`
}

// LastMessage returns the newest message preview, or nil.
func (c *ChatSummary) LastMessage() *MessagePreview {
	if len(c.Messages) == 0 {
		return nil
	}
	return &c.Messages[0]
}

// ChatInfo is the per-chat header payload, re-fetched on every poll tick.
type ChatInfo struct {
	ID               int       `json:"id"`
	Name             string    `json:"name"`
	IsGroup          bool      `json:"is_group"`
	ParticipantCount int       `json:"participant_count,omitempty"`
	Participants     []UserRef `json:"participants,omitempty"`
	OtherUser        *UserRef  `json:"other_user,omitempty"`
}

// Message is one entry of a chat's ordered history. The server returns
// messages sorted by timestamp ascending; the client never re-sorts.
type Message struct {
	ID         int       `json:"id"`
	Content    string    `json:"content"`
	UserID     int       `json:"user_id"`
	UserName   string    `json:"user_name"`
	UserAvatar string    `json:"user_avatar"`
	Timestamp  Timestamp `json:"timestamp"`
}

// IsImage reports whether the message content is an image reference.
func (m *Message) IsImage() bool {
	return strings.HasPrefix(m.Content, ImagePathPrefix)
}

// Timestamp wraps time.Time to accept the server's datetime encodings.
// Flask's jsonify emits RFC 1123; fixtures and other tooling use RFC 3339
// or a bare "2006-01-02 15:04:05".
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC1123,
	time.RFC1123Z,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// UnmarshalJSON parses any of the supported layouts.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		t.Time = time.Time{}
		return nil
	}
	var lastErr error
	for _, layout := range timestampLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			t.Time = parsed
			return nil
		}
		lastErr = err
	}
	return lastErr
}

// MarshalJSON emits RFC 3339.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Format(time.RFC3339) + `"`), nil
}
