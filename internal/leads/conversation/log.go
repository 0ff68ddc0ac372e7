// Package conversation models the per-lead chat log stored as a jsonb
// document and the rules for appending to it.
package conversation

import (
	"encoding/json"
	"time"
)

// Message author roles. Operator messages carry the operator's display name
// as author; AuthorOperator is both the fallback label and the role marker
// written to lastMessageFrom. The role also drives the unread counter: only
// client messages increment it, anything sent from our side resets it.
const (
	AuthorClient   = "client"
	AuthorAI       = "ai"
	AuthorOperator = "operator"
)

// roleOf collapses an author label to its role. Any label that is not a
// known role is an operator display name.
func roleOf(author string) string {
	switch author {
	case AuthorClient, AuthorAI:
		return author
	default:
		return AuthorOperator
	}
}

// Attachment describes a file linked to a message.
type Attachment struct {
	Name string `json:"name"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

// Message is a single entry in a lead's chat log.
type Message struct {
	Author     string      `json:"author"`
	Body       string      `json:"body"`
	Timestamp  time.Time   `json:"timestamp"`
	FromMe     bool        `json:"fromMe"`
	Attachment *Attachment `json:"attachment,omitempty"`
}

// DecodeLog decodes a raw jsonb chat column into messages. The column has
// historically held double-encoded strings and outright garbage from older
// writers, so every malformed shape decodes to an empty log rather than an
// error. Inbound processing must never fail on a corrupt history.
func DecodeLog(raw []byte) []Message {
	if len(raw) == 0 {
		return []Message{}
	}

	var messages []Message
	if err := json.Unmarshal(raw, &messages); err == nil {
		if messages == nil {
			return []Message{}
		}
		return messages
	}

	// Double-encoded variant: a JSON string whose contents are the array.
	var wrapped string
	if err := json.Unmarshal(raw, &wrapped); err == nil {
		if err := json.Unmarshal([]byte(wrapped), &messages); err == nil && messages != nil {
			return messages
		}
	}

	return []Message{}
}

// EncodeLog encodes messages for the jsonb chat column.
func EncodeLog(messages []Message) []byte {
	if messages == nil {
		messages = []Message{}
	}
	encoded, err := json.Marshal(messages)
	if err != nil {
		return []byte("[]")
	}
	return encoded
}

// Update is the replacement conversation state produced by Append.
type Update struct {
	Chat            []byte
	UnreadCount     int
	LastMessageFrom string
	LastUpdate      time.Time
}

// Append decodes the existing log, appends the message, and computes the new
// unread counter and last-sender marker.
func Append(raw []byte, currentUnread int, msg Message, now time.Time) Update {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = now
	}
	role := roleOf(msg.Author)
	msg.FromMe = role != AuthorClient

	messages := append(DecodeLog(raw), msg)

	unread := 0
	if role == AuthorClient {
		unread = currentUnread + 1
	}

	return Update{
		Chat:            EncodeLog(messages),
		UnreadCount:     unread,
		LastMessageFrom: role,
		LastUpdate:      now,
	}
}
