// Package models defines data structures for brandtalk conversations.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Attachment describes a file attached to a message, as returned by the
// attachment loader. Content holds extracted text and is treated as opaque.
type Attachment struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Type     string            `json:"type"`
	Size     int64             `json:"size"`
	URL      string            `json:"url"`
	Content  string            `json:"content,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Message is a single chat message. Messages are immutable once created;
// they are only ever appended to a persona's history or deleted.
type Message struct {
	ID        string       `json:"id"`
	Content   string       `json:"content"`
	Role      Role         `json:"role"`
	Timestamp time.Time    `json:"timestamp"`
	BranchID  string       `json:"branch_id"`
	Files     []Attachment `json:"files,omitempty"`
}

// NewMessage creates a message with a fresh ID and the current time.
// BranchID may be left empty; the conversation service stamps the active
// branch on append.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Content:   content,
		Role:      role,
		Timestamp: time.Now(),
	}
}
