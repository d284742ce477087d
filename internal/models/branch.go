package models

import "time"

// DefaultBranchID is the id of the branch every persona conversation
// starts on. It can be renamed but never deleted.
const DefaultBranchID = "default"

// DefaultBranchName is the initial display name of the default branch.
const DefaultBranchName = "Main Conversation"

// Branch is a named fork of a persona's conversation. ParentMessageID is
// set for branches forked from a historical message and empty for the
// default branch.
type Branch struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	CreatedAt       time.Time `json:"created_at"`
	ParentMessageID string    `json:"parent_message_id,omitempty"`
}

// NewDefaultBranch returns the bootstrap branch for a persona.
func NewDefaultBranch() Branch {
	return Branch{
		ID:        DefaultBranchID,
		Name:      DefaultBranchName,
		CreatedAt: time.Now(),
	}
}
