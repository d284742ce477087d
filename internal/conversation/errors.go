// Package conversation implements the persona conversation state machine:
// per-persona message logs, named branches with an active-branch cursor,
// cascading deletes, export, and the call out to the completion backend.
package conversation

import "errors"

// Sentinel errors for conversation operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrUnknownPersona indicates the persona id is not in the catalog.
	ErrUnknownPersona = errors.New("unknown persona")

	// ErrUnknownBranch indicates the branch id does not exist for the persona.
	ErrUnknownBranch = errors.New("branch not found")

	// ErrUnknownMessage indicates the referenced message does not exist.
	ErrUnknownMessage = errors.New("message not found")

	// ErrEmptyBranchName indicates a create or rename with a blank name.
	ErrEmptyBranchName = errors.New("branch name must not be empty")

	// ErrEmptyMessage indicates a send with no content and no attachments.
	ErrEmptyMessage = errors.New("message has no content or attachments")

	// ErrNoMessages indicates an export was requested for an empty branch.
	ErrNoMessages = errors.New("no messages to export")
)
