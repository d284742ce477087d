package conversation

import (
	"github.com/raphaelgruber/brandtalk/internal/models"
)

// MessageStore holds, per persona, the ordered append-only message log.
// Order is append order and is the only valid display order; messages are
// never reordered or mutated in place.
//
// MessageStore is not safe for concurrent use; the Service serializes
// access.
type MessageStore struct {
	history map[string][]models.Message
	active  map[string]bool
}

// NewMessageStore creates an empty message store.
func NewMessageStore() *MessageStore {
	return &MessageStore{
		history: make(map[string][]models.Message),
		active:  make(map[string]bool),
	}
}

// Append adds a message to the end of the persona's log and marks the
// conversation active.
func (s *MessageStore) Append(personaID string, msg models.Message) {
	s.history[personaID] = append(s.history[personaID], msg)
	s.active[personaID] = true
}

// ListAll returns the persona's full log across all branches, in append
// order. The returned slice is a copy.
func (s *MessageStore) ListAll(personaID string) []models.Message {
	msgs := s.history[personaID]
	out := make([]models.Message, len(msgs))
	copy(out, msgs)
	return out
}

// ListForBranch returns the ordered subsequence of messages whose
// BranchID matches exactly. Messages inherited from a parent branch are
// not included; fork-aware context is reconstructed by the Service.
func (s *MessageStore) ListForBranch(personaID, branchID string) []models.Message {
	var out []models.Message
	for _, msg := range s.history[personaID] {
		if msg.BranchID == branchID {
			out = append(out, msg)
		}
	}
	return out
}

// Find locates a message by id, returning it and its position in the log.
func (s *MessageStore) Find(personaID, messageID string) (models.Message, int, bool) {
	for i, msg := range s.history[personaID] {
		if msg.ID == messageID {
			return msg, i, true
		}
	}
	return models.Message{}, -1, false
}

// RemoveCascade removes the message and every later message that shares
// its branch: "delete this message and everything that followed it in
// this line of conversation". Messages on other branches are kept even
// when interleaved later in the raw log. Returns the removed messages,
// or ok=false when the id is unknown (no-op).
func (s *MessageStore) RemoveCascade(personaID, messageID string) ([]models.Message, bool) {
	target, idx, found := s.Find(personaID, messageID)
	if !found {
		return nil, false
	}

	msgs := s.history[personaID]
	kept := msgs[:idx:idx]
	removed := []models.Message{target}
	for _, msg := range msgs[idx+1:] {
		if msg.BranchID == target.BranchID {
			removed = append(removed, msg)
			continue
		}
		kept = append(kept, msg)
	}

	s.history[personaID] = kept
	if len(kept) == 0 {
		s.active[personaID] = false
	}
	return removed, true
}

// Clear drops the persona's entire log and marks the conversation inactive.
func (s *MessageStore) Clear(personaID string) {
	delete(s.history, personaID)
	delete(s.active, personaID)
}

// HasActiveConversation reports whether the persona has any messages.
func (s *MessageStore) HasActiveConversation(personaID string) bool {
	return s.active[personaID]
}

// Restore replaces the persona's log with a loaded snapshot.
func (s *MessageStore) Restore(personaID string, msgs []models.Message) {
	if len(msgs) == 0 {
		s.Clear(personaID)
		return
	}
	s.history[personaID] = msgs
	s.active[personaID] = true
}
