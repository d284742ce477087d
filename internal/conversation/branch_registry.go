package conversation

import (
	"time"

	"github.com/google/uuid"

	"github.com/raphaelgruber/brandtalk/internal/models"
)

// BranchRegistry holds, per persona, the set of named branches and the
// active-branch cursor. The "default" branch, once created, is never
// removed, and the cursor always resolves to an existing branch.
//
// BranchRegistry is not safe for concurrent use; the Service serializes
// access.
type BranchRegistry struct {
	branches map[string][]models.Branch
	active   map[string]string
}

// NewBranchRegistry creates an empty registry.
func NewBranchRegistry() *BranchRegistry {
	return &BranchRegistry{
		branches: make(map[string][]models.Branch),
		active:   make(map[string]string),
	}
}

// EnsureDefault bootstraps the default branch when the persona has no
// branches yet, and repairs a missing cursor to the first existing
// branch. Returns the resulting active branch id. Called before any
// message append, so every message has a valid owning branch.
func (r *BranchRegistry) EnsureDefault(personaID string) string {
	if len(r.branches[personaID]) == 0 {
		r.branches[personaID] = []models.Branch{models.NewDefaultBranch()}
		r.active[personaID] = models.DefaultBranchID
		return models.DefaultBranchID
	}
	if r.active[personaID] == "" {
		r.active[personaID] = r.branches[personaID][0].ID
	}
	return r.active[personaID]
}

// List returns the persona's branches in creation order. The returned
// slice is a copy.
func (r *BranchRegistry) List(personaID string) []models.Branch {
	branches := r.branches[personaID]
	out := make([]models.Branch, len(branches))
	copy(out, branches)
	return out
}

// Get returns the branch with the given id.
func (r *BranchRegistry) Get(personaID, branchID string) (models.Branch, bool) {
	for _, b := range r.branches[personaID] {
		if b.ID == branchID {
			return b, true
		}
	}
	return models.Branch{}, false
}

// Create inserts a new branch forked from parentMessageID and switches
// the active cursor to it.
func (r *BranchRegistry) Create(personaID, name, parentMessageID string) models.Branch {
	branch := models.Branch{
		ID:              uuid.NewString(),
		Name:            name,
		CreatedAt:       time.Now(),
		ParentMessageID: parentMessageID,
	}
	r.branches[personaID] = append(r.branches[personaID], branch)
	r.active[personaID] = branch.ID
	return branch
}

// Switch sets the active cursor to an existing branch.
func (r *BranchRegistry) Switch(personaID, branchID string) error {
	if _, ok := r.Get(personaID, branchID); !ok {
		return ErrUnknownBranch
	}
	r.active[personaID] = branchID
	return nil
}

// Rename updates a branch's display name. Renaming the default branch is
// allowed.
func (r *BranchRegistry) Rename(personaID, branchID, newName string) error {
	branches := r.branches[personaID]
	for i := range branches {
		if branches[i].ID == branchID {
			branches[i].Name = newName
			return nil
		}
	}
	return ErrUnknownBranch
}

// Delete removes a branch record. Deleting the default branch is a
// silent no-op. When the deleted branch was active, the cursor resets to
// the default branch. Messages are never touched: branch deletion
// orphans them on purpose.
func (r *BranchRegistry) Delete(personaID, branchID string) bool {
	if branchID == models.DefaultBranchID {
		return false
	}

	branches := r.branches[personaID]
	for i := range branches {
		if branches[i].ID == branchID {
			r.branches[personaID] = append(branches[:i:i], branches[i+1:]...)
			if r.active[personaID] == branchID {
				r.active[personaID] = models.DefaultBranchID
			}
			return true
		}
	}
	return false
}

// DeleteWhereParent removes every branch forked from the given message,
// resetting the cursor to default if an active branch goes away. Used by
// the cascading message delete. Returns the removed branch records.
func (r *BranchRegistry) DeleteWhereParent(personaID, messageID string) []models.Branch {
	branches := r.branches[personaID]
	kept := branches[:0:0]
	var removed []models.Branch
	for _, b := range branches {
		if b.ParentMessageID == messageID {
			removed = append(removed, b)
			continue
		}
		kept = append(kept, b)
	}
	if len(removed) == 0 {
		return nil
	}

	r.branches[personaID] = kept
	for _, b := range removed {
		if r.active[personaID] == b.ID {
			r.active[personaID] = models.DefaultBranchID
		}
	}
	return removed
}

// Active returns the persona's active branch id, or the default id when
// no cursor is set.
func (r *BranchRegistry) Active(personaID string) string {
	if id := r.active[personaID]; id != "" {
		return id
	}
	return models.DefaultBranchID
}

// Clear drops all branches and the cursor for the persona.
func (r *BranchRegistry) Clear(personaID string) {
	delete(r.branches, personaID)
	delete(r.active, personaID)
}

// Restore replaces the persona's branches and cursor with a loaded
// snapshot, repairing a cursor that no longer resolves.
func (r *BranchRegistry) Restore(personaID string, branches []models.Branch, active string) {
	if len(branches) == 0 {
		r.Clear(personaID)
		return
	}
	r.branches[personaID] = branches
	r.active[personaID] = active
	if _, ok := r.Get(personaID, active); !ok {
		r.active[personaID] = branches[0].ID
	}
}
