package conversation

import (
	"context"
	"sync"

	"github.com/raphaelgruber/brandtalk/internal/models"
)

// MemoryStore is a Store that keeps the snapshot in process memory.
// Used when no database is configured; the conversation then lives for
// the duration of the process.
type MemoryStore struct {
	mu    sync.Mutex
	state *State
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: NewState()}
}

func (m *MemoryStore) Load(ctx context.Context) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := NewState()
	for id, msgs := range m.state.Messages {
		out.Messages[id] = append([]models.Message(nil), msgs...)
	}
	for id, branches := range m.state.Branches {
		out.Branches[id] = append([]models.Branch(nil), branches...)
	}
	for id, active := range m.state.Active {
		out.Active[id] = active
	}
	return out, nil
}

func (m *MemoryStore) SaveMessages(ctx context.Context, personaID string, msgs []models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Messages[personaID] = append([]models.Message(nil), msgs...)
	return nil
}

func (m *MemoryStore) SaveBranches(ctx context.Context, personaID string, branches []models.Branch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Branches[personaID] = append([]models.Branch(nil), branches...)
	return nil
}

func (m *MemoryStore) SaveActiveBranch(ctx context.Context, personaID, branchID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Active[personaID] = branchID
	return nil
}

func (m *MemoryStore) DeletePersona(ctx context.Context, personaID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.state.Messages, personaID)
	delete(m.state.Branches, personaID)
	delete(m.state.Active, personaID)
	return nil
}
