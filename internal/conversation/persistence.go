package conversation

import (
	"context"

	"github.com/raphaelgruber/brandtalk/internal/models"
)

// State is the complete durable snapshot: the three slices the service
// persists, each keyed by persona id.
type State struct {
	Messages map[string][]models.Message
	Branches map[string][]models.Branch
	Active   map[string]string
}

// NewState returns an empty snapshot.
func NewState() *State {
	return &State{
		Messages: make(map[string][]models.Message),
		Branches: make(map[string][]models.Branch),
		Active:   make(map[string]string),
	}
}

// Store is the persistence port. Every save replaces the full durable
// representation of one persona's slice; there is no journal. A Load
// that cannot decode a slice should return what it could read, so the
// service can fall back to empty state for the rest.
type Store interface {
	Load(ctx context.Context) (*State, error)
	SaveMessages(ctx context.Context, personaID string, msgs []models.Message) error
	SaveBranches(ctx context.Context, personaID string, branches []models.Branch) error
	SaveActiveBranch(ctx context.Context, personaID, branchID string) error

	// DeletePersona removes all three slices for a persona (clear chat).
	DeletePersona(ctx context.Context, personaID string) error
}
