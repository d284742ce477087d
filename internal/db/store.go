package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/surrealdb/surrealdb.go"

	"github.com/raphaelgruber/brandtalk/internal/conversation"
	"github.com/raphaelgruber/brandtalk/internal/metrics"
	"github.com/raphaelgruber/brandtalk/internal/models"
)

// Store persists conversation state in SurrealDB. Every save replaces
// the full durable slice for one persona: delete the old rows, insert
// the new ones. Simple, and the in-memory state is always the source of
// truth.
type Store struct {
	client    *Client
	collector *metrics.Collector
	logger    *slog.Logger
}

// NewStore creates a SurrealDB-backed conversation store.
func NewStore(client *Client, collector *metrics.Collector, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{client: client, collector: collector, logger: logger}
}

type messageRow struct {
	Persona   string              `json:"persona"`
	Seq       int                 `json:"seq"`
	MsgID     string              `json:"msg_id"`
	Role      string              `json:"role"`
	Content   string              `json:"content"`
	Timestamp time.Time           `json:"timestamp"`
	Branch    string              `json:"branch"`
	Files     []models.Attachment `json:"files"`
}

type branchRow struct {
	Persona       string    `json:"persona"`
	Seq           int       `json:"seq"`
	BranchID      string    `json:"branch_id"`
	Name          string    `json:"name"`
	CreatedAt     time.Time `json:"created_at"`
	ParentMessage *string   `json:"parent_message,omitempty"`
}

type activeBranchRow struct {
	Persona string `json:"persona"`
	Branch  string `json:"branch"`
}

// Load reads all three slices for every persona. A slice that cannot be
// read degrades to empty with a logged warning while the others are kept,
// so one corrupt table never wipes the rest of the conversation state.
// The returned state is always usable; the error reports what was lost.
func (s *Store) Load(ctx context.Context) (*conversation.State, error) {
	start := time.Now()

	state := conversation.NewState()
	var errs []error

	msgRows, err := surrealdb.Query[[]messageRow](ctx, s.client.DB(), `
		SELECT * FROM message ORDER BY persona ASC, seq ASC
	`, nil)
	if err != nil {
		s.recordError(metrics.OpStoreLoad)
		s.logger.Warn("loading messages failed, slice starts empty", "error", err)
		errs = append(errs, fmt.Errorf("load messages: %w", wrapQueryError(err)))
	} else if msgRows != nil && len(*msgRows) > 0 {
		for _, row := range (*msgRows)[0].Result {
			state.Messages[row.Persona] = append(state.Messages[row.Persona], rowToMessage(row))
		}
	}

	branchRows, err := surrealdb.Query[[]branchRow](ctx, s.client.DB(), `
		SELECT * FROM branch ORDER BY persona ASC, seq ASC
	`, nil)
	if err != nil {
		s.recordError(metrics.OpStoreLoad)
		s.logger.Warn("loading branches failed, slice starts empty", "error", err)
		errs = append(errs, fmt.Errorf("load branches: %w", wrapQueryError(err)))
	} else if branchRows != nil && len(*branchRows) > 0 {
		for _, row := range (*branchRows)[0].Result {
			state.Branches[row.Persona] = append(state.Branches[row.Persona], rowToBranch(row))
		}
	}

	activeRows, err := surrealdb.Query[[]activeBranchRow](ctx, s.client.DB(), `
		SELECT * FROM active_branch
	`, nil)
	if err != nil {
		s.recordError(metrics.OpStoreLoad)
		s.logger.Warn("loading active branches failed, slice starts empty", "error", err)
		errs = append(errs, fmt.Errorf("load active branches: %w", wrapQueryError(err)))
	} else if activeRows != nil && len(*activeRows) > 0 {
		for _, row := range (*activeRows)[0].Result {
			state.Active[row.Persona] = row.Branch
		}
	}

	s.recordTiming(metrics.OpStoreLoad, time.Since(start))
	s.logger.Debug("conversation state loaded",
		"personas", len(state.Messages), "duration_ms", time.Since(start).Milliseconds())
	return state, errors.Join(errs...)
}

// SaveMessages rewrites the persona's message slice.
func (s *Store) SaveMessages(ctx context.Context, personaID string, msgs []models.Message) error {
	rows := make([]messageRow, 0, len(msgs))
	for i, msg := range msgs {
		rows = append(rows, messageToRow(personaID, i, msg))
	}
	return replaceSlice(ctx, s, "message", personaID, rows)
}

// SaveBranches rewrites the persona's branch slice.
func (s *Store) SaveBranches(ctx context.Context, personaID string, branches []models.Branch) error {
	rows := make([]branchRow, 0, len(branches))
	for i, branch := range branches {
		rows = append(rows, branchToRow(personaID, i, branch))
	}
	return replaceSlice(ctx, s, "branch", personaID, rows)
}

// SaveActiveBranch rewrites the persona's cursor row.
func (s *Store) SaveActiveBranch(ctx context.Context, personaID, branchID string) error {
	rows := []activeBranchRow{{Persona: personaID, Branch: branchID}}
	return replaceSlice(ctx, s, "active_branch", personaID, rows)
}

// DeletePersona removes all three slices for a persona.
func (s *Store) DeletePersona(ctx context.Context, personaID string) error {
	start := time.Now()
	_, err := surrealdb.Query[any](ctx, s.client.DB(), `
		BEGIN TRANSACTION;
		DELETE message WHERE persona = $persona;
		DELETE branch WHERE persona = $persona;
		DELETE active_branch WHERE persona = $persona;
		COMMIT TRANSACTION;
	`, map[string]any{"persona": personaID})
	if err != nil {
		s.recordError(metrics.OpStoreSave)
		return fmt.Errorf("delete persona %s: %w", personaID, wrapQueryError(err))
	}
	s.recordTiming(metrics.OpStoreSave, time.Since(start))
	return nil
}

// replaceSlice swaps the persona's rows in one table: delete then insert
// in a single transaction so a reader cannot observe a half-written slice.
func replaceSlice[T any](ctx context.Context, s *Store, table, personaID string, rows []T) error {
	start := time.Now()

	sql := "BEGIN TRANSACTION;\n" +
		fmt.Sprintf("DELETE %s WHERE persona = $persona;", table)
	vars := map[string]any{"persona": personaID}
	if len(rows) > 0 {
		sql += fmt.Sprintf("\nINSERT INTO %s $rows;", table)
		vars["rows"] = rows
	}
	sql += "\nCOMMIT TRANSACTION;"

	if _, err := surrealdb.Query[any](ctx, s.client.DB(), sql, vars); err != nil {
		s.recordError(metrics.OpStoreSave)
		return fmt.Errorf("save %s for %s: %w", table, personaID, wrapQueryError(err))
	}

	s.recordTiming(metrics.OpStoreSave, time.Since(start))
	return nil
}

func (s *Store) recordTiming(op string, d time.Duration) {
	if s.collector != nil {
		s.collector.RecordTiming(op, d)
	}
}

func (s *Store) recordError(op string) {
	if s.collector != nil {
		s.collector.RecordError(op)
	}
}

func messageToRow(personaID string, seq int, msg models.Message) messageRow {
	files := msg.Files
	if files == nil {
		files = []models.Attachment{}
	}
	return messageRow{
		Persona:   personaID,
		Seq:       seq,
		MsgID:     msg.ID,
		Role:      string(msg.Role),
		Content:   msg.Content,
		Timestamp: msg.Timestamp,
		Branch:    msg.BranchID,
		Files:     files,
	}
}

func rowToMessage(row messageRow) models.Message {
	var files []models.Attachment
	if len(row.Files) > 0 {
		files = row.Files
	}
	return models.Message{
		ID:        row.MsgID,
		Content:   row.Content,
		Role:      models.Role(row.Role),
		Timestamp: row.Timestamp,
		BranchID:  row.Branch,
		Files:     files,
	}
}

func branchToRow(personaID string, seq int, branch models.Branch) branchRow {
	row := branchRow{
		Persona:   personaID,
		Seq:       seq,
		BranchID:  branch.ID,
		Name:      branch.Name,
		CreatedAt: branch.CreatedAt,
	}
	if branch.ParentMessageID != "" {
		parent := branch.ParentMessageID
		row.ParentMessage = &parent
	}
	return row
}

func rowToBranch(row branchRow) models.Branch {
	branch := models.Branch{
		ID:        row.BranchID,
		Name:      row.Name,
		CreatedAt: row.CreatedAt,
	}
	if row.ParentMessage != nil {
		branch.ParentMessageID = *row.ParentMessage
	}
	return branch
}
