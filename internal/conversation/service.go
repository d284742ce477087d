package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/raphaelgruber/brandtalk/internal/models"
)

// DefaultHistoryLimit bounds how many prior branch messages are sent to
// the completion backend alongside the new user message.
const DefaultHistoryLimit = 10

// DefaultCompletionTimeout bounds a single completion call.
const DefaultCompletionTimeout = 30 * time.Second

// Turn is one conversation turn handed to the completion backend.
type Turn struct {
	Role    models.Role
	Content string
}

// Completer produces assistant text from a system prompt and ordered
// conversation turns. Implementations are expected to honor ctx
// cancellation; the service applies its own timeout.
type Completer interface {
	Complete(ctx context.Context, systemPrompt string, turns []Turn) (string, error)
}

// PersonaCatalog resolves persona ids to their static configuration.
type PersonaCatalog interface {
	Get(id string) (models.Persona, bool)
	All() []models.Persona
}

// Config tunes the conversation service.
type Config struct {
	// HistoryLimit is the number of prior branch messages included as
	// completion context. Zero means DefaultHistoryLimit.
	HistoryLimit int
	// CompletionTimeout caps a single completion call. Zero means
	// DefaultCompletionTimeout.
	CompletionTimeout time.Duration
}

// Service is the conversation engine: the single owner of all persona
// conversation state. Mutations run to completion under one lock
// (single-actor model); persistence writes are best-effort and never
// fail the triggering operation.
type Service struct {
	mu        sync.Mutex
	messages  *MessageStore
	branches  *BranchRegistry
	catalog   PersonaCatalog
	store     Store
	completer Completer
	logger    *slog.Logger

	historyLimit int
	timeout      time.Duration
}

// NewService creates the conversation service. store and completer may
// not be nil; use an in-memory store for ephemeral sessions.
func NewService(catalog PersonaCatalog, store Store, completer Completer, logger *slog.Logger, cfg Config) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = DefaultHistoryLimit
	}
	if cfg.CompletionTimeout <= 0 {
		cfg.CompletionTimeout = DefaultCompletionTimeout
	}
	return &Service{
		messages:     NewMessageStore(),
		branches:     NewBranchRegistry(),
		catalog:      catalog,
		store:        store,
		completer:    completer,
		logger:       logger,
		historyLimit: cfg.HistoryLimit,
		timeout:      cfg.CompletionTimeout,
	}
}

// Load restores state from the durable store. A failed or partial load
// degrades to empty state for whatever could not be read; it is never
// fatal. Slices the store did manage to read are restored even when it
// also reports an error.
func (s *Service) Load(ctx context.Context) {
	state, err := s.store.Load(ctx)
	if err != nil {
		s.logger.Warn("loading conversation state failed, starting empty for unreadable slices", "error", err)
	}
	if state == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for personaID, msgs := range state.Messages {
		s.messages.Restore(personaID, msgs)
	}
	for personaID, branches := range state.Branches {
		s.branches.Restore(personaID, branches, state.Active[personaID])
	}
}

// Personas returns the persona catalog.
func (s *Service) Personas() []models.Persona {
	return s.catalog.All()
}

// Persona resolves a persona id.
func (s *Service) Persona(id string) (models.Persona, error) {
	p, ok := s.catalog.Get(id)
	if !ok {
		return models.Persona{}, fmt.Errorf("%w: %s", ErrUnknownPersona, id)
	}
	return p, nil
}

// AddMessage appends a message to the persona's log, stamping it with
// the active branch when the caller didn't set one. Returns the stored
// message.
func (s *Service) AddMessage(ctx context.Context, personaID string, msg models.Message) (models.Message, error) {
	if _, ok := s.catalog.Get(personaID); !ok {
		return models.Message{}, fmt.Errorf("%w: %s", ErrUnknownPersona, personaID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	stored := s.appendLocked(ctx, personaID, msg)
	return stored, nil
}

// appendLocked implements the add-message operation; callers hold s.mu.
func (s *Service) appendLocked(ctx context.Context, personaID string, msg models.Message) models.Message {
	hadBranches := len(s.branches.List(personaID)) > 0
	branchID := s.branches.EnsureDefault(personaID)
	if msg.BranchID == "" {
		msg.BranchID = branchID
	}
	s.messages.Append(personaID, msg)

	s.persistMessages(ctx, personaID)
	if !hadBranches {
		s.persistBranches(ctx, personaID)
		s.persistActive(ctx, personaID)
	}
	return msg
}

// Messages returns the persona's full log across all branches.
func (s *Service) Messages(personaID string) []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messages.ListAll(personaID)
}

// BranchMessages returns the persona's messages on one branch.
func (s *Service) BranchMessages(personaID, branchID string) []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messages.ListForBranch(personaID, branchID)
}

// ActiveMessages returns the messages on the persona's active branch.
func (s *Service) ActiveMessages(personaID string) []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messages.ListForBranch(personaID, s.branches.Active(personaID))
}

// DeleteMessage removes a message, its same-branch continuation, and any
// branches forked from it. Reports whether the message existed; unknown
// ids are a no-op.
func (s *Service) DeleteMessage(ctx context.Context, personaID, messageID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, _, found := s.messages.Find(personaID, messageID); !found {
		return false
	}

	removedBranches := s.branches.DeleteWhereParent(personaID, messageID)
	removed, _ := s.messages.RemoveCascade(personaID, messageID)

	s.logger.Debug("deleted message cascade",
		"persona", personaID,
		"message", messageID,
		"messages_removed", len(removed),
		"branches_removed", len(removedBranches))

	s.persistMessages(ctx, personaID)
	if len(removedBranches) > 0 {
		s.persistBranches(ctx, personaID)
		s.persistActive(ctx, personaID)
	}
	return true
}

// ClearChat removes all messages, branches and the active cursor for a
// persona and deletes its durable slices.
func (s *Service) ClearChat(ctx context.Context, personaID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages.Clear(personaID)
	s.branches.Clear(personaID)

	if err := s.store.DeletePersona(ctx, personaID); err != nil {
		s.logger.Warn("clearing persisted conversation failed", "persona", personaID, "error", err)
	}
}

// HasActiveConversation reports whether the persona has any messages.
func (s *Service) HasActiveConversation(personaID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messages.HasActiveConversation(personaID)
}

// Branches returns the persona's branches.
func (s *Service) Branches(personaID string) []models.Branch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.branches.List(personaID)
}

// ActiveBranch returns the persona's active branch id.
func (s *Service) ActiveBranch(personaID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.branches.Active(personaID)
}

// CreateBranch forks a new branch from an existing message and switches
// to it. The UI only offers forking from user messages; the engine
// accepts any existing message id.
func (s *Service) CreateBranch(ctx context.Context, personaID, name, parentMessageID string) (models.Branch, error) {
	if strings.TrimSpace(name) == "" {
		return models.Branch{}, ErrEmptyBranchName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, _, found := s.messages.Find(personaID, parentMessageID); !found {
		return models.Branch{}, fmt.Errorf("%w: %s", ErrUnknownMessage, parentMessageID)
	}

	s.branches.EnsureDefault(personaID)
	branch := s.branches.Create(personaID, name, parentMessageID)

	s.persistBranches(ctx, personaID)
	s.persistActive(ctx, personaID)
	return branch, nil
}

// SwitchBranch moves the active cursor.
func (s *Service) SwitchBranch(ctx context.Context, personaID, branchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.branches.Switch(personaID, branchID); err != nil {
		return err
	}
	s.persistActive(ctx, personaID)
	return nil
}

// RenameBranch updates a branch's display name.
func (s *Service) RenameBranch(ctx context.Context, personaID, branchID, newName string) error {
	if strings.TrimSpace(newName) == "" {
		return ErrEmptyBranchName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.branches.Rename(personaID, branchID, newName); err != nil {
		return err
	}
	s.persistBranches(ctx, personaID)
	return nil
}

// DeleteBranch removes a branch record, leaving its messages orphaned in
// the log. Deleting the default branch is a silent no-op.
func (s *Service) DeleteBranch(ctx context.Context, personaID, branchID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.branches.Delete(personaID, branchID) {
		return
	}
	s.persistBranches(ctx, personaID)
	s.persistActive(ctx, personaID)
}

// Export renders the active branch of a persona's conversation.
func (s *Service) Export(personaID string, format Format) (*Artifact, error) {
	persona, err := s.Persona(personaID)
	if err != nil {
		return nil, err
	}
	return renderExport(persona, s.ActiveMessages(personaID), format, time.Now())
}

// MessagesByTimeframe returns one representative user message per
// calendar day falling into the given bucket.
func (s *Service) MessagesByTimeframe(personaID string, tf Timeframe) []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return messagesByTimeframe(s.messages.ListAll(personaID), tf, time.Now())
}

// HasMessagesInTimeframe reports whether the bucket is non-empty.
func (s *Service) HasMessagesInTimeframe(personaID string, tf Timeframe) bool {
	return len(s.MessagesByTimeframe(personaID, tf)) > 0
}

// Send appends the user message, calls the completion backend with the
// persona's system prompt and recent branch history, and appends the
// reply. When the backend fails, a generated fallback reply is appended
// instead and the error is returned so the caller can offer a retry; the
// user message is never rolled back.
func (s *Service) Send(ctx context.Context, personaID, content string, files []models.Attachment) (models.Message, error) {
	if strings.TrimSpace(content) == "" && len(files) == 0 {
		return models.Message{}, ErrEmptyMessage
	}
	persona, err := s.Persona(personaID)
	if err != nil {
		return models.Message{}, err
	}

	userMsg := models.NewMessage(models.RoleUser, content)
	userMsg.Files = files

	s.mu.Lock()
	userMsg = s.appendLocked(ctx, personaID, userMsg)
	branchID := s.branches.Active(personaID)
	turns := s.contextTurnsLocked(personaID, branchID)
	s.mu.Unlock()

	systemPrompt := persona.SystemPrompt
	if fc := fileContext(files); fc != "" {
		systemPrompt += "\n\n" + fc
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	reply, completeErr := s.completer.Complete(callCtx, systemPrompt, turns)
	if completeErr != nil {
		s.logger.Warn("completion failed, using fallback reply",
			"persona", personaID, "branch", branchID, "error", completeErr)
		reply = fallbackReply(len(files) > 0)
		completeErr = fmt.Errorf("complete: %w", completeErr)
	}

	assistantMsg := models.NewMessage(models.RoleAssistant, reply)
	assistantMsg.BranchID = branchID

	s.mu.Lock()
	assistantMsg = s.appendLocked(ctx, personaID, assistantMsg)
	s.mu.Unlock()

	return assistantMsg, completeErr
}

// contextTurnsLocked assembles the completion context for a branch: the
// branch's own messages, preceded by history inherited through the fork
// chain, bounded to the trailing historyLimit+1 turns (the last one
// being the just-appended user message). Inherited context is
// reconstructed by walking parent branches up to each fork point; it is
// never stored redundantly.
func (s *Service) contextTurnsLocked(personaID, branchID string) []Turn {
	msgs := s.inheritedHistoryLocked(personaID, branchID, make(map[string]bool))
	if limit := s.historyLimit + 1; len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}

	turns := make([]Turn, 0, len(msgs))
	for _, msg := range msgs {
		turns = append(turns, Turn{Role: msg.Role, Content: msg.Content})
	}
	return turns
}

func (s *Service) inheritedHistoryLocked(personaID, branchID string, seen map[string]bool) []models.Message {
	if seen[branchID] {
		return nil
	}
	seen[branchID] = true

	own := s.messages.ListForBranch(personaID, branchID)

	branch, ok := s.branches.Get(personaID, branchID)
	if !ok || branch.ParentMessageID == "" {
		return own
	}
	fork, _, found := s.messages.Find(personaID, branch.ParentMessageID)
	if !found {
		return own
	}

	parent := s.inheritedHistoryLocked(personaID, fork.BranchID, seen)
	for i, msg := range parent {
		if msg.ID == fork.ID {
			parent = parent[:i+1]
			break
		}
	}
	return append(parent, own...)
}

// fileContext renders attachment contents into the block prepended to
// the system prompt, one header line per file.
func fileContext(files []models.Attachment) string {
	if len(files) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Here are the contents of the uploaded files:\n\n")
	for _, f := range files {
		fmt.Fprintf(&b, "--- File: %s (%s) ---\n", f.Name, f.Type)
		if f.Content != "" {
			b.WriteString(f.Content)
			b.WriteString("\n\n")
		} else {
			b.WriteString("This is a binary file. Please refer to it by name when discussing it.\n\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

var fallbackReplies = []string{
	"I'm sorry, I encountered an error processing your request. Please try again.",
	"I wasn't able to generate a proper response just now. Could you resend your message?",
	"Something went wrong on my end while answering. Please try again in a moment.",
}

const fallbackFileReply = "I've looked at the files you uploaded, but I'm having trouble processing them right now. Could you ask a specific question about the content?"

// fallbackReply picks the canned assistant reply used when the
// completion backend fails. A send always has a visible outcome.
func fallbackReply(hasFiles bool) string {
	if hasFiles {
		return fallbackFileReply
	}
	return fallbackReplies[rand.IntN(len(fallbackReplies))]
}

// persistMessages, persistBranches and persistActive rewrite one durable
// slice; failures are logged and never fail the mutation.
func (s *Service) persistMessages(ctx context.Context, personaID string) {
	if err := s.store.SaveMessages(ctx, personaID, s.messages.ListAll(personaID)); err != nil {
		s.logger.Warn("persisting messages failed", "persona", personaID, "error", err)
	}
}

func (s *Service) persistBranches(ctx context.Context, personaID string) {
	if err := s.store.SaveBranches(ctx, personaID, s.branches.List(personaID)); err != nil {
		s.logger.Warn("persisting branches failed", "persona", personaID, "error", err)
	}
}

func (s *Service) persistActive(ctx context.Context, personaID string) {
	if err := s.store.SaveActiveBranch(ctx, personaID, s.branches.Active(personaID)); err != nil {
		s.logger.Warn("persisting active branch failed", "persona", personaID, "error", err)
	}
}
