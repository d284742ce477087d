package llm

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/tmc/langchaingo/llms"

	"github.com/raphaelgruber/brandtalk/internal/conversation"
	"github.com/raphaelgruber/brandtalk/internal/metrics"
	"github.com/raphaelgruber/brandtalk/internal/models"
)

type fakeModel struct {
	response *llms.ContentResponse
	err      error
	messages []llms.MessageContent
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", errors.New("not implemented")
}

func newTestCompleter(model llms.Model, collector *metrics.Collector) *Completer {
	return &Completer{
		llm:       model,
		modelName: "test-model",
		collector: collector,
		logger:    slog.New(slog.DiscardHandler),
	}
}

func TestCompleter_Complete(t *testing.T) {
	model := &fakeModel{
		response: &llms.ContentResponse{
			Choices: []*llms.ContentChoice{{
				Content: "positioning advice",
				GenerationInfo: map[string]any{
					"PromptTokens":     42,
					"CompletionTokens": 17,
				},
			}},
		},
	}
	collector := metrics.NewCollector()
	c := newTestCompleter(model, collector)

	turns := []conversation.Turn{
		{Role: models.RoleUser, Content: "hello"},
		{Role: models.RoleAssistant, Content: "hi"},
		{Role: models.RoleUser, Content: "help me"},
	}
	got, err := c.Complete(context.Background(), "You are a strategist.", turns)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "positioning advice" {
		t.Errorf("Complete() = %q", got)
	}

	// System prompt first, then the turns in order.
	if len(model.messages) != 4 {
		t.Fatalf("got %d messages, want 4", len(model.messages))
	}
	if model.messages[0].Role != llms.ChatMessageTypeSystem {
		t.Errorf("messages[0].Role = %v, want system", model.messages[0].Role)
	}
	if model.messages[1].Role != llms.ChatMessageTypeHuman {
		t.Errorf("messages[1].Role = %v, want human", model.messages[1].Role)
	}
	if model.messages[2].Role != llms.ChatMessageTypeAI {
		t.Errorf("messages[2].Role = %v, want ai", model.messages[2].Role)
	}

	snap := collector.Snapshot().Completion
	if snap == nil {
		t.Fatal("expected completion metrics")
	}
	if snap.TotalInputTokens == nil || *snap.TotalInputTokens != 42 {
		t.Errorf("TotalInputTokens = %v, want 42", snap.TotalInputTokens)
	}
	if snap.TotalOutputTokens == nil || *snap.TotalOutputTokens != 17 {
		t.Errorf("TotalOutputTokens = %v, want 17", snap.TotalOutputTokens)
	}
}

func TestCompleter_CompleteNoSystemPrompt(t *testing.T) {
	model := &fakeModel{
		response: &llms.ContentResponse{
			Choices: []*llms.ContentChoice{{Content: "ok"}},
		},
	}
	c := newTestCompleter(model, nil)

	_, err := c.Complete(context.Background(), "", []conversation.Turn{{Role: models.RoleUser, Content: "hi"}})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if len(model.messages) != 1 {
		t.Errorf("got %d messages, want 1 (no system message)", len(model.messages))
	}
}

func TestCompleter_CompleteWrapsFatalErrors(t *testing.T) {
	model := &fakeModel{err: errors.New("invalid api key")}
	collector := metrics.NewCollector()
	c := newTestCompleter(model, collector)

	_, err := c.Complete(context.Background(), "sys", []conversation.Turn{{Role: models.RoleUser, Content: "hi"}})
	if !errors.Is(err, ErrFatalAPI) {
		t.Errorf("expected ErrFatalAPI, got %v", err)
	}

	snap := collector.Snapshot().Completion
	if snap == nil || snap.Errors != 1 {
		t.Errorf("expected one recorded error, got %+v", snap)
	}
}

func TestCompleter_CompleteNoChoices(t *testing.T) {
	model := &fakeModel{response: &llms.ContentResponse{}}
	c := newTestCompleter(model, nil)

	_, err := c.Complete(context.Background(), "sys", []conversation.Turn{{Role: models.RoleUser, Content: "hi"}})
	if err == nil {
		t.Error("expected error for empty choices")
	}
}

func TestTokenUsage(t *testing.T) {
	tests := []struct {
		name    string
		info    map[string]any
		wantIn  int64
		wantOut int64
	}{
		{"nil info", nil, 0, 0},
		{"openai style ints", map[string]any{"PromptTokens": 10, "CompletionTokens": 20}, 10, 20},
		{"anthropic style", map[string]any{"InputTokens": 5, "OutputTokens": 7}, 5, 7},
		{"float values", map[string]any{"PromptTokens": float64(3), "CompletionTokens": float64(4)}, 3, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, out := tokenUsage(&llms.ContentChoice{GenerationInfo: tt.info})
			if in != tt.wantIn || out != tt.wantOut {
				t.Errorf("tokenUsage() = %d/%d, want %d/%d", in, out, tt.wantIn, tt.wantOut)
			}
		})
	}
}
