package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/raphaelgruber/brandtalk/internal/llm"
)

var chatCmd = &cobra.Command{
	Use:   "chat <persona>",
	Short: "Start an interactive chat with a persona",
	Long: `Start an interactive chat session on the persona's active branch.

In a terminal this opens the full-screen chat UI; when stdin or stdout
is redirected it falls back to a plain line-based loop, which makes
scripted conversations possible:

  echo "What would you focus on first?" | brandtalk chat kate-smith`,
	Args: cobra.ExactArgs(1),
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	personaID, err := resolvePersona(args[0])
	if err != nil {
		return err
	}

	if term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd())) {
		return runChatUI(personaID)
	}
	return runChatPlain(cmd.Context(), personaID)
}

// runChatPlain is the non-TTY loop: read a line, print the reply.
func runChatPlain(ctx context.Context, personaID string) error {
	persona, _ := registry.Get(personaID)
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			break
		}

		reply, err := svc.Send(ctx, personaID, line, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
		fmt.Printf("%s: %s\n", persona.Name, reply.Content)
		if errors.Is(err, llm.ErrFatalAPI) {
			// Auth, billing or quota: further sends cannot succeed.
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	printSessionSummary()
	return nil
}

// printSessionSummary reports completion and storage stats for the session.
func printSessionSummary() {
	snap := collector.Snapshot()
	if snap.Completion == nil {
		return
	}
	c := snap.Completion
	fmt.Fprintf(os.Stderr, "\nSession: %d replies, avg %.0fms", c.Count, c.AvgTimeMs)
	if completer != nil {
		fmt.Fprintf(os.Stderr, ", model %s", completer.Model())
	}
	if c.TotalInputTokens != nil && c.TotalOutputTokens != nil {
		fmt.Fprintf(os.Stderr, ", %d in / %d out tokens", *c.TotalInputTokens, *c.TotalOutputTokens)
	}
	if c.Errors > 0 {
		fmt.Fprintf(os.Stderr, ", %d failed", c.Errors)
	}
	fmt.Fprintln(os.Stderr)
}
