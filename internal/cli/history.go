package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/brandtalk/internal/conversation"
	"github.com/raphaelgruber/brandtalk/internal/models"
)

var (
	historyTimeframe string
	historyAll       bool
	historyDelete    string
)

var historyCmd = &cobra.Command{
	Use:   "history <persona>",
	Short: "Show a persona's conversation history",
	Long: `Show the active branch of a persona's conversation.

With --timeframe, show conversation starters instead: the first message
you sent on each calendar day, bucketed into today, yesterday or the
last week.

Examples:
  brandtalk history kate-smith
  brandtalk history kate-smith --all
  brandtalk history kate-smith --timeframe yesterday
  brandtalk history kate-smith --delete <message-id>`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().StringVarP(&historyTimeframe, "timeframe", "t", "", "show conversation starters (today, yesterday, week)")
	historyCmd.Flags().BoolVar(&historyAll, "all", false, "show the full log across branches")
	historyCmd.Flags().StringVar(&historyDelete, "delete", "", "delete a message and everything after it on its branch")
}

func runHistory(cmd *cobra.Command, args []string) error {
	personaID, err := resolvePersona(args[0])
	if err != nil {
		return err
	}

	if historyDelete != "" {
		if !svc.DeleteMessage(cmd.Context(), personaID, historyDelete) {
			return fmt.Errorf("unknown message %q", historyDelete)
		}
		fmt.Printf("Deleted message %s and its continuation.\n", historyDelete)
		return nil
	}

	if historyTimeframe != "" {
		tf, err := conversation.ParseTimeframe(historyTimeframe)
		if err != nil {
			return err
		}
		starters := svc.MessagesByTimeframe(personaID, tf)
		if len(starters) == 0 {
			fmt.Printf("No conversations in timeframe %q.\n", tf)
			return nil
		}
		for _, msg := range starters {
			fmt.Printf("%s  %s  %s\n",
				msg.Timestamp.Local().Format(time.DateTime), msg.ID, firstLine(msg.Content))
		}
		return nil
	}

	var msgs []models.Message
	if historyAll {
		msgs = svc.Messages(personaID)
	} else {
		msgs = svc.ActiveMessages(personaID)
	}
	if len(msgs) == 0 {
		fmt.Println("No messages yet.")
		return nil
	}

	persona, _ := registry.Get(personaID)
	for _, msg := range msgs {
		speaker := persona.Name
		if msg.Role == models.RoleUser {
			speaker = "You"
		}
		fmt.Printf("[%s] %s\n", speaker, msg.Timestamp.Local().Format(time.DateTime))
		fmt.Println(msg.Content)
		for _, f := range msg.Files {
			fmt.Printf("  (attachment: %s, %s)\n", f.Name, f.Type)
		}
		if verbose {
			fmt.Printf("  id=%s branch=%s\n", msg.ID, msg.BranchID)
		}
		fmt.Println()
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 80 {
		s = s[:77] + "..."
	}
	return s
}
