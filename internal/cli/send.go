package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/brandtalk/internal/files"
)

var sendAttach []string

var sendCmd = &cobra.Command{
	Use:   "send <persona> <message...>",
	Short: "Send a single message to a persona",
	Long: `Send one message to a persona and print the reply. The message lands
on the persona's active branch.

Examples:
  brandtalk send kate-smith "How should we launch on TikTok?"
  brandtalk send niina-gerber "Review this brief" --attach brief.pdf
  brandtalk send simon-wallace --attach q3-numbers.csv "What stands out?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSend,
}

func init() {
	sendCmd.Flags().StringSliceVarP(&sendAttach, "attach", "a", nil, "attach files to the message")
}

func runSend(cmd *cobra.Command, args []string) error {
	personaID, err := resolvePersona(args[0])
	if err != nil {
		return err
	}
	content := strings.Join(args[1:], " ")

	attachments, err := files.LoadAll(sendAttach)
	if err != nil {
		return err
	}

	ctx := context.Background()
	reply, err := svc.Send(ctx, personaID, content, attachments)
	if err != nil {
		// A fallback reply was still appended; show it but report failure.
		fmt.Println(reply.Content)
		return fmt.Errorf("send: %w", err)
	}

	persona, _ := registry.Get(personaID)
	fmt.Printf("%s: %s\n", persona.Name, reply.Content)
	return nil
}
