package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var clearForce bool

var clearCmd = &cobra.Command{
	Use:   "clear <persona>",
	Short: "Delete a persona's entire conversation",
	Long: `Delete all messages and branches for a persona, in memory and in the
database. Requires confirmation unless --force is used.

Examples:
  brandtalk clear kate-smith
  brandtalk clear kate-smith --force`,
	Args: cobra.ExactArgs(1),
	RunE: runClear,
}

func init() {
	clearCmd.Flags().BoolVarP(&clearForce, "force", "f", false, "skip confirmation")
}

func runClear(cmd *cobra.Command, args []string) error {
	personaID, err := resolvePersona(args[0])
	if err != nil {
		return err
	}

	persona, _ := registry.Get(personaID)
	count := len(svc.Messages(personaID))
	if count == 0 {
		fmt.Printf("No conversation with %s to clear.\n", persona.Name)
		return nil
	}

	if !clearForce {
		fmt.Printf("About to delete %d messages with %s.\n", count, persona.Name)
		fmt.Print("\nContinue? [y/N]: ")

		reader := bufio.NewReader(os.Stdin)
		response, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		response = strings.TrimSpace(strings.ToLower(response))

		if response != "y" && response != "yes" {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	svc.ClearChat(cmd.Context(), personaID)
	fmt.Printf("Cleared conversation with %s.\n", persona.Name)
	return nil
}
