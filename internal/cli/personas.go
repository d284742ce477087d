package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var personasCmd = &cobra.Command{
	Use:   "personas [persona]",
	Short: "List available personas",
	Long: `List the personas you can chat with, or show one persona in detail.

Examples:
  brandtalk personas
  brandtalk personas kate-smith`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPersonas,
}

func runPersonas(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		return showPersona(args[0])
	}

	fmt.Printf("%-16s %-32s %s\n", "ID", "NAME", "TITLE")
	for _, p := range registry.All() {
		marker := " "
		if svc.HasActiveConversation(p.ID) {
			marker = "*"
		}
		fmt.Printf("%-16s %-32s %s %s\n", p.ID, p.Name, p.Title, marker)
	}
	fmt.Println("\n* has an active conversation")
	return nil
}

func showPersona(id string) error {
	p, ok := registry.Get(id)
	if !ok {
		return fmt.Errorf("unknown persona %q", id)
	}

	fmt.Printf("%s (%s)\n\n", p.Name, p.Title)
	if p.About != "" {
		fmt.Printf("About:\n  %s\n\n", p.About)
	}
	if p.Characteristics != "" {
		fmt.Printf("Characteristics:\n  %s\n\n", p.Characteristics)
	}
	if p.Needs != "" {
		fmt.Printf("Needs:\n  %s\n\n", p.Needs)
	}
	if p.Challenges != "" {
		fmt.Printf("Challenges:\n  %s\n\n", p.Challenges)
	}
	if p.Quotes != "" {
		fmt.Printf("“%s”\n", p.Quotes)
	}
	return nil
}
