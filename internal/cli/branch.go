package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/brandtalk/internal/models"
)

var branchCmd = &cobra.Command{
	Use:   "branch",
	Short: "Manage conversation branches",
	Long: `Manage a persona's conversation branches: alternate takes forked from
an earlier message. Deleting a branch keeps its messages in the log.`,
}

var branchListCmd = &cobra.Command{
	Use:   "list <persona>",
	Short: "List a persona's branches",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		personaID, err := resolvePersona(args[0])
		if err != nil {
			return err
		}

		branches := svc.Branches(personaID)
		if len(branches) == 0 {
			fmt.Println("No branches yet. The default branch appears with the first message.")
			return nil
		}

		active := svc.ActiveBranch(personaID)
		for _, b := range branches {
			marker := " "
			if b.ID == active {
				marker = "*"
			}
			count := len(svc.BranchMessages(personaID, b.ID))
			fmt.Printf("%s %-36s %-24s %d messages\n", marker, b.ID, b.Name, count)
		}
		return nil
	},
}

var branchCreateCmd = &cobra.Command{
	Use:   "create <persona> <name> <message-id>",
	Short: "Fork a new branch from a message and switch to it",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		personaID, err := resolvePersona(args[0])
		if err != nil {
			return err
		}

		branch, err := svc.CreateBranch(context.Background(), personaID, args[1], args[2])
		if err != nil {
			return fmt.Errorf("create branch: %w", err)
		}
		fmt.Printf("Created and switched to branch %q (%s)\n", branch.Name, branch.ID)
		return nil
	},
}

var branchSwitchCmd = &cobra.Command{
	Use:   "switch <persona> <branch-id>",
	Short: "Switch the active branch",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		personaID, err := resolvePersona(args[0])
		if err != nil {
			return err
		}

		if err := svc.SwitchBranch(context.Background(), personaID, args[1]); err != nil {
			return fmt.Errorf("switch branch: %w", err)
		}
		fmt.Printf("Switched to branch %s\n", args[1])
		return nil
	},
}

var branchRenameCmd = &cobra.Command{
	Use:   "rename <persona> <branch-id> <new-name>",
	Short: "Rename a branch",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		personaID, err := resolvePersona(args[0])
		if err != nil {
			return err
		}

		if err := svc.RenameBranch(context.Background(), personaID, args[1], args[2]); err != nil {
			return fmt.Errorf("rename branch: %w", err)
		}
		fmt.Printf("Renamed branch %s to %q\n", args[1], args[2])
		return nil
	},
}

var branchDeleteCmd = &cobra.Command{
	Use:   "delete <persona> <branch-id>",
	Short: "Delete a branch record (messages stay in the log)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		personaID, err := resolvePersona(args[0])
		if err != nil {
			return err
		}
		branchID := args[1]
		if branchID == models.DefaultBranchID {
			fmt.Println("The default branch cannot be deleted.")
			return nil
		}

		svc.DeleteBranch(context.Background(), personaID, branchID)
		fmt.Printf("Deleted branch %s\n", branchID)
		return nil
	},
}

func init() {
	branchCmd.AddCommand(branchListCmd)
	branchCmd.AddCommand(branchCreateCmd)
	branchCmd.AddCommand(branchSwitchCmd)
	branchCmd.AddCommand(branchRenameCmd)
	branchCmd.AddCommand(branchDeleteCmd)
}
