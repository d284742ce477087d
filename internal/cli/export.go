package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/brandtalk/internal/conversation"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export <persona>",
	Short: "Export a persona's conversation to a file",
	Long: `Export the active branch of a persona's conversation.

The file is named chat-with-<persona>-<date>.<ext> and written to the
output directory.

Examples:
  brandtalk export kate-smith
  brandtalk export kate-smith --format markdown
  brandtalk export kate-smith --format json --out ~/exports`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "text", "export format (text, markdown, json)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", ".", "output directory")
}

func runExport(cmd *cobra.Command, args []string) error {
	personaID, err := resolvePersona(args[0])
	if err != nil {
		return err
	}

	format, err := conversation.ParseFormat(exportFormat)
	if err != nil {
		return err
	}

	artifact, err := svc.Export(personaID, format)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	if err := os.MkdirAll(exportOut, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(exportOut, artifact.Filename)
	if err := os.WriteFile(path, artifact.Data, 0644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}

	fmt.Printf("Exported to %s (%s, %d bytes)\n", path, artifact.MIMEType, len(artifact.Data))
	return nil
}
