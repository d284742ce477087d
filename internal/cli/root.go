// Package cli provides the command-line interface for brandtalk.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/brandtalk/internal/config"
	"github.com/raphaelgruber/brandtalk/internal/conversation"
	"github.com/raphaelgruber/brandtalk/internal/db"
	"github.com/raphaelgruber/brandtalk/internal/llm"
	"github.com/raphaelgruber/brandtalk/internal/metrics"
	"github.com/raphaelgruber/brandtalk/internal/models"
	"github.com/raphaelgruber/brandtalk/internal/personas"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Wired in PersistentPreRunE
	cfg        config.Config
	logger     *slog.Logger
	logCleanup func() error
	dbClient   *db.Client
	registry   *personas.Registry
	collector  *metrics.Collector
	svc        *conversation.Service

	// Lazy-initialized completion backend
	completer *llm.Completer
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "brandtalk",
	Short: "Chat with brand personas",
	Long: `Brandtalk is a persona chat tool: converse with a cast of brand
professionals, fork conversations into named branches, and export or
replay your chat history.

Conversations persist in SurrealDB; set BRANDTALK_STORAGE=memory for an
ephemeral session.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()

		stderrLevel := cfg.LogLevel
		if !verbose {
			stderrLevel = slog.LevelError
		}
		logger, logCleanup = config.SetupLogger(cfg, stderrLevel)

		extra, err := loadExtraPersonas()
		if err != nil {
			return err
		}
		registry, err = personas.NewRegistry(extra...)
		if err != nil {
			return fmt.Errorf("build persona catalog: %w", err)
		}

		collector = metrics.NewCollector()

		ctx := context.Background()
		store, err := openStore(ctx)
		if err != nil {
			return err
		}

		svc = conversation.NewService(registry, store, completerFunc(), logger, conversation.Config{
			HistoryLimit:      cfg.HistoryLimit,
			CompletionTimeout: cfg.CompletionTimeout,
		})
		svc.Load(ctx)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if dbClient != nil {
			if err := dbClient.Close(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
			}
		}
		if logCleanup != nil {
			_ = logCleanup()
		}
	},
}

// loadExtraPersonas reads the optional persona directory.
func loadExtraPersonas() ([]models.Persona, error) {
	if cfg.PersonasDir == "" {
		return nil, nil
	}
	extra, err := personas.LoadDir(cfg.PersonasDir)
	if err != nil {
		return nil, fmt.Errorf("load personas from %s: %w", cfg.PersonasDir, err)
	}
	logger.Debug("loaded extra personas", "dir", cfg.PersonasDir, "count", len(extra))
	return extra, nil
}

// openStore connects the configured persistence backend, degrading to an
// in-memory store when the database is unreachable so chatting still works.
func openStore(ctx context.Context) (conversation.Store, error) {
	if cfg.Storage == config.StorageMemory {
		logger.Debug("using in-memory conversation store")
		return conversation.NewMemoryStore(), nil
	}

	var err error
	dbClient, err = db.NewClient(ctx, db.Config{
		URL:       cfg.SurrealDBURL,
		Namespace: cfg.SurrealDBNamespace,
		Database:  cfg.SurrealDBDatabase,
		Username:  cfg.SurrealDBUser,
		Password:  cfg.SurrealDBPass,
		AuthLevel: cfg.SurrealDBAuthLevel,
	}, logger)
	if err != nil {
		logger.Warn("database unavailable, conversation will not persist", "error", err)
		fmt.Fprintln(os.Stderr, "Warning: database unavailable, this session will not be saved.")
		return conversation.NewMemoryStore(), nil
	}
	if err := dbClient.InitSchema(ctx); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return db.NewStore(dbClient, collector, logger), nil
}

// completerFunc defers backend construction to the first send, so
// read-only commands never touch provider credentials.
func completerFunc() conversation.Completer {
	return completerAdapter{}
}

type completerAdapter struct{}

func (completerAdapter) Complete(ctx context.Context, systemPrompt string, turns []conversation.Turn) (string, error) {
	c, err := getCompleter(ctx)
	if err != nil {
		return "", err
	}
	return c.Complete(ctx, systemPrompt, turns)
}

// getCompleter lazily initializes the completion backend.
func getCompleter(ctx context.Context) (*llm.Completer, error) {
	if completer == nil {
		var err error
		completer, err = llm.NewCompleter(ctx, cfg, collector, logger)
		if err != nil {
			return nil, fmt.Errorf("init completion backend: %w", err)
		}
	}
	return completer, nil
}

// resolvePersona accepts a persona id and returns it after validation,
// printing the catalog on failure.
func resolvePersona(id string) (string, error) {
	if _, ok := registry.Get(id); ok {
		return id, nil
	}
	return "", fmt.Errorf("unknown persona %q (run 'brandtalk personas' to list them)", id)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(branchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(personasCmd)
}
