package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/solatis/bamboorules/internal/core/config"
	"github.com/solatis/bamboorules/internal/core/db"
	"github.com/solatis/bamboorules/internal/core/logging"
	"github.com/solatis/bamboorules/internal/rules"
)

const Version = "0.1.0"

var (
	configFile string
	dbURL      string
	logLevel   string
	logFormat  string

	logger = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:           "bamboorules",
	Short:         "BambooRules JSON rule engine",
	Long:          `BambooRules evaluates JsonLogic-style rules over plain data, vectors and tables.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.New(logLevel, logFormat, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		logger = l
		slog.SetDefault(l)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db-url", "", "database connection URL (sqlite://path or postgres://...)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "json", "log format (json, text)")
}

// Execute runs the root command and reports a failure on stderr.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

// loadConfig resolves configuration with the command's changed flags on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(configFile, cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// newEngine builds an engine from the engine section of cfg.
func newEngine(cfg *config.Config) *rules.Engine {
	return rules.NewEngine(
		rules.WithLogger(logger),
		rules.WithMaxDepth(cfg.Engine.MaxDepth),
		rules.WithReflection(cfg.Engine.AllowReflection),
	)
}

// store bundles an open database with its rule store.
type store struct {
	*db.RuleStore
	queries *db.Queries
	close   func() error
}

// openStore opens the configured database and refuses to continue while
// migrations are pending.
func openStore(ctx context.Context, cfg *config.Config) (*store, error) {
	database, err := db.Open(ctx, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pending, err := db.Pending(ctx, database)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to check migrations: %w", err)
	}
	if pending {
		database.Close()
		return nil, fmt.Errorf("database has pending migrations - run 'bamboorules migrate' first")
	}

	queries, err := db.LoadQueries(database)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to load queries: %w", err)
	}

	return &store{RuleStore: db.NewRuleStore(queries), queries: queries, close: database.Close}, nil
}
