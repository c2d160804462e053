package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/solatis/bamboorules/internal/core/api"
	"github.com/solatis/bamboorules/internal/core/auth"
	"github.com/solatis/bamboorules/internal/core/config"
	"github.com/solatis/bamboorules/internal/core/metrics"
	"github.com/solatis/bamboorules/internal/core/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gRPC rule service",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "0.0.0.0", "gRPC server host")
	serveCmd.Flags().Int("port", 50061, "gRPC server port")
	serveCmd.Flags().Int("metrics-port", 9161, "Prometheus metrics port (0 disables)")
	serveCmd.Flags().Int("max-depth", 256, "maximum rule nesting depth (0 = unlimited)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	secrets, err := config.HMACSecrets()
	if err != nil {
		return fmt.Errorf("failed to load HMAC secrets: %w", err)
	}

	// Stored rules and API keys both need the database; without one the
	// service evaluates inline rules only.
	var (
		ruleStore     api.RuleStore
		authenticator *auth.Authenticator
	)
	if cfg.Database.URL != "" {
		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.close()
		ruleStore = st.RuleStore
		if len(secrets) > 0 {
			authenticator = auth.NewAuthenticator(secrets, st.queries)
		}
	} else if len(secrets) > 0 {
		return fmt.Errorf("HMAC secrets configured but no database for API keys (set database.url or --db-url)")
	}
	if authenticator == nil {
		logger.Warn("API key authentication disabled (set BR_HMAC_SECRET and a database to enable)")
	}

	m := metrics.New()
	service, err := api.NewRuleService(newEngine(cfg), ruleStore, m, logger, cfg.Server.RequestTimeout)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	grpcServer, err := server.NewGRPCServer(cfg.Server, service, authenticator, m, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	logger.Info("Starting BambooRules rule service",
		"version", Version,
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"stored_rules", ruleStore != nil,
	)
	errChan := make(chan error, 1)
	go func() {
		errChan <- grpcServer.Start(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		logger.Info("Shutting down gracefully", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		return grpcServer.Shutdown(shutdownCtx)
	}
}
