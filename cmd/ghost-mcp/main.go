package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	appmcp "github.com/spounge-ai/ghost-mcp/internal/app/mcp"
	"github.com/spounge-ai/ghost-mcp/internal/client"
	"github.com/spounge-ai/ghost-mcp/internal/constants"
	"github.com/spounge-ai/ghost-mcp/internal/infra/audit"
	"github.com/spounge-ai/ghost-mcp/internal/infra/config"
	"github.com/spounge-ai/ghost-mcp/internal/infra/logging"
	"github.com/spounge-ai/ghost-mcp/internal/infra/secrets"
	"github.com/spounge-ai/ghost-mcp/internal/tools"
	"github.com/spounge-ai/ghost-mcp/internal/validation"
	"github.com/spounge-ai/ghost-mcp/pkg/patterns/lifecycle"
)

const shutdownTimeout = 10 * time.Second

// exitError carries a process exit code without an error message.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

type options struct {
	configPath string
	envFile    string
	check      bool
	version    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()

	if err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the server. stdout is reserved for the MCP stdio transport and --check output.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var opts options

	flagSet := pflag.NewFlagSet(constants.ServiceName, pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&opts.configPath, "config", "", "path to a YAML config file (default: ./ghost-mcp.yaml or ./configs/ghost-mcp.yaml when present)")
	flagSet.StringVar(&opts.envFile, "env-file", "", "path to a .env file (default: ./.env when present)")
	flagSet.BoolVar(&opts.check, "check", false, "probe the configured Ghost APIs, print the status as JSON and exit")
	flagSet.BoolVar(&opts.version, "version", false, "print the version and exit")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if opts.version {
		fmt.Fprintf(stdout, "%s %s\n", constants.ServiceName, constants.ServiceVersion)
		return nil
	}
	if extra := flagSet.Args(); len(extra) > 0 {
		return fmt.Errorf("unexpected argument: %s", extra[0])
	}

	cfg, err := config.Load(config.LoadOptions{ConfigPath: opts.configPath, EnvFile: opts.envFile})
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.New(cfg.Logging, stderr)

	if cfg.HasSecretRefs() {
		store, err := secrets.NewParameterStoreFromEnv(ctx, cfg.AWS.Region)
		if err != nil {
			return fmt.Errorf("failed to create parameter store client: %w", err)
		}
		if err := cfg.ResolveSecrets(ctx, store); err != nil {
			return err
		}
	}
	for _, warning := range cfg.Warnings() {
		logger.Warn(warning)
	}

	ghost, err := client.New(cfg.Ghost, logger)
	if err != nil {
		return fmt.Errorf("failed to create Ghost client: %w", err)
	}
	defer ghost.Close()

	validator, err := validation.NewValidator()
	if err != nil {
		return err
	}
	handlers := tools.NewHandlers(ghost, validator, audit.NewAuditLogger(logger), cfg.Ghost.Mode, logger)

	if opts.check {
		return runCheck(ctx, handlers, stdout)
	}

	logger.Info("starting Ghost MCP server",
		"ghost_url", ghost.BaseURL(),
		"mode", cfg.Ghost.Mode,
		"content_api_configured", ghost.ContentConfigured(),
		"admin_api_configured", ghost.AdminConfigured(),
		"cache_ttl", cfg.Ghost.CacheTTLDuration(),
		"breaker_failures", cfg.Ghost.BreakerFailures,
		"version", cfg.ServiceVersion,
	)

	srv := appmcp.New(cfg.Ghost, handlers, logger)
	resources := []lifecycle.ManagedResource{srv}

	for _, r := range resources {
		if err := r.Start(ctx); err != nil {
			return fmt.Errorf("failed to start: %w", err)
		}
	}

	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case <-srv.Done():
		logger.Info("MCP client disconnected")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := lifecycle.StopAll(shutdownCtx, resources...); err != nil {
		logger.Error("error stopping resources", "error", err)
		return err
	}
	logger.Info("shutdown complete")
	return nil
}

// runCheck prints the connection status and fails when a configured surface is unreachable.
func runCheck(ctx context.Context, handlers *tools.Handlers, stdout io.Writer) error {
	status := handlers.CheckConnection(ctx)

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(status); err != nil {
		return fmt.Errorf("failed to write status: %w", err)
	}

	if !status.Healthy() {
		return &exitError{code: 2}
	}
	return nil
}
