// Package main is the entry point for the taskgenie server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"taskgenie/internal/config"
	"taskgenie/internal/server"
	"taskgenie/internal/suggest"
	"taskgenie/internal/task"
)

var (
	// Global flags
	cfgPath string
	verbose bool

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "taskgenie",
	Short: "taskgenie - task manager with AI subtask suggestions",
	Long: `taskgenie is a task-management HTTP service.

It stores tasks in SQLite and can break a task down into 3-5 actionable
subtasks by calling the Gemini API, falling back to a cheaper model when
the primary tier is rate limited.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}

		zapCfg := zap.NewProductionConfig()
		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		if parsed, err := zapcore.ParseLevel(level); err == nil {
			zapCfg.Level = zap.NewAtomicLevelAt(parsed)
		}
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the taskgenie HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "taskgenie.yaml", "path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	store, err := task.NewStore(cfg.Database.Path, logger.Named("store"))
	if err != nil {
		return err
	}
	defer store.Close()

	gen, err := suggest.NewGeminiGenerator(ctx, cfg.Gemini.APIKey)
	if err != nil {
		return err
	}
	svc := suggest.NewService(gen, suggest.Config{
		PrimaryModel:      cfg.Gemini.PrimaryModel,
		FallbackModel:     cfg.Gemini.FallbackModel,
		DefaultRetryDelay: cfg.Gemini.GetRetryDelay(),
	}, logger.Named("suggest"))

	srv := server.New(store, svc, logger.Named("http"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Listen(cfg.Server.Addr)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GetShutdownTimeout())
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func main() {
	// Create context that cancels on interrupt
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
