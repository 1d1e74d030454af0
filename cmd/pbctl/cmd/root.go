// Package cmd holds the pbctl commands.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/nfrund/profitbridge/internal/config"
	"github.com/nfrund/profitbridge/internal/logging"
	"github.com/nfrund/profitbridge/internal/store"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// runtime holds what commands reach outside the process for, so tests can
// swap in a memory store and filesystem.
type runtime struct {
	loadConfig func() (config.Provider, error)
	openStore  func(ctx context.Context, cfg config.Provider) (store.Client, error)
	fs         afero.Fs
}

func defaultRuntime() *runtime {
	return &runtime{
		loadConfig: func() (config.Provider, error) {
			_ = godotenv.Load()
			return config.Load()
		},
		openStore: store.New,
		fs:        afero.NewOsFs(),
	}
}

// NewRootCmd builds the pbctl command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(defaultRuntime())
}

func newRootCmd(rt *runtime) *cobra.Command {
	root := &cobra.Command{
		Use:   "pbctl",
		Short: "ProfitBridge investments admin tool",
		Long: `pbctl reads the ProfitBridge investments view from the command line.

Available commands:
  list      Print the investments table joined with owner emails
  watch     Follow the live investments view of a running server
  export    Write the investments table to a CSV file
  topics    Explore the websocket bus topics
  version   Print the version

Use "pbctl [command] --help" for more information about a specific command.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(logging.NewWithWriter(cmd.ErrOrStderr(), os.Getenv("LOG_FORMAT"), envOr("LOG_LEVEL", "warn")))
		},
	}

	root.AddCommand(
		newListCmd(rt),
		newWatchCmd(),
		newExportCmd(rt),
		newTopicsCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func withStore(ctx context.Context, rt *runtime, fn func(store.Client) error) error {
	cfg, err := rt.loadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	s, err := rt.openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connecting to store: %w", err)
	}
	defer s.Close(context.WithoutCancel(ctx))
	return fn(s)
}
