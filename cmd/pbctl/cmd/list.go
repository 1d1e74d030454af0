package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nfrund/profitbridge/cmd/pbctl/internal/output"
	"github.com/nfrund/profitbridge/internal/domain"
	"github.com/nfrund/profitbridge/internal/handlers"
	"github.com/nfrund/profitbridge/internal/investments"
	"github.com/nfrund/profitbridge/internal/store"
	"github.com/nfrund/profitbridge/internal/tracing"
	"github.com/spf13/cobra"
)

func newListCmd(rt *runtime) *cobra.Command {
	var (
		search string
		plain  bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the investments table",
		Long: `Run the investments join once against the configured store and print the
result, newest first. Owners without a profile are shown as N/A.

Examples:
  pbctl list
  pbctl list --search alice
  pbctl list --plain > investments.txt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := loadRows(cmd.Context(), rt, search)
			if err != nil {
				return err
			}
			return output.Rows(cmd.OutOrStdout(), rows, plain)
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "Only show rows whose email contains this text")
	cmd.Flags().BoolVar(&plain, "plain", false, "Print aligned columns instead of a styled table")
	return cmd
}

// loadRows runs the Joiner once with the given term.
func loadRows(ctx context.Context, rt *runtime, search string) ([]domain.ViewRow, error) {
	req := handlers.SearchRequest{Search: search}
	if err := handlers.NewValidator().Validate(&req); err != nil {
		return nil, fmt.Errorf("search must be at most %d characters", handlers.MaxSearchLength)
	}

	var rows []domain.ViewRow
	err := withStore(ctx, rt, func(s store.Client) error {
		var err error
		rows, err = investments.NewJoiner(s, tracing.Noop()).Run(ctx, req.Search)
		if err != nil {
			slog.ErrorContext(ctx, investments.LoadFailedMessage, "event", "investments_load_failure", "error", err)
			return fmt.Errorf("%s: %w", investments.LoadFailedMessage, err)
		}
		return nil
	})
	return rows, err
}
