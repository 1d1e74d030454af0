package cmd

import (
	"fmt"
	"time"

	"github.com/nfrund/profitbridge/cmd/pbctl/internal/live"
	"github.com/nfrund/profitbridge/cmd/pbctl/internal/output"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var (
		server string
		search string
		plain  bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the live investments view of a running server",
		Long: `Connect to the data websocket of a running ProfitBridge server and print the
investments table every time it changes. Load failures are printed to stderr.
Stop with Ctrl-C.

Examples:
  pbctl watch
  pbctl watch --server https://admin.example.com --search alice`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := live.Dial(ctx, server)
			if err != nil {
				return err
			}
			defer c.Close()

			if search != "" {
				if err := c.Search(search); err != nil {
					return fmt.Errorf("sending search: %w", err)
				}
			}

			return c.Watch(ctx, func(ev live.Event) error {
				switch {
				case ev.IsRows():
					fmt.Fprintf(cmd.OutOrStdout(), "\n%s  %d investment(s)\n", time.Now().Format(time.TimeOnly), len(ev.Rows))
					return output.Rows(cmd.OutOrStdout(), ev.Rows, plain)
				case ev.Notice != nil:
					fmt.Fprintf(cmd.ErrOrStderr(), "[%s] %s\n", ev.Notice.Level, ev.Notice.Message)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&server, "server", envOr("PBCTL_SERVER", "http://localhost:8080"), "Base URL of the server")
	cmd.Flags().StringVarP(&search, "search", "s", "", "Search term for the live view")
	cmd.Flags().BoolVar(&plain, "plain", false, "Print aligned columns instead of a styled table")
	return cmd
}
