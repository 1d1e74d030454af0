package cmd

import (
	"fmt"

	"github.com/nfrund/profitbridge/internal/storage"
	"github.com/spf13/cobra"
)

func newExportCmd(rt *runtime) *cobra.Command {
	var (
		search string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the investments table to a CSV file",
		Long: `Run the investments join once and write the rows to a CSV file. Amounts and
ROI are written as exact decimals, timestamps as RFC 3339 in UTC.

Examples:
  pbctl export --out investments.csv
  pbctl export --out reports/alice.csv --search alice`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := loadRows(cmd.Context(), rt, search)
			if err != nil {
				return err
			}
			n, err := storage.ExportCSV(cmd.Context(), storage.NewAferoStore(rt.fs), out, rows)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d investment(s) to %s (%d bytes)\n", len(rows), out, n)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Destination CSV file")
	cmd.Flags().StringVarP(&search, "search", "s", "", "Only export rows whose email contains this text")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
