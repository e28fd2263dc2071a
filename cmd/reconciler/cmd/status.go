package cmd

import (
	"fmt"

	"membership-reconciliation-service/internal/models"
	"membership-reconciliation-service/internal/store"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the configured workbook and last run date",
	RunE: withStore(func(cmd *cobra.Command, st *store.Store, args []string) error {
		out := cmd.OutOrStdout()

		path, err := st.WorkbookPath()
		if err != nil {
			return err
		}
		if path == "" {
			path = "(not configured)"
		}
		fmt.Fprintf(out, "Workbook:      %s\n", path)

		lastRun, err := st.LastRunDate()
		if err != nil {
			return err
		}
		if lastRun == nil {
			fmt.Fprintln(out, "Last run:      never")
		} else {
			fmt.Fprintf(out, "Last run:      %s\n", models.FormatSheetDate(*lastRun))
		}

		rules, err := st.ListRules()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Routing rules: %d\n", len(rules))
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
