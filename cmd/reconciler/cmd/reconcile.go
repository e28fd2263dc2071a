package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"membership-reconciliation-service/cmd/reconciler/config"
	"membership-reconciliation-service/internal/models"
	"membership-reconciliation-service/internal/reconciler"
	"membership-reconciliation-service/pkg/logger"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	exportFile   string
	workbookFile string
	runDateFlag  string
	dryRun       bool
	showProgress bool
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile a QuickBooks export against the membership workbook",
	Long: `Reconcile loads the membership workbook, applies every transaction in
the export to its routed worksheet, and writes back dated snapshot sheets
plus an error report for anything that could not be matched.

The workbook path is remembered between runs; pass --workbook once and
later runs only need --export.`,
	Example: `  reconciler reconcile --export qb-export.csv --workbook members.xlsx
  reconciler reconcile --export qb-export.csv --run-date 03/15/2024
  reconciler reconcile --export qb-export.csv --dry-run`,
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	reconcileCmd.Flags().StringVarP(&exportFile, "export", "e", "", "QuickBooks export CSV (required)")
	reconcileCmd.Flags().StringVarP(&workbookFile, "workbook", "w", "", "membership workbook .xlsx (remembered from the last run when omitted)")
	reconcileCmd.Flags().StringVar(&runDateFlag, "run-date", "", "run date stamped on output sheets, MM/DD/YYYY (default today)")
	reconcileCmd.Flags().BoolVar(&dryRun, "dry-run", false, "reconcile without writing the workbook")
	reconcileCmd.Flags().BoolVar(&showProgress, "progress", true, "print phase progress")

	reconcileCmd.MarkFlagRequired("export")
}

func runReconcile(cmd *cobra.Command, args []string) error {
	log, err := config.BuildLogger()
	if err != nil {
		return err
	}

	st, err := config.OpenStore(log)
	if err != nil {
		return err
	}
	defer st.Close()

	workbook, err := config.ResolveWorkbook(st, workbookFile)
	if err != nil {
		return err
	}

	opts := reconciler.Options{ExportPath: exportFile, DryRun: dryRun}
	if runDateFlag != "" {
		date, ok := models.ParseSheetDate(runDateFlag)
		if !ok {
			return errors.Errorf("invalid --run-date %q, want MM/DD/YYYY", runDateFlag)
		}
		opts.RunDate = date
	}

	var sink logger.ProgressSink = logger.NopSink{}
	if showProgress {
		sink = consoleSink{out: cmd.OutOrStdout()}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := reconciler.NewRunner(workbook, st, nil, sink, log)
	result, err := runner.Run(ctx, opts)
	if err != nil {
		return formatRunError(err)
	}

	printResult(cmd, result)
	return nil
}

func printResult(cmd *cobra.Command, result *reconciler.Result) {
	out := cmd.OutOrStdout()
	mode := "reconciled"
	if result.DryRun {
		mode = "reconciled (dry run, nothing written)"
	}
	fmt.Fprintf(out, "\nRun %s %s\n", result.RunID, mode)
	fmt.Fprintf(out, "  Transactions: %d (%d zero-amount skipped)\n", result.Transactions, result.Skipped)
	fmt.Fprintf(out, "  Errors:       %d\n", len(result.Errors))
	for _, sheet := range result.Sheets {
		fmt.Fprintf(out, "  Sheet:        %s\n", sheet)
	}
	if len(result.Errors) > 0 {
		fmt.Fprintln(out)
		for _, e := range result.Errors {
			report := e.Report()
			fmt.Fprintf(out, "  [%s] %s: %s\n", report.Source, report.Location, report.Message)
		}
	}
}

// consoleSink prints phase progress on one updating line.
type consoleSink struct {
	out io.Writer
}

func (s consoleSink) EmitProgress(phase string, percent int) {
	fmt.Fprintf(s.out, "\r%-20s %3d%%", phase, percent)
	if percent == 100 {
		fmt.Fprintln(s.out)
	}
}

func (s consoleSink) EmitLog(message string) {}
