package reconciler

import (
	"context"
	"time"

	recerrors "membership-reconciliation-service/pkg/errors"

	"membership-reconciliation-service/internal/grid"
	"membership-reconciliation-service/internal/ledger"
	"membership-reconciliation-service/internal/reporter"
	"membership-reconciliation-service/internal/routing"
	"membership-reconciliation-service/internal/sheets"
	"membership-reconciliation-service/pkg/logger"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Progress bounds per phase, as percent of the whole run. Reconciliation
// dominates and owns the wide middle band.
const (
	loadPhaseEnd      = 5
	parsePhaseEnd     = 15
	reconcilePhaseLo  = 25
	reconcilePhaseHi  = 90
	writebackPhaseEnd = 100
)

// errorSheetBase names the error-report sheet; like the data sheets it gets
// the run-date suffix.
const errorSheetBase = "Reconcile Errors"

// RecordStore is the workbook side of a run.
type RecordStore interface {
	LoadDocument() (*grid.Document, error)
	WriteSheets(sheets []grid.SheetWrite) error
}

// ConfigStore supplies the run's routing snapshot and run-date bookkeeping.
type ConfigStore interface {
	ListRules() ([]routing.Rule, error)
	LastRunDate() (*time.Time, error)
	SetLastRunDate(time.Time) error
}

// Options configures a single run.
type Options struct {
	// ExportPath is the QuickBooks export file to reconcile.
	ExportPath string
	// RunDate stamps the output snapshot sheets; zero means today.
	RunDate time.Time
	// DryRun performs everything except workbook writeback and run-date
	// bookkeeping.
	DryRun bool
}

// Result summarizes a completed run.
type Result struct {
	RunID        string
	RunDate      time.Time
	Transactions int
	Skipped      int
	Errors       []recerrors.RunError
	Sheets       []string
	DryRun       bool
}

// Runner wires a run's collaborators together.
type Runner struct {
	records RecordStore
	config  ConfigStore
	loader  *ledger.Loader
	sink    logger.ProgressSink
	logger  logger.Logger
}

// NewRunner creates a Runner. A nil sink discards progress; a nil loader
// gets defaults; a nil logger uses the global one.
func NewRunner(records RecordStore, config ConfigStore, loader *ledger.Loader, sink logger.ProgressSink, log logger.Logger) *Runner {
	if loader == nil {
		loader = ledger.NewLoader(nil)
	}
	if sink == nil {
		sink = logger.NopSink{}
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Runner{
		records: records,
		config:  config,
		loader:  loader,
		sink:    sink,
		logger:  log.WithComponent("runner"),
	}
}

// Run executes one reconciliation run end to end: load the workbook snapshot
// and routing rules, parse the export, reconcile, and write the dated output
// snapshot plus the error report. Cancellation is coarse: the context is
// checked between phases, never mid-phase, so a cancelled run still finishes
// the phase it is in and never leaves the workbook half-written.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	runDate := opts.RunDate
	if runDate.IsZero() {
		runDate = time.Now()
	}
	runID := uuid.NewString()
	log := r.logger.WithField("run_id", runID)
	log.WithFields(logger.Fields{
		"export":  opts.ExportPath,
		"dry_run": opts.DryRun,
	}).Info("Starting reconciliation run")

	// Phase 1: load configuration and the workbook snapshot.
	loadProgress := logger.NewPhaseReporter(r.sink, "Loading workbook", 0, loadPhaseEnd, 1)
	loadProgress.Begin()
	rules, err := r.config.ListRules()
	if err != nil {
		return nil, recerrors.Fatal("loading routing rules", err)
	}
	lastRun, err := r.config.LastRunDate()
	if err != nil {
		return nil, recerrors.Fatal("loading last run date", err)
	}
	doc, err := r.records.LoadDocument()
	if err != nil {
		return nil, recerrors.Fatal("loading workbook", err)
	}
	workbook, err := sheets.NewWorkbook(doc, lastRun)
	if err != nil {
		return nil, recerrors.Fatal("parsing workbook", err)
	}
	loadProgress.Step()
	loadProgress.Finish()
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "run cancelled after load")
	}

	// Phase 2: parse the ledger export.
	parseProgress := logger.NewPhaseReporter(r.sink, "Parsing export", loadPhaseEnd, parsePhaseEnd, 1)
	parseProgress.Begin()
	txs, ledgerErrs, err := r.loader.LoadFile(opts.ExportPath)
	if err != nil {
		return nil, recerrors.Fatal("loading ledger export", err)
	}
	parseProgress.Step()
	parseProgress.Finish()
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "run cancelled after export parse")
	}

	// Phase 3: reconcile.
	coordinator := NewCoordinator(workbook, routing.NewRuleSet(rules), log)
	groups := ledger.GroupByDate(txs)
	coordinator.Reconcile(groups, logger.NewPhaseReporter(
		r.sink, "Reconciling", reconcilePhaseLo, reconcilePhaseHi, len(txs)))
	runErrs := coordinator.Errors(ledgerErrs)
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "run cancelled after reconciliation")
	}

	// Phase 4: writeback.
	writes, titles := r.buildWrites(workbook, runErrs, runDate, log)
	writeProgress := logger.NewPhaseReporter(r.sink, "Writing workbook", reconcilePhaseHi, writebackPhaseEnd, 1)
	writeProgress.Begin()
	if !opts.DryRun {
		if err := r.records.WriteSheets(writes); err != nil {
			return nil, recerrors.Fatal("writing workbook", err)
		}
		if err := r.config.SetLastRunDate(runDate); err != nil {
			return nil, recerrors.Fatal("recording run date", err)
		}
	}
	writeProgress.Step()
	writeProgress.Finish()

	skipped := 0
	for _, tx := range txs {
		if tx.IsInert() {
			skipped++
		}
	}
	log.WithFields(logger.Fields{
		"transactions": len(txs),
		"errors":       len(runErrs),
		"sheets":       len(titles),
	}).Info("Reconciliation run complete")

	return &Result{
		RunID:        runID,
		RunDate:      runDate,
		Transactions: len(txs),
		Skipped:      skipped,
		Errors:       runErrs,
		Sheets:       titles,
		DryRun:       opts.DryRun,
	}, nil
}

// buildWrites renders every worksheet's surviving records into a dated
// snapshot sheet, plus the error-report sheet when there is anything to
// report.
func (r *Runner) buildWrites(workbook *sheets.Workbook, runErrs []recerrors.RunError, runDate time.Time, log logger.Logger) ([]grid.SheetWrite, []string) {
	var writes []grid.SheetWrite
	for _, ws := range workbook.Worksheets() {
		writes = append(writes, grid.SheetWrite{
			Title: sheets.DatedTitle(ws.BaseTitle(), runDate),
			Rows:  ws.WriteRows(),
		})
	}
	if report := reporter.NewReporter(log).BuildReport(runErrs); len(report) > 0 {
		writes = append(writes, grid.SheetWrite{
			Title: sheets.DatedTitle(errorSheetBase, runDate),
			Rows:  report,
		})
	}

	titles := make([]string, len(writes))
	for i, w := range writes {
		titles[i] = w.Title
	}
	return writes, titles
}
