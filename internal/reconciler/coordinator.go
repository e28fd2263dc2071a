// Package reconciler orchestrates a reconciliation run: it groups the ledger
// by settlement date, routes each transaction to a worksheet, delegates the
// matching to the sheet's own policy, and aggregates the resulting errors.
package reconciler

import (
	recerrors "membership-reconciliation-service/pkg/errors"

	"membership-reconciliation-service/internal/ledger"
	"membership-reconciliation-service/internal/models"
	"membership-reconciliation-service/internal/routing"
	"membership-reconciliation-service/internal/sheets"
	"membership-reconciliation-service/pkg/logger"
)

// Coordinator dispatches one run's transactions against a workbook. It holds
// no locks; a run is single-operator and everything here is confined to the
// run's goroutine.
type Coordinator struct {
	workbook *sheets.Workbook
	rules    *routing.RuleSet
	logger   logger.Logger

	errs []recerrors.RunError
}

// NewCoordinator creates a Coordinator over a parsed workbook and a routing
// snapshot. A nil logger uses the global one.
func NewCoordinator(workbook *sheets.Workbook, rules *routing.RuleSet, log logger.Logger) *Coordinator {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Coordinator{
		workbook: workbook,
		rules:    rules,
		logger:   log.WithComponent("coordinator"),
	}
}

// Reconcile processes the grouped ledger in order: dates ascending, amounts
// ascending within each date so refunds land before same-day charges.
// Zero-amount transactions are skipped without an error and without touching
// any worksheet. Progress is stepped once per transaction, skipped or not.
func (c *Coordinator) Reconcile(groups []ledger.DateGroup, progress *logger.PhaseReporter) {
	progress.Begin()
	for _, group := range groups {
		for _, tx := range group.Transactions {
			if tx.IsInert() {
				progress.Step()
				continue
			}
			c.dispatch(tx)
			progress.Step()
		}
	}
	progress.Finish()
}

func (c *Coordinator) dispatch(tx *models.Transaction) {
	sheetName := c.rules.Route(tx)
	ws := c.workbook.Sheet(sheetName)
	if ws == nil {
		// A rule can point at a sheet the workbook does not carry; the
		// default sheet always exists (the workbook rejects documents
		// without it), so fall back rather than drop the transaction.
		c.logger.WithFields(logger.Fields{
			"sheet":      sheetName,
			"export_row": tx.Index,
		}).Warn("Routed sheet not in workbook, using default")
		ws = c.workbook.Sheet(routing.DefaultSheet)
	}
	if ws == nil {
		c.errs = append(c.errs, &recerrors.UnableToRouteError{Tx: recerrors.TransactionRef{
			Index:     tx.Index,
			AccountID: tx.AccountID,
			Raw:       models.AccountNameString(tx.AccountID, tx.Names),
			Amount:    tx.Amount.String(),
		}})
		return
	}

	if !ws.Reconcile(tx) {
		c.logger.WithFields(logger.Fields{
			"sheet":      ws.Title(),
			"account":    tx.AccountID,
			"export_row": tx.Index,
		}).Debug("Transaction not reconciled")
	}
}

// Errors returns every error the run accumulated (ledger parse errors fed
// in by the caller, coordinator-level errors, and the worksheets' own),
// deduplicated by ledger row and sorted for reporting.
func (c *Coordinator) Errors(ledgerErrs []recerrors.RunError) []recerrors.RunError {
	all := make([]recerrors.RunError, 0, len(ledgerErrs)+len(c.errs))
	all = append(all, ledgerErrs...)
	all = append(all, c.errs...)
	for _, ws := range c.workbook.Worksheets() {
		all = append(all, ws.Errors()...)
	}
	all = recerrors.Deduplicate(all)
	recerrors.SortForReport(all)
	return all
}
